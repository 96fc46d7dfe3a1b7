// Package repository implements the data access layer for the application.
package repository

import (
	"strings"

	"gorm.io/gorm"
)

// Sort orders accepted by the project feed.
const (
	SortNewest          = "newest"
	SortMostAppreciated = "most-appreciated"
	SortPopular         = "popular"
)

// ProjectFilter is the tagged set of feed constraints parsed from the query
// string. Dimensions compose with AND; values within one dimension are
// any-of. It compiles to a store query in exactly one place (Apply) so the
// filter grammar stays testable in isolation from the HTTP layer.
type ProjectFilter struct {
	// Search matches title, description or tag values, case-insensitive.
	Search string
	Fields []string
	Tools  []string
	Colors []string
	// OwnerID restricts to one owner when nonzero. Resolution of an owner
	// username happens above this layer; an unknown username never reaches
	// the filter.
	OwnerID uint
}

// HasSearch reports whether a non-blank search term is present.
func (f ProjectFilter) HasSearch() bool {
	return strings.TrimSpace(f.Search) != ""
}

// Apply compiles the filter into WHERE clauses on the projects table.
// Only portable SQL: the same compiled query runs on PostgreSQL and SQLite.
func (f ProjectFilter) Apply(db *gorm.DB) *gorm.DB {
	if f.HasSearch() {
		like := "%" + strings.ToLower(strings.TrimSpace(f.Search)) + "%"
		db = db.Where(
			"LOWER(projects.title) LIKE ? OR LOWER(projects.description) LIKE ? OR EXISTS ("+
				"SELECT 1 FROM project_labels WHERE project_labels.project_id = projects.id "+
				"AND project_labels.kind = 'tag' AND LOWER(project_labels.value) LIKE ?)",
			like, like, like,
		)
	}

	db = f.applyLabelDimension(db, "field", f.Fields)
	db = f.applyLabelDimension(db, "tool", f.Tools)

	if vals := cleanValues(f.Colors); len(vals) > 0 {
		db = db.Where("projects.cover_dominant_color IN ?", vals)
	}

	if f.OwnerID != 0 {
		db = db.Where("projects.owner_id = ?", f.OwnerID)
	}

	return db
}

func (f ProjectFilter) applyLabelDimension(db *gorm.DB, kind string, values []string) *gorm.DB {
	vals := cleanValues(values)
	if len(vals) == 0 {
		return db
	}
	return db.Where(
		"EXISTS (SELECT 1 FROM project_labels WHERE project_labels.project_id = projects.id "+
			"AND project_labels.kind = ? AND project_labels.value IN ?)",
		kind, vals,
	)
}

// ApplySort appends the ORDER BY clause for the requested sort. A search
// term forces relevance ordering (title matches first) ahead of any explicit
// sort request.
func (f ProjectFilter) ApplySort(db *gorm.DB, sort string) *gorm.DB {
	if f.HasSearch() {
		like := "%" + strings.ToLower(strings.TrimSpace(f.Search)) + "%"
		return db.
			Order(gorm.Expr("CASE WHEN LOWER(projects.title) LIKE ? THEN 0 ELSE 1 END", like)).
			Order("projects.created_at DESC")
	}

	switch sort {
	case SortMostAppreciated:
		return db.Order("appreciations_count DESC, projects.created_at DESC")
	case SortPopular:
		return db.Order("projects.views DESC, projects.created_at DESC")
	default: // "newest" and anything unrecognized
		return db.Order("projects.created_at DESC")
	}
}

func cleanValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
