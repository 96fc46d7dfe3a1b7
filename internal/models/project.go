package models

import (
	"time"

	"gorm.io/gorm"
)

// Module types for project content blocks.
const (
	ModuleTypeImage = "image"
	ModuleTypeText  = "text"
)

// Label kinds for project classification sets.
const (
	LabelKindField = "field"
	LabelKindTag   = "tag"
	LabelKindTool  = "tool"
)

// ImageMeta is normalized media metadata returned by the upload service and
// embedded wherever an image reference is stored.
type ImageMeta struct {
	URL           string `json:"url"`
	Filename      string `json:"filename"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	DominantColor string `json:"dominant_color"`
}

// Project represents a published creative project: an ordered gallery of
// modules with classification labels and engagement counters.
type Project struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`
	Owner       *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	CoverImage ImageMeta `gorm:"embedded;embeddedPrefix:cover_" json:"cover_image"`

	Modules []ProjectModule `gorm:"foreignKey:ProjectID" json:"modules"`
	Labels  []ProjectLabel  `gorm:"foreignKey:ProjectID" json:"-"`

	// Fields, Tags and Tools are projections of Labels, split by kind.
	Fields []string `gorm:"-" json:"fields"`
	Tags   []string `gorm:"-" json:"tags"`
	Tools  []string `gorm:"-" json:"tools"`

	// Views is the only persisted counter; incremented atomically on detail fetch.
	Views int64 `gorm:"not null;default:0" json:"views"`

	// AppreciationsCount is not persisted; derived from appreciation set
	// cardinality at query time so it can never drift from the set.
	AppreciationsCount int `gorm:"->;-:migration" json:"appreciations_count"`

	// Appreciated indicates whether the current requesting user appreciated
	// this project (computed).
	Appreciated bool `gorm:"->;-:migration" json:"appreciated"`

	// Appreciations lists the IDs of users who appreciated this project.
	Appreciations []uint `gorm:"-" json:"appreciations"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ProjectModule is one content block within a project.
type ProjectModule struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	ProjectID uint      `gorm:"not null;index" json:"-"`
	Type      string    `gorm:"not null;default:image" json:"type"`
	Content   string    `gorm:"type:text" json:"content"`
	URL       string    `json:"url"`
	Image     ImageMeta `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	Caption   string    `json:"caption"`
	Position  int       `gorm:"not null;default:0" json:"order"`
}

// ProjectLabel is one classification value (field, tag or tool) attached to a
// project. Keeping all three sets in one table lets facet filters compile to
// the same EXISTS clause.
type ProjectLabel struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	ProjectID uint   `gorm:"not null;index:idx_project_labels_lookup" json:"-"`
	Kind      string `gorm:"not null;index:idx_project_labels_lookup" json:"kind"`
	Value     string `gorm:"not null" json:"value"`
}

// Appreciation is set membership: one row per (user, project) like. The
// composite key enforces uniqueness; inserts use ON CONFLICT DO NOTHING so a
// toggle is a single atomic statement.
type Appreciation struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ProjectID uint      `gorm:"primaryKey;autoIncrement:false" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedProject is a bookmark: one row per (user, project).
type SavedProject struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ProjectID uint      `gorm:"primaryKey;autoIncrement:false" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SplitLabels fills Fields, Tags and Tools from the loaded Labels rows.
func (p *Project) SplitLabels() {
	p.Fields = make([]string, 0)
	p.Tags = make([]string, 0)
	p.Tools = make([]string, 0)
	for _, l := range p.Labels {
		switch l.Kind {
		case LabelKindField:
			p.Fields = append(p.Fields, l.Value)
		case LabelKindTag:
			p.Tags = append(p.Tags, l.Value)
		case LabelKindTool:
			p.Tools = append(p.Tools, l.Value)
		}
	}
}

// BuildLabels converts field/tag/tool string sets into label rows, skipping
// blanks and duplicates within a kind.
func BuildLabels(fields, tags, tools []string) []ProjectLabel {
	var labels []ProjectLabel
	appendKind := func(kind string, values []string) {
		seen := map[string]struct{}{}
		for _, v := range values {
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			labels = append(labels, ProjectLabel{Kind: kind, Value: v})
		}
	}
	appendKind(LabelKindField, fields)
	appendKind(LabelKindTag, tags)
	appendKind(LabelKindTool, tools)
	return labels
}
