package service

import (
	"context"
	"strings"

	"atelier/internal/models"
	"atelier/internal/repository"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
	maxTitleLen     = 140
	maxModules      = 50
)

// Pagination is the page metadata attached to every list response.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func paginate(page, limit int, total int64) *Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// clampPage normalizes page and limit: page >= 1 (default 1), limit in
// [1, maxPageSize] (default defaultPageSize).
func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// ModuleInput is one content block of a create request.
type ModuleInput struct {
	Type    string           `json:"type"`
	Content string           `json:"content"`
	URL     string           `json:"url"`
	Image   models.ImageMeta `json:"image"`
	Caption string           `json:"caption"`
	Order   int              `json:"order"`
}

// CreateProjectInput carries a project create request.
type CreateProjectInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CoverImage  models.ImageMeta `json:"cover_image"`
	Modules     []ModuleInput    `json:"modules"`
	Fields      []string         `json:"fields"`
	Tags        []string         `json:"tags"`
	Tools       []string         `json:"tools"`
}

// ListProjectsInput carries feed query parameters, already parsed.
type ListProjectsInput struct {
	Page          int
	Limit         int
	Search        string
	Fields        []string
	Tools         []string
	Colors        []string
	OwnerUsername string
	Sort          string
}

// ProjectService handles project publishing and the browse feed.
type ProjectService interface {
	Create(ctx context.Context, ownerID uint, input CreateProjectInput) (*models.Project, error)
	List(ctx context.Context, input ListProjectsInput, currentUserID uint) ([]*models.Project, *Pagination, error)
	// Get returns one project by ID and, when countView is set, bumps its
	// view counter first.
	Get(ctx context.Context, id uint, currentUserID uint, countView bool) (*models.Project, error)
	MyProjects(ctx context.Context, userID uint, page, limit int) ([]*models.Project, *Pagination, error)
	Saved(ctx context.Context, userID uint, page, limit int) ([]*models.Project, *Pagination, error)
}

type projectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
}

// NewProjectService creates a new project service.
func NewProjectService(projects repository.ProjectRepository, users repository.UserRepository) ProjectService {
	return &projectService{projects: projects, users: users}
}

func (s *projectService) Create(ctx context.Context, ownerID uint, input CreateProjectInput) (*models.Project, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title is too long")
	}
	if len(input.Modules) > maxModules {
		return nil, models.NewValidationError("Too many modules")
	}

	modules := make([]models.ProjectModule, 0, len(input.Modules))
	for i, m := range input.Modules {
		typ := m.Type
		switch typ {
		case "":
			typ = models.ModuleTypeImage
		case models.ModuleTypeImage, models.ModuleTypeText:
		default:
			return nil, models.NewValidationError("Unknown module type: " + m.Type)
		}
		order := m.Order
		if order == 0 {
			order = i + 1
		}
		modules = append(modules, models.ProjectModule{
			Type:     typ,
			Content:  m.Content,
			URL:      m.URL,
			Image:    m.Image,
			Caption:  m.Caption,
			Position: order,
		})
	}

	project := &models.Project{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     ownerID,
		CoverImage:  input.CoverImage,
		Modules:     modules,
		Labels:      models.BuildLabels(input.Fields, input.Tags, input.Tools),
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return s.projects.GetByID(ctx, project.ID, ownerID)
}

func (s *projectService) List(ctx context.Context, input ListProjectsInput, currentUserID uint) ([]*models.Project, *Pagination, error) {
	page, limit := clampPage(input.Page, input.Limit)

	filter := repository.ProjectFilter{
		Search: strings.TrimSpace(input.Search),
		Fields: input.Fields,
		Tools:  input.Tools,
		Colors: input.Colors,
	}
	if input.OwnerUsername != "" {
		owner, err := s.users.GetByUsername(ctx, input.OwnerUsername)
		if err != nil {
			return nil, nil, err
		}
		if owner == nil {
			// Unknown owner filters everything out, it is not an error.
			return []*models.Project{}, paginate(page, limit, 0), nil
		}
		filter.OwnerID = owner.ID
	}

	total, err := s.projects.Count(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	projects, err := s.projects.List(ctx, filter, input.Sort, limit, (page-1)*limit, currentUserID)
	if err != nil {
		return nil, nil, err
	}
	return projects, paginate(page, limit, total), nil
}

func (s *projectService) Get(ctx context.Context, id uint, currentUserID uint, countView bool) (*models.Project, error) {
	if countView {
		if err := s.projects.IncrementViews(ctx, id); err != nil {
			return nil, err
		}
	}
	return s.projects.GetByID(ctx, id, currentUserID)
}

func (s *projectService) MyProjects(ctx context.Context, userID uint, page, limit int) ([]*models.Project, *Pagination, error) {
	page, limit = clampPage(page, limit)
	filter := repository.ProjectFilter{OwnerID: userID}

	total, err := s.projects.Count(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	projects, err := s.projects.List(ctx, filter, repository.SortNewest, limit, (page-1)*limit, userID)
	if err != nil {
		return nil, nil, err
	}
	return projects, paginate(page, limit, total), nil
}

func (s *projectService) Saved(ctx context.Context, userID uint, page, limit int) ([]*models.Project, *Pagination, error) {
	page, limit = clampPage(page, limit)

	total, err := s.projects.CountSaved(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	projects, err := s.projects.ListSaved(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, nil, err
	}
	return projects, paginate(page, limit, total), nil
}
