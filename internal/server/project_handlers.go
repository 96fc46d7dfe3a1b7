package server

import (
	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListProjects handles GET /api/projects
// @Summary Browse the project feed
// @Description Paginated feed with search, facet filters and sorting
// @Tags projects
// @Produce json
// @Param page query int false "Page (1-indexed)"
// @Param limit query int false "Page size (default 12, max 100)"
// @Param search query string false "Case-insensitive substring over title, description and tags"
// @Param field query string false "Comma-separated creative fields (any-of)"
// @Param tool query string false "Comma-separated tools (any-of)"
// @Param color query string false "Comma-separated cover dominant colors (any-of)"
// @Param owner query string false "Restrict to one owner's username"
// @Param sort query string false "newest | most-appreciated | popular"
// @Success 200 {object} object{success=bool,data=[]models.Project,pagination=service.Pagination}
// @Router /projects [get]
func (s *Server) ListProjects(c *fiber.Ctx) error {
	page, limit := parsePageQuery(c)
	input := service.ListProjectsInput{
		Page:          page,
		Limit:         limit,
		Search:        c.Query("search"),
		Fields:        parseCSVQuery(c, "field"),
		Tools:         parseCSVQuery(c, "tool"),
		Colors:        parseCSVQuery(c, "color"),
		OwnerUsername: c.Query("owner"),
		Sort:          c.Query("sort", repository.SortNewest),
	}

	projects, pagination, err := s.projectService.List(c.Context(), input, s.optionalUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, projects, pagination)
}

// GetProject handles GET /api/projects/:slug
// @Summary Get one project
// @Description Returns the full project and counts the view
// @Tags projects
// @Produce json
// @Param slug path int true "Project ID"
// @Success 200 {object} object{success=bool,data=models.Project}
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{slug} [get]
func (s *Server) GetProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "slug")
	if err != nil {
		return nil
	}

	project, err := s.projectService.Get(c.Context(), id, s.optionalUserID(c), true)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, project)
}

// CreateProject handles POST /api/projects
// @Summary Publish a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateProjectInput true "Project"
// @Success 201 {object} object{success=bool,data=models.Project}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /projects [post]
func (s *Server) CreateProject(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var input service.CreateProjectInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	project, err := s.projectService.Create(c.Context(), userID, input)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, project)
}

// MyProjects handles GET /api/projects/user/my-projects
// @Summary The caller's own projects, newest first
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,data=[]models.Project,pagination=service.Pagination}
// @Router /projects/user/my-projects [get]
func (s *Server) MyProjects(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page, limit := parsePageQuery(c)

	projects, pagination, err := s.projectService.MyProjects(c.Context(), userID, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, projects, pagination)
}

// SavedProjects handles GET /api/projects/user/saved
// @Summary The caller's saved projects
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,data=[]models.Project,pagination=service.Pagination}
// @Router /projects/user/saved [get]
func (s *Server) SavedProjects(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page, limit := parsePageQuery(c)

	projects, pagination, err := s.projectService.Saved(c.Context(), userID, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, projects, pagination)
}

// ToggleAppreciation handles POST and DELETE /api/projects/:id/appreciate
// @Summary Toggle appreciation of a project
// @Description Adds or removes the caller from the project's appreciation set
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} object{success=bool,data=models.Project}
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id}/appreciate [post]
func (s *Server) ToggleAppreciation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	project, err := s.engagementService.ToggleAppreciation(c.Context(), userID, projectID)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, project)
}

// ToggleSave handles POST and DELETE /api/projects/:id/save
// @Summary Toggle bookmarking a project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} object{success=bool,data=object{saved=bool}}
// @Failure 404 {object} models.ErrorResponse
// @Router /projects/{id}/save [post]
func (s *Server) ToggleSave(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	saved, err := s.engagementService.ToggleSave(c.Context(), userID, projectID)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"saved": saved})
}
