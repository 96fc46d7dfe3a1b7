package server

import (
	"strings"

	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:username
// @Summary Get a public profile
// @Description Sanitized user with follower counts and aggregate project stats
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{success=bool,data=models.User}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))
	if username == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid username"))
	}

	profile, err := s.userService.GetProfile(c.Context(), username, s.optionalUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, profile)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update the caller's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile fields"
// @Success 200 {object} object{success=bool,data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var input service.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.userService.UpdateProfile(c.Context(), userID, input)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, profile)
}

// ToggleFollow handles POST and DELETE /api/users/:userId/follow
// @Summary Toggle following a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Target user ID"
// @Success 200 {object} object{success=bool,data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId}/follow [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	profile, err := s.engagementService.ToggleFollow(c.Context(), userID, targetID)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, profile)
}
