package service

import (
	"context"
	"strings"
	"time"

	"atelier/internal/models"
	"atelier/internal/repository"
)

const (
	maxDisplayNameLen = 60
	maxBioLen         = 1000
	maxURLLen         = 2048
	maxExperience     = 30
)

// ExperienceInput is one work-history entry of a profile update.
type ExperienceInput struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

// UpdateProfileInput carries the editable profile fields. Nil pointers leave
// the field untouched; non-nil replace it.
type UpdateProfileInput struct {
	DisplayName *string           `json:"display_name"`
	Bio         *string           `json:"bio"`
	AvatarURL   *string           `json:"avatar_url"`
	CoverURL    *string           `json:"cover_url"`
	Experience  []ExperienceInput `json:"experience"`
}

// UserService handles profile reads and edits.
type UserService interface {
	// GetProfile returns the public profile for a username: sanitized user,
	// follower/following counts and aggregate project stats recomputed at
	// fetch time. viewerID drives the following flag; 0 means anonymous.
	GetProfile(ctx context.Context, username string, viewerID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.User, error)
}

type userService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, follows repository.FollowRepository) UserService {
	return &userService{users: users, follows: follows}
}

func (s *userService) GetProfile(ctx context.Context, username string, viewerID uint) (*models.User, error) {
	profile, err := s.users.GetProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	stats, err := s.users.AggregateProjectStats(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	profile.Stats = stats

	if viewerID != 0 && viewerID != profile.ID {
		following, err := s.follows.IsFollowing(ctx, viewerID, profile.ID)
		if err != nil {
			return nil, err
		}
		profile.Following = following
	}
	return profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if len(name) > maxDisplayNameLen {
			return nil, models.NewValidationError("Display name is too long")
		}
		user.DisplayName = name
	}
	if input.Bio != nil {
		if len(*input.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio is too long")
		}
		user.Bio = *input.Bio
	}
	if input.AvatarURL != nil {
		if len(*input.AvatarURL) > maxURLLen {
			return nil, models.NewValidationError("Avatar URL is too long")
		}
		user.AvatarURL = *input.AvatarURL
	}
	if input.CoverURL != nil {
		if len(*input.CoverURL) > maxURLLen {
			return nil, models.NewValidationError("Cover URL is too long")
		}
		user.CoverURL = *input.CoverURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if input.Experience != nil {
		if len(input.Experience) > maxExperience {
			return nil, models.NewValidationError("Too many experience entries")
		}
		entries := make([]models.Experience, 0, len(input.Experience))
		for _, e := range input.Experience {
			if strings.TrimSpace(e.Title) == "" {
				return nil, models.NewValidationError("Experience title is required")
			}
			start, err := parseExperienceDate(e.StartDate)
			if err != nil {
				return nil, err
			}
			end, err := parseExperienceDate(e.EndDate)
			if err != nil {
				return nil, err
			}
			entries = append(entries, models.Experience{
				UserID:      userID,
				Title:       strings.TrimSpace(e.Title),
				Company:     strings.TrimSpace(e.Company),
				StartDate:   start,
				EndDate:     end,
				Description: e.Description,
			})
		}
		if err := s.users.ReplaceExperience(ctx, userID, entries); err != nil {
			return nil, err
		}
	}

	profile, err := s.users.GetProfile(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewNotFoundError("User", userID)
	}
	return profile, nil
}

// parseExperienceDate accepts "2006-01-02", "2006-01" or RFC 3339; empty is nil.
func parseExperienceDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, models.NewValidationError("Invalid date: " + value)
}
