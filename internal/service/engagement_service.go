package service

import (
	"context"

	"atelier/internal/cache"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/observability"
	"atelier/internal/repository"
)

// EngagementService handles appreciation, follow and save toggles. Every
// toggle is an insert-or-delete of a membership row; counters are derived
// from the sets at read time, so repeated toggles alternate cleanly and
// concurrent ones collapse instead of drifting.
type EngagementService interface {
	ToggleAppreciation(ctx context.Context, userID, projectID uint) (*models.Project, error)
	ToggleFollow(ctx context.Context, followerID, targetID uint) (*models.User, error)
	ToggleSave(ctx context.Context, userID, projectID uint) (bool, error)
}

type engagementService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
}

// NewEngagementService creates a new engagement service.
func NewEngagementService(projects repository.ProjectRepository, users repository.UserRepository, follows repository.FollowRepository) EngagementService {
	return &engagementService{projects: projects, users: users, follows: follows}
}

func (s *engagementService) ToggleAppreciation(ctx context.Context, userID, projectID uint) (*models.Project, error) {
	if _, err := s.projects.GetByID(ctx, projectID, userID); err != nil {
		return nil, err
	}

	appreciated, err := s.projects.IsAppreciated(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if appreciated {
		err = s.projects.Unappreciate(ctx, userID, projectID)
		observability.AppreciationToggles.WithLabelValues("remove").Inc()
	} else {
		err = s.projects.Appreciate(ctx, userID, projectID)
		observability.AppreciationToggles.WithLabelValues("add").Inc()
	}
	if err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "appreciation toggled",
		"project_id", projectID, "appreciated", !appreciated, "count", project.AppreciationsCount)
	return project, nil
}

func (s *engagementService) ToggleFollow(ctx context.Context, followerID, targetID uint) (*models.User, error) {
	if followerID == targetID {
		return nil, models.NewValidationError("Cannot follow yourself")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	following, err := s.follows.IsFollowing(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	if following {
		err = s.follows.Unfollow(ctx, followerID, targetID)
		observability.FollowToggles.WithLabelValues("unfollow").Inc()
	} else {
		err = s.follows.Follow(ctx, followerID, targetID)
		observability.FollowToggles.WithLabelValues("follow").Inc()
	}
	if err != nil {
		return nil, err
	}
	// Follower counts live inside the cached profile, so the edge change
	// has to evict it before the reload below re-caches fresh counts.
	cache.InvalidateProfile(ctx, target.Username)

	profile, err := s.users.GetProfile(ctx, target.Username)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewNotFoundError("User", targetID)
	}
	profile.Following = !following
	return profile, nil
}

func (s *engagementService) ToggleSave(ctx context.Context, userID, projectID uint) (bool, error) {
	if _, err := s.projects.GetByID(ctx, projectID, userID); err != nil {
		return false, err
	}

	saved, err := s.projects.IsSaved(ctx, userID, projectID)
	if err != nil {
		return false, err
	}
	if saved {
		if err := s.projects.Unsave(ctx, userID, projectID); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := s.projects.Save(ctx, userID, projectID); err != nil {
		return false, err
	}
	return true, nil
}
