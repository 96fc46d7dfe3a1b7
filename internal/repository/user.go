package repository

import (
	"context"
	"errors"
	"strings"

	"atelier/internal/cache"
	"atelier/internal/models"
	"atelier/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetProfile loads a user with experience entries and follower/following
	// counts for public display.
	GetProfile(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Update writes the editable profile fields: display name, bio, avatar
	// and cover URLs. Credentials are never touched here.
	Update(ctx context.Context, user *models.User) error
	// ReplaceExperience swaps the full work-experience list for a user.
	ReplaceExperience(ctx context.Context, userID uint, entries []models.Experience) error
	// AggregateProjectStats sums views and appreciations across the user's
	// projects. Computed at read time, never stored.
	AggregateProjectStats(ctx context.Context, userID uint) (*models.UserStats, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetProfile(ctx context.Context, username string) (*models.User, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "GetProfile", "users")
	defer span.End()

	username = strings.ToLower(username)
	key := cache.ProfileKey(username)

	var cached models.User
	if hit, _ := cache.GetJSON(ctx, key, &cached); hit {
		return &cached, nil
	}

	var user models.User
	err := r.db.WithContext(ctx).
		Select("users.*, "+
			"(SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id) AS followers_count, "+
			"(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) AS following_count").
		Preload("Experience").
		Where("users.username = ?", username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	// Misses are not cached.
	_ = cache.SetJSON(ctx, key, &user, cache.ProfileTTL)
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; SQLite reports "UNIQUE constraint failed".
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	// Only the editable profile columns are written. The user value may have
	// come out of the cache, where password_hash is stripped by json:"-", so
	// a full-row Save would blank the stored hash.
	err := r.db.WithContext(ctx).
		Model(user).
		Select("display_name", "bio", "avatar_url", "cover_url", "updated_at").
		Updates(user).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	cache.InvalidateProfile(ctx, user.Username)
	return nil
}

func (r *userRepository) ReplaceExperience(ctx context.Context, userID uint, entries []models.Experience) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Experience{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		for i := range entries {
			entries[i].ID = 0
			entries[i].UserID = userID
		}
		return tx.Create(&entries).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (r *userRepository) AggregateProjectStats(ctx context.Context, userID uint) (*models.UserStats, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "AggregateProjectStats", "projects")
	defer span.End()

	var stats models.UserStats
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Select("COALESCE(SUM(projects.views), 0) AS views, "+
			"COALESCE((SELECT COUNT(*) FROM appreciations "+
			"JOIN projects p ON p.id = appreciations.project_id "+
			"WHERE p.owner_id = ? AND p.deleted_at IS NULL), 0) AS appreciations", userID).
		Where("projects.owner_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}
