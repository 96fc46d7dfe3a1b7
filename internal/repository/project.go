package repository

import (
	"context"
	"errors"

	"atelier/internal/models"
	"atelier/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectRepository defines the interface for project data operations.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	// GetByID loads a project with its owner, ordered modules, labels and
	// appreciation set. currentUserID drives the appreciated flag; 0 means
	// anonymous.
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Project, error)
	List(ctx context.Context, filter ProjectFilter, sort string, limit, offset int, currentUserID uint) ([]*models.Project, error)
	Count(ctx context.Context, filter ProjectFilter) (int64, error)
	ListSaved(ctx context.Context, userID uint, limit, offset int) ([]*models.Project, error)
	CountSaved(ctx context.Context, userID uint) (int64, error)
	// IncrementViews bumps the view counter in a single atomic statement.
	IncrementViews(ctx context.Context, id uint) error

	IsAppreciated(ctx context.Context, userID, projectID uint) (bool, error)
	Appreciate(ctx context.Context, userID, projectID uint) error
	Unappreciate(ctx context.Context, userID, projectID uint) error
	AppreciationUserIDs(ctx context.Context, projectID uint) ([]uint, error)

	IsSaved(ctx context.Context, userID, projectID uint) (bool, error)
	Save(ctx context.Context, userID, projectID uint) error
	Unsave(ctx context.Context, userID, projectID uint) error
}

// projectRepository implements ProjectRepository.
type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	defer observability.TrackQuery("create", "projects")()
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// applyProjectDetails adds subqueries computing the appreciation counter and
// the requesting user's appreciated flag in the same query. The counter is
// derived from set cardinality, never stored, so it cannot drift from the
// appreciation set. userID 0 matches no rows and yields false.
func (r *projectRepository) applyProjectDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	return db.Select(
		"projects.*, "+
			"(SELECT COUNT(*) FROM appreciations WHERE appreciations.project_id = projects.id) AS appreciations_count, "+
			"EXISTS(SELECT 1 FROM appreciations WHERE appreciations.project_id = projects.id AND appreciations.user_id = ?) AS appreciated",
		currentUserID,
	)
}

func (r *projectRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Project, error) {
	defer observability.TrackQuery("get", "projects")()

	var project models.Project
	err := r.applyProjectDetails(r.db.WithContext(ctx), currentUserID).
		Preload("Owner").
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Labels").
		First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Project", id)
		}
		return nil, models.NewInternalError(err)
	}

	ids, err := r.AppreciationUserIDs(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	project.Appreciations = ids
	project.SplitLabels()

	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter, sort string, limit, offset int, currentUserID uint) ([]*models.Project, error) {
	defer observability.TrackQuery("list", "projects")()

	var projects []*models.Project
	base := filter.Apply(r.applyProjectDetails(r.db.WithContext(ctx), currentUserID)).
		Preload("Owner").
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Labels")
	err := filter.ApplySort(base, sort).
		Limit(limit).
		Offset(offset).
		Find(&projects).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	for _, p := range projects {
		p.Appreciations = make([]uint, 0)
		p.SplitLabels()
	}
	return projects, nil
}

func (r *projectRepository) Count(ctx context.Context, filter ProjectFilter) (int64, error) {
	defer observability.TrackQuery("count", "projects")()

	var total int64
	err := filter.Apply(r.db.WithContext(ctx).Model(&models.Project{})).
		Count(&total).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

func (r *projectRepository) ListSaved(ctx context.Context, userID uint, limit, offset int) ([]*models.Project, error) {
	defer observability.TrackQuery("list_saved", "projects")()

	var projects []*models.Project
	err := r.applyProjectDetails(r.db.WithContext(ctx), userID).
		Joins("JOIN saved_projects ON saved_projects.project_id = projects.id").
		Where("saved_projects.user_id = ?", userID).
		Preload("Owner").
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Labels").
		Order("saved_projects.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&projects).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	for _, p := range projects {
		p.Appreciations = make([]uint, 0)
		p.SplitLabels()
	}
	return projects, nil
}

func (r *projectRepository) CountSaved(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.SavedProject{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

func (r *projectRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) IsAppreciated(ctx context.Context, userID, projectID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Appreciation{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *projectRepository) Appreciate(ctx context.Context, userID, projectID uint) error {
	// Single atomic insert; concurrent appreciations of the same pair collapse
	// into one row instead of racing a read-modify-write counter.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Appreciation{UserID: userID, ProjectID: projectID}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) Unappreciate(ctx context.Context, userID, projectID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Delete(&models.Appreciation{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) AppreciationUserIDs(ctx context.Context, projectID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := r.db.WithContext(ctx).
		Model(&models.Appreciation{}).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *projectRepository) IsSaved(ctx context.Context, userID, projectID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SavedProject{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *projectRepository) Save(ctx context.Context, userID, projectID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SavedProject{UserID: userID, ProjectID: projectID}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *projectRepository) Unsave(ctx context.Context, userID, projectID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Delete(&models.SavedProject{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
