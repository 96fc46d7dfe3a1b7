package repository

import (
	"context"
	"testing"

	"atelier/internal/models"
	"atelier/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		DisplayName:  username,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedProject(t *testing.T, db *gorm.DB, ownerID uint, title string) models.Project {
	t.Helper()
	project := models.Project{
		Title:   title,
		OwnerID: ownerID,
		Modules: []models.ProjectModule{
			{Type: models.ModuleTypeImage, Position: 1},
		},
	}
	require.NoError(t, db.Create(&project).Error)
	return project
}

func TestProjectCreateAndGet(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	owner := seedUser(t, db, "alice")

	project := &models.Project{
		Title:       "Poster Set",
		Description: "Screen prints",
		OwnerID:     owner.ID,
		CoverImage:  models.ImageMeta{URL: "/media/projects/x.jpg", DominantColor: "#112233"},
		Modules: []models.ProjectModule{
			{Type: models.ModuleTypeText, Content: "Intro", Position: 2},
			{Type: models.ModuleTypeImage, URL: "/media/projects/a.jpg", Position: 1},
		},
		Labels: models.BuildLabels(
			[]string{"Illustration"},
			[]string{"poster", "print"},
			[]string{"Photoshop"},
		),
	}
	require.NoError(t, repo.Create(ctx, project))

	got, err := repo.GetByID(ctx, project.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Poster Set", got.Title)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "alice", got.Owner.Username)
	assert.Equal(t, 0, got.AppreciationsCount)
	assert.False(t, got.Appreciated)
	assert.Empty(t, got.Appreciations)
	assert.Equal(t, []string{"Illustration"}, got.Fields)
	assert.ElementsMatch(t, []string{"poster", "print"}, got.Tags)
	assert.Equal(t, []string{"Photoshop"}, got.Tools)

	// Modules come back ordered by position regardless of insert order.
	require.Len(t, got.Modules, 2)
	assert.Equal(t, models.ModuleTypeImage, got.Modules[0].Type)
	assert.Equal(t, models.ModuleTypeText, got.Modules[1].Type)
}

func TestProjectGetMissing(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewProjectRepository(db)

	_, err := repo.GetByID(context.Background(), 999, 0)
	require.Error(t, err)
	assert.Equal(t, 404, models.StatusForError(err))
}

func TestAppreciationSetDrivesCounter(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	fan := seedUser(t, db, "bob")
	project := seedProject(t, db, owner.ID, "Poster Set")

	require.NoError(t, repo.Appreciate(ctx, fan.ID, project.ID))

	got, err := repo.GetByID(ctx, project.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AppreciationsCount)
	assert.True(t, got.Appreciated)
	assert.Equal(t, []uint{fan.ID}, got.Appreciations)

	// Duplicate insert collapses: the counter is set cardinality.
	require.NoError(t, repo.Appreciate(ctx, fan.ID, project.ID))
	got, err = repo.GetByID(ctx, project.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AppreciationsCount)

	require.NoError(t, repo.Unappreciate(ctx, fan.ID, project.ID))
	got, err = repo.GetByID(ctx, project.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AppreciationsCount)
	assert.False(t, got.Appreciated)
}

func TestIncrementViews(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	project := seedProject(t, db, owner.ID, "Poster Set")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementViews(ctx, project.ID))
	}

	got, err := repo.GetByID(ctx, project.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Views)
}

func TestListFilterAndCount(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	posters := models.Project{
		Title:   "Minimal Poster Series",
		OwnerID: alice.ID,
		Labels:  models.BuildLabels([]string{"Graphic Design"}, []string{"poster"}, []string{"Illustrator"}),
	}
	require.NoError(t, db.Create(&posters).Error)
	branding := models.Project{
		Title:   "Coffee Brand Identity",
		OwnerID: bob.ID,
		Labels:  models.BuildLabels([]string{"Branding"}, []string{"logo"}, []string{"Figma"}),
	}
	require.NoError(t, db.Create(&branding).Error)

	// Search matches title case-insensitively.
	filter := ProjectFilter{Search: "POSTER"}
	total, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	results, err := repo.List(ctx, filter, SortNewest, 12, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Minimal Poster Series", results[0].Title)

	// Search matches tag values too.
	results, err = repo.List(ctx, ProjectFilter{Search: "logo"}, SortNewest, 12, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Coffee Brand Identity", results[0].Title)

	// Field facet is any-of within the dimension.
	results, err = repo.List(ctx, ProjectFilter{Fields: []string{"Branding", "Photography"}}, SortNewest, 12, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, bob.ID, results[0].OwnerID)

	// Dimensions AND together: matching field but wrong tool is excluded.
	total, err = repo.Count(ctx, ProjectFilter{Fields: []string{"Branding"}, Tools: []string{"Illustrator"}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	// Owner restriction.
	total, err = repo.Count(ctx, ProjectFilter{OwnerID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// No filter returns everything.
	total, err = repo.Count(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestListSortByAppreciations(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	fans := []models.User{seedUser(t, db, "bob"), seedUser(t, db, "carol")}

	quiet := seedProject(t, db, owner.ID, "Quiet One")
	popular := seedProject(t, db, owner.ID, "Crowd Favorite")
	for _, fan := range fans {
		require.NoError(t, repo.Appreciate(ctx, fan.ID, popular.ID))
	}

	results, err := repo.List(ctx, ProjectFilter{}, SortMostAppreciated, 12, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, popular.ID, results[0].ID)
	assert.Equal(t, 2, results[0].AppreciationsCount)
	assert.Equal(t, quiet.ID, results[1].ID)
}

func TestSaveToggleQueries(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	reader := seedUser(t, db, "bob")
	project := seedProject(t, db, owner.ID, "Poster Set")

	saved, err := repo.IsSaved(ctx, reader.ID, project.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	require.NoError(t, repo.Save(ctx, reader.ID, project.ID))
	require.NoError(t, repo.Save(ctx, reader.ID, project.ID)) // idempotent

	saved, err = repo.IsSaved(ctx, reader.ID, project.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	total, err := repo.CountSaved(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	list, err := repo.ListSaved(ctx, reader.ID, 12, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, project.ID, list[0].ID)

	require.NoError(t, repo.Unsave(ctx, reader.ID, project.ID))
	total, err = repo.CountSaved(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}
