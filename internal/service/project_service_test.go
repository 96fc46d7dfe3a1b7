package service

import (
	"context"
	"testing"

	"atelier/internal/models"
	"atelier/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"defaults", 0, 0, 1, defaultPageSize},
		{"negative page", -3, 20, 1, 20},
		{"limit over cap", 2, 500, 2, maxPageSize},
		{"in range", 3, 24, 3, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := clampPage(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestPaginate(t *testing.T) {
	p := paginate(2, 12, 25)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 12, p.Limit)
	assert.Equal(t, int64(25), p.Total)
	assert.Equal(t, 3, p.TotalPages)

	assert.Equal(t, 0, paginate(1, 12, 0).TotalPages)
	assert.Equal(t, 1, paginate(1, 12, 12).TotalPages)
}

func TestCreateProjectValidation(t *testing.T) {
	svc := NewProjectService(new(MockProjectRepository), new(MockUserRepository))

	_, err := svc.Create(context.Background(), 1, CreateProjectInput{Title: "   "})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)

	_, err = svc.Create(context.Background(), 1, CreateProjectInput{
		Title:   "Poster Set",
		Modules: []ModuleInput{{Type: "video"}},
	})
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "video")
}

func TestCreateProjectDefaultsModuleTypeAndOrder(t *testing.T) {
	projects := new(MockProjectRepository)
	svc := NewProjectService(projects, new(MockUserRepository))

	var created *models.Project
	projects.On("Create", mock.Anything, mock.AnythingOfType("*models.Project")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.Project)
			created.ID = 7
		}).Return(nil)
	projects.On("GetByID", mock.Anything, uint(7), uint(1)).
		Return(&models.Project{ID: 7, Title: "Poster Set"}, nil)

	out, err := svc.Create(context.Background(), 1, CreateProjectInput{
		Title: "  Poster Set  ",
		Modules: []ModuleInput{
			{Content: "intro", Type: models.ModuleTypeText},
			{Image: models.ImageMeta{URL: "/uploads/projects/a.png"}},
		},
		Fields: []string{"Illustration"},
		Tags:   []string{"poster"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), out.ID)

	require.NotNil(t, created)
	assert.Equal(t, "Poster Set", created.Title)
	require.Len(t, created.Modules, 2)
	assert.Equal(t, models.ModuleTypeText, created.Modules[0].Type)
	assert.Equal(t, 1, created.Modules[0].Position)
	assert.Equal(t, models.ModuleTypeImage, created.Modules[1].Type)
	assert.Equal(t, 2, created.Modules[1].Position)
	assert.Len(t, created.Labels, 2)
	projects.AssertExpectations(t)
}

func TestListUnknownOwnerReturnsEmptyPage(t *testing.T) {
	projects := new(MockProjectRepository)
	users := new(MockUserRepository)
	svc := NewProjectService(projects, users)

	users.On("GetByUsername", mock.Anything, "ghost").Return(nil, nil)

	out, pagination, err := svc.List(context.Background(), ListProjectsInput{OwnerUsername: "ghost"}, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int64(0), pagination.Total)
	assert.Equal(t, 0, pagination.TotalPages)
	projects.AssertNotCalled(t, "List")
}

func TestListPassesFilterAndOffset(t *testing.T) {
	projects := new(MockProjectRepository)
	users := new(MockUserRepository)
	svc := NewProjectService(projects, users)

	users.On("GetByUsername", mock.Anything, "alice").
		Return(&models.User{ID: 4, Username: "alice"}, nil)

	wantFilter := repository.ProjectFilter{Search: "poster", Fields: []string{"Illustration"}, OwnerID: 4}
	projects.On("Count", mock.Anything, wantFilter).Return(int64(30), nil)
	projects.On("List", mock.Anything, wantFilter, repository.SortPopular, 12, 12, uint(9)).
		Return([]*models.Project{{ID: 1}}, nil)

	out, pagination, err := svc.List(context.Background(), ListProjectsInput{
		Page:          2,
		Search:        " poster ",
		Fields:        []string{"Illustration"},
		OwnerUsername: "alice",
		Sort:          repository.SortPopular,
	}, 9)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 3, pagination.TotalPages)
	projects.AssertExpectations(t)
}

func TestGetCountsViewBeforeLoad(t *testing.T) {
	projects := new(MockProjectRepository)
	svc := NewProjectService(projects, new(MockUserRepository))

	projects.On("IncrementViews", mock.Anything, uint(3)).Return(nil)
	projects.On("GetByID", mock.Anything, uint(3), uint(0)).
		Return(&models.Project{ID: 3, Views: 1}, nil)

	out, err := svc.Get(context.Background(), 3, 0, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Views)
	projects.AssertExpectations(t)
}

func TestGetWithoutViewCount(t *testing.T) {
	projects := new(MockProjectRepository)
	svc := NewProjectService(projects, new(MockUserRepository))

	projects.On("GetByID", mock.Anything, uint(3), uint(2)).
		Return(&models.Project{ID: 3}, nil)

	_, err := svc.Get(context.Background(), 3, 2, false)
	require.NoError(t, err)
	projects.AssertNotCalled(t, "IncrementViews")
}

func TestSavedPaginates(t *testing.T) {
	projects := new(MockProjectRepository)
	svc := NewProjectService(projects, new(MockUserRepository))

	projects.On("CountSaved", mock.Anything, uint(5)).Return(int64(1), nil)
	projects.On("ListSaved", mock.Anything, uint(5), 12, 0).
		Return([]*models.Project{{ID: 8}}, nil)

	out, pagination, err := svc.Saved(context.Background(), 5, 0, 0)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 1, pagination.TotalPages)
	projects.AssertExpectations(t)
}
