package repository

import (
	"context"
	"errors"
	"testing"

	"atelier/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "users_username_key" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{
		Username: "alice", Email: "alice@example.com", PasswordHash: "x", DisplayName: "Alice",
	})
	require.Error(t, err)
	assert.Equal(t, 409, models.StatusForError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountMapsDriverError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectQuery(`SELECT count`).
		WillReturnError(errors.New("connection refused"))

	_, err := repo.Count(context.Background(), ProjectFilter{})
	require.Error(t, err)
	assert.Equal(t, 500, models.StatusForError(err))

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	// Driver details stay wrapped; the client-facing message is generic.
	assert.Equal(t, "Internal server error", appErr.Message)
}
