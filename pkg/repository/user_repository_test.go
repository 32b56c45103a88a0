package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkfeed/forkfeed/pkg/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	user := &models.User{
		Email:        "cook@example.com",
		PasswordHash: "hash",
		Name:         "Ada",
		Surname:      "Lovelace",
		Role:         "USER",
	}

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(user.Email, user.PasswordHash, user.Name, user.Surname,
			user.ProfilePhoto, user.Role, user.RefreshToken).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow(int64(7), time.Now()))

	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateNil(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewUserRepository(db)

	err := repo.Create(context.Background(), nil)
	assert.Error(t, err)
}

func TestUserRepositoryGetByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email`).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetByEmail(context.Background(), "missing@example.com")
	require.NoError(t, err, "a missing user is not an error")
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "email", "password_hash", "name", "surname",
		"profile_photo", "role", "refresh_token", "created_at",
	}).AddRow(int64(3), "a@b.c", "hash", "Ada", "L", "", "USER", "", time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id`).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	user, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "a@b.c", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateRefreshToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE users SET refresh_token`).
		WithArgs(int64(3), "new-token").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateRefreshToken(context.Background(), 3, "new-token")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
