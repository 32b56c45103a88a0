package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/forkfeed/forkfeed/pkg/models"
)

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a user and populates its generated id
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}

	query := `INSERT INTO users (email, password_hash, name, surname, profile_photo, role, refresh_token)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Surname,
		user.ProfilePhoto,
		user.Role,
		user.RefreshToken,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, email, password_hash, name, surname, profile_photo, role, refresh_token, created_at
			  FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, name, surname, profile_photo, role, refresh_token, created_at
			  FROM users WHERE email = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// UpdateRefreshToken stores the user's current refresh token
func (r *userRepository) UpdateRefreshToken(ctx context.Context, id int64, token string) error {
	query := `UPDATE users SET refresh_token = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, token); err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	return nil
}

// UpdatePassword replaces the user's password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateProfilePhoto replaces the user's profile photo URL
func (r *userRepository) UpdateProfilePhoto(ctx context.Context, id int64, photoURL string) error {
	query := `UPDATE users SET profile_photo = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, photoURL); err != nil {
		return fmt.Errorf("failed to update profile photo: %w", err)
	}
	return nil
}
