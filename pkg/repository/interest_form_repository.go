package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/forkfeed/forkfeed/pkg/models"
)

type interestFormRepository struct {
	db *sqlx.DB
}

// NewInterestFormRepository creates a new interest-form repository
func NewInterestFormRepository(db *sqlx.DB) InterestFormRepository {
	return &interestFormRepository{db: db}
}

const interestFormColumns = `id, user_id, name, surname, date_of_birth, height, weight, gender, created_at`

// Create inserts a form and populates its generated id. The table enforces
// one form per user.
func (r *interestFormRepository) Create(ctx context.Context, form *models.InterestForm) error {
	if form == nil {
		return errors.New("form cannot be nil")
	}

	query := `INSERT INTO interest_forms (user_id, name, surname, date_of_birth, height, weight, gender)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		form.UserID,
		form.Name,
		form.Surname,
		form.DateOfBirth,
		form.Height,
		form.Weight,
		form.Gender,
	).Scan(&form.ID, &form.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create interest form: %w", err)
	}
	return nil
}

// GetByUser retrieves a user's form
func (r *interestFormRepository) GetByUser(ctx context.Context, userID int64) (*models.InterestForm, error) {
	query := `SELECT ` + interestFormColumns + ` FROM interest_forms WHERE user_id = $1`

	var form models.InterestForm
	err := r.db.GetContext(ctx, &form, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interest form: %w", err)
	}
	return &form, nil
}

// Update rewrites the form's fields
func (r *interestFormRepository) Update(ctx context.Context, form *models.InterestForm) error {
	if form == nil {
		return errors.New("form cannot be nil")
	}

	query := `UPDATE interest_forms
			  SET name = $2, surname = $3, date_of_birth = $4, height = $5, weight = $6, gender = $7
			  WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query,
		form.ID,
		form.Name,
		form.Surname,
		form.DateOfBirth,
		form.Height,
		form.Weight,
		form.Gender,
	); err != nil {
		return fmt.Errorf("failed to update interest form: %w", err)
	}
	return nil
}
