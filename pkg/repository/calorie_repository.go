package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/forkfeed/forkfeed/pkg/models"
)

type calorieRepository struct {
	db *sqlx.DB
}

// NewCalorieRepository creates a new calorie-tracking repository
func NewCalorieRepository(db *sqlx.DB) CalorieRepository {
	return &calorieRepository{db: db}
}

// Create inserts a tracking entry
func (r *calorieRepository) Create(ctx context.Context, entry *models.CalorieEntry) error {
	if entry == nil {
		return errors.New("entry cannot be nil")
	}

	query := `INSERT INTO calorie_entries (user_id, recipe_id, eaten_on, portion)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		entry.UserID, entry.RecipeID, entry.EatenOn, entry.Portion,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to create calorie entry: %w", err)
	}
	return nil
}

// GetByUserRecipeAndDay retrieves the entry for a (user, recipe, day)
// triple, ignoring the time-of-day component
func (r *calorieRepository) GetByUserRecipeAndDay(ctx context.Context, userID, recipeID int64, day time.Time) (*models.CalorieEntry, error) {
	query := `SELECT id, user_id, recipe_id, eaten_on, portion FROM calorie_entries
			  WHERE user_id = $1 AND recipe_id = $2 AND eaten_on::date = $3::date`

	var entry models.CalorieEntry
	err := r.db.GetContext(ctx, &entry, query, userID, recipeID, day)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get calorie entry: %w", err)
	}
	return &entry, nil
}

// ListByUserAndDay retrieves all entries a user logged on a day
func (r *calorieRepository) ListByUserAndDay(ctx context.Context, userID int64, day time.Time) ([]*models.CalorieEntry, error) {
	query := `SELECT id, user_id, recipe_id, eaten_on, portion FROM calorie_entries
			  WHERE user_id = $1 AND eaten_on::date = $2::date`

	var entries []*models.CalorieEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID, day); err != nil {
		return nil, fmt.Errorf("failed to list calorie entries: %w", err)
	}
	return entries, nil
}

// UpdatePortion replaces the portion of an entry
func (r *calorieRepository) UpdatePortion(ctx context.Context, id int64, portion float64) error {
	query := `UPDATE calorie_entries SET portion = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, portion); err != nil {
		return fmt.Errorf("failed to update portion: %w", err)
	}
	return nil
}

// Delete removes a tracking entry
func (r *calorieRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM calorie_entries WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete calorie entry: %w", err)
	}
	return nil
}
