package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/forkfeed/forkfeed/pkg/models"
)

type easinessRateRepository struct {
	db *sqlx.DB
}

// NewEasinessRateRepository creates a new easiness-rating repository
func NewEasinessRateRepository(db *sqlx.DB) EasinessRateRepository {
	return &easinessRateRepository{db: db}
}

// Upsert creates or replaces the user's rating for a recipe
func (r *easinessRateRepository) Upsert(ctx context.Context, rate *models.EasinessRate) error {
	if rate == nil {
		return errors.New("rate cannot be nil")
	}

	query := `INSERT INTO easiness_rates (user_id, recipe_id, rate)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_id, recipe_id) DO UPDATE SET rate = EXCLUDED.rate
			  RETURNING id`

	err := r.db.QueryRowxContext(ctx, query, rate.UserID, rate.RecipeID, rate.Rate).Scan(&rate.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert easiness rate: %w", err)
	}
	return nil
}

// GetByUserAndRecipe retrieves a user's rating for a recipe, if any
func (r *easinessRateRepository) GetByUserAndRecipe(ctx context.Context, userID, recipeID int64) (*models.EasinessRate, error) {
	query := `SELECT id, user_id, recipe_id, rate FROM easiness_rates
			  WHERE user_id = $1 AND recipe_id = $2`

	var rate models.EasinessRate
	err := r.db.GetContext(ctx, &rate, query, userID, recipeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get easiness rate: %w", err)
	}
	return &rate, nil
}

// AverageForRecipe returns the mean rating for a recipe, 0 when unrated
func (r *easinessRateRepository) AverageForRecipe(ctx context.Context, recipeID int64) (float64, error) {
	query := `SELECT COALESCE(AVG(rate), 0) FROM easiness_rates WHERE recipe_id = $1`

	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, recipeID); err != nil {
		return 0, fmt.Errorf("failed to average easiness rates: %w", err)
	}
	return avg, nil
}
