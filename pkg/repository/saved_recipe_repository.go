package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/forkfeed/forkfeed/pkg/models"
)

type savedRecipeRepository struct {
	db *sqlx.DB
}

// NewSavedRecipeRepository creates a new saved-recipe repository
func NewSavedRecipeRepository(db *sqlx.DB) SavedRecipeRepository {
	return &savedRecipeRepository{db: db}
}

// Create inserts a bookmark
func (r *savedRecipeRepository) Create(ctx context.Context, saved *models.SavedRecipe) error {
	if saved == nil {
		return errors.New("saved recipe cannot be nil")
	}

	query := `INSERT INTO saved_recipes (user_id, recipe_id, title, photo)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		saved.UserID, saved.RecipeID, saved.Title, saved.Photo,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save recipe: %w", err)
	}
	return nil
}

// ListByUser retrieves a user's bookmarks, newest first
func (r *savedRecipeRepository) ListByUser(ctx context.Context, userID int64) ([]*models.SavedRecipe, error) {
	query := `SELECT id, user_id, recipe_id, title, photo, created_at
			  FROM saved_recipes WHERE user_id = $1 ORDER BY created_at DESC`

	var saved []*models.SavedRecipe
	if err := r.db.SelectContext(ctx, &saved, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list saved recipes: %w", err)
	}
	return saved, nil
}

// DeleteByUserAndRecipe removes a user's bookmark of a recipe
func (r *savedRecipeRepository) DeleteByUserAndRecipe(ctx context.Context, userID, recipeID int64) error {
	query := `DELETE FROM saved_recipes WHERE user_id = $1 AND recipe_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, recipeID); err != nil {
		return fmt.Errorf("failed to unsave recipe: %w", err)
	}
	return nil
}

// DeleteByRecipe removes every bookmark of a recipe, used when the recipe
// itself is deleted
func (r *savedRecipeRepository) DeleteByRecipe(ctx context.Context, recipeID int64) error {
	query := `DELETE FROM saved_recipes WHERE recipe_id = $1`

	if _, err := r.db.ExecContext(ctx, query, recipeID); err != nil {
		return fmt.Errorf("failed to delete saved recipes: %w", err)
	}
	return nil
}
