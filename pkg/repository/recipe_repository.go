package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/forkfeed/forkfeed/pkg/models"
)

type recipeRepository struct {
	db *sqlx.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *sqlx.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

const recipeColumns = `id, user_id, title, instructions, ingredients, tag, type, photo, price, total_calories, nutrition, created_at`

// Create inserts a recipe and populates its generated id
func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	if recipe == nil {
		return errors.New("recipe cannot be nil")
	}

	query := `INSERT INTO recipes (user_id, title, instructions, ingredients, tag, type, photo, price, total_calories, nutrition)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		recipe.UserID,
		recipe.Title,
		recipe.Instructions,
		recipe.Ingredients,
		recipe.Tag,
		recipe.Type,
		recipe.Photo,
		recipe.Price,
		recipe.TotalCalories,
		recipe.Nutrition,
	).Scan(&recipe.ID, &recipe.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// GetByID retrieves a recipe by id. Missing recipes return (nil, nil); the
// search engine relies on that to drop dangling references silently.
func (r *recipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1`

	var recipe models.Recipe
	err := r.db.GetContext(ctx, &recipe, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

// FindByID adapts GetByID to the search engine's RecipeCatalog interface
func (r *recipeRepository) FindByID(ctx context.Context, id int64) (*models.Recipe, error) {
	return r.GetByID(ctx, id)
}

// ListByUser retrieves all recipes created by a user
func (r *recipeRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = $1 ORDER BY created_at DESC`

	var recipes []*models.Recipe
	if err := r.db.SelectContext(ctx, &recipes, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list recipes for user: %w", err)
	}
	return recipes, nil
}

// ListAll retrieves every recipe
func (r *recipeRepository) ListAll(ctx context.Context) ([]*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes ORDER BY created_at DESC`

	var recipes []*models.Recipe
	if err := r.db.SelectContext(ctx, &recipes, query); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// Delete removes a recipe row
func (r *recipeRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM recipes WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}
