package services

import (
	"context"
	"fmt"

	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/observability"
	"github.com/forkfeed/forkfeed/pkg/repository"
)

// SavedRecipeService manages recipe bookmarks
type SavedRecipeService struct {
	saved   repository.SavedRecipeRepository
	recipes repository.RecipeRepository
	logger  observability.Logger
}

// NewSavedRecipeService creates a saved-recipe service
func NewSavedRecipeService(
	saved repository.SavedRecipeRepository,
	recipes repository.RecipeRepository,
	logger observability.Logger,
) *SavedRecipeService {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	return &SavedRecipeService{saved: saved, recipes: recipes, logger: logger}
}

// Save bookmarks a recipe, denormalizing title and photo so the bookmark
// list renders without joining recipes. Saving twice is a no-op.
func (s *SavedRecipeService) Save(ctx context.Context, userID, recipeID int64) (*models.SavedRecipe, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	if recipe == nil {
		return nil, ErrNotFound
	}

	existing, err := s.saved.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	for _, bookmark := range existing {
		if bookmark.RecipeID == recipeID {
			return bookmark, nil
		}
	}

	bookmark := &models.SavedRecipe{
		UserID:   userID,
		RecipeID: recipeID,
		Title:    recipe.Title,
		Photo:    recipe.Photo,
	}
	if err := s.saved.Create(ctx, bookmark); err != nil {
		return nil, fmt.Errorf("failed to save bookmark: %w", err)
	}
	return bookmark, nil
}

// List returns a user's bookmarks
func (s *SavedRecipeService) List(ctx context.Context, userID int64) ([]*models.SavedRecipe, error) {
	return s.saved.ListByUser(ctx, userID)
}

// Unsave removes a bookmark. Removing an absent bookmark is a no-op.
func (s *SavedRecipeService) Unsave(ctx context.Context, userID, recipeID int64) error {
	if err := s.saved.DeleteByUserAndRecipe(ctx, userID, recipeID); err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	return nil
}
