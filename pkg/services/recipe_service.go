package services

import (
	"context"
	"fmt"
	"math"

	"github.com/forkfeed/forkfeed/pkg/clients/fatsecret"
	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/observability"
	"github.com/forkfeed/forkfeed/pkg/repository"
	"github.com/forkfeed/forkfeed/pkg/search"
	"github.com/forkfeed/forkfeed/pkg/storage"
)

// NutritionClient resolves an ingredient name to its nutrient profile
type NutritionClient interface {
	GetFoodNutrition(ctx context.Context, name string) (fatsecret.Nutrition, error)
}

// CreateRecipeInput carries a new recipe's fields. PhotoBase64 is optional.
type CreateRecipeInput struct {
	Title        string
	Instructions []string
	Ingredients  []models.Ingredient
	Tag          string
	Type         string
	Price        float64
	PhotoBase64  string
}

// RecipeService manages the recipe lifecycle: nutrition enrichment, photo
// upload, persistence, search indexing and the cascading delete.
type RecipeService struct {
	recipes   repository.RecipeRepository
	saved     repository.SavedRecipeRepository
	feeds     repository.FeedRepository
	likes     repository.LikeRepository
	comments  repository.CommentRepository
	easiness  repository.EasinessRateRepository
	nutrition NutritionClient
	images    storage.ImageStore
	indexer   *search.RecipeIndexer
	logger    observability.Logger
}

// NewRecipeService creates a recipe service. nutrition and images may be
// nil, which disables enrichment and photo upload respectively.
func NewRecipeService(
	recipes repository.RecipeRepository,
	saved repository.SavedRecipeRepository,
	feeds repository.FeedRepository,
	likes repository.LikeRepository,
	comments repository.CommentRepository,
	easiness repository.EasinessRateRepository,
	nutrition NutritionClient,
	images storage.ImageStore,
	indexer *search.RecipeIndexer,
	logger observability.Logger,
) *RecipeService {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	return &RecipeService{
		recipes:   recipes,
		saved:     saved,
		feeds:     feeds,
		likes:     likes,
		comments:  comments,
		easiness:  easiness,
		nutrition: nutrition,
		images:    images,
		indexer:   indexer,
		logger:    logger,
	}
}

// Create persists a recipe and indexes it for semantic search. If indexing
// fails the stored row is removed again, so a recipe either exists with a
// searchable embedding or not at all.
func (s *RecipeService) Create(ctx context.Context, userID int64, input CreateRecipeInput) (*models.Recipe, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(input.Ingredients) == 0 {
		return nil, fmt.Errorf("%w: at least one ingredient is required", ErrInvalidInput)
	}

	calories, nutrition := s.computeNutrition(ctx, input.Ingredients)

	photoURL := ""
	if input.PhotoBase64 != "" && s.images != nil {
		url, err := s.images.UploadBase64(ctx, input.PhotoBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to upload recipe photo: %w", err)
		}
		photoURL = url
	}

	recipe := &models.Recipe{
		UserID:        userID,
		Title:         input.Title,
		Instructions:  input.Instructions,
		Ingredients:   input.Ingredients,
		Tag:           input.Tag,
		Type:          input.Type,
		Photo:         photoURL,
		Price:         input.Price,
		TotalCalories: calories,
		Nutrition:     nutrition,
	}
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	if err := s.indexer.OnRecipeCreated(ctx, recipe.ID, recipe.Title, recipe.IngredientNames()); err != nil {
		if delErr := s.recipes.Delete(ctx, recipe.ID); delErr != nil {
			s.logger.Error("Failed to roll back unindexed recipe", map[string]interface{}{
				"recipe_id": recipe.ID,
				"error":     delErr.Error(),
			})
		}
		return nil, fmt.Errorf("failed to index recipe: %w", err)
	}

	s.logger.Info("Recipe created", map[string]interface{}{
		"recipe_id": recipe.ID,
		"user_id":   userID,
		"calories":  calories,
	})
	return recipe, nil
}

// computeNutrition sums per-ingredient nutrient profiles scaled by weight.
// A failed lookup contributes zero and is logged; nutrition enrichment
// never fails recipe creation.
func (s *RecipeService) computeNutrition(ctx context.Context, ingredients []models.Ingredient) (int, models.NutritionData) {
	var total models.NutritionData
	var calories float64

	if s.nutrition == nil {
		return 0, total
	}

	for _, ing := range ingredients {
		profile, err := s.nutrition.GetFoodNutrition(ctx, ing.Name)
		if err != nil {
			s.logger.Warn("Nutrition lookup failed", map[string]interface{}{
				"ingredient": ing.Name,
				"error":      err.Error(),
			})
			continue
		}

		base := profile.BaseWeightGrams
		if base <= 0 {
			base = 100
		}
		factor := ing.Unit.Grams(ing.Quantity) / base

		calories += float64(profile.Calories) * factor
		total.Carbs += profile.Carbs * factor
		total.Fat += profile.Fat * factor
		total.Protein += profile.Protein * factor
		total.VitaminA += profile.VitaminA * factor
		total.VitaminC += profile.VitaminC * factor
		total.Sodium += profile.Sodium * factor
		total.SaturatedFat += profile.SaturatedFat * factor
		total.Potassium += profile.Potassium * factor
		total.Cholesterol += profile.Cholesterol * factor
		total.Calcium += profile.Calcium * factor
		total.Iron += profile.Iron * factor
	}

	return int(math.Round(calories)), total
}

// Get returns a recipe by id
func (s *RecipeService) Get(ctx context.Context, id int64) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	if recipe == nil {
		return nil, ErrNotFound
	}
	return recipe, nil
}

// ListByUser returns a user's recipes
func (s *RecipeService) ListByUser(ctx context.Context, userID int64) ([]*models.Recipe, error) {
	return s.recipes.ListByUser(ctx, userID)
}

// ListAll returns every recipe, newest first
func (s *RecipeService) ListAll(ctx context.Context) ([]*models.Recipe, error) {
	return s.recipes.ListAll(ctx)
}

// Delete removes a recipe and everything that references it: bookmarks,
// the recipe's feed entries with their likes and comments, and the search
// embedding. Only the owner may delete.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID int64) error {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("failed to load recipe: %w", err)
	}
	if recipe == nil {
		return ErrNotFound
	}
	if recipe.UserID != userID {
		return ErrForbidden
	}

	if err := s.saved.DeleteByRecipe(ctx, recipeID); err != nil {
		return fmt.Errorf("failed to delete bookmarks: %w", err)
	}

	feeds, err := s.feeds.ListByRecipe(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("failed to list recipe feeds: %w", err)
	}
	if len(feeds) > 0 {
		feedIDs := make([]int64, 0, len(feeds))
		for _, f := range feeds {
			feedIDs = append(feedIDs, f.ID)
		}
		if err := s.likes.DeleteByFeedIDs(ctx, feedIDs); err != nil {
			return fmt.Errorf("failed to delete feed likes: %w", err)
		}
		if err := s.comments.DeleteByFeedIDs(ctx, feedIDs); err != nil {
			return fmt.Errorf("failed to delete feed comments: %w", err)
		}
		for _, id := range feedIDs {
			if err := s.feeds.Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete feed %d: %w", id, err)
			}
		}
	}

	if err := s.recipes.Delete(ctx, recipeID); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if err := s.indexer.OnRecipeDeleted(ctx, recipeID); err != nil {
		return fmt.Errorf("failed to remove recipe embedding: %w", err)
	}

	if recipe.Photo != "" && s.images != nil {
		if err := s.images.Delete(ctx, recipe.Photo); err != nil {
			s.logger.Warn("Failed to delete recipe photo", map[string]interface{}{
				"recipe_id": recipeID,
				"error":     err.Error(),
			})
		}
	}

	s.logger.Info("Recipe deleted", map[string]interface{}{
		"recipe_id": recipeID,
		"feeds":     len(feeds),
	})
	return nil
}

// RateEasiness records a 1-5 difficulty rating and returns the recipe's
// new average. Re-rating replaces the user's previous rating.
func (s *RecipeService) RateEasiness(ctx context.Context, userID, recipeID int64, rate int) (float64, error) {
	if rate < 1 || rate > 5 {
		return 0, fmt.Errorf("%w: rate must be between 1 and 5", ErrInvalidInput)
	}

	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return 0, fmt.Errorf("failed to load recipe: %w", err)
	}
	if recipe == nil {
		return 0, ErrNotFound
	}

	if err := s.easiness.Upsert(ctx, &models.EasinessRate{
		UserID:   userID,
		RecipeID: recipeID,
		Rate:     rate,
	}); err != nil {
		return 0, fmt.Errorf("failed to store rating: %w", err)
	}

	avg, err := s.easiness.AverageForRecipe(ctx, recipeID)
	if err != nil {
		return 0, fmt.Errorf("failed to compute average rating: %w", err)
	}
	return avg, nil
}

// Easiness returns a recipe's average rating and the caller's own rating
// (0 when the caller has not rated it).
func (s *RecipeService) Easiness(ctx context.Context, userID, recipeID int64) (float64, int, error) {
	avg, err := s.easiness.AverageForRecipe(ctx, recipeID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute average rating: %w", err)
	}
	mine, err := s.easiness.GetByUserAndRecipe(ctx, userID, recipeID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load own rating: %w", err)
	}
	own := 0
	if mine != nil {
		own = mine.Rate
	}
	return avg, own, nil
}
