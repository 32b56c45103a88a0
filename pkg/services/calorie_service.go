package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/observability"
	"github.com/forkfeed/forkfeed/pkg/repository"
)

// DailyReport is the nutrient total of everything a user ate on one day
type DailyReport struct {
	Day           time.Time              `json:"day"`
	TotalCalories int                    `json:"totalCalories"`
	Nutrition     models.NutritionData   `json:"nutrition"`
	Entries       []*models.CalorieEntry `json:"entries"`
}

// CalorieService tracks which recipes a user ate and aggregates daily
// nutrient totals from the recipes' stored nutrition data.
type CalorieService struct {
	entries repository.CalorieRepository
	recipes repository.RecipeRepository
	logger  observability.Logger
}

// NewCalorieService creates a calorie service
func NewCalorieService(
	entries repository.CalorieRepository,
	recipes repository.RecipeRepository,
	logger observability.Logger,
) *CalorieService {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	return &CalorieService{entries: entries, recipes: recipes, logger: logger}
}

// Toggle marks a recipe as eaten on a day, or unmarks it if it already
// was. Returns whether the recipe counts as eaten afterwards.
func (s *CalorieService) Toggle(ctx context.Context, userID, recipeID int64, day time.Time, portion float64) (bool, error) {
	if portion <= 0 {
		portion = 1
	}

	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return false, fmt.Errorf("failed to load recipe: %w", err)
	}
	if recipe == nil {
		return false, ErrNotFound
	}

	existing, err := s.entries.GetByUserRecipeAndDay(ctx, userID, recipeID, day)
	if err != nil {
		return false, fmt.Errorf("failed to check tracking entry: %w", err)
	}
	if existing != nil {
		if err := s.entries.Delete(ctx, existing.ID); err != nil {
			return false, fmt.Errorf("failed to remove tracking entry: %w", err)
		}
		return false, nil
	}

	if err := s.entries.Create(ctx, &models.CalorieEntry{
		UserID:   userID,
		RecipeID: recipeID,
		EatenOn:  day,
		Portion:  portion,
	}); err != nil {
		return false, fmt.Errorf("failed to store tracking entry: %w", err)
	}
	return true, nil
}

// UpdatePortion changes how much of a tracked recipe was eaten
func (s *CalorieService) UpdatePortion(ctx context.Context, userID, recipeID int64, day time.Time, portion float64) error {
	if portion <= 0 {
		return fmt.Errorf("%w: portion must be positive", ErrInvalidInput)
	}

	entry, err := s.entries.GetByUserRecipeAndDay(ctx, userID, recipeID, day)
	if err != nil {
		return fmt.Errorf("failed to load tracking entry: %w", err)
	}
	if entry == nil {
		return ErrNotFound
	}
	if err := s.entries.UpdatePortion(ctx, entry.ID, portion); err != nil {
		return fmt.Errorf("failed to update portion: %w", err)
	}
	return nil
}

// Report aggregates the user's nutrient intake for one day. Entries whose
// recipe no longer exists contribute nothing.
func (s *CalorieService) Report(ctx context.Context, userID int64, day time.Time) (*DailyReport, error) {
	entries, err := s.entries.ListByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking entries: %w", err)
	}

	report := &DailyReport{Day: day, Entries: entries}
	var calories float64
	for _, entry := range entries {
		recipe, err := s.recipes.GetByID(ctx, entry.RecipeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load recipe %d: %w", entry.RecipeID, err)
		}
		if recipe == nil {
			continue
		}

		p := entry.Portion
		calories += float64(recipe.TotalCalories) * p
		report.Nutrition.Carbs += recipe.Nutrition.Carbs * p
		report.Nutrition.Fat += recipe.Nutrition.Fat * p
		report.Nutrition.Protein += recipe.Nutrition.Protein * p
		report.Nutrition.VitaminA += recipe.Nutrition.VitaminA * p
		report.Nutrition.VitaminC += recipe.Nutrition.VitaminC * p
		report.Nutrition.Sodium += recipe.Nutrition.Sodium * p
		report.Nutrition.SaturatedFat += recipe.Nutrition.SaturatedFat * p
		report.Nutrition.Potassium += recipe.Nutrition.Potassium * p
		report.Nutrition.Cholesterol += recipe.Nutrition.Cholesterol * p
		report.Nutrition.Calcium += recipe.Nutrition.Calcium * p
		report.Nutrition.Iron += recipe.Nutrition.Iron * p
	}
	report.TotalCalories = int(math.Round(calories))
	return report, nil
}
