package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkfeed/forkfeed/pkg/clients/fatsecret"
	"github.com/forkfeed/forkfeed/pkg/embedding"
	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/search"
)

// fakeNutrition maps ingredient names to fixed profiles; unknown names fail
type fakeNutrition struct {
	profiles map[string]fatsecret.Nutrition
}

func (n *fakeNutrition) GetFoodNutrition(_ context.Context, name string) (fatsecret.Nutrition, error) {
	profile, ok := n.profiles[name]
	if !ok {
		return fatsecret.Nutrition{}, errors.New("lookup failed")
	}
	return profile, nil
}

type recipeFixture struct {
	service *RecipeService
	recipes *fakeRecipeRepo
	saved   *fakeSavedRepo
	feeds   *fakeFeedRepo
	likes   *fakeLikeRepo
	store   *fakeEmbeddingStore
}

func newRecipeFixture(provider embedding.Provider, nutrition NutritionClient) *recipeFixture {
	f := &recipeFixture{
		recipes: newFakeRecipeRepo(),
		saved:   newFakeSavedRepo(),
		feeds:   newFakeFeedRepo(),
		likes:   newFakeLikeRepo(),
		store:   &fakeEmbeddingStore{},
	}
	indexer := search.NewRecipeIndexer(provider, f.store, nil)
	f.service = NewRecipeService(
		f.recipes, f.saved, f.feeds, f.likes, newFakeCommentRepo(),
		newFakeEasinessRepo(), nutrition, nil, indexer, nil)
	return f
}

func staticChickenProvider() *embedding.StaticProvider {
	p := embedding.NewStaticProvider()
	p.Fallback = []float64{0, 0, 1}
	return p
}

func TestCreateRecipeComputesNutrition(t *testing.T) {
	nutrition := &fakeNutrition{profiles: map[string]fatsecret.Nutrition{
		"chicken": {Calories: 200, BaseWeightGrams: 100, Protein: 27, Fat: 14},
		"rice":    {Calories: 130, BaseWeightGrams: 100, Carbs: 28},
	}}
	f := newRecipeFixture(staticChickenProvider(), nutrition)

	recipe, err := f.service.Create(context.Background(), 1, CreateRecipeInput{
		Title: "Chicken Rice",
		Ingredients: []models.Ingredient{
			// 200g chicken => 2x profile, 1 cup rice => 200g => 2x profile
			{Name: "chicken", Quantity: 200, Unit: models.MeasurementGram},
			{Name: "rice", Quantity: 1, Unit: models.MeasurementCup},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 660, recipe.TotalCalories)
	assert.InDelta(t, 54.0, recipe.Nutrition.Protein, 0.001)
	assert.InDelta(t, 56.0, recipe.Nutrition.Carbs, 0.001)
	assert.InDelta(t, 28.0, recipe.Nutrition.Fat, 0.001)
}

func TestCreateRecipeSurvivesFailedLookups(t *testing.T) {
	nutrition := &fakeNutrition{profiles: map[string]fatsecret.Nutrition{
		"chicken": {Calories: 100, BaseWeightGrams: 100},
	}}
	f := newRecipeFixture(staticChickenProvider(), nutrition)

	recipe, err := f.service.Create(context.Background(), 1, CreateRecipeInput{
		Title: "Mystery Soup",
		Ingredients: []models.Ingredient{
			{Name: "chicken", Quantity: 100, Unit: models.MeasurementGram},
			{Name: "unobtainium", Quantity: 50, Unit: models.MeasurementGram},
		},
	})
	require.NoError(t, err, "a failed lookup contributes zero, it never fails creation")
	assert.Equal(t, 100, recipe.TotalCalories)
}

func TestCreateRecipeIndexesForSearch(t *testing.T) {
	f := newRecipeFixture(staticChickenProvider(), nil)

	recipe, err := f.service.Create(context.Background(), 1, CreateRecipeInput{
		Title:       "Chicken Soup",
		Ingredients: []models.Ingredient{{Name: "chicken", Quantity: 1, Unit: models.MeasurementGram}},
	})
	require.NoError(t, err)

	record, err := f.store.FindByRecipeID(context.Background(), recipe.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
}

func TestCreateRecipeRollsBackWhenIndexingFails(t *testing.T) {
	f := newRecipeFixture(&embedding.FailingProvider{}, nil)
	ctx := context.Background()

	_, err := f.service.Create(ctx, 1, CreateRecipeInput{
		Title:       "Chicken Soup",
		Ingredients: []models.Ingredient{{Name: "chicken", Quantity: 1, Unit: models.MeasurementGram}},
	})
	require.Error(t, err)

	var provErr *embedding.ProviderError
	assert.ErrorAs(t, err, &provErr)

	recipes, err := f.recipes.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, recipes, "the recipe row must not survive a failed indexing")
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newRecipeFixture(staticChickenProvider(), nil)
	ctx := context.Background()

	_, err := f.service.Create(ctx, 1, CreateRecipeInput{
		Ingredients: []models.Ingredient{{Name: "x"}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.service.Create(ctx, 1, CreateRecipeInput{Title: "No Ingredients"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteRecipeCascades(t *testing.T) {
	f := newRecipeFixture(staticChickenProvider(), nil)
	ctx := context.Background()

	recipe, err := f.service.Create(ctx, 1, CreateRecipeInput{
		Title:       "Chicken Soup",
		Ingredients: []models.Ingredient{{Name: "chicken", Quantity: 1, Unit: models.MeasurementGram}},
	})
	require.NoError(t, err)

	// Bookmark it and share it to the feed with a like
	require.NoError(t, f.saved.Create(ctx, &models.SavedRecipe{UserID: 2, RecipeID: recipe.ID}))
	feed := &models.Feed{UserID: 1, Type: models.FeedTypeRecipe, RecipeID: &recipe.ID}
	require.NoError(t, f.feeds.Create(ctx, feed))
	require.NoError(t, f.likes.Create(ctx, &models.Like{UserID: 2, FeedID: feed.ID}))

	require.NoError(t, f.service.Delete(ctx, 1, recipe.ID))

	got, err := f.recipes.GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	bookmarks, err := f.saved.ListByUser(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, bookmarks)

	feedEntry, err := f.feeds.GetByID(ctx, feed.ID)
	require.NoError(t, err)
	assert.Nil(t, feedEntry)

	like, err := f.likes.GetByUserAndFeed(ctx, 2, feed.ID)
	require.NoError(t, err)
	assert.Nil(t, like)

	record, err := f.store.FindByRecipeID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Nil(t, record, "the embedding is removed with the recipe")
}

func TestDeleteRecipeOwnership(t *testing.T) {
	f := newRecipeFixture(staticChickenProvider(), nil)
	ctx := context.Background()

	recipe, err := f.service.Create(ctx, 1, CreateRecipeInput{
		Title:       "Chicken Soup",
		Ingredients: []models.Ingredient{{Name: "chicken", Quantity: 1, Unit: models.MeasurementGram}},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.Delete(ctx, 2, recipe.ID), ErrForbidden)
	assert.ErrorIs(t, f.service.Delete(ctx, 1, 999), ErrNotFound)
}

func TestRateEasiness(t *testing.T) {
	f := newRecipeFixture(staticChickenProvider(), nil)
	ctx := context.Background()

	recipe, err := f.service.Create(ctx, 1, CreateRecipeInput{
		Title:       "Chicken Soup",
		Ingredients: []models.Ingredient{{Name: "chicken", Quantity: 1, Unit: models.MeasurementGram}},
	})
	require.NoError(t, err)

	avg, err := f.service.RateEasiness(ctx, 1, recipe.ID, 4)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, avg, 0.001)

	avg, err = f.service.RateEasiness(ctx, 2, recipe.ID, 2)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, avg, 0.001)

	// Re-rating replaces the earlier rating
	avg, err = f.service.RateEasiness(ctx, 1, recipe.ID, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, avg, 0.001)

	_, err = f.service.RateEasiness(ctx, 1, recipe.ID, 9)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
