package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkfeed/forkfeed/pkg/models"
)

func newSavedFixture(t *testing.T) (*SavedRecipeService, *models.Recipe) {
	t.Helper()
	recipes := newFakeRecipeRepo()
	recipe := &models.Recipe{UserID: 1, Title: "Soup", Photo: "https://cdn/x.jpg"}
	require.NoError(t, recipes.Create(context.Background(), recipe))
	return NewSavedRecipeService(newFakeSavedRepo(), recipes, nil), recipe
}

func TestSaveRecipeDenormalizes(t *testing.T) {
	service, recipe := newSavedFixture(t)
	ctx := context.Background()

	bookmark, err := service.Save(ctx, 2, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", bookmark.Title)
	assert.Equal(t, "https://cdn/x.jpg", bookmark.Photo)
}

func TestSaveRecipeIsIdempotent(t *testing.T) {
	service, recipe := newSavedFixture(t)
	ctx := context.Background()

	first, err := service.Save(ctx, 2, recipe.ID)
	require.NoError(t, err)
	second, err := service.Save(ctx, 2, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := service.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSaveMissingRecipe(t *testing.T) {
	service, _ := newSavedFixture(t)

	_, err := service.Save(context.Background(), 2, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnsave(t *testing.T) {
	service, recipe := newSavedFixture(t)
	ctx := context.Background()

	_, err := service.Save(ctx, 2, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, service.Unsave(ctx, 2, recipe.ID))
	require.NoError(t, service.Unsave(ctx, 2, recipe.ID), "unsaving twice is a no-op")

	list, err := service.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)
}
