package search

import (
	"context"
	"strings"

	"github.com/forkfeed/forkfeed/pkg/embedding"
	"github.com/forkfeed/forkfeed/pkg/observability"
	"github.com/forkfeed/forkfeed/pkg/repository/embeddings"
)

// RecipeIndexer keeps the embedding store synchronized with the recipe
// catalog. The recipe service calls it after a recipe is durably persisted
// and when one is deleted.
//
// Recipe edits are NOT re-indexed: the application has no update flow, and
// whether a future one should regenerate embeddings is a product decision,
// not something to change here quietly.
type RecipeIndexer struct {
	provider embedding.Provider
	store    embeddings.Store
	logger   observability.Logger
}

// NewRecipeIndexer creates a recipe indexer
func NewRecipeIndexer(provider embedding.Provider, store embeddings.Store, logger observability.Logger) *RecipeIndexer {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	return &RecipeIndexer{
		provider: provider,
		store:    store,
		logger:   logger,
	}
}

// OnRecipeCreated embeds the recipe's title and ingredient names and
// persists the vector keyed by recipe id.
//
// An embedding failure propagates to the caller, which makes recipe
// creation fail atomically with it. That is the wired behavior today;
// letting a recipe exist without a searchable embedding instead would be a
// product change.
func (i *RecipeIndexer) OnRecipeCreated(ctx context.Context, recipeID int64, title string, ingredientNames []string) error {
	text := title + " " + strings.Join(ingredientNames, ", ")

	vector, err := i.provider.GenerateEmbedding(ctx, text)
	if err != nil {
		return err
	}

	if _, err := i.store.Save(ctx, recipeID, vector); err != nil {
		return err
	}

	i.logger.Info("Indexed recipe", map[string]interface{}{
		"recipe_id":  recipeID,
		"dimensions": len(vector),
	})
	return nil
}

// OnRecipeDeleted removes the recipe's embedding. Safe to call when no
// embedding exists; deletion of an absent record is a no-op.
func (i *RecipeIndexer) OnRecipeDeleted(ctx context.Context, recipeID int64) error {
	return i.store.DeleteForRecipe(ctx, recipeID)
}
