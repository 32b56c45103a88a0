// Package embeddings persists recipe embedding vectors. The backing store
// is document-oriented and has no native vector-similarity query; all
// ranking happens in the application layer (pkg/search), which only ever
// asks for a full scan. Keeping that contract behind the Store interface
// means a future swap to an indexed vector store does not touch the engine.
package embeddings

import (
	"context"
	"time"
)

// Record is a persisted embedding for one recipe.
//
// RecipeID is unique in practice (one embedding per recipe) but not
// enforced: Save always inserts, so a retried create can leave duplicates.
// Deletion removes the first matching record only.
type Record struct {
	ID        string    `json:"id"`
	RecipeID  int64     `json:"recipeId"`
	Embedding []float64 `json:"embedding"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store defines the persistence operations for embedding records
type Store interface {
	// Save inserts a new record unconditionally. No existence check is
	// performed; if a record already exists for recipeID, both remain.
	Save(ctx context.Context, recipeID int64, vector []float64) (*Record, error)

	// FindAll returns every stored record in insertion order. The caller
	// re-ranks, so no other ordering guarantee is needed; insertion order
	// is what makes the engine's stable tie-break reproducible.
	FindAll(ctx context.Context) ([]*Record, error)

	// FindByRecipeID returns the first record for recipeID, or nil if none
	FindByRecipeID(ctx context.Context, recipeID int64) (*Record, error)

	// DeleteForRecipe removes the record FindByRecipeID would return.
	// It is a no-op when recipeID is not positive or nothing matches.
	DeleteForRecipe(ctx context.Context, recipeID int64) error

	// Close releases the underlying store
	Close() error
}
