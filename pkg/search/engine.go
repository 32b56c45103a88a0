// Package search implements semantic recipe search: free text in, the
// top-K most similar recipes out, ranked by cosine similarity between the
// query embedding and every stored recipe embedding.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/forkfeed/forkfeed/pkg/embedding"
	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/observability"
	"github.com/forkfeed/forkfeed/pkg/repository/embeddings"
)

// DefaultTopK is the result count used when the caller does not supply one
const DefaultTopK = 5

// RecipeCatalog resolves recipe ids to full records. Missing ids resolve
// to (nil, nil), not an error.
type RecipeCatalog interface {
	FindByID(ctx context.Context, id int64) (*models.Recipe, error)
}

// Engine ranks stored embeddings against a query embedding. It is a pure
// read pipeline: stateless per call, safe for concurrent use, and it never
// writes to the store.
type Engine struct {
	provider embedding.Provider
	store    embeddings.Store
	catalog  RecipeCatalog
	logger   observability.Logger
}

// NewEngine creates a search engine
func NewEngine(provider embedding.Provider, store embeddings.Store, catalog RecipeCatalog, logger observability.Logger) *Engine {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	return &Engine{
		provider: provider,
		store:    store,
		catalog:  catalog,
		logger:   logger,
	}
}

type scoredRecord struct {
	record *embeddings.Record
	score  float64
}

// Search embeds the query, scores every stored embedding, and returns the
// topK most similar recipes in descending score order. Ties keep the
// store's scan (insertion) order because the sort is stable.
//
// A failed query embedding fails the whole search; there is no partial or
// fallback result. Dangling recipe ids are silently dropped, so fewer than
// topK results, or none at all, is a valid outcome.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]*models.Recipe, error) {
	if topK <= 0 {
		return []*models.Recipe{}, nil
	}

	queryVector, err := e.provider.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	all, err := e.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}

	scored := make([]scoredRecord, 0, len(all))
	for _, record := range all {
		scored = append(scored, scoredRecord{
			record: record,
			score:  cosineSimilarity(queryVector, record.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	results := make([]*models.Recipe, 0, len(scored))
	for _, s := range scored {
		if s.record.RecipeID <= 0 {
			continue
		}
		recipe, err := e.catalog.FindByID(ctx, s.record.RecipeID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve recipe %d: %w", s.record.RecipeID, err)
		}
		if recipe == nil {
			// Embedding outlived its recipe (or vice versa); skip it.
			continue
		}
		results = append(results, recipe)
	}

	e.logger.Debug("Semantic search completed", map[string]interface{}{
		"candidates": len(all),
		"top_k":      topK,
		"results":    len(results),
	})
	return results, nil
}

// cosineSimilarity computes the normalized dot product of a and b.
//
// When the vectors differ in length the computation is truncated to the
// shorter one; this is truncation, not zero-padding, and it silently
// changes results when dimensionalities differ. A nil vector or a zero
// vector scores 0.0 rather than erroring, which means a degenerate vector
// can rank above a true negative-similarity vector. Both behaviors are
// deliberate and relied on by callers.
func cosineSimilarity(a, b []float64) float64 {
	if a == nil || b == nil {
		return 0.0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
