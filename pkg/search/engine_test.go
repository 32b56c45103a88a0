package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkfeed/forkfeed/pkg/embedding"
	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/repository/embeddings"
)

// fakeStore is an in-memory Store preserving insertion order
type fakeStore struct {
	records []*embeddings.Record
	failAll bool
}

func (s *fakeStore) Save(ctx context.Context, recipeID int64, vector []float64) (*embeddings.Record, error) {
	record := &embeddings.Record{
		ID:        fmt.Sprintf("rec-%d-%d", recipeID, len(s.records)),
		RecipeID:  recipeID,
		Embedding: vector,
	}
	s.records = append(s.records, record)
	return record, nil
}

func (s *fakeStore) FindAll(ctx context.Context) ([]*embeddings.Record, error) {
	if s.failAll {
		return nil, errors.New("store unavailable")
	}
	return s.records, nil
}

func (s *fakeStore) FindByRecipeID(ctx context.Context, recipeID int64) (*embeddings.Record, error) {
	for _, r := range s.records {
		if r.RecipeID == recipeID {
			return r, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) DeleteForRecipe(ctx context.Context, recipeID int64) error {
	for i, r := range s.records {
		if r.RecipeID == recipeID {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *fakeStore) Close() error { return nil }

// fakeCatalog resolves recipes from a fixed map
type fakeCatalog struct {
	recipes map[int64]*models.Recipe
}

func (c *fakeCatalog) FindByID(ctx context.Context, id int64) (*models.Recipe, error) {
	return c.recipes[id], nil
}

func catalogOf(titles map[int64]string) *fakeCatalog {
	recipes := make(map[int64]*models.Recipe, len(titles))
	for id, title := range titles {
		recipes[id] = &models.Recipe{ID: id, Title: title}
	}
	return &fakeCatalog{recipes: recipes}
}

func TestCosineSimilaritySelf(t *testing.T) {
	a := []float64{0.3, -0.7, 2.5}
	assert.InDelta(t, 1.0, cosineSimilarity(a, a), 1e-9)
}

func TestCosineSimilaritySymmetry(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{-2, 0.5, 4}
	assert.InDelta(t, cosineSimilarity(a, b), cosineSimilarity(b, a), 1e-12)
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	zero := []float64{0, 0, 0}
	a := []float64{1, 2, 3}

	score := cosineSimilarity(zero, a)
	assert.Equal(t, 0.0, score)
	assert.False(t, math.IsNaN(score), "zero vector must never produce NaN")

	assert.Equal(t, 0.0, cosineSimilarity(nil, a))
	assert.Equal(t, 0.0, cosineSimilarity(a, nil))
}

func TestCosineSimilarityTruncatesToShorterLength(t *testing.T) {
	// Computed over the common prefix of length 2, where they are identical
	a := []float64{1, 0, 0}
	b := []float64{1, 0}
	assert.InDelta(t, 1.0, cosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarityNegative(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{-1, 0}
	assert.InDelta(t, -1.0, cosineSimilarity(a, b), 1e-9)
}

func TestSearchTopKZeroReturnsEmpty(t *testing.T) {
	engine := NewEngine(&embedding.FailingProvider{}, &fakeStore{}, catalogOf(nil), nil)

	// topK=0 short-circuits before the provider is even consulted
	results, err := engine.Search(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTopKLargerThanStoreReturnsAll(t *testing.T) {
	provider := NewEngineFixtureProvider()
	store := &fakeStore{}
	_, _ = store.Save(context.Background(), 1, []float64{1, 0, 0})
	_, _ = store.Save(context.Background(), 2, []float64{0, 1, 0})

	engine := NewEngine(provider, store, catalogOf(map[int64]string{1: "a", 2: "b"}), nil)

	results, err := engine.Search(context.Background(), "chicken", 50)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchOrdersByDescendingScore(t *testing.T) {
	provider := NewEngineFixtureProvider()
	store := &fakeStore{}
	ctx := context.Background()

	// Scores against query [1,0,0]: 0.5 → id 1, 0.9... → id 2, 1.0 → id 3
	_, _ = store.Save(ctx, 1, []float64{1, math.Sqrt(3), 0})
	_, _ = store.Save(ctx, 2, []float64{0.9, 0.1, 0})
	_, _ = store.Save(ctx, 3, []float64{2, 0, 0})

	engine := NewEngine(provider, store, catalogOf(map[int64]string{1: "a", 2: "b", 3: "c"}), nil)

	results, err := engine.Search(ctx, "chicken", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int64(3), results[0].ID)
	assert.Equal(t, int64(2), results[1].ID)
	assert.Equal(t, int64(1), results[2].ID)
}

func TestSearchTieBreakKeepsStoreOrder(t *testing.T) {
	provider := NewEngineFixtureProvider()
	store := &fakeStore{}
	ctx := context.Background()

	// Identical directions score identically; stable sort keeps 5 before 6
	_, _ = store.Save(ctx, 5, []float64{1, 0, 0})
	_, _ = store.Save(ctx, 6, []float64{2, 0, 0})

	engine := NewEngine(provider, store, catalogOf(map[int64]string{5: "a", 6: "b"}), nil)

	results, err := engine.Search(ctx, "chicken", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(5), results[0].ID)
	assert.Equal(t, int64(6), results[1].ID)
}

func TestSearchDropsDanglingRecipeIDs(t *testing.T) {
	provider := NewEngineFixtureProvider()
	store := &fakeStore{}
	ctx := context.Background()

	_, _ = store.Save(ctx, 1, []float64{1, 0, 0})
	_, _ = store.Save(ctx, 2, []float64{0.9, 0.1, 0})

	// Recipe 2 was deleted from the catalog but its embedding survived
	engine := NewEngine(provider, store, catalogOf(map[int64]string{1: "alive"}), nil)

	results, err := engine.Search(ctx, "chicken", 2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)
}

func TestSearchEmptyStoreReturnsEmptyList(t *testing.T) {
	engine := NewEngine(NewEngineFixtureProvider(), &fakeStore{}, catalogOf(nil), nil)

	results, err := engine.Search(context.Background(), "chicken", 5)
	require.NoError(t, err)
	assert.Empty(t, results, "no embeddings is a valid, empty result")
}

func TestSearchProviderFailureFailsWholeSearch(t *testing.T) {
	store := &fakeStore{}
	_, _ = store.Save(context.Background(), 1, []float64{1})

	engine := NewEngine(&embedding.FailingProvider{}, store, catalogOf(map[int64]string{1: "a"}), nil)

	_, err := engine.Search(context.Background(), "chicken", 5)
	require.Error(t, err)

	var provErr *embedding.ProviderError
	assert.True(t, errors.As(err, &provErr), "provider failures must surface unwrapped-able")
}

func TestSearchStoreFailureSurfaces(t *testing.T) {
	engine := NewEngine(NewEngineFixtureProvider(), &fakeStore{failAll: true}, catalogOf(nil), nil)

	_, err := engine.Search(context.Background(), "chicken", 5)
	assert.Error(t, err)
}

func TestSearchEndToEndScenario(t *testing.T) {
	provider := embedding.NewStaticProvider().
		Register("chicken soup", []float64{1, 0, 0}).
		Register("beef stew", []float64{0, 1, 0}).
		Register("chicken broth", []float64{0.9, 0.1, 0}).
		Register("chicken", []float64{1, 0, 0})

	store := &fakeStore{}
	catalog := catalogOf(map[int64]string{1: "chicken soup", 2: "beef stew", 3: "chicken broth"})
	engine := NewEngine(provider, store, catalog, nil)
	indexer := NewRecipeIndexer(provider, store, nil)
	ctx := context.Background()

	require.NoError(t, indexer.OnRecipeCreated(ctx, 1, "chicken soup", nil))
	require.NoError(t, indexer.OnRecipeCreated(ctx, 2, "beef stew", nil))
	require.NoError(t, indexer.OnRecipeCreated(ctx, 3, "chicken broth", nil))

	results, err := engine.Search(ctx, "chicken", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "chicken soup", results[0].Title)
	assert.Equal(t, "chicken broth", results[1].Title)
	assert.Equal(t, "beef stew", results[2].Title)
}

// NewEngineFixtureProvider returns a provider that embeds any query
// containing "chicken" as [1,0,0]
func NewEngineFixtureProvider() embedding.Provider {
	return embedding.NewStaticProvider().Register("chicken", []float64{1, 0, 0})
}
