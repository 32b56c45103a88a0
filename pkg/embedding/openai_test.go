package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*OpenAIProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:         "test-key",
		Endpoint:       server.URL,
		MaxRetries:     2,
		RequestsPerSec: 1000,
	}, nil)
	require.NoError(t, err)
	return provider, server
}

func TestNewOpenAIProviderRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{}, nil)
	assert.Error(t, err, "constructor should reject a missing API key")
}

func TestGenerateEmbeddingSuccess(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "chicken soup", req.Input)
		assert.Equal(t, "text-embedding-3-small", req.Model)

		resp := openAIResponse{}
		resp.Data = append(resp.Data, struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}{Embedding: []float64{0.1, 0.2, 0.3}})
		_ = json.NewEncoder(w).Encode(resp)
	})

	vector, err := provider.GenerateEmbedding(context.Background(), "chicken soup")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vector)
}

func TestGenerateEmbeddingEmptyDataIsProviderError(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[],"model":"text-embedding-3-small"}`))
	})

	_, err := provider.GenerateEmbedding(context.Background(), "anything")
	require.Error(t, err)

	var provErr *ProviderError
	assert.True(t, errors.As(err, &provErr), "empty data should surface as ProviderError")
}

func TestGenerateEmbeddingRetriesOnServerError(t *testing.T) {
	var calls int32
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		resp := openAIResponse{}
		resp.Data = append(resp.Data, struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}{Embedding: []float64{1}})
		_ = json.NewEncoder(w).Encode(resp)
	})

	vector, err := provider.GenerateEmbedding(context.Background(), "retry me")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, vector)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "first call should be retried once")
}

func TestGenerateEmbeddingDoesNotRetryAuthError(t *testing.T) {
	var calls int32
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	_, err := provider.GenerateEmbedding(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx responses must not be retried")

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Contains(t, provErr.Error(), "401")
}

func TestStaticProvider(t *testing.T) {
	provider := NewStaticProvider().
		Register("chicken soup", []float64{1, 0, 0}).
		Register("beef stew", []float64{0, 1, 0})

	v, err := provider.GenerateEmbedding(context.Background(), "chicken soup")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0}, v)

	// Partial match falls back to the first registered phrase that overlaps
	v, err = provider.GenerateEmbedding(context.Background(), "chicken soup with rice")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0}, v)

	_, err = provider.GenerateEmbedding(context.Background(), "unknown dish")
	assert.Error(t, err)
}
