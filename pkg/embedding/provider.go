// Package embedding wraps remote text-embedding APIs behind the Provider
// interface consumed by the search engine and the recipe indexer.
package embedding

import (
	"context"
	"fmt"
)

// Provider converts a text string into a fixed-length numeric vector.
// Implementations own their retry, timeout and rate-limit policy; callers
// only see success or a ProviderError.
type Provider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
}

// ProviderError indicates that embedding generation failed: the remote call
// errored, returned no data, or returned an empty vector. Callers must
// propagate it rather than fall back to an empty vector, because a failed
// query embedding makes ranking meaningless.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding provider %s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("embedding provider %s: %s", e.Provider, e.Message)
}

// Unwrap exposes the underlying cause
func (e *ProviderError) Unwrap() error { return e.Err }
