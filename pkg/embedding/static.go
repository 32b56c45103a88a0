package embedding

import (
	"context"
	"strings"
)

// StaticProvider is a deterministic Provider for tests and local
// development. It returns a fixed vector per registered phrase; for
// unregistered input it falls back to the vector of the first registered
// phrase contained in the input, then to the zero value of Fallback.
type StaticProvider struct {
	vectors  map[string][]float64
	order    []string
	Fallback []float64
}

// NewStaticProvider creates an empty static provider
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{vectors: map[string][]float64{}}
}

// Register maps a phrase to a fixed vector
func (p *StaticProvider) Register(phrase string, vector []float64) *StaticProvider {
	if _, ok := p.vectors[phrase]; !ok {
		p.order = append(p.order, phrase)
	}
	p.vectors[phrase] = vector
	return p
}

// GenerateEmbedding returns the registered vector for the text
func (p *StaticProvider) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	if v, ok := p.vectors[text]; ok {
		return v, nil
	}
	for _, phrase := range p.order {
		if strings.Contains(text, phrase) || strings.Contains(phrase, text) {
			return p.vectors[phrase], nil
		}
	}
	if p.Fallback != nil {
		return p.Fallback, nil
	}
	return nil, &ProviderError{Provider: "static", Message: "no vector registered for input"}
}

// FailingProvider always returns a ProviderError. Used to test failure
// propagation through the search and indexing paths.
type FailingProvider struct{}

// GenerateEmbedding always fails
func (p *FailingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	return nil, &ProviderError{Provider: "failing", Message: "forced failure"}
}
