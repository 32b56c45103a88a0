package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/forkfeed/forkfeed/pkg/observability"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// OpenAIConfig configures the OpenAI embedding provider
type OpenAIConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Endpoint       string        `mapstructure:"endpoint"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     uint64        `mapstructure:"max_retries"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

// OpenAIProvider implements Provider against the OpenAI embeddings API
type OpenAIProvider struct {
	config     OpenAIConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     observability.Logger
}

// openAIRequest is the request body for POST /embeddings
type openAIRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

// openAIResponse is the strongly-typed response from the embeddings API.
// Fields the application does not consume are omitted on purpose; anything
// needed later should be added here, never read out of a loose map.
type openAIResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// openAIErrorResponse is the error envelope returned on non-2xx statuses
type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

// NewOpenAIProvider creates a new OpenAI embedding provider
func NewOpenAIProvider(config OpenAIConfig, logger observability.Logger) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if config.Model == "" {
		config.Model = "text-embedding-3-small"
	}
	if config.Endpoint == "" {
		config.Endpoint = defaultOpenAIEndpoint
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RequestsPerSec == 0 {
		config.RequestsPerSec = 10
	}
	if logger == nil {
		logger = observability.NewNoopLogger()
	}

	return &OpenAIProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSec), 1),
		logger:  logger,
	}, nil
}

// GenerateEmbedding calls the embeddings endpoint for a single input text.
// Transient failures (429, 5xx, transport errors) are retried with
// exponential backoff up to MaxRetries; everything else fails immediately.
func (p *OpenAIProvider) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, p.wrapErr("rate limiter interrupted", err)
	}

	var vector []float64
	operation := func() error {
		v, err := p.doRequest(ctx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), p.config.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return nil, provErr
		}
		return nil, p.wrapErr("embedding request failed", err)
	}
	return vector, nil
}

func (p *OpenAIProvider) doRequest(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(openAIRequest{Input: text, Model: p.config.Model})
	if err != nil {
		return nil, backoff.Permanent(p.wrapErr("failed to encode request", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.Endpoint+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(p.wrapErr("failed to build request", err))
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// Transport errors are retryable
		return nil, p.wrapErr("request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, p.wrapErr("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr openAIErrorResponse
		_ = json.Unmarshal(respBody, &apiErr)
		wrapped := p.wrapErr(
			fmt.Sprintf("API returned status %d: %s", resp.StatusCode, apiErr.Error.Message), nil)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, wrapped
		}
		return nil, backoff.Permanent(wrapped)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, backoff.Permanent(p.wrapErr("failed to decode response", err))
	}

	// Validate at the boundary: an empty data array or empty vector is a
	// provider failure, not a usable result.
	if len(parsed.Data) == 0 {
		return nil, backoff.Permanent(p.wrapErr("no embedding data returned", nil))
	}
	vector := parsed.Data[0].Embedding
	if len(vector) == 0 {
		return nil, backoff.Permanent(p.wrapErr("empty embedding returned", nil))
	}

	p.logger.Debug("Generated embedding", map[string]interface{}{
		"model":      parsed.Model,
		"dimensions": len(vector),
		"tokens":     parsed.Usage.TotalTokens,
	})
	return vector, nil
}

func (p *OpenAIProvider) wrapErr(msg string, err error) *ProviderError {
	return &ProviderError{Provider: "openai", Message: msg, Err: err}
}
