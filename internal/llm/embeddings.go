package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"legal-rag/internal/contextutil"
	"legal-rag/internal/retry"
)

// EmbeddingsClient calls the Ollama embeddings API.
type EmbeddingsClient struct {
	BaseURL string
	Model   string
	client  *http.Client
	policy  retry.Policy
}

// NewEmbeddingsClient creates a new embeddings client. Each request is bounded
// by timeout and the whole call is repeated according to policy.
func NewEmbeddingsClient(baseURL, model string, timeout time.Duration, policy retry.Policy) *EmbeddingsClient {
	if timeout <= 0 {
		timeout = DefaultEmbedTimeout
	}
	return &EmbeddingsClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  newHTTPClient(timeout),
		policy:  policy,
	}
}

// EmbeddingsRequest represents the request payload for the embeddings API.
type EmbeddingsRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding vector for text. Failures that survive the
// retry policy are wrapped with ErrEmbeddingService.
func (c *EmbeddingsClient) Embed(ctx context.Context, text string) ([]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)
	url := fmt.Sprintf("%s/api/embeddings", c.BaseURL)

	attempt := 0
	vec, err := retry.Do(ctx, c.policy, func(ctx context.Context) ([]float32, error) {
		attempt++

		var resp EmbeddingsResponse
		err := postJSON(ctx, c.client, url, EmbeddingsRequest{Model: c.Model, Prompt: text}, &resp)
		if err == nil && len(resp.Embedding) == 0 {
			err = errors.New("empty embedding returned")
		}
		if err != nil {
			logger.WarnContext(ctx, "embedding request failed",
				slog.Int("attempt", attempt),
				slog.String("model", c.Model),
				slog.String("error", err.Error()))
			if !retryable(err) {
				return nil, retry.Permanent(err)
			}
			return nil, err
		}

		// Convert []float64 to []float32
		vec := make([]float32, len(resp.Embedding))
		for i, v := range resp.Embedding {
			f := float32(v)
			if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
				return nil, retry.Permanent(fmt.Errorf("embedding[%d] = %v is not a finite float32", i, v))
			}
			vec[i] = f
		}
		return vec, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingService, err)
	}
	return vec, nil
}
