package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"legal-rag/internal/contextutil"
	"legal-rag/internal/retry"
)

const (
	// DefaultTemperature keeps generation deterministic.
	DefaultTemperature = 0.0
	// DefaultContextWindow is the num_ctx sent with every generation request.
	DefaultContextWindow = 2048
)

// Client calls the Ollama generate API.
type Client struct {
	BaseURL string
	Model   string
	client  *http.Client
	policy  retry.Policy
}

// NewClient creates a new generation client. Each request is bounded by
// timeout and the whole call is repeated according to policy.
func NewClient(baseURL, model string, timeout time.Duration, policy retry.Policy) *Client {
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  newHTTPClient(timeout),
		policy:  policy,
	}
}

// GenerateOptions are the sampling options sent with a generation request.
type GenerateOptions struct {
	Temperature   float64
	ContextWindow int
}

// DefaultGenerateOptions returns temperature 0 and a 2048-token context window.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{Temperature: DefaultTemperature, ContextWindow: DefaultContextWindow}
}

// GenerateRequest represents the request payload for the generate API.
type GenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options RequestOptions `json:"options"`
}

// RequestOptions is the options object of a generate request. Temperature is
// always sent so that 0 is not mistaken for "unset".
type RequestOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

// GenerateResponse represents the non-streaming response of the generate API.
type GenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends prompt to the model and returns its response with
// surrounding whitespace trimmed. Failures that survive the retry policy are
// wrapped with ErrGenerationService.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)
	url := fmt.Sprintf("%s/api/generate", c.BaseURL)

	payload := GenerateRequest{
		Model:  c.Model,
		Prompt: prompt,
		Stream: false,
		Options: RequestOptions{
			Temperature: opts.Temperature,
			NumCtx:      opts.ContextWindow,
		},
	}

	attempt := 0
	start := time.Now()
	text, err := retry.Do(ctx, c.policy, func(ctx context.Context) (string, error) {
		attempt++

		var resp GenerateResponse
		if err := postJSON(ctx, c.client, url, payload, &resp); err != nil {
			logger.WarnContext(ctx, "generation request failed",
				slog.Int("attempt", attempt),
				slog.String("model", c.Model),
				slog.String("error", err.Error()))
			if !retryable(err) {
				return "", retry.Permanent(err)
			}
			return "", err
		}
		return strings.TrimSpace(resp.Response), nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrGenerationService, err)
	}

	logger.DebugContext(ctx, "generation completed",
		slog.String("model", c.Model),
		slog.Int("attempts", attempt),
		slog.Duration("duration", time.Since(start)),
		slog.Int("response_chars", len(text)))
	return text, nil
}
