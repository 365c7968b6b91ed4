package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ModelLister reports which models the Ollama server has pulled.
type ModelLister struct {
	baseURL string
	client  *http.Client
}

// NewModelLister creates a new model lister.
func NewModelLister(baseURL string) *ModelLister {
	return &ModelLister{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(10 * time.Second),
	}
}

// ModelInfo is one entry of the /api/tags listing.
type ModelInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Size  int64  `json:"size"`
}

// TagsResponse represents the response from the /api/tags endpoint.
type TagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ListModels returns the names of the locally available models.
func (ml *ModelLister) ListModels(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/api/tags", ml.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := ml.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var tags TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode models response: %w", err)
	}

	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

// HasModel reports whether name is available. A bare name matches any tag,
// so "mistral" matches "mistral:latest".
func (ml *ModelLister) HasModel(ctx context.Context, name string) (bool, error) {
	names, err := ml.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name || (!strings.Contains(name, ":") && strings.HasPrefix(n, name+":")) {
			return true, nil
		}
	}
	return false, nil
}
