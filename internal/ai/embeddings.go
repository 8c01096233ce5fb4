package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Embedder turns text into vector embeddings
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingsClient calls a HuggingFace-style feature-extraction inference
// endpoint: POST {url} with {"inputs": [...]} returning one vector per
// input. The model behind the endpoint must match the one used at
// ingestion time or retrieval distances are meaningless.
type EmbeddingsClient struct {
	url    string
	token  string
	client *http.Client
}

// NewEmbeddingsClient creates a client for the embeddings endpoint
func NewEmbeddingsClient(url, token string, timeout time.Duration) *EmbeddingsClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &EmbeddingsClient{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Inputs []string `json:"inputs"`
}

// Embed returns one embedding per input text
func (c *EmbeddingsClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings backend returned status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var vectors [][]float32
	if err := json.Unmarshal(data, &vectors); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embeddings backend returned %d vectors for %d inputs", len(vectors), len(texts))
	}

	return vectors, nil
}
