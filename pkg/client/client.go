package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/terra-clan/mentor-engine/internal/models"
)

// ErrAlreadyClaimed is returned by Claim when the ticket was taken by
// another mentor or does not exist.
var ErrAlreadyClaimed = errors.New("assist request already claimed or not found")

// Client is a Go SDK for the mentor-engine API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new mentor-engine client. token is the bearer
// credential forwarded on every request.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Ask sends a question to the tutor and returns its answer
func (c *Client) Ask(ctx context.Context, prompt string, history []models.ChatMessage) (string, error) {
	body, status, err := c.doRequest(ctx, "POST", "/api/v1/tutor/ask", models.TutorRequest{
		Prompt:      prompt,
		ChatHistory: history,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", apiStatusError(status, body)
	}

	var result models.TutorResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return result.Response, nil
}

// GetSnippet fetches the starter snippet for a challenge
func (c *Client) GetSnippet(ctx context.Context, challengeID string) (string, error) {
	body, status, err := c.doRequest(ctx, "POST", "/api/v1/tutor/get-snippet", models.SnippetRequest{
		ChallengeID: challengeID,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", apiStatusError(status, body)
	}

	var result models.SnippetResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return result.Snippet, nil
}

// Submit evaluates a solution attempt for a challenge
func (c *Client) Submit(ctx context.Context, challengeID, code string, assistsUsed int) (*models.SubmitResponse, error) {
	body, status, err := c.doRequest(ctx, "POST", "/api/v1/sandbox/submit", models.SubmitRequest{
		Code:        code,
		ChallengeID: challengeID,
		AssistsUsed: assistsUsed,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiStatusError(status, body)
	}

	var result models.SubmitResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// RequestHelp opens a peer assistance ticket for a challenge and
// returns the ticket id.
func (c *Client) RequestHelp(ctx context.Context, challengeID string) (string, error) {
	body, status, err := c.doRequest(ctx, "POST", "/api/v1/assist/request", models.AssistRequest{
		ChallengeID: challengeID,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", apiStatusError(status, body)
	}

	var result models.AssistResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return result.AssistID, nil
}

// Queue lists the open assistance requests, oldest first
func (c *Client) Queue(ctx context.Context) ([]*models.AssistTicket, error) {
	body, status, err := c.doRequest(ctx, "GET", "/api/v1/assist/queue", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiStatusError(status, body)
	}

	var result models.QueueResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return result.Queue, nil
}

// Claim attempts to claim an assistance request. It returns
// ErrAlreadyClaimed when another mentor won the ticket or the ticket is
// unknown.
func (c *Client) Claim(ctx context.Context, assistID string) error {
	body, status, err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/assist/claim/%s", assistID), nil)
	if err != nil {
		return err
	}

	switch status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrAlreadyClaimed
	default:
		return apiStatusError(status, body)
	}
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	body, status, err := c.doRequest(ctx, "GET", "/health", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiStatusError(status, body)
	}
	return nil
}

// doRequest performs an HTTP request with an optional JSON payload and
// returns the raw response body with its status code.
func (c *Client) doRequest(ctx context.Context, method, path string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return respBody, resp.StatusCode, nil
}

func apiStatusError(status int, body []byte) error {
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("API error: %s - %s", apiErr.Error, apiErr.Message)
	}
	return fmt.Errorf("HTTP %d: %s", status, string(body))
}
