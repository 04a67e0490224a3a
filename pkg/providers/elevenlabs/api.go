package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError carries a non-2xx response from the ElevenLabs REST API so the
// proxy can mirror the vendor's status and body to the caller.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs: API error (HTTP %d): %s", e.StatusCode, e.Body)
}

// Client proxies agent and conversation management calls to the ElevenLabs
// REST API. Request and response bodies pass through untouched; only the
// server's API key is attached.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a REST client. httpClient should come from internal/httpc
// so timeouts are set.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// CreateAgent forwards an agent creation payload.
func (c *Client) CreateAgent(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/convai/agents/create", body)
}

// ListAgents retrieves all agents.
func (c *Client) ListAgents(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/convai/agents", nil)
}

// GetAgent retrieves one agent by id.
func (c *Client) GetAgent(ctx context.Context, agentID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/convai/agents/"+agentID, nil)
}

// ListConversations retrieves all conversations.
func (c *Client) ListConversations(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/convai/conversations", nil)
}

// GetConversation retrieves one conversation by id.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/convai/conversations/"+conversationID, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body json.RawMessage) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
