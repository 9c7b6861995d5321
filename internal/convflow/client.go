// Package convflow implements the config and options flow of the
// AI-conversation integration: credential validation against an
// OpenAI-compatible API and construction of a dynamic options form schema.
package convflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pegah-mashcool/buienradar-bridge/internal/common"
)

var (
	// ErrInvalidAuth signals rejected credentials.
	ErrInvalidAuth = errors.New("invalid authentication")
	// ErrCannotConnect signals that the remote service was unreachable.
	ErrCannotConnect = errors.New("cannot connect to service")
)

const (
	apiTimeout    = 10 * time.Second
	memoryTimeout = 6 * time.Second

	// DefaultMemoryURL is the default agent-memory server endpoint.
	DefaultMemoryURL = "http://localhost:8283"
)

// APIClient talks to an OpenAI-compatible API.
type APIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewAPIClient creates a client for the API at baseURL (e.g.
// https://api.openai.com/v1).
func NewAPIClient(baseURL, apiKey string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: apiTimeout},
	}
}

// ListModels returns the available model IDs. It doubles as credential
// validation: an ErrInvalidAuth result means the key was rejected.
func (c *APIClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidAuth
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("list models: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	ids := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// MemoryClient talks to the agent-memory server.
type MemoryClient struct {
	baseURL string
	client  *http.Client
}

// NewMemoryClient creates a client for the memory server at baseURL; an
// empty baseURL falls back to DefaultMemoryURL.
func NewMemoryClient(baseURL string) *MemoryClient {
	if baseURL == "" {
		baseURL = DefaultMemoryURL
	}
	return &MemoryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: memoryTimeout},
	}
}

// ListBackends returns the LLM backends known to the memory server. Used as
// the reachability probe when memory is enabled.
func (c *MemoryClient) ListBackends(ctx context.Context) ([]string, error) {
	var payload []struct {
		Model string `json:"model"`
	}
	if err := c.get(ctx, "/v1/models/", "", &payload); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(payload))
	for _, b := range payload {
		names = append(names, b.Model)
	}
	return names, nil
}

// ListAgents returns the names of all agents associated with the user.
func (c *MemoryClient) ListAgents(ctx context.Context, userID string) ([]string, error) {
	var payload []struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/v1/agents/", userID, &payload); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(payload))
	for _, a := range payload {
		names = append(names, a.Name)
	}
	return names, nil
}

func (c *MemoryClient) get(ctx context.Context, path, userID string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if userID != "" {
		req.Header.Set("user_id", userID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("memory server: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// classifyTransportError folds network-level failures into ErrCannotConnect.
func classifyTransportError(err error) error {
	if common.HasAny(err.Error(),
		"connection refused", "no such host", "timeout",
		"deadline exceeded", "connection reset") {
		return fmt.Errorf("%w: %v", ErrCannotConnect, err)
	}
	return err
}
