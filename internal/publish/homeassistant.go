// Package publish pushes sensor states to a Home Assistant instance over
// its REST API (POST /api/states/<entity_id>).
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized signals a rejected access token.
	ErrUnauthorized = errors.New("home assistant rejected the access token")
)

// Client publishes entity states to Home Assistant.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a publisher for the Home Assistant instance at baseURL
// (e.g. http://homeassistant.local:8123) with a long-lived access token.
func NewClient(client *http.Client, baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

type statePayload struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// SetState creates or updates the entity's state. Unset values are expected
// to arrive as the literal "unknown".
func (c *Client) SetState(ctx context.Context, entityID string, state string, attributes map[string]any) error {
	body, err := json.Marshal(statePayload{State: state, Attributes: attributes})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/api/states/%s", c.baseURL, entityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("set state %s: unexpected status %d", entityID, resp.StatusCode)
	}
}
