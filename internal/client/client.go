// Package client talks to a running agentdeck server: REST calls for the
// session registry and a websocket attach to a session stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vanpelt/agentdeck/internal/sessions"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client is a thin REST client.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

// New creates a Client for baseURL ("http://127.0.0.1:7681" or a bare
// host:port).
func New(baseURL, token string) (*Client, error) {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", baseURL, err)
	}
	return &Client{
		baseURL: u,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Launch starts a session and returns its id.
func (c *Client) Launch(ctx context.Context, req sessions.LaunchRequest) (string, error) {
	var out struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", req, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return out.ID, fmt.Errorf("session %s started: %s", out.ID, out.Error)
	}
	return out.ID, nil
}

// List returns every registered session.
func (c *Client) List(ctx context.Context) ([]sessions.Record, error) {
	var out []sessions.Record
	err := c.do(ctx, http.MethodGet, "/v1/sessions", nil, &out)
	return out, err
}

// Get returns one session.
func (c *Client) Get(ctx context.Context, id string) (sessions.Record, error) {
	var out sessions.Record
	err := c.do(ctx, http.MethodGet, "/v1/sessions/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Resize changes a session's window.
func (c *Client) Resize(ctx context.Context, id string, cols, rows uint16) error {
	body := map[string]uint16{"cols": cols, "rows": rows}
	return c.do(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(id)+"/resize", body, nil)
}

// Terminate kills a session.
func (c *Client) Terminate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/sessions/"+url.PathEscape(id), nil, nil)
}
