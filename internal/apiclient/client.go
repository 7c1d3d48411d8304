// Package apiclient talks to the hosted REST backend. It implements the
// ledger ports, the parse and confirm calls of the chat workflow and the auth
// endpoints used by session.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"chitieu/internal/session"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
	now     func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Jar must be set for refresh
// cookies to survive between calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken starts with an access token, skipping the login call.
func WithToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.session.SetToken(token)
		}
	}
}

// New creates a client for baseURL, e.g. "http://localhost:3001/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout, Jar: jar},
		now:     time.Now,
	}
	c.session = session.New(c)
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Session exposes login state for the CLI.
func (c *Client) Session() *session.Session {
	return c.session
}

// do sends a JSON request and decodes a JSON answer into out (may be nil).
// A 401 triggers one refresh and one retry, except on auth endpoints.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, token, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized && !isAuthPath(path) {
		resp.Body.Close()
		if _, err := c.session.Refresh(ctx, token); err != nil {
			return err
		}
		if resp, _, err = c.send(ctx, method, path, body); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send returns the token it used so a refresh can tell whether someone else
// already replaced it.
func (c *Client) send(ctx context.Context, method, path string, body []byte) (*http.Response, string, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, _ := c.session.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, token, fmt.Errorf("%s %s: %w", method, path, err)
	}
	slog.DebugContext(ctx, "API request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", c.now().Sub(start).Milliseconds())
	return resp, token, nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{Status: resp.StatusCode}

	// NestJS style: {"message": "..."} or {"message": ["...", "..."]}.
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && len(payload.Message) > 0 {
		var one string
		var many []string
		switch {
		case json.Unmarshal(payload.Message, &one) == nil:
			apiErr.Message = one
		case json.Unmarshal(payload.Message, &many) == nil:
			apiErr.Message = strings.Join(many, "; ")
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

func isAuthPath(path string) bool {
	switch path {
	case "/auth/login", "/auth/refresh", "/auth/register":
		return true
	}
	return false
}

// statusOf returns the HTTP status carried by err, or 0.
func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
