// Package api implements the REST client for the CRM backend.
package api

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

	"github.com/rs/zerolog"

	"github.com/tOgg1/leadboard/internal/logging"
)

const defaultTimeout = 15 * time.Second

// Config holds client construction parameters.
type Config struct {
	// BaseURL is the backend root, e.g. https://crm.example.com.
	BaseURL string

	// Token is the bearer credential sent with every request.
	Token string

	// Timeout bounds a single request. Zero means the default.
	Timeout time.Duration

	// HTTPClient overrides the transport (used by tests).
	HTTPClient *http.Client
}

// Client talks to the CRM backend. All methods are safe for concurrent use.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a Client from the given configuration.
func New(cfg Config) (*Client, error) {
	trimmed := strings.TrimSpace(cfg.BaseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("api base URL required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", trimmed)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: parsed,
		token:   strings.TrimSpace(cfg.Token),
		http:    httpClient,
		log:     logging.Component("api"),
	}, nil
}

// WebsocketURL derives the push-channel endpoint from the base URL.
func (c *Client) WebsocketURL() string {
	ws := *c.baseURL
	switch ws.Scheme {
	case "https":
		ws.Scheme = "wss"
	default:
		ws.Scheme = "ws"
	}
	ws.Path = strings.TrimRight(ws.Path, "/") + "/ws"
	return ws.String()
}

// Token returns the bearer credential the client was built with.
func (c *Client) Token() string {
	return c.token
}

// do issues a request and decodes the JSON envelope into out. out must embed
// envelope fields (success/error) so business rejections are detected.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out responseEnvelope) error {
	target := *c.baseURL
	target.Path = strings.TrimRight(target.Path, "/") + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	if out == nil {
		out = &Envelope{}
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}

	if resp.StatusCode >= 400 || !out.Succeeded() {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: out.ErrorMessage(),
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("error", apiErr.Message).
			Msg("request rejected")
		return apiErr
	}

	return nil
}

// responseEnvelope is satisfied by every backend response payload.
type responseEnvelope interface {
	Succeeded() bool
	ErrorMessage() string
}

// Envelope is the common {success, error} wrapper on backend responses.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Succeeded reports the backend's success flag.
func (e *Envelope) Succeeded() bool { return e.Success }

// ErrorMessage returns the backend's business-rejection message.
func (e *Envelope) ErrorMessage() string { return e.Error }
