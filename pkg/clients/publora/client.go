// Package publora is the HTTP client for the Publora API, used by the
// client-side connection orchestrator and by external tooling.
package publora

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/publora/publora/pkg/domain"
)

type Client struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithSessionToken(token string) ClientOption {
	return func(c *Client) {
		c.sessionToken = token
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    "http://localhost:8080",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type InitiateConnectionRequest struct {
	Provider     string `json:"provider"`
	TeamID       string `json:"team_id,omitempty"`
	TeamSlug     string `json:"team_slug,omitempty"`
	ReturnPath   string `json:"return_path,omitempty"`
	DeliveryMode string `json:"delivery_mode"`
}

type InitiateConnectionResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Sandbox          bool   `json:"sandbox"`
}

// APIError is a non-2xx response decoded into the shared error shape.
type APIError struct {
	StatusCode int              `json:"-"`
	Code       domain.ErrorCode `json:"error"`
	Message    string           `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Code)
}

func (c *Client) InitiateConnection(ctx context.Context, req *InitiateConnectionRequest) (*InitiateConnectionResponse, error) {
	var resp InitiateConnectionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/connections/initiate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type SandboxAccountResponse struct {
	Account domain.ConnectedAccount `json:"account"`
}

// CompleteSandboxConnection fetches the sandbox short-circuit URL returned
// by initiation. The URL is absolute and same-origin.
func (c *Client) CompleteSandboxConnection(ctx context.Context, sandboxURL string) (*SandboxAccountResponse, error) {
	var resp SandboxAccountResponse
	if err := c.doJSONURL(ctx, http.MethodGet, sandboxURL, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type TelemetryEventRequest struct {
	Type       string         `json:"type"`
	TeamID     string         `json:"team_id,omitempty"`
	Provider   string         `json:"provider,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func (c *Client) RecordTelemetryEvent(ctx context.Context, req *TelemetryEventRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/telemetry/events", req, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	return c.doJSONURL(ctx, method, c.baseURL+path, body, out)
}

func (c *Client) doJSONURL(ctx context.Context, method, url string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr := json.NewDecoder(resp.Body).Decode(apiErr); decodeErr != nil {
			apiErr.Code = domain.ErrorCode_StorageFailed
		}
		return apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
