// Package apiclient talks to the whitelist API on behalf of the console and
// the terminal sign-in.
package apiclient

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

	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/pager"
)

const userAgent = "oxiwl-console/1.0"

// Error is a non-2xx answer from the API. Msg is the body's "error" field
// and may be empty.
type Error struct {
	Status int
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Msg)
}

// ServerMessage lets notify.Message show the API's own wording.
func (e *Error) ServerMessage() string {
	return e.Msg
}

// Config holds client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// LoginResult is the body of a successful sign-in.
type LoginResult struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// Login posts a serialized sign-in form ({email, password}).
func (c *Client) Login(ctx context.Context, payload map[string]string) (*LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListIPs fetches one page of whitelist entries.
func (c *Client) ListIPs(ctx context.Context, token string, q pager.Query) (pager.Result[models.IPEntry], error) {
	return list[models.IPEntry](ctx, c, "/api/v1/ips", token, q)
}

// ListAuditLogs fetches one page of the audit trail.
func (c *Client) ListAuditLogs(ctx context.Context, token string, q pager.Query) (pager.Result[models.AuditEntry], error) {
	return list[models.AuditEntry](ctx, c, "/api/v1/audit-logs", token, q)
}

func list[T any](ctx context.Context, c *Client, path, token string, q pager.Query) (pager.Result[T], error) {
	var env pager.Envelope[T]
	if err := c.do(ctx, http.MethodGet, path+"?"+q.Encode(), token, nil, &env); err != nil {
		return pager.Result[T]{}, err
	}
	return pager.Normalize(env), nil
}

func ipPath(id string) string {
	return "/api/v1/ips/" + url.PathEscape(id)
}

func (c *Client) GetIP(ctx context.Context, token, id string) (*models.IPEntry, error) {
	var out models.IPEntry
	if err := c.do(ctx, http.MethodGet, ipPath(id), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateIP posts a serialized entry form ({ip, label}).
func (c *Client) CreateIP(ctx context.Context, token string, payload map[string]string) (*models.IPEntry, error) {
	var out models.IPEntry
	if err := c.do(ctx, http.MethodPost, "/api/v1/ips", token, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateIP(ctx context.Context, token, id string, payload map[string]string) (*models.IPEntry, error) {
	var out models.IPEntry
	if err := c.do(ctx, http.MethodPut, ipPath(id), token, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteIP(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, ipPath(id), token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		json.Unmarshal(raw, &e)
		return &Error{Status: resp.StatusCode, Msg: e.Error}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}
