// Package gateway is the REST client for the language-model gateway
// backend the console administers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gateway-console/internal/logger"
	"gateway-console/internal/session"
	"gateway-console/internal/usage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/http2"
)

var backendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "console_backend_requests_total",
		Help: "Total number of requests issued to the gateway backend",
	},
	[]string{"operation", "status"},
)

// APIError carries the server-supplied error message for a non-2xx reply.
type APIError struct {
	StatusCode int
	Message    string
}

// IsAPIError reports whether err is an HTTP-level rejection from the
// backend, as opposed to a transport failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// AccessToken is a gateway API token owned by the logged-in account.
type AccessToken struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Token     string `json:"token"`
	CreatedAt int64  `json:"createdAt"`
}

// Account is a gateway user account.
type Account struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Client talks to the backend REST API. Protected calls carry the current
// bearer credential in the literal `Token` header; the credential is read
// through the supplied projection on every call so a fresh login takes
// effect without rebuilding the client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      func() string
}

func NewClient(baseURL string, timeout time.Duration, token func() string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		logger.Sugar.Warnw("failed to configure HTTP/2", "err", err)
	}

	if token == nil {
		token = func() string { return "" }
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		token: token,
	}
}

// Login exchanges credentials for an identity record. A non-2xx reply
// surfaces as *APIError carrying the backend's message.
func (c *Client) Login(ctx context.Context, username, password string) (session.Identity, error) {
	body := map[string]string{"username": username, "password": password}

	var id session.Identity
	if err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", body, &id, false); err != nil {
		return session.Sentinel(), err
	}
	return id, nil
}

// ValidateToken asks the backend whether the held credential is still
// accepted. Any 2xx means yes; anything else is an error.
func (c *Client) ValidateToken(ctx context.Context) error {
	return c.do(ctx, "validate", http.MethodGet, "/api/auth/validateToken", nil, nil, true)
}

// DailyUsage fetches the sparse per-day token counts for the inclusive
// date range. Days without activity are absent from the reply.
func (c *Client) DailyUsage(ctx context.Context, start, end time.Time) ([]usage.Sample, error) {
	q := url.Values{}
	q.Set("start", usage.FormatDate(start))
	q.Set("end", usage.FormatDate(end))

	var samples []usage.Sample
	err := c.do(ctx, "daily_usage", http.MethodGet, "/api/token_usage/user/usage/daily?"+q.Encode(), nil, &samples, true)
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (c *Client) ListTokens(ctx context.Context) ([]AccessToken, error) {
	var tokens []AccessToken
	if err := c.do(ctx, "list_tokens", http.MethodGet, "/api/token/", nil, &tokens, true); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (c *Client) CreateToken(ctx context.Context, name string) error {
	body := map[string]string{"name": name}
	return c.do(ctx, "create_token", http.MethodPost, "/api/token/", body, nil, true)
}

func (c *Client) DeleteToken(ctx context.Context, id int) error {
	return c.do(ctx, "delete_token", http.MethodDelete, fmt.Sprintf("/api/token/%d", id), nil, nil, true)
}

func (c *Client) ListUsers(ctx context.Context) ([]Account, error) {
	var users []Account
	if err := c.do(ctx, "list_users", http.MethodGet, "/api/user/", nil, &users, true); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, username, role, password string) error {
	body := map[string]string{"username": username, "role": role, "password": password}
	return c.do(ctx, "create_user", http.MethodPost, "/api/user/", body, nil, true)
}

func (c *Client) UpdateUser(ctx context.Context, id int, username, role, password string) error {
	body := map[string]any{"username": username, "role": role, "password": password, "id": id}
	return c.do(ctx, "update_user", http.MethodPut, fmt.Sprintf("/api/user/%d", id), body, nil, true)
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.do(ctx, "delete_user", http.MethodDelete, fmt.Sprintf("/api/user/%d", id), nil, nil, true)
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Token", c.token())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		backendRequestsTotal.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	backendRequestsTotal.WithLabelValues(operation, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: serverMessage(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode backend response: %w", err)
		}
	}
	return nil
}

func serverMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
