// Package client talks to the token REST API and decodes its response envelope.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"keyring/internal/platform/models"
)

// Token is the wire form of a token record.
type Token = models.Token

// CreditSummary is returned by the key-authenticated status endpoint.
type CreditSummary struct {
	Object         string `json:"object"`
	TotalGranted   int64  `json:"total_granted"`
	TotalUsed      int64  `json:"total_used"`
	TotalAvailable int64  `json:"total_available"`
	ExpiresAt      int64  `json:"expires_at"`
}

type FirstUse struct {
	FirstUsedTime int64 `json:"first_used_time"`
	ExpiresAt     int64 `json:"expires_at"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

type Option func(*Client)

func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccessToken returns the session token in use, e.g. after Login.
func (c *Client) AccessToken() string {
	return c.accessToken
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out interface{}) (string, error) {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return "", &TransportError{Op: op, Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return "", &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return "", &ServerError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return "", &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !env.Success {
		return "", &ServerError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", &TransportError{Op: op, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return env.Message, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.do(ctx, method, path, c.accessToken, body, out)
	return err
}

type loginResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// Login exchanges credentials for a session token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, error) {
	var resp loginResponse
	body := map[string]string{"username": username, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "/api/user/login", "", body, &resp); err != nil {
		return nil, err
	}
	c.accessToken = resp.AccessToken
	return resp.User, nil
}

func (c *Client) Self(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.call(ctx, http.MethodGet, "/api/user/self", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Options returns the feature switches as raw key/value pairs.
func (c *Client) Options(ctx context.Context) ([]models.Option, error) {
	var opts []models.Option
	if err := c.call(ctx, http.MethodGet, "/api/user/option", nil, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Groups lists group names. Admin only.
func (c *Client) Groups(ctx context.Context) ([]string, error) {
	var groups []string
	if err := c.call(ctx, http.MethodGet, "/api/group/", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *Client) UserModels(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.call(ctx, http.MethodGet, "/api/user/models", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Client) GetToken(ctx context.Context, id int64) (*Token, error) {
	var token Token
	if err := c.call(ctx, http.MethodGet, "/api/token/"+strconv.FormatInt(id, 10), nil, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *Client) ListTokens(ctx context.Context, page, size int) ([]*Token, error) {
	q := url.Values{}
	q.Set("p", strconv.Itoa(page))
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	var list []*Token
	if err := c.call(ctx, http.MethodGet, "/api/token/?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SearchTokens matches names containing keyword and keys starting with key.
func (c *Client) SearchTokens(ctx context.Context, keyword, key string) ([]*Token, error) {
	q := url.Values{}
	if keyword != "" {
		q.Set("keyword", keyword)
	}
	if key != "" {
		q.Set("token", key)
	}
	if len(q) == 0 {
		return c.ListTokens(ctx, 0, 0)
	}
	var list []*Token
	if err := c.call(ctx, http.MethodGet, "/api/token/?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CreateToken(ctx context.Context, token *Token) (*Token, error) {
	var created Token
	if err := c.call(ctx, http.MethodPost, "/api/token/", token, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateToken(ctx context.Context, token *Token) (*Token, error) {
	var updated Token
	if err := c.call(ctx, http.MethodPut, "/api/token/", token, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetTokenStatus sends a status-only update.
func (c *Client) SetTokenStatus(ctx context.Context, id int64, status int) (*Token, error) {
	body := map[string]interface{}{"id": id, "status": status}
	var updated Token
	if err := c.call(ctx, http.MethodPut, "/api/token/?status_only=true", body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) UpdateBillingStrategy(ctx context.Context, id int64, enabled bool) (*Token, error) {
	value := 0
	if enabled {
		value = 1
	}
	body := map[string]int{"billing_enabled": value}
	var updated Token
	path := fmt.Sprintf("/api/token/%d/billing_strategy", id)
	if err := c.call(ctx, http.MethodPut, path, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteToken(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, "/api/token/"+strconv.FormatInt(id, 10), nil, nil)
}

// ManageToken dispatches the row-level actions "status" and "delete".
func (c *Client) ManageToken(ctx context.Context, id int64, action string, value int) error {
	switch action {
	case "status":
		_, err := c.SetTokenStatus(ctx, id, value)
		return err
	case "delete":
		return c.DeleteToken(ctx, id)
	default:
		return Invalid("action", "unknown action %q", action)
	}
}

// TokenStatus authenticates with the issued key instead of the session.
func (c *Client) TokenStatus(ctx context.Context, key string) (*CreditSummary, error) {
	var summary CreditSummary
	if _, err := c.do(ctx, http.MethodGet, "/v1/token/status", withKeyPrefix(key), nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// UseFirstTime starts a first-use key's clock. The message tells whether it
// was started by this call.
func (c *Client) UseFirstTime(ctx context.Context, key string) (*FirstUse, string, error) {
	var result FirstUse
	msg, err := c.do(ctx, http.MethodPost, "/v1/token/first_use", withKeyPrefix(key), nil, &result)
	if err != nil {
		return nil, "", err
	}
	return &result, msg, nil
}

func withKeyPrefix(key string) string {
	if strings.HasPrefix(key, "sk-") {
		return key
	}
	return "sk-" + key
}
