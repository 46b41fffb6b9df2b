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

	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
)

const (
	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 10 * time.Second

	headerIdempotencyKey = "Idempotency-Key"

	defaultRetries   = 2
	defaultRetryBase = 300 * time.Millisecond
)

// Role is the device role chosen at login.
type Role string

const (
	RoleProducer Role = "producer"
	RoleConsumer Role = "consumer"
)

// Token is one location-stamped token as returned by the API.
type Token struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Claimed   bool      `json:"claimed"`
}

// Session is the outcome of a successful OTP verification.
type Session struct {
	AuthToken string    `json:"authToken"`
	IsNewUser bool      `json:"isNewUser"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ControlResult is the answer to a start or stop request. Token is nil for
// stop and for a replayed idempotency key.
type ControlResult struct {
	Message  string `json:"message"`
	Token    *Token `json:"token"`
	Replayed bool   `json:"replayed"`
}

// TokenPage is one page of the token history.
type TokenPage struct {
	Tokens []Token
	Total  int64
	Limit  int32
	Offset int32
}

// Export points at a CSV of the token history in object storage.
type Export struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Rows      int       `json:"rows"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer credential used on protected endpoints.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRetries sets how many times safe requests are retried on transient failures.
func WithRetries(n uint64, base time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.retryBase = base
	}
}

// Client is a thin JSON client for the geotoken API.
type Client struct {
	baseURL   string
	http      *http.Client
	token     string
	retries   uint64
	retryBase time.Duration
}

// New returns a Client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		retries:   defaultRetries,
		retryBase: defaultRetryBase,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SetToken replaces the bearer credential.
func (c *Client) SetToken(token string) {
	c.token = token
}

// SendOTP asks the server to deliver a one-time code to contact.
func (c *Client) SendOTP(ctx context.Context, contact string) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, "/send-otp", map[string]string{"contact": contact}, nil, nil, nil)
	})
}

// VerifyOTP exchanges a code for a session. An empty role lets the server
// pick its default.
func (c *Client) VerifyOTP(ctx context.Context, contact, code string, role Role) (*Session, error) {
	body := map[string]string{"contact": contact, "otp": code}
	if role != "" {
		body["role"] = string(role)
	}

	var out Session
	if err := c.do(ctx, http.MethodPost, "/verify-otp", body, nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckUser reports whether contact has completed registration.
func (c *Client) CheckUser(ctx context.Context, contact string) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, "/check-user", map[string]string{"contact": contact}, nil, &out, nil)
	})
	return out.Exists, err
}

// Register sets the display name of the logged in identity.
func (c *Client) Register(ctx context.Context, name string) error {
	if c.token == "" {
		return ErrNotLoggedIn
	}
	return c.do(ctx, http.MethodPost, "/register", map[string]string{"name": name}, nil, nil, nil)
}

// Logout revokes the current session.
func (c *Client) Logout(ctx context.Context) error {
	if c.token == "" {
		return ErrNotLoggedIn
	}
	return c.do(ctx, http.MethodPost, "/logout", nil, nil, nil, nil)
}

// StartTokens appends one token at the given position. A non-empty
// idempotencyKey makes the append safe to resend.
func (c *Client) StartTokens(ctx context.Context, loc Location, idempotencyKey string) (*ControlResult, error) {
	return c.control(ctx, map[string]any{
		"action":    "start",
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
	}, idempotencyKey)
}

// StopTokens tells the server token generation stopped.
func (c *Client) StopTokens(ctx context.Context) (*ControlResult, error) {
	return c.control(ctx, map[string]any{"action": "stop"}, "")
}

func (c *Client) control(ctx context.Context, body map[string]any, idempotencyKey string) (*ControlResult, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}

	var header http.Header
	if idempotencyKey != "" {
		header = http.Header{headerIdempotencyKey: []string{idempotencyKey}}
	}

	var out ControlResult
	if err := c.do(ctx, http.MethodPost, "/control-tokens", body, header, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClaimTokens claims every unclaimed token. An empty slice means none were waiting.
func (c *Client) ClaimTokens(ctx context.Context) ([]Token, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}

	var out struct {
		Tokens []Token `json:"tokens"`
	}
	if err := c.do(ctx, http.MethodGet, "/get-tokens", nil, nil, &out, nil); err != nil {
		return nil, err
	}
	return lo.Ternary(out.Tokens == nil, []Token{}, out.Tokens), nil
}

// ListTokens reads one page of the token history. Zero limit uses the server default.
func (c *Client) ListTokens(ctx context.Context, limit, offset int32) (*TokenPage, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}

	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.FormatInt(int64(limit), 10))
	}
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(int64(offset), 10))
	}
	path := "/tokens"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Tokens []Token `json:"tokens"`
	}
	var meta struct {
		Total  int64 `json:"total"`
		Limit  int32 `json:"limit"`
		Offset int32 `json:"offset"`
	}
	err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, path, nil, nil, &out, &meta)
	})
	if err != nil {
		return nil, err
	}

	return &TokenPage{Tokens: out.Tokens, Total: meta.Total, Limit: meta.Limit, Offset: meta.Offset}, nil
}

// ExportTokens uploads the history as CSV and returns a presigned link.
func (c *Client) ExportTokens(ctx context.Context) (*Export, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}

	var out Export
	if err := c.do(ctx, http.MethodPost, "/tokens/export", nil, nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.retries == 0 {
		return fn(ctx)
	}

	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// do sends one JSON request and decodes the flattened success envelope into
// out and its "meta" object into meta.
func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header, out, meta any) error {
	var reader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: new request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
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

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}

	if len(raw) == 0 {
		return nil
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("client: decode response: %w", err)
		}
	}
	if meta != nil {
		var env struct {
			Meta json.RawMessage `json:"meta"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("client: decode response: %w", err)
		}
		if len(env.Meta) > 0 {
			if err := json.Unmarshal(env.Meta, meta); err != nil {
				return fmt.Errorf("client: decode meta: %w", err)
			}
		}
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}

	var env struct {
		Message string            `json:"message"`
		Code    string            `json:"code"`
		Error   map[string]string `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		apiErr.Message = env.Message
		apiErr.Code = env.Code
		apiErr.Fields = env.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
