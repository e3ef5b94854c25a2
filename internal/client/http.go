package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	BasePath        = "/api/v1"
	LoginEndpoint   = "/auth/login"
	RequestIDHeader = "X-Request-ID"

	genericErrorDetail = "API Error"
)

// ErrUnauthorized is returned when an authenticated call is rejected with 401.
// The session has already been invalidated when it is returned; callers must
// not retry.
var ErrUnauthorized = errors.New("unauthorized")

type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API error status %d: %s", e.Status, e.Detail)
}

func IsStatus(err error, status int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == status
}

func IsForbidden(err error) bool { return IsStatus(err, http.StatusForbidden) }

func IsNotFound(err error) bool { return IsStatus(err, http.StatusNotFound) }

type TokenSource interface {
	Token() string
}

type Client struct {
	baseUrl    string
	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.RWMutex
	tokens        TokenSource
	onInvalidated []func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(baseUrl string, opts ...Option) *Client {
	c := &Client{
		baseUrl:    strings.TrimRight(baseUrl, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetTokenSource(tokens TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = tokens
}

// OnSessionInvalidated registers fn to be called once for every 401 response
// received on an endpoint other than login.
func (c *Client) OnSessionInvalidated(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInvalidated = append(c.onInvalidated, fn)
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) emitInvalidated() {
	c.mu.RLock()
	handlers := append([]func(){}, c.onInvalidated...)
	c.mu.RUnlock()
	for _, fn := range handlers {
		fn()
	}
}

// Do sends a JSON request to endpoint (relative to BasePath) and decodes a
// successful response into out. A 204 response leaves out untouched.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request %s %s: %w", method, endpoint, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+BasePath+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "endpoint", endpoint, "request_id", requestID, "error", err)
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request done",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode == http.StatusUnauthorized && !strings.HasPrefix(endpoint, LoginEndpoint) {
		io.Copy(io.Discard, resp.Body)
		c.logger.Info("session rejected by server", "endpoint", endpoint, "request_id", requestID)
		c.emitInvalidated()
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error body: %w", err)
		}
		return &HTTPError{Status: resp.StatusCode, Detail: errorDetail(errorBody)}
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("parse response %s %s: %w", method, endpoint, err)
	}
	return nil
}

type errorPayload struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Msg string `json:"msg"`
}

// errorDetail extracts the "detail" field, which is either a message string or
// a list of field errors.
func errorDetail(body []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return genericErrorDetail
	}

	var msg string
	if err := json.Unmarshal(payload.Detail, &msg); err == nil && msg != "" {
		return msg
	}

	var fields []fieldError
	if err := json.Unmarshal(payload.Detail, &fields); err == nil && len(fields) > 0 && fields[0].Msg != "" {
		return fields[0].Msg
	}
	return genericErrorDetail
}
