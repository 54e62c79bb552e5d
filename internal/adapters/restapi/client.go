// Package restapi implements ports.Backend over the warehouse HTTP/JSON API.
package restapi

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devbush/stockdesk/internal/domain"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 10 * time.Second

// RequestIDHeader carries a per-request id for backend log correlation.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody limits how much of an error response is read.
const maxErrorBody = 64 << 10

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client. A nil client is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: api base url %q", domain.ErrInvalidInput, baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one request. in is encoded as the JSON body when non-nil; out, when
// non-nil, receives the decoded response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := zerolog.Ctx(ctx)
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", reqID).Msg("request failed")
		return fmt.Errorf("%s %s: %w: %v", method, path, domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", reqID).
		Msg("api request")

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// errorBody is the error payload the backend sends.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(raw))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		switch {
		case eb.Error != "":
			msg = eb.Error
		case eb.Message != "":
			msg = eb.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return fmt.Errorf("%s %s: %w: %s", method, path, classify(resp.StatusCode), msg)
}

func classify(status int) error {
	switch {
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrUnauthorized
	case status == http.StatusConflict:
		return domain.ErrConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return domain.ErrValidation
	case status >= http.StatusInternalServerError:
		return domain.ErrBackendUnavailable
	default:
		return fmt.Errorf("unexpected status %d", status)
	}
}

// decodeList accepts a bare JSON array or an object wrapping it in "data" or "items".
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	if raw[0] != '[' {
		var env struct {
			Data  json.RawMessage `json:"data"`
			Items json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		switch {
		case len(env.Data) > 0:
			raw = env.Data
		case len(env.Items) > 0:
			raw = env.Items
		default:
			return []T{}, nil
		}
		return decodeList[T](raw)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return items, nil
}

func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

// Ping checks the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}
