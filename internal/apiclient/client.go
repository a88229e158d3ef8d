// Package apiclient is the thin REST client for the notification backend.
// All responses share the envelope {success, data, message}; a success:false
// body and a transport failure both surface as AppError so callers can treat
// backend failure uniformly.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vantage-invest/pushkit/pkg/circuitbreaker"
	apperrors "github.com/vantage-invest/pushkit/pkg/errors"
	"github.com/vantage-invest/pushkit/pkg/logger"
	"github.com/vantage-invest/pushkit/pkg/metrics"
)

// TokenSource supplies the current bearer token, or empty when the session
// is unauthenticated.
type TokenSource func() string

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Client talks to the notification backend.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	breaker *circuitbreaker.Breaker
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger attaches a logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent("apiclient") }
}

// WithMetrics attaches subsystem metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithBreaker guards backend calls with a circuit breaker. While the breaker
// is open requests fail immediately without touching the network.
func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// NewClient creates a backend client. token may be nil for endpoints that
// never authenticate, but every production caller supplies one.
func NewClient(baseURL string, token TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   token,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do runs one request and decodes the envelope. When out is non-nil the
// envelope's data field is unmarshalled into it.
func (c *Client) do(ctx context.Context, method, path, endpoint string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	if c.breaker != nil && !c.breaker.Allow() {
		c.observe(endpoint, "error")
		return apperrors.Backend(circuitbreaker.ErrOpen)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.metrics != nil {
		c.metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.recordFailure()
		c.observe(endpoint, "error")
		return apperrors.Backend(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.recordFailure()
		c.observe(endpoint, "error")
		return apperrors.Backend(fmt.Errorf("failed to decode response: %w", err))
	}

	// The backend answered; a success:false envelope is a rejection, not
	// an outage, so the breaker resets either way.
	if c.breaker != nil {
		c.breaker.Success()
	}

	if !env.Success {
		c.observe(endpoint, "rejected")
		return apperrors.BackendRejected(env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.observe(endpoint, "error")
			return apperrors.Backend(fmt.Errorf("failed to decode data: %w", err))
		}
	}

	c.observe(endpoint, "success")
	return nil
}

func (c *Client) recordFailure() {
	if c.breaker != nil {
		c.breaker.Failure()
	}
}

func (c *Client) observe(endpoint, status string) {
	if c.metrics != nil {
		c.metrics.APIRequests.WithLabelValues(endpoint, status).Inc()
	}
}
