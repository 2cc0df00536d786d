// Package client talks to the persistence service over JSON-RPC.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hydraimport/internal/observability"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SessionHeader carries the session ID on every call
const SessionHeader = "X-Session-ID"

// Config holds connection settings for a Client
type Config struct {
	URL       string
	SessionID string
	Username  string
	Password  string
	Timeout   time.Duration

	// Breaker settings. Zero values use the defaults below.
	MaxRequests      uint32
	Interval         time.Duration
	OpenTimeout      time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRequests == 0 {
		c.MaxRequests = 1
	}
	if c.Interval == 0 {
		c.Interval = 30 * time.Second
	}
	if c.OpenTimeout == 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 0.6
	}
	if c.MinRequests == 0 {
		c.MinRequests = 3
	}
}

// Client is a JSON-RPC client for the persistence service. It is safe for
// concurrent use once a session is established.
type Client struct {
	url       string
	sessionID string
	username  string
	password  string

	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records call counts and latency on m
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client for the service at cfg.URL
func New(cfg Config, log *zap.Logger, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.applyDefaults()

	c := &Client{
		url:       strings.TrimRight(cfg.URL, "/"),
		sessionID: cfg.SessionID,
		username:  cfg.Username,
		password:  cfg.Password,
		http:      &http.Client{Timeout: cfg.Timeout},
		log:       log,
		tracer:    observability.Tracer("hydraimport/client"),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "persistence",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// The service answering with an error is still a healthy service
		IsSuccessful: func(err error) bool {
			var remote *RemoteError
			return err == nil || errors.As(err, &remote)
		},
	})

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SessionID returns the current session, empty before login
func (c *Client) SessionID() string {
	return c.sessionID
}

// EnsureSession logs in with the configured credentials unless a session
// ID is already set.
func (c *Client) EnsureSession(ctx context.Context) error {
	if c.sessionID != "" {
		return nil
	}
	if c.username == "" {
		return fmt.Errorf("no session ID and no username configured")
	}
	return c.Login(ctx, c.username, c.password)
}

// Login opens a session and keeps its ID for later calls
func (c *Client) Login(ctx context.Context, username, password string) error {
	var result struct {
		SessionID string `json:"session_id"`
	}
	params := map[string]string{"username": username, "password": password}
	if err := c.Call(ctx, "login", params, &result); err != nil {
		return fmt.Errorf("login as %s: %w", username, err)
	}
	if result.SessionID == "" {
		return fmt.Errorf("login as %s: empty session ID", username)
	}
	c.sessionID = result.SessionID
	c.log.Info("logged in", zap.String("user", username))
	return nil
}

type request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RemoteError    `json:"error"`
}

// Call invokes method with params and decodes the result into out, which
// may be nil.
func (c *Client) Call(ctx context.Context, method string, params, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "rpc."+method, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rpc.method", method)))
	start := time.Now()
	defer func() {
		c.metrics.ObserveCall(method, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	raw, err := c.breaker.Execute(func() (any, error) {
		return c.roundTrip(ctx, method, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%s: persistence service unavailable: %w", method, err)
		}
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw.(json.RawMessage), out); err != nil {
		return fmt.Errorf("%s: failed to decode result: %w", method, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := uuid.NewString()
	body, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.sessionID != "" {
		req.Header.Set(SessionHeader, c.sessionID)
	}

	c.log.Debug("rpc call", zap.String("method", method), zap.String("request_id", id))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", method, err)
	}
	if resp.StatusCode >= 500 {
		return nil, &HTTPError{Method: method, StatusCode: resp.StatusCode, Body: truncate(data, 256)}
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &HTTPError{Method: method, StatusCode: resp.StatusCode, Body: truncate(data, 256)}
		}
		return nil, fmt.Errorf("%s: failed to decode response: %w", method, err)
	}
	if rpcResp.Error != nil {
		rpcResp.Error.Method = method
		return nil, rpcResp.Error
	}
	if rpcResp.ID != "" && rpcResp.ID != id {
		return nil, fmt.Errorf("%s: response id %q does not match request id %q", method, rpcResp.ID, id)
	}
	return rpcResp.Result, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
