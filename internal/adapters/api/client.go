// Package api is the typed client for the Payego REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"payego/internal/config"
	"payego/internal/core/apierror"
)

// Metrics
var (
	clientReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payego_client_requests_total",
		Help: "Total API requests issued by the client",
	}, []string{"method", "endpoint", "status"})

	clientLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payego_client_request_duration_seconds",
		Help:    "API request latency as seen by the client",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "endpoint"})
)

// IdempotencyHeader carries the per-submission token on mutating requests.
const IdempotencyHeader = "Idempotency-Key"

// LoginPath is where an authorization failure sends the user.
const LoginPath = "/login"

// authLocations are views where a 401 is expected and must not redirect.
var authLocations = []string{"/login", "/register", "/forgot-password", "/reset-password"}

const maxBodyBytes = 4 << 20

// MsgMalformed is reported when a 2xx body does not match its contract.
const MsgMalformed = "Malformed server response"

// Credentials is the read and clear side of the credential vault.
type Credentials interface {
	Token() (string, bool)
	Clear() error
}

// Navigator exposes the current location and moves to another one.
type Navigator interface {
	Location() string
	Navigate(path string)
}

// Client issues requests against the configured base URL.
type Client struct {
	baseURL    string
	http       *http.Client
	creds      Credentials
	maxRetries int
	backoff    time.Duration

	mu             sync.RWMutex
	nav            Navigator
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithNavigator sets the navigator used for the login redirect.
func WithNavigator(nav Navigator) Option {
	return func(c *Client) { c.nav = nav }
}

// WithUnauthorizedHook sets the callback fired on every 401.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithRetryBackoff sets the pause between network retries.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// New creates a client for cfg that reads its bearer credential from creds.
func New(cfg config.APIConfig, creds Credentials, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       &http.Client{Timeout: timeout},
		creds:      creds,
		maxRetries: cfg.MaxRetries,
		backoff:    200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetNavigator replaces the navigator after construction.
func (c *Client) SetNavigator(nav Navigator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nav = nav
}

// OnUnauthorized replaces the 401 callback after construction.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// contract is a response body that can check itself after decoding.
type contract interface {
	Validate() error
}

// call describes one logical request. endpoint is the route template used
// as the metrics label; path is the concrete path with its query string.
type call struct {
	method         string
	endpoint       string
	path           string
	body           interface{}
	idempotencyKey string
	out            contract

	// bearer overrides the vault credential; such calls never trigger
	// the 401 side effects.
	bearer string
}

func (c *Client) do(ctx context.Context, cl call) error {
	var payload []byte
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return &apierror.Error{Method: cl.method, Path: cl.path, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		payload = b
	}

	// Only reads and keyed writes are safe to send twice.
	retries := 0
	if cl.method == http.MethodGet || cl.idempotencyKey != "" {
		retries = c.maxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, cl, payload)
		if err == nil {
			return c.handle(cl, resp)
		}

		var apiErr *apierror.Error
		if !errors.As(err, &apiErr) || !apiErr.RequestSent {
			return err
		}
		if attempt >= retries || ctx.Err() != nil {
			return err
		}

		log.Printf("⚠️ %s %s failed (%v), retrying", cl.method, cl.endpoint, apiErr.Err)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(c.backoff * time.Duration(attempt+1)):
		}
	}
}

func (c *Client) send(ctx context.Context, cl call, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, &apierror.Error{Method: cl.method, Path: cl.path, Err: fmt.Errorf("failed to create %s request: %w", cl.method, err)}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+cl.bearer)
	} else if token, ok := c.creds.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cl.idempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, cl.idempotencyKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	clientLatency.WithLabelValues(cl.method, cl.endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		clientReqTotal.WithLabelValues(cl.method, cl.endpoint, "network_error").Inc()
		return nil, &apierror.Error{Method: cl.method, Path: cl.path, RequestSent: true, Err: err}
	}
	clientReqTotal.WithLabelValues(cl.method, cl.endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

func (c *Client) handle(cl call, resp *http.Response) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &apierror.Error{Method: cl.method, Path: cl.path, RequestSent: true, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if cl.out == nil {
			return nil
		}
		if err := decode(raw, cl.out); err != nil {
			return &apierror.Error{
				Method:      cl.method,
				Path:        cl.path,
				Status:      resp.StatusCode,
				StatusText:  statusText(resp),
				Payload:     &apierror.Payload{Message: MsgMalformed},
				RequestSent: true,
				Err:         err,
			}
		}
		return nil
	}

	apiErr := &apierror.Error{
		Method:      cl.method,
		Path:        cl.path,
		Status:      resp.StatusCode,
		StatusText:  statusText(resp),
		Payload:     apierror.ParsePayload(raw),
		RequestSent: true,
	}
	if resp.StatusCode == http.StatusUnauthorized && cl.bearer == "" {
		c.unauthorized()
	}
	return apiErr
}

// unauthorized clears both credential scopes, notifies the session and
// sends the user to the login view unless they are already on an auth view.
func (c *Client) unauthorized() {
	if err := c.creds.Clear(); err != nil {
		log.Printf("❌ Failed to clear credential: %v", err)
	}

	c.mu.RLock()
	hook, nav := c.onUnauthorized, c.nav
	c.mu.RUnlock()

	if hook != nil {
		hook()
	}
	if nav != nil && !IsAuthLocation(nav.Location()) {
		nav.Navigate(LoginPath)
	}
}

// IsAuthLocation reports whether path is one of the authentication views.
func IsAuthLocation(path string) bool {
	for _, p := range authLocations {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

func decode(raw []byte, out contract) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Validate()
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// NewIdempotencyKey returns a fresh token for one submission attempt.
func NewIdempotencyKey() string {
	return uuid.NewString()
}

func keyOrNew(key string) string {
	if key == "" {
		return NewIdempotencyKey()
	}
	return key
}
