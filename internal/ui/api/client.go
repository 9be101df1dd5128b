// Package api talks to the streaming, payment and legacy live-check endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Its-donkey/climbcam-live/internal/logx"
	"github.com/Its-donkey/climbcam-live/internal/ui/model"
)

// Default endpoint paths, relative to the page origin.
const (
	DefaultStatusPath  = "/streaming/api/status/"
	DefaultPaymentPath = "/create-payment/"
	DefaultLivePath    = "/check-youtube-live/"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

var (
	// ErrUnexpectedStatus reports a non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrPaymentUnavailable reports a payment session response without an init point.
	ErrPaymentUnavailable = errors.New("payment session unavailable")
)

// HTTPDoer is the subset of *http.Client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues requests against the page backend.
type Client struct {
	base        string
	statusPath  string
	paymentPath string
	livePath    string
	http        HTTPDoer
	logger      zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithPaths overrides the endpoint paths. Empty values keep the defaults.
func WithPaths(status, payment, live string) Option {
	return func(c *Client) {
		if status = strings.TrimSpace(status); status != "" {
			c.statusPath = status
		}
		if payment = strings.TrimSpace(payment); payment != "" {
			c.paymentPath = payment
		}
		if live = strings.TrimSpace(live); live != "" {
			c.livePath = live
		}
	}
}

// NewClient builds a client for the given base URL. An empty base targets the
// page origin, which is what the browser build uses.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:        strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		statusPath:  DefaultStatusPath,
		paymentPath: DefaultPaymentPath,
		livePath:    DefaultLivePath,
		http:        http.DefaultClient,
		logger:      logx.WithComponent("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchStatus retrieves the viewer's current access status.
func (c *Client) FetchStatus(ctx context.Context) (model.AccessStatus, error) {
	var status model.AccessStatus
	body, code, err := c.get(ctx, c.statusPath)
	if err != nil {
		return status, err
	}
	if code < 200 || code >= 300 {
		return status, fmt.Errorf("fetch %s: %w: %d", c.statusPath, ErrUnexpectedStatus, code)
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return status, fmt.Errorf("decode %s: %w", c.statusPath, err)
	}
	return status, nil
}

// CreatePayment requests a new payment session. A response without an
// init_point yields ErrPaymentUnavailable.
func (c *Client) CreatePayment(ctx context.Context) (model.PaymentSession, error) {
	var session model.PaymentSession
	body, code, err := c.get(ctx, c.paymentPath)
	if err != nil {
		return session, err
	}
	if err := json.Unmarshal(body, &session); err != nil && code >= 200 && code < 300 {
		return session, fmt.Errorf("decode %s: %w", c.paymentPath, err)
	}
	if code < 200 || code >= 300 || strings.TrimSpace(session.InitPoint) == "" {
		reason := strings.TrimSpace(session.Error)
		if reason == "" {
			reason = http.StatusText(code)
		}
		return session, fmt.Errorf("%w: %s", ErrPaymentUnavailable, reason)
	}
	return session, nil
}

// FetchLive retrieves the legacy live flag.
func (c *Client) FetchLive(ctx context.Context) (model.LiveStatus, error) {
	var live model.LiveStatus
	body, code, err := c.get(ctx, c.livePath)
	if err != nil {
		return live, err
	}
	if code < 200 || code >= 300 {
		return live, fmt.Errorf("fetch %s: %w: %d", c.livePath, ErrUnexpectedStatus, code)
	}
	if err := json.Unmarshal(body, &live); err != nil {
		return live, fmt.Errorf("decode %s: %w", c.livePath, err)
	}
	return live, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	requestID := logx.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := c.logger.With().Str("request_id", requestID).Str("path", path).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("request failed")
		return nil, 0, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	logger.Debug().Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("response received")
	return body, resp.StatusCode, nil
}
