package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fruithappens/Coffeecue-sub002/internal/fallback"
	"github.com/fruithappens/Coffeecue-sub002/internal/order"
)

// OrderGateway is the part of the client the order store depends on.
type OrderGateway interface {
	FetchPending(ctx context.Context) ([]order.Order, Result)
	FetchInProgress(ctx context.Context) ([]order.Order, Result)
	FetchCompleted(ctx context.Context) ([]order.Order, Result)
	Claim(ctx context.Context, orderID string, stationID int) Result
	Complete(ctx context.Context, orderID string) Result
	MarkPickedUp(ctx context.Context, orderID string) Result
	CreateWalkIn(ctx context.Context, o order.Order) (order.Order, Result)
	UpdateWaitTime(ctx context.Context, minutes, stationID int) Result
	CheckConnection(ctx context.Context) bool
}

var _ OrderGateway = (*Client)(nil)

// TokenSource supplies the bearer credential, or "" when none is available.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to the TokenSource interface.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Client talks to the Coffeecue HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tokens    TokenSource
	mode      *fallback.Mode
	log       zerolog.Logger

	mu            sync.Mutex
	authErrors    int
	cooldownUntil time.Time
	lastCall      time.Time
	lastToken     string

	now   func() time.Time
	sleep func(time.Duration)
}

const (
	defaultAPIBind   = "127.0.0.1:5001"
	defaultUserAgent = "coffeecue-station/0.3"
	requestTimeout   = 8 * time.Second

	// authErrorThreshold is how many consecutive auth failures flip the
	// client into degraded mode.
	authErrorThreshold = 3

	// minCallSpacing is the smallest gap between two gateway calls. Calls
	// arriving sooner are delayed, not dropped; the server's anti-abuse
	// logic bans clients that hammer it.
	minCallSpacing = 300 * time.Millisecond
)

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string, tokens TokenSource, mode *fallback.Mode, log zerolog.Logger) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}
	if mode == nil {
		mode = &fallback.Mode{}
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		tokens:    tokens,
		mode:      mode,
		log:       log,
		now:       time.Now,
		sleep:     time.Sleep,
	}, nil
}

// FetchPending retrieves the pending collection.
func (c *Client) FetchPending(ctx context.Context) ([]order.Order, Result) {
	return c.fetchOrders(ctx, "/api/orders/pending")
}

// FetchInProgress retrieves the in-progress collection.
func (c *Client) FetchInProgress(ctx context.Context) ([]order.Order, Result) {
	return c.fetchOrders(ctx, "/api/orders/in-progress")
}

// FetchCompleted retrieves the completed collection, including orders already
// picked up.
func (c *Client) FetchCompleted(ctx context.Context) ([]order.Order, Result) {
	return c.fetchOrders(ctx, "/api/orders/completed")
}

func (c *Client) fetchOrders(ctx context.Context, path string) ([]order.Order, Result) {
	var payload ordersResponse
	res := c.call(ctx, http.MethodGet, path, nil, &payload)
	if !res.OK() {
		return nil, res
	}
	orders := make([]order.Order, 0, len(payload.Orders))
	for _, w := range payload.Orders {
		orders = append(orders, w.ToOrder())
	}
	return orders, res
}

// Claim marks an order as started by a station.
func (c *Client) Claim(ctx context.Context, orderID string, stationID int) Result {
	body := map[string]any{"station_id": stationID}
	return c.call(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(orderID)+"/start", body, nil)
}

// Complete marks an order as finished.
func (c *Client) Complete(ctx context.Context, orderID string) Result {
	return c.call(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(orderID)+"/complete", nil, nil)
}

// MarkPickedUp records that the customer collected the order.
func (c *Client) MarkPickedUp(ctx context.Context, orderID string) Result {
	return c.call(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(orderID)+"/pickup", nil, nil)
}

// CreateWalkIn submits a locally created order. On success the returned order
// carries the server-assigned identity.
func (c *Client) CreateWalkIn(ctx context.Context, o order.Order) (order.Order, Result) {
	var payload createResponse
	res := c.call(ctx, http.MethodPost, "/api/orders", o.ToWire(), &payload)
	if !res.OK() {
		return order.Order{}, res
	}
	return payload.Order.ToOrder(), res
}

// UpdateWaitTime pushes the station's recommended wait time to the server.
func (c *Client) UpdateWaitTime(ctx context.Context, minutes, stationID int) Result {
	body := map[string]any{"wait_time": minutes, "station_id": stationID}
	return c.call(ctx, http.MethodPost, "/api/settings/wait-time", body, nil)
}

// CheckConnection probes the server without touching order state.
func (c *Client) CheckConnection(ctx context.Context) bool {
	res := c.call(ctx, http.MethodGet, "/api/ping", nil, nil)
	return res.OK()
}

type ordersResponse struct {
	Orders []order.WireOrder `json:"orders"`
}

type createResponse struct {
	Order order.WireOrder `json:"order"`
}

// errorEnvelope is the body-level error marker the server attaches when it
// answers 200 but refuses the request.
type errorEnvelope struct {
	Success    *bool  `json:"success"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
}

// call runs one classified gateway request. It returns tagged results for
// every expected failure class; only request construction bugs surface as
// StatusTransport with a wrapped error.
func (c *Client) call(ctx context.Context, method, path string, body, dest any) Result {
	if c.throttleAndShortCircuit() {
		return Result{Status: StatusDegraded}
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Result{Status: StatusTransport, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return Result{Status: StatusTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Str("path", path).Err(err).Msg("gateway transport failure")
		return Result{Status: StatusTransport, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	return c.classify(path, resp, dest)
}

// throttleAndShortCircuit enforces minimum call spacing and the degraded /
// cooldown short-circuits. It reports true when the call must not hit the
// network. A freshly observed credential clears the auth trigger first.
func (c *Client) throttleAndShortCircuit() bool {
	token := c.tokens.Token()

	c.mu.Lock()
	if token != "" && token != c.lastToken {
		c.lastToken = token
		c.authErrors = 0
		c.mode.ClearAuthLimit()
	}
	now := c.now()
	inCooldown := now.Before(c.cooldownUntil)
	var wait time.Duration
	if !c.lastCall.IsZero() {
		if gap := now.Sub(c.lastCall); gap < minCallSpacing {
			wait = minCallSpacing - gap
		}
	}
	c.lastCall = now.Add(wait)
	c.mu.Unlock()

	if c.mode.Degraded() || inCooldown {
		return true
	}
	if wait > 0 {
		c.sleep(wait)
	}
	return false
}

func (c *Client) classify(path string, resp *http.Response, dest any) Result {
	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return c.recordAuthError(path, fmt.Errorf("api %s returned status %d", path, resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return c.recordSoftBlock(path, defaultCooldown)
	case resp.StatusCode >= 400:
		return Result{Status: StatusTransport, Err: fmt.Errorf("api %s returned status %d", path, resp.StatusCode)}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return Result{Status: StatusTransport, Err: fmt.Errorf("read response: %w", err)}
	}

	// A 200 can still carry a body-level refusal.
	var envelope errorEnvelope
	if err := json.Unmarshal(buf.Bytes(), &envelope); err == nil {
		if envelope.Success != nil && !*envelope.Success {
			marker := strings.ToLower(envelope.Error)
			if strings.Contains(marker, "anti_flicker") || strings.Contains(marker, "rate") {
				cooldown := defaultCooldown
				if envelope.RetryAfter > 0 {
					cooldown = time.Duration(envelope.RetryAfter) * time.Second
				}
				return c.recordSoftBlock(path, cooldown)
			}
			if strings.Contains(marker, "auth") || strings.Contains(marker, "token") || strings.Contains(marker, "unauthorized") {
				return c.recordAuthError(path, fmt.Errorf("api %s refused: %s", path, envelope.Error))
			}
			return Result{Status: StatusTransport, Err: fmt.Errorf("api %s refused: %s", path, envelope.Error)}
		}
	}

	if dest != nil {
		if err := json.Unmarshal(buf.Bytes(), dest); err != nil {
			return Result{Status: StatusTransport, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	c.mu.Lock()
	c.authErrors = 0
	c.mu.Unlock()
	return Result{Status: StatusOK}
}

const defaultCooldown = 60 * time.Second

func (c *Client) recordAuthError(path string, err error) Result {
	c.mu.Lock()
	c.authErrors++
	count := c.authErrors
	c.mu.Unlock()

	if count >= authErrorThreshold {
		c.mode.TripAuthLimit()
		c.log.Error().Str("path", path).Int("consecutive", count).
			Msg("auth error threshold crossed, entering degraded mode")
	} else {
		c.log.Warn().Str("path", path).Int("consecutive", count).Err(err).Msg("gateway auth failure")
	}
	return Result{Status: StatusAuth, Err: err}
}

func (c *Client) recordSoftBlock(path string, cooldown time.Duration) Result {
	c.mu.Lock()
	c.cooldownUntil = c.now().Add(cooldown)
	until := c.cooldownUntil
	c.mu.Unlock()

	c.log.Warn().Str("path", path).Time("until", until).Msg("server soft-block, cooling down")
	return Result{Status: StatusSoftBlocked}
}

// AuthErrorCount reports the consecutive auth failure count, for status display.
func (c *Client) AuthErrorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authErrors
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
