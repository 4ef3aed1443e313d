package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fruithappens/Coffeecue-sub002/internal/fallback"
	"github.com/fruithappens/Coffeecue-sub002/internal/order"
)

func testClient(t *testing.T, serverURL string, tokens TokenSource, mode *fallback.Mode) *Client {
	t.Helper()
	c, err := NewClient(serverURL, tokens, mode, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	// Collapse the throttle so tests stay fast.
	c.sleep = func(time.Duration) {}
	return c
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIBind {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIBind)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FetchesCollectionsAndAttachesCredentials(t *testing.T) {
	var gotAuth, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/orders/pending":
			_, _ = w.Write([]byte(`{"orders":[{"id":"7","status":"pending","station_id":2,"coffee_type":"Latte"}]}`))
		case "/api/orders/in-progress", "/api/orders/completed":
			_, _ = w.Write([]byte(`{"orders":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c := testClient(t, server.URL, TokenFunc(func() string { return "tok-1" }), nil)

	orders, res := c.FetchPending(context.Background())
	if !res.OK() {
		t.Fatalf("FetchPending result = %v, want ok", res.Status)
	}
	if len(orders) != 1 || orders[0].ID != "7" || orders[0].StationID != 2 {
		t.Fatalf("FetchPending orders = %#v, want station 2 order 7", orders)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
	if !strings.HasPrefix(gotAgent, "coffeecue-station/") {
		t.Fatalf("User-Agent = %q, want coffeecue-station/*", gotAgent)
	}
}

func TestClient_MissingTokenStillAttemptsRequest(t *testing.T) {
	var sawRequest bool
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawRequest = true
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"orders":[]}`))
	}))
	t.Cleanup(server.Close)

	c := testClient(t, server.URL, nil, nil)
	_, res := c.FetchPending(context.Background())
	if !res.OK() {
		t.Fatalf("result = %v, want ok without credential", res.Status)
	}
	if !sawRequest {
		t.Fatal("request was not attempted without a credential")
	}
	if gotAuth != "" {
		t.Fatalf("Authorization = %q, want empty", gotAuth)
	}
}

func TestClient_AuthThresholdFlipsDegradedMode(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	mode := &fallback.Mode{}
	c := testClient(t, server.URL, nil, mode)

	for i := 0; i < authErrorThreshold; i++ {
		_, res := c.FetchPending(context.Background())
		if res.Status != StatusAuth {
			t.Fatalf("call %d status = %v, want auth error", i+1, res.Status)
		}
	}
	if !mode.Degraded() || !mode.AuthLimited() {
		t.Fatal("degraded mode not engaged after threshold")
	}

	before := requests.Load()
	_, res := c.FetchPending(context.Background())
	if res.Status != StatusDegraded {
		t.Fatalf("post-threshold status = %v, want degraded", res.Status)
	}
	if res.NetworkAttempted() {
		t.Fatal("degraded result claims network was attempted")
	}
	if requests.Load() != before {
		t.Fatal("degraded call still hit the network")
	}
}

func TestClient_FreshCredentialClearsAuthLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer fresh" {
			_, _ = w.Write([]byte(`{"orders":[]}`))
			return
		}
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	var token atomic.Value
	token.Store("stale")
	mode := &fallback.Mode{}
	c := testClient(t, server.URL, TokenFunc(func() string { return token.Load().(string) }), mode)

	ctx := context.Background()
	for i := 0; i < authErrorThreshold; i++ {
		c.FetchPending(ctx)
	}
	if !mode.Degraded() {
		t.Fatal("degraded mode not engaged")
	}

	token.Store("fresh")
	_, res := c.FetchPending(ctx)
	if !res.OK() {
		t.Fatalf("status after fresh credential = %v, want ok", res.Status)
	}
	if mode.Degraded() {
		t.Fatal("degraded mode still set after fresh credential")
	}
}

func TestClient_OperatorToggleSticksThroughFreshCredential(t *testing.T) {
	mode := &fallback.Mode{}
	mode.SetOperator(true)
	c := testClient(t, "127.0.0.1:1", TokenFunc(func() string { return "tok" }), mode)

	_, res := c.FetchPending(context.Background())
	if res.Status != StatusDegraded {
		t.Fatalf("status = %v, want degraded under operator toggle", res.Status)
	}
}

func TestClient_SoftBlockInstallsCooldown(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{"success":false,"error":"anti_flicker","retry_after":30}`))
	}))
	t.Cleanup(server.Close)

	c := testClient(t, server.URL, nil, nil)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	_, res := c.FetchPending(context.Background())
	if res.Status != StatusSoftBlocked {
		t.Fatalf("status = %v, want soft-blocked", res.Status)
	}

	// Inside the cooldown window: short-circuited, no network.
	before := requests.Load()
	clock = clock.Add(10 * time.Second)
	_, res = c.FetchPending(context.Background())
	if res.Status != StatusDegraded {
		t.Fatalf("in-cooldown status = %v, want degraded", res.Status)
	}
	if requests.Load() != before {
		t.Fatal("in-cooldown call hit the network")
	}

	// Past the deadline the client tries again.
	clock = clock.Add(time.Minute)
	_, res = c.FetchPending(context.Background())
	if res.Status != StatusSoftBlocked {
		t.Fatalf("post-cooldown status = %v, want a fresh attempt (soft-blocked)", res.Status)
	}
	if requests.Load() != before+1 {
		t.Fatal("post-cooldown call did not hit the network")
	}
}

func TestClient_StatusCodeSoftBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	c := testClient(t, server.URL, nil, nil)
	_, res := c.FetchPending(context.Background())
	if res.Status != StatusSoftBlocked {
		t.Fatalf("status = %v, want soft-blocked for 429", res.Status)
	}
}

func TestClient_TransportFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orders/pending":
			_, _ = w.Write([]byte("{not-json"))
		case "/api/orders/in-progress":
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	c := testClient(t, server.URL, nil, nil)

	_, res := c.FetchPending(context.Background())
	if res.Status != StatusTransport || res.Err == nil {
		t.Fatalf("malformed body result = %v/%v, want transport failure", res.Status, res.Err)
	}

	_, res = c.FetchInProgress(context.Background())
	if res.Status != StatusTransport {
		t.Fatalf("500 result = %v, want transport failure", res.Status)
	}

	// Unreachable host.
	dead := testClient(t, "127.0.0.1:1", nil, nil)
	_, res = dead.FetchPending(context.Background())
	if res.Status != StatusTransport {
		t.Fatalf("unreachable result = %v, want transport failure", res.Status)
	}
}

func TestClient_BodyLevelAuthMarker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"token expired"}`))
	}))
	t.Cleanup(server.Close)

	c := testClient(t, server.URL, nil, nil)
	_, res := c.FetchPending(context.Background())
	if res.Status != StatusAuth {
		t.Fatalf("status = %v, want auth error from body marker", res.Status)
	}
	if c.AuthErrorCount() != 1 {
		t.Fatalf("AuthErrorCount = %d, want 1", c.AuthErrorCount())
	}
}

func TestClient_SuccessResetsAuthCounter(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "nope", http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"orders":[]}`))
	}))
	t.Cleanup(server.Close)

	c := testClient(t, server.URL, nil, nil)
	ctx := context.Background()

	c.FetchPending(ctx)
	c.FetchPending(ctx)
	if c.AuthErrorCount() != 2 {
		t.Fatalf("AuthErrorCount = %d, want 2", c.AuthErrorCount())
	}

	fail.Store(false)
	if _, res := c.FetchPending(ctx); !res.OK() {
		t.Fatalf("status = %v, want ok", res.Status)
	}
	if c.AuthErrorCount() != 0 {
		t.Fatalf("AuthErrorCount = %d, want reset to 0", c.AuthErrorCount())
	}
}

func TestClient_ThrottleDelaysRatherThanDrops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"orders":[]}`))
	}))
	t.Cleanup(server.Close)

	c := testClient(t, server.URL, nil, nil)
	var slept time.Duration
	c.sleep = func(d time.Duration) { slept += d }
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	ctx := context.Background()
	if _, res := c.FetchPending(ctx); !res.OK() {
		t.Fatalf("first call status = %v, want ok", res.Status)
	}
	// Second call lands immediately: must be delayed, not dropped.
	if _, res := c.FetchPending(ctx); !res.OK() {
		t.Fatalf("second call status = %v, want ok", res.Status)
	}
	if slept != minCallSpacing {
		t.Fatalf("slept = %v, want %v", slept, minCallSpacing)
	}
}

func TestClient_MutationsAndProbe(t *testing.T) {
	type seen struct {
		method, path string
		body         map[string]any
	}
	var calls []seen
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, seen{r.Method, r.URL.Path, body})
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/orders" {
			_, _ = w.Write([]byte(`{"order":{"id":"901","status":"pending","station_id":2}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(server.Close)

	c := testClient(t, server.URL, nil, nil)
	ctx := context.Background()

	if res := c.Claim(ctx, "42", 2); !res.OK() {
		t.Fatalf("Claim result = %v, want ok", res.Status)
	}
	if res := c.Complete(ctx, "42"); !res.OK() {
		t.Fatalf("Complete result = %v, want ok", res.Status)
	}
	if res := c.MarkPickedUp(ctx, "42"); !res.OK() {
		t.Fatalf("MarkPickedUp result = %v, want ok", res.Status)
	}
	created, res := c.CreateWalkIn(ctx, order.Order{CoffeeType: "Latte", StationID: 2})
	if !res.OK() || created.ID != "901" {
		t.Fatalf("CreateWalkIn = %#v/%v, want server order 901", created, res.Status)
	}
	if res := c.UpdateWaitTime(ctx, 12, 2); !res.OK() {
		t.Fatalf("UpdateWaitTime result = %v, want ok", res.Status)
	}
	if !c.CheckConnection(ctx) {
		t.Fatal("CheckConnection = false, want true")
	}

	wantPaths := []string{
		"/api/orders/42/start",
		"/api/orders/42/complete",
		"/api/orders/42/pickup",
		"/api/orders",
		"/api/settings/wait-time",
		"/api/ping",
	}
	if len(calls) != len(wantPaths) {
		t.Fatalf("saw %d calls, want %d", len(calls), len(wantPaths))
	}
	for i, want := range wantPaths {
		if calls[i].path != want {
			t.Fatalf("call %d path = %q, want %q", i, calls[i].path, want)
		}
	}
	if got := calls[0].body["station_id"]; got != float64(2) {
		t.Fatalf("claim body station_id = %v, want 2", got)
	}
	if got := calls[4].body["wait_time"]; got != float64(12) {
		t.Fatalf("wait-time body = %v, want 12", got)
	}
}
