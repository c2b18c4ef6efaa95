package httpsource

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/sports-viewing/internal/domain/market"
	"github.com/riskibarqy/sports-viewing/internal/domain/rights"
	"github.com/riskibarqy/sports-viewing/internal/platform/logging"
	"github.com/riskibarqy/sports-viewing/internal/platform/resilience"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, mutate func(*ClientConfig)) *Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, handler)
	}()
	t.Cleanup(func() { _ = ln.Close() })

	cfg := ClientConfig{
		League:         market.MLB,
		BaseURL:        "http://rights.test/",
		Token:          "secret-token",
		Timeout:        time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		HTTPClient: &fasthttp.Client{
			Dial: func(string) (net.Conn, error) { return ln.Dial() },
		},
		Logger: logging.NewNop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestClient_FetchRights(t *testing.T) {
	t.Parallel()

	var gotPath, gotDMA, gotAuth string
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		gotPath = string(ctx.Path())
		gotDMA = string(ctx.QueryArgs().Peek("dma"))
		gotAuth = string(ctx.Request.Header.Peek("Authorization"))
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{
			"game_id": "MLB_123",
			"streams": [
				{"provider": "YES Network", "url": "https://yes.example", "blackout": false, "requires_auth": true},
				{"game_id": "MLB_123", "provider": "MLB.TV", "url": "https://mlb.example", "blackout": true, "requires_auth": true, "notes": "out of market"}
			],
			"blackout_info": "Blacked out in New York"
		}`)
	}, nil)

	feed, err := client.FetchRights(context.Background(), "MLB_123", "New York")
	if err != nil {
		t.Fatalf("fetch rights: %v", err)
	}
	if gotPath != "/v1/rights/MLB_123" || gotDMA != "New York" {
		t.Fatalf("unexpected request path=%q dma=%q", gotPath, gotDMA)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if len(feed.Streams) != 2 {
		t.Fatalf("unexpected streams: %+v", feed.Streams)
	}
	if feed.Streams[0].Provider != "YES Network" || feed.Streams[0].GameID != "MLB_123" || feed.Streams[0].Blackout {
		t.Fatalf("unexpected first offer: %+v", feed.Streams[0])
	}
	if !feed.Streams[1].Blackout || feed.Streams[1].Notes != "out of market" {
		t.Fatalf("unexpected second offer: %+v", feed.Streams[1])
	}
	if feed.BlackoutInfo != "Blacked out in New York" {
		t.Fatalf("unexpected blackout info: %q", feed.BlackoutInfo)
	}
}

func TestClient_FetchRights_NotFoundIsProviderError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("404 page not found")
	}, nil)

	_, err := client.FetchRights(context.Background(), "MLB_404", "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, rights.ErrUnknownGame) {
		t.Fatalf("bare 404 must not be reported as an unknown game: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("404 must not be retried, calls=%d", calls.Load())
	}
}

func TestClient_FetchRights_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
			return
		}
		ctx.SetBodyString(`{"streams":[{"provider":"ESPN+"}]}`)
	}, nil)

	feed, err := client.FetchRights(context.Background(), "MLB_7", "Boston")
	if err != nil {
		t.Fatalf("fetch rights after retries: %v", err)
	}
	if calls.Load() != 3 || len(feed.Streams) != 1 {
		t.Fatalf("unexpected calls=%d feed=%+v", calls.Load(), feed)
	}
}

func TestClient_FetchRights_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		ctx.SetBodyString("maintenance secret-token")
	}, func(cfg *ClientConfig) { cfg.MaxRetries = 1 })

	_, err := client.FetchRights(context.Background(), "MLB_8", "Boston")
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, rights.ErrUnknownGame) {
		t.Fatalf("transient failure must not look like an unknown game: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestClient_FetchRights_ClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	}, nil)

	if _, err := client.FetchRights(context.Background(), "MLB_9", "Boston"); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not be retried, calls=%d", calls.Load())
	}
}

func TestClient_FetchRights_MalformedPayload(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"streams": "nope"`)
	}, nil)

	if _, err := client.FetchRights(context.Background(), "MLB_10", "Boston"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClient_FetchRights_CircuitOpens(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = 0
		cfg.Clock = clock
		cfg.CircuitBreaker = resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		}
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.FetchRights(ctx, "MLB_11", "Boston"); err == nil {
			t.Fatalf("expected failure %d", i)
		}
	}

	_, err := client.FetchRights(ctx, "MLB_11", "Boston")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("open circuit must not reach provider, calls=%d", calls.Load())
	}
}

func TestClient_FetchRights_CancelledCallDoesNotCloseCircuit(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) == 1 {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			return
		}
		ctx.SetBodyString(`{"streams":[{"provider":"MLB.TV"}]}`)
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = 0
		cfg.Clock = clock
		cfg.CircuitBreaker = resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		}
	})

	if _, err := client.FetchRights(context.Background(), "MLB_12", "Boston"); err == nil {
		t.Fatalf("expected provider failure")
	}
	clock.Advance(2 * time.Minute)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.FetchRights(cancelled, "MLB_12", "Boston"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if state := client.breaker.State(); state != resilience.CircuitStateHalfOpen {
		t.Fatalf("cancelled call must leave the circuit half-open, got %s", state)
	}

	if _, err := client.FetchRights(context.Background(), "MLB_12", "Boston"); err != nil {
		t.Fatalf("probe after cancelled call: %v", err)
	}
	if state := client.breaker.State(); state != resilience.CircuitStateClosed {
		t.Fatalf("expected closed after a real success, got %s", state)
	}
	if calls.Load() != 2 {
		t.Fatalf("cancelled call must not reach the provider, calls=%d", calls.Load())
	}
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{BaseURL: "http://x"}); err == nil {
		t.Fatalf("expected error without league")
	}
	if _, err := NewClient(ClientConfig{League: market.NBA}); err == nil {
		t.Fatalf("expected error without base url")
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	got := sanitize(`dial failed: Authorization: Bearer abc123 token=secret`, "secret")
	if got != `dial failed: Authorization: Bearer REDACTED token=REDACTED` {
		t.Fatalf("unexpected sanitized text: %q", got)
	}
}
