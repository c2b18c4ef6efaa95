package httpsource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v5"
	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/sports-viewing/internal/domain/market"
	"github.com/riskibarqy/sports-viewing/internal/domain/rights"
	"github.com/riskibarqy/sports-viewing/internal/metrics"
	"github.com/riskibarqy/sports-viewing/internal/platform/logging"
	"github.com/riskibarqy/sports-viewing/internal/platform/resilience"
	"github.com/valyala/fasthttp"
)

const (
	defaultTimeout        = 5 * time.Second
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
	maxBodyPreview        = 256
)

var ErrCircuitOpen = crerr.New("rights provider is temporarily unavailable")

var errTransient = crerr.New("rights provider transient failure")
var bearerRegex = regexp.MustCompile(`(?i)bearer\s+[^\s"']+`)

type ClientConfig struct {
	League         market.League
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	HTTPClient     *fasthttp.Client
	CircuitBreaker resilience.CircuitBreakerConfig
	Clock          clockwork.Clock
	Logger         *logging.Logger
}

// Client is a rights.Source backed by one league's rights provider API:
// GET {base}/v1/rights/{game_id}?dma={dma}.
type Client struct {
	league         market.League
	baseURL        string
	token          string
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
	httpClient     *fasthttp.Client
	breaker        *resilience.CircuitBreaker
	logger         *logging.Logger
}

type rightsEnvelope struct {
	GameID       string          `json:"game_id"`
	Streams      []streamPayload `json:"streams"`
	BlackoutInfo string          `json:"blackout_info"`
}

type streamPayload struct {
	GameID       string `json:"game_id"`
	Provider     string `json:"provider"`
	URL          string `json:"url"`
	Blackout     bool   `json:"blackout"`
	RequiresAuth bool   `json:"requires_auth"`
	Notes        string `json:"notes"`
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if !cfg.League.Valid() {
		return nil, fmt.Errorf("rights client league is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("rights client base url is required for %s", cfg.League)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	initialBackoff := cfg.InitialBackoff
	if initialBackoff <= 0 {
		initialBackoff = defaultInitialBackoff
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "sports-viewing-rights",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		}
	}

	return &Client{
		league:         cfg.League,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		maxRetries:     max(cfg.MaxRetries, 0),
		initialBackoff: initialBackoff,
		httpClient:     httpClient,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker, cfg.Clock),
		logger:         logger.Named("rights_client").With("league", cfg.League.String()),
	}, nil
}

func (c *Client) FetchRights(ctx context.Context, gameID, dma string) (rights.Feed, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "rights provider circuit breaker rejected request", "state", c.breaker.State())
		return rights.Feed{}, crerr.Wrapf(ErrCircuitOpen, "%s rights", c.league)
	}

	raw, err := c.fetchWithRetry(ctx, c.rightsURL(gameID, dma))
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// The caller gave up; the provider's health is unknown.
			c.breaker.RecordAbandoned()
		case crerr.Is(err, errTransient):
			c.breaker.RecordFailure()
		default:
			c.breaker.RecordSuccess()
		}
		return rights.Feed{}, err
	}
	c.breaker.RecordSuccess()

	var payload rightsEnvelope
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return rights.Feed{}, crerr.Wrapf(err, "decode %s rights payload game_id=%s", c.league, gameID)
	}

	feed := rights.Feed{
		Streams:      make([]rights.StreamOffer, 0, len(payload.Streams)),
		BlackoutInfo: strings.TrimSpace(payload.BlackoutInfo),
	}
	for _, item := range payload.Streams {
		offerGameID := strings.TrimSpace(item.GameID)
		if offerGameID == "" {
			offerGameID = gameID
		}
		feed.Streams = append(feed.Streams, rights.StreamOffer{
			GameID:       offerGameID,
			Provider:     strings.TrimSpace(item.Provider),
			URL:          strings.TrimSpace(item.URL),
			Blackout:     item.Blackout,
			RequiresAuth: item.RequiresAuth,
			Notes:        item.Notes,
		})
	}
	return feed, nil
}

func (c *Client) rightsURL(gameID, dma string) string {
	values := url.Values{}
	values.Set("dma", dma)
	return c.baseURL + "/v1/rights/" + url.PathEscape(gameID) + "?" + values.Encode()
}

func (c *Client) fetchWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	policy.MaxInterval = defaultMaxBackoff

	attempt := 0
	raw, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		body, err := c.doRequest(ctx, fullURL)
		if err != nil && !crerr.Is(err, errTransient) {
			return nil, backoff.Permanent(err)
		}
		return body, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			metrics.UpstreamRetries.WithLabelValues(c.league.String()).Inc()
			c.logger.DebugContext(ctx, "retrying rights provider request", "attempt", attempt, "wait", wait, "error", err)
		}),
	)
	if err != nil {
		c.logger.WarnContext(ctx, "rights provider request failed", "url", redactURL(fullURL), "attempts", attempt, "error", err)
		return nil, err
	}
	return raw, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "send %s rights request: %s", c.league, sanitize(err.Error(), c.token)), errTransient)
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)
	switch {
	case status >= 200 && status < 300:
		return body, nil
	case isRetryableStatus(status):
		return nil, crerr.Mark(crerr.Newf("%s provider status=%d body=%s", c.league, status, preview(body)), errTransient)
	default:
		return nil, crerr.Newf("%s provider status=%d body=%s", c.league, status, preview(body))
	}
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusTooManyRequests || status >= 500
}

func preview(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxBodyPreview {
		return text[:maxBodyPreview] + "..."
	}
	return text
}

func sanitize(value, token string) string {
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return bearerRegex.ReplaceAllString(value, "Bearer REDACTED")
}

func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.User = nil
	return parsed.String()
}
