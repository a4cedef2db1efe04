package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	applog "github.com/janisto/lead-intake/internal/platform/logging"
	"github.com/janisto/lead-intake/internal/platform/metrics"
	"github.com/janisto/lead-intake/internal/platform/retry"
)

const (
	DefaultFXURL      = "https://api.exchangerate.host/latest?base=USD&symbols=EUR"
	DefaultFunFactURL = "https://catfact.ninja/fact"

	userAgent    = "lead-intake"
	maxBodyBytes = 64 << 10
)

// Client implements Service over HTTP with bounded retries.
type Client struct {
	httpClient *http.Client
	fxURL      string
	funFactURL string
	policy     retry.Policy
	limiters   map[string]*rate.Limiter
	metrics    *metrics.LeadMetrics
}

// Option configures a Client.
type Option func(*Client)

func WithFXURL(u string) Option {
	return func(c *Client) { c.fxURL = u }
}

func WithFunFactURL(u string) Option {
	return func(c *Client) { c.funFactURL = u }
}

// WithRetryPolicy replaces retry.Default.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithRateLimit caps outbound requests per second for each source. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiters = nil
			return
		}
		c.limiters = map[string]*rate.Limiter{
			SourceFX:      rate.NewLimiter(rate.Limit(rps), 1),
			SourceFunFact: rate.NewLimiter(rate.Limit(rps), 1),
		}
	}
}

func WithMetrics(m *metrics.LeadMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client. Per-attempt timeouts come from the retry
// policy, so httpClient should not set its own Timeout.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		httpClient: httpClient,
		fxURL:      DefaultFXURL,
		funFactURL: DefaultFunFactURL,
		policy:     retry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fxResponse struct {
	Rates struct {
		EUR *float64 `json:"EUR"`
	} `json:"rates"`
}

type funFactResponse struct {
	Fact string `json:"fact"`
}

func (c *Client) ExchangeRate(ctx context.Context) (float64, error) {
	var body fxResponse
	if err := c.fetch(ctx, SourceFX, c.fxURL, &body); err != nil {
		return 0, err
	}
	if body.Rates.EUR == nil {
		return 0, &UpstreamError{Source: SourceFX, Status: http.StatusOK, cause: fmt.Errorf("%w: rates.EUR missing", ErrMalformed)}
	}
	applog.LogDebug(ctx, "exchange rate fetched", zap.Float64("usd_eur", *body.Rates.EUR))
	return *body.Rates.EUR, nil
}

func (c *Client) FunFact(ctx context.Context, maxChars int) (string, error) {
	var body funFactResponse
	if err := c.fetch(ctx, SourceFunFact, c.funFactURL, &body); err != nil {
		return "", err
	}
	fact := Truncate(body.Fact, maxChars)
	if fact == "" {
		return "", &UpstreamError{Source: SourceFunFact, Status: http.StatusOK, cause: fmt.Errorf("%w: empty fact", ErrMalformed)}
	}
	return fact, nil
}

// Truncate keeps at most maxChars runes of s and trims surrounding
// whitespace. A non-positive maxChars only trims.
func Truncate(s string, maxChars int) string {
	if maxChars > 0 && utf8.RuneCountInString(s) > maxChars {
		s = string([]rune(s)[:maxChars])
	}
	return strings.TrimSpace(s)
}

func (c *Client) fetch(ctx context.Context, source, url string, target any) error {
	p := c.policy
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.metrics.EnrichmentRetry(source)
		applog.LogWarn(ctx, "enrichment attempt failed, retrying",
			zap.String("source", source),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
	}
	return retry.Do(ctx, p, func(ctx context.Context) error {
		return c.get(ctx, source, url, target)
	})
}

func (c *Client) get(ctx context.Context, source, url string, target any) error {
	if lim := c.limiters[source]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for %s rate limit: %w", source, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", source, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", source, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &UpstreamError{Source: source, Status: resp.StatusCode, cause: ErrUpstream}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(target); err != nil {
		// A body cut short by the attempt deadline or a dropped connection is
		// a transport failure, not a malformed answer.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("reading %s response: %w", source, ctxErr)
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("reading %s response: %w", source, err)
		}
		return &UpstreamError{Source: source, Status: resp.StatusCode, cause: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return nil
}

var _ Service = (*Client)(nil)
