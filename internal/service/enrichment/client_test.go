package enrichment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/janisto/lead-intake/internal/platform/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Millisecond,
		Multiplier:     2,
		MaxDelay:       4 * time.Millisecond,
		AttemptTimeout: 50 * time.Millisecond,
	}
}

func newTestClient(fxURL, factURL string) *Client {
	return NewClient(&http.Client{},
		WithFXURL(fxURL),
		WithFunFactURL(factURL),
		WithRetryPolicy(fastPolicy()),
	)
}

func TestExchangeRateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("unexpected Accept header %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"EUR":0.03}}`))
	}))
	defer server.Close()

	rate, err := newTestClient(server.URL, server.URL).ExchangeRate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 0.03 {
		t.Fatalf("expected 0.03, got %v", rate)
	}
}

func TestExchangeRateMissingEUR(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, server.URL).ExchangeRate(context.Background())
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestStatusErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, server.URL).ExchangeRate(context.Background())
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %T: %v", err, err)
	}
	if upErr.Status != http.StatusServiceUnavailable || upErr.Source != SourceFX {
		t.Fatalf("unexpected upstream error %+v", upErr)
	}
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestMalformedJSONIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, server.URL).FunFact(context.Background(), 80)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestTimeoutIsRetriedUntilExhausted(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestClient(server.URL, server.URL).FunFact(context.Background(), 80)
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *retry.ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", exhausted.Attempts)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}

func TestConnectionRefusedIsRetried(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url, url).ExchangeRate(context.Background())
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *retry.ExhaustedError, got %T: %v", err, err)
	}
}

func TestTransientFailureThenSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte(`{"fact":"Cats sleep for around thirteen to sixteen hours a day."}`))
	}))
	defer server.Close()

	fact, err := newTestClient(server.URL, server.URL).FunFact(context.Background(), 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fact != "Cats sleep for around thirteen to sixteen hours a day." {
		t.Fatalf("unexpected fact %q", fact)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestFunFactTruncatesAndTrims(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"fact":"  A group of cats is called a clowder.  "}`))
	}))
	defer server.Close()

	fact, err := newTestClient(server.URL, server.URL).FunFact(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fact != "A group" {
		t.Fatalf("expected %q, got %q", "A group", fact)
	}
}

func TestFunFactEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"fact":"   "}`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL, server.URL).FunFact(context.Background(), 80); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 80, "hello"},
		{"hello world", 5, "hello"},
		{"héllo wörld", 7, "héllo w"},
		{" padded ", 0, "padded"},
		{"ab   cd", 4, "ab"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestRateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.9}}`))
	}))
	defer server.Close()

	c := NewClient(&http.Client{}, WithFXURL(server.URL), WithRetryPolicy(fastPolicy()), WithRateLimit(0.001))
	if _, err := c.ExchangeRate(context.Background()); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.ExchangeRate(ctx); err == nil {
		t.Fatal("expected rate limiter to block until the context ended")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(nil)
	if c.httpClient == nil {
		t.Fatal("expected default http client")
	}
	if c.fxURL != DefaultFXURL || c.funFactURL != DefaultFunFactURL {
		t.Fatalf("unexpected default urls %q %q", c.fxURL, c.funFactURL)
	}
	if c.policy.MaxAttempts != 3 || c.policy.AttemptTimeout != 5*time.Second {
		t.Fatalf("unexpected default policy %+v", c.policy)
	}
}
