package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/janisto/lead-intake/internal/config"
	"github.com/janisto/lead-intake/internal/http/v1/routes"
	"github.com/janisto/lead-intake/internal/platform/auth"
	appfirebase "github.com/janisto/lead-intake/internal/platform/firebase"
	applog "github.com/janisto/lead-intake/internal/platform/logging"
	"github.com/janisto/lead-intake/internal/platform/metrics"
	"github.com/janisto/lead-intake/internal/platform/retry"
	"github.com/janisto/lead-intake/internal/platform/tracing"
	"github.com/janisto/lead-intake/internal/service/enrichment"
	"github.com/janisto/lead-intake/internal/service/lead"
	"github.com/janisto/lead-intake/internal/service/phone"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const serviceName = "lead-intake"

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	if err := run(); err != nil {
		applog.LogError(context.Background(), "server failed", err)
		_ = applog.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	if err := applog.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	applog.SetProjectID(cfg.Firebase.ProjectID)

	ctx := context.Background()

	tp, err := tracing.Setup(ctx, cfg.OTLPEndpoint, serviceName, Version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			applog.LogError(shutdownCtx, "tracer shutdown error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewLeadMetrics(reg)

	store, err := lead.OpenStore(ctx, cfg.DatabaseURL, lead.StoreOptions{
		CredentialsFile: cfg.Firebase.CredentialsFile,
	})
	if err != nil {
		return fmt.Errorf("opening lead store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			applog.LogError(context.Background(), "lead store close error", err)
		}
	}()

	svc, closeSvc, err := newEnrichmentService(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer closeSvc()

	pipeline := lead.NewPipeline(
		enrichment.NewEnricher(svc, cfg.Enrichment.FunFactMaxChars, m),
		lead.WithMetrics(m),
		lead.WithNormalizer(phone.NewNormalizer(cfg.Phone.DefaultRegion)),
	)

	deps := routes.Deps{Store: store, Submitter: pipeline, ListAuth: cfg.ListAuth}
	if cfg.ListAuth {
		clients, err := appfirebase.InitializeClients(ctx, appfirebase.Config{
			ProjectID:       cfg.Firebase.ProjectID,
			CredentialsFile: cfg.Firebase.CredentialsFile,
		}, appfirebase.Auth)
		if err != nil {
			return err
		}
		defer func() { _ = clients.Close() }()
		deps.Verifier = auth.NewFirebaseVerifier(clients.Auth)
	}

	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		gatherer = reg
	}
	router := newRouter(routerConfig{
		Version:     Version,
		CORSOrigins: cfg.CORSOrigins,
		Gatherer:    gatherer,
		Routes:      deps,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      30 * time.Second, // enrichment retries run inside the request
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}
	return serve(srv)
}

// newEnrichmentService builds the HTTP enrichment client, wrapped in a Redis
// cache when a Redis URL is configured. The returned func releases the cache
// connection.
func newEnrichmentService(ctx context.Context, cfg *config.Config, m *metrics.LeadMetrics) (enrichment.Service, func(), error) {
	ec := cfg.Enrichment
	client := enrichment.NewClient(nil,
		enrichment.WithFXURL(ec.FXURL),
		enrichment.WithFunFactURL(ec.FunFactURL),
		enrichment.WithRetryPolicy(retry.Policy{
			MaxAttempts:    ec.MaxAttempts,
			BaseDelay:      ec.BaseDelay,
			Multiplier:     2,
			MaxDelay:       ec.MaxDelay,
			AttemptTimeout: ec.Timeout,
		}),
		enrichment.WithRateLimit(ec.RateLimit),
		enrichment.WithMetrics(m),
	)
	if cfg.Cache.RedisURL == "" {
		return client, func() {}, nil
	}

	rdb, err := enrichment.OpenRedis(ctx, cfg.Cache.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	applog.LogInfo(ctx, "exchange rate cache enabled", zap.Duration("ttl", cfg.Cache.FXTTL))
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			applog.LogError(context.Background(), "redis close error", err)
		}
	}
	return enrichment.NewCachingService(client, rdb, cfg.Cache.FXTTL), closeFn, nil
}

// serve runs srv until it fails or SIGINT/SIGTERM arrives, then drains it.
func serve(srv *http.Server) error {
	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(context.Background(), "server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)
	select {
	case err := <-listenErr:
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	case <-stop:
		applog.LogInfo(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		applog.LogError(ctx, "server shutdown error", err)
	}
	applog.LogInfo(context.Background(), "server exited")
	return nil
}
