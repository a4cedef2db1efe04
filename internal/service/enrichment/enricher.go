package enrichment

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	applog "github.com/janisto/lead-intake/internal/platform/logging"
	"github.com/janisto/lead-intake/internal/platform/metrics"
)

const tracerName = "github.com/janisto/lead-intake/internal/service/enrichment"

// Enricher runs both fetches concurrently and never fails; each fetch's
// error is carried in its Outcome.
type Enricher struct {
	svc      Service
	maxChars int
	metrics  *metrics.LeadMetrics
	tracer   trace.Tracer
}

func NewEnricher(svc Service, maxChars int, m *metrics.LeadMetrics) *Enricher {
	if maxChars <= 0 {
		maxChars = DefaultFunFactMaxChars
	}
	return &Enricher{svc: svc, maxChars: maxChars, metrics: m, tracer: otel.Tracer(tracerName)}
}

func (e *Enricher) Enrich(ctx context.Context) Facts {
	var (
		facts Facts
		g     errgroup.Group
	)
	g.Go(func() error {
		facts.FX = fetch(ctx, e, SourceFX, e.svc.ExchangeRate)
		return nil
	})
	g.Go(func() error {
		facts.FunFact = fetch(ctx, e, SourceFunFact, func(ctx context.Context) (string, error) {
			return e.svc.FunFact(ctx, e.maxChars)
		})
		return nil
	})
	_ = g.Wait()
	return facts
}

func fetch[T any](ctx context.Context, e *Enricher, source string, fn func(context.Context) (T, error)) Outcome[T] {
	ctx, span := e.tracer.Start(ctx, "enrichment."+source)
	defer span.End()
	span.SetAttributes(attribute.String("enrichment.source", source))

	v, err := fn(ctx)
	e.metrics.EnrichmentResult(source, err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		applog.LogError(ctx, "enrichment failed", err, zap.String("source", source))
		return Outcome[T]{Err: err}
	}
	return Outcome[T]{Value: v}
}
