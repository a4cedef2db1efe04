package lead

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	applog "github.com/janisto/lead-intake/internal/platform/logging"
	"github.com/janisto/lead-intake/internal/platform/metrics"
	"github.com/janisto/lead-intake/internal/service/enrichment"
	"github.com/janisto/lead-intake/internal/service/phone"
)

const tracerName = "github.com/janisto/lead-intake/internal/service/lead"

// Submission results, used as metric labels.
const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
	resultError    = "error"
)

// Enricher produces best-effort facts for a new lead.
type Enricher interface {
	Enrich(ctx context.Context) enrichment.Facts
}

// Normalizer converts a raw phone to E.164, or nil.
type Normalizer interface {
	Normalize(ctx context.Context, raw string) *string
}

// Pipeline takes a submission from receipt to a persisted, enriched lead.
type Pipeline struct {
	validator  Validator
	normalizer Normalizer
	enricher   Enricher
	metrics    *metrics.LeadMetrics
	now        func() time.Time
	tracer     trace.Tracer
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithClock sets the clock used for validation and created_at.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

func WithMetrics(m *metrics.LeadMetrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithNormalizer replaces the default US phone normalizer.
func WithNormalizer(n Normalizer) PipelineOption {
	return func(p *Pipeline) { p.normalizer = n }
}

// NewPipeline builds a pipeline. A nil enricher skips enrichment and the
// final update.
func NewPipeline(enricher Enricher, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		normalizer: phone.NewNormalizer(phone.DefaultRegion),
		enricher:   enricher,
		now:        time.Now,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.validator = Validator{Now: p.now}
	return p
}

// Submit validates s, stores it through sess, enriches it and stores it
// again. Only a *ValidationError or an insert failure is returned; once the
// lead has an id every later failure is logged and absorbed.
func (p *Pipeline) Submit(ctx context.Context, sess Session, s Submission) (*Lead, error) {
	began := time.Now()
	ctx, span := p.tracer.Start(ctx, "lead.submit")
	defer span.End()

	stage := func(st Stage) {
		applog.LogDebug(ctx, "lead pipeline stage", zap.String("stage", string(st)))
	}
	stage(StageReceived)

	v, err := p.validator.Validate(s)
	if err != nil {
		stage(StageRejected)
		var verr *ValidationError
		if errors.As(err, &verr) {
			for _, code := range verr.Codes() {
				p.metrics.LeadRejected(code)
			}
			applog.LogInfo(ctx, "lead rejected", zap.Strings("codes", verr.Codes()))
		}
		span.SetStatus(codes.Error, "validation failed")
		p.metrics.ObserveSubmit(resultRejected, time.Since(began))
		return nil, err
	}
	stage(StageValidated)

	l := &Lead{
		Name:            v.Name,
		Phone:           v.Phone,
		NormalizedPhone: p.normalizer.Normalize(ctx, v.Phone),
		PreferredStart:  v.PreferredStart,
		PreferredEnd:    v.PreferredEnd,
		Reason:          v.Reason,
		UTCOffset:       v.UTCOffset,
		CallID:          v.CallID,
		CreatedAt:       p.now().UTC(),
	}

	id, err := sess.Insert(ctx, l)
	if err != nil {
		p.metrics.StoreError("insert")
		p.metrics.ObserveSubmit(resultError, time.Since(began))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		applog.LogError(ctx, "lead insert failed", err)
		applog.LogAuditEvent(ctx, applog.AuditEvent{
			Action:       "create",
			ResourceType: "lead",
			Result:       applog.AuditFailure,
			Details:      map[string]any{"reason": "insert_failed"},
		})
		return nil, fmt.Errorf("inserting lead: %w", err)
	}
	l.ID = id
	span.SetAttributes(attribute.Int64("lead.id", id))
	stage(StagePersistedBare)

	if p.enricher != nil {
		stage(StageEnriching)
		applyFacts(l, p.enricher.Enrich(ctx))

		if err := sess.Update(ctx, l); err != nil {
			p.metrics.StoreError("update")
			applog.LogError(ctx, "lead update failed", err, zap.Int64("id", l.ID))
		} else {
			stage(StagePersistedFinal)
		}
	}

	p.metrics.LeadCreated()
	p.metrics.ObserveSubmit(resultAccepted, time.Since(began))
	applog.LogInfo(ctx, "lead_created",
		zap.Int64("id", l.ID),
		zap.String("name", l.Name),
		zap.Stringp("call_id", l.CallID),
	)
	applog.LogAuditEvent(ctx, applog.AuditEvent{
		Action:       "create",
		ResourceType: "lead",
		ResourceID:   strconv.FormatInt(l.ID, 10),
		Result:       applog.AuditSuccess,
		Details: map[string]any{
			"fx_enriched":       l.FXUSDEUR != nil,
			"fun_fact_enriched": l.FunFactShort != nil,
		},
	})
	stage(StageResponded)
	return l, nil
}

// applyFacts copies successful outcomes onto l; failed ones leave the
// field nil.
func applyFacts(l *Lead, f enrichment.Facts) {
	if f.FX.OK() {
		l.FXUSDEUR = ptr(f.FX.Value)
	}
	if f.FunFact.OK() {
		l.FunFactShort = ptr(f.FunFact.Value)
	}
}
