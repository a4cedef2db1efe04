package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/janisto/lead-intake/internal/platform/metrics"
)

func TestEnricherBothSucceed(t *testing.T) {
	e := NewEnricher(&Mock{Rate: 0.03, Fact: "Cats can rotate their ears 180 degrees."}, 0, nil)
	facts := e.Enrich(context.Background())

	if !facts.FX.OK() || facts.FX.Value != 0.03 {
		t.Fatalf("unexpected fx outcome %+v", facts.FX)
	}
	if !facts.FunFact.OK() || facts.FunFact.Value != "Cats can rotate their ears 180 degrees." {
		t.Fatalf("unexpected fun fact outcome %+v", facts.FunFact)
	}
}

func TestEnricherIsolatesFailures(t *testing.T) {
	down := errors.New("unreachable")
	tests := []struct {
		name  string
		mock  *Mock
		fxOK  bool
		funOK bool
	}{
		{"fun fact down", &Mock{Rate: 0.5, FactErr: down}, true, false},
		{"fx down", &Mock{RateErr: down, Fact: "fact"}, false, true},
		{"both down", &Mock{RateErr: down, FactErr: down}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			m := metrics.NewLeadMetrics(reg)
			facts := NewEnricher(tt.mock, 80, m).Enrich(context.Background())

			if facts.FX.OK() != tt.fxOK {
				t.Fatalf("fx ok = %v, want %v", facts.FX.OK(), tt.fxOK)
			}
			if facts.FunFact.OK() != tt.funOK {
				t.Fatalf("fun fact ok = %v, want %v", facts.FunFact.OK(), tt.funOK)
			}
			if !facts.FX.OK() && !errors.Is(facts.FX.Err, down) {
				t.Fatalf("unexpected fx error %v", facts.FX.Err)
			}
			rate, fact := tt.mock.Calls()
			if rate != 1 || fact != 1 {
				t.Fatalf("both fetches must run once, got %d and %d", rate, fact)
			}

			count, err := testutil.GatherAndCount(reg, "lead_intake_enrichment_fetch_total")
			if err != nil {
				t.Fatalf("gather: %v", err)
			}
			if count != 2 {
				t.Fatalf("expected one outcome series per source, got %d", count)
			}
		})
	}
}

func TestEnricherRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	NewEnricher(&Mock{Rate: 1, FactErr: errors.New("down")}, 80, nil).Enrich(context.Background())

	names := map[string]bool{}
	for _, s := range recorder.Ended() {
		names[s.Name()] = true
	}
	if !names["enrichment.fx"] || !names["enrichment.fun_fact"] {
		t.Fatalf("expected spans for both sources, got %v", names)
	}
}
