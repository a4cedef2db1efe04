package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	tp, err := Setup(ctx, "  ", "lead-intake", "test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	if otel.GetTracerProvider() != tp {
		t.Fatal("expected provider to be registered globally")
	}

	_, span := otel.Tracer("test").Start(ctx, "op")
	if !span.SpanContext().IsValid() {
		t.Fatal("expected a recording span with a valid context")
	}
	span.End()
}

func TestSetupWithEndpoint(t *testing.T) {
	ctx := context.Background()
	// The gRPC exporter connects lazily, so no collector is needed.
	tp, err := Setup(ctx, "localhost:4317", "lead-intake", "test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	_ = tp.Shutdown(ctx)
}

func TestGRPCTarget(t *testing.T) {
	tests := []struct {
		endpoint string
		target   string
		insecure bool
		wantErr  bool
	}{
		{"localhost:4317", "localhost:4317", true, false},
		{"http://collector:4317/v1/traces", "collector:4317", true, false},
		{"https://collector.example.com:443", "collector.example.com:443", false, false},
		{"http://", "", false, true},
		{"http://[invalid", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			target, insecure, err := grpcTarget(tt.endpoint)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.endpoint)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if target != tt.target || insecure != tt.insecure {
				t.Fatalf("got (%q, %v), want (%q, %v)", target, insecure, tt.target, tt.insecure)
			}
		})
	}
}
