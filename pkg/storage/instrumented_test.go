package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/hooks/pkg/telemetry"
)

func TestInstrumented(t *testing.T) {
	testMedium(t, Instrument(NewMemory(), "memory", nil, nil))
}

func TestInstrumented_Observes(t *testing.T) {
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg))

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	m := Instrument(NewMemory(), "memory", metrics, tp.Tracer("test"))
	_, _, _ = m.Get(ctx, "k")
	_ = m.Set(ctx, "k", "v")
	_, _, _ = m.Get(ctx, "k")
	_ = m.Remove(ctx, "k")

	expected := `
# HELP hooks_storage_operations_total Total number of storage medium operations
# TYPE hooks_storage_operations_total counter
hooks_storage_operations_total{backend="memory",op="get",result="miss"} 1
hooks_storage_operations_total{backend="memory",op="get",result="ok"} 1
hooks_storage_operations_total{backend="memory",op="remove",result="ok"} 1
hooks_storage_operations_total{backend="memory",op="set",result="ok"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "hooks_storage_operations_total"); err != nil {
		t.Error(err)
	}

	spans := rec.Ended()
	if len(spans) != 4 {
		t.Fatalf("spans = %d, want 4", len(spans))
	}
	names := []string{"storage.get", "storage.set", "storage.get", "storage.remove"}
	for i, s := range spans {
		if s.Name() != names[i] {
			t.Errorf("span %d = %q, want %q", i, s.Name(), names[i])
		}
	}
}

func TestInstrumented_ClosedMediumErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg))

	mem := NewMemory()
	_ = mem.Close()
	m := Instrument(mem, "memory", metrics, nil)

	if err := m.Set(context.Background(), "k", "v"); err == nil {
		t.Fatal("expected error")
	}

	expected := `
# HELP hooks_storage_operations_total Total number of storage medium operations
# TYPE hooks_storage_operations_total counter
hooks_storage_operations_total{backend="memory",op="set",result="error"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "hooks_storage_operations_total"); err != nil {
		t.Error(err)
	}
}
