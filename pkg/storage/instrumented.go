package storage

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/hooks/pkg/telemetry"
)

// Instrumented records a Prometheus observation and an OpenTelemetry span
// for every operation on the wrapped medium.
type Instrumented struct {
	inner   Medium
	backend string
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// Instrument wraps m. backend labels the metrics and spans ("memory",
// "pebble", ...). metrics and tracer may be nil; a nil tracer uses the
// global provider.
func Instrument(m Medium, backend string, metrics *telemetry.Metrics, tracer trace.Tracer) *Instrumented {
	return &Instrumented{
		inner:   m,
		backend: backend,
		metrics: metrics,
		tracer:  telemetry.Tracer(tracer),
	}
}

// Unwrap implements Wrapper.
func (i *Instrumented) Unwrap() Medium {
	return i.inner
}

func (i *Instrumented) start(ctx context.Context, op, key string) (context.Context, trace.Span, time.Time) {
	ctx, span := telemetry.StartSpan(ctx, i.tracer, "storage."+op,
		attribute.String("hooks.storage.backend", i.backend),
		attribute.String("hooks.storage.key", key),
	)
	return ctx, span, time.Now()
}

func (i *Instrumented) finish(span trace.Span, op, result string, start time.Time, err error) {
	i.metrics.ObserveStorage(i.backend, op, result, time.Since(start))
	telemetry.EndSpan(span, err)
}

func resultOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Get implements Medium.
func (i *Instrumented) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, span, start := i.start(ctx, "get", key)
	v, ok, err := i.inner.Get(ctx, key)

	result := resultOf(err)
	if err == nil && !ok {
		result = "miss"
	}
	span.SetAttributes(attribute.Bool("hooks.storage.found", ok))
	i.finish(span, "get", result, start, err)
	return v, ok, err
}

// Set implements Medium.
func (i *Instrumented) Set(ctx context.Context, key, value string) error {
	ctx, span, start := i.start(ctx, "set", key)
	err := i.inner.Set(ctx, key, value)
	i.finish(span, "set", resultOf(err), start, err)
	return err
}

// Remove implements Medium.
func (i *Instrumented) Remove(ctx context.Context, key string) error {
	ctx, span, start := i.start(ctx, "remove", key)
	err := i.inner.Remove(ctx, key)
	i.finish(span, "remove", resultOf(err), start, err)
	return err
}

// Keys implements Lister.
func (i *Instrumented) Keys(ctx context.Context) ([]string, error) {
	ctx, span, start := i.start(ctx, "keys", "")
	keys, err := Keys(ctx, i.inner)
	i.finish(span, "keys", resultOf(err), start, err)
	return keys, err
}

// Watch implements Watcher by forwarding to the inner medium.
func (i *Instrumented) Watch(key string, fn func(Event)) func() {
	w, ok := AsWatcher(i.inner)
	if !ok {
		return func() {}
	}
	return w.Watch(key, fn)
}
