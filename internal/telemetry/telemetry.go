// Package telemetry provides tracer access for span instrumentation.
// It reads the global OpenTelemetry provider, so spans are no-ops
// unless the embedding process installs an SDK.
package telemetry

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Balogunolalere/Thoughbot"

var debugEnabled atomic.Bool

// SetDebug enables recording of payload attributes on spans,
// process-wide.
func SetDebug(debug bool) {
	debugEnabled.Store(debug)
}

// Tracer wraps an OTel tracer with a fixed instrumentation name.
type Tracer struct {
	tracer trace.Tracer
}

// GetTracer returns the process tracer.
func GetTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(tracerName)}
}

// Debug reports whether payload attributes should be recorded.
func (t *Tracer) Debug() bool {
	return debugEnabled.Load()
}

// StartSpan starts a span under the current context.
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name)
}
