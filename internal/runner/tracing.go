// Tracing instrumentation for reasoning runs.
package runner

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Balogunolalere/Thoughbot/internal/telemetry"
)

// startRunSpan starts a span covering one reasoning run.
func startRunSpan(ctx context.Context, runID, problem string) (context.Context, trace.Span) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "reason.run")
	span.SetAttributes(
		attribute.String("run.id", runID),
	)
	if tracer.Debug() {
		span.SetAttributes(attribute.String("run.problem", truncateAttr(problem, 2000)))
	}
	return ctx, span
}

// endRunSpan ends the run span with its outcome.
func endRunSpan(span trace.Span, status string, err error) {
	span.SetAttributes(attribute.String("run.status", status))
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// startSubProblemSpan starts a span for one exploration sub-problem.
func startSubProblemSpan(ctx context.Context, problem string) (context.Context, trace.Span) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "reason.subproblem")
	if tracer.Debug() {
		span.SetAttributes(attribute.String("subproblem.text", truncateAttr(problem, 2000)))
	}
	return ctx, span
}

// endSubProblemSpan ends the sub-problem span.
func endSubProblemSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

func truncateAttr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
