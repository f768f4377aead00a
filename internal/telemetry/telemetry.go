// Package telemetry records refinement and reconstruction spans and metrics
// through the global OpenTelemetry providers.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/bnema/refine-cli"

const (
	MetricIterations        = "rfn.iterations"
	MetricFallbacks         = "rfn.evaluation.fallbacks"
	MetricJobsTerminal      = "rfn.jobs.terminal"
	MetricIterationDuration = "rfn.iteration.duration"
)

// Recorder is safe to use as a nil pointer; every method is then a no-op.
type Recorder struct {
	tracer trace.Tracer
	meter  metric.Meter
}

// New uses the global providers. Configure them with otel.SetTracerProvider and
// otel.SetMeterProvider before starting sessions.
func New() *Recorder {
	return &Recorder{
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
}

func (r *Recorder) StartIteration(ctx context.Context, sessionID string, iteration int) (context.Context, trace.Span) {
	if r == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return r.tracer.Start(ctx, "refine.iteration", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("iteration", iteration),
	))
}

func (r *Recorder) StartJob(ctx context.Context, jobID string) (context.Context, trace.Span) {
	if r == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return r.tracer.Start(ctx, "reconstruction.track", trace.WithAttributes(
		attribute.String("job.id", jobID),
	))
}

func (r *Recorder) IterationDone(ctx context.Context, mode string, elapsed time.Duration, converged bool) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("converged", converged),
	)
	if counter, err := r.meter.Int64Counter(MetricIterations); err == nil {
		counter.Add(ctx, 1, attrs)
	}
	if histogram, err := r.meter.Float64Histogram(MetricIterationDuration, metric.WithUnit("s")); err == nil {
		histogram.Record(ctx, elapsed.Seconds(), attrs)
	}
}

func (r *Recorder) EvaluationFallback(ctx context.Context) {
	if r == nil {
		return
	}
	if counter, err := r.meter.Int64Counter(MetricFallbacks); err == nil {
		counter.Add(ctx, 1)
	}
}

func (r *Recorder) JobTerminal(ctx context.Context, status string) {
	if r == nil {
		return
	}
	if counter, err := r.meter.Int64Counter(MetricJobsTerminal); err == nil {
		counter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

// EndSpan marks the span failed when err is non-nil and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
