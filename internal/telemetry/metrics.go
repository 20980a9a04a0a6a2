package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SchedulerMetricsMeterName is the name used for the scheduler metrics meter
	SchedulerMetricsMeterName = "github.com/attendly/enrollment-server/scheduler"
)

// SchedulerMetrics holds the OpenTelemetry instruments for reconciliation metrics
type SchedulerMetrics struct {
	passDuration metric.Float64Histogram
	enrollments  metric.Int64Counter
}

// NewSchedulerMetrics creates a new SchedulerMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSchedulerMetrics(provider metric.MeterProvider) (*SchedulerMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SchedulerMetricsMeterName)

	passDuration, err := meter.Float64Histogram(
		"enrollment_pass_duration_seconds",
		metric.WithDescription("Duration of reconciliation passes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	enrollments, err := meter.Int64Counter(
		"enrollment_submissions_total",
		metric.WithDescription("Number of enrollment submissions by outcome"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerMetrics{
		passDuration: passDuration,
		enrollments:  enrollments,
	}, nil
}

// RecordPassDuration records the duration of one reconciliation pass
func (m *SchedulerMetrics) RecordPassDuration(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.passDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}

	m.passDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordEnrollment counts one enrollment submission by its outcome
func (m *SchedulerMetrics) RecordEnrollment(ctx context.Context, outcome string) {
	if m == nil || m.enrollments == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("outcome", outcome),
	}

	m.enrollments.Add(ctx, 1, metric.WithAttributes(attrs...))
}
