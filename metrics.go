package pichecker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const MeterName = "github.com/maddsua/pichecker"

// Metrics records probe runs. A nil *Metrics records nothing
type Metrics struct {
	runs     metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {

	runs, err := meter.Int64Counter(
		"pichecker.probe.runs",
		metric.WithDescription("Total number of probe runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"pichecker.probe.failures",
		metric.WithDescription("Total number of failed probe runs by failure kind"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"pichecker.probe.duration_ms",
		metric.WithDescription("Probe run duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		runs:     runs,
		failures: failures,
		duration: duration,
	}, nil
}

func (this *Metrics) RecordProbe(ctx context.Context, label string, up bool, failure FailureKind, elapsed time.Duration) {

	if this == nil {
		return
	}

	outcome := "up"
	if !up {
		outcome = "down"
	}

	probeAttr := attribute.String("probe", label)

	this.runs.Add(ctx, 1, metric.WithAttributes(probeAttr, attribute.String("outcome", outcome)))

	if !up {
		this.failures.Add(ctx, 1, metric.WithAttributes(probeAttr, attribute.String("failure", failure.String())))
	}

	this.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), metric.WithAttributes(probeAttr))
}
