package task

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type queueMetrics struct {
	jobCount    metric.Int64Counter
	jobDuration metric.Float64Histogram
	jobResults  metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metrics     *queueMetrics
)

func ensureMetrics() *queueMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/phrazzld/smartmark/task")

		jobCount, err := meter.Int64Counter(
			"enrichment.job.count",
			metric.WithDescription("Number of enrichment jobs run"),
		)
		if err != nil {
			return
		}
		jobDuration, err := meter.Float64Histogram(
			"enrichment.job.duration",
			metric.WithDescription("Enrichment job duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		jobResults, err := meter.Int64Counter(
			"enrichment.job.results",
			metric.WithDescription("Enrichment outcomes by status"),
		)
		if err != nil {
			return
		}

		metrics = &queueMetrics{jobCount: jobCount, jobDuration: jobDuration, jobResults: jobResults}
	})
	return metrics
}

func recordJob(ctx context.Context, duration time.Duration) {
	m := ensureMetrics()
	if m == nil {
		return
	}
	m.jobCount.Add(ctx, 1)
	m.jobDuration.Record(ctx, float64(duration.Milliseconds()))
}

// recordOutcome counts a settled enrichment by final status and by whether
// the analysis fell back to defaults.
func recordOutcome(ctx context.Context, status string, defaulted bool) {
	m := ensureMetrics()
	if m == nil {
		return
	}
	m.jobResults.Add(ctx, 1, metric.WithAttributes(
		attribute.String("ai.status", status),
		attribute.Bool("ai.defaulted", defaulted),
	))
}
