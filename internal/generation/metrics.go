package generation

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/smartmark/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type completionMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metrics     *completionMetrics
)

func ensureMetrics() *completionMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/phrazzld/smartmark/generation")

		requestCount, err := meter.Int64Counter(
			"ai.request.count",
			metric.WithDescription("Number of AI completion requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.request.duration",
			metric.WithDescription("AI completion request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.request.errors",
			metric.WithDescription("Number of AI completion request errors"),
		)
		if err != nil {
			return
		}

		metrics = &completionMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
		}
	})
	return metrics
}

// RecordCompletion records one provider request. statusCode is omitted when zero.
func RecordCompletion(
	ctx context.Context,
	provider domain.Provider,
	model string,
	statusCode int,
	duration time.Duration,
	err error,
) {
	m := ensureMetrics()
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", string(provider)),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	m.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
