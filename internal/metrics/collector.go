package metrics

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Collector records request metrics for the named HIBP clients.
type Collector struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	errorCount      metric.Int64Counter
	breakerState    metric.Int64Gauge
}

// NewCollector builds a Collector on the given meter. A nil meter falls
// back to the OpenTelemetry noop meter, which never returns errors.
func NewCollector(meter metric.Meter) (*Collector, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}

	requestCount, err := meter.Int64Counter(
		"hibp.client.requests",
		metric.WithDescription("Total HIBP API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"hibp.client.duration",
		metric.WithDescription("HIBP API request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"hibp.client.errors",
		metric.WithDescription("Total HIBP API request errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	breakerState, err := meter.Int64Gauge(
		"hibp.client.circuit_breaker.state",
		metric.WithDescription("Circuit breaker state (0=Closed, 1=Open, 2=HalfOpen)"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return nil, err
	}

	return &Collector{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		errorCount:      errorCount,
		breakerState:    breakerState,
	}, nil
}

// RecordRequest records one request through a named client.
func (c *Collector) RecordRequest(
	ctx context.Context,
	client string,
	method string,
	statusCode int,
	duration time.Duration,
	err error,
) {
	attrs := []attribute.KeyValue{
		attribute.String("hibp.client", client),
		attribute.String("http.method", method),
		attribute.Int("http.status_code", statusCode),
	}

	c.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	c.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if err != nil {
		errorAttrs := []attribute.KeyValue{
			attribute.String("hibp.client", client),
			attribute.String("error.type", errorType(err)),
		}
		c.errorCount.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
	}
}

// RecordBreakerState records the current circuit breaker state for a
// named client.
func (c *Collector) RecordBreakerState(ctx context.Context, client string, state string) {
	attrs := []attribute.KeyValue{
		attribute.String("hibp.client", client),
		attribute.String("circuit_breaker.state", state),
	}

	c.breakerState.Record(ctx, breakerStateToInt(state), metric.WithAttributes(attrs...))
}

func breakerStateToInt(state string) int64 {
	switch state {
	case "closed":
		return 0
	case "open":
		return 1
	case "half-open":
		return 2
	default:
		return -1
	}
}

func errorType(err error) string {
	if err == nil {
		return "none"
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "request_failure"
	}
}
