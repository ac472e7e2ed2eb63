package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewCollector(t *testing.T) {
	t.Run("creates collector with all instruments", func(t *testing.T) {
		reader := metric.NewManualReader()
		provider := metric.NewMeterProvider(metric.WithReader(reader))
		meter := provider.Meter("test")

		collector, err := NewCollector(meter)

		require.NoError(t, err)
		assert.NotNil(t, collector)
		assert.NotNil(t, collector.requestCount)
		assert.NotNil(t, collector.requestDuration)
		assert.NotNil(t, collector.errorCount)
		assert.NotNil(t, collector.breakerState)
	})

	t.Run("nil meter falls back to noop", func(t *testing.T) {
		collector, err := NewCollector(nil)

		require.NoError(t, err)
		assert.NotNil(t, collector)
	})
}

func TestCollector_RecordRequest(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		err         error
		expectError bool
	}{
		{
			name:        "successful request",
			statusCode:  200,
			err:         nil,
			expectError: false,
		},
		{
			name:        "failed request",
			statusCode:  503,
			err:         errors.New("unexpected status code 503"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := metric.NewManualReader()
			provider := metric.NewMeterProvider(metric.WithReader(reader))
			collector, err := NewCollector(provider.Meter("test"))
			require.NoError(t, err)

			collector.RecordRequest(context.Background(), "HibpClient", "GET", tt.statusCode, 100*time.Millisecond, tt.err)

			var rm metricdata.ResourceMetrics
			require.NoError(t, reader.Collect(context.Background(), &rm))
			require.Len(t, rm.ScopeMetrics, 1)

			names := make(map[string]bool)
			for _, m := range rm.ScopeMetrics[0].Metrics {
				names[m.Name] = true
			}

			assert.True(t, names["hibp.client.requests"])
			assert.True(t, names["hibp.client.duration"])
			assert.Equal(t, tt.expectError, names["hibp.client.errors"])
		})
	}
}

func TestCollector_RecordBreakerState(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	collector, err := NewCollector(provider.Meter("test"))
	require.NoError(t, err)

	collector.RecordBreakerState(context.Background(), "PasswordsClient", "open")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	found := false
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name == "hibp.client.circuit_breaker.state" {
			found = true
			gauge, ok := m.Data.(metricdata.Gauge[int64])
			require.True(t, ok)
			require.Len(t, gauge.DataPoints, 1)
			assert.Equal(t, int64(1), gauge.DataPoints[0].Value)
		}
	}
	assert.True(t, found)
}

func TestBreakerStateToInt(t *testing.T) {
	assert.Equal(t, int64(0), breakerStateToInt("closed"))
	assert.Equal(t, int64(1), breakerStateToInt("open"))
	assert.Equal(t, int64(2), breakerStateToInt("half-open"))
	assert.Equal(t, int64(-1), breakerStateToInt("bogus"))
}
