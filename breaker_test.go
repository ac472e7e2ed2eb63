package hibp

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxHalfOpenRequests:     5,
		OpenStateTimeout:        60 * time.Second,
		MinRequestsBeforeTrip:   3,
		FailureThresholdPercent: 60,
	}
}

func TestNewBreakerConfig_Defaults(t *testing.T) {
	cfg := NewBreakerConfig()

	assert.NotZero(t, cfg.MaxHalfOpenRequests)
	assert.Greater(t, cfg.OpenStateTimeout, time.Duration(0))
	assert.NotZero(t, cfg.MinRequestsBeforeTrip)
	assert.Greater(t, cfg.FailureThresholdPercent, float64(0))
}

func TestBreakerRegistry_GetOrCreate(t *testing.T) {
	registry := NewBreakerRegistry(testBreakerConfig(), zap.NewNop())

	breach := registry.GetOrCreate(HibpClientName)
	passwords := registry.GetOrCreate(PasswordsClientName)

	assert.NotNil(t, breach)
	assert.NotNil(t, passwords)
	assert.NotSame(t, breach, passwords)

	// Same name always yields the same breaker.
	assert.Same(t, breach, registry.GetOrCreate(HibpClientName))
}

func TestBreakerRegistry_TripsAfterRepeatedFailures(t *testing.T) {
	registry := NewBreakerRegistry(testBreakerConfig(), zap.NewNop())
	breaker := registry.GetOrCreate(HibpClientName)

	failing := func() (*http.Response, error) {
		return nil, errors.New("connection refused")
	}

	for i := 0; i < 3; i++ {
		_, err := breaker.Execute(failing)
		require.Error(t, err)
	}

	assert.Equal(t, gobreaker.StateOpen, breaker.State())

	_, err := breaker.Execute(func() (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK}, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
