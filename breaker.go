package hibp

import (
	"net/http"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerRegistry holds one circuit breaker per named client. Both named
// clients registered by Register share a single registry so breaker
// state survives re-registration of the service bindings.
type BreakerRegistry struct {
	breakers *sync.Map
	settings gobreaker.Settings
	logger   *zap.Logger
}

type BreakerConfig struct {
	MaxHalfOpenRequests     uint32        `envconfig:"HIBP_BREAKER_MAX_HALF_OPEN_REQUESTS" default:"5"`
	OpenStateTimeout        time.Duration `envconfig:"HIBP_BREAKER_OPEN_STATE_TIMEOUT" default:"60s"`
	MinRequestsBeforeTrip   uint32        `envconfig:"HIBP_BREAKER_MIN_REQUESTS_BEFORE_TRIP" default:"3"`
	FailureThresholdPercent float64       `envconfig:"HIBP_BREAKER_FAILURE_THRESHOLD_PERCENT" default:"60"`
}

func NewBreakerConfig() BreakerConfig {
	var cfg BreakerConfig
	envconfig.MustProcess("", &cfg)

	return cfg
}

func NewBreakerRegistry(cfg BreakerConfig, logger *zap.Logger) *BreakerRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &BreakerRegistry{
		breakers: &sync.Map{},
		logger:   logger,
	}
	r.settings = gobreaker.Settings{
		MaxRequests: cfg.MaxHalfOpenRequests,
		Timeout:     cfg.OpenStateTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= cfg.MinRequestsBeforeTrip &&
				failureRatio >= (cfg.FailureThresholdPercent/100)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return r
}

// GetOrCreate returns the breaker for a named client, creating it on
// first use.
func (r *BreakerRegistry) GetOrCreate(client string) *gobreaker.CircuitBreaker[*http.Response] {
	if cb, ok := r.breakers.Load(client); ok {
		return cb.(*gobreaker.CircuitBreaker[*http.Response])
	}

	settings := r.settings
	settings.Name = client

	cb := gobreaker.NewCircuitBreaker[*http.Response](settings)

	actual, _ := r.breakers.LoadOrStore(client, cb)
	return actual.(*gobreaker.CircuitBreaker[*http.Response])
}
