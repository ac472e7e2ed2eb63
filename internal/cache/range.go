// Package cache holds an in-process TTL cache for pwned-password range
// responses. Range results are immutable for a given prefix over short
// windows, so caching them keeps repeated k-anonymity lookups off the
// network.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/kelseyhightower/envconfig"
)

const rangeKeyPattern = "hibp:range:%s"

// RangeCache caches parsed range responses (hash suffix to occurrence
// count) keyed by the five character hash prefix.
type RangeCache struct {
	engine      *ristretto.Cache[string, map[string]int64]
	expiredTime time.Duration
}

type Config struct {
	ExpiredTime time.Duration `envconfig:"HIBP_RANGE_CACHE_EXPIRED_TIME" default:"30m"`
	NumCounters int64         `envconfig:"HIBP_RANGE_CACHE_NUM_COUNTERS" default:"100000"`
	MaxCost     int64         `envconfig:"HIBP_RANGE_CACHE_MAX_COST" default:"67108864"` // 64MB
	BufferItems int64         `envconfig:"HIBP_RANGE_CACHE_BUFFER_ITEMS" default:"64"`
}

func NewConfig() Config {
	var cfg Config
	envconfig.MustProcess("", &cfg)

	return cfg
}

func NewRangeCache(cfg Config) (*RangeCache, error) {
	engine, err := ristretto.NewCache(&ristretto.Config[string, map[string]int64]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &RangeCache{
		engine:      engine,
		expiredTime: cfg.ExpiredTime,
	}, nil
}

func (c *RangeCache) Get(prefix string) (map[string]int64, bool) {
	return c.engine.Get(fmt.Sprintf(rangeKeyPattern, prefix))
}

func (c *RangeCache) Set(prefix string, suffixes map[string]int64) {
	c.engine.SetWithTTL(fmt.Sprintf(rangeKeyPattern, prefix), suffixes, int64(len(suffixes)), c.expiredTime)
	// Flush the write buffer so a Get right after a Set observes the value.
	c.engine.Wait()
}

func (c *RangeCache) Close() {
	c.engine.Close()
}
