package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"photoshare/internal/metrics"
)

// Entry describes one cache-aside lookup.
type Entry[T any] struct {
	// Kind labels metrics and logs.
	Kind string
	Key  string
	TTL  time.Duration
	// CacheAbsent stores a "not found" result (JSON null) as well.
	CacheAbsent bool
	// Accept, when set, rejects a cached value that does not belong to the
	// requested record. Rejected hits are served from the store and the
	// entry is left untouched.
	Accept func(*T) bool
}

// Loader reads the authoritative value. A nil value with a nil error means
// "not found".
type Loader[T any] func(ctx context.Context) (*T, error)

// GetOrLoad returns the cached value for e.Key, or loads it, stores it for
// e.TTL and returns it. Every miss performs exactly one load and at most one
// write. When the cache is unavailable the loader result is returned directly.
func GetOrLoad[T any](ctx context.Context, c *Client, e Entry[T], load Loader[T]) (*T, error) {
	data, err := c.Get(ctx, e.Key)
	switch {
	case errors.Is(err, ErrUnavailable):
		metrics.CacheRequestsTotal.WithLabelValues(e.Kind, "fallback").Inc()
		c.logger().Warn().Err(err).Str("key", e.Key).Msg("cache unavailable, reading store")
		return loadFrom(ctx, e.Kind, load)
	case err != nil:
		return nil, err
	}

	if data != nil {
		var cached *T
		if err := json.Unmarshal(data, &cached); err != nil {
			c.logger().Warn().Err(err).Str("key", e.Key).Msg("undecodable cache entry, reloading")
		} else if cached != nil && e.Accept != nil && !e.Accept(cached) {
			metrics.CacheRequestsTotal.WithLabelValues(e.Kind, "foreign").Inc()
			return loadFrom(ctx, e.Kind, load)
		} else {
			metrics.CacheRequestsTotal.WithLabelValues(e.Kind, "hit").Inc()
			return cached, nil
		}
	}

	metrics.CacheRequestsTotal.WithLabelValues(e.Kind, "miss").Inc()
	value, err := loadFrom(ctx, e.Kind, load)
	if err != nil {
		return nil, err
	}
	if value == nil && !e.CacheAbsent {
		return nil, nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger().Error().Err(err).Str("key", e.Key).Msg("encode cache entry")
		return value, nil
	}
	if err := c.Set(ctx, e.Key, payload, e.TTL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger().Warn().Err(err).Str("key", e.Key).Msg("cache write failed")
	}
	return value, nil
}

func loadFrom[T any](ctx context.Context, kind string, load Loader[T]) (*T, error) {
	metrics.StoreLoadsTotal.WithLabelValues(kind).Inc()
	return load(ctx)
}
