package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrUnavailable is returned when the cache cannot be reached. Callers are
// expected to fall back to the authoritative store.
var ErrUnavailable = errors.New("cache unavailable")

// Options configures the Redis connection.
type Options struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxRetries bounds retries of commands that failed on network errors or timeouts.
	MaxRetries int
}

// Client wraps redis.Client and reports connectivity failures as ErrUnavailable.
type Client struct {
	client *redis.Client
	log    zerolog.Logger
}

// New creates a new Redis client. No connection is made until first use.
func New(opts Options, log zerolog.Logger) *Client {
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		// go-redis treats 0 as its default of 3; -1 disables retries.
		maxRetries = -1
	}
	return &Client{
		client: redis.NewClient(&redis.Options{
			Addr:         opts.Addr,
			Password:     opts.Password,
			DB:           opts.DB,
			DialTimeout:  opts.DialTimeout,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			MaxRetries:   maxRetries,
		}),
		log: log.With().Str("component", "cache").Logger(),
	}
}

// Get returns the value, or nil on a miss. Connectivity failures are returned
// wrapped in ErrUnavailable. A nil Client behaves as an always-empty cache.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, c.unavailable(ctx, err)
	}
	return res, nil
}

// Set stores value with TTL.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return c.unavailable(ctx, err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return c.unavailable(ctx, err)
	}
	return nil
}

// Close releases the underlying connections.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// unavailable keeps caller cancellation distinguishable from cache outages.
func (c *Client) unavailable(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (c *Client) logger() *zerolog.Logger {
	if c == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return &c.log
}
