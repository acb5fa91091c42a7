package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/pkg/retry"
)

// DefaultPrefix namespaces every key written by this service.
const DefaultPrefix = "rollupsx:"

// Opts configures a Client.
type Opts struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// Retry controls the start-up connection attempts.
	Retry retry.Config
}

// Client is a small key/value cache over Redis. It satisfies tvl.PayloadCache.
type Client struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewClient connects to Redis, retrying the initial ping with backoff.
func NewClient(ctx context.Context, o Opts, logger *zap.Logger) (*Client, error) {
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Retry.MaxRetries <= 0 {
		o.Retry = retry.DefaultConfig()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,

		// Connection pool
		PoolSize:     10,
		MinIdleConns: 2,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	err := retry.WithBackoff(ctx, o.Retry, logger, "redis connect", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", o.Addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", o.Addr), zap.Int("db", o.DB))

	return &Client{client: rdb, prefix: o.Prefix, logger: logger}, nil
}

func (c *Client) key(k string) string { return c.prefix + k }

// Get returns the cached bytes for key, or false on a miss.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores value under key for ttl. A zero ttl never expires.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// Health checks if Redis is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
