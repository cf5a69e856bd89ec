package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/student-bot/backend/pkg/circuitbreaker"
	"github.com/student-bot/backend/pkg/logger"
	"github.com/student-bot/backend/pkg/retry"
	"github.com/student-bot/backend/pkg/utils"
)

const keyPrefix = "query:"

// Client is a response cache shared between processes. A zero ttl keeps
// entries until they are invalidated.
type Client struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
}

func NewClient(ctx context.Context, host string, port int, password string, db int, ttl time.Duration, policy retry.Policy) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	err := retry.Do(ctx, policy, "redis ping", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", addr))

	return NewQueryCache(rdb, ttl), nil
}

// NewQueryCache wraps an existing go-redis client.
func NewQueryCache(rdb *redis.Client, ttl time.Duration) *Client {
	return &Client{
		client: rdb,
		ttl:    ttl,
		breaker: circuitbreaker.New("redis-cache", circuitbreaker.Config{
			FailureThreshold: 3,
			OpenTimeout:      30 * time.Second,
			Logger:           logger.GetLogger(),
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func key(query string) string {
	return keyPrefix + utils.HashString(query)
}

// Get treats any Redis failure as a miss.
func (c *Client) Get(ctx context.Context, query string) (string, bool) {
	var value string
	var found bool

	err := c.breaker.Execute(func() error {
		v, err := c.client.Get(ctx, key(query)).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		value, found = v, true
		return nil
	})
	if err != nil {
		logger.Warn("Redis cache read failed", zap.Error(err))
		return "", false
	}

	if found {
		logger.Debug("Query cache hit", zap.String("query", query))
	}
	return value, found
}

func (c *Client) Set(ctx context.Context, query, response string) {
	err := c.breaker.Execute(func() error {
		return c.client.Set(ctx, key(query), response, c.ttl).Err()
	})
	if err != nil {
		logger.Warn("Redis cache write failed", zap.Error(err))
		return
	}
	logger.Debug("Query cached", zap.String("query", query), zap.Duration("ttl", c.ttl))
}

func (c *Client) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Query cache invalidated")
	return nil
}

func (c *Client) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n := 0
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n
}

func (c *Client) Kind() string {
	return "redis"
}
