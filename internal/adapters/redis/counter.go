package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultCounterPrefix = "webshell:counter:"

// Counter is a set of named monotonically increasing counters.
type Counter struct {
	client redis.UniversalClient
	prefix string
}

// NewCounter creates a Counter using the default key prefix.
func NewCounter(client redis.UniversalClient) *Counter {
	return &Counter{client: client, prefix: defaultCounterPrefix}
}

// Incr increments name and returns the new value.
func (c *Counter) Incr(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, errors.New("counter name is required")
	}
	n, err := c.client.Incr(ctx, c.prefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", name, err)
	}
	return n, nil
}

// Get returns the current value of name; unknown counters read as zero.
func (c *Counter) Get(ctx context.Context, name string) (int64, error) {
	n, err := c.client.Get(ctx, c.prefix+name).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", name, err)
	}
	return n, nil
}
