package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const loginFailurePrefix = "login:failures:"

// LoginThrottle counts failed logins in Redis with a fixed expiry window.
type LoginThrottle struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	limit   int
	window  time.Duration
}

func NewLoginThrottle(client *redis.Client, breaker *gobreaker.CircuitBreaker, limit int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, breaker: breaker, limit: limit, window: window}
}

func (t *LoginThrottle) Allow(ctx context.Context, key string) (bool, error) {
	if t.limit <= 0 {
		return true, nil
	}
	res, err := t.breaker.Execute(func() (interface{}, error) {
		count, err := t.client.Get(ctx, loginFailurePrefix+key).Int()
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return count, err
	})
	if err != nil {
		return true, fmt.Errorf("read login failures: %w", err)
	}
	return res.(int) < t.limit, nil
}

// RecordFailure increments the counter and arms its expiry in one MULTI, so
// a counter can never outlive its window. NX keeps the first failure's
// deadline.
func (t *LoginThrottle) RecordFailure(ctx context.Context, key string) error {
	_, err := t.breaker.Execute(func() (interface{}, error) {
		return t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, loginFailurePrefix+key)
			pipe.ExpireNX(ctx, loginFailurePrefix+key, t.window)
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	return nil
}

func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	_, err := t.breaker.Execute(func() (interface{}, error) {
		return nil, t.client.Del(ctx, loginFailurePrefix+key).Err()
	})
	if err != nil {
		return fmt.Errorf("reset login failures: %w", err)
	}
	return nil
}
