// Package lock serializes batch writers across processes with a Redis lock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrNotObtained = errors.New("lock not obtained")

// Locker hands out exclusive locks by key.
type Locker interface {
	Obtain(ctx context.Context, key string) (Lock, error)
}

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}

type RedisLocker struct {
	rdb    *redis.Client
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker connects to the Redis server at url (redis://host:port/db).
// Obtain keeps retrying for up to wait before giving up.
func NewRedisLocker(url string, ttl, wait time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	return &RedisLocker{
		rdb:    rdb,
		client: redislock.New(rdb),
		ttl:    ttl,
		wait:   wait,
	}, nil
}

func (l *RedisLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	strategy := redislock.NoRetry()
	if l.wait > 0 {
		strategy = redislock.LimitRetry(redislock.LinearBackoff(250*time.Millisecond), int(l.wait/(250*time.Millisecond)))
	}

	lk, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: strategy})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return lk, nil
}

func (l *RedisLocker) Close() error {
	return l.rdb.Close()
}

// Nop never blocks. Used when no Redis is configured.
type Nop struct{}

var _ Locker = Nop{}

func (Nop) Obtain(context.Context, string) (Lock, error) {
	return nopLock{}, nil
}

type nopLock struct{}

func (nopLock) Release(context.Context) error { return nil }
