// Package lease provides cross-process mutual exclusion backed by Redis.
package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by Release when the lock expired or was taken over.
var ErrNotHeld = errors.New("lock not held")

const defaultRetryInterval = 50 * time.Millisecond

// Locker acquires named locks that expire after ttl.
type Locker interface {
	// Acquire blocks until the lock is obtained or ctx is done.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

type Lock interface {
	Release(ctx context.Context) error
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client        redis.UniversalClient
	prefix        string
	retryInterval time.Duration
}

type Option func(*RedisLocker)

// WithPrefix namespaces every key, e.g. "journeys:lock:".
func WithPrefix(prefix string) Option {
	return func(l *RedisLocker) {
		l.prefix = prefix
	}
}

func WithRetryInterval(interval time.Duration) Option {
	return func(l *RedisLocker) {
		l.retryInterval = interval
	}
}

func NewRedisLocker(client redis.UniversalClient, opts ...Option) *RedisLocker {
	locker := &RedisLocker{
		client:        client,
		prefix:        "journeys:lock:",
		retryInterval: defaultRetryInterval,
	}

	for _, opt := range opts {
		opt(locker)
	}

	return locker
}

// NewRedisLockerFromURL connects to url (redis://host:port/db) and checks the connection.
func NewRedisLockerFromURL(ctx context.Context, url string, opts ...Option) (*RedisLocker, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisLocker(client, opts...), nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	token := uuid.New().String()
	fullKey := l.prefix + key

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}

		if ok {
			return &redisLock{client: l.client, key: fullKey, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}

type redisLock struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (l *redisLock) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}

	if deleted == 0 {
		return ErrNotHeld
	}

	return nil
}
