// Package ratelimit counts attempts per key in fixed windows, in Redis when
// configured and in memory otherwise.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/studyplanner/core"
)

const keyPrefix = "studyplanner:ratelimit:"

type Limiter interface {
	// Allow counts one attempt for key. When the limit is exceeded it returns
	// false and how long until the window resets.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// New returns a Redis limiter when conf.RedisURL is set, an in-memory one otherwise.
func New(conf *core.Config) (Limiter, error) {
	limit, window := conf.LoginRateLimit, conf.LoginRateWindow
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if conf.RedisURL == "" {
		return NewMemoryLimiter(limit, window), nil
	}
	opts, err := redis.ParseURL(conf.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	return NewRedisLimiter(redis.NewClient(opts), limit, window), nil
}

type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	key = keyPrefix + key
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, errors.Wrap(err, "counting attempt")
	}
	if count == 1 {
		if err := l.client.PExpire(ctx, key, l.window).Err(); err != nil {
			return false, 0, errors.Wrap(err, "setting window")
		}
	}
	if count <= int64(l.limit) {
		return true, 0, nil
	}
	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, errors.Wrap(err, "reading window")
	}
	if ttl < 0 { // lost its expiry
		_ = l.client.PExpire(ctx, key, l.window).Err()
		ttl = l.window
	}
	return false, ttl, nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

type window struct {
	count   int
	resetAt time.Time
}

type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*window
	now     func() time.Time // mockable
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(limit int, win time.Duration) *MemoryLimiter {
	return &MemoryLimiter{limit: limit, window: win, windows: make(map[string]*window), now: time.Now}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		l.sweep(now)
		w = &window{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}
	w.count++
	if w.count <= l.limit {
		return true, 0, nil
	}
	return false, w.resetAt.Sub(now), nil
}

// sweep drops expired windows. mu must be held.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}
