package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studyplanner/core"
)

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	l := NewRedisLimiter(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 2, time.Minute)
	defer l.Close()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "login:ada")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, retryAfter, err := l.Allow(ctx, "login:ada")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, retryAfter > 0 && retryAfter <= time.Minute, retryAfter)

	// other keys are counted apart
	ok, _, err = l.Allow(ctx, "login:grace")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(time.Minute)
	ok, _, err = l.Allow(ctx, "login:ada")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	l := NewRedisLimiter(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 2, time.Minute)
	mr.Close()

	_, _, err = l.Allow(context.Background(), "login:ada")
	assert.Error(t, err)
}

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(3, 10*time.Minute)
	l.now = func() time.Time { return now }

	tests := []struct {
		name           string
		advance        time.Duration
		wantAllowed    bool
		wantRetryAfter time.Duration
	}{
		{name: "1st", wantAllowed: true},
		{name: "2nd", advance: time.Minute, wantAllowed: true},
		{name: "3rd", advance: time.Minute, wantAllowed: true},
		{name: "4th is blocked", advance: time.Minute, wantRetryAfter: 7 * time.Minute},
		{name: "new window", advance: 7 * time.Minute, wantAllowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = now.Add(tt.advance)
			ok, retryAfter, err := l.Allow(context.Background(), "reset:ada@example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, ok)
			assert.Equal(t, tt.wantRetryAfter, retryAfter)
		})
	}
}

func TestNew(t *testing.T) {
	l, err := New(&core.Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryLimiter{}, l)

	mr := miniredis.RunT(t)
	l, err = New(&core.Config{RedisURL: "redis://" + mr.Addr() + "/0", LoginRateLimit: 1})
	require.NoError(t, err)
	require.IsType(t, &RedisLimiter{}, l)
	assert.Equal(t, 1, l.(*RedisLimiter).limit)

	_, err = New(&core.Config{RedisURL: "://bad"})
	assert.Error(t, err)
}
