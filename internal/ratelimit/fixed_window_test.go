package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := NewFixedWindowLimiter(client, "test:rl", 2, time.Minute)
	require.NoError(t, err)
	fixed := time.Date(2026, 1, 1, 12, 0, 5, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	require.True(t, ok, "other keys keep their own quota")

	limiter.now = func() time.Time { return fixed.Add(time.Minute) }
	ok, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, ok, "next window resets the count")
}

func TestFixedWindowLimiterValidation(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	_, err := NewFixedWindowLimiter(client, "", 0, time.Minute)
	require.Error(t, err)
	_, err = NewFixedWindowLimiter(client, "", 1, 0)
	require.Error(t, err)
	_, err = NewFixedWindowLimiter(nil, "", 1, time.Minute)
	require.Error(t, err)
}

func TestFixedWindowLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	limiter, err := NewFixedWindowLimiter(client, "", 1, time.Minute)
	require.NoError(t, err)

	ok, err := limiter.Allow(context.Background(), "k")
	require.Error(t, err)
	require.True(t, ok)
}
