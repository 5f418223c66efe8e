package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func TestRedisCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	c := NewRedisCache(rc, "test:", 2*time.Minute, nil)
	ctx := context.Background()
	key := c.Key("model-a", "abc123")
	assert.Equal(t, "test:model-a:abc123", key)

	var got []cachedLabel
	assert.False(t, c.Get(ctx, key, &got), "miss before set")

	c.Set(ctx, key, []cachedLabel{{Label: "book", Score: 0.9}})
	require.True(t, c.Get(ctx, key, &got))
	assert.Equal(t, []cachedLabel{{Label: "book", Score: 0.9}}, got)
	assert.Equal(t, 2*time.Minute, mr.TTL(key))

	mr.FastForward(3 * time.Minute)
	assert.False(t, c.Get(ctx, key, &got), "expired")
}

func TestRedisCache_FailuresReadAsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	c := NewRedisCache(rc, "test:", 0, nil)
	ctx := context.Background()

	require.NoError(t, mr.Set("test:bad", "{not json"))
	var got []cachedLabel
	assert.False(t, c.Get(ctx, "test:bad", &got))

	mr.Close()
	assert.False(t, c.Get(ctx, "test:any", &got))
	assert.NotPanics(t, func() { c.Set(ctx, "test:any", got) })
}
