package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestCaches(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	caches := map[string]Cache{
		"redis":  NewRedisCache(client),
		"memory": NewMemoryCache(time.Hour, time.Minute),
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.NoError(t, c.Ping(ctx))

			_, err := c.Get(ctx, "cocktail:id:1")
			assert.ErrorIs(t, err, ErrMiss)

			assert.NoError(t, c.Set(ctx, "cocktail:id:1", []byte(`{"id":1}`), time.Hour))
			val, err := c.Get(ctx, "cocktail:id:1")
			assert.NoError(t, err)
			assert.Equal(t, []byte(`{"id":1}`), val)

			assert.NoError(t, c.Delete(ctx, "cocktail:id:1"))
			_, err = c.Get(ctx, "cocktail:id:1")
			assert.ErrorIs(t, err, ErrMiss)
		})
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Minute)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}
