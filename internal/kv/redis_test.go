package kv

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedisStore(client), mr
}

func TestRedisStore_GetSetDelete(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "resume:1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "resume:1", `{"id":"1"}`))
	got, err := mr.Get("resume:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, got)

	val, err := store.Get(ctx, "resume:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, val)

	require.NoError(t, store.Delete(ctx, "resume:1"))
	assert.False(t, mr.Exists("resume:1"))
	assert.NoError(t, store.Delete(ctx, "resume:1"))
}

func TestRedisStore_List(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("resume:%03d", i), fmt.Sprintf("v%d", i)))
	}
	require.NoError(t, mr.Set("other:1", "x"))

	t.Run("with values", func(t *testing.T) {
		entries, err := store.List(ctx, "resume:*", true)
		require.NoError(t, err)
		require.Len(t, entries, 250)
		assert.Equal(t, "resume:000", entries[0].Key)
		assert.Equal(t, "v0", entries[0].Value)
		assert.Equal(t, "resume:249", entries[249].Key)
	})

	t.Run("keys only", func(t *testing.T) {
		entries, err := store.List(ctx, "resume:*", false)
		require.NoError(t, err)
		require.Len(t, entries, 250)
		assert.Empty(t, entries[10].Value)
	})
}

func TestRedisStore_Ping(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	assert.NoError(t, store.Ping(ctx))
	mr.Close()
	assert.Error(t, store.Ping(ctx))
}

func TestDialRedisFailsFast(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = DialRedis(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
