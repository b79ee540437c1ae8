package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheVersionAndBump(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	ver, err := cache.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), ver)

	key, err := cache.BuildKey(ctx, "dashboard", "summary", "2024-05-10")
	require.NoError(t, err)
	require.Equal(t, "dashboard:summary:2024-05-10:v1", key)

	require.NoError(t, cache.Bump(ctx))
	key, err = cache.BuildKey(ctx, "dashboard", "summary", "2024-05-10")
	require.NoError(t, err)
	require.Equal(t, "dashboard:summary:2024-05-10:v2", key)
}

func TestCacheBumpOnlyTouchesVersion(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	listener := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = listener.Close() })
	sub := listener.PSubscribe(ctx, "dashboard*")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.Bump(ctx))
	require.NoError(t, cache.Bump(ctx))

	_, err = sub.ReceiveTimeout(ctx, 100*time.Millisecond)
	require.Error(t, err)
	require.Equal(t, []string{cacheVersionKey}, mr.Keys())
	got, err := mr.Get(cacheVersionKey)
	require.NoError(t, err)
	require.Equal(t, "2", got)
}

func TestCacheFetchJSON(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"orders": calls}, nil
	}

	var first map[string]int
	require.NoError(t, cache.FetchJSON(ctx, "k", &first, loader))
	var second map[string]int
	require.NoError(t, cache.FetchJSON(ctx, "k", &second, loader))
	require.Equal(t, 1, calls)
	require.Equal(t, first, second)

	mr.FastForward(2 * time.Minute)
	var third map[string]int
	require.NoError(t, cache.FetchJSON(ctx, "k", &third, loader))
	require.Equal(t, 2, calls)
	require.Equal(t, 2, third["orders"])
}

func TestCacheLoaderError(t *testing.T) {
	cache, mr := newTestCache(t)
	boom := errors.New("boom")
	var out map[string]int
	err := cache.FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists("k"))
}

func TestNilCacheLoadsDirectly(t *testing.T) {
	var cache *Cache
	ctx := context.Background()
	key, err := cache.BuildKey(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, "a:b", key)
	require.NoError(t, cache.Bump(ctx))

	var out []int
	require.NoError(t, cache.FetchJSON(ctx, key, &out, func(context.Context) (any, error) { return []int{1, 2}, nil }))
	require.Equal(t, []int{1, 2}, out)
}
