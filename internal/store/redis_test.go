package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	runEventStoreSuite(t, func(t *testing.T) EventStore {
		_, client := setupTestRedis(t)
		return NewRedisStore(client, "test:")
	})
}

func TestRedisStore_KeyLayout(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, "")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "demo:1", []byte("x"), time.Hour))

	assert.True(t, mr.Exists("webhooks:ev:demo:1"))
	members, err := mr.ZMembers("webhooks:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"demo:1"}, members)
	assert.Equal(t, time.Hour, mr.TTL("webhooks:ev:demo:1"))
}

func TestRedisStore_NoTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, "t:")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "demo:1", []byte("x"), 0))
	require.NoError(t, s.Put(ctx, "demo:2", []byte("x"), -time.Second))

	assert.Equal(t, time.Duration(0), mr.TTL("t:ev:demo:1"))
	assert.Equal(t, time.Duration(0), mr.TTL("t:ev:demo:2"))
}

func TestRedisStore_ExpiredValueLeavesIndexEntry(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, "t:")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "demo:old", []byte("x"), time.Minute))
	require.NoError(t, s.Put(ctx, "demo:new", []byte("y"), 0))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "demo:old")
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := s.List(ctx, ListOptions{Prefix: "demo:", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"demo:new", "demo:old"}, res.Keys)

	removed, err := NewIndexReaper(s).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	res, err = s.List(ctx, ListOptions{Prefix: "demo:", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"demo:new"}, res.Keys)
}

func TestRedisStore_ExpiredNamespaceListedUntilSweep(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, "t:")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "gone:1", []byte("x"), time.Minute))
	require.NoError(t, s.Put(ctx, "kept:1", []byte("y"), 0))
	mr.FastForward(2 * time.Minute)

	res, err := s.List(ctx, ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"gone:1", "kept:1"}, res.Keys)

	_, err = NewIndexReaper(s).Sweep(ctx)
	require.NoError(t, err)

	res, err = s.List(ctx, ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"kept:1"}, res.Keys)
}

func TestIndexReaper_SweepsAcrossBatches(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, "t:")
	ctx := context.Background()

	const total = reaperBatchSize*2 + 17
	for i := 0; i < total; i++ {
		ttl := time.Duration(0)
		if i%2 == 0 {
			ttl = time.Second
		}
		require.NoError(t, s.Put(ctx, fmt.Sprintf("demo:%05d", i), []byte("x"), ttl))
	}
	mr.FastForward(time.Minute)

	removed, err := NewIndexReaper(s).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, (total+1)/2, removed)

	card, err := client.ZCard(ctx, "t:index").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(total/2), card)
}

func TestRunSweeps_StopsOnCancel(t *testing.T) {
	_, client := setupTestRedis(t)
	reaper := NewIndexReaper(NewRedisStore(client, "t:"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunSweeps(ctx, reaper, 10*time.Millisecond, nil)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunSweeps did not return after cancel")
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewRedisStore(client, "t:")
	mr.Close()

	ctx := context.Background()
	assert.ErrorIs(t, s.Put(ctx, "demo:1", []byte("x"), 0), ErrUnavailable)
	_, err := s.Get(ctx, "demo:1")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = s.List(ctx, ListOptions{Limit: 1})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Delete(ctx, "demo:1"), ErrUnavailable)
	assert.ErrorIs(t, s.Ping(ctx), ErrUnavailable)
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = ConnectRedis(context.Background(), "not-a-url")
	assert.Error(t, err)
}
