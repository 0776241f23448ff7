package checkpoint_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirtanmodi/stategraph/pkg/stategraph/checkpoint"
)

// TestRedisStore_TTL tests idle expiry: once the TTL elapses the thread
// is gone from Load and drops out of List lazily.
func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := checkpoint.NewRedisStore(mr.Addr(), checkpoint.WithTTL(time.Minute))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "thread-1", []byte("ephemeral")))

	loaded, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("ephemeral"), loaded)

	mr.FastForward(2 * time.Minute)

	_, err = store.Load(ctx, "thread-1")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)

	infos, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

// TestRedisStore_SaveRefreshesTTL tests that every save restarts the
// idle clock.
func TestRedisStore_SaveRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := checkpoint.NewRedisStore(mr.Addr(), checkpoint.WithTTL(time.Minute))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "thread-1", []byte("v1")))
	mr.FastForward(45 * time.Second)
	require.NoError(t, store.Save(ctx, "thread-1", []byte("v2")))
	mr.FastForward(45 * time.Second)

	// 90s of wall time but only 45s idle
	loaded, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), loaded)
}

// TestRedisStore_PrefixIsolation tests that two stores with different
// prefixes share a server without seeing each other's threads.
func TestRedisStore_PrefixIsolation(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	alpha := checkpoint.NewRedisStoreFromClient(client, checkpoint.WithPrefix("alpha"))
	beta := checkpoint.NewRedisStoreFromClient(client, checkpoint.WithPrefix("beta"))

	require.NoError(t, alpha.Save(ctx, "thread-1", []byte("from alpha")))
	require.NoError(t, beta.Save(ctx, "thread-2", []byte("from beta")))

	_, err := alpha.Load(ctx, "thread-2")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)

	infos, err := alpha.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "thread-1", infos[0].ThreadID)

	infos, err = beta.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "thread-2", infos[0].ThreadID)
}

// TestRedisStore_FromClientLeavesClientOpen tests connection ownership:
// closing a wrapping store must not close the caller's client.
func TestRedisStore_FromClientLeavesClientOpen(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := checkpoint.NewRedisStoreFromClient(client)
	require.NoError(t, store.Save(ctx, "thread-1", []byte("data")))
	require.NoError(t, store.Close())

	assert.NoError(t, client.Ping(ctx).Err())

	// The store itself is done
	err := store.Save(ctx, "thread-1", []byte("more"))
	assert.ErrorIs(t, err, checkpoint.ErrStoreClosed)
}

// TestRedisStore_SequenceSurvivesReconnect tests that the per-thread
// sequence lives in Redis, not in the store instance.
func TestRedisStore_SequenceSurvivesReconnect(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	first := checkpoint.NewRedisStoreFromClient(client)
	require.NoError(t, first.Save(ctx, "thread-1", []byte("v1")))
	require.NoError(t, first.Close())

	second := checkpoint.NewRedisStoreFromClient(client)
	defer second.Close()
	require.NoError(t, second.Save(ctx, "thread-1", []byte("v2")))

	infos, err := second.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, int64(2), infos[0].Sequence)
}

// TestNewRedisStore_ConnectFailure tests that an unreachable server
// fails construction with a ping error.
func TestNewRedisStore_ConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := checkpoint.NewRedisStore(addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}
