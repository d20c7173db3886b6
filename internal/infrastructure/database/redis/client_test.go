package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/config"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

func miniredisT(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr
}

func testClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredisT(t)

	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestClientPing(t *testing.T) {
	client, _ := testClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestClientConnectFailure(t *testing.T) {
	_, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestClientSetGet(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k1", "v1", time.Minute).Err())

	got, err := client.Get(ctx, "k1").Result()
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
}

func TestClientSetNX(t *testing.T) {
	client, _ := testClient(t)
	ctx := context.Background()

	ok, err := client.SetNX(ctx, "k1", "first", time.Minute).Result()
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, "k1", "second", time.Minute).Result()
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := client.Get(ctx, "k1").Result()
	assert.Equal(t, "first", got)
}

func TestClientClosed(t *testing.T) {
	client, _ := testClient(t)
	require.NoError(t, client.Close())

	err := client.Get(context.Background(), "k1").Err()
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.Error(t, client.Ping(context.Background()))

	// Close is idempotent.
	assert.NoError(t, client.Close())
}

func TestClientExpireAndTTL(t *testing.T) {
	client, mr := testClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k1", "v1", 0).Err())
	ok, err := client.Expire(ctx, "k1", time.Hour).Result()
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := client.TTL(ctx, "k1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	mr.FastForward(2 * time.Hour)
	n, err := client.Exists(ctx, "k1").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
