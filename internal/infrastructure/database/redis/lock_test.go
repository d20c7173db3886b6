package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

func TestMutexTryLock(t *testing.T) {
	client, _ := testClient(t)
	factory := NewLockFactory(client, logging.NewNopLogger())
	ctx := context.Background()

	lock1 := factory.NewMutex("cluster-scan")
	lock2 := factory.NewMutex("cluster-scan")

	ok, err := lock1.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock2.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock1.Unlock(ctx))

	ok, err = lock2.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMutexLockWaitsForRelease(t *testing.T) {
	client, _ := testClient(t)
	factory := NewLockFactory(client, logging.NewNopLogger())
	ctx := context.Background()

	lock1 := factory.NewMutex("cluster-scan")
	lock2 := factory.NewMutex("cluster-scan",
		WithRetryDelay(5*time.Millisecond), WithRetryCount(100))

	require.NoError(t, lock1.Lock(ctx))

	done := make(chan error, 1)
	go func() { done <- lock2.Lock(ctx) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, lock1.Unlock(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second holder never acquired the lock")
	}
}

func TestMutexLockGivesUp(t *testing.T) {
	client, _ := testClient(t)
	factory := NewLockFactory(client, logging.NewNopLogger())
	ctx := context.Background()

	lock1 := factory.NewMutex("cluster-scan")
	lock2 := factory.NewMutex("cluster-scan",
		WithRetryDelay(time.Millisecond), WithRetryCount(3))

	require.NoError(t, lock1.Lock(ctx))

	err := lock2.Lock(ctx)
	assert.ErrorIs(t, err, ErrLockNotAcquired)
}

func TestMutexUnlockNotHeld(t *testing.T) {
	client, mr := testClient(t)
	factory := NewLockFactory(client, logging.NewNopLogger())
	ctx := context.Background()

	lock := factory.NewMutex("cluster-scan")
	require.NoError(t, lock.Lock(ctx))

	// Simulate expiry and takeover by another worker.
	mr.Set(lockKey("cluster-scan"), "someone-else")

	assert.ErrorIs(t, lock.Unlock(ctx), ErrLockNotHeld)
}

func TestMutexExtend(t *testing.T) {
	client, mr := testClient(t)
	factory := NewLockFactory(client, logging.NewNopLogger())
	ctx := context.Background()

	lock := factory.NewMutex("cluster-scan", WithLockTTL(time.Second))
	require.NoError(t, lock.Lock(ctx))

	ok, err := lock.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := lock.TTL(ctx)
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Second)

	// A stale holder cannot extend after takeover.
	mr.Set(lockKey("cluster-scan"), "someone-else")
	ok, err = lock.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMutexLockCanceledContext(t *testing.T) {
	client, _ := testClient(t)
	factory := NewLockFactory(client, logging.NewNopLogger())

	lock1 := factory.NewMutex("cluster-scan")
	lock2 := factory.NewMutex("cluster-scan",
		WithRetryDelay(50*time.Millisecond), WithRetryCount(100))

	require.NoError(t, lock1.Lock(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := lock2.Lock(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
