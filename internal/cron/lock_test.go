package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRedis struct {
	values map[string]string
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}}
}

func (m *memoryRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, held := m.values[key]; held {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryRedis) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryRedis) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	store := newMemoryRedis()
	ctx := context.Background()

	first, err := NewRedisLock(store, "sd:lock:cron", time.Hour)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "sd:lock:cron", time.Hour)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockReleaseIgnoresForeignOwner(t *testing.T) {
	store := newMemoryRedis()
	ctx := context.Background()

	holder, err := NewRedisLock(store, "sd:lock:cron", time.Hour)
	require.NoError(t, err)
	ok, err := holder.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// Simulate a stale replica whose lease expired and was re-acquired.
	stale, err := NewRedisLock(store, "sd:lock:cron", time.Hour)
	require.NoError(t, err)
	stale.owner = "expired-owner"

	require.NoError(t, stale.Release(ctx))
	_, held := store.values["sd:lock:cron"]
	assert.True(t, held, "release by a non-owner must not drop the lock")
}

func TestRedisLockReleaseWithoutAcquireIsNoop(t *testing.T) {
	store := newMemoryRedis()
	lock, err := NewRedisLock(store, "sd:lock:cron", time.Hour)
	require.NoError(t, err)
	require.NoError(t, lock.Release(context.Background()))
}

func TestNewRedisLockValidation(t *testing.T) {
	_, err := NewRedisLock(nil, "key", time.Hour)
	require.Error(t, err)

	_, err = NewRedisLock(newMemoryRedis(), "", time.Hour)
	require.Error(t, err)
}
