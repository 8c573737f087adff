package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryLockStore) DeleteIfEqual(_ context.Context, key, expected string) (bool, error) {
	if m.values[key] != expected {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestRedisLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	store := newMemoryLockStore()
	first, err := NewRedisLock(store, "dlb:lock:cron", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "dlb:lock:cron", time.Minute)
	require.NoError(t, err)

	won, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, won)
	assert.Equal(t, time.Minute, store.ttls["dlb:lock:cron"])

	won, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, won)

	// the loser holds nothing, so releasing leaves the winner's lease alone
	require.NoError(t, second.Release(ctx))
	assert.Contains(t, store.values, "dlb:lock:cron")

	require.NoError(t, first.Release(ctx))
	assert.NotContains(t, store.values, "dlb:lock:cron")

	won, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestRedisLockKeepsNewerLease(t *testing.T) {
	ctx := context.Background()
	store := newMemoryLockStore()
	lock, err := NewRedisLock(store, "k", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)

	won, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, won)

	store.values["k"] = "other-host/lease"
	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, "other-host/lease", store.values["k"])
}

func TestNewRedisLockValidation(t *testing.T) {
	_, err := NewRedisLock(nil, "k", time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(newMemoryLockStore(), "", time.Minute)
	assert.Error(t, err)
}
