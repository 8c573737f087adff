package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCodeBackend struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeCodeBackend() *fakeCodeBackend {
	return &fakeCodeBackend{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCodeBackend) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCodeBackend) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeCodeBackend) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeCodeBackend) VerificationCodeKey(email string) string {
	return "dlb:vcode:" + email
}

func TestRedisCodeStoreRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	backend := newFakeCodeBackend()
	store, err := NewRedisCodeStore(backend, func() time.Time { return now })
	require.NoError(t, err)
	ctx := context.Background()

	entry := CodeEntry{Hash: "hash", ExpiresAt: now.Add(10 * time.Minute)}
	require.NoError(t, store.Put(ctx, "a@example.com", entry))
	assert.Equal(t, 11*time.Minute, backend.ttls["dlb:vcode:a@example.com"])

	got, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hash", got.Hash)
	assert.True(t, got.ExpiresAt.Equal(entry.ExpiresAt))

	require.NoError(t, store.Delete(ctx, "a@example.com"))
	got, err = store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, store.SweepExpired(ctx, now))
}

func TestMemoryCodeStoreSweep(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, "Old@Example.com", CodeEntry{Hash: "old", ExpiresAt: now.Add(-2 * time.Minute)}))
	require.NoError(t, store.Put(ctx, "grace@example.com", CodeEntry{Hash: "grace", ExpiresAt: now.Add(-30 * time.Second)}))
	require.NoError(t, store.Put(ctx, "fresh@example.com", CodeEntry{Hash: "fresh", ExpiresAt: now.Add(5 * time.Minute)}))

	require.NoError(t, store.SweepExpired(ctx, now))
	assert.Equal(t, 2, store.Len())

	got, err := store.Get(ctx, "old@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.Get(ctx, "GRACE@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Expired(now))
}

func TestMemoryCodeStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Put(ctx, "race@example.com", CodeEntry{Hash: "h", ExpiresAt: now.Add(time.Minute)})
			_, _ = store.Get(ctx, "race@example.com")
			_ = store.SweepExpired(ctx, now)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, store.Len())
}

func TestSecondIssueReplacesFirst(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Put(ctx, "a@example.com", CodeEntry{Hash: "first", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, store.Put(ctx, "a@example.com", CodeEntry{Hash: "second", ExpiresAt: now.Add(time.Minute)}))

	got, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Hash)
}
