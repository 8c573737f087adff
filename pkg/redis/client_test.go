package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealboard/dealboard-backend/pkg/config"
)

func TestIncrWithTTLSetsExpiryOnce(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	client := &Client{cmd: fake}

	for want := int64(1); want <= 3; want++ {
		n, err := client.IncrWithTTL(ctx, "dlb:rate_limit:ip", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	assert.Equal(t, []string{"dlb:rate_limit:ip"}, fake.expired)
}

func TestSetGetDelRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newFakeCommander()}

	k := client.VerificationCodeKey("Shopper@Example.com")
	require.NoError(t, client.Set(ctx, k, "payload", 10*time.Minute))

	v, err := client.Get(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, "payload", v)

	require.NoError(t, client.Del(ctx, k))
	_, err = client.Get(ctx, k)
	assert.ErrorIs(t, err, redis.Nil)
	assert.NoError(t, client.Del(ctx))
}

func TestDeleteIfEqual(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommander()
	client := &Client{cmd: fake}
	fake.data["dlb:lock:cron"] = "owner-a"

	deleted, err := client.DeleteIfEqual(ctx, "dlb:lock:cron", "owner-b")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, "owner-a", fake.data["dlb:lock:cron"])

	deleted, err = client.DeleteIfEqual(ctx, "dlb:lock:cron", "owner-a")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NotContains(t, fake.data, "dlb:lock:cron")
}

func TestDisconnectedClient(t *testing.T) {
	var client *Client
	assert.ErrorIs(t, client.Ping(context.Background()), errNotConnected)
	assert.NoError(t, client.Close())

	_, err := (&Client{}).Get(context.Background(), "k")
	assert.ErrorIs(t, err, errNotConnected)
}

func TestKeyBuilders(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "dlb:idempotency:scope:id", c.IdempotencyKey("scope", "id"))
	assert.Equal(t, "dlb:rate_limit:scope", c.RateLimitKey("scope"))
	assert.Equal(t, "dlb:session:access:abc", c.AccessSessionKey("abc"))
	assert.Equal(t, "dlb:vcode:shopper@example.com", c.VerificationCodeKey(" Shopper@Example.com "))
	assert.Equal(t, "dlb:lock:orphan-images", c.LockKey("orphan-images"))
	assert.Equal(t, "dlb:idempotency:scope", c.IdempotencyKey("scope", ""))
}

func TestBuildOptions(t *testing.T) {
	opts, err := buildOptions(config.RedisConfig{
		URL:         "redis://:secret@cache:6380/2",
		PoolSize:    7,
		DialTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)

	opts, err = buildOptions(config.RedisConfig{Address: "localhost:6379", DB: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, opts.DB)

	_, err = buildOptions(config.RedisConfig{})
	assert.Error(t, err)
}

type fakeCommander struct {
	data    map[string]string
	counter map[string]int64
	expired []string
}

func newFakeCommander() *fakeCommander {
	return &fakeCommander{data: map[string]string{}, counter: map[string]int64{}}
}

func (f *fakeCommander) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommander) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCommander) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommander) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommander) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counter[key]++
	return redis.NewIntResult(f.counter[key], nil)
}

func (f *fakeCommander) Expire(_ context.Context, key string, _ time.Duration) *redis.BoolCmd {
	f.expired = append(f.expired, key)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommander) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval only understands the compare-and-delete script.
func (f *fakeCommander) Eval(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	if f.data[keys[0]] == fmt.Sprint(args[0]) {
		delete(f.data, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}
