package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
)

func TestIncrWithTTLExpiresOnFirstHitOnly(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	c := &Client{cmd: fake}

	for want := int64(1); want <= 3; want++ {
		n, err := c.IncrWithTTL(ctx, "fq:rl:ip:login:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	assert.Equal(t, []time.Duration{time.Minute}, fake.expiries)
}

func TestLockOwnership(t *testing.T) {
	ctx := context.Background()
	c := &Client{cmd: newFakeRedis()}

	ok, err := c.TryLock(ctx, "finalize:s1", "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = c.TryLock(ctx, "finalize:s1", "owner-b", time.Minute)
	assert.False(t, ok, "held lock")

	require.NoError(t, c.Unlock(ctx, "finalize:s1", "owner-b"))
	ok, _ = c.TryLock(ctx, "finalize:s1", "owner-b", time.Minute)
	assert.False(t, ok, "a stranger cannot release")

	require.NoError(t, c.Unlock(ctx, "finalize:s1", "owner-a"))
	ok, _ = c.TryLock(ctx, "finalize:s1", "owner-b", time.Minute)
	assert.True(t, ok)
}

func TestZeroClient(t *testing.T) {
	var c Client
	ctx := context.Background()
	assert.ErrorIs(t, c.Ping(ctx), ErrNotInitialized)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.IncrWithTTL(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.NoError(t, c.Close())
}

func TestGetMissingIsNil(t *testing.T) {
	c := &Client{cmd: newFakeRedis()}
	_, err := c.Get(context.Background(), c.WizardSessionKey("missing"))
	assert.True(t, IsNil(err))
	assert.False(t, IsNil(errors.New("boom")))
}

func TestKeys(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "fq:idempotency:scope:id", c.IdempotencyKey("scope", "id"))
	assert.Equal(t, "fq:idempotency:scope", c.IdempotencyKey("scope", " "))
	assert.Equal(t, "fq:counter:request_id", c.CounterKey("request_id"))
	assert.Equal(t, "fq:wizard:abc", c.WizardSessionKey("abc"))
	assert.Equal(t, "fq:lock:cron", c.LockKey("cron"))
	assert.Equal(t, "fq:cache:clients", c.CacheKey("clients"))
	assert.Equal(t, "fq:session:access:jti", c.AccessSessionKey("jti"))
}

func TestOptions(t *testing.T) {
	_, err := options(config.RedisConfig{})
	require.Error(t, err)

	opts, err := options(config.RedisConfig{URL: "redis://:secret@cache:6380/2", PoolSize: 20, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB, "url db wins")
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = options(config.RedisConfig{Address: "localhost:6379", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}

// fakeRedis is a map with just enough Lua to run releaseLua and countLua.
type fakeRedis struct {
	data     map[string]string
	counters map[string]int64
	expiries []time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, counters: map[string]int64{}}
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeRedis) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	switch script {
	case releaseLua:
		if f.data[keys[0]] == fmt.Sprint(args[0]) {
			delete(f.data, keys[0])
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	case countLua:
		f.counters[keys[0]]++
		n := f.counters[keys[0]]
		if ms, _ := args[0].(int64); n == 1 && ms > 0 {
			f.expiries = append(f.expiries, time.Duration(ms)*time.Millisecond)
		}
		return redis.NewCmdResult(n, nil)
	}
	return redis.NewCmdResult(nil, errors.New("unexpected script"))
}
