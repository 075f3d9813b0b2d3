package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/landhub-backend/pkg/config"
)

// fakeRedis keeps strings and counters in maps and records expiries and
// publishes so tests can assert on them.
type fakeRedis struct {
	strings   map[string]string
	counters  map[string]int64
	expiries  map[string]time.Duration
	published []publishedMessage
}

type publishedMessage struct {
	channel string
	payload string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings:  map[string]string{},
		counters: map[string]int64{},
		expiries: map[string]time.Duration{},
	}
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := f.strings[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.strings[key] = fmt.Sprint(value)
	f.expiries[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, taken := f.strings[key]; taken {
		return redis.NewBoolResult(false, nil)
	}
	f.Set(ctx, key, value, ttl)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeRedis) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expiries[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.strings[key]; ok {
			delete(f.strings, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	f.published = append(f.published, publishedMessage{channel: channel, payload: fmt.Sprint(message)})
	return redis.NewIntResult(1, nil)
}

// Eval only understands the compare-and-delete script.
func (f *fakeRedis) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	if script != compareAndDeleteScript || len(keys) != 1 || len(args) != 1 {
		return redis.NewCmdResult(nil, fmt.Errorf("unsupported script"))
	}
	if current, ok := f.strings[keys[0]]; !ok || current != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(f.strings, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}

func TestFixedWindowAllowCountsPerWindow(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedis()
	now := time.Date(2026, 3, 1, 10, 0, 30, 0, time.UTC)
	client := &Client{store: store, now: func() time.Time { return now }}

	type hit struct {
		allowed bool
		count   int64
	}
	var hits []hit
	for range 3 {
		allowed, count, err := client.FixedWindowAllow(ctx, "bids:u1", 2, time.Minute)
		require.NoError(t, err)
		hits = append(hits, hit{allowed, count})
	}
	assert.Equal(t, []hit{{true, 1}, {true, 2}, {false, 3}}, hits)

	windowKey := fmt.Sprintf("lh:rate_limit:bids:u1:%d", now.Truncate(time.Minute).Unix())
	assert.Equal(t, time.Minute, store.expiries[windowKey])
	assert.Len(t, store.expiries, 1, "expiry is only set when the window opens")

	now = now.Add(time.Minute)
	allowed, count, err := client.FixedWindowAllow(ctx, "bids:u1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.EqualValues(t, 1, count)
}

func TestFixedWindowAllowRejectsNonPositiveWindow(t *testing.T) {
	client := &Client{store: newFakeRedis()}
	for _, window := range []time.Duration{0, -time.Second} {
		_, _, err := client.FixedWindowAllow(context.Background(), "s", 1, window)
		assert.Error(t, err, "window %s", window)
	}
}

func TestCompareAndDeleteOnlyRemovesOwnedKey(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedis()
	store.strings["lh:lock:relay"] = "worker-a"
	client := &Client{store: store}

	deleted, err := client.CompareAndDelete(ctx, "lh:lock:relay", "worker-b")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Contains(t, store.strings, "lh:lock:relay")

	deleted, err = client.CompareAndDelete(ctx, "lh:lock:relay", "worker-a")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NotContains(t, store.strings, "lh:lock:relay")
}

func TestPublishSendsToChannel(t *testing.T) {
	store := newFakeRedis()
	client := &Client{store: store}

	receivers, err := client.Publish(context.Background(), "lh:notifications:u1", `{"type":"bid_placed"}`)
	require.NoError(t, err)
	assert.EqualValues(t, 1, receivers)
	assert.Equal(t, []publishedMessage{{"lh:notifications:u1", `{"type":"bid_placed"}`}}, store.published)
}

func TestSetNXClaimsOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeRedis()}
	key := client.IdempotencyKey("u1|POST|/api/v1/bids", "retry-1")

	won, err := client.SetNX(ctx, key, "in-flight", time.Minute)
	require.NoError(t, err)
	assert.True(t, won)
	won, err = client.SetNX(ctx, key, "in-flight", time.Minute)
	require.NoError(t, err)
	assert.False(t, won)

	require.NoError(t, client.Set(ctx, key, "stored", time.Hour))
	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "stored", got)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestKeysAreNamespaced(t *testing.T) {
	var client Client
	assert.Equal(t, "lh:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "lh:idempotency:id", client.IdempotencyKey(" ", "id"))
	assert.Equal(t, "lh:rate_limit:bids:u1", client.RateLimitKey("bids:u1"))
}

func TestZeroClientReportsNotInitialized(t *testing.T) {
	var client *Client
	ctx := context.Background()
	assert.ErrorIs(t, client.Ping(ctx), errNotInitialized)
	_, err := client.Publish(ctx, "c", "m")
	assert.ErrorIs(t, err, errNotInitialized)
	assert.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.RedisConfig
		wantErr bool
		addr    string
		db      int
		pool    int
	}{
		{name: "missing", cfg: config.RedisConfig{}, wantErr: true},
		{name: "bad url", cfg: config.RedisConfig{URL: "http://nope"}, wantErr: true},
		{name: "url db wins", cfg: config.RedisConfig{URL: "redis://cache:6379/2", DB: 5, PoolSize: 7}, addr: "cache:6379", db: 2, pool: 7},
		{name: "url without db", cfg: config.RedisConfig{URL: "redis://cache:6379", DB: 5}, addr: "cache:6379", db: 5},
		{name: "address", cfg: config.RedisConfig{Address: "localhost:6380", DB: 1, PoolSize: 3}, addr: "localhost:6380", db: 1, pool: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts, err := optionsFromConfig(tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.addr, opts.Addr)
			assert.Equal(t, tc.db, opts.DB)
			assert.Equal(t, tc.pool, opts.PoolSize)
		})
	}
}
