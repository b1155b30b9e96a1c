package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/persist"
	"github.com/redis/go-redis/v9"
)

func TestSnapshotLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if _, err := client.Get(ctx, persist.KeyCart); !errors.Is(err, persist.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := client.Set(ctx, persist.KeyCart, `[{"id":"1-none-none"}]`); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if mock.ttls["sf:snapshot:@cart_items"] != 0 {
		t.Fatalf("snapshots must not expire")
	}
	got, err := client.Get(ctx, persist.KeyCart)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != `[{"id":"1-none-none"}]` {
		t.Fatalf("unexpected snapshot %q", got)
	}
	if err := client.Remove(ctx, persist.KeyCart); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := client.Get(ctx, persist.KeyCart); !errors.Is(err, persist.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.SnapshotKey("@wishlist_items"); got != "sf:snapshot:@wishlist_items" {
		t.Fatalf("unexpected snapshot key %s", got)
	}
	if got := client.buildKey("snapshot", " ", "userToken"); got != "sf:snapshot:userToken" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
	if got := client.buildKey(); got != "sf" {
		t.Fatalf("unexpected bare namespace %s", got)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Set(context.Background(), "k", "v"); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/2", PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 {
		t.Fatalf("url not honored: addr=%s db=%d", opts.Addr, opts.DB)
	}
	if opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("config defaults not applied: %+v", opts)
	}
}

func TestNewAgainstMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := New(ctx, config.RedisConfig{Address: mr.Addr()}, nil)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	defer client.Close()

	if err := client.Set(ctx, persist.KeyWishlist, "[]"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	raw, err := mr.Get("sf:snapshot:@wishlist_items")
	if err != nil || raw != "[]" {
		t.Fatalf("miniredis did not receive snapshot: %q err=%v", raw, err)
	}
	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	mr.FlushAll()
	if _, err := client.Get(ctx, persist.KeyWishlist); !errors.Is(err, persist.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after flush, got %v", err)
	}
}

func TestCountersAndReplays(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := New(ctx, config.RedisConfig{Address: mr.Addr()}, nil)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	defer client.Close()

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, "login:ip:1.2.3.4", time.Minute)
		if err != nil {
			t.Fatalf("incr failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}
	if ttl := mr.TTL("sf:ratelimit:login:ip:1.2.3.4"); ttl != time.Minute {
		t.Fatalf("expected one minute ttl, got %s", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if got, _ := client.IncrWithTTL(ctx, "login:ip:1.2.3.4", time.Minute); got != 1 {
		t.Fatalf("counter should restart after the window, got %d", got)
	}

	if _, found, err := client.LoadReplay(ctx, "POST|/api/v1/checkout", "abc"); err != nil || found {
		t.Fatalf("expected no replay, found=%v err=%v", found, err)
	}
	if err := client.SaveReplay(ctx, "POST|/api/v1/checkout", "abc", "first", time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := client.SaveReplay(ctx, "POST|/api/v1/checkout", "abc", "second", time.Hour); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	value, found, err := client.LoadReplay(ctx, "POST|/api/v1/checkout", "abc")
	if err != nil || !found || value != "first" {
		t.Fatalf("expected first record to win, got %q found=%v err=%v", value, found, err)
	}
}

type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	var n int64
	fmt.Sscan(m.data[key], &n)
	n++
	m.data[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}
