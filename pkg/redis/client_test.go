package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/athengaudio/storefront/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestIncrWithTTLSetsExpiryOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for i := int64(1); i <= 3; i++ {
		count, err := client.IncrWithTTL(ctx, "scope", time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != i {
			t.Fatalf("expected counter %d got %d", i, count)
		}
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire only for first increment, got %d", len(mock.expireCalls))
	}
	if mock.expireCalls[0].ttl != time.Second {
		t.Fatalf("unexpected ttl %s", mock.expireCalls[0].ttl)
	}
}

func TestGetSetDelLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Set(ctx, "k", []byte(`[1]`), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "[1]" {
		t.Fatalf("unexpected value %q", got)
	}

	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "k"); !errors.Is(err, ErrNil) {
		t.Fatalf("expected ErrNil after delete, got %v", err)
	}
}

func TestMSetWritesAllPairs(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	err := client.MSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")})
	if err != nil {
		t.Fatalf("mset failed: %v", err)
	}
	if mock.data["a"] != "1" || mock.data["b"] != "2" {
		t.Fatalf("unexpected data %v", mock.data)
	}
	if mock.msetCalls != 1 {
		t.Fatalf("expected a single MSET, got %d", mock.msetCalls)
	}
}

func TestKeyBuilder(t *testing.T) {
	client := &Client{}
	if got := client.Key("cart", "user:1"); got != "atheng:cart:user:1" {
		t.Fatalf("unexpected default namespace key %s", got)
	}
	client = &Client{namespace: "shop"}
	if got := client.Key("orders", "", " x "); got != "shop:orders:x" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected missing address error")
	}
	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", PoolSize: 7, DB: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.PoolSize != 7 || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 3 {
		t.Fatalf("unexpected url options %+v", opts)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close should tolerate nil client: %v", err)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
	msetCalls   int
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = stringify(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) MSet(ctx context.Context, values ...any) *redis.StatusCmd {
	m.msetCalls++
	for i := 0; i+1 < len(values); i += 2 {
		m.data[stringify(values[i])] = stringify(values[i+1])
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = stringify(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func stringify(value any) string {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(value)
}
