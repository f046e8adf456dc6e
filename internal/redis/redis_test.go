package redis

import (
	"context"
	"testing"
	"time"

	"flashsale-system/internal/config"
	"flashsale-system/internal/logger"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/go-redis/redis/v8"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis, context.Context) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	return &Client{client: rdb, log: log}, mr, context.Background()
}

func TestConnectSuccess(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: mr.Port(), DB: 0}

	client, err := Connect(cfg, log)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestConnectFailure(t *testing.T) {
	log := logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
	cfg := &config.RedisConfig{Host: "127.0.0.1", Port: "0", DB: 0}
	if _, err := Connect(cfg, log); err == nil {
		t.Fatalf("expected connect error")
	}
}

func TestCloseNil(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Fatalf("expected nil error on nil client close, got %v", err)
	}
}

func TestSetGetDelete(t *testing.T) {
	client, _, ctx := newTestClient(t)

	type payload struct {
		Name string `json:"name"`
	}

	if err := client.Set(ctx, "k", payload{Name: "summer sale"}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got payload
	if err := client.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "summer sale" {
		t.Fatalf("unexpected value: %+v", got)
	}

	if err := client.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := client.Get(ctx, "k", &got); err != ErrCacheMiss {
		t.Fatalf("expected cache miss after delete, got %v", err)
	}
}

func TestDeleteByPrefix(t *testing.T) {
	client, mr, ctx := newTestClient(t)

	_ = client.Set(ctx, KeyPrefixActiveSales+":all", []int{1}, time.Minute)
	_ = client.Set(ctx, KeyPrefixActiveSales+":42", []int{2}, time.Minute)
	_ = client.Set(ctx, "other:key", []int{3}, time.Minute)

	if err := client.DeleteByPrefix(ctx, KeyPrefixActiveSales); err != nil {
		t.Fatalf("delete by prefix failed: %v", err)
	}

	if mr.Exists(KeyPrefixActiveSales + ":all") {
		t.Fatalf("prefixed key should be gone")
	}
	if !mr.Exists("other:key") {
		t.Fatalf("unrelated key should survive")
	}
}

func TestIncrExpireTTLGetInt(t *testing.T) {
	client, mr, ctx := newTestClient(t)

	v, err := client.Incr(ctx, "counter")
	if err != nil || v != 1 {
		t.Fatalf("incr failed: v=%d err=%v", v, err)
	}
	if _, err := client.Incr(ctx, "counter"); err != nil {
		t.Fatalf("second incr failed: %v", err)
	}

	if err := client.Expire(ctx, "counter", time.Minute); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	ttl, err := client.TTL(ctx, "counter")
	if err != nil || ttl <= 0 {
		t.Fatalf("ttl failed: ttl=%v err=%v", ttl, err)
	}

	got, err := client.GetInt(ctx, "counter")
	if err != nil || got != 2 {
		t.Fatalf("getint failed: got=%d err=%v", got, err)
	}

	mr.Del("counter")
	if _, err := client.GetInt(ctx, "counter"); err != ErrCacheMiss {
		t.Fatalf("expected cache miss, got %v", err)
	}
}

func TestGenerateKey(t *testing.T) {
	if key := GenerateKey("prefix", "123"); key != "prefix:123" {
		t.Fatalf("unexpected key: %s", key)
	}
}

func TestHealth(t *testing.T) {
	client, mr, ctx := newTestClient(t)
	if err := client.Health(ctx); err != nil {
		t.Fatalf("health failed: %v", err)
	}
	mr.Close()
	if err := client.Health(ctx); err == nil {
		t.Fatalf("expected health error after server close")
	}
}
