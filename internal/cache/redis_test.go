package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c, err := NewClient(Options{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientSetGetDel(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	if _, err := c.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get() on missing key error = %v, want ErrMiss", err)
	}
	if err := c.Set(ctx, key, []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := c.Get(ctx, key)
	if err != nil || string(got) != "value" {
		t.Fatalf("Get() = %q, %v", got, err)
	}
	if err := c.Del(ctx, key); err != nil {
		t.Fatalf("Del() error = %v", err)
	}
	if _, err := c.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get() after Del error = %v, want ErrMiss", err)
	}
}

func TestClientIsRateLimited(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := uuid.NewString()

	for i := 0; i < 3; i++ {
		if c.IsRateLimited(ctx, key, 3, time.Minute) {
			t.Fatalf("hit %d limited too early", i+1)
		}
	}
	if !c.IsRateLimited(ctx, key, 3, time.Minute) {
		t.Fatal("fourth hit should be limited")
	}
}

func TestRateLimitWindowIsFixed(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := uuid.NewString()
	window := 2 * time.Second

	c.IsRateLimited(ctx, key, 10, window)
	time.Sleep(600 * time.Millisecond)
	c.IsRateLimited(ctx, key, 10, window)

	ttl, err := c.rdb.PTTL(ctx, "ratelimit:"+key).Result()
	if err != nil {
		t.Fatal(err)
	}
	if ttl <= 0 || ttl > window-500*time.Millisecond {
		t.Errorf("ttl = %v, want the window started by the first hit", ttl)
	}
}

func TestNewClientUnreachable(t *testing.T) {
	if _, err := NewClient(Options{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}
