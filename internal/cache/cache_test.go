package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set error: %v", err)
	}

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("expected hit with v, got %q ok=%v err=%v", got, ok, err)
	}

	_ = c.Delete(ctx, "k", "missing")

	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	_ = c.Set(ctx, "short", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "short"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := New(0)

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	c.Clear()

	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatalf("expected empty cache after Clear")
	}
}
