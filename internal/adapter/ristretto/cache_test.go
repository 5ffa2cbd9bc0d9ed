package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/StoryForge/internal/adapter/ristretto"
	"github.com/Strob0t/StoryForge/internal/port/cache"
	"github.com/Strob0t/StoryForge/internal/port/cache/cachetest"
)

func open(t *testing.T, sizeMB int64) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.New("test", sizeMB)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCache_Contract(t *testing.T) {
	cachetest.Run(t, func(t *testing.T) cache.Cache { return open(t, 4) })
}

func TestCache_EntryExpires(t *testing.T) {
	c := open(t, 4)
	ctx := context.Background()
	if err := c.Set(ctx, "layout:m1", []byte(`{"epics":[]}`), 50*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "layout:m1"); ok {
		t.Error("layout still cached after its ttl")
	}
}

func TestNew_ClampsSize(t *testing.T) {
	c := open(t, 0)
	if err := c.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set on clamped cache: %v", err)
	}
}

func TestCache_HitRatio(t *testing.T) {
	c := open(t, 4)
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, _, _ = c.Get(ctx, "k")
	_, _, _ = c.Get(ctx, "absent")
	if got := c.HitRatio(); got != 0.5 {
		t.Errorf("HitRatio = %v, want 0.5", got)
	}
}
