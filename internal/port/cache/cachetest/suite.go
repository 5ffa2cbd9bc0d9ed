// Package cachetest holds a behavioural suite shared by every cache.Cache
// implementation.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/StoryForge/internal/port/cache"
)

// Run exercises c with keys shaped like the layout cache keys.
func Run(t *testing.T, newCache func(*testing.T) cache.Cache) {
	t.Helper()
	ctx := context.Background()
	key := "layout:sm-1:2026-01-02T03:04:05.000000006Z:true"

	t.Run("Miss", func(t *testing.T) {
		c := newCache(t)
		_, ok, err := c.Get(ctx, "layout:absent")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if ok {
			t.Fatal("expected miss")
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		c := newCache(t)
		if err := c.Set(ctx, key, []byte(`{"lanes":[]}`), time.Minute); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, ok, err := c.Get(ctx, key)
		if err != nil || !ok {
			t.Fatalf("Get: ok=%v err=%v", ok, err)
		}
		if string(got) != `{"lanes":[]}` {
			t.Errorf("got %q", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		c := newCache(t)
		_ = c.Set(ctx, key, []byte("a"), time.Minute)
		_ = c.Set(ctx, key, []byte("b"), time.Minute)
		got, ok, _ := c.Get(ctx, key)
		if !ok || string(got) != "b" {
			t.Errorf("got %q ok=%v, want b", got, ok)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		c := newCache(t)
		_ = c.Set(ctx, key, []byte("a"), time.Minute)
		if err := c.Delete(ctx, key); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, ok, _ := c.Get(ctx, key); ok {
			t.Error("expected miss after delete")
		}
		if err := c.Delete(ctx, key); err != nil {
			t.Errorf("second Delete: %v", err)
		}
	})

	t.Run("DistinctKeys", func(t *testing.T) {
		c := newCache(t)
		_ = c.Set(ctx, key, []byte("true"), time.Minute)
		other := "layout:sm-1:2026-01-02T03:04:05.000000006Z:false"
		_ = c.Set(ctx, other, []byte("false"), time.Minute)
		a, _, _ := c.Get(ctx, key)
		b, _, _ := c.Get(ctx, other)
		if string(a) != "true" || string(b) != "false" {
			t.Errorf("keys collided: %q %q", a, b)
		}
	})
}
