package tiered_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/StoryForge/internal/adapter/tiered"
	"github.com/Strob0t/StoryForge/internal/port/cache"
	"github.com/Strob0t/StoryForge/internal/port/cache/cachetest"
)

// level is a map-backed cache level. When down is set every call fails.
type level struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	down    bool
}

var errDown = errors.New("level down")

func newLevel(seed map[string]string) *level {
	l := &level{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
	for k, v := range seed {
		l.entries[k] = []byte(v)
	}
	return l
}

func (l *level) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	if l.down {
		return nil, false, errDown
	}
	data, ok = l.entries[key]
	return data, ok, nil
}

func (l *level) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if l.down {
		return errDown
	}
	l.entries[key] = value
	l.ttls[key] = ttl
	return nil
}

func (l *level) Delete(_ context.Context, key string) error {
	if l.down {
		return errDown
	}
	delete(l.entries, key)
	return nil
}

func TestTiered_Contract(t *testing.T) {
	cachetest.Run(t, func(*testing.T) cache.Cache {
		return tiered.New(newLevel(nil), newLevel(nil), time.Minute)
	})
}

func TestTiered_ContractWithoutL2(t *testing.T) {
	cachetest.Run(t, func(*testing.T) cache.Cache {
		return tiered.New(newLevel(nil), nil, time.Minute)
	})
}

func TestTiered_Get(t *testing.T) {
	tests := []struct {
		name      string
		l1, l2    map[string]string
		wantVal   string
		wantFound bool
		backfill  bool
	}{
		{name: "l1 hit", l1: map[string]string{"layout:m1": "a"}, l2: map[string]string{"layout:m1": "stale"}, wantVal: "a", wantFound: true},
		{name: "l2 hit", l2: map[string]string{"layout:m1": "b"}, wantVal: "b", wantFound: true, backfill: true},
		{name: "miss"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l1, l2 := newLevel(tt.l1), newLevel(tt.l2)
			c := tiered.New(l1, l2, 3*time.Minute)

			val, found, err := c.Get(context.Background(), "layout:m1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if found != tt.wantFound || string(val) != tt.wantVal {
				t.Fatalf("Get = %q, %v; want %q, %v", val, found, tt.wantVal, tt.wantFound)
			}
			if !tt.backfill {
				return
			}
			if string(l1.entries["layout:m1"]) != tt.wantVal {
				t.Errorf("l1 not backfilled: %q", l1.entries["layout:m1"])
			}
			if ttl := l1.ttls["layout:m1"]; ttl != 3*time.Minute {
				t.Errorf("backfill ttl = %v, want 3m", ttl)
			}
		})
	}
}

func TestTiered_WritesReachBothLevels(t *testing.T) {
	l1, l2 := newLevel(nil), newLevel(nil)
	c := tiered.New(l1, l2, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "layout:m2", []byte("board"), 30*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	for name, l := range map[string]*level{"l1": l1, "l2": l2} {
		if string(l.entries["layout:m2"]) != "board" || l.ttls["layout:m2"] != 30*time.Second {
			t.Errorf("%s after Set: %q ttl=%v", name, l.entries["layout:m2"], l.ttls["layout:m2"])
		}
	}

	if err := c.Delete(ctx, "layout:m2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(l1.entries)+len(l2.entries) != 0 {
		t.Errorf("entries survive Delete: l1=%v l2=%v", l1.entries, l2.entries)
	}
}

func TestTiered_L2OutageDegradesToL1(t *testing.T) {
	l2 := newLevel(nil)
	l2.down = true
	c := tiered.New(newLevel(nil), l2, time.Minute)
	ctx := context.Background()

	if _, found, err := c.Get(ctx, "k"); err != nil || found {
		t.Fatalf("Get = found %v, err %v; want quiet miss", found, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if val, found, _ := c.Get(ctx, "k"); !found || string(val) != "v" {
		t.Errorf("Get after Set = %q, %v", val, found)
	}
}

func TestTiered_L1FailureSurfaces(t *testing.T) {
	l1 := newLevel(nil)
	l1.down = true
	c := tiered.New(l1, newLevel(nil), time.Minute)

	if _, _, err := c.Get(context.Background(), "k"); !errors.Is(err, errDown) {
		t.Errorf("Get err = %v, want errDown", err)
	}
	if err := c.Set(context.Background(), "k", nil, time.Minute); !errors.Is(err, errDown) {
		t.Errorf("Set err = %v, want errDown", err)
	}
}
