package insight

import (
	"context"
	"testing"
	"time"

	"github.com/justestif/go-spotify-dashboard/internal/store"
)

func newTestCache(now time.Time) (*Cache, *time.Time) {
	c := NewCache(store.NewMemory())
	clock := now
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestCacheTTLBoundary(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for _, kind := range []Kind{KindMood, KindWrapped} {
		t.Run(string(kind), func(t *testing.T) {
			c, clock := newTestCache(base)
			if err := c.Put(ctx, kind, Generated{Content: "hello"}); err != nil {
				t.Fatalf("Put: %v", err)
			}

			*clock = base.Add(kind.TTL() - time.Millisecond)
			if got, ok := c.Get(ctx, kind); !ok || got != "hello" {
				t.Errorf("just before TTL: got %q, %v; want hello, true", got, ok)
			}

			*clock = base.Add(kind.TTL())
			if _, ok := c.Get(ctx, kind); ok {
				t.Error("entry at exactly TTL should be stale")
			}
		})
	}
}

func TestCacheTTLs(t *testing.T) {
	if got := KindMood.TTL(); got != 3*time.Hour {
		t.Errorf("mood TTL = %v, want 3h", got)
	}
	if got := KindWrapped.TTL(); got != 24*time.Hour {
		t.Errorf("wrapped TTL = %v, want 24h", got)
	}
}

func TestCacheIgnoresFallback(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	c, clock := newTestCache(base)

	if err := c.Put(ctx, KindMood, Generated{Content: "first"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	*clock = base.Add(time.Hour)
	if err := c.Put(ctx, KindMood, Fallback{Content: MoodFallback}); err != nil {
		t.Fatalf("Put fallback: %v", err)
	}

	got, ok := c.Get(ctx, KindMood)
	if !ok || got != "first" {
		t.Errorf("Get = %q, %v; want earlier generated entry", got, ok)
	}
}

func TestCacheFallbackOnEmptyIsNotStored(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	c := NewCache(kv)

	if err := c.Put(ctx, KindWrapped, Fallback{Content: WrappedFallback}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := kv.Get(ctx, "wrappedInsightCache"); err != store.ErrNotFound {
		t.Errorf("store Get err = %v, want ErrNotFound", err)
	}
}

func TestCacheKindsAreIndependent(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(time.Now())

	if err := c.Put(ctx, KindMood, Generated{Content: "mood"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := c.Get(ctx, KindWrapped); ok {
		t.Error("wrapped should miss after only mood was stored")
	}
}

func TestCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	if err := kv.Set(ctx, "moodInsightCache", []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	if _, ok := NewCache(kv).Get(ctx, KindMood); ok {
		t.Error("corrupt entry should miss")
	}
}

func TestSource(t *testing.T) {
	if got := Source(Generated{Content: "x"}); got != "generated" {
		t.Errorf("Source(Generated) = %q", got)
	}
	if got := Source(Fallback{Content: "x"}); got != "fallback" {
		t.Errorf("Source(Fallback) = %q", got)
	}
}
