package insight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/justestif/go-spotify-dashboard/internal/metrics"
	"github.com/justestif/go-spotify-dashboard/internal/store"
)

// Kind identifies an insight slot.
type Kind string

const (
	KindMood    Kind = "mood"
	KindWrapped Kind = "wrapped"
)

// TTL returns how long an entry of kind k stays valid.
func (k Kind) TTL() time.Duration {
	switch k {
	case KindMood:
		return 3 * time.Hour
	case KindWrapped:
		return 24 * time.Hour
	default:
		return 0
	}
}

// key is the persisted key for k.
func (k Kind) key() string {
	switch k {
	case KindMood:
		return "moodInsightCache"
	case KindWrapped:
		return "wrappedInsightCache"
	default:
		return string(k) + "InsightCache"
	}
}

// entry is the persisted shape of a cached insight.
type entry struct {
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"` // epoch ms
}

// Cache keeps one generated text per Kind in a store. Stale entries stay in
// place until the next Put overwrites them.
type Cache struct {
	kv  store.Store
	now func() time.Time
}

// NewCache creates a Cache over kv.
func NewCache(kv store.Store) *Cache {
	return &Cache{kv: kv, now: time.Now}
}

// Get returns the cached text for kind if it was written less than TTL ago.
// A missing, stale or unreadable entry reports false.
func (c *Cache) Get(ctx context.Context, kind Kind) (string, bool) {
	raw, err := c.kv.Get(ctx, kind.key())
	switch {
	case errors.Is(err, store.ErrNotFound):
		metrics.InsightCacheLookups.WithLabelValues(string(kind), "miss").Inc()
		return "", false
	case err != nil:
		metrics.InsightCacheLookups.WithLabelValues(string(kind), "error").Inc()
		return "", false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Text == "" {
		metrics.InsightCacheLookups.WithLabelValues(string(kind), "miss").Inc()
		return "", false
	}

	age := c.now().Sub(time.UnixMilli(e.CreatedAt))
	if age >= kind.TTL() {
		metrics.InsightCacheLookups.WithLabelValues(string(kind), "stale").Inc()
		return "", false
	}

	metrics.InsightCacheLookups.WithLabelValues(string(kind), "hit").Inc()
	return e.Text, true
}

// Put stores a Generated result with the current time. Fallback results are
// ignored so an earlier valid entry survives a failed generation.
func (c *Cache) Put(ctx context.Context, kind Kind, r Result) error {
	g, ok := r.(Generated)
	if !ok {
		return nil
	}

	data, err := json.Marshal(entry{Text: g.Content, CreatedAt: c.now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("encoding %s insight: %w", kind, err)
	}
	if err := c.kv.Set(ctx, kind.key(), data); err != nil {
		return fmt.Errorf("caching %s insight: %w", kind, err)
	}
	return nil
}
