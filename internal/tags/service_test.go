package tags

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justestif/go-spotify-dashboard/internal/lastfm"
	"github.com/justestif/go-spotify-dashboard/internal/store"
)

// mockCatalog implements GenreSource for testing.
type mockCatalog struct {
	genres map[string][]string
	err    error

	mu    sync.Mutex
	calls [][]string
}

func (m *mockCatalog) ArtistGenres(_ context.Context, ids []string) (map[string][]string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ids)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string][]string)
	for _, id := range ids {
		if g, ok := m.genres[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

// mockFetcher implements TagFetcher for testing.
type mockFetcher struct {
	// tags maps artist name to tags
	tags map[string][]lastfm.Tag
	// errors maps artist name to errors
	errors map[string]error
	// callCount tracks number of ArtistTags calls
	callCount atomic.Int32
	// delay simulates network latency
	delay time.Duration
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		tags:   make(map[string][]lastfm.Tag),
		errors: make(map[string]error),
	}
}

func (m *mockFetcher) ArtistTags(ctx context.Context, artist string) ([]lastfm.Tag, error) {
	m.callCount.Add(1)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err, ok := m.errors[artist]; ok {
		return nil, err
	}
	if tags, ok := m.tags[artist]; ok {
		return tags, nil
	}
	return []lastfm.Tag{}, nil
}

func TestGenresForArtists_Empty(t *testing.T) {
	catalog := &mockCatalog{}
	r := NewResolver(catalog, store.NewMemory())

	got, err := r.GenresForArtists(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	if len(catalog.calls) != 0 {
		t.Errorf("expected no catalog calls, got %d", len(catalog.calls))
	}
}

func TestGenresForArtists_CatalogFirst(t *testing.T) {
	catalog := &mockCatalog{genres: map[string][]string{
		"a1": {"Indie Rock", "indie rock", "Dream Pop", "shoegaze", "noise pop"},
	}}
	fetcher := newMockFetcher()
	r := NewResolver(catalog, store.NewMemory(), WithFallback(fetcher))

	got, err := r.GenresForArtists(context.Background(), []Artist{{ID: "a1", Name: "Beach House"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"indie rock", "dream pop", "shoegaze"}
	if len(got["a1"]) != len(want) {
		t.Fatalf("genres = %v, want %v", got["a1"], want)
	}
	for i := range want {
		if got["a1"][i] != want[i] {
			t.Errorf("genres[%d] = %q, want %q", i, got["a1"][i], want[i])
		}
	}
	if fetcher.callCount.Load() != 0 {
		t.Errorf("Last.fm should not be called when the catalog has genres")
	}
}

func TestGenresForArtists_LastFMFallback(t *testing.T) {
	catalog := &mockCatalog{genres: map[string][]string{"a1": {"rock"}}}
	fetcher := newMockFetcher()
	fetcher.tags["Obscure Band"] = []lastfm.Tag{{Name: "Post-Rock", Count: 100}, {Name: "ambient", Count: 50}}
	fetcher.errors["Broken"] = errors.New("API error")

	r := NewResolver(catalog, store.NewMemory(), WithFallback(fetcher), WithConcurrency(2))

	got, err := r.GenresForArtists(context.Background(), []Artist{
		{ID: "a1", Name: "Known"},
		{ID: "a2", Name: "Obscure Band"},
		{ID: "a3", Name: "Broken"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got["a1"]) != 1 || got["a1"][0] != "rock" {
		t.Errorf("a1 = %v", got["a1"])
	}
	if len(got["a2"]) != 2 || got["a2"][0] != "post-rock" {
		t.Errorf("a2 = %v", got["a2"])
	}
	if g, ok := got["a3"]; !ok || len(g) != 0 {
		t.Errorf("a3 = %v, %v; want empty", g, ok)
	}
	if n := fetcher.callCount.Load(); n != 2 {
		t.Errorf("Last.fm calls = %d, want 2", n)
	}
}

func TestGenresForArtists_UsesCache(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	catalog := &mockCatalog{genres: map[string][]string{"a1": {"jazz"}}}
	r := NewResolver(catalog, kv)

	for range 2 {
		got, err := r.GenresForArtists(ctx, []Artist{{ID: "a1"}, {ID: "a1"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got["a1"]) != 1 {
			t.Errorf("a1 = %v", got["a1"])
		}
	}

	if len(catalog.calls) != 1 {
		t.Errorf("catalog calls = %d, want 1", len(catalog.calls))
	}
	if len(catalog.calls[0]) != 1 {
		t.Errorf("duplicate IDs should be collapsed, got %v", catalog.calls[0])
	}
	if _, err := kv.Get(ctx, "genres:a1"); err != nil {
		t.Errorf("expected genres:a1 in store, got %v", err)
	}
}

func TestGenresForArtists_StaleCacheRefetches(t *testing.T) {
	ctx := context.Background()
	catalog := &mockCatalog{genres: map[string][]string{"a1": {"jazz"}}}
	r := NewResolver(catalog, store.NewMemory())

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.cache.now = func() time.Time { return now }

	if _, err := r.GenresForArtists(ctx, []Artist{{ID: "a1"}}); err != nil {
		t.Fatal(err)
	}

	now = now.Add(CacheTTL - time.Millisecond)
	if _, err := r.GenresForArtists(ctx, []Artist{{ID: "a1"}}); err != nil {
		t.Fatal(err)
	}
	if len(catalog.calls) != 1 {
		t.Fatalf("fresh entry refetched: calls = %d", len(catalog.calls))
	}

	now = now.Add(time.Millisecond)
	if _, err := r.GenresForArtists(ctx, []Artist{{ID: "a1"}}); err != nil {
		t.Fatal(err)
	}
	if len(catalog.calls) != 2 {
		t.Errorf("stale entry not refetched: calls = %d", len(catalog.calls))
	}
}

func TestGenresForArtists_FailedFallbackNotCached(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	fetcher := newMockFetcher()
	fetcher.errors["Flaky"] = errors.New("timeout")

	r := NewResolver(&mockCatalog{}, kv, WithFallback(fetcher))
	if _, err := r.GenresForArtists(ctx, []Artist{{ID: "a1", Name: "Flaky"}}); err != nil {
		t.Fatal(err)
	}

	if _, err := kv.Get(ctx, "genres:a1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("failed lookup was cached: %v", err)
	}
}

func TestGenresForArtists_CatalogError(t *testing.T) {
	boom := errors.New("catalog down")
	r := NewResolver(&mockCatalog{err: boom}, store.NewMemory())

	_, err := r.GenresForArtists(context.Background(), []Artist{{ID: "a1"}})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestGenresForArtists_ContextCancellation(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.delay = 100 * time.Millisecond

	r := NewResolver(&mockCatalog{}, store.NewMemory(), WithFallback(fetcher), WithConcurrency(2))

	artists := make([]Artist, 10)
	for i := range artists {
		artists[i] = Artist{ID: string(rune('a' + i)), Name: "Artist"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.GenresForArtists(ctx, artists)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if n := fetcher.callCount.Load(); n > 4 {
		t.Errorf("expected cancellation to stop work early, got %d calls", n)
	}
}

func TestGenresForArtists_Concurrency(t *testing.T) {
	var active, peak atomic.Int32
	fetcher := &concurrencyFetcher{active: &active, peak: &peak}

	r := NewResolver(&mockCatalog{}, store.NewMemory(), WithFallback(fetcher), WithConcurrency(3))

	artists := make([]Artist, 12)
	for i := range artists {
		artists[i] = Artist{ID: string(rune('a' + i)), Name: string(rune('A' + i))}
	}

	if _, err := r.GenresForArtists(context.Background(), artists); err != nil {
		t.Fatal(err)
	}
	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", p)
	}
}

type concurrencyFetcher struct {
	active, peak *atomic.Int32
}

func (c *concurrencyFetcher) ArtistTags(context.Context, string) ([]lastfm.Tag, error) {
	n := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return []lastfm.Tag{{Name: "rock"}}, nil
}
