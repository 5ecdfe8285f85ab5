// Package tags resolves genre labels for artists. Catalog genres come first;
// Last.fm artist tags fill in for artists the catalog has none for.
package tags

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-dashboard/internal/lastfm"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
	"github.com/justestif/go-spotify-dashboard/internal/store"
)

// Source indicates where an artist's genres came from.
type Source string

const (
	// SourceCatalog means genres came from the catalog artist record.
	SourceCatalog Source = "catalog"
	// SourceLastFM means genres came from Last.fm artist.getTopTags (fallback).
	SourceLastFM Source = "lastfm"
	// SourceNone means no genres were found.
	SourceNone Source = "none"
)

const (
	// DefaultConcurrency bounds parallel Last.fm lookups.
	DefaultConcurrency = 5

	// MaxGenres is the number of genres kept per artist.
	MaxGenres = 3
)

// Artist is the minimal artist info needed for genre lookup.
type Artist struct {
	ID   string
	Name string
}

// GenreSource provides catalog genres by artist ID.
type GenreSource interface {
	ArtistGenres(ctx context.Context, artistIDs []string) (map[string][]string, error)
}

// TagFetcher abstracts the Last.fm client for testing.
type TagFetcher interface {
	ArtistTags(ctx context.Context, artist string) ([]lastfm.Tag, error)
}

// Resolver looks up genres for artists with persistent caching.
type Resolver struct {
	catalog     GenreSource
	fallback    TagFetcher
	cache       genreCache
	concurrency int
	logger      *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConcurrency sets the number of concurrent Last.fm lookups.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithFallback sets the Last.fm tag source. Without it, artists lacking
// catalog genres resolve to none.
func WithFallback(f TagFetcher) Option {
	return func(r *Resolver) {
		r.fallback = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		r.logger = shared.WithLogger(l, "component", "tags")
	}
}

// NewResolver creates a Resolver backed by catalog and kv.
func NewResolver(catalog GenreSource, kv store.Store, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:     catalog,
		cache:       genreCache{kv: kv, now: time.Now},
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = shared.WithLogger(shared.NewLogger(nil), "component", "tags")
	}
	return r
}

// GenresForArtists returns up to MaxGenres genres per artist ID. Artists with
// no known genres map to an empty slice. A catalog failure fails the call;
// individual Last.fm failures only leave that artist empty and uncached.
func (r *Resolver) GenresForArtists(ctx context.Context, artists []Artist) (map[string][]string, error) {
	result := make(map[string][]string, len(artists))

	var misses []Artist
	seen := make(map[string]bool, len(artists))
	for _, a := range artists {
		if a.ID == "" || seen[a.ID] {
			continue
		}
		seen[a.ID] = true

		cached, ok, err := r.cache.get(ctx, a.ID)
		if err != nil {
			r.logger.Warn("genre cache lookup failed", "artist", a.ID, "err", err)
		}
		if ok {
			result[a.ID] = cached.Genres
			continue
		}
		misses = append(misses, a)
	}

	if len(misses) == 0 {
		return result, nil
	}

	ids := make([]string, len(misses))
	for i, a := range misses {
		ids[i] = a.ID
	}
	catalogGenres, err := r.catalog.ArtistGenres(ctx, ids)
	if err != nil {
		return nil, err
	}

	var needFallback []Artist
	for _, a := range misses {
		if g := normalize(catalogGenres[a.ID]); len(g) > 0 {
			result[a.ID] = g
			r.store(ctx, a.ID, g, SourceCatalog)
			continue
		}
		if r.fallback == nil {
			result[a.ID] = []string{}
			r.store(ctx, a.ID, []string{}, SourceNone)
			continue
		}
		needFallback = append(needFallback, a)
	}

	for _, fr := range r.fetchFallback(ctx, needFallback) {
		if fr.err != nil {
			r.logger.Debug("last.fm lookup failed", "artist", fr.artist.Name, "err", fr.err)
			result[fr.artist.ID] = []string{}
			continue
		}

		source := SourceLastFM
		if len(fr.genres) == 0 {
			source = SourceNone
		}
		result[fr.artist.ID] = fr.genres
		r.store(ctx, fr.artist.ID, fr.genres, source)
	}

	return result, ctx.Err()
}

func (r *Resolver) store(ctx context.Context, artistID string, genres []string, source Source) {
	if err := r.cache.put(ctx, artistID, genres, source); err != nil {
		r.logger.Warn("caching genres failed", "artist", artistID, "err", err)
	}
}

type fallbackResult struct {
	artist Artist
	genres []string
	err    error
}

// fetchFallback looks up Last.fm tags for artists with a worker pool.
// Results are returned in input order.
func (r *Resolver) fetchFallback(ctx context.Context, artists []Artist) []fallbackResult {
	if len(artists) == 0 {
		return nil
	}

	results := make([]fallbackResult, len(artists))

	type workItem struct {
		index  int
		artist Artist
	}
	workCh := make(chan workItem, len(artists))
	for i, a := range artists {
		workCh <- workItem{index: i, artist: a}
	}
	close(workCh)

	var wg sync.WaitGroup
	for i := 0; i < min(r.concurrency, len(artists)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				if err := ctx.Err(); err != nil {
					results[work.index] = fallbackResult{artist: work.artist, err: err}
					continue
				}

				tags, err := r.fallback.ArtistTags(ctx, work.artist.Name)
				res := fallbackResult{artist: work.artist, err: err}
				if err == nil {
					names := make([]string, len(tags))
					for j, t := range tags {
						names[j] = t.Name
					}
					res.genres = normalize(names)
				}
				results[work.index] = res
			}
		}()
	}

	wg.Wait()
	return results
}

// normalize lowercases, trims and dedupes genres, keeping at most MaxGenres.
func normalize(genres []string) []string {
	out := make([]string, 0, min(len(genres), MaxGenres))
	seen := make(map[string]bool, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
		if len(out) == MaxGenres {
			break
		}
	}
	return out
}
