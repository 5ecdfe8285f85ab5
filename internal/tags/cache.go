package tags

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/justestif/go-spotify-dashboard/internal/store"
)

// CacheTTL is the duration after which cached genres are considered stale.
const CacheTTL = 30 * 24 * time.Hour // 30 days

// cachedGenres is the persisted shape of one artist's genres.
type cachedGenres struct {
	Genres    []string `json:"genres"`
	Source    Source   `json:"source"`
	FetchedAt int64    `json:"fetchedAt"` // epoch ms
}

func cacheKey(artistID string) string {
	return "genres:" + artistID
}

// genreCache persists resolved genres in a store. Stale entries are left for
// the next write to replace.
type genreCache struct {
	kv  store.Store
	now func() time.Time
}

// get returns a fresh entry for artistID.
func (c *genreCache) get(ctx context.Context, artistID string) (cachedGenres, bool, error) {
	raw, err := c.kv.Get(ctx, cacheKey(artistID))
	if errors.Is(err, store.ErrNotFound) {
		return cachedGenres{}, false, nil
	}
	if err != nil {
		return cachedGenres{}, false, fmt.Errorf("reading cached genres: %w", err)
	}

	var e cachedGenres
	if err := json.Unmarshal(raw, &e); err != nil {
		return cachedGenres{}, false, nil
	}
	if c.now().Sub(time.UnixMilli(e.FetchedAt)) >= CacheTTL {
		return cachedGenres{}, false, nil
	}
	return e, true, nil
}

func (c *genreCache) put(ctx context.Context, artistID string, genres []string, source Source) error {
	data, err := json.Marshal(cachedGenres{
		Genres:    genres,
		Source:    source,
		FetchedAt: c.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encoding genres: %w", err)
	}
	if err := c.kv.Set(ctx, cacheKey(artistID), data); err != nil {
		return fmt.Errorf("caching genres: %w", err)
	}
	return nil
}
