package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// maxArtistsPerRequest is the Web API limit for the several-artists endpoint.
const maxArtistsPerRequest = 50

// ArtistGenres returns the genres Spotify lists for each artist ID. IDs the API
// does not return are absent from the map; artists without genres map to an
// empty slice. Duplicate IDs are requested once.
func (c *Client) ArtistGenres(ctx context.Context, artistIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(artistIDs))
	if len(artistIDs) == 0 {
		return result, nil
	}

	seen := make(map[string]bool, len(artistIDs))
	ids := make([]spotify.ID, 0, len(artistIDs))
	for _, id := range artistIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, spotify.ID(id))
	}

	total := len(ids)
	for i := 0; i < total; i += maxArtistsPerRequest {
		end := min(i+maxArtistsPerRequest, total)
		batch := ids[i:end]

		artists, err := c.api.GetArtists(ctx, batch...)
		if err != nil {
			return nil, c.wrap("artists", fmt.Errorf("batch %d-%d: %w", i+1, end, err))
		}

		for _, a := range artists {
			if a == nil {
				continue
			}
			genres := a.Genres
			if genres == nil {
				genres = []string{}
			}
			result[a.ID.String()] = genres
		}
	}

	c.ok("artists")
	return result, nil
}
