package spotify

import (
	"context"

	"github.com/zmb3/spotify/v2"
)

// Profile returns the current user's profile.
func (c *Client) Profile(ctx context.Context) (*spotify.PrivateUser, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, c.wrap("profile", err)
	}
	c.ok("profile")
	return user, nil
}

// TopTracks returns the user's ranked top tracks for r.
func (c *Client) TopTracks(ctx context.Context, r TimeRange, limit int) ([]spotify.FullTrack, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx, spotify.Timerange(r.apiRange()), spotify.Limit(clampLimit(limit)))
	if err != nil {
		return nil, c.wrap("top_tracks", err)
	}
	c.ok("top_tracks")
	return page.Tracks, nil
}

// TopArtists returns the user's ranked top artists for r.
func (c *Client) TopArtists(ctx context.Context, r TimeRange, limit int) ([]spotify.FullArtist, error) {
	page, err := c.api.CurrentUsersTopArtists(ctx, spotify.Timerange(r.apiRange()), spotify.Limit(clampLimit(limit)))
	if err != nil {
		return nil, c.wrap("top_artists", err)
	}
	c.ok("top_artists")
	return page.Artists, nil
}

// RecentlyPlayed returns up to limit plays, most recent first.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]spotify.RecentlyPlayedItem, error) {
	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: spotify.Numeric(clampLimit(limit))})
	if err != nil {
		return nil, c.wrap("recently_played", err)
	}
	c.ok("recently_played")
	return items, nil
}

// CurrentlyPlaying returns the item on the user's player, or nil when nothing
// is playing. "No content" and API error statuses both mean nothing is
// playing; transport and authorization failures are returned as errors.
func (c *Client) CurrentlyPlaying(ctx context.Context) (*spotify.CurrentlyPlaying, error) {
	cp, err := c.api.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		if _, isAPI := apiStatus(err); isAPI {
			c.ok("currently_playing")
			return nil, nil
		}
		return nil, c.wrap("currently_playing", err)
	}
	c.ok("currently_playing")
	if cp == nil || cp.Item == nil {
		return nil, nil
	}
	return cp, nil
}
