package spotify

import (
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-dashboard/internal/stats"
)

// PlayRecords converts recently-played items, keeping their order.
func PlayRecords(items []spotify.RecentlyPlayedItem) []stats.PlayRecord {
	out := make([]stats.PlayRecord, len(items))
	for i, item := range items {
		rec := convertSimpleTrack(item.Track)
		rec.PlayedAt = item.PlayedAt
		out[i] = rec
	}
	return out
}

// TrackRecords converts ranked top tracks. PlayedAt is left zero.
func TrackRecords(tracks []spotify.FullTrack) []stats.PlayRecord {
	out := make([]stats.PlayRecord, len(tracks))
	for i, t := range tracks {
		rec := convertSimpleTrack(t.SimpleTrack)
		rec.AlbumName = t.Album.Name
		rec.ImageURL = imageURL(t.Album.Images)
		out[i] = rec
	}
	return out
}

// convertSimpleTrack maps track identity, artists and duration. Album details
// come from the full track where the API provides one.
func convertSimpleTrack(t spotify.SimpleTrack) stats.PlayRecord {
	names := make([]string, len(t.Artists))
	ids := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
		ids[i] = a.ID.String()
	}

	return stats.PlayRecord{
		TrackID:     t.ID.String(),
		TrackName:   t.Name,
		ArtistNames: names,
		ArtistIDs:   ids,
		DurationMs:  int(t.Duration),
	}
}

// imageURL picks the first (largest) image.
func imageURL(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// JoinArtists renders artist names as "A, B, C".
func JoinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// NowPlaying is the normalized state of the user's player.
type NowPlaying struct {
	TrackID    string   `json:"trackId"`
	TrackName  string   `json:"trackName"`
	Artists    []string `json:"artists"`
	AlbumName  string   `json:"albumName"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	IsPlaying  bool     `json:"isPlaying"`
	ProgressMs int      `json:"progressMs"`
	DurationMs int      `json:"durationMs"`
	// Progress is ProgressMs/DurationMs in [0, 1].
	Progress float64 `json:"progress"`
}

// NowPlayingFrom converts a player response. It returns nil when cp or its
// item is nil.
func NowPlayingFrom(cp *spotify.CurrentlyPlaying) *NowPlaying {
	if cp == nil || cp.Item == nil {
		return nil
	}

	rec := convertSimpleTrack(cp.Item.SimpleTrack)
	np := &NowPlaying{
		TrackID:    rec.TrackID,
		TrackName:  rec.TrackName,
		Artists:    rec.ArtistNames,
		AlbumName:  cp.Item.Album.Name,
		ImageURL:   imageURL(cp.Item.Album.Images),
		IsPlaying:  cp.Playing,
		ProgressMs: int(cp.Progress),
		DurationMs: rec.DurationMs,
	}
	if np.DurationMs > 0 {
		np.Progress = min(float64(np.ProgressMs)/float64(np.DurationMs), 1)
	}
	return np
}
