// Package stats derives listening statistics from play history. Every function
// is pure and keeps input order where order matters.
package stats

import (
	"time"
)

// PlayRecord is one play from the recently-played feed, or a ranked top track.
type PlayRecord struct {
	TrackID     string    `json:"trackId"`
	TrackName   string    `json:"trackName"`
	ArtistNames []string  `json:"artistNames"`
	ArtistIDs   []string  `json:"artistIds,omitempty"`
	AlbumName   string    `json:"albumName,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	DurationMs  int       `json:"durationMs"`
	PlayedAt    time.Time `json:"playedAt"`
}

// PrimaryArtist returns the first credited artist, or "" if there is none.
func (p PlayRecord) PrimaryArtist() string {
	if len(p.ArtistNames) == 0 {
		return ""
	}
	return p.ArtistNames[0]
}

// PrimaryArtistID returns the first credited artist's ID, or "".
func (p PlayRecord) PrimaryArtistID() string {
	if len(p.ArtistIDs) == 0 {
		return ""
	}
	return p.ArtistIDs[0]
}

// TrackCount is a track with the number of times it was played. Track holds
// the attributes of the first occurrence.
type TrackCount struct {
	Track     PlayRecord `json:"track"`
	PlayCount int        `json:"playCount"`
}

// TrackTally maps track IDs to play counts in first-seen order.
type TrackTally struct {
	entries []TrackCount
	index   map[string]int
}

// Tally deduplicates plays by track ID, counting repeats.
func Tally(plays []PlayRecord) *TrackTally {
	t := &TrackTally{index: make(map[string]int)}
	for _, p := range plays {
		if i, ok := t.index[p.TrackID]; ok {
			t.entries[i].PlayCount++
			continue
		}
		t.index[p.TrackID] = len(t.entries)
		t.entries = append(t.entries, TrackCount{Track: p, PlayCount: 1})
	}
	return t
}

// Entries returns the tallied tracks in first-seen order.
func (t *TrackTally) Entries() []TrackCount {
	return t.entries
}

// Len is the number of distinct tracks.
func (t *TrackTally) Len() int {
	return len(t.entries)
}

// Get returns the entry for trackID.
func (t *TrackTally) Get(trackID string) (TrackCount, bool) {
	i, ok := t.index[trackID]
	if !ok {
		return TrackCount{}, false
	}
	return t.entries[i], true
}

// PlayCountOf returns how many times trackID was played, 0 if never.
func (t *TrackTally) PlayCountOf(trackID string) int {
	e, _ := t.Get(trackID)
	return e.PlayCount
}

// Top returns the most played track. Ties go to the track seen first.
func (t *TrackTally) Top() (TrackCount, bool) {
	if len(t.entries) == 0 {
		return TrackCount{}, false
	}
	best := t.entries[0]
	for _, e := range t.entries[1:] {
		if e.PlayCount > best.PlayCount {
			best = e
		}
	}
	return best, true
}

// ArtistCount is a primary artist with the number of plays crediting them first.
type ArtistCount struct {
	Name      string `json:"name"`
	ID        string `json:"id,omitempty"`
	PlayCount int    `json:"playCount"`
}

// TallyArtists counts plays per primary artist in first-seen order. Plays
// without an artist are skipped.
func TallyArtists(plays []PlayRecord) []ArtistCount {
	index := make(map[string]int)
	var out []ArtistCount
	for _, p := range plays {
		name := p.PrimaryArtist()
		if name == "" {
			continue
		}
		if i, ok := index[name]; ok {
			out[i].PlayCount++
			continue
		}
		index[name] = len(out)
		out = append(out, ArtistCount{Name: name, ID: p.PrimaryArtistID(), PlayCount: 1})
	}
	return out
}

// UniqueArtists returns the distinct primary artist names in first-seen order.
func UniqueArtists(plays []PlayRecord) []string {
	counts := TallyArtists(plays)
	names := make([]string, len(counts))
	for i, c := range counts {
		names[i] = c.Name
	}
	return names
}

// UniqueGenres flattens genre lists, dropping repeats and empty strings while
// keeping first-seen order.
func UniqueGenres(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, g := range list {
			if g == "" || seen[g] {
				continue
			}
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// TopN returns the first n items. The input is assumed to be ranked already.
func TopN[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// SinceMidnight keeps plays at or after local midnight of now's day, in now's
// location.
func SinceMidnight(plays []PlayRecord, now time.Time) []PlayRecord {
	midnight := Midnight(now)
	out := make([]PlayRecord, 0, len(plays))
	for _, p := range plays {
		if !p.PlayedAt.Before(midnight) {
			out = append(out, p)
		}
	}
	return out
}

// Midnight returns the start of now's day in now's location.
func Midnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
