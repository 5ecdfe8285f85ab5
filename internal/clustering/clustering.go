// Package clustering groups tracks into vibes by genre-tag similarity.
package clustering

import (
	"strings"
	"time"
)

// Tag is a weighted genre label attached to a track.
type Tag struct {
	Name  string
	Count int
}

// Track is a play with the genre tags of its artist.
type Track struct {
	ID       string
	Name     string
	Artist   string
	PlayedAt time.Time
	Tags     []Tag
}

// TagsFromGenres weights an ordered genre list so earlier genres count more.
// Blank entries are skipped.
func TagsFromGenres(genres []string) []Tag {
	tags := make([]Tag, 0, len(genres))
	for i, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		tags = append(tags, Tag{Name: g, Count: len(genres) - i})
	}
	return tags
}
