package clustering

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// VibeConfig controls DetectVibes.
type VibeConfig struct {
	NumClusters    int // k for k-means, default 3
	MinClusterSize int // smaller clusters are returned as outliers
	MaxTags        int // vector dimensions, default 50
}

// DefaultVibeConfig returns the settings used for listening history.
func DefaultVibeConfig() VibeConfig {
	return VibeConfig{NumClusters: 3, MinClusterSize: 3, MaxTags: 50}
}

// Vibe is a cluster of tracks with similar tags.
type Vibe struct {
	Name    string   // e.g. "indie rock & dream pop"
	TopTags []string // at most 3, strongest first
	Tracks  []Track  // most recent play first
	Share   float64  // of all tagged tracks
}

// point places a track in tag space for the kmeans package.
type point struct {
	track  *Track
	coords clusters.Coordinates
}

func (p point) Coordinates() clusters.Coordinates { return p.coords }

func (p point) Distance(c clusters.Coordinates) float64 { return p.coords.Distance(c) }

// DetectVibes clusters tracks by tag similarity. Vibes come back largest
// first. Untagged tracks, members of undersized clusters, and everything when
// there are fewer tagged tracks than clusters are returned as outliers.
func DetectVibes(tracks []Track, cfg VibeConfig) ([]Vibe, []Track) {
	if len(tracks) == 0 {
		return nil, nil
	}
	def := DefaultVibeConfig()
	cfg.NumClusters = cmp.Or(max(cfg.NumClusters, 0), def.NumClusters)
	cfg.MaxTags = cmp.Or(max(cfg.MaxTags, 0), def.MaxTags)

	var tagged []*Track
	var untagged []Track
	for i := range tracks {
		if len(tracks[i].Tags) == 0 {
			untagged = append(untagged, tracks[i])
			continue
		}
		tagged = append(tagged, &tracks[i])
	}

	space := newTagSpace(tagged, cfg.MaxTags)
	if len(tagged) < cfg.NumClusters || space.dims() == 0 {
		return nil, slices.Clone(tracks)
	}

	obs := make(clusters.Observations, 0, len(tagged))
	for _, t := range tagged {
		obs = append(obs, point{track: t, coords: space.vector(t)})
	}
	parts, err := kmeans.New().Partition(obs, cfg.NumClusters)
	if err != nil {
		return nil, slices.Clone(tracks)
	}

	var vibes []Vibe
	var outliers []Track
	for _, part := range parts {
		members := make([]Track, 0, len(part.Observations))
		for _, o := range part.Observations {
			members = append(members, *o.(point).track)
		}
		switch {
		case len(members) == 0:
			continue
		case len(members) < cfg.MinClusterSize:
			outliers = append(outliers, members...)
			continue
		}

		slices.SortStableFunc(members, func(a, b Track) int {
			return b.PlayedAt.Compare(a.PlayedAt)
		})
		top := space.strongest(part.Center, 3)
		vibes = append(vibes, Vibe{
			Name:    vibeName(top),
			TopTags: top,
			Tracks:  members,
			Share:   float64(len(members)) / float64(len(tagged)),
		})
	}

	slices.SortStableFunc(vibes, func(a, b Vibe) int {
		return cmp.Or(
			cmp.Compare(len(b.Tracks), len(a.Tracks)),
			strings.Compare(a.Name, b.Name),
		)
	})
	return vibes, append(outliers, untagged...)
}

// DominantVibe names the largest vibe among tracks, or "" when no track
// carries tags. Small inputs are clustered with fewer, smaller clusters.
func DominantVibe(tracks []Track) string {
	n := 0
	for _, t := range tracks {
		if len(t.Tags) > 0 {
			n++
		}
	}
	if n == 0 {
		return ""
	}

	cfg := DefaultVibeConfig()
	cfg.NumClusters = min(cfg.NumClusters, n)
	cfg.MinClusterSize = 1

	if vibes, _ := DetectVibes(tracks, cfg); len(vibes) > 0 {
		return vibes[0].Name
	}
	return ""
}

// tagSpace is the vocabulary the track vectors are built over: the most
// weighted lowercased tags across a set of tracks.
type tagSpace struct {
	names []string
	index map[string]int
}

func newTagSpace(tracks []*Track, limit int) tagSpace {
	weight := make(map[string]int)
	for _, t := range tracks {
		for _, tag := range t.Tags {
			weight[strings.ToLower(tag.Name)] += tag.Count
		}
	}

	names := slices.SortedFunc(maps.Keys(weight), func(a, b string) int {
		return cmp.Or(cmp.Compare(weight[b], weight[a]), strings.Compare(a, b))
	})
	names = names[:min(limit, len(names))]

	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	return tagSpace{names: names, index: index}
}

func (s tagSpace) dims() int { return len(s.names) }

// vector scales a track's tag weights so its strongest tag is 1.
func (s tagSpace) vector(t *Track) clusters.Coordinates {
	peak := 1
	for _, tag := range t.Tags {
		peak = max(peak, tag.Count)
	}
	v := make(clusters.Coordinates, len(s.names))
	for _, tag := range t.Tags {
		if i, ok := s.index[strings.ToLower(tag.Name)]; ok {
			v[i] = float64(tag.Count) / float64(peak)
		}
	}
	return v
}

// strongest returns up to n tag names with positive weight in centroid,
// heaviest first.
func (s tagSpace) strongest(centroid clusters.Coordinates, n int) []string {
	dims := make([]int, 0, len(s.names))
	for i := range s.names {
		if i < len(centroid) && centroid[i] > 0 {
			dims = append(dims, i)
		}
	}
	slices.SortStableFunc(dims, func(a, b int) int {
		return cmp.Compare(centroid[b], centroid[a])
	})

	out := make([]string, 0, min(n, len(dims)))
	for _, i := range dims[:min(n, len(dims))] {
		out = append(out, s.names[i])
	}
	return out
}

func vibeName(top []string) string {
	if len(top) == 0 {
		return "Mixed"
	}
	return strings.Join(top, " & ")
}
