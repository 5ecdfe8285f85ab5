package clustering

import (
	"slices"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
}

func tagged(id string, played int, tags ...Tag) Track {
	return Track{ID: id, Name: "Track " + id, Artist: "Artist", PlayedAt: day(played), Tags: tags}
}

func ids(tracks []Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func TestDetectVibes_Degenerate(t *testing.T) {
	tests := []struct {
		name         string
		tracks       []Track
		cfg          VibeConfig
		wantOutliers int
	}{
		{name: "no tracks", cfg: DefaultVibeConfig()},
		{
			name:         "no tags",
			tracks:       []Track{{ID: "1"}, {ID: "2"}},
			cfg:          DefaultVibeConfig(),
			wantOutliers: 2,
		},
		{
			name: "fewer tagged tracks than clusters",
			tracks: []Track{
				tagged("1", 1, Tag{Name: "rock", Count: 100}),
				tagged("2", 2, Tag{Name: "jazz", Count: 100}),
				{ID: "3"},
			},
			cfg:          VibeConfig{NumClusters: 3, MinClusterSize: 1},
			wantOutliers: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vibes, outliers := DetectVibes(tt.tracks, tt.cfg)
			if len(vibes) != 0 {
				t.Errorf("vibes = %v, want none", vibes)
			}
			if len(outliers) != tt.wantOutliers {
				t.Errorf("outliers = %d, want %d", len(outliers), tt.wantOutliers)
			}
		})
	}
}

func TestDetectVibes_SingleTrack(t *testing.T) {
	tracks := []Track{tagged("1", 1, Tag{Name: "rock", Count: 100})}

	vibes, outliers := DetectVibes(tracks, VibeConfig{NumClusters: 1, MinClusterSize: 1})

	if len(vibes) != 1 || len(outliers) != 0 {
		t.Fatalf("got %d vibes and %d outliers, want 1 and 0", len(vibes), len(outliers))
	}
	if vibes[0].Name != "rock" || vibes[0].Share != 1 {
		t.Errorf("vibe = %+v", vibes[0])
	}
}

func TestDetectVibes_SeparatesDistinctProfiles(t *testing.T) {
	tracks := []Track{
		tagged("r1", 1, Tag{Name: "rock", Count: 100}, Tag{Name: "guitar", Count: 80}),
		tagged("r2", 2, Tag{Name: "rock", Count: 95}, Tag{Name: "guitar", Count: 75}),
		tagged("r3", 3, Tag{Name: "rock", Count: 90}, Tag{Name: "guitar", Count: 70}),
		tagged("e1", 4, Tag{Name: "electronic", Count: 100}, Tag{Name: "dance", Count: 90}),
		tagged("e2", 5, Tag{Name: "electronic", Count: 95}, Tag{Name: "dance", Count: 85}),
		tagged("e3", 6, Tag{Name: "electronic", Count: 90}, Tag{Name: "dance", Count: 80}),
	}

	vibes, outliers := DetectVibes(tracks, VibeConfig{NumClusters: 2, MinClusterSize: 3})

	if len(vibes) != 2 {
		t.Fatalf("got %d vibes, want 2", len(vibes))
	}
	if len(outliers) != 0 {
		t.Errorf("outliers = %v", ids(outliers))
	}
	for _, v := range vibes {
		got := ids(v.Tracks)
		slices.Sort(got)
		if !slices.Equal(got, []string{"e1", "e2", "e3"}) && !slices.Equal(got, []string{"r1", "r2", "r3"}) {
			t.Errorf("vibe %q mixes profiles: %v", v.Name, got)
		}
		if len(v.TopTags) != 2 {
			t.Errorf("vibe %q top tags = %v", v.Name, v.TopTags)
		}
	}
}

func TestDetectVibes_UndersizedClusterBecomesOutliers(t *testing.T) {
	tracks := []Track{
		tagged("1", 1, Tag{Name: "rock", Count: 100}),
		tagged("2", 2, Tag{Name: "rock", Count: 95}),
		tagged("3", 3, Tag{Name: "rock", Count: 90}),
		tagged("4", 4, Tag{Name: "rock", Count: 85}),
		tagged("jazz", 5, Tag{Name: "jazz", Count: 100}),
		{ID: "bare"},
	}

	_, outliers := DetectVibes(tracks, VibeConfig{NumClusters: 2, MinClusterSize: 3})

	got := ids(outliers)
	if !slices.Contains(got, "jazz") || !slices.Contains(got, "bare") {
		t.Errorf("outliers = %v, want jazz and bare", got)
	}
}

func TestDetectVibes_LargestFirstAndTracksByRecency(t *testing.T) {
	tracks := []Track{
		tagged("j1", 1, Tag{Name: "jazz", Count: 100}),
		tagged("j2", 2, Tag{Name: "jazz", Count: 90}),
		tagged("j3", 3, Tag{Name: "jazz", Count: 80}),
		tagged("r1", 4, Tag{Name: "rock", Count: 100}),
		tagged("r2", 6, Tag{Name: "rock", Count: 95}),
		tagged("r3", 5, Tag{Name: "rock", Count: 90}),
		tagged("r4", 7, Tag{Name: "rock", Count: 85}),
	}

	vibes, _ := DetectVibes(tracks, VibeConfig{NumClusters: 2, MinClusterSize: 1})
	if len(vibes) != 2 {
		t.Skipf("clustering produced %d vibes, need 2 to check ordering", len(vibes))
	}

	if vibes[0].Name != "rock" {
		t.Errorf("largest vibe = %q, want rock", vibes[0].Name)
	}
	if got := ids(vibes[0].Tracks); !slices.Equal(got, []string{"r4", "r2", "r3", "r1"}) {
		t.Errorf("rock tracks = %v, want most recent first", got)
	}
	if vibes[0].Share <= vibes[1].Share {
		t.Errorf("share not descending: %v, %v", vibes[0].Share, vibes[1].Share)
	}
}

func TestTagSpace(t *testing.T) {
	tracks := []*Track{
		{Tags: []Tag{{Name: "Rock", Count: 100}, {Name: "Indie", Count: 50}}},
		{Tags: []Tag{{Name: "rock", Count: 80}, {Name: "alternative", Count: 60}}},
		{Tags: []Tag{{Name: "ROCK", Count: 70}, {Name: "pop", Count: 40}}},
	}

	space := newTagSpace(tracks, 10)
	want := []string{"rock", "alternative", "indie", "pop"}
	if !slices.Equal(space.names, want) {
		t.Errorf("names = %v, want %v", space.names, want)
	}

	if got := newTagSpace(tracks, 2).names; !slices.Equal(got, want[:2]) {
		t.Errorf("limited names = %v, want %v", got, want[:2])
	}
}

func TestTagSpace_Vector(t *testing.T) {
	space := newTagSpace([]*Track{
		{Tags: []Tag{{Name: "rock", Count: 4}, {Name: "indie", Count: 3}, {Name: "pop", Count: 2}, {Name: "jazz", Count: 1}}},
	}, 10)

	v := space.vector(&Track{Tags: []Tag{{Name: "Rock", Count: 100}, {Name: "indie", Count: 50}, {Name: "ska", Count: 75}}})

	want := []float64{1, 0.5, 0, 0}
	if !slices.Equal([]float64(v), want) {
		t.Errorf("vector = %v, want %v", v, want)
	}
}

func TestTagSpace_Strongest(t *testing.T) {
	space := tagSpace{names: []string{"rock", "indie", "pop", "jazz", "electronic"}}

	tests := []struct {
		name     string
		centroid []float64
		n        int
		want     []string
	}{
		{"by weight", []float64{0.8, 0.6, 0, 0.3, 0}, 3, []string{"rock", "indie", "jazz"}},
		{"zero weights skipped", []float64{0, 0, 0.2, 0, 0}, 3, []string{"pop"}},
		{"short centroid", []float64{0.1}, 3, []string{"rock"}},
		{"empty", nil, 3, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := space.strongest(tt.centroid, tt.n); !slices.Equal(got, tt.want) {
				t.Errorf("strongest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDominantVibe(t *testing.T) {
	tests := []struct {
		name   string
		tracks []Track
		want   string
	}{
		{name: "empty", want: ""},
		{name: "no tags", tracks: []Track{{ID: "1"}, {ID: "2"}}, want: ""},
		{
			name: "single tagged track",
			tracks: []Track{
				{ID: "1", Tags: TagsFromGenres([]string{"shoegaze"})},
				{ID: "2"},
			},
			want: "shoegaze",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DominantVibe(tt.tracks); got != tt.want {
				t.Errorf("DominantVibe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagsFromGenres(t *testing.T) {
	got := TagsFromGenres([]string{"indie rock", " ", "dream pop"})

	want := []Tag{{Name: "indie rock", Count: 3}, {Name: "dream pop", Count: 1}}
	if !slices.Equal(got, want) {
		t.Errorf("TagsFromGenres() = %+v, want %+v", got, want)
	}
}

func TestVibeName(t *testing.T) {
	tests := []struct {
		top  []string
		want string
	}{
		{[]string{"rock", "indie", "alternative"}, "rock & indie & alternative"},
		{[]string{"electronic"}, "electronic"},
		{nil, "Mixed"},
	}

	for _, tt := range tests {
		if got := vibeName(tt.top); got != tt.want {
			t.Errorf("vibeName(%v) = %q, want %q", tt.top, got, tt.want)
		}
	}
}
