package stats

import "time"

// AggregateStats summarizes a set of plays. It is recomputed on every fetch.
type AggregateStats struct {
	TotalPlays        int          `json:"totalPlays"`
	UniqueTrackCount  int          `json:"uniqueTrackCount"`
	UniqueArtistCount int          `json:"uniqueArtistCount"`
	TopTrack          *TrackCount  `json:"topTrack"`
	TopArtist         *ArtistCount `json:"topArtist"`
	TotalListeningMs  int64        `json:"totalListeningMs"`
	AverageTrackMs    float64      `json:"averageTrackMs"`

	// Display strings.
	TotalListening string `json:"totalListening"`
	AverageTrack   string `json:"averageTrack"`
}

// Compute builds AggregateStats. With zero plays the average is 0 and its
// display string is EmptyDuration.
func Compute(plays []PlayRecord) AggregateStats {
	tally := Tally(plays)
	artists := TallyArtists(plays)
	total := TotalDurationMs(plays)
	avg, ok := AverageDurationMs(plays)

	s := AggregateStats{
		TotalPlays:        len(plays),
		UniqueTrackCount:  tally.Len(),
		UniqueArtistCount: len(artists),
		TotalListeningMs:  total,
		AverageTrackMs:    avg,
		TotalListening:    FormatListening(total),
		AverageTrack:      FormatAverage(avg, ok),
	}

	if top, ok := tally.Top(); ok {
		s.TopTrack = &top
	}
	if len(artists) > 0 {
		best := artists[0]
		for _, a := range artists[1:] {
			if a.PlayCount > best.PlayCount {
				best = a
			}
		}
		s.TopArtist = &best
	}
	return s
}

// Bucket is one bar of a play-count histogram: how many tracks were played
// exactly PlayCount times.
type Bucket struct {
	PlayCount int `json:"playCount"`
	Tracks    int `json:"tracks"`
}

// PlayCountHistogram groups tallied tracks by play count, ascending.
func PlayCountHistogram(t *TrackTally) []Bucket {
	counts := make(map[int]int)
	maxCount := 0
	for _, e := range t.Entries() {
		counts[e.PlayCount]++
		maxCount = max(maxCount, e.PlayCount)
	}

	var out []Bucket
	for c := 1; c <= maxCount; c++ {
		if n := counts[c]; n > 0 {
			out = append(out, Bucket{PlayCount: c, Tracks: n})
		}
	}
	return out
}

// HourlyHistogram counts plays per hour of day in loc.
func HourlyHistogram(plays []PlayRecord, loc *time.Location) [24]int {
	var hours [24]int
	for _, p := range plays {
		hours[p.PlayedAt.In(loc).Hour()]++
	}
	return hours
}
