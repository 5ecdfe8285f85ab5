package insight

import (
	"fmt"
	"strings"
)

const (
	maxMoodTracks     = 20
	maxGenresPerTrack = 3
	maxWrappedItems   = 5
	maxWrappedGenres  = 6
	defaultPeriod     = "last month"
)

// MoodTrack is one recent play described for the mood prompt.
type MoodTrack struct {
	Name   string
	Artist string
	Genres []string
}

// WrappedTrack is a top track for the recap prompt.
type WrappedTrack struct {
	Name   string
	Artist string
}

// WrappedArtist is a top artist for the recap prompt.
type WrappedArtist struct {
	Name   string
	Genres []string
}

// WrappedInput summarizes a listening period.
type WrappedInput struct {
	Tracks  []WrappedTrack
	Artists []WrappedArtist
	Genres  []string
	Period  string // defaults to "last month"
}

func moodPrompt(tracks []MoodTrack, vibe string) string {
	var b strings.Builder
	b.WriteString("Here is what someone has been listening to recently:\n")
	for _, t := range tracks[:min(len(tracks), maxMoodTracks)] {
		fmt.Fprintf(&b, "- %q by %s", t.Name, t.Artist)
		if len(t.Genres) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(t.Genres[:min(len(t.Genres), maxGenresPerTrack)], ", "))
		}
		b.WriteByte('\n')
	}
	if vibe != "" {
		fmt.Fprintf(&b, "The strongest genre cluster is %s.\n", vibe)
	}
	b.WriteString("\nDescribe their current mood in one warm, playful line of 10 to 15 words. ")
	b.WriteString("Include one or two fitting emojis. Reply with the line only.")
	return b.String()
}

func wrappedPrompt(in WrappedInput) string {
	period := in.Period
	if period == "" {
		period = defaultPeriod
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a short personal music recap for %s.\n\nTop tracks:\n", period)
	for i, t := range in.Tracks[:min(len(in.Tracks), maxWrappedItems)] {
		fmt.Fprintf(&b, "%d. %q by %s\n", i+1, t.Name, t.Artist)
	}

	b.WriteString("\nTop artists:\n")
	for i, a := range in.Artists[:min(len(in.Artists), maxWrappedItems)] {
		fmt.Fprintf(&b, "%d. %s", i+1, a.Name)
		if len(a.Genres) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(a.Genres, ", "))
		}
		b.WriteByte('\n')
	}

	if len(in.Genres) > 0 {
		fmt.Fprintf(&b, "\nMain genres: %s\n", strings.Join(in.Genres[:min(len(in.Genres), maxWrappedGenres)], ", "))
	}

	b.WriteString("\nIn 2 or 3 upbeat sentences and under 60 words, tell them what their listening says about them. ")
	b.WriteString("Speak to them directly. Reply with the recap only.")
	return b.String()
}
