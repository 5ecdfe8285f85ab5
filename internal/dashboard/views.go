package dashboard

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-spotify-dashboard/internal/insight"
	catalog "github.com/justestif/go-spotify-dashboard/internal/spotify"
	"github.com/justestif/go-spotify-dashboard/internal/stats"
	"github.com/justestif/go-spotify-dashboard/internal/tags"
)

const (
	overviewTopLimit = 5
	overviewRecent   = 20
	wrappedTopLimit  = 10
	wrappedPromptTop = 5
	moodTrackLimit   = 20
)

// OverviewView backs the main dashboard page.
type OverviewView struct {
	Profile           *Profile             `json:"profile"`
	TopTracks         []stats.PlayRecord   `json:"topTracks"`
	TopArtists        []Artist             `json:"topArtists"`
	TopTrackPlayCount int                  `json:"topTrackPlayCount"`
	Stats             stats.AggregateStats `json:"stats"`
	UniqueTracks      []stats.TrackCount   `json:"uniqueTracks"`
	RecentTracks      []stats.PlayRecord   `json:"recentTracks"`
	PlayCounts        []stats.Bucket       `json:"playCounts"`
}

// Overview loads the profile, short-term top items and recent plays in
// parallel and derives the headline numbers.
func (s *Service) Overview(ctx context.Context) (*OverviewView, error) {
	var (
		user    *spotify.PrivateUser
		tracks  []spotify.FullTrack
		artists []spotify.FullArtist
		recent  []spotify.RecentlyPlayedItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		user, err = s.catalog.Profile(gctx)
		return err
	})
	g.Go(func() (err error) {
		tracks, err = s.catalog.TopTracks(gctx, catalog.ShortTerm, overviewTopLimit)
		return err
	})
	g.Go(func() (err error) {
		artists, err = s.catalog.TopArtists(gctx, catalog.ShortTerm, overviewTopLimit)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.catalog.RecentlyPlayed(gctx, recentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plays := catalog.PlayRecords(recent)
	tally := stats.Tally(plays)
	top := catalog.TrackRecords(tracks)

	v := &OverviewView{
		Profile:      profileFrom(user),
		TopTracks:    top,
		TopArtists:   artistsFrom(artists),
		Stats:        stats.Compute(plays),
		UniqueTracks: tally.Entries(),
		RecentTracks: stats.TopN(plays, overviewRecent),
		PlayCounts:   stats.PlayCountHistogram(tally),
	}
	if len(top) > 0 {
		v.TopTrackPlayCount = tally.PlayCountOf(top[0].TrackID)
	}
	return v, nil
}

// TodayView summarizes plays since local midnight.
type TodayView struct {
	Date         string               `json:"date"`
	Stats        stats.AggregateStats `json:"stats"`
	TotalMinutes int64                `json:"totalMinutes"`
	Tracks       []stats.TrackCount   `json:"tracks"`
	Artists      []stats.ArtistCount  `json:"artists"`
	Plays        []stats.PlayRecord   `json:"plays"`
	Hourly       [24]int              `json:"hourly"`
}

// Today aggregates the plays since local midnight.
func (s *Service) Today(ctx context.Context) (*TodayView, error) {
	items, err := s.catalog.RecentlyPlayed(ctx, recentLimit)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	plays := stats.SinceMidnight(catalog.PlayRecords(items), now)
	agg := stats.Compute(plays)

	return &TodayView{
		Date:         now.Format("Monday, January 2"),
		Stats:        agg,
		TotalMinutes: (agg.TotalListeningMs + 30_000) / 60_000,
		Tracks:       stats.Tally(plays).Entries(),
		Artists:      stats.TallyArtists(plays),
		Plays:        plays,
		Hourly:       stats.HourlyHistogram(plays, s.loc),
	}, nil
}

// WrappedView is the monthly recap slideshow.
type WrappedView struct {
	Period     string             `json:"period"`
	TopArtist  *Artist            `json:"topArtist"`
	TopTrack   *stats.PlayRecord  `json:"topTrack"`
	TopArtists []Artist           `json:"topArtists"`
	TopTracks  []stats.PlayRecord `json:"topTracks"`
	Genres     []string           `json:"genres"`
	Insight    insight.Insight    `json:"insight"`
}

// Wrapped builds the recap for the short-term window.
func (s *Service) Wrapped(ctx context.Context) (*WrappedView, error) {
	var (
		tracks  []spotify.FullTrack
		artists []spotify.FullArtist
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tracks, err = s.catalog.TopTracks(gctx, catalog.ShortTerm, wrappedTopLimit)
		return err
	})
	g.Go(func() (err error) {
		artists, err = s.catalog.TopArtists(gctx, catalog.ShortTerm, wrappedTopLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v := &WrappedView{
		Period:     catalog.ShortTerm.Label(),
		TopArtists: artistsFrom(artists),
		TopTracks:  catalog.TrackRecords(tracks),
	}
	s.fillMissingGenres(ctx, v.TopArtists)

	lists := make([][]string, len(v.TopArtists))
	for i, a := range v.TopArtists {
		lists[i] = a.Genres
	}
	v.Genres = stats.UniqueGenres(lists...)
	if v.Genres == nil {
		v.Genres = []string{}
	}

	if len(v.TopArtists) > 0 {
		v.TopArtist = &v.TopArtists[0]
	}
	if len(v.TopTracks) > 0 {
		v.TopTrack = &v.TopTracks[0]
	}

	in := insight.WrappedInput{Genres: v.Genres, Period: "last month"}
	for _, t := range stats.TopN(v.TopTracks, wrappedPromptTop) {
		in.Tracks = append(in.Tracks, insight.WrappedTrack{Name: t.TrackName, Artist: t.PrimaryArtist()})
	}
	for _, a := range stats.TopN(v.TopArtists, wrappedPromptTop) {
		in.Artists = append(in.Artists, insight.WrappedArtist{Name: a.Name, Genres: stats.TopN(a.Genres, tags.MaxGenres)})
	}
	v.Insight = s.insights.Wrapped(ctx, in)

	return v, nil
}

// fillMissingGenres resolves genres for artists the catalog returned none
// for. Failures leave the artists as they are.
func (s *Service) fillMissingGenres(ctx context.Context, artists []Artist) {
	if s.genres == nil {
		return
	}

	var missing []tags.Artist
	for _, a := range artists {
		if len(a.Genres) == 0 {
			missing = append(missing, tags.Artist{ID: a.ID, Name: a.Name})
		}
	}
	if len(missing) == 0 {
		return
	}

	resolved, err := s.genres.GenresForArtists(ctx, missing)
	if err != nil {
		s.logger.Warn("resolving artist genres", "err", err)
		return
	}
	for i := range artists {
		if g := resolved[artists[i].ID]; len(artists[i].Genres) == 0 && len(g) > 0 {
			artists[i].Genres = g
		}
	}
}

// MoodView is the generated mood line and what it was based on.
type MoodView struct {
	Insight insight.Insight `json:"insight"`
	Window  string          `json:"window"` // "today" or "recent"
	Plays   int             `json:"plays"`
	Genres  []string        `json:"genres"`
}

// Mood describes today's listening. When nothing was played today it falls
// back to the most recent plays.
func (s *Service) Mood(ctx context.Context) (*MoodView, error) {
	items, err := s.catalog.RecentlyPlayed(ctx, recentLimit)
	if err != nil {
		return nil, err
	}

	all := catalog.PlayRecords(items)
	plays := stats.SinceMidnight(all, s.now().In(s.loc))
	window := "today"
	if len(plays) == 0 {
		plays = all
		window = "recent"
	}
	plays = stats.TopN(plays, moodTrackLimit)

	genres := s.genresForPlays(ctx, plays)

	tracks := make([]insight.MoodTrack, len(plays))
	lists := make([][]string, len(plays))
	for i, p := range plays {
		g := genres[p.PrimaryArtistID()]
		tracks[i] = insight.MoodTrack{Name: p.TrackName, Artist: p.PrimaryArtist(), Genres: g}
		lists[i] = g
	}

	v := &MoodView{
		Insight: s.insights.Mood(ctx, tracks),
		Window:  window,
		Plays:   len(plays),
		Genres:  stats.UniqueGenres(lists...),
	}
	if v.Genres == nil {
		v.Genres = []string{}
	}
	return v, nil
}

func (s *Service) genresForPlays(ctx context.Context, plays []stats.PlayRecord) map[string][]string {
	if s.genres == nil || len(plays) == 0 {
		return nil
	}

	artists := make([]tags.Artist, 0, len(plays))
	for _, p := range plays {
		if id := p.PrimaryArtistID(); id != "" {
			artists = append(artists, tags.Artist{ID: id, Name: p.PrimaryArtist()})
		}
	}

	genres, err := s.genres.GenresForArtists(ctx, artists)
	if err != nil {
		s.logger.Warn("resolving genres for mood", "err", err)
		return nil
	}
	return genres
}

// NowPlaying returns the current player state, or nil when nothing is playing.
func (s *Service) NowPlaying(ctx context.Context) (*catalog.NowPlaying, error) {
	cp, err := s.catalog.CurrentlyPlaying(ctx)
	if err != nil {
		return nil, fmt.Errorf("now playing: %w", err)
	}
	return catalog.NowPlayingFrom(cp), nil
}
