// Package dashboard assembles the dashboard views from the catalog, the
// aggregator and the insight service.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-dashboard/internal/insight"
	catalog "github.com/justestif/go-spotify-dashboard/internal/spotify"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
	"github.com/justestif/go-spotify-dashboard/internal/store"
	"github.com/justestif/go-spotify-dashboard/internal/tags"
)

// ErrSuperseded is returned when a newer request for the same view started
// before this one finished. Its result is discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

// recentLimit is the most plays the recently-played feed returns.
const recentLimit = 50

// Catalog is the subset of the catalog client the views read.
type Catalog interface {
	Profile(ctx context.Context) (*spotify.PrivateUser, error)
	TopTracks(ctx context.Context, r catalog.TimeRange, limit int) ([]spotify.FullTrack, error)
	TopArtists(ctx context.Context, r catalog.TimeRange, limit int) ([]spotify.FullArtist, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]spotify.RecentlyPlayedItem, error)
	CurrentlyPlaying(ctx context.Context) (*spotify.CurrentlyPlaying, error)
}

// GenreResolver resolves genres by artist.
type GenreResolver interface {
	GenresForArtists(ctx context.Context, artists []tags.Artist) (map[string][]string, error)
}

// Insights produces the generated blurbs.
type Insights interface {
	Mood(ctx context.Context, tracks []insight.MoodTrack) insight.Insight
	Wrapped(ctx context.Context, in insight.WrappedInput) insight.Insight
}

// Deps are the collaborators of a Service.
type Deps struct {
	Catalog  Catalog
	Genres   GenreResolver
	Insights Insights
	Store    store.Store
	Location *time.Location // local time zone for "today"; defaults to time.Local
	Logger   *log.Logger
}

// Service builds view models for the dashboard pages and the CLI.
type Service struct {
	catalog  Catalog
	genres   GenreResolver
	insights Insights
	prefs    *Preferences
	receipts generations
	loc      *time.Location
	now      func() time.Time
	logger   *log.Logger
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Logger == nil {
		d.Logger = shared.NewLogger(nil)
	}
	return &Service{
		catalog:  d.Catalog,
		genres:   d.Genres,
		insights: d.Insights,
		prefs:    NewPreferences(d.Store),
		loc:      d.Location,
		now:      time.Now,
		logger:   shared.WithLogger(d.Logger, "component", "dashboard"),
	}
}

// Preferences returns the preference store.
func (s *Service) Preferences() *Preferences {
	return s.prefs
}

// Profile is the signed-in user.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstName"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Followers   uint   `json:"followers"`
}

// Artist is a ranked artist.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	Popularity int      `json:"popularity"`
}

// Me returns the user's profile.
func (s *Service) Me(ctx context.Context) (*Profile, error) {
	u, err := s.catalog.Profile(ctx)
	if err != nil {
		return nil, err
	}
	return profileFrom(u), nil
}

func profileFrom(u *spotify.PrivateUser) *Profile {
	p := &Profile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		FirstName:   firstWord(u.DisplayName),
		Email:       u.Email,
		Country:     u.Country,
		Product:     u.Product,
		Followers:   uint(u.Followers.Count),
	}
	if len(u.Images) > 0 {
		p.ImageURL = u.Images[0].URL
	}
	return p
}

func artistsFrom(in []spotify.FullArtist) []Artist {
	out := make([]Artist, len(in))
	for i, a := range in {
		out[i] = Artist{
			ID:         a.ID.String(),
			Name:       a.Name,
			Genres:     a.Genres,
			Popularity: int(a.Popularity),
		}
		if out[i].Genres == nil {
			out[i].Genres = []string{}
		}
		if len(a.Images) > 0 {
			out[i].ImageURL = a.Images[0].URL
		}
	}
	return out
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' {
			return s[:i]
		}
	}
	return s
}
