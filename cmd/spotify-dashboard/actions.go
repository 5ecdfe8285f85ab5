package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/justestif/go-spotify-dashboard/internal/config"
	"github.com/justestif/go-spotify-dashboard/internal/dashboard"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
	catalog "github.com/justestif/go-spotify-dashboard/internal/spotify"
	"github.com/justestif/go-spotify-dashboard/internal/stats"
)

// errLoginRequired is returned by view commands when no account is connected.
var errLoginRequired = errors.New("not signed in: run `spotify-dashboard serve --open` and connect your account")

// Serve runs the web dashboard until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	s, err := r.setup(ctx, cmd)
	if err != nil {
		return err
	}
	server, err := r.newServer(s)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if cmd.Bool("open") {
		url := "http://" + r.config.Server.Addr + "/"
		go func() {
			// Give the listener a moment to come up.
			time.Sleep(300 * time.Millisecond)
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("could not open browser", "url", url, "err", err)
			}
		}()
	}

	return server.Run(ctx)
}

// statusView is the status command output.
type statusView struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	User          string     `json:"user,omitempty"`
}

// Status reports the stored authorization.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	s, err := r.setup(ctx, cmd)
	if err != nil {
		return err
	}

	state, err := s.tokens.Load(ctx)
	if err != nil {
		return err
	}

	var v statusView
	if state != nil {
		v.Authenticated = s.guardian.IsAuthenticated(ctx)
		v.ExpiresAt = &state.ExpiresAt
		if profile, err := s.dashboard.Me(ctx); err == nil {
			v.User = profile.DisplayName
		} else {
			r.logger.Debug("loading profile", "err", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(v)
	}
	switch {
	case state == nil:
		return r.writePlain("Not connected.\n")
	case v.User != "":
		return r.writePlain("Connected as %s (access token expires %s).\n", v.User, state.ExpiresAt.Local().Format(time.Kitchen))
	default:
		return r.writePlain("Connected (access token expires %s).\n", state.ExpiresAt.Local().Format(time.Kitchen))
	}
}

// Logout clears the stored tokens.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	s, err := r.setup(ctx, cmd)
	if err != nil {
		return err
	}
	if err := s.guardian.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("Signed out.\n")
}

// Today prints the plays since local midnight.
func (r *Runner) Today(ctx context.Context, cmd *cli.Command) error {
	s, err := r.setup(ctx, cmd)
	if err != nil {
		return err
	}
	v, err := s.dashboard.Today(ctx)
	if err != nil {
		return loginHint(err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(v)
	}
	return r.writePlain("%s", formatToday(v))
}

// Receipt prints the top-items receipt for --range.
func (r *Runner) Receipt(ctx context.Context, cmd *cli.Command) error {
	rng, err := catalog.ParseTimeRange(cmd.String("range"), catalog.ShortTerm)
	if err != nil {
		return err
	}
	s, err := r.setup(ctx, cmd)
	if err != nil {
		return err
	}
	v, err := s.dashboard.Receipt(ctx, rng)
	if err != nil {
		return loginHint(err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(v)
	}
	return r.writePlain("%s", formatReceipt(v))
}

// Wrapped prints the monthly recap.
func (r *Runner) Wrapped(ctx context.Context, cmd *cli.Command) error {
	s, err := r.setup(ctx, cmd)
	if err != nil {
		return err
	}
	v, err := s.dashboard.Wrapped(ctx)
	if err != nil {
		return loginHint(err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(v)
	}
	return r.writePlain("%s", formatWrapped(v))
}

// Mood prints the generated mood line.
func (r *Runner) Mood(ctx context.Context, cmd *cli.Command) error {
	s, err := r.setup(ctx, cmd)
	if err != nil {
		return err
	}
	v, err := s.dashboard.Mood(ctx)
	if err != nil {
		return loginHint(err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(v)
	}
	return r.writePlain("%s\n", v.Insight.Text)
}

// NowPlaying prints the current track.
func (r *Runner) NowPlaying(ctx context.Context, cmd *cli.Command) error {
	s, err := r.setup(ctx, cmd)
	if err != nil {
		return err
	}
	np, err := s.dashboard.NowPlaying(ctx)
	if err != nil {
		return loginHint(err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(np)
	}
	return r.writePlain("%s", formatNowPlaying(np))
}

// InitConfig writes the example configuration.
func (r *Runner) InitConfig(_ context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := config.WriteExample(path); err != nil {
		return err
	}
	return r.writePlain("Wrote %s. Set spotify.client_id before running serve.\n", path)
}

func loginHint(err error) error {
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return errLoginRequired
	}
	return err
}

func formatToday(v *dashboard.TodayView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", v.Date)
	if len(v.Plays) == 0 {
		b.WriteString("Nothing played yet today.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d plays, %d minutes, %d artists\n\n", v.Stats.TotalPlays, v.TotalMinutes, v.Stats.UniqueArtistCount)
	for i, t := range v.Tracks {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "%2d. %s - %s (x%d)\n", i+1, t.Track.TrackName, t.Track.PrimaryArtist(), t.PlayCount)
	}
	return b.String()
}

func formatReceipt(v *dashboard.ReceiptView) string {
	const width = 40

	var b strings.Builder
	b.WriteString(center("SPOTIFY RECEIPT", width) + "\n")
	b.WriteString(center(v.RangeLabel, width) + "\n")
	b.WriteString(center(v.IssuedAt.Local().Format("Jan 2, 2006 3:04 PM"), width) + "\n")
	b.WriteString(strings.Repeat("-", width) + "\n")
	for _, l := range v.Lines {
		label := fmt.Sprintf("%2d %s", l.Rank, l.Name)
		b.WriteString(leader(label, l.Duration, width) + "\n")
		if l.Artist != "" {
			b.WriteString("   " + l.Artist + "\n")
		}
	}
	b.WriteString(strings.Repeat("-", width) + "\n")
	b.WriteString(leader("TOTAL", v.Total, width) + "\n")
	if len(v.Artists) > 0 {
		names := make([]string, len(v.Artists))
		for i, a := range v.Artists {
			names[i] = a.Name
		}
		b.WriteString("\nTop artists: " + strings.Join(names, ", ") + "\n")
	}
	b.WriteString("\n" + center("THANK YOU FOR LISTENING", width) + "\n")
	return b.String()
}

func formatWrapped(v *dashboard.WrappedView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your %s\n\n", v.Period)
	if v.TopArtist != nil {
		fmt.Fprintf(&b, "Top artist: %s\n", v.TopArtist.Name)
	}
	if v.TopTrack != nil {
		fmt.Fprintf(&b, "Top track:  %s - %s\n", v.TopTrack.TrackName, v.TopTrack.PrimaryArtist())
	}
	if len(v.Genres) > 0 {
		fmt.Fprintf(&b, "Genres:     %s\n", strings.Join(v.Genres, ", "))
	}
	fmt.Fprintf(&b, "\n%s\n", v.Insight.Text)
	return b.String()
}

func formatNowPlaying(np *catalog.NowPlaying) string {
	if np == nil {
		return "Nothing playing.\n"
	}
	state := "Playing"
	if !np.IsPlaying {
		state = "Paused"
	}
	return fmt.Sprintf("%s: %s - %s [%s / %s]\n",
		state, np.TrackName, strings.Join(np.Artists, ", "),
		stats.FormatClock(int64(np.ProgressMs)), stats.FormatClock(int64(np.DurationMs)))
}

// leader pads between left and right with dots to fill width.
func leader(left, right string, width int) string {
	gap := width - len([]rune(left)) - len([]rune(right))
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(".", gap) + right
}

func center(s string, width int) string {
	pad := (width - len([]rune(s))) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
