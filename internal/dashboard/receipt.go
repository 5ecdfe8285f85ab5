package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-spotify-dashboard/internal/metrics"
	catalog "github.com/justestif/go-spotify-dashboard/internal/spotify"
	"github.com/justestif/go-spotify-dashboard/internal/stats"
)

const (
	receiptTracks  = 10
	receiptArtists = 5
)

// generations hands out increasing request numbers for one view. Only the
// latest request may publish its result.
type generations struct {
	mu      sync.Mutex
	current uint64
}

func (g *generations) begin() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current++
	return g.current
}

func (g *generations) isCurrent(n uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current == n
}

// ReceiptLine is one track on the receipt.
type ReceiptLine struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	Duration string `json:"duration"` // M:SS
}

// ReceiptView is the printable top-items receipt.
type ReceiptView struct {
	Range      catalog.TimeRange `json:"range"`
	RangeLabel string            `json:"rangeLabel"`
	IssuedAt   time.Time         `json:"issuedAt"`
	Lines      []ReceiptLine     `json:"lines"`
	Artists    []Artist          `json:"artists"`
	TotalMs    int64             `json:"totalMs"`
	Total      string            `json:"total"` // H:MM
}

// Receipt builds the receipt for r. If another Receipt call starts before
// this one finishes, this one returns ErrSuperseded.
func (s *Service) Receipt(ctx context.Context, r catalog.TimeRange) (*ReceiptView, error) {
	gen := s.receipts.begin()

	var (
		tracks  []spotify.FullTrack
		artists []spotify.FullArtist
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tracks, err = s.catalog.TopTracks(gctx, r, receiptTracks)
		return err
	})
	g.Go(func() (err error) {
		artists, err = s.catalog.TopArtists(gctx, r, receiptArtists)
		return err
	})
	err := g.Wait()

	if !s.receipts.isCurrent(gen) {
		metrics.SupersededRequests.Inc()
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	plays := catalog.TrackRecords(tracks)
	v := &ReceiptView{
		Range:      r,
		RangeLabel: r.Label(),
		IssuedAt:   s.now().In(s.loc),
		Lines:      make([]ReceiptLine, len(plays)),
		Artists:    artistsFrom(artists),
		TotalMs:    stats.TotalDurationMs(plays),
	}
	for i, p := range plays {
		v.Lines[i] = ReceiptLine{
			Rank:     i + 1,
			Name:     p.TrackName,
			Artist:   p.PrimaryArtist(),
			Duration: stats.FormatClock(int64(p.DurationMs)),
		}
	}
	v.Total = stats.FormatHoursMinutes(v.TotalMs)
	return v, nil
}
