// Package nowplaying polls the player state on a fixed interval while anyone
// is listening and fans snapshots out to subscribers.
package nowplaying

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/justestif/go-spotify-dashboard/internal/metrics"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
	catalog "github.com/justestif/go-spotify-dashboard/internal/spotify"
)

// DefaultInterval is the time between polls.
const DefaultInterval = 5 * time.Second

const pollTimeout = 10 * time.Second

// Fetcher returns the current player state, nil when nothing is playing.
type Fetcher interface {
	NowPlaying(ctx context.Context) (*catalog.NowPlaying, error)
}

// Snapshot is one poll result.
type Snapshot struct {
	Track *catalog.NowPlaying `json:"track"`
	// Error is set when the poll failed; Track is nil then.
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

// Poller runs a single polling loop shared by all subscribers. The loop
// starts with the first subscriber and stops when the last one leaves.
type Poller struct {
	fetch    Fetcher
	interval time.Duration
	logger   *log.Logger

	mu     sync.Mutex
	subs   map[string]chan Snapshot
	last   *Snapshot
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Poller) {
		p.logger = l
	}
}

// New creates a Poller. No polling happens until Subscribe is called.
func New(fetch Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetch:    fetch,
		interval: DefaultInterval,
		subs:     make(map[string]chan Snapshot),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = shared.NewLogger(nil)
	}
	p.logger = shared.WithLogger(p.logger, "component", "nowplaying")
	return p
}

// Subscribe registers a subscriber and returns its id and channel. The
// channel holds at most one pending snapshot; a slow reader only ever sees
// the latest. The last snapshot, if any, is delivered immediately.
func (p *Poller) Subscribe() (string, <-chan Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Snapshot, 1)
	p.subs[id] = ch
	metrics.NowPlayingSubscribers.Set(float64(len(p.subs)))

	if p.last != nil {
		ch <- *p.last
	}

	if p.cancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel
		p.wg.Add(1)
		go p.loop(ctx)
		p.logger.Debug("poller started")
	}

	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Removing the
// last subscriber stops the loop and forgets the last snapshot, so the next
// subscriber never starts from a stale track.
func (p *Poller) Unsubscribe(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, ok := p.subs[id]
	if !ok {
		return
	}
	delete(p.subs, id)
	close(ch)
	metrics.NowPlayingSubscribers.Set(float64(len(p.subs)))

	if len(p.subs) == 0 && p.cancel != nil {
		p.cancel()
		p.cancel = nil
		p.last = nil
		p.logger.Debug("poller stopped")
	}
}

// Subscribers returns the number of active subscribers.
func (p *Poller) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Running reports whether the polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Close drops all subscribers and waits for the loop to exit.
func (p *Poller) Close() {
	p.mu.Lock()
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
	metrics.NowPlayingSubscribers.Set(0)
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.last = nil
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pollTimeout)
	np, err := p.fetch.NowPlaying(pctx)
	cancel()

	if ctx.Err() != nil {
		return
	}

	snap := Snapshot{Track: np, At: time.Now()}
	switch {
	case err == nil:
		metrics.NowPlayingPolls.WithLabelValues("success").Inc()
	case errors.Is(err, shared.ErrNotAuthenticated):
		metrics.NowPlayingPolls.WithLabelValues("unauthenticated").Inc()
		snap = Snapshot{Error: "not authenticated", At: snap.At}
	default:
		metrics.NowPlayingPolls.WithLabelValues("error").Inc()
		p.logger.Warn("polling now playing", "err", err)
		snap = Snapshot{Error: "unavailable", At: snap.At}
	}

	p.publish(ctx, snap)
}

// publish stores snap and hands it to every subscriber, replacing any
// snapshot they have not read yet.
func (p *Poller) publish(ctx context.Context, snap Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A stopped loop must not write to channels Unsubscribe already closed.
	if ctx.Err() != nil {
		return
	}

	p.last = &snap
	for _, ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
