package lastfm

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	endpoint  = "https://ws.audioscrobbler.com/2.0/"
	userAgent = "spotify-dashboard/1.0"

	// Responses are small. Anything bigger is not a tag list.
	maxResponseBytes = 1 << 20
)

// Error codes from https://www.last.fm/api/errorcodes.
const (
	codeInvalidAPIKey   = 10
	codeSuspendedAPIKey = 26
	codeRateLimited     = 29
)

var (
	// ErrRateLimited is returned once every retry was rate limited.
	ErrRateLimited = errors.New("last.fm rate limit exceeded")

	// ErrInvalidAPIKey is returned for a rejected or suspended key.
	ErrInvalidAPIKey = errors.New("invalid last.fm API key")
)

var defaultBackoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// Client looks up artist tags. Lookups are throttled, retried while rate
// limited, and remembered for the life of the client.
type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
	backoff  []time.Duration
	throttle *rate.Limiter

	group singleflight.Group
	mu    sync.RWMutex
	known map[string][]Tag
}

// NewClient returns a client for cfg. An API key is required.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		apiKey:   cfg.APIKey,
		endpoint: cmp.Or(cfg.BaseURL, endpoint),
		http:     cfg.HTTPClient,
		backoff:  cfg.RetryDelays,
		// Last.fm allows five calls per second per key.
		throttle: rate.NewLimiter(5, 5),
		known:    make(map[string][]Tag),
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 10 * time.Second}
	}
	if c.backoff == nil {
		c.backoff = defaultBackoff
	}
	return c, nil
}

// ArtistTags returns the weighted tags for artist, strongest first. Tags
// nobody applied (count 0) are dropped. The result is never nil.
//
// Names are matched case-insensitively, and concurrent lookups of one artist
// share a single request.
func (c *Client) ArtistTags(ctx context.Context, artist string) ([]Tag, error) {
	key := strings.ToLower(strings.TrimSpace(artist))

	c.mu.RLock()
	tags, ok := c.known[key]
	c.mu.RUnlock()
	if ok {
		return tags, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		tags, err := c.fetchTopTags(ctx, artist)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.known[key] = tags
		c.mu.Unlock()
		return tags, nil
	})
	if err != nil {
		return nil, fmt.Errorf("artist tags for %q: %w", artist, err)
	}
	return v.([]Tag), nil
}

func (c *Client) fetchTopTags(ctx context.Context, artist string) ([]Tag, error) {
	q := url.Values{}
	q.Set("method", "artist.getTopTags")
	q.Set("artist", artist)
	q.Set("autocorrect", "1")
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")

	env, err := c.call(ctx, q)
	if err != nil {
		return nil, err
	}

	tags := []Tag{}
	if env.TopTags != nil {
		for _, t := range env.TopTags.Tags {
			if t.Count > 0 && t.Name != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags, nil
}

// call sends q, sleeping through the backoff schedule while the API answers
// with its rate-limit code.
func (c *Client) call(ctx context.Context, q url.Values) (*envelope, error) {
	target := c.endpoint + "?" + q.Encode()

	for attempt := 0; ; attempt++ {
		if err := c.throttle.Wait(ctx); err != nil {
			return nil, err
		}

		env, err := c.get(ctx, target)
		if err == nil {
			return env, nil
		}
		if !errors.Is(err, ErrRateLimited) || attempt >= len(c.backoff) {
			return nil, err
		}

		timer := time.NewTimer(c.backoff[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) get(ctx context.Context, target string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting last.fm: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading last.fm response: %w", err)
	}

	// Errors arrive as a JSON body, sometimes with a 200 and sometimes not.
	var env envelope
	decodeErr := json.Unmarshal(body, &env)
	if decodeErr == nil && env.Code != 0 {
		return nil, &remoteError{Code: env.Code, Message: env.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("last.fm returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding last.fm response: %w", decodeErr)
	}
	return &env, nil
}
