// Package spotify wraps the Spotify Web API read endpoints the dashboard uses.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-dashboard/internal/metrics"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
)

// Options configures a Client.
type Options struct {
	// BaseURL overrides the API root, e.g. for tests. It must end in "/".
	BaseURL string
	// RetryRateLimited waits out 429 responses instead of failing.
	RetryRateLimited bool
	Logger           *log.Logger
}

// Client issues authenticated reads against the catalog API. The supplied
// HTTP client is responsible for attaching bearer tokens.
type Client struct {
	api    *spotify.Client
	logger *log.Logger
}

// New creates a Client over an already-authenticated HTTP client.
func New(httpClient *http.Client, opts Options) *Client {
	var clientOpts []spotify.ClientOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(opts.BaseURL))
	}
	clientOpts = append(clientOpts, spotify.WithRetry(opts.RetryRateLimited))

	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Client{
		api:    spotify.New(httpClient, clientOpts...),
		logger: shared.WithLogger(opts.Logger, "component", "catalog"),
	}
}

// apiStatus extracts the HTTP status from an API error.
func apiStatus(err error) (int, bool) {
	var e spotify.Error
	if errors.As(err, &e) {
		return e.Status, true
	}
	var pe *spotify.Error
	if errors.As(err, &pe) && pe != nil {
		return pe.Status, true
	}
	return 0, false
}

// wrap tags err as a catalog failure carrying the status text.
func (c *Client) wrap(op string, err error) error {
	metrics.CatalogRequests.WithLabelValues(op, "error").Inc()
	c.logger.Debug("catalog request failed", "op", op, "err", err)

	if status, ok := apiStatus(err); ok {
		return fmt.Errorf("%w: %s: %d %s: %w", shared.ErrCatalogRequest, op, status, http.StatusText(status), err)
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrCatalogRequest, op, err)
}

func (c *Client) ok(op string) {
	metrics.CatalogRequests.WithLabelValues(op, "success").Inc()
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	user, err := c.Profile(ctx)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
