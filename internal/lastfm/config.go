// Package lastfm reads artist tags from Last.fm. The tag resolver falls back
// to them when the catalog lists no genres for an artist.
package lastfm

import (
	"errors"
	"net/http"
	"time"
)

// ErrMissingAPIKey is returned by NewClient when Config.APIKey is blank.
var ErrMissingAPIKey = errors.New("last.fm API key not configured")

// Config configures a Client.
type Config struct {
	APIKey string

	// BaseURL replaces the public endpoint.
	BaseURL string
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
	// RetryDelays is the wait before each retry of a rate-limited call.
	RetryDelays []time.Duration
}
