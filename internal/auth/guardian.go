package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-dashboard/internal/metrics"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
)

// RefreshSkew is how long before expiry a token is refreshed.
const RefreshSkew = 5 * time.Minute

// Refresher exchanges a refresh token for a new token. *Flow implements it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Guardian hands out valid access tokens. Every authenticated call goes
// through ValidAccessToken; nothing else reads the access token from the store.
type Guardian struct {
	tokens    *TokenStore
	refresher Refresher
	logger    *log.Logger
	now       func() time.Time

	// mu serializes refreshes so concurrent callers share one refresh.
	mu sync.Mutex
}

// NewGuardian creates a Guardian over tokens.
func NewGuardian(tokens *TokenStore, refresher Refresher, logger *log.Logger) *Guardian {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Guardian{
		tokens:    tokens,
		refresher: refresher,
		logger:    shared.WithLogger(logger, "component", "guardian"),
		now:       time.Now,
	}
}

// ValidAccessToken returns a usable access token, refreshing it when it is
// within RefreshSkew of expiry. It returns shared.ErrNotAuthenticated when no
// complete token state exists or the refresh fails; a failed refresh also
// clears the stored state.
func (g *Guardian) ValidAccessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.tokens.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("loading tokens: %w", err)
	}
	if state == nil {
		return "", shared.ErrNotAuthenticated
	}

	if g.now().Before(state.ExpiresAt.Add(-RefreshSkew)) {
		return state.AccessToken, nil
	}

	g.logger.Debug("refreshing access token", "expires_at", state.ExpiresAt)

	tok, err := g.refresher.Refresh(ctx, state.RefreshToken)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		g.logger.Warn("token refresh failed, clearing credentials", "err", err)
		if clearErr := g.tokens.Clear(ctx); clearErr != nil {
			g.logger.Error("clearing credentials", "err", clearErr)
		}
		return "", fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	next := tokenStateFrom(tok, state.RefreshToken)
	if err := g.tokens.Save(ctx, next); err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return "", fmt.Errorf("saving refreshed tokens: %w", err)
	}

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	return next.AccessToken, nil
}

// IsAuthenticated reports whether a complete, unexpired token state exists.
// It never refreshes.
func (g *Guardian) IsAuthenticated(ctx context.Context) bool {
	state, err := g.tokens.Load(ctx)
	if err != nil || state == nil {
		return false
	}
	return g.now().Before(state.ExpiresAt)
}

// Logout clears the stored token state.
func (g *Guardian) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tokens.Clear(ctx)
}

// Client returns an HTTP client that asks the Guardian for a token on every
// request, so refreshes and logouts take effect immediately. Timeout and
// transport come from base, which may be nil.
//
// oauth2.NewClient is not used here: its ReuseTokenSource would pin the first
// token for the life of the client.
func (g *Guardian) Client(ctx context.Context, base *http.Client) *http.Client {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	c.Transport = &oauth2.Transport{Base: c.Transport, Source: g.TokenSource(ctx)}
	return c
}

// TokenSource adapts the Guardian to oauth2.TokenSource. It does no caching
// of its own.
func (g *Guardian) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &guardianSource{ctx: ctx, guardian: g}
}

type guardianSource struct {
	ctx      context.Context
	guardian *Guardian
}

func (s *guardianSource) Token() (*oauth2.Token, error) {
	access, err := s.guardian.ValidAccessToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}
