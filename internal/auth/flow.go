package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-dashboard/internal/shared"
)

// DefaultScopes are the read scopes the dashboard requests.
var DefaultScopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadPlaybackState,
}

// FlowConfig configures a Flow. AuthURL and TokenURL default to Spotify's
// accounts service.
type FlowConfig struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	AuthURL     string
	TokenURL    string
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// Flow runs the authorization-code-with-PKCE exchange as a public client.
// No client secret is sent; client_id travels in the form body.
type Flow struct {
	config     *oauth2.Config
	httpClient *http.Client
	verifiers  *VerifierStore
	tokens     *TokenStore
	logger     *log.Logger
}

// NewFlow creates a Flow that persists results to tokens.
func NewFlow(cfg FlowConfig, tokens *TokenStore, verifiers *VerifierStore) *Flow {
	if cfg.AuthURL == "" {
		cfg.AuthURL = spotifyauth.AuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = spotifyauth.TokenURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.Logger == nil {
		cfg.Logger = shared.NewLogger(nil)
	}

	return &Flow{
		config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: cfg.HTTPClient,
		verifiers:  verifiers,
		tokens:     tokens,
		logger:     shared.WithLogger(cfg.Logger, "component", "auth"),
	}
}

// withClient makes the oauth2 package use the configured HTTP client.
func (f *Flow) withClient(ctx context.Context) context.Context {
	if f.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
}

// AuthorizationURL starts a new authorization attempt. It generates a verifier,
// records it against a fresh state value (replacing any pending attempt) and
// returns the provider URL carrying the S256 challenge.
func (f *Flow) AuthorizationURL() string {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	f.verifiers.Put(state, verifier)

	return f.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange redeems an authorization code with its verifier. Provider error
// bodies are preserved in the returned error; a response without an access
// token is a failure.
func (f *Flow) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := f.config.Exchange(f.withClient(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: exchanging code: %w", shared.ErrAuthFailed, describe(err))
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", shared.ErrAuthFailed)
	}
	return tok, nil
}

// Refresh obtains a new access token. The returned token always carries a
// refresh token: the provider's new one, or refreshToken when it sent none.
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := f.config.TokenSource(f.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refreshing token: %w", shared.ErrAuthFailed, describe(err))
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh response missing access_token", shared.ErrAuthFailed)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

// Complete finishes the callback leg: it takes the verifier pending for state,
// exchanges code and persists the resulting TokenState.
func (f *Flow) Complete(ctx context.Context, state, code string) (*TokenState, error) {
	verifier, ok := f.verifiers.Take(state)
	if !ok {
		return nil, shared.ErrSessionExpired
	}

	tok, err := f.Exchange(ctx, code, verifier)
	if err != nil {
		f.logger.Warn("code exchange failed", "err", err)
		return nil, err
	}

	ts := tokenStateFrom(tok, "")
	if err := f.tokens.Save(ctx, ts); err != nil {
		return nil, fmt.Errorf("%w: saving tokens: %w", shared.ErrAuthFailed, err)
	}

	f.logger.Info("authorization complete", "expires_at", ts.ExpiresAt)
	return &ts, nil
}

// describe adds the provider body to token endpoint errors.
func describe(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return fmt.Errorf("%s: %s: %w", re.Response.Status, string(re.Body), err)
	}
	return err
}
