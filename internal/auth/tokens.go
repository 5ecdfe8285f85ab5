// Package auth implements the Spotify PKCE authorization flow and the token
// lifecycle that guards every authenticated catalog call.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-dashboard/internal/store"
)

// Persisted keys for the token triple.
const (
	KeyAccessToken  = "spotify_access_token"
	KeyRefreshToken = "spotify_refresh_token"
	KeyTokenExpiry  = "spotify_token_expiry"
)

// ErrIncompleteToken is returned when saving a TokenState with an empty field.
var ErrIncompleteToken = errors.New("token state requires access token, refresh token and expiry")

// TokenState is the persisted credential triple. All three fields are present
// or the state is treated as absent.
type TokenState struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// DefaultTokenLifetime is assumed when a token response has no expires_in.
const DefaultTokenLifetime = time.Hour

// tokenStateFrom converts a token endpoint response. previousRefresh is kept
// when the response carries no refresh token.
func tokenStateFrom(tok *oauth2.Token, previousRefresh string) TokenState {
	state := TokenState{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if state.ExpiresAt.IsZero() {
		state.ExpiresAt = time.Now().Add(DefaultTokenLifetime)
	}
	if state.RefreshToken == "" {
		state.RefreshToken = previousRefresh
	}
	return state
}

// TokenStore reads and writes TokenState through a key-value store.
type TokenStore struct {
	kv store.Store
}

// NewTokenStore creates a TokenStore over kv.
func NewTokenStore(kv store.Store) *TokenStore {
	return &TokenStore{kv: kv}
}

// Load returns the stored state, or (nil, nil) when any field is missing or the
// expiry is not a positive epoch.
func (s *TokenStore) Load(ctx context.Context) (*TokenState, error) {
	access, err := s.get(ctx, KeyAccessToken)
	if err != nil || access == "" {
		return nil, err
	}
	refresh, err := s.get(ctx, KeyRefreshToken)
	if err != nil || refresh == "" {
		return nil, err
	}
	expiry, err := s.get(ctx, KeyTokenExpiry)
	if err != nil || expiry == "" {
		return nil, err
	}

	ms, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil || ms <= 0 {
		return nil, nil
	}

	return &TokenState{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.UnixMilli(ms),
	}, nil
}

// get returns "" for a missing key.
func (s *TokenStore) get(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return string(v), nil
}

// Save writes all three fields. Expiry is stored as epoch milliseconds.
func (s *TokenStore) Save(ctx context.Context, state TokenState) error {
	if state.AccessToken == "" || state.RefreshToken == "" {
		return ErrIncompleteToken
	}

	var expiry int64
	if !state.ExpiresAt.IsZero() {
		expiry = state.ExpiresAt.UnixMilli()
	}

	fields := []struct {
		key   string
		value string
	}{
		{KeyAccessToken, state.AccessToken},
		{KeyRefreshToken, state.RefreshToken},
		{KeyTokenExpiry, strconv.FormatInt(expiry, 10)},
	}
	for _, f := range fields {
		if err := s.kv.Set(ctx, f.key, []byte(f.value)); err != nil {
			return fmt.Errorf("writing %s: %w", f.key, err)
		}
	}
	return nil
}

// Clear removes all three fields.
func (s *TokenStore) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyTokenExpiry} {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
