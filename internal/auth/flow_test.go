package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/justestif/go-spotify-dashboard/internal/shared"
	"github.com/justestif/go-spotify-dashboard/internal/store"
)

// tokenServer is a fake token endpoint recording the last form it received.
type tokenServer struct {
	*httptest.Server

	mu       sync.Mutex
	lastForm url.Values
	status   int
	response map[string]any
	calls    int
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{
		status: http.StatusOK,
		response: map[string]any{
			"access_token":  "access-1",
			"token_type":    "Bearer",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		},
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		ts.mu.Lock()
		ts.lastForm = r.PostForm
		ts.calls++
		status, resp := ts.status, ts.response
		ts.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) form() url.Values {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.lastForm
}

func newTestFlow(ts *tokenServer) (*Flow, *TokenStore) {
	tokens := NewTokenStore(store.NewMemory())
	flow := NewFlow(FlowConfig{
		ClientID:    "client-abc",
		RedirectURI: "http://127.0.0.1:8080/callback",
		AuthURL:     "https://accounts.example.com/authorize",
		TokenURL:    ts.URL + "/api/token",
		HTTPClient:  ts.Client(),
	}, tokens, NewVerifierStore())
	return flow, tokens
}

func TestAuthorizationURL(t *testing.T) {
	ts := newTokenServer(t)
	flow, _ := newTestFlow(ts)

	raw := flow.AuthorizationURL()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing authorization URL: %v", err)
	}
	q := u.Query()

	checks := map[string]string{
		"client_id":             "client-abc",
		"response_type":         "code",
		"redirect_uri":          "http://127.0.0.1:8080/callback",
		"code_challenge_method": "S256",
	}
	for k, want := range checks {
		if got := q.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}

	if scope := q.Get("scope"); scope != strings.Join(DefaultScopes, " ") {
		t.Errorf("scope = %q, want space-joined defaults", scope)
	}
	if q.Get("code_challenge") == "" {
		t.Error("code_challenge missing")
	}
	if q.Get("state") == "" {
		t.Error("state missing")
	}
	if q.Has("code_verifier") {
		t.Error("authorization URL leaks code_verifier")
	}
}

func TestPKCERoundTrip(t *testing.T) {
	ts := newTokenServer(t)
	flow, tokens := newTestFlow(ts)
	ctx := context.Background()

	u, _ := url.Parse(flow.AuthorizationURL())
	challenge := u.Query().Get("code_challenge")
	state := u.Query().Get("state")

	if _, err := flow.Complete(ctx, state, "auth-code"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	form := ts.form()
	verifier := form.Get("code_verifier")
	if verifier == "" {
		t.Fatal("exchange request carried no code_verifier")
	}
	if strings.Contains(u.String(), verifier) {
		t.Error("verifier appeared in authorization URL")
	}

	sum := sha256.Sum256([]byte(verifier))
	if got := base64.RawURLEncoding.EncodeToString(sum[:]); got != challenge {
		t.Errorf("base64url(sha256(verifier)) = %q, want challenge %q", got, challenge)
	}

	if got := form.Get("grant_type"); got != "authorization_code" {
		t.Errorf("grant_type = %q, want authorization_code", got)
	}
	if got := form.Get("client_id"); got != "client-abc" {
		t.Errorf("client_id = %q, want client-abc", got)
	}
	if got := form.Get("code"); got != "auth-code" {
		t.Errorf("code = %q, want auth-code", got)
	}
	if form.Has("client_secret") {
		t.Error("public client sent client_secret")
	}

	saved, err := tokens.Load(ctx)
	if err != nil || saved == nil {
		t.Fatalf("Load() = %v, %v; want saved tokens", saved, err)
	}
	if saved.AccessToken != "access-1" || saved.RefreshToken != "refresh-1" {
		t.Errorf("saved = %+v", saved)
	}
}

func TestComplete_UnknownState(t *testing.T) {
	ts := newTokenServer(t)
	flow, _ := newTestFlow(ts)

	flow.AuthorizationURL()
	_, err := flow.Complete(context.Background(), "forged-state", "code")
	if !errors.Is(err, shared.ErrSessionExpired) {
		t.Errorf("Complete() error = %v, want ErrSessionExpired", err)
	}
	if ts.calls != 0 {
		t.Errorf("token endpoint called %d times, want 0", ts.calls)
	}
}

func TestExchange_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response map[string]any
		wantBody string
	}{
		{
			name:     "provider error body",
			status:   http.StatusBadRequest,
			response: map[string]any{"error": "invalid_grant", "error_description": "Invalid authorization code"},
			wantBody: "invalid_grant",
		},
		{
			name:     "200 without access token",
			status:   http.StatusOK,
			response: map[string]any{"token_type": "Bearer", "expires_in": 3600},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t)
			ts.status = tt.status
			ts.response = tt.response
			flow, _ := newTestFlow(ts)

			_, err := flow.Exchange(context.Background(), "code", "verifier")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Fatalf("Exchange() error = %v, want ErrAuthFailed", err)
			}
			if tt.wantBody != "" && !strings.Contains(err.Error(), tt.wantBody) {
				t.Errorf("Exchange() error = %q, want it to contain %q", err, tt.wantBody)
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name        string
		response    map[string]any
		wantRefresh string
	}{
		{
			name:        "rotated refresh token",
			response:    map[string]any{"access_token": "access-2", "token_type": "Bearer", "refresh_token": "refresh-2", "expires_in": 3600},
			wantRefresh: "refresh-2",
		},
		{
			name:        "refresh token omitted",
			response:    map[string]any{"access_token": "access-2", "token_type": "Bearer", "expires_in": 3600},
			wantRefresh: "refresh-old",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t)
			ts.response = tt.response
			flow, _ := newTestFlow(ts)

			tok, err := flow.Refresh(context.Background(), "refresh-old")
			if err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}
			if tok.AccessToken != "access-2" {
				t.Errorf("AccessToken = %q, want access-2", tok.AccessToken)
			}
			if tok.RefreshToken != tt.wantRefresh {
				t.Errorf("RefreshToken = %q, want %q", tok.RefreshToken, tt.wantRefresh)
			}

			form := ts.form()
			if got := form.Get("grant_type"); got != "refresh_token" {
				t.Errorf("grant_type = %q, want refresh_token", got)
			}
			if got := form.Get("refresh_token"); got != "refresh-old" {
				t.Errorf("refresh_token = %q, want refresh-old", got)
			}
			if got := form.Get("client_id"); got != "client-abc" {
				t.Errorf("client_id = %q, want client-abc", got)
			}
		})
	}
}
