package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/justestif/go-spotify-dashboard/internal/dashboard"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
	catalog "github.com/justestif/go-spotify-dashboard/internal/spotify"
)

const maxBodyBytes = 64 << 10

// apiError is the JSON error body. Redirect is set when the client should
// send the user back to the landing page.
type apiError struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

// fail maps err onto a status. Authorization and catalog failures both send
// the client back to /.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrAuthFailed),
		errors.Is(err, shared.ErrCatalogRequest):
		h.logger.Debug("api unauthorized", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusUnauthorized, apiError{Error: err.Error(), Redirect: "/"})
	case errors.Is(err, dashboard.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		h.logger.Debug("client went away", "path", r.URL.Path)
	default:
		h.logger.Error("api request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// requireToken rejects requests without a usable access token, refreshing
// an expired one first.
func (h *Handlers) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.session.ValidAccessToken(r.Context()); err != nil {
			h.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// respond writes v, or maps err.
func respond[T any](h *Handlers, w http.ResponseWriter, r *http.Request, v T, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Me handles GET /api/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	v, err := h.dashboard.Me(r.Context())
	respond(h, w, r, v, err)
}

// Overview handles GET /api/overview.
func (h *Handlers) Overview(w http.ResponseWriter, r *http.Request) {
	v, err := h.dashboard.Overview(r.Context())
	respond(h, w, r, v, err)
}

// Today handles GET /api/today.
func (h *Handlers) Today(w http.ResponseWriter, r *http.Request) {
	v, err := h.dashboard.Today(r.Context())
	respond(h, w, r, v, err)
}

// Receipt handles GET /api/receipt?range=short_term|medium_term|long_term.
func (h *Handlers) Receipt(w http.ResponseWriter, r *http.Request) {
	rng, err := catalog.ParseTimeRange(r.URL.Query().Get("range"), catalog.ShortTerm)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.dashboard.Receipt(r.Context(), rng)
	respond(h, w, r, v, err)
}

// Wrapped handles GET /api/wrapped.
func (h *Handlers) Wrapped(w http.ResponseWriter, r *http.Request) {
	v, err := h.dashboard.Wrapped(r.Context())
	respond(h, w, r, v, err)
}

// Mood handles GET /api/mood.
func (h *Handlers) Mood(w http.ResponseWriter, r *http.Request) {
	v, err := h.dashboard.Mood(r.Context())
	respond(h, w, r, v, err)
}

// nowPlayingResponse keeps the "nothing playing" case explicit.
type nowPlayingResponse struct {
	Playing bool                `json:"playing"`
	Track   *catalog.NowPlaying `json:"track"`
}

// NowPlaying handles GET /api/now-playing.
func (h *Handlers) NowPlaying(w http.ResponseWriter, r *http.Request) {
	np, err := h.dashboard.NowPlaying(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nowPlayingResponse{Playing: np != nil, Track: np})
}

// GetPreferences handles GET /api/preferences.
func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	v, err := h.dashboard.Preferences().Get(r.Context())
	respond(h, w, r, v, err)
}

// UpdatePreferences handles PUT /api/preferences. Omitted fields keep their
// stored value.
func (h *Handlers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var in dashboard.Prefs
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid preferences body: "+err.Error())
		return
	}
	v, err := h.dashboard.Preferences().Update(r.Context(), in)
	respond(h, w, r, v, err)
}
