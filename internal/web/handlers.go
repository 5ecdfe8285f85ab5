package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/justestif/go-spotify-dashboard/internal/dashboard"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
	catalog "github.com/justestif/go-spotify-dashboard/internal/spotify"
)

const appTitle = "Spotify Dashboard"

// Messages shown on the landing page after a failed sign-in or a lost session.
const (
	msgAuthFailed     = "Authentication failed. Please try again."
	msgSessionExpired = "Session expired. Please try again."
	msgReconnect      = "We couldn't reach your Spotify account. Please connect again."
	msgSignedOut      = "You have been signed out."
)

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	flow      Authorizer
	session   Session
	dashboard Dashboard
	stream    Stream
	templates *Templates
	upgrader  *websocket.Upgrader
	logger    *log.Logger
}

// Home renders the dashboard when a usable token exists and the landing page
// otherwise (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := h.pageData(w, r, appTitle, false)

	if _, err := h.session.ValidAccessToken(ctx); err != nil {
		if page.Flash == nil && !errors.Is(err, shared.ErrNotAuthenticated) {
			page.Flash = &FlashMessage{Type: flashError, Message: msgReconnect}
		}
		h.render(w, http.StatusOK, "home", HomePageData{PageData: page})
		return
	}

	view, err := h.dashboard.Overview(ctx)
	if err != nil {
		h.logger.Warn("loading overview", "err", err)
		page.Flash = &FlashMessage{Type: flashError, Message: msgReconnect}
		h.render(w, http.StatusOK, "home", HomePageData{PageData: page})
		return
	}

	page.SignedIn = true
	if view.Profile != nil {
		page.User = &UserData{
			ID:       view.Profile.ID,
			Name:     view.Profile.FirstName,
			ImageURL: view.Profile.ImageURL,
		}
	}
	h.render(w, http.StatusOK, "dashboard", DashboardPageData{PageData: page, Overview: view})
}

// TodayPage renders today's listening (GET /today).
func (h *Handlers) TodayPage(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	view, err := h.dashboard.Today(r.Context())
	if err != nil {
		h.pageError(w, r, "loading today", err)
		return
	}
	h.render(w, http.StatusOK, "today", TodayPageData{
		PageData:  h.pageData(w, r, "Today", true),
		Today:     view,
		MaxHourly: maxOf(view.Hourly[:]),
	})
}

// ReceiptPage renders the top-items receipt (GET /receipt?range=).
func (h *Handlers) ReceiptPage(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	rng, err := catalog.ParseTimeRange(r.URL.Query().Get("range"), catalog.ShortTerm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	view, err := h.dashboard.Receipt(r.Context(), rng)
	if err != nil {
		h.pageError(w, r, "loading receipt", err)
		return
	}
	h.render(w, http.StatusOK, "receipt", ReceiptPageData{
		PageData: h.pageData(w, r, "Receipt", true),
		Receipt:  view,
		Ranges:   rangeOptions(rng),
	})
}

// WrappedPage renders the monthly recap (GET /wrapped).
func (h *Handlers) WrappedPage(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	view, err := h.dashboard.Wrapped(r.Context())
	if err != nil {
		h.pageError(w, r, "loading wrapped", err)
		return
	}
	h.render(w, http.StatusOK, "wrapped", WrappedPageData{
		PageData: h.pageData(w, r, "Wrapped", true),
		Wrapped:  view,
	})
}

// Login starts the authorization flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.flow.AuthorizationURL(), http.StatusTemporaryRedirect)
}

// Callback completes the authorization flow (GET /callback). Every outcome
// lands on /, failures carry a flash message.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errMsg := q.Get("error"); errMsg != "" {
		h.logger.Warn("provider denied authorization", "error", errMsg)
		setFlash(w, flashError, msgAuthFailed)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	code := q.Get("code")
	if code == "" {
		setFlash(w, flashError, msgAuthFailed)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	if _, err := h.flow.Complete(r.Context(), q.Get("state"), code); err != nil {
		h.logger.Warn("completing authorization", "err", err)
		if errors.Is(err, shared.ErrSessionExpired) {
			setFlash(w, flashError, msgSessionExpired)
		} else {
			setFlash(w, flashError, msgAuthFailed)
		}
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout clears the stored tokens (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		h.logger.Error("logging out", "err", err)
		http.Error(w, "Failed to sign out", http.StatusInternalServerError)
		return
	}
	setFlash(w, flashInfo, msgSignedOut)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authorized redirects to / unless a usable access token exists.
func (h *Handlers) authorized(w http.ResponseWriter, r *http.Request) bool {
	_, err := h.session.ValidAccessToken(r.Context())
	if err == nil {
		return true
	}
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		h.logger.Warn("access token unavailable", "err", err)
		setFlash(w, flashError, msgReconnect)
	}
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
	return false
}

// pageError sends the user back to / with a flash message.
func (h *Handlers) pageError(w http.ResponseWriter, r *http.Request, action string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	h.logger.Warn(action, "err", err)
	setFlash(w, flashError, msgReconnect)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// pageData fills the fields every page shares.
func (h *Handlers) pageData(w http.ResponseWriter, r *http.Request, title string, signedIn bool) PageData {
	page := PageData{
		SignedIn:    signedIn,
		Title:       title,
		Flash:       popFlash(w, r),
		CurrentPath: r.URL.Path,
		Theme:       dashboard.ThemeLight,
	}
	if prefs, err := h.dashboard.Preferences().Get(r.Context()); err == nil {
		page.Theme = prefs.Theme
	} else {
		h.logger.Debug("loading preferences", "err", err)
	}
	return page
}

// render executes page into a buffer so a template error never leaves a
// half-written response.
func (h *Handlers) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.templates.Render(&buf, page, data); err != nil {
		h.logger.Error("rendering template", "page", page, "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func maxOf(xs []int) int {
	m := 0
	for _, x := range xs {
		m = max(m, x)
	}
	return m
}
