// Package web serves the dashboard pages, its JSON API and the now-playing stream.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justestif/go-spotify-dashboard/internal/auth"
	"github.com/justestif/go-spotify-dashboard/internal/dashboard"
	"github.com/justestif/go-spotify-dashboard/internal/nowplaying"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
	catalog "github.com/justestif/go-spotify-dashboard/internal/spotify"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// DefaultAIRequestsPerMinute bounds the insight endpoints per client IP.
const DefaultAIRequestsPerMinute = 10

// Authorizer runs the two legs of the authorization flow.
type Authorizer interface {
	AuthorizationURL() string
	Complete(ctx context.Context, state, code string) (*auth.TokenState, error)
}

// Session reports and ends the local authorization.
type Session interface {
	ValidAccessToken(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

// Dashboard builds the views.
type Dashboard interface {
	Me(ctx context.Context) (*dashboard.Profile, error)
	Overview(ctx context.Context) (*dashboard.OverviewView, error)
	Today(ctx context.Context) (*dashboard.TodayView, error)
	Receipt(ctx context.Context, r catalog.TimeRange) (*dashboard.ReceiptView, error)
	Wrapped(ctx context.Context) (*dashboard.WrappedView, error)
	Mood(ctx context.Context) (*dashboard.MoodView, error)
	NowPlaying(ctx context.Context) (*catalog.NowPlaying, error)
	Preferences() *dashboard.Preferences
}

// Stream fans out now-playing snapshots.
type Stream interface {
	Subscribe() (string, <-chan nowplaying.Snapshot)
	Unsubscribe(id string)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	TemplatesFS fs.FS
	StaticFS    fs.FS

	Flow      Authorizer
	Session   Session
	Dashboard Dashboard
	Stream    Stream

	// AIRequestsPerMinute limits /api/mood and /api/wrapped per client IP.
	AIRequestsPerMinute int
	// AllowedOrigins lists extra websocket origins besides the server's own host.
	AllowedOrigins []string
	Logger         *log.Logger
}

// Server is the HTTP server for the web application.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	handlers  *Handlers
	logger    *log.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.AIRequestsPerMinute <= 0 {
		cfg.AIRequestsPerMinute = DefaultAIRequestsPerMinute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "web")

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		templates: templates,
		logger:    logger,
		handlers: &Handlers{
			flow:      cfg.Flow,
			session:   cfg.Session,
			dashboard: cfg.Dashboard,
			stream:    cfg.Stream,
			templates: templates,
			upgrader:  newUpgrader(cfg.AllowedOrigins),
			logger:    logger,
		},
	}

	s.setupMiddleware()
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(cfg ServerConfig) {
	h := s.handlers

	if cfg.StaticFS != nil {
		fileServer := http.FileServer(http.FS(cfg.StaticFS))
		s.router.With(middleware.Compress(5)).Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Get("/", h.Home)
		r.Get("/receipt", h.ReceiptPage)
		r.Get("/wrapped", h.WrappedPage)
		r.Get("/today", h.TodayPage)
	})

	// Auth
	s.router.Get("/auth/login", h.Login)
	s.router.Get("/callback", h.Callback)
	s.router.Post("/auth/logout", h.Logout)

	// JSON API
	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Use(h.requireToken)

		r.Get("/me", h.Me)
		r.Get("/overview", h.Overview)
		r.Get("/today", h.Today)
		r.Get("/receipt", h.Receipt)
		r.Get("/now-playing", h.NowPlaying)
		r.Get("/preferences", h.GetPreferences)
		r.Put("/preferences", h.UpdatePreferences)

		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(
				cfg.AIRequestsPerMinute,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, "too many insight requests, try again in a minute")
				}),
			))
			r.Get("/wrapped", h.Wrapped)
			r.Get("/mood", h.Mood)
		})
	})

	s.router.With(h.requireToken).Get("/ws/now-playing", h.NowPlayingStream)
	s.router.Handle("/metrics", promhttp.Handler())
}

// requestLogger logs each request once it completes.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "url", "http://"+s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and shuts it down gracefully when ctx is done or an
// interrupt signal arrives.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
