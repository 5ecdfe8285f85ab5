package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/justestif/go-spotify-dashboard/internal/auth"
	"github.com/justestif/go-spotify-dashboard/internal/config"
	"github.com/justestif/go-spotify-dashboard/internal/dashboard"
	"github.com/justestif/go-spotify-dashboard/internal/insight"
	"github.com/justestif/go-spotify-dashboard/internal/lastfm"
	"github.com/justestif/go-spotify-dashboard/internal/nowplaying"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
	catalog "github.com/justestif/go-spotify-dashboard/internal/spotify"
	"github.com/justestif/go-spotify-dashboard/internal/store"
	"github.com/justestif/go-spotify-dashboard/internal/tags"
	"github.com/justestif/go-spotify-dashboard/internal/web"
	webfs "github.com/justestif/go-spotify-dashboard/web"
)

// Runner holds the dependencies shared by CLI commands. Configuration and the
// store are opened on first use so init-config works without either.
type Runner struct {
	config     *config.Config
	kv         store.Store
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	services   *services
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *config.Config
	Store      store.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// services is the wired application graph.
type services struct {
	tokens    *auth.TokenStore
	flow      *auth.Flow
	guardian  *auth.Guardian
	dashboard *dashboard.Service
	poller    *nowplaying.Poller
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Runner{
		config:     opts.Config,
		kv:         opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, statusCommand, logoutCommand, todayCommand, receiptCommand,
		wrappedCommand, moodCommand, nowPlayingCommand, initConfigCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// loadConfig reads the --config file once and applies --log-level.
func (r *Runner) loadConfig(cmd *cli.Command) (*config.Config, error) {
	if r.config == nil {
		cfg, err := config.Load(cmd.String("config"))
		if err != nil {
			return nil, err
		}
		r.config = cfg
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		r.config.Log.Level = lvl
	}
	if err := shared.SetLogLevel(r.logger, r.config.Log.Level); err != nil {
		return nil, err
	}
	return r.config, nil
}

func (r *Runner) openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if r.kv != nil {
		return r.kv, nil
	}
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	kv, err := store.Open(ctx, store.Options{Driver: cfg.Storage.Driver, Path: path, DSN: cfg.Storage.DSN})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Storage.Driver, err)
	}
	r.logger.Debug("store opened", "driver", cfg.Storage.Driver, "path", path)
	r.kv = kv
	return kv, nil
}

// setup wires the application graph on first use.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (*services, error) {
	if r.services != nil {
		return r.services, nil
	}

	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	kv, err := r.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokenStore(kv)
	flow := auth.NewFlow(auth.FlowConfig{
		ClientID:    cfg.Spotify.ClientID,
		RedirectURI: cfg.Spotify.RedirectURI,
		Scopes:      cfg.Spotify.Scopes,
		HTTPClient:  r.httpClient,
		Logger:      r.logger,
	}, tokens, auth.NewVerifierStore())
	guardian := auth.NewGuardian(tokens, flow, r.logger)

	client := catalog.New(
		guardian.Client(ctx, r.httpClient),
		catalog.Options{RetryRateLimited: true, Logger: r.logger},
	)

	resolverOpts := []tags.Option{tags.WithLogger(r.logger)}
	if cfg.LastFM.APIKey != "" {
		lfm, err := lastfm.NewClient(lastfm.Config{APIKey: cfg.LastFM.APIKey, HTTPClient: r.httpClient})
		if err != nil {
			return nil, err
		}
		resolverOpts = append(resolverOpts, tags.WithFallback(lfm))
	}

	var gen insight.Generator
	switch {
	case cfg.AI.APIKey != "":
		gen = insight.NewGeminiClient(insight.GeminiConfig{
			APIKey:            cfg.AI.APIKey,
			Model:             cfg.AI.Model,
			BaseURL:           cfg.AI.BaseURL,
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
			Logger:            r.logger,
		})
	case cfg.AI.Enabled:
		r.logger.Warn("AI insights enabled without an API key, using fallback text")
	}

	dash := dashboard.NewService(dashboard.Deps{
		Catalog:  client,
		Genres:   tags.NewResolver(client, kv, resolverOpts...),
		Insights: insight.NewService(gen, insight.NewCache(kv), cfg.AI.Enabled, r.logger),
		Store:    kv,
		Logger:   r.logger,
	})

	r.services = &services{
		tokens:    tokens,
		flow:      flow,
		guardian:  guardian,
		dashboard: dash,
		poller:    nowplaying.New(dash, nowplaying.WithLogger(r.logger)),
	}
	return r.services, nil
}

// newServer builds the web server over the wired services.
func (r *Runner) newServer(s *services) (*web.Server, error) {
	templates, err := webfs.Templates()
	if err != nil {
		return nil, err
	}
	static, err := webfs.Static()
	if err != nil {
		return nil, err
	}

	return web.NewServer(web.ServerConfig{
		Addr:                r.config.Server.Addr,
		TemplatesFS:         templates,
		StaticFS:            static,
		Flow:                s.flow,
		Session:             s.guardian,
		Dashboard:           s.dashboard,
		Stream:              s.poller,
		AIRequestsPerMinute: r.config.AI.RequestsPerMinute,
		Logger:              r.logger,
	})
}

// Close stops the poller and releases the store.
func (r *Runner) Close() error {
	if r.services != nil {
		r.services.poller.Close()
	}
	if r.kv != nil {
		return r.kv.Close()
	}
	return nil
}

func (r *Runner) writeJSON(data any) error {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
