// Package config loads the dashboard configuration from TOML with environment overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/justestif/go-spotify-dashboard/internal/shared"
)

//go:embed config.example.toml
var exampleConf []byte

const appDirName = "spotify-dashboard"

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Spotify SpotifyConfig `toml:"spotify"`
	Storage StorageConfig `toml:"storage"`
	AI      AIConfig      `toml:"ai"`
	LastFM  LastFMConfig  `toml:"lastfm"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig controls the local HTTP listener.
type ServerConfig struct {
	Addr string `toml:"addr" validate:"required,hostname_port"`
}

// SpotifyConfig holds the public-client OAuth settings.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id" validate:"required"`
	RedirectURI string   `toml:"redirect_uri" validate:"required,url"`
	Scopes      []string `toml:"scopes" validate:"min=1,dive,required"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Driver string `toml:"driver" validate:"oneof=memory file sqlite postgres badger"`
	Path   string `toml:"path"`
	DSN    string `toml:"dsn" validate:"required_if=Driver postgres"`
}

// AIConfig gates and configures the generative-text client.
type AIConfig struct {
	Enabled           bool   `toml:"enabled"`
	APIKey            string `toml:"api_key"`
	Model             string `toml:"model" validate:"required"`
	BaseURL           string `toml:"base_url" validate:"required,url"`
	RequestsPerMinute int    `toml:"requests_per_minute" validate:"gte=1"`
}

// LastFMConfig enables the Last.fm genre fallback when APIKey is set.
type LastFMConfig struct {
	APIKey string `toml:"api_key"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
}

var validate = validator.New()

// Default returns the configuration embedded in config.example.toml.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("parsing embedded default config: %v", err))
	}
	return &cfg
}

// Load reads path on top of the defaults, applies environment overrides and validates.
// A missing file is not an error: defaults and environment are used instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("%w: parsing %s: %v", shared.ErrInvalidConfig, path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from the environment. lookup is os.LookupEnv outside tests.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SPOTIFY_ID"); ok && v != "" {
		c.Spotify.ClientID = v
	}
	if v, ok := lookup("SPOTIFY_REDIRECT_URI"); ok && v != "" {
		c.Spotify.RedirectURI = v
	}
	if v, ok := lookup("GEMINI_API_KEY"); ok && v != "" {
		c.AI.APIKey = v
	}
	if v, ok := lookup("ENABLE_AI"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: ENABLE_AI=%q", shared.ErrInvalidConfig, v)
		}
		c.AI.Enabled = enabled
	}
	if v, ok := lookup("LASTFM_API_KEY"); ok && v != "" {
		c.LastFM.APIKey = v
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Storage.DSN = v
	}
	return nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	return nil
}

// DefaultPath is ~/.config/spotify-dashboard/config.toml, or config.toml in
// the working directory when the user config dir is unknown.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(configDir, appDirName, "config.toml")
}

// StoragePath resolves the on-disk location for file-backed drivers, defaulting to
// ~/.config/spotify-dashboard/<name>.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config dir: %w", err)
	}

	var name string
	switch c.Storage.Driver {
	case "sqlite":
		name = "dashboard.db"
	case "badger":
		name = "badger"
	default:
		name = "state.json"
	}
	return filepath.Join(configDir, appDirName, name), nil
}

// WriteExample writes the embedded example config to path, refusing to overwrite.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
