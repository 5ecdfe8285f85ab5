package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/justestif/go-spotify-dashboard/internal/shared"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, "127.0.0.1:8080")
	}
	if cfg.Storage.Driver != "file" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "file")
	}
	if len(cfg.Spotify.Scopes) != 6 {
		t.Errorf("got %d scopes, want 6", len(cfg.Spotify.Scopes))
	}
	if cfg.AI.Enabled {
		t.Error("AI.Enabled = true, want false")
	}
	if cfg.AI.Model != "gemini-2.5-flash-lite" {
		t.Errorf("AI.Model = %q, want gemini-2.5-flash-lite", cfg.AI.Model)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SPOTIFY_ID":     "client-123",
		"GEMINI_API_KEY": "gem-key",
		"ENABLE_AI":      "true",
		"LASTFM_API_KEY": "lfm-key",
		"DATABASE_URL":   "postgres://localhost/dash",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv() error = %v", err)
	}

	if cfg.Spotify.ClientID != "client-123" {
		t.Errorf("ClientID = %q, want client-123", cfg.Spotify.ClientID)
	}
	if !cfg.AI.Enabled {
		t.Error("AI.Enabled = false, want true")
	}
	if cfg.AI.APIKey != "gem-key" {
		t.Errorf("AI.APIKey = %q, want gem-key", cfg.AI.APIKey)
	}
	if cfg.LastFM.APIKey != "lfm-key" {
		t.Errorf("LastFM.APIKey = %q, want lfm-key", cfg.LastFM.APIKey)
	}
	if cfg.Storage.DSN != "postgres://localhost/dash" {
		t.Errorf("Storage.DSN = %q", cfg.Storage.DSN)
	}
}

func TestApplyEnv_InvalidBool(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		if k == "ENABLE_AI" {
			return "maybe", true
		}
		return "", false
	})
	if !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("applyEnv() error = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(c *Config) { c.Spotify.ClientID = "id" },
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) {},
			wantErr: true,
		},
		{
			name: "unknown driver",
			mutate: func(c *Config) {
				c.Spotify.ClientID = "id"
				c.Storage.Driver = "redis"
			},
			wantErr: true,
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.Spotify.ClientID = "id"
				c.Storage.Driver = "postgres"
			},
			wantErr: true,
		},
		{
			name: "bad redirect",
			mutate: func(c *Config) {
				c.Spotify.ClientID = "id"
				c.Spotify.RedirectURI = "not a url"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv("SPOTIFY_ID", "")
	t.Setenv("ENABLE_AI", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[spotify]
client_id = "from-file"

[storage]
driver = "memory"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Spotify.ClientID != "from-file" {
		t.Errorf("ClientID = %q, want from-file", cfg.Spotify.ClientID)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("SPOTIFY_ID", "env-id")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Spotify.ClientID != "env-id" {
		t.Errorf("ClientID = %q, want env-id", cfg.Spotify.ClientID)
	}
}

func TestStoragePath(t *testing.T) {
	cfg := Default()
	cfg.Storage.Path = "/tmp/custom.json"
	got, err := cfg.StoragePath()
	if err != nil {
		t.Fatalf("StoragePath() error = %v", err)
	}
	if got != "/tmp/custom.json" {
		t.Errorf("StoragePath() = %q, want /tmp/custom.json", got)
	}

	cfg.Storage.Path = ""
	cfg.Storage.Driver = "sqlite"
	got, err = cfg.StoragePath()
	if err != nil {
		t.Fatalf("StoragePath() error = %v", err)
	}
	if filepath.Base(got) != "dashboard.db" {
		t.Errorf("StoragePath() = %q, want dashboard.db suffix", got)
	}
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := WriteExample(path); err != nil {
		t.Fatalf("WriteExample() error = %v", err)
	}
	if err := WriteExample(path); err == nil {
		t.Error("second WriteExample() error = nil, want already exists")
	}
}
