package shared

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Errorf("log output = %q, want it to contain %q", out, "hello")
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("log output = %q, want it to contain %q", out, "key=value")
	}
}

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		want    log.Level
		wantErr error
	}{
		{name: "debug", level: "debug", want: log.DebugLevel},
		{name: "upper case", level: "WARN", want: log.WarnLevel},
		{name: "empty keeps default", level: "", want: log.InfoLevel},
		{name: "invalid", level: "loud", want: log.InfoLevel, wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(&bytes.Buffer{})
			err := SetLogLevel(logger, tt.level)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetLogLevel() error = %v, want %v", err, tt.wantErr)
			}
			if got := logger.GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBrowserCommand(t *testing.T) {
	original := goos
	defer func() { goos = original }()

	tests := []struct {
		platform string
		wantBin  string
		wantErr  bool
	}{
		{platform: "darwin", wantBin: "open"},
		{platform: "linux", wantBin: "xdg-open"},
		{platform: "windows", wantBin: "rundll32"},
		{platform: "plan9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			goos = func() string { return tt.platform }
			cmd, err := browserCommand("http://127.0.0.1:8080")
			if tt.wantErr {
				if err == nil {
					t.Fatal("browserCommand() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("browserCommand() error = %v", err)
			}
			if !strings.HasSuffix(cmd.Path, tt.wantBin) && cmd.Args[0] != tt.wantBin {
				t.Errorf("command = %v, want %s", cmd.Args, tt.wantBin)
			}
			if last := cmd.Args[len(cmd.Args)-1]; last != "http://127.0.0.1:8080" {
				t.Errorf("last arg = %q, want url", last)
			}
		})
	}
}
