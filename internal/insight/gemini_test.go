package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/justestif/go-spotify-dashboard/internal/shared"
)

type geminiStub struct {
	calls  atomic.Int32
	status int
	body   string
	last   atomic.Value // generateRequest
}

func (g *geminiStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.calls.Add(1)

		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/models/test-model:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "secret" {
			t.Errorf("x-goog-api-key = %q, want secret", got)
		}
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want none", r.URL.RawQuery)
		}

		data, _ := io.ReadAll(r.Body)
		var req generateRequest
		if err := json.Unmarshal(data, &req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		g.last.Store(req)

		status := g.status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, g.body)
	}
}

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(b)
}

func newTestGemini(t *testing.T, stub *geminiStub) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)

	return NewGeminiClient(GeminiConfig{
		APIKey:            "secret",
		Model:             "test-model",
		BaseURL:           srv.URL,
		RequestsPerMinute: 6000,
		HTTPClient:        srv.Client(),
	})
}

func TestGeminiGenerate(t *testing.T) {
	stub := &geminiStub{body: candidateBody("Mellow and bright ☀️")}
	c := newTestGemini(t, stub)

	got, err := c.Generate(context.Background(), "describe", GenerationConfig{Temperature: 0.8, MaxOutputTokens: 50})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Mellow and bright ☀️" {
		t.Errorf("text = %q", got)
	}

	req := stub.last.Load().(generateRequest)
	if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "describe" {
		t.Errorf("contents = %+v", req.Contents)
	}
	if req.GenerationConfig.Temperature != 0.8 || req.GenerationConfig.MaxOutputTokens != 50 {
		t.Errorf("generationConfig = %+v", req.GenerationConfig)
	}
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{}}`, wantErr: ErrServiceStatus},
		{name: "no candidates", body: `{"candidates":[]}`, wantErr: ErrEmptyResponse},
		{name: "empty text", body: candidateBody(""), wantErr: ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestGemini(t, &geminiStub{status: tt.status, body: tt.body})
			_, err := c.Generate(context.Background(), "p", moodConfig)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGeminiBreakerOpensAfterFailures(t *testing.T) {
	stub := &geminiStub{status: http.StatusServiceUnavailable, body: "down"}
	c := newTestGemini(t, stub)

	for i := 0; i < 5; i++ {
		_, err := c.Generate(context.Background(), "p", moodConfig)
		if err == nil {
			t.Fatal("expected error")
		}
	}

	if got := stub.calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3 before the breaker opens", got)
	}
}

func TestGeminiCancelledContext(t *testing.T) {
	stub := &geminiStub{body: candidateBody("x")}
	c := newTestGemini(t, stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, "p", moodConfig)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if stub.calls.Load() != 0 {
		t.Errorf("upstream calls = %d, want 0", stub.calls.Load())
	}
}

func TestGeminiTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	var logs bytes.Buffer
	c := NewGeminiClient(GeminiConfig{
		APIKey:            "SECRET-KEY-123",
		Model:             "test-model",
		BaseURL:           base,
		RequestsPerMinute: 6000,
		Logger:            shared.NewLogger(&logs),
	})

	_, err := c.Generate(context.Background(), "p", moodConfig)
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if strings.Contains(err.Error(), "SECRET-KEY-123") {
		t.Errorf("error leaks the API key: %v", err)
	}
	if strings.Contains(logs.String(), "SECRET-KEY-123") {
		t.Errorf("logs leak the API key: %s", logs.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "short", 10, "short"},
		{"ascii", strings.Repeat("a", 12), 10, strings.Repeat("a", 10) + "..."},
		// "é" is two bytes; cutting at 2 would split the second one.
		{"multibyte", "aéé", 2, "a..."},
		{"rune boundary", "aéé", 3, "aé..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) = %q, not valid UTF-8", tt.in, tt.n, got)
			}
		})
	}
}
