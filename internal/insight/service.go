package insight

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-dashboard/internal/clustering"
	"github.com/justestif/go-spotify-dashboard/internal/metrics"
	"github.com/justestif/go-spotify-dashboard/internal/shared"
)

// Fallback texts served when generation is off or fails.
const (
	MoodFallback    = "Vibing with great music! 🎵"
	WrappedFallback = "Your music taste is unique and wonderful! Keep discovering new sounds."
)

var (
	moodConfig    = GenerationConfig{Temperature: 0.8, MaxOutputTokens: 50}
	wrappedConfig = GenerationConfig{Temperature: 0.9, MaxOutputTokens: 100}
)

// Insight is a text ready to display along with where it came from:
// "cache", "generated" or "fallback".
type Insight struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Service serves mood and recap insights, consulting the cache before the
// generator.
type Service struct {
	gen     Generator
	cache   *Cache
	enabled bool
	logger  *log.Logger
}

// NewService creates a Service. A nil gen or enabled=false makes every
// uncached request return the fallback without network access.
func NewService(gen Generator, cache *Cache, enabled bool, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Service{
		gen:     gen,
		cache:   cache,
		enabled: enabled,
		logger:  shared.WithLogger(logger, "component", "insight"),
	}
}

// Enabled reports whether uncached requests may reach the generator.
func (s *Service) Enabled() bool {
	return s.enabled && s.gen != nil
}

// Mood describes the listener's current mood from recent plays.
func (s *Service) Mood(ctx context.Context, tracks []MoodTrack) Insight {
	return s.serve(ctx, KindMood, MoodFallback, func() (string, GenerationConfig) {
		sample := tracks[:min(len(tracks), maxMoodTracks)]
		vt := make([]clustering.Track, len(sample))
		for i, t := range sample {
			vt[i] = clustering.Track{Name: t.Name, Artist: t.Artist, Tags: clustering.TagsFromGenres(t.Genres)}
		}
		return moodPrompt(sample, clustering.DominantVibe(vt)), moodConfig
	})
}

// Wrapped writes a short recap of a listening period.
func (s *Service) Wrapped(ctx context.Context, in WrappedInput) Insight {
	return s.serve(ctx, KindWrapped, WrappedFallback, func() (string, GenerationConfig) {
		return wrappedPrompt(in), wrappedConfig
	})
}

func (s *Service) serve(ctx context.Context, kind Kind, fallback string, prompt func() (string, GenerationConfig)) Insight {
	if text, ok := s.cache.Get(ctx, kind); ok {
		metrics.InsightResults.WithLabelValues(string(kind), SourceCache).Inc()
		return Insight{Text: text, Source: SourceCache}
	}

	r := s.generate(ctx, kind, fallback, prompt)
	if err := s.cache.Put(ctx, kind, r); err != nil {
		s.logger.Warn("caching insight", "kind", kind, "err", err)
	}

	source := Source(r)
	metrics.InsightResults.WithLabelValues(string(kind), source).Inc()
	return Insight{Text: r.Text(), Source: source}
}

func (s *Service) generate(ctx context.Context, kind Kind, fallback string, prompt func() (string, GenerationConfig)) Result {
	if !s.Enabled() {
		return Fallback{Content: fallback}
	}

	p, cfg := prompt()
	text, err := s.gen.Generate(ctx, p, cfg)
	if err != nil {
		s.logger.Warn("generating insight", "kind", kind, "err", err)
		return Fallback{Content: fallback}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Fallback{Content: fallback}
	}
	return Generated{Content: text}
}
