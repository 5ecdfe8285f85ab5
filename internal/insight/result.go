// Package insight produces short generated blurbs about the user's listening
// and caches them for a fixed time per kind.
package insight

// Result is the outcome of asking for an insight: either text from the
// generative service or a fixed fallback. Only Generated results are cached.
type Result interface {
	Text() string
	isResult()
}

// Generated is text produced by the generative service.
type Generated struct {
	Content string
}

// Fallback is the fixed text used when generation is disabled or failed.
type Fallback struct {
	Content string
}

func (g Generated) Text() string { return g.Content }
func (Generated) isResult()      {}

func (f Fallback) Text() string { return f.Content }
func (Fallback) isResult()      {}

// Insight sources.
const (
	SourceCache     = "cache"
	SourceGenerated = "generated"
	SourceFallback  = "fallback"
)

// Source names where a result came from, for API responses and metrics.
func Source(r Result) string {
	switch r.(type) {
	case Generated:
		return SourceGenerated
	case Fallback:
		return SourceFallback
	default:
		return "unknown"
	}
}
