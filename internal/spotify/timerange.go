package spotify

import (
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-dashboard/internal/shared"
)

// TimeRange is the lookback window for top items.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"
	MediumTerm TimeRange = "medium_term"
	LongTerm   TimeRange = "long_term"
)

// MaxLimit is the largest page the read endpoints accept.
const MaxLimit = 50

// ParseTimeRange validates s. An empty string yields def.
func ParseTimeRange(s string, def TimeRange) (TimeRange, error) {
	switch r := TimeRange(s); r {
	case "":
		return def, nil
	case ShortTerm, MediumTerm, LongTerm:
		return r, nil
	default:
		return "", fmt.Errorf("%w: time range %q", shared.ErrInvalidArgument, s)
	}
}

// Label is the human-readable window name.
func (r TimeRange) Label() string {
	switch r {
	case ShortTerm:
		return "Last 4 Weeks"
	case MediumTerm:
		return "Last 6 Months"
	case LongTerm:
		return "All Time"
	default:
		return string(r)
	}
}

func (r TimeRange) apiRange() spotify.Range {
	switch r {
	case MediumTerm:
		return spotify.MediumTermRange
	case LongTerm:
		return spotify.LongTermRange
	default:
		return spotify.ShortTermRange
	}
}

// clampLimit keeps n within 1..MaxLimit.
func clampLimit(n int) int {
	return min(max(n, 1), MaxLimit)
}
