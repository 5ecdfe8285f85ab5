package stats

import (
	"fmt"
	"math"
)

// EmptyDuration is shown in place of an average over zero plays.
const EmptyDuration = "—"

// TotalDurationMs sums play durations.
func TotalDurationMs(plays []PlayRecord) int64 {
	var total int64
	for _, p := range plays {
		total += int64(p.DurationMs)
	}
	return total
}

// AverageDurationMs returns the mean play duration. ok is false for zero plays,
// in which case the average is 0.
func AverageDurationMs(plays []PlayRecord) (avg float64, ok bool) {
	if len(plays) == 0 {
		return 0, false
	}
	return float64(TotalDurationMs(plays)) / float64(len(plays)), true
}

// FormatClock renders ms as M:SS, flooring to whole seconds.
func FormatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// FormatHoursMinutes renders ms as H:MM, flooring to whole minutes.
func FormatHoursMinutes(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	mins := ms / 60000
	return fmt.Sprintf("%d:%02d", mins/60, mins%60)
}

// FormatListening renders ms as "Xh Ym", or "Ym" under an hour, rounding to
// the nearest minute.
func FormatListening(ms int64) string {
	mins := int64(math.Round(float64(ms) / 60000))
	if mins < 0 {
		mins = 0
	}
	h, m := mins/60, mins%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatAverage renders an average from AverageDurationMs as M:SS, or
// EmptyDuration when there were no plays.
func FormatAverage(avg float64, ok bool) string {
	if !ok {
		return EmptyDuration
	}
	return FormatClock(int64(avg))
}
