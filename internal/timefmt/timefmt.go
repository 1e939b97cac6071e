// Package timefmt renders session clocks and playback positions as MM:SS.
package timefmt

import (
	"fmt"
	"math"
)

// Clock formats whole seconds. Minutes keep growing past 59; there is no
// hour field.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Playback formats a fractional media position, flooring both fields.
func Playback(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "00:00"
	}
	return Clock(int(math.Floor(seconds)))
}

// Progress returns current/duration as a percentage, or 0 when the duration
// is unknown.
func Progress(current, duration float64) float64 {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) || math.IsNaN(current) {
		return 0
	}
	return current / duration * 100
}
