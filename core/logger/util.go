package logger

import (
	"fmt"
	"strings"
	"time"
)

// Took returns the time since start rounded to milliseconds.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to the nearest millisecond. Negative durations become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Preview joins at most limit values with ", " and notes how many were left out,
// e.g. "a, b (+3 more)". It keeps list attributes such as quiz names or migration files short.
func Preview(values []string, limit int) string {
	if len(values) == 0 {
		return ""
	}
	if limit <= 0 {
		return fmt.Sprintf("(%d items)", len(values))
	}
	if len(values) <= limit {
		return strings.Join(values, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(values[:limit], ", "), len(values)-limit)
}
