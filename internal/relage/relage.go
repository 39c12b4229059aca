// Package relage parses the relative age phrases feeds attach to videos
// ("3 days ago", "Streamed 5 hours ago") and renders durations back into
// the same shape for sources that only report absolute timestamps.
package relage

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var agePattern = regexp.MustCompile(`^(\d+)\s+(minute|minutes|hour|hours|day|days|week|weeks)`)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// Parse converts a relative age phrase into a duration. The phrase is
// lowercased, the word "streamed" is removed, and a leading "<n> <unit>" is
// matched. Units beyond weeks (months, years) and unrecognized text report
// false; callers treat that as unparsable rather than as an error.
func Parse(text string) (time.Duration, bool) {
	normalized := strings.ToLower(text)
	normalized = strings.ReplaceAll(normalized, "streamed", "")
	normalized = strings.TrimSpace(normalized)

	m := agePattern.FindStringSubmatch(normalized)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	var unit time.Duration
	switch strings.TrimSuffix(m[2], "s") {
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	case "day":
		unit = day
	case "week":
		unit = week
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

// Format renders d as the coarsest whole unit that Parse understands,
// e.g. "1 hour ago" or "12 days ago". Durations below a minute render as
// "0 minutes ago"; negative durations are clamped to zero.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	var (
		n    int64
		unit string
	)
	switch {
	case d >= week:
		n, unit = int64(d/week), "week"
	case d >= day:
		n, unit = int64(d/day), "day"
	case d >= time.Hour:
		n, unit = int64(d/time.Hour), "hour"
	default:
		n, unit = int64(d/time.Minute), "minute"
	}
	if n != 1 {
		unit += "s"
	}
	return strconv.FormatInt(n, 10) + " " + unit + " ago"
}

// Since formats the age of published relative to now.
func Since(published, now time.Time) string {
	return Format(now.Sub(published))
}
