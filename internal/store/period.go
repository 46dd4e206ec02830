// internal/store/period.go

package store

import (
	"strings"
	"time"
)

// Period is a leaderboard window.
type Period string

const (
	Daily  Period = "daily"
	Weekly Period = "weekly"
	All    Period = "all"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// ParsePeriod accepts daily|weekly|all; empty means daily.
func ParsePeriod(s string) (Period, bool) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Daily, true
	case Daily, Weekly, All:
		return p, true
	}
	return "", false
}

// Since returns the start of the window ending at now. Daily starts at UTC
// midnight; weekly covers the last seven days, truncated to the hour so
// repeated queries share a start; all returns the zero time.
func (p Period) Since(now time.Time) time.Time {
	now = now.UTC()
	switch p {
	case Daily:
		return now.Truncate(24 * time.Hour)
	case Weekly:
		return now.Add(-7 * 24 * time.Hour).Truncate(time.Hour)
	}
	return time.Time{}
}

// ClampLimit applies the default and upper bound to a requested limit.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
