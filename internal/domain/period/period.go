// Package period names the scoring windows the engine ranks over.
//
// Two kinds of period exist: the unbounded "global" board and UTC-aligned
// seven-day weekly windows identified by ISO week, e.g. "weekly:2026-W35".
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Global is the unbounded all-time period.
const Global = "global"

const weeklyPrefix = "weekly:"

// StatsRetention is how long weekly records are kept past the period
// start. The extra day beyond the seven-day window leaves room for audit
// and finalization.
const StatsRetention = 8 * 24 * time.Hour

// ErrMalformed reports a period id that is neither "global" nor a weekly id.
var ErrMalformed = errors.New("malformed period id")

// Weekly returns the weekly period id containing t.
func Weekly(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%s%d-W%02d", weeklyPrefix, year, week)
}

// PreviousWeekly returns the weekly period id for the week before t.
func PreviousWeekly(t time.Time) string {
	return Weekly(t.UTC().AddDate(0, 0, -7))
}

// IsWeekly reports whether id names a weekly period.
func IsWeekly(id string) bool {
	return strings.HasPrefix(id, weeklyPrefix)
}

// Valid reports whether id is a recognized period id.
func Valid(id string) bool {
	if id == Global {
		return true
	}
	_, err := Start(id)
	return err == nil
}

// Start returns the UTC start instant of a weekly period id.
func Start(id string) (time.Time, error) {
	raw, ok := strings.CutPrefix(id, weeklyPrefix)
	if !ok {
		return time.Time{}, ErrMalformed
	}
	parts := strings.SplitN(raw, "-W", 2)
	if len(parts) != 2 {
		return time.Time{}, ErrMalformed
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, ErrMalformed
	}
	week, err := strconv.Atoi(parts[1])
	if err != nil || week < 1 || week > 53 {
		return time.Time{}, ErrMalformed
	}
	return isoWeekStart(year, week), nil
}

// Retention returns how much longer data for a weekly period should be
// kept, measured from now. Zero means the retention window has elapsed;
// the global period has no retention and returns a negative duration.
func Retention(id string, now time.Time) time.Duration {
	start, err := Start(id)
	if err != nil {
		return -1
	}
	d := start.Add(StatsRetention).Sub(now.UTC())
	if d < 0 {
		return 0
	}
	return d
}

// isoWeekStart finds the Monday 00:00 UTC opening the given ISO week.
func isoWeekStart(year, week int) time.Time {
	// Jan 4 is always inside ISO week 1.
	t := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := t.AddDate(0, 0, 1-wd)
	return monday.AddDate(0, 0, (week-1)*7)
}
