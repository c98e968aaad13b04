// Package schedule implements the acquisition-schedule reconciliation core:
// clustering of observed session start times into canonical daily slots,
// per-device gap detection against the daily consensus, and inference of a
// full day's schedule for devices that produced no evidence at all.
//
// The package is pure: it performs no I/O and holds no state between calls,
// so callers may reconcile different subject-days concurrently.
package schedule

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time within a single day, at second precision.
// It is stored as seconds since midnight so tolerance arithmetic is plain
// integer math.
type TimeOfDay int

// timeOfDayLayout is the folder/filename time format used by the recorders
// ("10-30-00" for 10:30:00).
const timeOfDayLayout = "15-04-05"

// ParseTimeOfDay parses a time in the recorders' HH-MM-SS form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for trusted literals; it panics on
// malformed input.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String formats the time back into the recorders' HH-MM-SS form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d-%02d-%02d", int(t)/3600, int(t)/60%60, int(t)%60)
}

// Clock formats the time as HH:MM:SS for display.
func (t TimeOfDay) Clock() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)/60%60, int(t)%60)
}

// Seconds returns the time as seconds since midnight.
func (t TimeOfDay) Seconds() int { return int(t) }

// ZeroSeconds truncates the time to the start of its minute. Scheduled
// sessions only vary by minute; real device clocks jitter within a session.
func (t TimeOfDay) ZeroSeconds() TimeOfDay {
	return t - t%60
}

// Within reports whether t and u differ by no more than tol. The comparison
// is symmetric; it is the single tolerance primitive shared by the
// clusterer, the reconciler and the consensus union.
func (t TimeOfDay) Within(u TimeOfDay, tol time.Duration) bool {
	d := int(t) - int(u)
	if d < 0 {
		d = -d
	}
	return d <= int(tol/time.Second)
}

// anyWithin reports whether any element of list is within tol of t.
func anyWithin(t TimeOfDay, list []TimeOfDay, tol time.Duration) bool {
	for _, u := range list {
		if t.Within(u, tol) {
			return true
		}
	}
	return false
}
