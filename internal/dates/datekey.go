/**
 * @description
 * DateKey utilities.
 * The DateKey ("YYYY-MM-DD", local wall-clock date in the puzzle timezone) is the
 * sole time axis of the system: no timestamps are compared across components,
 * only DateKey equality and yesterday/today adjacency.
 *
 * @notes
 * - The current date and timezone are explicit inputs (Clock + *time.Location)
 *   so tests can pin DateKeys deterministically.
 */

package dates

import (
	"fmt"
	"time"
)

// KeyLayout is the DateKey format
const KeyLayout = "2006-01-02"

// Clock supplies the current instant. Production code uses SystemClock;
// tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock
func SystemClock() Clock { return systemClock{} }

// Fixed returns a Clock pinned to t
func Fixed(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

// Key formats t's calendar date in loc as a DateKey
func Key(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(KeyLayout)
}

// TodayKey returns the DateKey for the current local date
func TodayKey(clock Clock, loc *time.Location) string {
	return Key(clock.Now(), loc)
}

// YesterdayKey returns the DateKey for the previous local date. The shift
// happens on the local calendar, not the clock's: subtracting a day before
// converting would collapse yesterday into today during the last hour of a
// DST fall-back day.
func YesterdayKey(clock Clock, loc *time.Location) string {
	return Key(clock.Now().In(loc).AddDate(0, 0, -1), loc)
}

// NextOccurrence returns the next instant at local wall-clock time hhmm ("HH:MM")
// strictly after now. Used by the loop-mode generator to sleep until its slot.
func NextOccurrence(now time.Time, loc *time.Location, hhmm string) (time.Time, error) {
	at, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule time %q: %w", hhmm, err)
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), at.Hour(), at.Minute(), 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
