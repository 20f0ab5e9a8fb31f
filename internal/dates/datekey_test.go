package dates

import (
	"testing"
	"time"
)

func TestKeyUsesLocalCalendarDate(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 02:30 UTC on Jan 3 is still Jan 2 in New York
	instant := time.Date(2025, 1, 3, 2, 30, 0, 0, time.UTC)
	if got := Key(instant, newYork); got != "2025-01-02" {
		t.Errorf("Key in New York = %s, want 2025-01-02", got)
	}
	if got := Key(instant, time.UTC); got != "2025-01-03" {
		t.Errorf("Key in UTC = %s, want 2025-01-03", got)
	}
}

func TestTodayAndYesterdayKeys(t *testing.T) {
	clock := Fixed(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))

	if got := TodayKey(clock, time.UTC); got != "2025-03-01" {
		t.Errorf("TodayKey = %s, want 2025-03-01", got)
	}
	// AddDate handles month boundaries
	if got := YesterdayKey(clock, time.UTC); got != "2025-02-28" {
		t.Errorf("YesterdayKey = %s, want 2025-02-28", got)
	}
}

func TestYesterdayKeyOnFallBackDay(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 2025-11-02 is 25 hours long in New York. During its last local hour
	// (23:30 EST = 04:30 UTC next day) yesterday must still resolve to the
	// previous calendar date, never to today.
	clock := Fixed(time.Date(2025, 11, 3, 4, 30, 0, 0, time.UTC))

	if got := TodayKey(clock, newYork); got != "2025-11-02" {
		t.Fatalf("TodayKey = %s, want 2025-11-02", got)
	}
	if got := YesterdayKey(clock, newYork); got != "2025-11-01" {
		t.Errorf("YesterdayKey = %s, want 2025-11-01", got)
	}
}

func TestNextOccurrence(t *testing.T) {
	loc := time.UTC

	// Before today's slot: fires today
	now := time.Date(2025, 1, 2, 0, 30, 0, 0, loc)
	next, err := NextOccurrence(now, loc, "01:00")
	if err != nil {
		t.Fatalf("NextOccurrence failed: %v", err)
	}
	want := time.Date(2025, 1, 2, 1, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}

	// Exactly at the slot: rolls to tomorrow
	next, err = NextOccurrence(want, loc, "01:00")
	if err != nil {
		t.Fatalf("NextOccurrence failed: %v", err)
	}
	if !next.Equal(want.AddDate(0, 0, 1)) {
		t.Errorf("next = %v, want %v", next, want.AddDate(0, 0, 1))
	}

	if _, err := NextOccurrence(now, loc, "25:99"); err == nil {
		t.Error("expected error for invalid schedule time")
	}
}
