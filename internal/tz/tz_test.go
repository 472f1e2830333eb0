package tz

import (
	"errors"
	"testing"
	"time"
)

func TestToInstantRoundTrip(t *testing.T) {
	local := LocalWallClock{Year: 2026, Month: time.June, Day: 15, Hour: 14, Minute: 30}

	instant, err := ToInstant(local, "America/New_York")
	if err != nil {
		t.Fatalf("ToInstant returned error: %v", err)
	}

	back, err := ToLocal(instant, "America/New_York")
	if err != nil {
		t.Fatalf("ToLocal returned error: %v", err)
	}
	if back != local {
		t.Fatalf("round trip mismatch: got %+v want %+v", back, local)
	}
}

func TestToInstantAppliesPerDateOffset(t *testing.T) {
	// Same wall-clock reading, winter vs summer: offsets must differ.
	winter, err := ToInstant(LocalWallClock{Year: 2026, Month: time.January, Day: 15, Hour: 9}, "America/New_York")
	if err != nil {
		t.Fatalf("winter: %v", err)
	}
	summer, err := ToInstant(LocalWallClock{Year: 2026, Month: time.July, Day: 15, Hour: 9}, "America/New_York")
	if err != nil {
		t.Fatalf("summer: %v", err)
	}

	_, winterOff := winter.Zone()
	_, summerOff := summer.Zone()
	if winterOff != -5*3600 {
		t.Fatalf("expected EST offset -18000, got %d", winterOff)
	}
	if summerOff != -4*3600 {
		t.Fatalf("expected EDT offset -14400, got %d", summerOff)
	}
}

func TestToInstantSpringForwardGap(t *testing.T) {
	// 02:30 does not exist on a US spring-forward day; it must shift forward
	// past the gap to 03:30 EDT, never land before the transition.
	days := []struct {
		year int
		day  int
	}{
		{2017, 12},
		{2024, 10},
		{2026, 8},
	}

	for _, d := range days {
		instant, err := ToInstant(LocalWallClock{Year: d.year, Month: time.March, Day: d.day, Hour: 2, Minute: 30}, "America/New_York")
		if err != nil {
			t.Fatalf("%d: ToInstant returned error: %v", d.year, err)
		}

		local, err := ToLocal(instant, "America/New_York")
		if err != nil {
			t.Fatalf("%d: ToLocal returned error: %v", d.year, err)
		}
		if local.Hour != 3 || local.Minute != 30 {
			t.Fatalf("%d: expected 03:30 after gap, got %02d:%02d", d.year, local.Hour, local.Minute)
		}
		_, off := instant.Zone()
		if off != -4*3600 {
			t.Fatalf("%d: expected EDT offset after gap, got %d", d.year, off)
		}
	}
}

func TestToInstantFallBackPicksEarlierInstant(t *testing.T) {
	// 2026-11-01 01:30 occurs twice in America/New_York; the earlier (EDT)
	// occurrence wins.
	instant, err := ToInstant(LocalWallClock{Year: 2026, Month: time.November, Day: 1, Hour: 1, Minute: 30}, "America/New_York")
	if err != nil {
		t.Fatalf("ToInstant returned error: %v", err)
	}

	_, off := instant.Zone()
	if off != -4*3600 {
		t.Fatalf("expected earlier EDT occurrence (offset -14400), got %d", off)
	}
}

func TestLoadLocationRejectsUnknownZone(t *testing.T) {
	for _, bad := range []string{"", "Not/AZone", "America/Springfield"} {
		if _, err := LoadLocation(bad); !errors.Is(err, ErrInvalidTimezone) {
			t.Fatalf("LoadLocation(%q): expected ErrInvalidTimezone, got %v", bad, err)
		}
	}
}

func TestFormat(t *testing.T) {
	instant := time.Date(2026, time.June, 15, 18, 30, 0, 0, time.UTC)

	got, err := Format(instant, "America/New_York", "3:04 PM")
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	if got != "2:30 PM" {
		t.Fatalf("expected 2:30 PM, got %s", got)
	}
}
