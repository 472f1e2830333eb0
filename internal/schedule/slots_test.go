package schedule

import (
	"errors"
	"testing"
	"time"
)

func nyConfig(year int, month time.Month, day, startHour, endHour, minutes int) SlotConfig {
	return SlotConfig{
		Year:        year,
		Month:       month,
		Day:         day,
		Timezone:    "America/New_York",
		StartHour:   startHour,
		EndHour:     endHour,
		SlotMinutes: minutes,
	}
}

func TestGenerateSlotsGridCount(t *testing.T) {
	slots, err := GenerateSlots(nyConfig(2026, time.June, 15, 8, 17, 30))
	if err != nil {
		t.Fatalf("GenerateSlots returned error: %v", err)
	}
	if len(slots) != 18 {
		t.Fatalf("expected 18 slots for 8-17 at 30m, got %d", len(slots))
	}
	if slots[0].Display != "8:00 AM - 8:30 AM" {
		t.Fatalf("unexpected first display: %q", slots[0].Display)
	}
	if slots[17].Display != "4:30 PM - 5:00 PM" {
		t.Fatalf("unexpected last display: %q", slots[17].Display)
	}
}

func TestGenerateSlotsTruncatesPartialTail(t *testing.T) {
	// 540 minutes / 40 = 13.5: the final partial slot is dropped.
	slots, err := GenerateSlots(nyConfig(2026, time.June, 15, 8, 17, 40))
	if err != nil {
		t.Fatalf("GenerateSlots returned error: %v", err)
	}
	if len(slots) != 13 {
		t.Fatalf("expected 13 slots for 8-17 at 40m, got %d", len(slots))
	}

	last := slots[len(slots)-1]
	loc, _ := time.LoadLocation("America/New_York")
	if got := last.End.In(loc).Format("15:04"); got != "16:40" {
		t.Fatalf("expected last slot to end 16:40, got %s", got)
	}
}

func TestGenerateSlotsDeterministic(t *testing.T) {
	cfg := nyConfig(2026, time.June, 15, 9, 12, 15)

	first, err := GenerateSlots(cfg)
	if err != nil {
		t.Fatalf("GenerateSlots returned error: %v", err)
	}
	second, err := GenerateSlots(cfg)
	if err != nil {
		t.Fatalf("GenerateSlots returned error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("grid size changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) || first[i].Display != second[i].Display {
			t.Fatalf("slot %d differs between calls", i)
		}
	}
}

func TestGenerateSlotsSpringForwardCollapsesGap(t *testing.T) {
	// America/New_York springs forward on 2026-03-08: 02:00-03:00 local does
	// not exist, so the transition day has one fewer hourly slot.
	normal, err := GenerateSlots(nyConfig(2026, time.March, 7, 0, 6, 60))
	if err != nil {
		t.Fatalf("normal day: %v", err)
	}
	transition, err := GenerateSlots(nyConfig(2026, time.March, 8, 0, 6, 60))
	if err != nil {
		t.Fatalf("transition day: %v", err)
	}

	if len(normal) != 6 {
		t.Fatalf("expected 6 slots on a normal day, got %d", len(normal))
	}
	if len(transition) != len(normal)-1 {
		t.Fatalf("expected %d slots on spring-forward day, got %d", len(normal)-1, len(transition))
	}

	// Start instants must be unique and strictly increasing even though two
	// local ticks normalized into the same hour.
	for i := 1; i < len(transition); i++ {
		if !transition[i].Start.After(transition[i-1].Start) {
			t.Fatalf("slot %d start %s not after previous %s", i, transition[i].Start, transition[i-1].Start)
		}
	}

	// The slot whose nominal end falls in the gap straddles the transition:
	// one local hour long on the clock, starting 01:00 EST and ending past
	// the gap. The next slot resumes at 03:00 EDT.
	loc, _ := time.LoadLocation("America/New_York")
	straddle := transition[1]
	if got := straddle.Start.In(loc).Format("15:04"); got != "01:00" {
		t.Fatalf("expected straddling slot to start 01:00, got %s", got)
	}
	if got := straddle.End.In(loc).Format("15:04"); got != "03:00" {
		t.Fatalf("expected straddling slot to end 03:00 past the gap, got %s", got)
	}
	if got := transition[2].Start.In(loc).Format("15:04"); got != "03:00" {
		t.Fatalf("expected post-gap slot to start 03:00, got %s", got)
	}
}

func TestGenerateSlotsFallBackKeepsNominalGrid(t *testing.T) {
	// The repeated hour on 2026-11-01 stays a single local tick per slot: the
	// ambiguous readings resolve to the earlier instants, so the grid keeps
	// its nominal count.
	slots, err := GenerateSlots(nyConfig(2026, time.November, 1, 0, 6, 60))
	if err != nil {
		t.Fatalf("GenerateSlots returned error: %v", err)
	}
	if len(slots) != 6 {
		t.Fatalf("expected 6 slots on fall-back day, got %d", len(slots))
	}
}

func TestGenerateSlotsPeriods(t *testing.T) {
	slots, err := GenerateSlots(nyConfig(2026, time.June, 15, 8, 20, 60))
	if err != nil {
		t.Fatalf("GenerateSlots returned error: %v", err)
	}

	want := map[string]int{PeriodMorning: 4, PeriodAfternoon: 5, PeriodEvening: 3}
	got := map[string]int{}
	for _, s := range slots {
		got[s.Period]++
	}
	for period, n := range want {
		if got[period] != n {
			t.Fatalf("period %s: expected %d slots, got %d", period, n, got[period])
		}
	}
}

func TestGenerateSlotsValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  SlotConfig
		want error
	}{
		{"end before start", nyConfig(2026, time.June, 15, 17, 8, 30), ErrInvalidSlotConfig},
		{"equal hours", nyConfig(2026, time.June, 15, 9, 9, 30), ErrInvalidSlotConfig},
		{"hour out of range", nyConfig(2026, time.June, 15, -1, 9, 30), ErrInvalidSlotConfig},
		{"duration too small", nyConfig(2026, time.June, 15, 8, 17, 5), ErrInvalidSlotConfig},
		{"duration too large", nyConfig(2026, time.June, 15, 8, 17, 180), ErrInvalidSlotConfig},
		{"duration exceeds window", nyConfig(2026, time.June, 15, 8, 9, 90), ErrInvalidSlotConfig},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := GenerateSlots(tc.cfg); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	cfg := nyConfig(2026, time.June, 15, 8, 17, 30)
	cfg.Timezone = "Mars/OlympusMons"
	if _, err := GenerateSlots(cfg); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
