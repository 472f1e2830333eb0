package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/medoffice/scheduling/internal/tz"
)

var ErrInvalidSlotConfig = errors.New("invalid slot configuration")

const (
	MinSlotMinutes = 15
	MaxSlotMinutes = 120

	displayLayout = "3:04 PM"
)

// Period labels group slots by the local hour of their start.
const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
	PeriodEvening   = "evening"
)

// SlotConfig describes one calendar day's bookable grid. The date fields are
// interpreted in Timezone, not UTC.
type SlotConfig struct {
	Year        int
	Month       time.Month
	Day         int
	Timezone    string
	StartHour   int // 0-24, inclusive start of the operating window
	EndHour     int // 0-24, exclusive end, must be > StartHour
	SlotMinutes int
}

func (c SlotConfig) validate() error {
	if c.StartHour < 0 || c.EndHour > 24 || c.EndHour <= c.StartHour {
		return fmt.Errorf("%w: hours %d-%d", ErrInvalidSlotConfig, c.StartHour, c.EndHour)
	}
	if c.SlotMinutes < MinSlotMinutes || c.SlotMinutes > MaxSlotMinutes {
		return fmt.Errorf("%w: slot duration %dm outside %d-%dm", ErrInvalidSlotConfig, c.SlotMinutes, MinSlotMinutes, MaxSlotMinutes)
	}
	if c.SlotMinutes > (c.EndHour-c.StartHour)*60 {
		return fmt.Errorf("%w: slot duration %dm exceeds operating window", ErrInvalidSlotConfig, c.SlotMinutes)
	}
	return nil
}

// Slot is one candidate bookable interval, generated on demand and never
// persisted. Display is precomputed in the grid's zone.
type Slot struct {
	Interval
	Display string
	Period  string
}

// GenerateSlots builds the bookable grid for one local calendar day. The grid
// is recomputed identically on every call with the same config.
//
// Each tick's start and end are resolved to instants independently, so a slot
// that straddles a DST transition keeps correct per-instant offsets even when
// its absolute duration differs from the nominal one. Ticks whose local start
// falls inside a spring-forward gap normalize onto the first slot after the
// gap and are collapsed, so a transition day carries fewer slots than a
// normal day. A final partial slot that would run past EndHour is dropped.
func GenerateSlots(cfg SlotConfig) ([]Slot, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	loc, err := tz.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	windowMinutes := (cfg.EndHour - cfg.StartHour) * 60
	count := windowMinutes / cfg.SlotMinutes

	slots := make([]Slot, 0, count)
	seen := make(map[int64]struct{}, count)

	for i := 0; i < count; i++ {
		startMin := cfg.StartHour*60 + i*cfg.SlotMinutes
		start, err := tz.ToInstant(tz.LocalWallClock{Year: cfg.Year, Month: cfg.Month, Day: cfg.Day, Minute: startMin}, cfg.Timezone)
		if err != nil {
			return nil, err
		}
		end, err := tz.ToInstant(tz.LocalWallClock{Year: cfg.Year, Month: cfg.Month, Day: cfg.Day, Minute: startMin + cfg.SlotMinutes}, cfg.Timezone)
		if err != nil {
			return nil, err
		}

		// A tick swallowed by a spring-forward gap can normalize to a
		// zero-length or inverted span. Skip it without marking its start
		// seen so the first real tick at that instant still produces a slot.
		if !end.After(start) {
			continue
		}
		// Remaining gap ticks normalize onto an existing slot's instant.
		if _, dup := seen[start.Unix()]; dup {
			continue
		}
		seen[start.Unix()] = struct{}{}

		localStart := start.In(loc)
		slots = append(slots, Slot{
			Interval: Interval{Start: start, End: end},
			Display:  localStart.Format(displayLayout) + " - " + end.In(loc).Format(displayLayout),
			Period:   periodOf(localStart.Hour()),
		})
	}

	return slots, nil
}

func periodOf(hour int) string {
	switch {
	case hour < 12:
		return PeriodMorning
	case hour < 17:
		return PeriodAfternoon
	default:
		return PeriodEvening
	}
}
