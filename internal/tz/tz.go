package tz

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimezone = errors.New("invalid timezone")

// LocalWallClock is a wall-clock reading with no zone attached. It only
// becomes a point in time once resolved against an IANA zone.
type LocalWallClock struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// LoadLocation resolves an IANA zone name, mapping unknown names to
// ErrInvalidTimezone so callers can translate them to input errors.
func LoadLocation(tzID string) (*time.Location, error) {
	if tzID == "" {
		return nil, fmt.Errorf("%w: empty zone name", ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(tzID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, tzID)
	}
	return loc, nil
}

// ToInstant resolves a local wall-clock reading in the given zone to an
// absolute instant, using the zone's offset for that specific date.
//
// During a fall-back transition an ambiguous reading resolves to the earlier
// of the two possible instants (time.Date's resolution). A nonexistent
// spring-forward reading is shifted forward past the gap: 02:30 on a US
// transition day becomes 03:30 daylight time. time.Date alone lands such
// readings on the instant before the transition, so the gap is detected by
// round-tripping the wall clock and the instant is pushed forward by the
// missing span. Slot generation relies on both conventions.
func ToInstant(l LocalWallClock, tzID string) (time.Time, error) {
	loc, err := LoadLocation(tzID)
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(l.Year, l.Month, l.Day, l.Hour, l.Minute, l.Second, 0, loc)

	// Normalize the requested reading in UTC, which has no gaps, and compare
	// it with where the instant actually landed. A mismatch means the reading
	// fell inside a gap; the difference is exactly the span to skip.
	want := time.Date(l.Year, l.Month, l.Day, l.Hour, l.Minute, l.Second, 0, time.UTC)
	got := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	if !got.Equal(want) {
		t = t.Add(want.Sub(got))
	}

	return t, nil
}

// ToLocal projects an instant into the given zone's wall clock.
func ToLocal(instant time.Time, tzID string) (LocalWallClock, error) {
	loc, err := LoadLocation(tzID)
	if err != nil {
		return LocalWallClock{}, err
	}
	t := instant.In(loc)
	return LocalWallClock{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}, nil
}

// Format renders an instant in the given zone using a time layout string.
func Format(instant time.Time, tzID, layout string) (string, error) {
	loc, err := LoadLocation(tzID)
	if err != nil {
		return "", err
	}
	return instant.In(loc).Format(layout), nil
}
