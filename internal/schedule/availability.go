package schedule

import "github.com/google/uuid"

// Booking is an existing committed interval the resolver treats as busy.
// Callers pass only non-cancelled appointments.
type Booking struct {
	ID       uuid.UUID
	Interval Interval
}

// Availability partitions a day's grid against existing bookings. Available
// and Booked together cover the full grid.
type Availability struct {
	Slots     []Slot
	Available []Slot
	Booked    []Slot
	ByPeriod  map[string][]Slot // available slots only
}

// ResolveAvailability marks each generated slot available unless it overlaps
// any busy booking, then groups the available ones by period. Pure and
// side-effect-free: the booking snapshot is supplied by the caller.
func ResolveAvailability(slots []Slot, busy []Booking) Availability {
	av := Availability{
		Slots:     slots,
		Available: make([]Slot, 0, len(slots)),
		Booked:    make([]Slot, 0),
		ByPeriod:  make(map[string][]Slot),
	}

	for _, slot := range slots {
		if conflicting(slot.Interval, busy, uuid.Nil) == nil {
			av.Available = append(av.Available, slot)
			av.ByPeriod[slot.Period] = append(av.ByPeriod[slot.Period], slot)
		} else {
			av.Booked = append(av.Booked, slot)
		}
	}

	return av
}

// SlotCheck is the advisory answer to "can this interval be booked". It is
// not a guarantee against races; the booking guard re-checks at write time.
type SlotCheck struct {
	Available bool
	Conflicts []Booking
}

// CheckSlot reports whether a proposed interval is free of the given
// bookings. exclude skips one booking ID, used when re-checking an edit of an
// existing appointment against itself.
func CheckSlot(proposed Interval, busy []Booking, exclude uuid.UUID) SlotCheck {
	conflicts := conflicting(proposed, busy, exclude)
	return SlotCheck{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}
}

func conflicting(interval Interval, busy []Booking, exclude uuid.UUID) []Booking {
	var out []Booking
	for _, b := range busy {
		if exclude != uuid.Nil && b.ID == exclude {
			continue
		}
		if Overlaps(interval, b.Interval) {
			out = append(out, b)
		}
	}
	return out
}
