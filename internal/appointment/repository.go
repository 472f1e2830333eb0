package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Filter narrows List results. Nil fields are ignored. From/To bound the
// appointment start instant, typically one local calendar day resolved to
// instants by the caller.
type Filter struct {
	From      *time.Time
	To        *time.Time
	PatientID *uuid.UUID
	Status    *Status

	// Limit 0 means no page bound; callers clamp user input first.
	Limit  int
	Offset int
}

// CreateParams carries everything needed to insert an appointment row.
type CreateParams struct {
	PatientID uuid.UUID
	Start     time.Time
	End       time.Time
	Reason    *string
	Notes     *string
	Timezone  *string
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f Filter) ([]Appointment, error)

	// ListOverlapping returns non-cancelled appointments whose interval
	// overlaps [start, end) under half-open semantics. The guard calls this
	// immediately before every write.
	ListOverlapping(ctx context.Context, start, end time.Time) ([]Appointment, error)

	Insert(ctx context.Context, p CreateParams) (*Appointment, error)
	UpdateInterval(ctx context.Context, id uuid.UUID, start, end time.Time) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
