package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ValidStatus reports whether s is one of the known appointment statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment boundaries are stored as absolute instants (timestamptz).
// Timezone is display-only and never affects the stored instants.
type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	Start     time.Time
	End       time.Time
	Status    Status
	Reason    *string
	Notes     *string
	Timezone  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventLog is an audit trail row for appointment lifecycle changes.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
