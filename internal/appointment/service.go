package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/medoffice/scheduling/internal/schedule"
	"github.com/medoffice/scheduling/internal/tz"
)

const (
	EventAppointmentCreated     = "APPOINTMENT_CREATED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
)

var (
	ErrSchedulingConflict      = errors.New("scheduling conflict")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// ConflictError reports which appointments block a requested interval.
// errors.Is(err, ErrSchedulingConflict) matches it.
type ConflictError struct {
	Conflicts []Appointment
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scheduling conflict with %d existing appointment(s)", len(e.Conflicts))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrSchedulingConflict
}

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Availability generates the slot grid for one local calendar day and
// partitions it against that day's non-cancelled appointments. Advisory: the
// booking guard re-checks at write time.
func (s *Service) Availability(ctx context.Context, cfg schedule.SlotConfig) (schedule.Availability, error) {
	slots, err := schedule.GenerateSlots(cfg)
	if err != nil {
		return schedule.Availability{}, err
	}

	dayStart, err := tz.ToInstant(tz.LocalWallClock{Year: cfg.Year, Month: cfg.Month, Day: cfg.Day}, cfg.Timezone)
	if err != nil {
		return schedule.Availability{}, err
	}
	dayEnd, err := tz.ToInstant(tz.LocalWallClock{Year: cfg.Year, Month: cfg.Month, Day: cfg.Day + 1}, cfg.Timezone)
	if err != nil {
		return schedule.Availability{}, err
	}

	busy, err := s.repo.ListOverlapping(ctx, dayStart, dayEnd)
	if err != nil {
		return schedule.Availability{}, fmt.Errorf("load appointments for day: %w", err)
	}

	return schedule.ResolveAvailability(slots, bookings(busy)), nil
}

// CheckSlot is the advisory pre-check for a proposed interval. exclude skips
// one appointment ID so an edit can be re-checked against itself.
func (s *Service) CheckSlot(ctx context.Context, interval schedule.Interval, exclude uuid.UUID) (bool, []Appointment, error) {
	existing, err := s.repo.ListOverlapping(ctx, interval.Start, interval.End)
	if err != nil {
		return false, nil, fmt.Errorf("load overlapping appointments: %w", err)
	}

	check := schedule.CheckSlot(interval, bookings(existing), exclude)
	if check.Available {
		return true, nil, nil
	}
	return false, matchAppointments(existing, check.Conflicts), nil
}

// Create books a new appointment. It re-fetches the authoritative overlap set
// immediately before the insert and rejects on any conflict; a late exclusion
// or uniqueness violation from Postgres is treated as the same conflict
// signal, since the DB constraint is what actually closes the race window.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Appointment, error) {
	interval, err := schedule.NewInterval(p.Start, p.End)
	if err != nil {
		return nil, err
	}
	if p.Timezone != nil {
		if _, err := tz.LoadLocation(*p.Timezone); err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.GetPatientByID(ctx, p.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if err := s.guard(ctx, interval, uuid.Nil); err != nil {
		return nil, err
	}

	appt, err := s.repo.Insert(ctx, p)
	if err != nil {
		if conflict := asConstraintConflict(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	s.logEvent(ctx, appt.ID, EventAppointmentCreated, map[string]any{
		"patient_id": p.PatientID.String(),
		"start_time": p.Start,
		"end_time":   p.End,
	})
	s.logger.Info("appointment created",
		zap.String("appointment_id", appt.ID.String()),
		zap.Time("start", appt.Start),
		zap.Time("end", appt.End),
	)

	return appt, nil
}

// Reschedule moves a scheduled appointment to a new interval, re-running the
// conflict guard with the appointment excluded from its own overlap set.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time) (*Appointment, error) {
	interval, err := schedule.NewInterval(start, end)
	if err != nil {
		return nil, err
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}

	if err := s.guard(ctx, interval, id); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateInterval(ctx, id, start, end)
	if err != nil {
		if conflict := asConstraintConflict(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}

	s.logEvent(ctx, id, EventAppointmentRescheduled, map[string]any{
		"start_time": start,
		"end_time":   end,
	})

	return updated, nil
}

// Cancel moves a scheduled appointment to cancelled. The row is retained for
// history and drops out of all conflict checks.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCancelled, EventAppointmentCancelled)
}

// Complete marks a scheduled appointment as seen.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted, EventAppointmentCompleted)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, event string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusScheduled, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another status change.
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logEvent(ctx, id, event, map[string]any{})

	return updated, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Appointment, error) {
	appts, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// guard is the last line of defense before a write: re-fetch the current
// overlap set and reject if anything non-cancelled collides.
func (s *Service) guard(ctx context.Context, interval schedule.Interval, exclude uuid.UUID) error {
	existing, err := s.repo.ListOverlapping(ctx, interval.Start, interval.End)
	if err != nil {
		return fmt.Errorf("conflict check: %w", err)
	}

	check := schedule.CheckSlot(interval, bookings(existing), exclude)
	if !check.Available {
		conflicts := matchAppointments(existing, check.Conflicts)
		s.logger.Warn("booking rejected on conflict",
			zap.Time("start", interval.Start),
			zap.Time("end", interval.End),
			zap.Int("conflicts", len(conflicts)),
		)
		return &ConflictError{Conflicts: conflicts}
	}

	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("insert event log",
			zap.String("event", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}

func bookings(appts []Appointment) []schedule.Booking {
	out := make([]schedule.Booking, 0, len(appts))
	for _, a := range appts {
		if a.Status == StatusCancelled {
			continue
		}
		out = append(out, schedule.Booking{
			ID:       a.ID,
			Interval: schedule.Interval{Start: a.Start, End: a.End},
		})
	}
	return out
}

func matchAppointments(appts []Appointment, conflicts []schedule.Booking) []Appointment {
	byID := make(map[uuid.UUID]Appointment, len(appts))
	for _, a := range appts {
		byID[a.ID] = a
	}

	out := make([]Appointment, 0, len(conflicts))
	for _, c := range conflicts {
		if a, ok := byID[c.ID]; ok {
			out = append(out, a)
		}
	}
	return out
}

// asConstraintConflict maps Postgres exclusion (23P01) and unique (23505)
// violations to a ConflictError. The exclusion constraint on the appointments
// table is what serializes true concurrent writers.
func asConstraintConflict(err error) *ConflictError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505") {
		return &ConflictError{}
	}
	return nil
}
