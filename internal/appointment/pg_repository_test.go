package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

var apptCols = []string{"id", "patient_id", "start_time", "end_time", "status", "reason", "notes", "timezone", "created_at", "updated_at"}

func apptRow(id, patientID uuid.UUID, start, end time.Time, status Status) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(apptCols).
		AddRow(id, patientID, start, end, status, (*string)(nil), (*string)(nil), (*string)(nil), now, now)
}

func TestListOverlappingUsesHalfOpenBounds(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	start := time.Date(2024, time.December, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	id, patientID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM appointments\s+WHERE status != 'cancelled'\s+AND start_time < \$2\s+AND end_time > \$1`).
		WithArgs(start, end).
		WillReturnRows(apptRow(id, patientID, start.Add(-15*time.Minute), start.Add(15*time.Minute), StatusScheduled))

	repo := NewPgRepository(mock)
	got, err := repo.ListOverlapping(context.Background(), start, end)

	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, id, got[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM appointments\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPgRepository(mock)
	_, err = repo.GetByID(context.Background(), id)

	require.ErrorIs(t, err, ErrAppointmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReturnsScheduledRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	patientID := uuid.New()
	start := time.Date(2026, time.June, 15, 14, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(pgxmock.AnyArg(), patientID, start, end, (*string)(nil), (*string)(nil), (*string)(nil)).
		WillReturnRows(apptRow(uuid.New(), patientID, start, end, StatusScheduled))

	repo := NewPgRepository(mock)
	appt, err := repo.Insert(context.Background(), CreateParams{
		PatientID: patientID,
		Start:     start,
		End:       end,
	})

	require.NoError(t, err)
	require.Equal(t, StatusScheduled, appt.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusIsConditionalOnCurrentStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()

	// The WHERE clause pins the expected current status so concurrent
	// transitions lose cleanly.
	mock.ExpectQuery(`UPDATE appointments\s+SET status = \$2`).
		WithArgs(id, StatusCancelled, StatusScheduled).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPgRepository(mock)
	_, err = repo.UpdateStatus(context.Background(), id, StatusScheduled, StatusCancelled)

	require.ErrorIs(t, err, ErrAppointmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBuildsFilterClauses(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	from := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	patientID := uuid.New()
	status := StatusScheduled

	mock.ExpectQuery(`SELECT (.+) FROM appointments\s+WHERE 1=1 AND start_time >= \$1 AND start_time < \$2 AND patient_id = \$3 AND status = \$4 ORDER BY start_time LIMIT \$5 OFFSET \$6`).
		WithArgs(from, to, patientID, status, 50, 10).
		WillReturnRows(pgxmock.NewRows(apptCols))

	repo := NewPgRepository(mock)
	got, err := repo.List(context.Background(), Filter{
		From:      &from,
		To:        &to,
		PatientID: &patientID,
		Status:    &status,
		Limit:     50,
		Offset:    10,
	})

	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEventTolerantOfZeroTime(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`INSERT INTO appointment_events`).
		WithArgs(EventAppointmentCreated, &id, []byte(`{}`), (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPgRepository(mock)
	err = repo.InsertEvent(context.Background(), EventLog{
		EventType:     EventAppointmentCreated,
		AppointmentID: &id,
		Payload:       []byte(`{}`),
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
