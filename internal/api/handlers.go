package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medoffice/scheduling/internal/appointment"
	"github.com/medoffice/scheduling/internal/schedule"
	"github.com/medoffice/scheduling/internal/tz"
)

const dateLayout = "2006-01-02"

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// SlotDefaults fill in omitted /slots query parameters from the practice's
// configured operating hours. Timezone is a display-layer convenience only;
// persisted appointment data never falls back to it.
type SlotDefaults struct {
	OpenHour    int
	CloseHour   int
	SlotMinutes int
	Timezone    string
}

func slotsHandler(svc SchedulingService, defaults SlotDefaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		date, err := time.Parse(dateLayout, q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		timezone := q.Get("timezone")
		if timezone == "" {
			timezone = defaults.Timezone
		}
		if timezone == "" {
			writeError(w, http.StatusBadRequest, "missing_timezone", "timezone is required")
			return
		}

		cfg := schedule.SlotConfig{
			Year:        date.Year(),
			Month:       date.Month(),
			Day:         date.Day(),
			Timezone:    timezone,
			StartHour:   defaults.OpenHour,
			EndHour:     defaults.CloseHour,
			SlotMinutes: defaults.SlotMinutes,
		}

		var ok bool
		if cfg.StartHour, ok = intParam(w, q.Get("start_hour"), "start_hour", cfg.StartHour); !ok {
			return
		}
		if cfg.EndHour, ok = intParam(w, q.Get("end_hour"), "end_hour", cfg.EndHour); !ok {
			return
		}
		if cfg.SlotMinutes, ok = intParam(w, q.Get("slot_duration"), "slot_duration", cfg.SlotMinutes); !ok {
			return
		}
		// provider_id is accepted for forward compatibility; the practice
		// schedules a single implicit provider.

		av, err := svc.Availability(r.Context(), cfg)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		byPeriod := make(map[string][]SlotResponse, len(av.ByPeriod))
		for period, slots := range av.ByPeriod {
			byPeriod[period] = toSlotResponses(slots, true)
		}

		all := make([]SlotResponse, 0, len(av.Slots))
		all = append(all, toSlotResponses(av.Available, true)...)
		all = append(all, toSlotResponses(av.Booked, false)...)
		sort.Slice(all, func(i, j int) bool { return all[i].StartTime.Before(all[j].StartTime) })

		writeJSON(w, http.StatusOK, SlotsResponse{
			Date:           date.Format(dateLayout),
			Timezone:       timezone,
			TotalSlots:     len(av.Slots),
			AvailableSlots: len(av.Available),
			BookedSlots:    len(av.Booked),
			Slots: SlotsPayload{
				All:      all,
				ByPeriod: byPeriod,
			},
		})
	}
}

func checkSlotHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CheckSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		interval, ok := parseInterval(w, req.StartTime, req.EndTime)
		if !ok {
			return
		}

		if req.Timezone != "" {
			if _, err := tz.LoadLocation(req.Timezone); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_timezone", err.Error())
				return
			}
		}

		exclude := uuid.Nil
		if req.ExcludeAppointmentID != "" {
			id, err := uuid.Parse(req.ExcludeAppointmentID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_exclude_id", "exclude_appointment_id must be a valid UUID")
				return
			}
			exclude = id
		}

		available, conflicts, err := svc.CheckSlot(r.Context(), interval, exclude)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CheckSlotResponse{
			Available: available,
			Conflicts: toAppointmentResponses(conflicts),
		})
	}
}

func createAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		interval, ok := parseInterval(w, req.StartTime, req.EndTime)
		if !ok {
			return
		}

		appt, err := svc.Create(r.Context(), appointment.CreateParams{
			PatientID: patientID,
			Start:     interval.Start,
			End:       interval.End,
			Reason:    req.Reason,
			Notes:     req.Notes,
			Timezone:  req.Timezone,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
	}
}

func listAppointmentsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var filter appointment.Filter

		if dateStr := q.Get("date"); dateStr != "" {
			date, err := time.Parse(dateLayout, dateStr)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			timezone := q.Get("timezone")
			if timezone == "" {
				writeError(w, http.StatusBadRequest, "missing_timezone", "timezone is required when filtering by date")
				return
			}

			from, err := tz.ToInstant(tz.LocalWallClock{Year: date.Year(), Month: date.Month(), Day: date.Day()}, timezone)
			if err != nil {
				handleSchedulingError(w, err)
				return
			}
			to, err := tz.ToInstant(tz.LocalWallClock{Year: date.Year(), Month: date.Month(), Day: date.Day() + 1}, timezone)
			if err != nil {
				handleSchedulingError(w, err)
				return
			}
			filter.From = &from
			filter.To = &to
		}

		if pidStr := q.Get("patient_id"); pidStr != "" {
			pid, err := uuid.Parse(pidStr)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			filter.PatientID = &pid
		}

		if statusStr := q.Get("status"); statusStr != "" {
			status := appointment.Status(statusStr)
			if !appointment.ValidStatus(status) {
				writeError(w, http.StatusBadRequest, "invalid_status", "status must be scheduled, completed or cancelled")
				return
			}
			filter.Status = &status
		}

		var ok bool
		if filter.Limit, ok = intParam(w, q.Get("limit"), "limit", defaultListLimit); !ok {
			return
		}
		if filter.Offset, ok = intParam(w, q.Get("offset"), "offset", 0); !ok {
			return
		}
		filter.Limit = clamp(filter.Limit, 1, maxListLimit)
		if filter.Offset < 0 {
			filter.Offset = 0
		}

		appts, err := svc.List(r.Context(), filter)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func getAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func rescheduleAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		interval, ok := parseInterval(w, req.StartTime, req.EndTime)
		if !ok {
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, interval.Start, interval.End)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func cancelAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		appt, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func completeAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		appt, err := svc.Complete(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

// Helpers

func intParam(w http.ResponseWriter, raw, name string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be an integer")
		return 0, false
	}
	return n, true
}

func parseInterval(w http.ResponseWriter, startStr, endStr string) (schedule.Interval, bool) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
		return schedule.Interval{}, false
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be RFC 3339")
		return schedule.Interval{}, false
	}

	interval, err := schedule.NewInterval(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
		return schedule.Interval{}, false
	}
	return interval, true
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	var conflict *appointment.ConflictError

	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:     "scheduling_conflict",
			Details:   conflict.Error(),
			Conflicts: toAppointmentResponses(conflict.Conflicts),
		})
	case errors.Is(err, tz.ErrInvalidTimezone):
		writeError(w, http.StatusBadRequest, "invalid_timezone", err.Error())
	case errors.Is(err, schedule.ErrInvalidSlotConfig):
		writeError(w, http.StatusBadRequest, "invalid_slot_configuration", err.Error())
	case errors.Is(err, schedule.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
