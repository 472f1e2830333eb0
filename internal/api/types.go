package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medoffice/scheduling/internal/appointment"
	"github.com/medoffice/scheduling/internal/schedule"
)

type SlotResponse struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Display   string    `json:"display"`
	Period    string    `json:"period"`
	Available bool      `json:"available"`
}

type SlotsPayload struct {
	All      []SlotResponse            `json:"all"`
	ByPeriod map[string][]SlotResponse `json:"by_period"`
}

type SlotsResponse struct {
	Date           string       `json:"date"`
	Timezone       string       `json:"timezone"`
	TotalSlots     int          `json:"total_slots"`
	AvailableSlots int          `json:"available_slots"`
	BookedSlots    int          `json:"booked_slots"`
	Slots          SlotsPayload `json:"slots"`
}

type CheckSlotRequest struct {
	StartTime            string `json:"start_time"`
	EndTime              string `json:"end_time"`
	Timezone             string `json:"timezone,omitempty"`
	ExcludeAppointmentID string `json:"exclude_appointment_id,omitempty"`
}

type CheckSlotResponse struct {
	Available bool                  `json:"available"`
	Conflicts []AppointmentResponse `json:"conflicts"`
}

type CreateAppointmentRequest struct {
	PatientID string  `json:"patient_id"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Timezone  *string `json:"timezone,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type RescheduleRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	Reason    *string   `json:"reason,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Timezone  *string   `json:"timezone,omitempty"`
}

type ErrorResponse struct {
	Error     string                `json:"error"`
	Details   string                `json:"details,omitempty"`
	Conflicts []AppointmentResponse `json:"conflicts,omitempty"`
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		PatientID: a.PatientID,
		StartTime: a.Start,
		EndTime:   a.End,
		Status:    string(a.Status),
		Reason:    a.Reason,
		Notes:     a.Notes,
		Timezone:  a.Timezone,
	}
}

func toAppointmentResponses(appts []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

func toSlotResponses(slots []schedule.Slot, available bool) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{
			StartTime: s.Start,
			EndTime:   s.End,
			Display:   s.Display,
			Period:    s.Period,
			Available: available,
		})
	}
	return out
}
