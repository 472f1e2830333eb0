package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medoffice/scheduling/internal/appointment"
	"github.com/medoffice/scheduling/internal/ratelimit"
	"github.com/medoffice/scheduling/internal/schedule"
)

// SchedulingService is what the handlers need from the appointment service.
type SchedulingService interface {
	Availability(ctx context.Context, cfg schedule.SlotConfig) (schedule.Availability, error)
	CheckSlot(ctx context.Context, interval schedule.Interval, exclude uuid.UUID) (bool, []appointment.Appointment, error)
	Create(ctx context.Context, p appointment.CreateParams) (*appointment.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	List(ctx context.Context, f appointment.Filter) ([]appointment.Appointment, error)
}

type RouterConfig struct {
	Service      SchedulingService
	Limiter      *ratelimit.Limiter
	Logger       *zap.Logger
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
	SlotDefaults SlotDefaults
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints, outside the rate limit
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Scheduling endpoints
	r.Group(func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(ratelimit.Middleware(cfg.Limiter, cfg.Logger))
		}

		r.Get("/slots", slotsHandler(cfg.Service, cfg.SlotDefaults))
		r.Post("/slots/check", checkSlotHandler(cfg.Service))

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", createAppointmentHandler(cfg.Service))
			r.Get("/", listAppointmentsHandler(cfg.Service))
			r.Get("/{id}", getAppointmentHandler(cfg.Service))
			r.Post("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))
			r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Service))
			r.Post("/{id}/complete", completeAppointmentHandler(cfg.Service))
		})
	})

	return r
}
