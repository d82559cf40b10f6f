package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/promedvoice/clinic-console/internal/clinic"
)

type RouterConfig struct {
	Service   *clinic.Service
	Analytics *clinic.Analytics
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	// Doctors
	r.Get("/doctors", listDoctorsHandler(cfg.Service))
	r.Post("/doctors", createDoctorHandler(cfg.Service))
	r.Put("/doctors/{id}", updateDoctorHandler(cfg.Service))
	r.Delete("/doctors/{id}", deleteDoctorHandler(cfg.Service))

	// Slots
	r.Get("/slots", listSlotsHandler(cfg.Service))
	r.Post("/slots", createSlotHandler(cfg.Service))
	r.Post("/slots/{id}/toggle", toggleSlotHandler(cfg.Service))

	// Bookings
	r.Get("/bookings", listBookingsHandler(cfg.Service))
	r.Post("/bookings", createBookingHandler(cfg.Service))
	r.Post("/bookings/{id}/cancel", cancelBookingHandler(cfg.Service))
	r.Post("/bookings/{id}/reschedule", rescheduleBookingHandler(cfg.Service))

	// Call records (written by the voice pipeline, read by staff)
	r.Get("/call-records", listCallsHandler(cfg.Service))
	r.Post("/call-records", ingestCallHandler(cfg.Service))

	// Settings
	r.Get("/settings", listSettingsHandler(cfg.Service))
	r.Put("/settings/{key}", upsertSettingHandler(cfg.Service))

	// Dashboard
	r.Get("/dashboard/summary", dashboardSummaryHandler(cfg.Analytics))

	return r
}
