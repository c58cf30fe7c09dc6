package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/carevoice/booking-service/pkg/logging"
)

type RouterConfig struct {
	Service      BookingService
	Dispatcher   NotificationDispatcher
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Logger       *logging.Logger
	StoreTimeout time.Duration
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 30 * time.Second
	}

	validate := newValidator()

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/check-availability", checkAvailabilityHandler(cfg.Service, validate))
	r.Post("/book-appointment", bookAppointmentHandler(cfg.Service, validate, cfg.StoreTimeout))
	r.Get("/bookings", listSessionBookingsHandler(cfg.Service))
	r.Get("/bookings/{id}", getBookingHandler(cfg.Service))
	r.Post("/notifications", dispatchNotificationHandler(cfg.Dispatcher, validate, cfg.Logger))

	return r
}
