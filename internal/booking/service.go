package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carevoice/booking-service/internal/observability/metrics"
	"github.com/carevoice/booking-service/internal/redisclient"
	"github.com/carevoice/booking-service/pkg/logging"
)

// Service orchestrates the check-then-reserve protocol. All cross-request
// coordination is pushed down to Postgres (unique constraint) and Redis (lock);
// the service itself holds no mutable state.
type Service struct {
	repo    Repository
	locker  redisclient.Locker
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

func NewService(repo Repository, locker redisclient.Locker, logger *logging.Logger, m *metrics.BookingMetrics) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		locker:  locker,
		logger:  logger,
		metrics: m,
	}
}

// CheckAvailability reports whether the slot is currently free. It is a pure
// read; an infrastructure failure is returned as an error and must never be
// interpreted as "available".
func (s *Service) CheckAvailability(ctx context.Context, slot Slot) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, err
	}

	taken, err := s.repo.SlotTaken(ctx, slot)
	if err != nil {
		s.metrics.ObserveCheck("error")
		return false, fmt.Errorf("check availability: %w", err)
	}

	if taken {
		s.metrics.ObserveCheck("taken")
	} else {
		s.metrics.ObserveCheck("available")
	}
	return !taken, nil
}

// Reserve runs the two-phase protocol: a fresh availability re-check followed
// by the atomic insert, both inside a per-slot lock. The re-check only narrows
// the window between a caller's earlier availability check and now; the unique
// constraint behind CreateBooking is what guarantees at most one winner.
func (s *Service) Reserve(ctx context.Context, req ReservationRequest) (*Booking, error) {
	if err := req.Validate(); err != nil {
		s.metrics.ObserveReservation("invalid")
		return nil, err
	}

	slot := req.Slot()
	var created *Booking

	err := s.locker.WithSlotLock(ctx, slot.Key(), func(lockCtx context.Context) error {
		// Re-check phase: evaluated now, never cached from an earlier check.
		taken, err := s.repo.SlotTaken(lockCtx, slot)
		if err != nil {
			return fmt.Errorf("re-check slot: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		b, err := s.repo.CreateBooking(lockCtx, req)
		if err != nil {
			return err
		}
		created = b
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrSlotTaken), errors.Is(err, redisclient.ErrLockNotAcquired):
			s.metrics.ObserveReservation("conflict")
		default:
			s.metrics.ObserveReservation("error")
		}
		return nil, err
	}

	s.metrics.ObserveReservation("success")
	s.logger.Info("booking created",
		"appointment_id", created.ID,
		"doctor_id", created.DoctorID,
		"date", created.Date,
		"time", created.Time,
	)

	return created, nil
}

// GetBooking loads one booking by its appointment id.
func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetBookingByID(ctx, id)
}

// SessionBookings lists the bookings created under one consultation session.
func (s *Service) SessionBookings(ctx context.Context, sessionID string) ([]Booking, error) {
	if sessionID == "" {
		return nil, &ValidationError{Field: "session_id", Reason: "is required"}
	}
	return s.repo.ListBookingsBySession(ctx, sessionID)
}
