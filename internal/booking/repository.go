package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrBookingNotFound = errors.New("booking not found")

// Repository contains all DB interactions needed by the service.
//
// CreateBooking is the only write path into the bookings table and must enforce
// the per-slot uniqueness invariant on its own (unique constraint), returning
// ErrSlotTaken when a concurrent reservation won the race.
type Repository interface {
	// SlotTaken reports whether a confirmed booking already exists for the slot.
	SlotTaken(ctx context.Context, slot Slot) (bool, error)

	// CreateBooking atomically inserts a confirmed booking and returns it with
	// its generated identifier.
	CreateBooking(ctx context.Context, req ReservationRequest) (*Booking, error)

	// GetBookingByID loads a single booking.
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// ListBookingsBySession lists bookings created under one consultation session.
	ListBookingsBySession(ctx context.Context, sessionID string) ([]Booking, error)
}
