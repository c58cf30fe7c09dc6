package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Slot is the (doctor, date, time) triple a booking claims exclusively.
// It has no row of its own; its free/taken state is derived from bookings.
type Slot struct {
	DoctorID string
	Date     string // YYYY-MM-DD
	Time     string // HH:MM
}

// Validate checks presence and calendar/clock formats.
func (s Slot) Validate() error {
	if s.DoctorID == "" {
		return &ValidationError{Field: "doctor_id", Reason: "is required"}
	}
	if s.Date == "" {
		return &ValidationError{Field: "date", Reason: "is required"}
	}
	if s.Time == "" {
		return &ValidationError{Field: "time", Reason: "is required"}
	}
	if _, err := time.Parse(dateLayout, s.Date); err != nil {
		return &ValidationError{Field: "date", Reason: "must be a valid YYYY-MM-DD date"}
	}
	if _, err := time.Parse(timeLayout, s.Time); err != nil {
		return &ValidationError{Field: "time", Reason: "must be a valid HH:MM time"}
	}
	return nil
}

// Key is the canonical lock/cache key for the slot.
func (s Slot) Key() string {
	return fmt.Sprintf("%s:%s:%s", s.DoctorID, s.Date, s.Time)
}

// Booking is a confirmed appointment. Rows are created only by the service's
// reserve path and never mutated.
type Booking struct {
	ID           uuid.UUID
	SessionID    string
	DoctorID     string
	DoctorName   string
	Specialty    string
	Date         string // YYYY-MM-DD
	Time         string // HH:MM
	PatientName  string
	PatientPhone string
	PatientEmail string
	CreatedAt    time.Time
}

// Slot returns the slot this booking occupies.
func (b Booking) Slot() Slot {
	return Slot{DoctorID: b.DoctorID, Date: b.Date, Time: b.Time}
}

// ReservationRequest carries everything needed to reserve a slot.
type ReservationRequest struct {
	SessionID    string
	DoctorID     string
	DoctorName   string
	Specialty    string
	Date         string
	Time         string
	PatientName  string
	PatientPhone string
	PatientEmail string
}

// Validate fails fast before any store access happens.
func (r ReservationRequest) Validate() error {
	if r.SessionID == "" {
		return &ValidationError{Field: "session_id", Reason: "is required"}
	}
	if r.PatientName == "" {
		return &ValidationError{Field: "patient_name", Reason: "is required"}
	}
	return r.Slot().Validate()
}

// Slot returns the slot the request is trying to claim.
func (r ReservationRequest) Slot() Slot {
	return Slot{DoctorID: r.DoctorID, Date: r.Date, Time: r.Time}
}

// ConfirmationMessage is the human-readable sentence spoken or displayed to the
// patient after a successful reservation.
func (b Booking) ConfirmationMessage() string {
	return fmt.Sprintf(
		"Great! Your appointment with %s is confirmed for %s at %s. You will receive a confirmation email shortly.",
		b.DoctorName, b.Date, b.Time,
	)
}
