package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AvailabilityRequest struct {
	DoctorID string `json:"doctor_id" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,datetime=15:04"`
}

type AvailabilityResponse struct {
	Available bool   `json:"available"`
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Message   string `json:"message"`
}

// AvailabilityErrorResponse keeps the response shape uniform on error:
// available is always reported false.
type AvailabilityErrorResponse struct {
	Error     string `json:"error"`
	Available bool   `json:"available"`
	Details   string `json:"details,omitempty"`
}

type BookingRequest struct {
	SessionID    string `json:"session_id" validate:"required"`
	DoctorID     string `json:"doctor_id" validate:"required"`
	DoctorName   string `json:"doctor_name"`
	Specialty    string `json:"specialty"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string `json:"time" validate:"required,datetime=15:04"`
	PatientName  string `json:"patient_name" validate:"required"`
	PatientPhone string `json:"patient_phone"`
	PatientEmail string `json:"patient_email" validate:"omitempty,email"`
}

type BookingDetails struct {
	Doctor    string `json:"doctor"`
	Specialty string `json:"specialty"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Patient   string `json:"patient"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type BookingResponse struct {
	Success        bool           `json:"success"`
	AppointmentID  uuid.UUID      `json:"appointment_id"`
	SessionID      string         `json:"session_id"`
	Message        string         `json:"message"`
	BookingDetails BookingDetails `json:"booking_details"`
}

type BookingErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// BookingRecord is the read-side projection of a stored booking.
type BookingRecord struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	SessionID     string    `json:"session_id"`
	DoctorID      string    `json:"doctor_id"`
	Doctor        string    `json:"doctor"`
	Specialty     string    `json:"specialty,omitempty"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Patient       string    `json:"patient"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type BookingListResponse struct {
	SessionID string          `json:"session_id"`
	Bookings  []BookingRecord `json:"bookings"`
}

type DispatchRequest struct {
	PatientID string          `json:"patient_id" validate:"required,uuid"`
	Kind      string          `json:"kind" validate:"required"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type DispatchResponse struct {
	Success    bool   `json:"success"`
	MessageSid string `json:"messageSid,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
}
