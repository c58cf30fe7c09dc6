package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carevoice/booking-service/internal/booking"
	"github.com/carevoice/booking-service/internal/redisclient"
)

// BookingService is the slice of the booking service the handlers need.
type BookingService interface {
	CheckAvailability(ctx context.Context, slot booking.Slot) (bool, error)
	Reserve(ctx context.Context, req booking.ReservationRequest) (*booking.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	SessionBookings(ctx context.Context, sessionID string) ([]booking.Booking, error)
}

const (
	msgSlotAvailable = "This slot is available for booking!"
	msgSlotTaken     = "Sorry, this time slot is already booked. Please try another time."
	msgSlotJustTaken = "Sorry, this slot was just booked. Please choose another time."
)

func checkAvailabilityHandler(svc BookingService, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, AvailabilityErrorResponse{
				Error: "could not parse JSON body",
			})
			return
		}

		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, AvailabilityErrorResponse{
				Error: validationMessage(err),
			})
			return
		}

		slot := booking.Slot{DoctorID: req.DoctorID, Date: req.Date, Time: req.Time}
		available, err := svc.CheckAvailability(r.Context(), slot)
		if err != nil {
			if booking.IsValidation(err) {
				writeJSON(w, http.StatusBadRequest, AvailabilityErrorResponse{
					Error: err.Error(),
				})
				return
			}
			// An infrastructure failure is never reported as "available".
			writeJSON(w, http.StatusInternalServerError, AvailabilityErrorResponse{
				Error:   "Failed to check availability",
				Details: err.Error(),
			})
			return
		}

		msg := msgSlotAvailable
		if !available {
			msg = msgSlotTaken
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			Available: available,
			DoctorID:  slot.DoctorID,
			Date:      slot.Date,
			Time:      slot.Time,
			Message:   msg,
		})
	}
}

func bookAppointmentHandler(svc BookingService, validate *validator.Validate, storeTimeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, BookingErrorResponse{
				Error: "could not parse JSON body",
			})
			return
		}

		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, BookingErrorResponse{
				Error: validationMessage(err),
			})
			return
		}

		// Detached from the client connection: once the create phase is
		// issued it is allowed to complete even if the caller goes away.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), storeTimeout)
		defer cancel()

		b, err := svc.Reserve(ctx, booking.ReservationRequest{
			SessionID:    req.SessionID,
			DoctorID:     req.DoctorID,
			DoctorName:   req.DoctorName,
			Specialty:    req.Specialty,
			Date:         req.Date,
			Time:         req.Time,
			PatientName:  req.PatientName,
			PatientPhone: req.PatientPhone,
			PatientEmail: req.PatientEmail,
		})
		if err != nil {
			handleReserveError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, BookingResponse{
			Success:       true,
			AppointmentID: b.ID,
			SessionID:     b.SessionID,
			Message:       b.ConfirmationMessage(),
			BookingDetails: BookingDetails{
				Doctor:    b.DoctorName,
				Specialty: b.Specialty,
				Date:      b.Date,
				Time:      b.Time,
				Patient:   b.PatientName,
				Email:     b.PatientEmail,
				Phone:     b.PatientPhone,
			},
		})
	}
}

func bookingRecord(b *booking.Booking) BookingRecord {
	return BookingRecord{
		AppointmentID: b.ID,
		SessionID:     b.SessionID,
		DoctorID:      b.DoctorID,
		Doctor:        b.DoctorName,
		Specialty:     b.Specialty,
		Date:          b.Date,
		Time:          b.Time,
		Patient:       b.PatientName,
		Phone:         b.PatientPhone,
		Email:         b.PatientEmail,
		CreatedAt:     b.CreatedAt,
	}
}

func getBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, BookingErrorResponse{
				Error: "id must be a valid UUID",
			})
			return
		}

		b, err := svc.GetBooking(r.Context(), id)
		if err != nil {
			if errors.Is(err, booking.ErrBookingNotFound) {
				writeJSON(w, http.StatusNotFound, BookingErrorResponse{
					Error: "Booking not found",
				})
				return
			}
			writeJSON(w, http.StatusInternalServerError, BookingErrorResponse{
				Error:   "Failed to load booking",
				Details: err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, bookingRecord(b))
	}
}

func listSessionBookingsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")

		list, err := svc.SessionBookings(r.Context(), sessionID)
		if err != nil {
			if booking.IsValidation(err) {
				writeJSON(w, http.StatusBadRequest, BookingErrorResponse{
					Error: err.Error(),
				})
				return
			}
			writeJSON(w, http.StatusInternalServerError, BookingErrorResponse{
				Error:   "Failed to list bookings",
				Details: err.Error(),
			})
			return
		}

		records := make([]BookingRecord, 0, len(list))
		for i := range list {
			records = append(records, bookingRecord(&list[i]))
		}
		writeJSON(w, http.StatusOK, BookingListResponse{
			SessionID: sessionID,
			Bookings:  records,
		})
	}
}

func handleReserveError(w http.ResponseWriter, err error) {
	switch {
	case booking.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, BookingErrorResponse{
			Error: err.Error(),
		})
	case errors.Is(err, booking.ErrSlotTaken),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeJSON(w, http.StatusConflict, BookingErrorResponse{
			Error:   "Time slot no longer available",
			Message: msgSlotJustTaken,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, BookingErrorResponse{
			Error:   "Failed to create booking",
			Details: err.Error(),
		})
	}
}
