package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carevoice/booking-service/internal/booking"
	"github.com/carevoice/booking-service/internal/notify"
	"github.com/carevoice/booking-service/internal/redisclient"
	"github.com/carevoice/booking-service/pkg/logging"
)

// Stubs

type stubService struct {
	available bool
	checkErr  error

	booked     *booking.Booking
	reserveErr error
	reserved   []booking.ReservationRequest

	found   *booking.Booking
	getErr  error
	listed  []booking.Booking
	listErr error
}

func (s *stubService) CheckAvailability(ctx context.Context, slot booking.Slot) (bool, error) {
	if s.checkErr != nil {
		return false, s.checkErr
	}
	return s.available, nil
}

func (s *stubService) Reserve(ctx context.Context, req booking.ReservationRequest) (*booking.Booking, error) {
	s.reserved = append(s.reserved, req)
	if s.reserveErr != nil {
		return nil, s.reserveErr
	}
	return s.booked, nil
}

func (s *stubService) GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.found, nil
}

func (s *stubService) SessionBookings(ctx context.Context, sessionID string) ([]booking.Booking, error) {
	if sessionID == "" {
		return nil, &booking.ValidationError{Field: "session_id", Reason: "is required"}
	}
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listed, nil
}

type stubDispatcher struct {
	result notify.Result
	err    error
	calls  []notify.Payload
}

func (s *stubDispatcher) Dispatch(ctx context.Context, patientID uuid.UUID, p notify.Payload) (notify.Result, error) {
	s.calls = append(s.calls, p)
	return s.result, s.err
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// check-availability

func TestCheckAvailabilityHandler_Available(t *testing.T) {
	h := checkAvailabilityHandler(&stubService{available: true}, newValidator())
	rec := postJSON(t, h, `{"doctor_id":"doc_1","date":"2026-09-15","time":"14:30"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Available)
	assert.Equal(t, "doc_1", resp.DoctorID)
	assert.Equal(t, "This slot is available for booking!", resp.Message)
}

func TestCheckAvailabilityHandler_Taken(t *testing.T) {
	h := checkAvailabilityHandler(&stubService{available: false}, newValidator())
	rec := postJSON(t, h, `{"doctor_id":"doc_1","date":"2026-09-15","time":"14:30"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
	assert.Equal(t, "Sorry, this time slot is already booked. Please try another time.", resp.Message)
}

func TestCheckAvailabilityHandler_BadInput(t *testing.T) {
	h := checkAvailabilityHandler(&stubService{}, newValidator())

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"malformed json", `{"doctor_id":`, "could not parse JSON body"},
		{"missing doctor", `{"date":"2026-09-15","time":"14:30"}`, "doctor_id is required"},
		{"bad date", `{"doctor_id":"doc_1","date":"15/09/2026","time":"14:30"}`, "date has an invalid format"},
		{"bad time", `{"doctor_id":"doc_1","date":"2026-09-15","time":"2pm"}`, "time has an invalid format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp AvailabilityErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.wantErr)
			assert.False(t, resp.Available)
		})
	}
}

func TestCheckAvailabilityHandler_StoreFailure(t *testing.T) {
	h := checkAvailabilityHandler(&stubService{checkErr: errors.New("connection reset")}, newValidator())
	rec := postJSON(t, h, `{"doctor_id":"doc_1","date":"2026-09-15","time":"14:30"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp AvailabilityErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to check availability", resp.Error)
	assert.False(t, resp.Available, "a store failure must never read as available")
	assert.NotEmpty(t, resp.Details)
}

// book-appointment

func validBookingBody() string {
	return `{
		"session_id": "sess-1",
		"doctor_id": "doc_1",
		"doctor_name": "Dr. Sarah Johnson",
		"specialty": "Cardiology",
		"date": "2026-09-15",
		"time": "14:30",
		"patient_name": "Ana Gomez",
		"patient_email": "ana@example.com"
	}`
}

func TestBookAppointmentHandler_Success(t *testing.T) {
	id := uuid.New()
	svc := &stubService{booked: &booking.Booking{
		ID:          id,
		SessionID:   "sess-1",
		DoctorID:    "doc_1",
		DoctorName:  "Dr. Sarah Johnson",
		Specialty:   "Cardiology",
		Date:        "2026-09-15",
		Time:        "14:30",
		PatientName: "Ana Gomez",
	}}
	h := bookAppointmentHandler(svc, newValidator(), time.Second)
	rec := postJSON(t, h, validBookingBody())

	require.Equal(t, http.StatusOK, rec.Code)

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, id, resp.AppointmentID)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Contains(t, resp.Message, "Dr. Sarah Johnson")
	assert.Equal(t, "Dr. Sarah Johnson", resp.BookingDetails.Doctor)
	assert.Equal(t, "Ana Gomez", resp.BookingDetails.Patient)
}

func TestBookAppointmentHandler_MissingFields(t *testing.T) {
	svc := &stubService{}
	h := bookAppointmentHandler(svc, newValidator(), time.Second)
	rec := postJSON(t, h, `{"doctor_id":"doc_1","date":"2026-09-15","time":"14:30"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp BookingErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "session_id is required")
	assert.Contains(t, resp.Error, "patient_name is required")
	assert.Empty(t, svc.reserved, "an invalid request must not reach the service")
}

func TestBookAppointmentHandler_SlotConflict(t *testing.T) {
	for _, cause := range []error{booking.ErrSlotTaken, redisclient.ErrLockNotAcquired} {
		h := bookAppointmentHandler(&stubService{reserveErr: cause}, newValidator(), time.Second)
		rec := postJSON(t, h, validBookingBody())

		require.Equal(t, http.StatusConflict, rec.Code, "cause: %v", cause)

		var resp BookingErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "Time slot no longer available", resp.Error)
		assert.Equal(t, "Sorry, this slot was just booked. Please choose another time.", resp.Message)
	}
}

func TestBookAppointmentHandler_StoreFailure(t *testing.T) {
	h := bookAppointmentHandler(&stubService{reserveErr: errors.New("write timeout")}, newValidator(), time.Second)
	rec := postJSON(t, h, validBookingBody())

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp BookingErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Failed to create booking", resp.Error)
	assert.NotEmpty(t, resp.Details)
}

// booking reads

func bookingRouter(svc BookingService) http.Handler {
	r := chi.NewRouter()
	r.Get("/bookings", listSessionBookingsHandler(svc))
	r.Get("/bookings/{id}", getBookingHandler(svc))
	return r
}

func TestGetBookingHandler(t *testing.T) {
	id := uuid.New()
	svc := &stubService{found: &booking.Booking{
		ID:          id,
		SessionID:   "sess-1",
		DoctorID:    "doc_1",
		DoctorName:  "Dr. Sarah Johnson",
		Date:        "2026-09-15",
		Time:        "14:30",
		PatientName: "Ana Gomez",
	}}
	router := bookingRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/bookings/"+id.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp BookingRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.AppointmentID)
	assert.Equal(t, "Dr. Sarah Johnson", resp.Doctor)
}

func TestGetBookingHandler_Errors(t *testing.T) {
	router := bookingRouter(&stubService{getErr: booking.ErrBookingNotFound})

	req := httptest.NewRequest(http.MethodGet, "/bookings/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/bookings/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessionBookingsHandler(t *testing.T) {
	svc := &stubService{listed: []booking.Booking{
		{ID: uuid.New(), SessionID: "sess-1", DoctorName: "Dr. Sarah Johnson"},
		{ID: uuid.New(), SessionID: "sess-1", DoctorName: "Dr. Ben Ito"},
	}}
	router := bookingRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/bookings?session_id=sess-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp BookingListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
	require.Len(t, resp.Bookings, 2)

	// Missing session_id is a validation error.
	req = httptest.NewRequest(http.MethodGet, "/bookings", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// notifications

func TestDispatchNotificationHandler_Success(t *testing.T) {
	d := &stubDispatcher{result: notify.Result{Success: true, MessageSID: "SM123abc"}}
	h := dispatchNotificationHandler(d, newValidator(), logging.Default())
	rec := postJSON(t, h, `{
		"patient_id": "`+uuid.NewString()+`",
		"kind": "medication_reminder",
		"payload": {"medicine_name": "Metformin", "dosage": "500mg"}
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DispatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "SM123abc", resp.MessageSid)

	require.Len(t, d.calls, 1)
	assert.Equal(t, notify.KindMedicationReminder, d.calls[0].Kind())
}

func TestDispatchNotificationHandler_SoftSkip(t *testing.T) {
	d := &stubDispatcher{result: notify.Result{Success: false, Reason: "no contact info"}}
	h := dispatchNotificationHandler(d, newValidator(), logging.Default())
	rec := postJSON(t, h, `{"patient_id":"`+uuid.NewString()+`","kind":"medication_reminder"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DispatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "no contact info", resp.Reason)
}

func TestDispatchNotificationHandler_DeliveryFailureIsStill200(t *testing.T) {
	d := &stubDispatcher{
		result: notify.Result{Success: false, Reason: "status=429"},
		err:    &notify.DeliveryError{Kind: notify.KindMedicationReminder, Detail: "status=429"},
	}
	h := dispatchNotificationHandler(d, newValidator(), logging.Default())
	rec := postJSON(t, h, `{"patient_id":"`+uuid.NewString()+`","kind":"medication_reminder"}`)

	// A failed delivery never signals the caller to unwind the triggering event.
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DispatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestDispatchNotificationHandler_BadInput(t *testing.T) {
	d := &stubDispatcher{}
	h := dispatchNotificationHandler(d, newValidator(), logging.Default())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"patient_id":`},
		{"missing kind", `{"patient_id":"` + uuid.NewString() + `"}`},
		{"bad uuid", `{"patient_id":"not-a-uuid","kind":"medication_reminder"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, d.calls, "invalid requests must not reach the dispatcher")
}

func TestDispatchNotificationHandler_UnknownKindDispatchesFallback(t *testing.T) {
	d := &stubDispatcher{result: notify.Result{Success: true, MessageSID: "SM123abc"}}
	h := dispatchNotificationHandler(d, newValidator(), logging.Default())
	rec := postJSON(t, h, `{"patient_id":"`+uuid.NewString()+`","kind":"weekly_digest"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, d.calls, 1)
	assert.Equal(t, "weekly_digest", d.calls[0].Kind())
}
