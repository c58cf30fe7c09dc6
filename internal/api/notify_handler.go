package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carevoice/booking-service/internal/notify"
	"github.com/carevoice/booking-service/pkg/logging"
)

// NotificationDispatcher is the slice of the dispatcher the handler needs.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, patientID uuid.UUID, p notify.Payload) (notify.Result, error)
}

// dispatchNotificationHandler triggers one outbound notification. Dispatch is
// fire and forget relative to the business event that triggered it: delivery
// failures and soft-skips come back as success:false with a 200, never as a
// status that suggests the triggering event should be rolled back.
func dispatchNotificationHandler(dispatcher NotificationDispatcher, validate *validator.Validate, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, DispatchResponse{
				Error: "could not parse JSON body",
			})
			return
		}

		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, DispatchResponse{
				Error: validationMessage(err),
			})
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, DispatchResponse{
				Error: "patient_id must be a valid UUID",
			})
			return
		}

		payload, err := notify.ParsePayload(req.Kind, req.Payload)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, DispatchResponse{
				Error: err.Error(),
			})
			return
		}

		res, err := dispatcher.Dispatch(r.Context(), patientID, payload)
		if err != nil {
			logger.Error("notification dispatch failed",
				"patient_id", patientID,
				"kind", payload.Kind(),
				"error", err,
			)
			writeJSON(w, http.StatusOK, DispatchResponse{
				Success: false,
				Error:   err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, DispatchResponse{
			Success:    res.Success,
			MessageSid: res.MessageSID,
			Reason:     res.Reason,
		})
	}
}
