package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carevoice/booking-service/internal/observability/metrics"
	"github.com/carevoice/booking-service/pkg/logging"
)

var ErrPatientNotFound = errors.New("patient not found")

// Contact is the read-only patient directory projection the dispatcher needs.
type Contact struct {
	Name  string
	Phone string
}

// Directory resolves a patient's contact details.
type Directory interface {
	Contact(ctx context.Context, patientID uuid.UUID) (*Contact, error)
}

// Sender delivers a rendered message and returns the provider message SID.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// TaskStore lets the dispatcher flag reminder tasks as notified and lets the
// sweeper find due ones.
type TaskStore interface {
	FindDue(ctx context.Context, now time.Time) ([]ReminderTask, error)
	MarkNotified(ctx context.Context, taskID uuid.UUID, at time.Time) error
}

// ReminderTask is a due medication task awaiting its reminder.
type ReminderTask struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	MedicineName string
	Dosage       string
	DueAt        time.Time
}

// Result describes one dispatch attempt. A soft-skip (no contact info) is a
// non-error outcome: Success is false, Reason says why, and err is nil.
type Result struct {
	Success    bool
	MessageSID string
	Reason     string
}

// DeliveryError means the provider rejected or failed the send. It is surfaced
// for logging and metrics, never thrown back into the triggering flow.
type DeliveryError struct {
	Kind   string
	Detail string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s notification: %s", e.Kind, e.Detail)
}

// Dispatcher is the stateless notification pipeline: resolve contact, render,
// deliver, and (for reminders) mark the task notified.
type Dispatcher struct {
	directory Directory
	sender    Sender
	tasks     TaskStore // optional
	logger    *logging.Logger
	metrics   *metrics.BookingMetrics
}

func NewDispatcher(directory Directory, sender Sender, tasks TaskStore, logger *logging.Logger, m *metrics.BookingMetrics) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		directory: directory,
		sender:    sender,
		tasks:     tasks,
		logger:    logger,
		metrics:   m,
	}
}

// Dispatch sends one notification to one patient. Idempotency is not
// guaranteed; callers that retry may deliver twice.
func (d *Dispatcher) Dispatch(ctx context.Context, patientID uuid.UUID, p Payload) (Result, error) {
	contact, err := d.directory.Contact(ctx, patientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			d.metrics.ObserveDispatch(p.Kind(), "skipped")
			d.logger.Warn("notification skipped, unknown patient", "patient_id", patientID, "kind", p.Kind())
			return Result{Success: false, Reason: "no contact info"}, nil
		}
		return Result{}, fmt.Errorf("resolve contact: %w", err)
	}

	if contact.Phone == "" {
		d.metrics.ObserveDispatch(p.Kind(), "skipped")
		d.logger.Info("notification skipped, no phone on file", "patient_id", patientID, "kind", p.Kind())
		return Result{Success: false, Reason: "no contact info"}, nil
	}

	sid, err := d.sender.Send(ctx, contact.Phone, p.Render())
	if err != nil {
		d.metrics.ObserveDispatch(p.Kind(), "failed")
		return Result{Success: false, Reason: err.Error()}, &DeliveryError{Kind: p.Kind(), Detail: err.Error()}
	}

	d.metrics.ObserveDispatch(p.Kind(), "sent")

	// Best-effort: the message is already out, so a failed flag update is
	// logged and not returned.
	if rem, ok := p.(MedicationReminder); ok && rem.TaskID != uuid.Nil && d.tasks != nil {
		if err := d.tasks.MarkNotified(ctx, rem.TaskID, time.Now()); err != nil {
			d.logger.Error("failed to mark task notified", "task_id", rem.TaskID, "error", err)
		}
	}

	return Result{Success: true, MessageSID: sid}, nil
}
