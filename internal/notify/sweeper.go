package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/carevoice/booking-service/pkg/logging"
)

// Sweeper periodically dispatches reminders for due medication tasks. A failed
// or skipped dispatch never stops the sweep; the task stays un-notified and is
// picked up again on the next run.
type Sweeper struct {
	tasks      TaskStore
	dispatcher *Dispatcher
	logger     *logging.Logger
}

func NewSweeper(tasks TaskStore, dispatcher *Dispatcher, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		tasks:      tasks,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Run performs one sweep over due tasks.
func (s *Sweeper) Run(ctx context.Context) error {
	due, err := s.tasks.FindDue(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("sweep reminders: %w", err)
	}

	for _, task := range due {
		payload := MedicationReminder{
			TaskID:       task.ID,
			MedicineName: task.MedicineName,
			Dosage:       task.Dosage,
		}

		res, err := s.dispatcher.Dispatch(ctx, task.PatientID, payload)
		if err != nil {
			s.logger.Error("reminder dispatch failed", "task_id", task.ID, "error", err)
			continue
		}
		if !res.Success {
			s.logger.Info("reminder skipped", "task_id", task.ID, "reason", res.Reason)
			continue
		}
		s.logger.Info("reminder sent", "task_id", task.ID, "message_sid", res.MessageSID)
	}

	return nil
}
