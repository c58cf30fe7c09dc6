package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore backs both the patient directory and the reminder task store.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Contact(ctx context.Context, patientID uuid.UUID) (*Contact, error) {
	var c Contact
	var phone *string

	err := s.pool.QueryRow(ctx, `
		SELECT full_name, phone
		FROM patients
		WHERE id = $1
	`, patientID).Scan(&c.Name, &phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient contact: %w", err)
	}

	if phone != nil {
		c.Phone = *phone
	}
	return &c, nil
}

func (s *PgStore) FindDue(ctx context.Context, now time.Time) ([]ReminderTask, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, patient_id, medicine_name, COALESCE(dosage, ''), due_at
		FROM tasks
		WHERE whatsapp_enabled
		  AND NOT notification_sent
		  AND due_at <= $1
		  AND status IN ('pending', 'in_progress')
		ORDER BY due_at
	`, now)
	if err != nil {
		return nil, fmt.Errorf("find due tasks: %w", err)
	}
	defer rows.Close()

	var result []ReminderTask
	for rows.Next() {
		var t ReminderTask
		if err := rows.Scan(&t.ID, &t.PatientID, &t.MedicineName, &t.Dosage, &t.DueAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgStore) MarkNotified(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET notification_sent = true,
		    last_notification_at = $2
		WHERE id = $1
	`, taskID, at)
	if err != nil {
		return fmt.Errorf("mark task notified: %w", err)
	}
	return nil
}
