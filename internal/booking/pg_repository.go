package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is the subset of pgxpool.Pool the repository uses. Tests swap in
// a pgxmock pool.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	pool pgxQuerier
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// NewPgRepositoryWithQuerier is used by tests.
func NewPgRepositoryWithQuerier(q pgxQuerier) *PgRepository {
	return &PgRepository{pool: q}
}

const bookingColumns = `
	id, session_id, doctor_id, doctor_name, specialty,
	to_char(slot_date, 'YYYY-MM-DD'), to_char(slot_time, 'HH24:MI'),
	patient_name, patient_phone, patient_email, created_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var specialty, phone, email *string

	err := row.Scan(
		&b.ID,
		&b.SessionID,
		&b.DoctorID,
		&b.DoctorName,
		&specialty,
		&b.Date,
		&b.Time,
		&b.PatientName,
		&phone,
		&email,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if specialty != nil {
		b.Specialty = *specialty
	}
	if phone != nil {
		b.PatientPhone = *phone
	}
	if email != nil {
		b.PatientEmail = *email
	}
	return &b, nil
}

func (r *PgRepository) SlotTaken(ctx context.Context, slot Slot) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE doctor_id = $1
			  AND slot_date = $2::date
			  AND slot_time = $3::time
		)
	`, slot.DoctorID, slot.Date, slot.Time).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return taken, nil
}

func (r *PgRepository) CreateBooking(ctx context.Context, req ReservationRequest) (*Booking, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (
			id, session_id, doctor_id, doctor_name, specialty,
			slot_date, slot_time, patient_name, patient_phone, patient_email, created_at
		)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6::date, $7::time, $8, NULLIF($9, ''), NULLIF($10, ''), now())
		RETURNING`+bookingColumns, id, req.SessionID, req.DoctorID, req.DoctorName, req.Specialty,
		req.Date, req.Time, req.PatientName, req.PatientPhone, req.PatientEmail)

	b, err := scanBooking(row)
	if err != nil {
		// The unique index on (doctor_id, slot_date, slot_time) is the real
		// guarantee; a violation means a concurrent reservation won.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	return b, nil
}

func (r *PgRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) ListBookingsBySession(ctx context.Context, sessionID string) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE session_id = $1
		ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
