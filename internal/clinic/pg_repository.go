package clinic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgForeignKeyViolation = "23503"

// Querier is the slice of pgxpool.Pool the repository uses. Tests substitute a
// pgxmock pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db Querier
}

func NewPgRepository(db Querier) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.SlotDate,
		&s.SlotTime,
		&s.IsAvailable,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var slotID *uuid.UUID

	err := row.Scan(
		&b.ID,
		&b.PatientName,
		&b.PatientPhone,
		&b.DoctorID,
		&slotID,
		&b.BookingDate,
		&b.BookingTime,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.SlotID = slotID
	return &b, nil
}

func scanCallRecord(row pgx.Row) (*CallRecord, error) {
	var c CallRecord
	var metadata map[string]string

	err := row.Scan(
		&c.ID,
		&c.PhoneNumber,
		&c.Transcript,
		&c.Intent,
		&c.Outcome,
		&metadata,
		&c.CallDuration,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Metadata = metadata
	return &c, nil
}

func foreignKeyTarget(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// Doctors

func (r *PgRepository) CreateDoctor(ctx context.Context, name, specialty string) (*Doctor, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO doctors (id, name, specialty, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, name, specialty, created_at, updated_at
	`, id, name, specialty)

	return scanDoctor(row)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, id uuid.UUID, name, specialty string) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE doctors
		SET name = $2,
		    specialty = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, specialty, created_at, updated_at
	`, id, name, specialty)

	return scanDoctor(row)
}

func (r *PgRepository) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM doctors
		WHERE id = $1
	`, id)
	if err != nil {
		if _, ok := foreignKeyTarget(err); ok {
			return ErrDoctorInUse
		}
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM doctors
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Slots

func (r *PgRepository) CreateSlot(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, available bool) (*Slot, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO slots (id, doctor_id, slot_date, slot_time, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, doctor_id, slot_date, slot_time, is_available, created_at, updated_at
	`, id, doctorID, date, timeOfDay, available)

	s, err := scanSlot(row)
	if err != nil {
		if _, ok := foreignKeyTarget(err); ok {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, doctor_id, slot_date, slot_time, is_available, created_at, updated_at
		FROM slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

// ToggleSlotAvailability flips the flag in a single statement so concurrent
// toggles never overwrite each other with a stale read.
func (r *PgRepository) ToggleSlotAvailability(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE slots
		SET is_available = NOT is_available,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, doctor_id, slot_date, slot_time, is_available, created_at, updated_at
	`, id)

	return scanSlot(row)
}

func (r *PgRepository) SetSlotAvailability(ctx context.Context, id uuid.UUID, available bool) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE slots
		SET is_available = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, doctor_id, slot_date, slot_time, is_available, created_at, updated_at
	`, id, available)

	return scanSlot(row)
}

func (r *PgRepository) ListSlots(ctx context.Context, doctorID *uuid.UUID) ([]SlotDetail, error) {
	query := `
		SELECT s.id, s.doctor_id, s.slot_date, s.slot_time, s.is_available, s.created_at, s.updated_at,
		       d.name, d.specialty
		FROM slots s
		JOIN doctors d ON d.id = s.doctor_id
	`
	args := []any{}
	if doctorID != nil {
		query += ` WHERE s.doctor_id = $1`
		args = append(args, *doctorID)
	}
	query += ` ORDER BY s.slot_date ASC, s.slot_time ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SlotDetail
	for rows.Next() {
		var sd SlotDetail
		err := rows.Scan(
			&sd.ID,
			&sd.DoctorID,
			&sd.SlotDate,
			&sd.SlotTime,
			&sd.IsAvailable,
			&sd.CreatedAt,
			&sd.UpdatedAt,
			&sd.DoctorName,
			&sd.DoctorSpecialty,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, sd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Bookings

func (r *PgRepository) CreateBooking(ctx context.Context, nb NewBooking) (*Booking, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO bookings (id, patient_name, patient_phone, doctor_id, slot_id, booking_date, booking_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'confirmed', now(), now())
		RETURNING id, patient_name, patient_phone, doctor_id, slot_id, booking_date, booking_time, status, created_at, updated_at
	`, id, nb.PatientName, nb.PatientPhone, nb.DoctorID, nb.SlotID, nb.BookingDate, nb.BookingTime)

	b, err := scanBooking(row)
	if err != nil {
		if constraint, ok := foreignKeyTarget(err); ok {
			if strings.Contains(constraint, "slot") {
				return nil, ErrSlotNotFound
			}
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PgRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, patient_name, patient_phone, doctor_id, slot_id, booking_date, booking_time, status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) CancelBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
		    updated_at = now()
		WHERE id = $1
		  AND status <> 'cancelled'
		RETURNING id, patient_name, patient_phone, doctor_id, slot_id, booking_date, booking_time, status, created_at, updated_at
	`, id)

	return scanBooking(row)
}

func (r *PgRepository) RescheduleBooking(ctx context.Context, id uuid.UUID, date, timeOfDay string) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET booking_date = $2,
		    booking_time = $3,
		    status = 'rescheduled',
		    updated_at = now()
		WHERE id = $1
		  AND status <> 'cancelled'
		RETURNING id, patient_name, patient_phone, doctor_id, slot_id, booking_date, booking_time, status, created_at, updated_at
	`, id, date, timeOfDay)

	return scanBooking(row)
}

func (r *PgRepository) ListBookings(ctx context.Context, doctorID *uuid.UUID) ([]BookingDetail, error) {
	query := `
		SELECT b.id, b.patient_name, b.patient_phone, b.doctor_id, b.slot_id, b.booking_date, b.booking_time, b.status, b.created_at, b.updated_at,
		       d.name, d.specialty
		FROM bookings b
		JOIN doctors d ON d.id = b.doctor_id
	`
	args := []any{}
	if doctorID != nil {
		query += ` WHERE b.doctor_id = $1`
		args = append(args, *doctorID)
	}
	query += ` ORDER BY b.booking_date ASC, b.booking_time ASC`

	return r.queryBookingDetails(ctx, query, args...)
}

func (r *PgRepository) ListRecentBookings(ctx context.Context, limit int) ([]BookingDetail, error) {
	return r.queryBookingDetails(ctx, `
		SELECT b.id, b.patient_name, b.patient_phone, b.doctor_id, b.slot_id, b.booking_date, b.booking_time, b.status, b.created_at, b.updated_at,
		       d.name, d.specialty
		FROM bookings b
		JOIN doctors d ON d.id = b.doctor_id
		ORDER BY b.created_at DESC
		LIMIT $1
	`, limit)
}

func (r *PgRepository) queryBookingDetails(ctx context.Context, query string, args ...any) ([]BookingDetail, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BookingDetail
	for rows.Next() {
		var bd BookingDetail
		var slotID *uuid.UUID
		err := rows.Scan(
			&bd.ID,
			&bd.PatientName,
			&bd.PatientPhone,
			&bd.DoctorID,
			&slotID,
			&bd.BookingDate,
			&bd.BookingTime,
			&bd.Status,
			&bd.CreatedAt,
			&bd.UpdatedAt,
			&bd.DoctorName,
			&bd.DoctorSpecialty,
		)
		if err != nil {
			return nil, err
		}
		bd.SlotID = slotID
		result = append(result, bd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Call records

func (r *PgRepository) InsertCallRecord(ctx context.Context, nc NewCallRecord) (*CallRecord, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO call_logs (id, phone_number, transcript, intent, outcome, metadata, call_duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, phone_number, transcript, intent, outcome, metadata, call_duration, created_at
	`, id, nc.PhoneNumber, nc.Transcript, nc.Intent, nc.Outcome, nc.Metadata, nc.CallDuration)

	return scanCallRecord(row)
}

func (r *PgRepository) ListCallRecords(ctx context.Context) ([]CallRecord, error) {
	return r.queryCallRecords(ctx, `
		SELECT id, phone_number, transcript, intent, outcome, metadata, call_duration, created_at
		FROM call_logs
		ORDER BY created_at DESC
	`)
}

func (r *PgRepository) ListRecentCallRecords(ctx context.Context, limit int) ([]CallRecord, error) {
	return r.queryCallRecords(ctx, `
		SELECT id, phone_number, transcript, intent, outcome, metadata, call_duration, created_at
		FROM call_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
}

func (r *PgRepository) ListCallRecordsSince(ctx context.Context, since time.Time) ([]CallRecord, error) {
	return r.queryCallRecords(ctx, `
		SELECT id, phone_number, transcript, intent, outcome, metadata, call_duration, created_at
		FROM call_logs
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`, since)
}

func (r *PgRepository) queryCallRecords(ctx context.Context, query string, args ...any) ([]CallRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CallRecord
	for rows.Next() {
		c, err := scanCallRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Settings

func (r *PgRepository) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, key, value, description, updated_at
		FROM settings
		ORDER BY key ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Setting
	for rows.Next() {
		var s Setting
		var description *string
		if err := rows.Scan(&s.ID, &s.Key, &s.Value, &description, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Description = description
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpsertSetting(ctx context.Context, key, value string) (*Setting, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO settings (id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = now()
		RETURNING id, key, value, description, updated_at
	`, uuid.New(), key, value)

	var s Setting
	var description *string
	if err := row.Scan(&s.ID, &s.Key, &s.Value, &description, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Description = description
	return &s, nil
}

// Retention

func (r *PgRepository) PurgeCallRecordsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM call_logs
		WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge call records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) PurgeBookingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM bookings
		WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge bookings: %w", err)
	}
	return tag.RowsAffected(), nil
}
