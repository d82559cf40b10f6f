package clinic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrSettingNotFound = errors.New("setting not found")
	ErrDoctorInUse     = errors.New("doctor has dependent slots or bookings")
)

// NewBooking is the insert payload for a booking. Status is always set by the
// repository to confirmed.
type NewBooking struct {
	PatientName  string
	PatientPhone string
	DoctorID     uuid.UUID
	SlotID       *uuid.UUID
	BookingDate  string
	BookingTime  string
}

// NewCallRecord is the insert payload produced by the voice pipeline.
type NewCallRecord struct {
	PhoneNumber  string
	Transcript   string
	Intent       CallIntent
	Outcome      CallOutcome
	Metadata     map[string]string
	CallDuration int
}

// Repository contains all store interactions needed by the service and aggregator.
type Repository interface {
	CreateDoctor(ctx context.Context, name, specialty string) (*Doctor, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	UpdateDoctor(ctx context.Context, id uuid.UUID, name, specialty string) (*Doctor, error)
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
	ListDoctors(ctx context.Context) ([]Doctor, error)

	CreateSlot(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, available bool) (*Slot, error)
	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	// ToggleSlotAvailability flips is_available in a single atomic statement.
	ToggleSlotAvailability(ctx context.Context, id uuid.UUID) (*Slot, error)
	SetSlotAvailability(ctx context.Context, id uuid.UUID, available bool) (*Slot, error)
	ListSlots(ctx context.Context, doctorID *uuid.UUID) ([]SlotDetail, error)

	CreateBooking(ctx context.Context, nb NewBooking) (*Booking, error)
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// CancelBooking cancels with a status guard (status <> cancelled); a miss is
	// reported as ErrBookingNotFound and disambiguated by the caller.
	CancelBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	// RescheduleBooking updates date/time and sets status=rescheduled under the
	// same status guard as CancelBooking.
	RescheduleBooking(ctx context.Context, id uuid.UUID, date, timeOfDay string) (*Booking, error)
	ListBookings(ctx context.Context, doctorID *uuid.UUID) ([]BookingDetail, error)
	ListRecentBookings(ctx context.Context, limit int) ([]BookingDetail, error)

	InsertCallRecord(ctx context.Context, nc NewCallRecord) (*CallRecord, error)
	ListCallRecords(ctx context.Context) ([]CallRecord, error)
	ListRecentCallRecords(ctx context.Context, limit int) ([]CallRecord, error)
	ListCallRecordsSince(ctx context.Context, since time.Time) ([]CallRecord, error)

	ListSettings(ctx context.Context) ([]Setting, error)
	UpsertSetting(ctx context.Context, key, value string) (*Setting, error)

	// Retention worker
	PurgeCallRecordsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeBookingsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
