package clinic

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/promedvoice/clinic-console/internal/config"
	"github.com/promedvoice/clinic-console/internal/observability/metrics"
	redisclient "github.com/promedvoice/clinic-console/internal/redis"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrBookingCancelled = errors.New("booking is cancelled")
	ErrSlotUnavailable  = errors.New("slot is not available")
	ErrSlotBeingBooked  = errors.New("slot is currently being booked, please retry")
)

// Service is the scheduling engine: it owns the slot and booking lifecycle and
// never caches store state across calls.
type Service struct {
	repo    Repository
	locker  redisclient.Locker
	cfg     config.Config
	metrics *metrics.ClinicMetrics
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, m *metrics.ClinicMetrics) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		cfg:     cfg,
		metrics: m,
	}
}

func validationErr(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validTimeOfDay(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// Doctors

func (s *Service) CreateDoctor(ctx context.Context, name, specialty string) (*Doctor, error) {
	if name == "" {
		return nil, validationErr("name is required")
	}
	if specialty == "" {
		return nil, validationErr("specialty is required")
	}

	d, err := s.repo.CreateDoctor(ctx, name, specialty)
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return d, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, name, specialty string) (*Doctor, error) {
	if name == "" {
		return nil, validationErr("name is required")
	}
	if specialty == "" {
		return nil, validationErr("specialty is required")
	}

	d, err := s.repo.UpdateDoctor(ctx, id, name, specialty)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return d, nil
}

// DeleteDoctor rejects deletion while dependent slots or bookings exist; the
// store's referential integrity is the backstop.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteDoctor(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) || errors.Is(err, ErrDoctorInUse) {
			return err
		}
		return fmt.Errorf("delete doctor: %w", err)
	}
	return nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// Slots

// CreateSlot declares a new reservable unit of a doctor's schedule. The same
// doctor/date/time may be declared twice; duplicates are not detected.
func (s *Service) CreateSlot(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, available bool) (*Slot, error) {
	if doctorID == uuid.Nil {
		return nil, validationErr("doctor_id is required")
	}
	if !validDate(date) {
		return nil, validationErr("slot_date must be YYYY-MM-DD")
	}
	if !validTimeOfDay(timeOfDay) {
		return nil, validationErr("slot_time must be HH:MM")
	}

	slot, err := s.repo.CreateSlot(ctx, doctorID, date, timeOfDay, available)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create slot: %w", err)
	}
	return slot, nil
}

// ToggleSlotAvailability flips the availability flag. The flip happens in a
// single store statement, so two concurrent toggles serialize instead of one
// overwriting the other with a stale value.
func (s *Service) ToggleSlotAvailability(ctx context.Context, id uuid.UUID) (*Slot, error) {
	slot, err := s.repo.ToggleSlotAvailability(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("toggle slot availability: %w", err)
	}

	s.metrics.ObserveSlotToggled(slot.IsAvailable)
	return slot, nil
}

func (s *Service) ListSlots(ctx context.Context, doctorID *uuid.UUID) ([]SlotDetail, error) {
	slots, err := s.repo.ListSlots(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// Bookings

// CreateBooking records a reservation in confirmed status. By default a linked
// slot's availability is left untouched: booking creation and slot availability
// are independent mechanisms. With strict booking enabled, a slot-linked
// booking takes the per-slot lock, requires the slot to be available, and flips
// it to unavailable.
func (s *Service) CreateBooking(ctx context.Context, nb NewBooking) (*Booking, error) {
	if nb.PatientName == "" {
		return nil, validationErr("patient_name is required")
	}
	if nb.PatientPhone == "" {
		return nil, validationErr("patient_phone is required")
	}
	if nb.DoctorID == uuid.Nil {
		return nil, validationErr("doctor_id is required")
	}
	if !validDate(nb.BookingDate) {
		return nil, validationErr("booking_date must be YYYY-MM-DD")
	}
	if !validTimeOfDay(nb.BookingTime) {
		return nil, validationErr("booking_time must be HH:MM")
	}

	if s.cfg.StrictBooking && nb.SlotID != nil {
		return s.createBookingStrict(ctx, nb)
	}

	booking, err := s.repo.CreateBooking(ctx, nb)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) || errors.Is(err, ErrSlotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.metrics.ObserveBookingCreated(false)
	return booking, nil
}

func (s *Service) createBookingStrict(ctx context.Context, nb NewBooking) (*Booking, error) {
	var created *Booking

	err := s.locker.WithLock(ctx, "slot:"+nb.SlotID.String(), func(lockCtx context.Context) error {
		slot, err := s.repo.GetSlotByID(lockCtx, *nb.SlotID)
		if err != nil {
			return err
		}
		if !slot.IsAvailable {
			return ErrSlotUnavailable
		}

		booking, err := s.repo.CreateBooking(lockCtx, nb)
		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		if _, err := s.repo.SetSlotAvailability(lockCtx, *nb.SlotID, false); err != nil {
			log.Printf("failed to mark slot %s unavailable for booking %s: %v", nb.SlotID, booking.ID, err)
		}

		created = booking
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.metrics.ObserveBookingCreated(true)
	return created, nil
}

// CancelBooking sets the booking to cancelled. Cancelling an already-cancelled
// booking is reported as already satisfied: the current record is returned
// unchanged.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if booking.Status == StatusCancelled {
		return booking, nil
	}

	cancelled, err := s.repo.CancelBooking(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			// Lost the race to another cancel; the booking is cancelled either way.
			return s.repo.GetBookingByID(ctx, id)
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	s.metrics.ObserveBookingCancelled()
	return cancelled, nil
}

// RescheduleBooking replaces the booking's date and time and marks it
// rescheduled. Cancelled bookings are terminal and are rejected.
func (s *Service) RescheduleBooking(ctx context.Context, id uuid.UUID, date, timeOfDay string) (*Booking, error) {
	if !validDate(date) {
		return nil, validationErr("booking_date must be YYYY-MM-DD")
	}
	if !validTimeOfDay(timeOfDay) {
		return nil, validationErr("booking_time must be HH:MM")
	}

	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	if booking.Status == StatusCancelled {
		return nil, ErrBookingCancelled
	}

	updated, err := s.repo.RescheduleBooking(ctx, id, date, timeOfDay)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			// The status guard missed: either a concurrent cancel won or the
			// row is gone entirely (a retention purge, say). Re-read to tell
			// the two apart.
			current, readErr := s.repo.GetBookingByID(ctx, id)
			if readErr != nil {
				return nil, readErr
			}
			if current.Status == StatusCancelled {
				return nil, ErrBookingCancelled
			}
			return nil, fmt.Errorf("reschedule booking: %w", err)
		}
		return nil, fmt.Errorf("reschedule booking: %w", err)
	}

	s.metrics.ObserveBookingRescheduled()
	return updated, nil
}

func (s *Service) ListBookings(ctx context.Context, doctorID *uuid.UUID) ([]BookingDetail, error) {
	bookings, err := s.repo.ListBookings(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// Call records

// IngestCallRecord accepts a classified call from the voice pipeline. Records
// are immutable once written.
func (s *Service) IngestCallRecord(ctx context.Context, nc NewCallRecord) (*CallRecord, error) {
	if nc.PhoneNumber == "" {
		return nil, validationErr("phone_number is required")
	}
	if !ValidIntent(nc.Intent) {
		return nil, validationErr("intent must be one of book, cancel, reschedule, info, other")
	}
	if !ValidOutcome(nc.Outcome) {
		return nil, validationErr("outcome must be one of success, handoff, no_match")
	}
	if nc.CallDuration < 0 {
		return nil, validationErr("call_duration must not be negative")
	}

	rec, err := s.repo.InsertCallRecord(ctx, nc)
	if err != nil {
		return nil, fmt.Errorf("insert call record: %w", err)
	}

	s.metrics.ObserveCallIngested(string(rec.Intent), string(rec.Outcome))
	return rec, nil
}

func (s *Service) ListCallRecords(ctx context.Context) ([]CallRecord, error) {
	records, err := s.repo.ListCallRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list call records: %w", err)
	}
	return records, nil
}

// Settings

func (s *Service) ListSettings(ctx context.Context) ([]Setting, error) {
	settings, err := s.repo.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

func (s *Service) UpsertSetting(ctx context.Context, key, value string) (*Setting, error) {
	if key == "" {
		return nil, validationErr("key is required")
	}

	setting, err := s.repo.UpsertSetting(ctx, key, value)
	if err != nil {
		return nil, fmt.Errorf("upsert setting: %w", err)
	}
	return setting, nil
}

// PurgeExpired deletes call records and bookings older than the retention
// period. Intended to be called periodically by the retention worker.
func (s *Service) PurgeExpired(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.cfg.RetentionPeriod)

	calls, err := s.repo.PurgeCallRecordsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge call records: %w", err)
	}
	bookings, err := s.repo.PurgeBookingsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge bookings: %w", err)
	}

	if calls > 0 || bookings > 0 {
		log.Printf("retention purge removed %d call records and %d bookings older than %s", calls, bookings, cutoff.Format(time.RFC3339))
	}

	return nil
}
