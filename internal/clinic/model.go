package clinic

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	StatusConfirmed   BookingStatus = "confirmed"
	StatusRescheduled BookingStatus = "rescheduled"
	StatusCancelled   BookingStatus = "cancelled"
)

type CallIntent string

const (
	IntentBook       CallIntent = "book"
	IntentCancel     CallIntent = "cancel"
	IntentReschedule CallIntent = "reschedule"
	IntentInfo       CallIntent = "info"
	IntentOther      CallIntent = "other"
)

type CallOutcome string

const (
	OutcomeSuccess CallOutcome = "success"
	OutcomeHandoff CallOutcome = "handoff"
	OutcomeNoMatch CallOutcome = "no_match"
)

// ValidIntent reports whether s is a member of the closed intent set.
func ValidIntent(s CallIntent) bool {
	switch s {
	case IntentBook, IntentCancel, IntentReschedule, IntentInfo, IntentOther:
		return true
	}
	return false
}

// ValidOutcome reports whether s is a member of the closed outcome set.
func ValidOutcome(s CallOutcome) bool {
	switch s {
	case OutcomeSuccess, OutcomeHandoff, OutcomeNoMatch:
		return true
	}
	return false
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Slot dates and times are stored as ISO strings (YYYY-MM-DD, HH:MM) so
// lexicographic order matches chronological order everywhere they are sorted.
type Slot struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	SlotDate    string
	SlotTime    string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Booking struct {
	ID           uuid.UUID
	PatientName  string
	PatientPhone string
	DoctorID     uuid.UUID
	SlotID       *uuid.UUID
	BookingDate  string
	BookingTime  string
	Status       BookingStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CallRecord is write-once: the voice pipeline inserts it, the console only reads.
type CallRecord struct {
	ID           uuid.UUID
	PhoneNumber  string
	Transcript   string
	Intent       CallIntent
	Outcome      CallOutcome
	Metadata     map[string]string
	CallDuration int
	CreatedAt    time.Time
}

type Setting struct {
	ID          uuid.UUID
	Key         string
	Value       string
	Description *string
	UpdatedAt   time.Time
}

// SlotDetail carries the owning doctor's display attributes alongside the slot.
type SlotDetail struct {
	Slot
	DoctorName      string
	DoctorSpecialty string
}

// BookingDetail carries the referenced doctor's display attributes alongside the booking.
type BookingDetail struct {
	Booking
	DoctorName      string
	DoctorSpecialty string
}
