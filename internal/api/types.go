package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/promedvoice/clinic-console/internal/clinic"
	"github.com/promedvoice/clinic-console/internal/privacy"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Requests

type CreateDoctorRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type CreateSlotRequest struct {
	DoctorID    string `json:"doctor_id"`
	SlotDate    string `json:"slot_date"`
	SlotTime    string `json:"slot_time"`
	IsAvailable *bool  `json:"is_available"` // defaults to true
}

type CreateBookingRequest struct {
	PatientName  string  `json:"patient_name"`
	PatientPhone string  `json:"patient_phone"`
	DoctorID     string  `json:"doctor_id"`
	SlotID       *string `json:"slot_id"`
	BookingDate  string  `json:"booking_date"`
	BookingTime  string  `json:"booking_time"`
}

type RescheduleBookingRequest struct {
	BookingDate string `json:"booking_date"`
	BookingTime string `json:"booking_time"`
}

type IngestCallRequest struct {
	PhoneNumber  string            `json:"phone_number"`
	Transcript   string            `json:"transcript"`
	Intent       string            `json:"intent"`
	Outcome      string            `json:"outcome"`
	Metadata     map[string]string `json:"metadata"`
	CallDuration int               `json:"call_duration"`
}

type UpsertSettingRequest struct {
	Value string `json:"value"`
}

// Responses. Phone numbers are masked here, at the display boundary, never in
// the store.

type DoctorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DoctorRef struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type SlotResponse struct {
	ID          uuid.UUID  `json:"id"`
	DoctorID    uuid.UUID  `json:"doctor_id"`
	SlotDate    string     `json:"slot_date"`
	SlotTime    string     `json:"slot_time"`
	IsAvailable bool       `json:"is_available"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Doctor      *DoctorRef `json:"doctor,omitempty"`
}

type BookingResponse struct {
	ID           uuid.UUID  `json:"id"`
	PatientName  string     `json:"patient_name"`
	PatientPhone string     `json:"patient_phone"`
	DoctorID     uuid.UUID  `json:"doctor_id"`
	SlotID       *uuid.UUID `json:"slot_id,omitempty"`
	BookingDate  string     `json:"booking_date"`
	BookingTime  string     `json:"booking_time"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Doctor       *DoctorRef `json:"doctor,omitempty"`
}

type CallRecordResponse struct {
	ID           uuid.UUID         `json:"id"`
	PhoneNumber  string            `json:"phone_number"`
	Transcript   string            `json:"transcript"`
	Intent       string            `json:"intent"`
	Outcome      string            `json:"outcome"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CallDuration int               `json:"call_duration"`
	CreatedAt    time.Time         `json:"created_at"`
}

type SettingResponse struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description *string   `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DashboardSummaryResponse struct {
	TotalCalls         int                  `json:"total_calls"`
	BookingSuccessRate int                  `json:"booking_success_rate"`
	Handoffs           int                  `json:"handoffs"`
	Cancellations      int                  `json:"cancellations"`
	RecentBookings     []BookingResponse    `json:"recent_bookings"`
	RecentCalls        []CallRecordResponse `json:"recent_calls"`
}

// Mapping helpers

func toDoctorResponse(d *clinic.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:        d.ID,
		Name:      d.Name,
		Specialty: d.Specialty,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toSlotResponse(s *clinic.Slot) SlotResponse {
	return SlotResponse{
		ID:          s.ID,
		DoctorID:    s.DoctorID,
		SlotDate:    s.SlotDate,
		SlotTime:    s.SlotTime,
		IsAvailable: s.IsAvailable,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toSlotDetailResponse(sd clinic.SlotDetail) SlotResponse {
	resp := toSlotResponse(&sd.Slot)
	resp.Doctor = &DoctorRef{Name: sd.DoctorName, Specialty: sd.DoctorSpecialty}
	return resp
}

func toBookingResponse(b *clinic.Booking) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		PatientName:  b.PatientName,
		PatientPhone: privacy.MaskPhone(b.PatientPhone),
		DoctorID:     b.DoctorID,
		SlotID:       b.SlotID,
		BookingDate:  b.BookingDate,
		BookingTime:  b.BookingTime,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func toBookingDetailResponse(bd clinic.BookingDetail) BookingResponse {
	resp := toBookingResponse(&bd.Booking)
	resp.Doctor = &DoctorRef{Name: bd.DoctorName, Specialty: bd.DoctorSpecialty}
	return resp
}

func toCallRecordResponse(c *clinic.CallRecord) CallRecordResponse {
	return CallRecordResponse{
		ID:           c.ID,
		PhoneNumber:  privacy.MaskPhone(c.PhoneNumber),
		Transcript:   c.Transcript,
		Intent:       string(c.Intent),
		Outcome:      string(c.Outcome),
		Metadata:     c.Metadata,
		CallDuration: c.CallDuration,
		CreatedAt:    c.CreatedAt,
	}
}

func toSettingResponse(s *clinic.Setting) SettingResponse {
	return SettingResponse{
		ID:          s.ID,
		Key:         s.Key,
		Value:       s.Value,
		Description: s.Description,
		UpdatedAt:   s.UpdatedAt,
	}
}
