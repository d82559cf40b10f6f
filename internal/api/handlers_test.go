package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promedvoice/clinic-console/internal/clinic"
	"github.com/promedvoice/clinic-console/internal/config"
)

// stubRepo delegates to per-test function fields. Anything a test does not
// stub falls through to the nil embedded interface and panics, which is the
// point: handlers must not touch the store beyond what the scenario needs.
type stubRepo struct {
	clinic.Repository

	createDoctorFn       func(ctx context.Context, name, specialty string) (*clinic.Doctor, error)
	deleteDoctorFn       func(ctx context.Context, id uuid.UUID) error
	createBookingFn      func(ctx context.Context, nb clinic.NewBooking) (*clinic.Booking, error)
	getBookingFn         func(ctx context.Context, id uuid.UUID) (*clinic.Booking, error)
	insertCallFn         func(ctx context.Context, nc clinic.NewCallRecord) (*clinic.CallRecord, error)
	upsertSettingFn      func(ctx context.Context, key, value string) (*clinic.Setting, error)
	listCallsSinceFn     func(ctx context.Context, since time.Time) ([]clinic.CallRecord, error)
	listRecentBookingsFn func(ctx context.Context, limit int) ([]clinic.BookingDetail, error)
	listRecentCallsFn    func(ctx context.Context, limit int) ([]clinic.CallRecord, error)
}

func (s *stubRepo) CreateDoctor(ctx context.Context, name, specialty string) (*clinic.Doctor, error) {
	return s.createDoctorFn(ctx, name, specialty)
}

func (s *stubRepo) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.deleteDoctorFn(ctx, id)
}

func (s *stubRepo) CreateBooking(ctx context.Context, nb clinic.NewBooking) (*clinic.Booking, error) {
	return s.createBookingFn(ctx, nb)
}

func (s *stubRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*clinic.Booking, error) {
	return s.getBookingFn(ctx, id)
}

func (s *stubRepo) InsertCallRecord(ctx context.Context, nc clinic.NewCallRecord) (*clinic.CallRecord, error) {
	return s.insertCallFn(ctx, nc)
}

func (s *stubRepo) UpsertSetting(ctx context.Context, key, value string) (*clinic.Setting, error) {
	return s.upsertSettingFn(ctx, key, value)
}

func (s *stubRepo) ListCallRecordsSince(ctx context.Context, since time.Time) ([]clinic.CallRecord, error) {
	return s.listCallsSinceFn(ctx, since)
}

func (s *stubRepo) ListRecentBookings(ctx context.Context, limit int) ([]clinic.BookingDetail, error) {
	return s.listRecentBookingsFn(ctx, limit)
}

func (s *stubRepo) ListRecentCallRecords(ctx context.Context, limit int) ([]clinic.CallRecord, error) {
	return s.listRecentCallsFn(ctx, limit)
}

func newTestRouter(repo clinic.Repository) http.Handler {
	svc := clinic.NewService(repo, nil, config.Config{}, nil)
	return NewRouter(RouterConfig{
		Service:   svc,
		Analytics: clinic.NewAnalytics(repo),
		Env:       "test",
		Version:   "test",
	})
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestCreateDoctorEndpoint(t *testing.T) {
	repo := &stubRepo{
		createDoctorFn: func(ctx context.Context, name, specialty string) (*clinic.Doctor, error) {
			return &clinic.Doctor{ID: uuid.New(), Name: name, Specialty: specialty}, nil
		},
	}
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/doctors", CreateDoctorRequest{
		Name:      "Dr. Kowalska",
		Specialty: "Dermatology",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody[DoctorResponse](t, rec)
	assert.Equal(t, "Dr. Kowalska", resp.Name)
	assert.Equal(t, "Dermatology", resp.Specialty)
}

func TestCreateDoctorEndpointValidation(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := doJSON(t, router, http.MethodPost, "/doctors", CreateDoctorRequest{Specialty: "Dermatology"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", resp.Error)
}

func TestDeleteDoctorEndpointConflict(t *testing.T) {
	repo := &stubRepo{
		deleteDoctorFn: func(ctx context.Context, id uuid.UUID) error {
			return clinic.ErrDoctorInUse
		},
	}
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodDelete, "/doctors/"+uuid.NewString(), nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "doctor_in_use", resp.Error)
}

func TestDeleteDoctorEndpointBadID(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := doJSON(t, router, http.MethodDelete, "/doctors/not-a-uuid", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_doctor_id", resp.Error)
}

func TestCreateBookingEndpointMasksPhone(t *testing.T) {
	doctorID := uuid.New()
	repo := &stubRepo{
		createBookingFn: func(ctx context.Context, nb clinic.NewBooking) (*clinic.Booking, error) {
			return &clinic.Booking{
				ID:           uuid.New(),
				PatientName:  nb.PatientName,
				PatientPhone: nb.PatientPhone,
				DoctorID:     nb.DoctorID,
				BookingDate:  nb.BookingDate,
				BookingTime:  nb.BookingTime,
				Status:       clinic.StatusConfirmed,
			}, nil
		},
	}
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/bookings", CreateBookingRequest{
		PatientName:  "Anna Nowak",
		PatientPhone: "+48 601 234 567",
		DoctorID:     doctorID.String(),
		BookingDate:  "2025-03-01",
		BookingTime:  "11:30",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody[BookingResponse](t, rec)
	assert.Equal(t, "confirmed", resp.Status)
	// The raw number never leaves the service boundary.
	assert.Equal(t, "+48 *** *** 567", resp.PatientPhone)
}

func TestRescheduleCancelledBookingEndpoint(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{
		getBookingFn: func(ctx context.Context, got uuid.UUID) (*clinic.Booking, error) {
			return &clinic.Booking{ID: got, Status: clinic.StatusCancelled}, nil
		},
	}
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/bookings/"+id.String()+"/reschedule", RescheduleBookingRequest{
		BookingDate: "2025-03-02",
		BookingTime: "12:00",
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "booking_cancelled", resp.Error)
}

func TestCancelUnknownBookingEndpoint(t *testing.T) {
	repo := &stubRepo{
		getBookingFn: func(ctx context.Context, id uuid.UUID) (*clinic.Booking, error) {
			return nil, clinic.ErrBookingNotFound
		},
	}
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/bookings/"+uuid.NewString()+"/cancel", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "booking_not_found", resp.Error)
}

func TestIngestCallEndpoint(t *testing.T) {
	repo := &stubRepo{
		insertCallFn: func(ctx context.Context, nc clinic.NewCallRecord) (*clinic.CallRecord, error) {
			return &clinic.CallRecord{
				ID:          uuid.New(),
				PhoneNumber: nc.PhoneNumber,
				Intent:      nc.Intent,
				Outcome:     nc.Outcome,
				CreatedAt:   time.Now(),
			}, nil
		},
	}
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/call-records", IngestCallRequest{
		PhoneNumber: "48601234567",
		Intent:      "book",
		Outcome:     "success",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody[CallRecordResponse](t, rec)
	assert.Equal(t, "book", resp.Intent)
	assert.Equal(t, "+48 *** *** 567", resp.PhoneNumber)
}

func TestIngestCallEndpointRejectsUnknownIntent(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := doJSON(t, router, http.MethodPost, "/call-records", IngestCallRequest{
		PhoneNumber: "48601234567",
		Intent:      "greeting",
		Outcome:     "success",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", resp.Error)
}

func TestUpsertSettingEndpoint(t *testing.T) {
	repo := &stubRepo{
		upsertSettingFn: func(ctx context.Context, key, value string) (*clinic.Setting, error) {
			return &clinic.Setting{ID: uuid.New(), Key: key, Value: value, UpdatedAt: time.Now()}, nil
		},
	}
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPut, "/settings/n8n_webhook_url", UpsertSettingRequest{
		Value: "https://hooks.example.com/voice",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[SettingResponse](t, rec)
	assert.Equal(t, "n8n_webhook_url", resp.Key)
	assert.Equal(t, "https://hooks.example.com/voice", resp.Value)
}

func TestDashboardSummaryEndpoint(t *testing.T) {
	doctorID := uuid.New()
	repo := &stubRepo{
		listCallsSinceFn: func(ctx context.Context, since time.Time) ([]clinic.CallRecord, error) {
			return []clinic.CallRecord{
				{ID: uuid.New(), PhoneNumber: "48601234567", Intent: clinic.IntentBook, Outcome: clinic.OutcomeSuccess},
				{ID: uuid.New(), PhoneNumber: "48601234568", Intent: clinic.IntentCancel, Outcome: clinic.OutcomeHandoff},
			}, nil
		},
		listRecentBookingsFn: func(ctx context.Context, limit int) ([]clinic.BookingDetail, error) {
			return []clinic.BookingDetail{{
				Booking: clinic.Booking{
					ID:           uuid.New(),
					PatientName:  "Anna Nowak",
					PatientPhone: "48601234567",
					DoctorID:     doctorID,
					Status:       clinic.StatusConfirmed,
				},
				DoctorName:      "Dr. A",
				DoctorSpecialty: "Cardiology",
			}}, nil
		},
		listRecentCallsFn: func(ctx context.Context, limit int) ([]clinic.CallRecord, error) {
			return []clinic.CallRecord{
				{ID: uuid.New(), PhoneNumber: "48601234567", Intent: clinic.IntentBook, Outcome: clinic.OutcomeSuccess},
			}, nil
		},
	}
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodGet, "/dashboard/summary", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[DashboardSummaryResponse](t, rec)
	assert.Equal(t, 2, resp.TotalCalls)
	assert.Equal(t, 50, resp.BookingSuccessRate)
	assert.Equal(t, 1, resp.Handoffs)
	assert.Equal(t, 1, resp.Cancellations)

	require.Len(t, resp.RecentBookings, 1)
	assert.Equal(t, "+48 *** *** 567", resp.RecentBookings[0].PatientPhone)
	require.NotNil(t, resp.RecentBookings[0].Doctor)
	assert.Equal(t, "Dr. A", resp.RecentBookings[0].Doctor.Name)

	require.Len(t, resp.RecentCalls, 1)
	assert.Equal(t, "+48 *** *** 567", resp.RecentCalls[0].PhoneNumber)
}
