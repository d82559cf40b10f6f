package clinic

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memRepo is an in-memory Repository used by the service and aggregator tests.
// It mirrors the ordering and status-guard semantics of the Postgres
// repository.
type memRepo struct {
	mu       sync.Mutex
	now      time.Time
	doctors  map[uuid.UUID]Doctor
	slots    map[uuid.UUID]Slot
	bookings map[uuid.UUID]Booking
	calls    []CallRecord
	settings map[string]Setting
}

func newMemRepo() *memRepo {
	return &memRepo{
		now:      time.Now(),
		doctors:  make(map[uuid.UUID]Doctor),
		slots:    make(map[uuid.UUID]Slot),
		bookings: make(map[uuid.UUID]Booking),
		settings: make(map[string]Setting),
	}
}

func (m *memRepo) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

// Doctors

func (m *memRepo) CreateDoctor(ctx context.Context, name, specialty string) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := Doctor{ID: uuid.New(), Name: name, Specialty: specialty, CreatedAt: m.tick(), UpdatedAt: m.now}
	m.doctors[d.ID] = d
	return &d, nil
}

func (m *memRepo) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &d, nil
}

func (m *memRepo) UpdateDoctor(ctx context.Context, id uuid.UUID, name, specialty string) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	d.Name = name
	d.Specialty = specialty
	d.UpdatedAt = m.tick()
	m.doctors[id] = d
	return &d, nil
}

func (m *memRepo) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.doctors[id]; !ok {
		return ErrDoctorNotFound
	}
	for _, s := range m.slots {
		if s.DoctorID == id {
			return ErrDoctorInUse
		}
	}
	for _, b := range m.bookings {
		if b.DoctorID == id {
			return ErrDoctorInUse
		}
	}
	delete(m.doctors, id)
	return nil
}

func (m *memRepo) ListDoctors(ctx context.Context) ([]Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Doctor, 0, len(m.doctors))
	for _, d := range m.doctors {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Slots

func (m *memRepo) CreateSlot(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, available bool) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.doctors[doctorID]; !ok {
		return nil, ErrDoctorNotFound
	}
	s := Slot{ID: uuid.New(), DoctorID: doctorID, SlotDate: date, SlotTime: timeOfDay, IsAvailable: available, CreatedAt: m.tick(), UpdatedAt: m.now}
	m.slots[s.ID] = s
	return &s, nil
}

func (m *memRepo) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return &s, nil
}

func (m *memRepo) ToggleSlotAvailability(ctx context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	s.IsAvailable = !s.IsAvailable
	s.UpdatedAt = m.tick()
	m.slots[id] = s
	return &s, nil
}

func (m *memRepo) SetSlotAvailability(ctx context.Context, id uuid.UUID, available bool) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	s.IsAvailable = available
	s.UpdatedAt = m.tick()
	m.slots[id] = s
	return &s, nil
}

func (m *memRepo) ListSlots(ctx context.Context, doctorID *uuid.UUID) ([]SlotDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []SlotDetail
	for _, s := range m.slots {
		if doctorID != nil && s.DoctorID != *doctorID {
			continue
		}
		d := m.doctors[s.DoctorID]
		result = append(result, SlotDetail{Slot: s, DoctorName: d.Name, DoctorSpecialty: d.Specialty})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SlotDate != result[j].SlotDate {
			return result[i].SlotDate < result[j].SlotDate
		}
		return result[i].SlotTime < result[j].SlotTime
	})
	return result, nil
}

// Bookings

func (m *memRepo) CreateBooking(ctx context.Context, nb NewBooking) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.doctors[nb.DoctorID]; !ok {
		return nil, ErrDoctorNotFound
	}
	if nb.SlotID != nil {
		if _, ok := m.slots[*nb.SlotID]; !ok {
			return nil, ErrSlotNotFound
		}
	}
	b := Booking{
		ID:           uuid.New(),
		PatientName:  nb.PatientName,
		PatientPhone: nb.PatientPhone,
		DoctorID:     nb.DoctorID,
		SlotID:       nb.SlotID,
		BookingDate:  nb.BookingDate,
		BookingTime:  nb.BookingTime,
		Status:       StatusConfirmed,
		CreatedAt:    m.tick(),
		UpdatedAt:    m.now,
	}
	m.bookings[b.ID] = b
	return &b, nil
}

func (m *memRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (m *memRepo) CancelBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok || b.Status == StatusCancelled {
		return nil, ErrBookingNotFound
	}
	b.Status = StatusCancelled
	b.UpdatedAt = m.tick()
	m.bookings[id] = b
	return &b, nil
}

func (m *memRepo) RescheduleBooking(ctx context.Context, id uuid.UUID, date, timeOfDay string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok || b.Status == StatusCancelled {
		return nil, ErrBookingNotFound
	}
	b.BookingDate = date
	b.BookingTime = timeOfDay
	b.Status = StatusRescheduled
	b.UpdatedAt = m.tick()
	m.bookings[id] = b
	return &b, nil
}

func (m *memRepo) ListBookings(ctx context.Context, doctorID *uuid.UUID) ([]BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []BookingDetail
	for _, b := range m.bookings {
		if doctorID != nil && b.DoctorID != *doctorID {
			continue
		}
		d := m.doctors[b.DoctorID]
		result = append(result, BookingDetail{Booking: b, DoctorName: d.Name, DoctorSpecialty: d.Specialty})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].BookingDate != result[j].BookingDate {
			return result[i].BookingDate < result[j].BookingDate
		}
		return result[i].BookingTime < result[j].BookingTime
	})
	return result, nil
}

func (m *memRepo) ListRecentBookings(ctx context.Context, limit int) ([]BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []BookingDetail
	for _, b := range m.bookings {
		d := m.doctors[b.DoctorID]
		result = append(result, BookingDetail{Booking: b, DoctorName: d.Name, DoctorSpecialty: d.Specialty})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Call records

func (m *memRepo) InsertCallRecord(ctx context.Context, nc NewCallRecord) (*CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := CallRecord{
		ID:           uuid.New(),
		PhoneNumber:  nc.PhoneNumber,
		Transcript:   nc.Transcript,
		Intent:       nc.Intent,
		Outcome:      nc.Outcome,
		Metadata:     nc.Metadata,
		CallDuration: nc.CallDuration,
		CreatedAt:    m.tick(),
	}
	m.calls = append(m.calls, c)
	return &c, nil
}

// insertCallAt backdates a record; handy for window tests.
func (m *memRepo) insertCallAt(intent CallIntent, outcome CallOutcome, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, CallRecord{
		ID:          uuid.New(),
		PhoneNumber: "+48123456789",
		Intent:      intent,
		Outcome:     outcome,
		CreatedAt:   createdAt,
	})
}

func (m *memRepo) sortedCallsDesc() []CallRecord {
	result := make([]CallRecord, len(m.calls))
	copy(result, m.calls)
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (m *memRepo) ListCallRecords(ctx context.Context) ([]CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sortedCallsDesc(), nil
}

func (m *memRepo) ListRecentCallRecords(ctx context.Context, limit int) ([]CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := m.sortedCallsDesc()
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memRepo) ListCallRecordsSince(ctx context.Context, since time.Time) ([]CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []CallRecord
	for _, c := range m.sortedCallsDesc() {
		if !c.CreatedAt.Before(since) {
			result = append(result, c)
		}
	}
	return result, nil
}

// Settings

func (m *memRepo) ListSettings(ctx context.Context) ([]Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Setting, 0, len(m.settings))
	for _, s := range m.settings {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (m *memRepo) UpsertSetting(ctx context.Context, key, value string) (*Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.settings[key]
	if !ok {
		s = Setting{ID: uuid.New(), Key: key}
	}
	s.Value = value
	s.UpdatedAt = m.tick()
	m.settings[key] = s
	return &s, nil
}

// Retention

func (m *memRepo) PurgeCallRecordsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []CallRecord
	var purged int64
	for _, c := range m.calls {
		if c.CreatedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, c)
	}
	m.calls = kept
	return purged, nil
}

func (m *memRepo) PurgeBookingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var purged int64
	for id, b := range m.bookings {
		if b.CreatedAt.Before(cutoff) {
			delete(m.bookings, id)
			purged++
		}
	}
	return purged, nil
}
