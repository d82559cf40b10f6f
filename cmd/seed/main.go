package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promedvoice/clinic-console/internal/clinic"
	"github.com/promedvoice/clinic-console/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	seedCtx := context.Background()

	doctorIDs, err := seedDoctors(seedCtx, pool, 12)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	slotIDs, err := seedSlots(seedCtx, pool, doctorIDs, 200)
	if err != nil {
		log.Fatalf("seed slots: %v", err)
	}
	if err := seedBookings(seedCtx, pool, doctorIDs, slotIDs, 80); err != nil {
		log.Fatalf("seed bookings: %v", err)
	}
	if err := seedCallLogs(seedCtx, pool, 300); err != nil {
		log.Fatalf("seed call logs: %v", err)
	}
	if err := seedSettings(seedCtx, pool); err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	log.Println("seed complete")
}

func polishPhone() string {
	return "+48" + gofakeit.Numerify("#########")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"Cardiology",
		"Dermatology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Ophthalmology",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, specialty)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedSlots(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d slots", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		doctorID := doctorIDs[gofakeit.Number(0, len(doctorIDs)-1)]
		day := time.Now().AddDate(0, 0, gofakeit.Number(1, 30))
		hour := gofakeit.Number(8, 17)
		minute := []int{0, 30}[gofakeit.Number(0, 1)]
		slotTime := time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04")

		_, err := tx.Exec(ctx, `
			INSERT INTO slots (id, doctor_id, slot_date, slot_time, is_available, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, doctorID, day.Format("2006-01-02"), slotTime, gofakeit.Bool())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("slots seeded")
	return ids, nil
}

func seedBookings(ctx context.Context, pool *pgxpool.Pool, doctorIDs, slotIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d bookings", count)

	statuses := []clinic.BookingStatus{
		clinic.StatusConfirmed,
		clinic.StatusConfirmed,
		clinic.StatusConfirmed,
		clinic.StatusRescheduled,
		clinic.StatusCancelled,
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		doctorID := doctorIDs[gofakeit.Number(0, len(doctorIDs)-1)]

		// Roughly a third of bookings come straight from the voice pipeline
		// without a declared slot.
		var slotID *uuid.UUID
		if gofakeit.Number(0, 2) > 0 {
			sid := slotIDs[gofakeit.Number(0, len(slotIDs)-1)]
			slotID = &sid
		}

		day := time.Now().AddDate(0, 0, gofakeit.Number(-10, 30))
		hour := gofakeit.Number(8, 17)
		status := statuses[gofakeit.Number(0, len(statuses)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO bookings (id, patient_name, patient_phone, doctor_id, slot_id, booking_date, booking_time, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		`, id, gofakeit.Name(), polishPhone(), doctorID, slotID,
			day.Format("2006-01-02"), time.Date(0, 1, 1, hour, 0, 0, 0, time.UTC).Format("15:04"), status)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("bookings seeded")
	return nil
}

func seedCallLogs(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d call logs", count)

	intents := []clinic.CallIntent{
		clinic.IntentBook, clinic.IntentBook, clinic.IntentBook,
		clinic.IntentCancel, clinic.IntentReschedule, clinic.IntentInfo, clinic.IntentOther,
	}
	outcomes := []clinic.CallOutcome{
		clinic.OutcomeSuccess, clinic.OutcomeSuccess,
		clinic.OutcomeHandoff, clinic.OutcomeNoMatch,
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		createdAt := time.Now().Add(-time.Duration(gofakeit.Number(0, 14*24*3600)) * time.Second)
		metadata := map[string]string{
			"channel":  "phone",
			"language": "pl-PL",
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO call_logs (id, phone_number, transcript, intent, outcome, metadata, call_duration, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New(), polishPhone(), gofakeit.Sentence(12),
			intents[gofakeit.Number(0, len(intents)-1)],
			outcomes[gofakeit.Number(0, len(outcomes)-1)],
			metadata, gofakeit.Number(20, 600), createdAt)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("call logs seeded")
	return nil
}

func seedSettings(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("seeding settings")

	settings := map[string]string{
		"twilio_account_sid": "",
		"twilio_auth_token":  "",
		"n8n_webhook_url":    "",
		"hmac_secret":        "",
	}

	for key, value := range settings {
		_, err := pool.Exec(ctx, `
			INSERT INTO settings (id, key, value, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (key) DO NOTHING
		`, uuid.New(), key, value)
		if err != nil {
			return err
		}
	}

	log.Println("settings seeded")
	return nil
}
