// callgen replays a synthetic stream of voice-pipeline traffic against a
// running api-server: call records, bookings, cancellations, and reschedules.
// Useful for exercising the dashboard and the strict booking path locally.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type genConfig struct {
	APIBaseURL string
	Duration   time.Duration
	Workers    int
}

type counters struct {
	calls     atomic.Int64
	bookings  atomic.Int64
	conflicts atomic.Int64
	errors    atomic.Int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := genConfig{
		APIBaseURL: envOr("API_BASE_URL", "http://localhost:8080"),
		Duration:   durationOr("CALLGEN_DURATION", time.Minute),
		Workers:    intOr("CALLGEN_WORKERS", 4),
	}

	log.Printf("callgen: url=%s duration=%s workers=%d", cfg.APIBaseURL, cfg.Duration, cfg.Workers)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithTimeout(rootCtx, cfg.Duration)
	defer cancel()

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := fetchDoctorIDs(runCtx, cfg.APIBaseURL)
	if err != nil {
		log.Fatalf("fetch doctors: %v", err)
	}
	if len(doctorIDs) == 0 {
		log.Fatal("no doctors found; run cmd/seed first")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	var stats counters
	var createdBookings sync.Map

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(runCtx, client, cfg.APIBaseURL, doctorIDs, &stats, &createdBookings)
		}()
	}
	wg.Wait()

	log.Printf("callgen done: calls=%d bookings=%d conflicts=%d errors=%d",
		stats.calls.Load(), stats.bookings.Load(), stats.conflicts.Load(), stats.errors.Load())
}

func worker(ctx context.Context, client *http.Client, baseURL string, doctorIDs []string, stats *counters, bookings *sync.Map) {
	intents := []string{"book", "book", "book", "cancel", "reschedule", "info", "other"}
	outcomes := []string{"success", "success", "handoff", "no_match"}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		intent := intents[gofakeit.Number(0, len(intents)-1)]
		outcome := outcomes[gofakeit.Number(0, len(outcomes)-1)]
		phone := "+48" + gofakeit.Numerify("#########")

		status, err := postJSON(ctx, client, baseURL+"/call-records", map[string]any{
			"phone_number":  phone,
			"transcript":    gofakeit.Sentence(15),
			"intent":        intent,
			"outcome":       outcome,
			"metadata":      map[string]string{"channel": "phone"},
			"call_duration": gofakeit.Number(20, 600),
		}, nil)
		record(stats, &stats.calls, status, err)

		// Successful booking calls produce an actual booking, like the voice
		// pipeline would.
		if intent == "book" && outcome == "success" {
			var created struct {
				ID string `json:"id"`
			}
			day := time.Now().AddDate(0, 0, gofakeit.Number(1, 21))
			status, err := postJSON(ctx, client, baseURL+"/bookings", map[string]any{
				"patient_name":  gofakeit.Name(),
				"patient_phone": phone,
				"doctor_id":     doctorIDs[gofakeit.Number(0, len(doctorIDs)-1)],
				"booking_date":  day.Format("2006-01-02"),
				"booking_time":  fmt.Sprintf("%02d:00", gofakeit.Number(8, 17)),
			}, &created)
			record(stats, &stats.bookings, status, err)
			if created.ID != "" {
				bookings.Store(created.ID, struct{}{})
			}
		}

		if intent == "cancel" {
			if id, ok := randomBooking(bookings); ok {
				status, err := postJSON(ctx, client, baseURL+"/bookings/"+id+"/cancel", map[string]any{}, nil)
				record(stats, nil, status, err)
			}
		}

		time.Sleep(time.Duration(gofakeit.Number(50, 250)) * time.Millisecond)
	}
}

func randomBooking(bookings *sync.Map) (string, bool) {
	var id string
	bookings.Range(func(k, _ any) bool {
		id = k.(string)
		return gofakeit.Bool() // keep walking at random, any entry will do
	})
	return id, id != ""
}

func record(stats *counters, counter *atomic.Int64, status int, err error) {
	switch {
	case err != nil || status >= 500:
		stats.errors.Add(1)
	case status == http.StatusConflict:
		stats.conflicts.Add(1)
	case status >= 400:
		stats.errors.Add(1)
	default:
		if counter != nil {
			counter.Add(1)
		}
	}
}

func postJSON(ctx context.Context, client *http.Client, url string, body map[string]any, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	return resp.StatusCode, nil
}

func fetchDoctorIDs(ctx context.Context, baseURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/doctors", nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list doctors: status %d", resp.StatusCode)
	}

	var doctors []struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doctors); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(doctors))
	for _, d := range doctors {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func intOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
