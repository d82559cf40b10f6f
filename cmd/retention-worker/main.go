package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/promedvoice/clinic-console/internal/clinic"
	"github.com/promedvoice/clinic-console/internal/config"
	"github.com/promedvoice/clinic-console/internal/db"
	redisclient "github.com/promedvoice/clinic-console/internal/redis"
)

// The retention worker enforces the privacy policy: call records and bookings
// are kept for a bounded period (90 days by default) and then purged.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("retention-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running retention worker in env=%s interval=%s retention=%s", cfg.Env, cfg.WorkerInterval, cfg.RetentionPeriod)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	repo := clinic.NewPgRepository(pgPool)
	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	svc := clinic.NewService(repo, locker, cfg, nil)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping retention worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *clinic.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.PurgeExpired(runCtx, time.Now()); err != nil {
		log.Printf("retention run error: %v", err)
		return
	}
	log.Printf("retention run complete in %s", time.Since(start))
}
