package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carevoice/booking-service/internal/config"
	"github.com/carevoice/booking-service/internal/db"
	"github.com/carevoice/booking-service/internal/messaging"
	"github.com/carevoice/booking-service/internal/notify"
	"github.com/carevoice/booking-service/internal/observability/metrics"
	"github.com/carevoice/booking-service/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("reminder-worker starting up", "env", cfg.Env, "interval", cfg.WorkerInterval.String())

	if !cfg.TwilioConfigured() {
		logger.Error("twilio credentials are required for the reminder worker")
		os.Exit(1)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Error("postgres connection error", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	store := notify.NewPgStore(pgPool)
	sender := messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom, logger)
	dispatcher := notify.NewDispatcher(store, sender, store, logger, metrics.NewBookingMetrics(nil))
	sweeper := notify.NewSweeper(store, dispatcher, logger)

	// Run once at startup
	runOnce(rootCtx, sweeper, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, sweeper, logger)
		}
	}
}

func runOnce(ctx context.Context, sweeper *notify.Sweeper, logger *logging.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := sweeper.Run(runCtx); err != nil {
		logger.Error("reminder sweep error", "error", err)
		return
	}
	logger.Info("reminder sweep complete", "duration", time.Since(start).String())
}
