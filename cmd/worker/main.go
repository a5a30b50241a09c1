package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/notify-api/internal/config"
	"github.com/jwalitptl/notify-api/internal/email"
	"github.com/jwalitptl/notify-api/internal/repository/postgres"
	"github.com/jwalitptl/notify-api/internal/service/dispatch"
	"github.com/jwalitptl/notify-api/internal/service/scheduler"
	"github.com/jwalitptl/notify-api/pkg/logger"
	"github.com/jwalitptl/notify-api/pkg/messaging"
	redisbroker "github.com/jwalitptl/notify-api/pkg/messaging/redis"
	"github.com/jwalitptl/notify-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	appLogger := logger.NewLogger(nil).WithFields(map[string]interface{}{
		"worker_id": workerID(),
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	if err := postgres.InitSchema(context.Background(), db); err != nil {
		appLogger.Fatal(err, "failed to apply schema")
	}

	baseRepo := postgres.NewBaseRepository(db)
	notificationRepo := postgres.NewNotificationRepository(baseRepo)
	reminderRepo := postgres.NewReminderRepository(baseRepo)
	recipientRepo := postgres.NewRecipientRepository(baseRepo)

	smtpCfg, err := email.LoadSMTPConfig()
	if err != nil {
		appLogger.Fatal(err, "failed to load SMTP config")
	}
	emailSvc := email.NewSMTPService(smtpCfg)

	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   3,
			RetryBackoff: 100 * time.Millisecond,
			PoolSize:     10,
			MinIdleConns: 2,
		}, &appLogger.ZL)
		if err != nil {
			appLogger.Fatal(err, "failed to connect to Redis")
		}
		defer broker.Close()
	}

	m := metrics.New("notify_worker")

	dispatcher := dispatch.NewDispatcher(recipientRepo, emailSvc, broker, appLogger, m)
	processor := scheduler.NewProcessor(notificationRepo, dispatcher, scheduler.ProcessorConfig{
		BatchSize:    cfg.Scheduler.BatchSize,
		MaxRetries:   cfg.Scheduler.MaxRetries,
		RetryBackoff: cfg.Scheduler.RetryBackoff,
	}, appLogger, m)
	expander := scheduler.NewExpander(reminderRepo, notificationRepo, recipientRepo, cfg.Scheduler.Locale, appLogger, m)
	svc := scheduler.NewService(notificationRepo, reminderRepo, processor, expander, appLogger)

	setupHealthCheck(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down")
		cancel()
	}()

	run(ctx, svc, cfg.Scheduler.PollInterval, appLogger)
}

// run invokes the combined cycle once per poll interval until cancelled.
func run(ctx context.Context, svc *scheduler.Service, interval time.Duration, appLogger *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	appLogger.Info("worker started", "poll_interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			appLogger.Info("worker stopped")
			return
		case <-ticker.C:
			if _, err := svc.ProcessDue(ctx, time.Now()); err != nil {
				appLogger.Error(err, "processing cycle failed")
			}
		}
	}
}

func setupHealthCheck(appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			appLogger.Error(err, "health check server failed")
		}
	}()
}

func workerID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return hostname
}
