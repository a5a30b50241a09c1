package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/notify-api/internal/config"
	"github.com/jwalitptl/notify-api/internal/email"
	"github.com/jwalitptl/notify-api/internal/handler"
	notificationHandler "github.com/jwalitptl/notify-api/internal/handler/notification"
	"github.com/jwalitptl/notify-api/internal/repository/postgres"
	"github.com/jwalitptl/notify-api/internal/router"
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
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

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

	m := metrics.New("notify_api")

	dispatcher := dispatch.NewDispatcher(recipientRepo, emailSvc, broker, appLogger, m)
	processor := scheduler.NewProcessor(notificationRepo, dispatcher, scheduler.ProcessorConfig{
		BatchSize:    cfg.Scheduler.BatchSize,
		MaxRetries:   cfg.Scheduler.MaxRetries,
		RetryBackoff: cfg.Scheduler.RetryBackoff,
	}, appLogger, m)
	expander := scheduler.NewExpander(reminderRepo, notificationRepo, recipientRepo, cfg.Scheduler.Locale, appLogger, m)
	schedulerSvc := scheduler.NewService(notificationRepo, reminderRepo, processor, expander, appLogger)

	r := router.New(
		router.DefaultConfig(),
		handler.NewHandler(db),
		notificationHandler.NewHandler(schedulerSvc),
	)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err, "server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(err, "graceful shutdown failed")
	}
}
