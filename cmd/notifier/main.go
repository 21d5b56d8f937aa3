package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"subwatch/internal/app"
	"subwatch/internal/infra/config"
	idb "subwatch/internal/infra/database"
	"subwatch/internal/infra/fx"
	"subwatch/internal/infra/logger"
	"subwatch/internal/infra/scheduler"
	"subwatch/internal/notify"
)

func main() {
	fmt.Println("Subwatch notifier starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Database connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Repositories
	subscriptionRepo := idb.NewPostgresSubscriptionRepository(db)
	currencyRepo := idb.NewPostgresCurrencyRepository(db)
	channelRepo := idb.NewPostgresChannelRepository(db)
	notificationRepo := idb.NewPostgresNotificationLogRepository(db)
	log.Info("Repositories initialized.")

	// Services
	rateSource := fx.NewClient(cfg.FixerAPIURL, cfg.FixerAPIKey)
	currencyService := app.NewCurrencyService(currencyRepo, rateSource, log)
	dispatcher := notify.NewDispatcher(channelRepo, notificationRepo, log, cfg.NotifySendsPerSecond)
	reminderService := app.NewReminderService(subscriptionRepo, currencyRepo, dispatcher, log)
	log.Info("Services initialized.")

	// Scheduler
	sched := scheduler.NewScheduler(
		reminderService,
		currencyService,
		log,
		cfg.CronSpecUpcoming,
		cfg.CronSpecOverdue,
		cfg.CronSpecCancellation,
		cfg.CronSpecRateRefresh,
	)
	sched.Start()

	log.Info("Application setup complete. Scheduler is running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	sched.Stop()
	log.Info("Application shut down gracefully.")
}
