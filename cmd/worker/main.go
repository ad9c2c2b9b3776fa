package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/benvon/smart-tasks/internal/config"
	"github.com/benvon/smart-tasks/internal/logger"
	"github.com/benvon/smart-tasks/internal/queue"
	"github.com/benvon/smart-tasks/internal/services/reminder"
	"github.com/benvon/smart-tasks/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.New("worker", debugMode, logger.EncodingJSON)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
		zap.Bool("telegram_enabled", cfg.TelegramToken != ""),
	)

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("rabbitmq_url_not_configured")
	}

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	notifiers := reminder.MultiNotifier{reminder.NewLogNotifier(zapLogger)}
	if cfg.TelegramToken != "" {
		tg, err := reminder.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			zapLogger.Fatal("failed_to_create_telegram_notifier", zap.Error(err))
		}
		notifiers = append(notifiers, tg)
	}

	dispatcher := workers.NewReminderDispatcher(notifiers, jobQueue, zapLogger)
	runner := workers.NewRunner(jobQueue, dispatcher.ProcessJob, cfg.RabbitMQPrefetch, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Dead-lettered reminders are kept one reminder lifetime past their own expiry.
	sweeper := queue.NewDeadLetterSweeper(jobQueue, queue.DefaultSweepInterval, 2*queue.DefaultReminderTTL, zapLogger)
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("reminder_dlq_sweeper_stopped_with_error", zap.Error(err))
		}
	}()
	zapLogger.Info("started_reminder_dlq_sweeper",
		zap.Duration("interval", queue.DefaultSweepInterval),
		zap.Duration("retention", sweeper.Retention()),
	)

	zapLogger.Info("worker_started")
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("worker_stopped_with_error", zap.Error(err))
	}
	zapLogger.Info("worker_stopped", zap.Int64("dlq_reminders_swept", sweeper.Swept()))
}
