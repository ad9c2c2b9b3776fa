package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benvon/smart-tasks/internal/app"
	"github.com/benvon/smart-tasks/internal/config"
	"github.com/benvon/smart-tasks/internal/handlers"
	"github.com/benvon/smart-tasks/internal/logger"
	"github.com/benvon/smart-tasks/internal/middleware"
	"github.com/benvon/smart-tasks/internal/queue"
	"github.com/benvon/smart-tasks/internal/services/reminder"
	"github.com/benvon/smart-tasks/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "smart-tasks-api"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New("api", debugMode, logger.EncodingJSON)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("remote_backend", cfg.RemoteBackend),
		zap.Duration("reminder_interval", cfg.ReminderInterval),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else if tp, err := telemetry.InitTracer(ctx, serviceName, cfg.OTELEndpoint); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracingEnabled = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	rt, err := app.Open(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_open_storage", zap.Error(err))
	}
	defer func() {
		if err := rt.Close(); err != nil {
			zapLogger.Warn("failed_to_close_storage", zap.Error(err))
		}
	}()
	zapLogger.Info("storage_ready", zap.String("database_path", cfg.DatabasePath))

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("invalid_redis_url", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("using_redis_rate_limit_store")
	}

	var jobQueue *queue.RabbitMQQueue
	if cfg.RabbitMQURL != "" {
		jobQueue = connectQueue(ctx, cfg.RabbitMQURL, zapLogger)
		if jobQueue != nil {
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
		}
	}

	notifier, err := buildNotifier(cfg, jobQueue, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_notifier", zap.Error(err))
	}
	monitor := reminder.NewMonitor(rt.Coordinator, notifier, cfg.ReminderInterval, zapLogger)
	if err := monitor.Start(ctx); err != nil {
		zapLogger.Fatal("failed_to_start_reminder_monitor", zap.Error(err))
	}

	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, redisClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	healthChecker := handlers.NewHealthChecker(rt.DB.HealthCheck).
		WithCheck("remote", remoteCheck(rt))
	if redisClient != nil {
		healthChecker.WithCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if jobQueue != nil {
		healthChecker.WithCheck("queue", jobQueue.HealthCheck)
	}

	r := newRouter(routerConfig{
		cfg:         cfg,
		coord:       rt.Coordinator,
		health:      healthChecker,
		rateLimit:   rateLimitMW,
		openAPIPath: filepath.Join("api", "openapi", "openapi.yaml"),
		tracing:     tracingEnabled,
		logger:      zapLogger,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		zapLogger.Error("server_failed", zap.Error(err))
	}

	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := monitor.Stop(shutdownCtx); err != nil {
		zapLogger.Warn("reminder_monitor_stop_failed", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// buildNotifier always logs reminders, and also delivers them through Telegram and the
// worker queue when those are configured.
func buildNotifier(cfg *config.Config, jobQueue *queue.RabbitMQQueue, zapLogger *zap.Logger) (reminder.Notifier, error) {
	notifiers := reminder.MultiNotifier{reminder.NewLogNotifier(zapLogger)}

	switch {
	case jobQueue != nil:
		// The worker owns Telegram delivery and retries when a queue is available
		notifiers = append(notifiers, reminder.NewQueueNotifier(jobQueue))
		zapLogger.Info("reminder_delivery_via_queue")
	case cfg.TelegramToken != "":
		tg, err := reminder.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
		zapLogger.Info("reminder_delivery_via_telegram")
	}
	return notifiers, nil
}

func remoteCheck(rt *app.Runtime) handlers.CheckFunc {
	if rt.Remote == nil {
		return nil
	}
	return rt.PingRemote
}

// connectQueue retries with exponential backoff to ride out RabbitMQ startup. It returns
// nil when the broker stays unreachable so reminders fall back to direct delivery.
func connectQueue(ctx context.Context, url string, zapLogger *zap.Logger) *queue.RabbitMQQueue {
	const maxRetries = 5
	const initialDelay = 2 * time.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q
		}

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}

	zapLogger.Error("rabbitmq_unavailable_using_direct_delivery", zap.Int("max_retries", maxRetries))
	return nil
}
