// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/monabeauty/pos-be/internal/adapters/db"
	"github.com/monabeauty/pos-be/internal/adapters/storage"
	"github.com/monabeauty/pos-be/internal/core/services"
	"github.com/monabeauty/pos-be/internal/label"
	"github.com/monabeauty/pos-be/internal/pkg/config"
	"github.com/monabeauty/pos-be/internal/pkg/logger"
	"github.com/monabeauty/pos-be/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx := context.Background()
	database, err := initDatabase(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	artifactStore, err := storage.NewS3Store(ctx, &cfg.Storage, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize artifact store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo := db.NewProductRepository(database, slogger.Logger)
	codegen := services.NewCodeGenerator(nil, slogger.Logger)
	dispatcher := services.NewDispatcher(repo, codegen, nil, slogger.Logger)
	productService := services.NewProductService(repo, dispatcher, slogger.Logger)

	generator := label.NewGenerator(cfg.Labels, slogger.Logger)
	sheetRenderer := label.NewSheetRenderer(generator, cfg.Labels, cfg.Render, slogger.Logger)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Asynq.RedisAddr,
			Password: cfg.Asynq.RedisPassword,
			DB:       cfg.Asynq.RedisDB,
		},
		asynq.Config{
			Concurrency:     cfg.Asynq.Concurrency,
			Queues:          cfg.Asynq.Queues,
			StrictPriority:  cfg.Asynq.StrictPriority,
			ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
			RetryDelayFunc:  exponentialBackoff,
			ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
			HealthCheckFunc: healthCheck,
			Logger:          newAsynqLogger(slogger.Logger),
		},
	)

	mux := asynq.NewServeMux()

	labelProcessor := workers.NewLabelProcessor(repo, generator, artifactStore, slogger.Logger)
	mux.HandleFunc(workers.TypeLabelGenerate, labelProcessor.ProcessLabels)

	sheetProcessor := workers.NewSheetProcessor(repo, sheetRenderer, artifactStore, slogger.Logger)
	mux.HandleFunc(workers.TypeLabelSheet, sheetProcessor.ProcessSheet)

	importProcessor := workers.NewImportProcessor(repo, productService, artifactStore, slogger.Logger)
	mux.HandleFunc(workers.TypeDeliveryNoteImport, importProcessor.ProcessDeliveryNote)

	cleanupProcessor := workers.NewCleanupProcessor(artifactStore, cfg.Uploads.MaxArtifactAge, slogger.Logger)
	mux.HandleFunc(workers.TypeArtifactCleanup, cleanupProcessor.CleanupArtifacts)

	// Periodic enqueue of artifact cleanup. The unique option keeps
	// overlapping ticks from stacking up.
	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	defer cancelCleanup()
	go scheduleCleanup(cleanupCtx, cfg, slogger.Logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	cancelCleanup()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	dbConfig := &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     10, // Fewer connections for worker
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}

	return db.NewDatabase(ctx, dbConfig, logger)
}

func scheduleCleanup(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	interval := cfg.Uploads.CleanupInterval
	if interval <= 0 {
		logger.Info("artifact cleanup scheduling disabled")
		return
	}

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	})
	defer client.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task := asynq.NewTask(workers.TypeArtifactCleanup, nil)
			if _, err := client.EnqueueContext(ctx, task,
				asynq.Queue("low"),
				asynq.Unique(interval),
			); err != nil {
				logger.Error("failed to enqueue artifact cleanup", slog.String("error", err.Error()))
			}
		}
	}
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("payload", string(task.Payload())),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
