// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/monabeauty/pos-be/internal/adapters/db"
	redis_a "github.com/monabeauty/pos-be/internal/adapters/redis_adapter"
	"github.com/monabeauty/pos-be/internal/adapters/storage"
	"github.com/monabeauty/pos-be/internal/capture"
	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/services"
	"github.com/monabeauty/pos-be/internal/decode"
	"github.com/monabeauty/pos-be/internal/handlers"
	"github.com/monabeauty/pos-be/internal/handlers/middleware"
	"github.com/monabeauty/pos-be/internal/pkg/config"
	"github.com/monabeauty/pos-be/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting point of sale backend",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
	)

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	if !cfg.IsProduction() {
		if err := runMigrations(ctx, cfg, slogger.Logger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		}
	}

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database         *db.Database
	redisClient      *redis.Client
	asynqClient      *asynq.Client
	asynqInspector   *asynq.Inspector
	cameraSource     *capture.CameraSource
	scanHandler      *handlers.ScanHandler
	productHandler   *handlers.ProductHandler
	salesHandler     *handlers.SalesHandler
	dashboardHandler *handlers.DashboardHandler
	exportHandler    *handlers.ExportHandler
	labelsHandler    *handlers.LabelsHandler
	importHandler    *handlers.ImportHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.cameraSource != nil {
		d.cameraSource.Stop()
	}
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, slogger *logger.Logger) (*dependencies, error) {
	deps := &dependencies{}
	log := slogger.Logger

	log.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	log.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient

	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, log)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	artifactStore, err := storage.NewS3Store(ctx, &cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	// Core services: code generation, dispatch, resolution.
	repo := db.NewProductRepository(database, log)
	codegen := services.NewCodeGenerator(nil, log)
	dispatcher := services.NewDispatcher(repo, codegen, cache, log)
	productService := services.NewProductService(repo, dispatcher, log)
	resolver := services.NewResolver(repo, cache, log)

	// Decode chain for uploaded stills: structured reader with the
	// run-length fallback behind it.
	fallback := decode.NewFallbackDecoder(decode.DefaultFallbackConfig(), log)
	adapter := decode.NewAdapter(ctx, decode.NewStructuredDecoder(log), fallback, log)
	images := capture.NewImageSource(adapter, log)

	// Optional continuous capture channel: an MJPEG stream on the
	// configured device feeding the same decode chain.
	if cfg.Capture.Enabled {
		provider := capture.NewMJPEGProvider(cfg.Capture, func() (io.ReadCloser, error) {
			return os.Open(cfg.Capture.Device)
		}, log)
		camera := capture.NewCameraSource(provider, adapter, capture.CameraConfigFrom(cfg.Capture), log)
		if err := camera.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start capture loop: %w", err)
		}
		deps.cameraSource = camera
		go pumpCameraScans(ctx, camera, resolver, log)
	}

	deps.scanHandler = handlers.NewScanHandler(resolver, images, cfg.Uploads.ImageMaxSizeMB, log)
	deps.productHandler = handlers.NewProductHandler(productService, log)
	deps.salesHandler = handlers.NewSalesHandler(productService, log)
	deps.dashboardHandler = handlers.NewDashboardHandler(repo, cache, log)
	deps.exportHandler = handlers.NewExportHandler(repo, log)
	deps.labelsHandler = handlers.NewLabelsHandler(deps.asynqClient, log)
	deps.importHandler = handlers.NewImportHandler(deps.asynqClient, artifactStore, cfg.Uploads.PDFMaxSizeMB, log)
	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, log)

	log.Info("all dependencies initialized successfully")
	return deps, nil
}

// pumpCameraScans drains the capture loop into the resolver so camera
// readings land in the same pipeline as keyed and uploaded scans.
func pumpCameraScans(ctx context.Context, camera *capture.CameraSource, resolver *services.Resolver, log *slog.Logger) {
	for {
		scan, err := camera.Next(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, domain.ErrCaptureUnavailable) {
				log.Error("capture loop failed", slog.Any("error", err))
			}
			return
		}
		result, err := resolver.Resolve(ctx, scan.Raw, scan.Method)
		if err != nil {
			log.Warn("camera scan failed to resolve",
				slog.String("raw", scan.Raw), slog.Any("error", err))
			continue
		}
		log.Info("camera scan resolved",
			slog.String("code", result.Code.String()),
			slog.String("status", string(result.Status)))
	}
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, slogger *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps)

	// Middleware chain, innermost first.
	var handler http.Handler = mux

	handler = middleware.Timeout(cfg.Server.WriteTimeout)(handler)

	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}
	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}

	handler = middleware.Recovery(slogger.Logger)(handler)
	handler = middleware.Logger(slogger)(handler)
	handler = middleware.RequestID(handler)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies) {
	apiV1 := "/api/v1"

	// Health and readiness
	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)

	// Scan resolution
	mux.HandleFunc("POST "+apiV1+"/scan", deps.scanHandler.PostScan)
	mux.HandleFunc("POST "+apiV1+"/scan/image", deps.scanHandler.PostScanImage)

	// Catalog
	mux.HandleFunc("GET "+apiV1+"/products", deps.productHandler.ListProducts)
	mux.HandleFunc("POST "+apiV1+"/products", deps.productHandler.CreateProduct)
	mux.HandleFunc("GET "+apiV1+"/products/{id}", deps.productHandler.GetProduct)
	mux.HandleFunc("PUT "+apiV1+"/products/{id}", deps.productHandler.UpdateProduct)
	mux.HandleFunc("DELETE "+apiV1+"/products/{id}", deps.productHandler.DeleteProduct)
	mux.HandleFunc("POST "+apiV1+"/products/{id}/regenerate-code", deps.productHandler.RegenerateCode)
	mux.HandleFunc("POST "+apiV1+"/products/{id}/stock", deps.productHandler.AdjustStock)
	mux.HandleFunc("GET "+apiV1+"/categories", deps.productHandler.ListCategories)

	// Sales ledger
	mux.HandleFunc("POST "+apiV1+"/sales", deps.salesHandler.CreateSale)
	mux.HandleFunc("GET "+apiV1+"/sales", deps.salesHandler.ListSales)
	mux.HandleFunc("DELETE "+apiV1+"/sales/{id}", deps.salesHandler.DeleteSale)

	// Dashboard and export
	mux.HandleFunc("GET "+apiV1+"/dashboard", deps.dashboardHandler.GetDashboard)
	mux.HandleFunc("GET "+apiV1+"/export/xlsx", deps.exportHandler.ExportExcel)

	// Labels and imports
	mux.HandleFunc("POST "+apiV1+"/labels/generate", deps.labelsHandler.GenerateLabels)
	mux.HandleFunc("POST "+apiV1+"/labels/sheet", deps.labelsHandler.GenerateSheet)
	mux.HandleFunc("POST "+apiV1+"/import/delivery-note", deps.importHandler.ImportDeliveryNote)
}

func runMigrations(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL:    cfg.GetDatabaseURL(),
		EmbeddedSource: db.MigrationsFS,
		UseEmbedded:    true,
		TableName:      "schema_migrations",
		SchemaName:     "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, log, 3)
}
