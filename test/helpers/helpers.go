// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/monabeauty/pos-be/internal/adapters/db"
	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_catalog",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_catalog",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		StatementCacheMode: "describe",
		EnableQueryLogging: testing.Verbose(),
	}

	// Wait for database to be ready
	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")

	ctx := context.Background()
	migrationConfig := &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
			dbConfig.Database, dbConfig.SSLMode),
		EmbeddedSource: db.MigrationsFS,
		UseEmbedded:    true,
		TableName:      "schema_migrations",
		SchemaName:     "public",
	}

	err = db.RunMigrationsWithRetry(ctx, migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates a mock Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_catalog",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Capture: config.CaptureConfig{
			FrameRate:      30,
			DecodeEvery:    10,
			DebounceWindow: 1500 * time.Millisecond,
			FrameWidth:     640,
			FrameHeight:    480,
		},
		Labels: config.LabelsConfig{
			BrandName:   "Test Store",
			WidthPx:     400,
			HeightPx:    180,
			StoragePath: "labels",
		},
		Uploads: config.UploadsConfig{
			ImageMaxSizeMB:    10,
			PDFMaxSizeMB:      50,
			ProcessingTimeout: 5 * time.Minute,
			TempDir:           "/tmp",
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// CreateTestProduct creates a test product
func CreateTestProduct(overrides ...func(*domain.Product)) *domain.Product {
	p := &domain.Product{
		ID:           uuid.New(),
		SKU:          domain.Code(fmt.Sprintf("LIP-MATTE%04d-0601", time.Now().UnixNano()%10000)),
		Barcode:      domain.Code(fmt.Sprintf("%012d", time.Now().UnixNano()%1_000_000_000_000)),
		Name:         "Matte Lipstick Ruby",
		Category:     "Lips",
		Description:  "Long-wear matte lipstick, ruby red",
		CostPrice:    decimal.NewFromFloat(45.00),
		SalePrice:    decimal.NewFromFloat(120.00),
		CurrentStock: 10,
		LowStockAt:   domain.DefaultLowStockThreshold,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	for _, override := range overrides {
		override(p)
	}

	return p
}

// CreateTestProducts creates multiple distinct test products
func CreateTestProducts(count int) []*domain.Product {
	categories := []string{"Lips", "Eyes", "Face", "Nails", "Skincare"}

	products := make([]*domain.Product, count)
	for i := 0; i < count; i++ {
		idx := i
		products[i] = CreateTestProduct(func(p *domain.Product) {
			p.Name = fmt.Sprintf("Test Product %02d", idx)
			p.SKU = domain.Code(fmt.Sprintf("TST-PRODUCT%02d-0601", idx))
			p.Barcode = domain.Code(fmt.Sprintf("%012d", 100_000_000_000+int64(idx)))
			p.Category = categories[idx%len(categories)]
			p.SalePrice = decimal.NewFromFloat(float64(50 + idx*10))
		})
	}

	return products
}

// LoadFixture loads a test fixture file
func LoadFixture(t *testing.T, filename string) []byte {
	t.Helper()

	path := fmt.Sprintf("../../test/fixtures/%s", filename)
	data, err := os.ReadFile(path)
	require.NoError(t, err, "Failed to load fixture: %s", filename)

	return data
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	tables := []string{
		"sales",
		"products",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}

// SeedTestData seeds the database with test products
func SeedTestData(t *testing.T, db *pgxpool.Pool, products []*domain.Product) {
	t.Helper()

	ctx := context.Background()

	for _, p := range products {
		query := `
			INSERT INTO products (
				id, sku, barcode, name, category, description,
				cost_price, sale_price, current_stock, low_stock_at,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`

		_, err := db.Exec(ctx, query,
			p.ID, p.SKU, p.Barcode, p.Name, p.Category, p.Description,
			p.CostPrice, p.SalePrice, p.CurrentStock, p.LowStockAt,
			p.CreatedAt, p.UpdatedAt,
		)
		require.NoError(t, err, "Failed to seed test data")
	}
}

// CreateTempFile creates a temporary file for testing
func CreateTempFile(t *testing.T, content []byte, extension string) string {
	t.Helper()

	file, err := os.CreateTemp("", fmt.Sprintf("test-*%s", extension))
	require.NoError(t, err, "Failed to create temp file")

	_, err = file.Write(content)
	require.NoError(t, err, "Failed to write to temp file")

	file.Close()

	t.Cleanup(func() {
		os.Remove(file.Name())
	})

	return file.Name()
}
