// cmd/seeder/main.go
//
// Seeds a demo catalog and sales history for local development and
// staging demos. Safe to re-run: products are matched by SKU and
// skipped when they already exist.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/monabeauty/pos-be/internal/adapters/db"
	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
	"github.com/monabeauty/pos-be/internal/core/services"
)

// seedProduct is one row of the demo catalog.
type seedProduct struct {
	sku       string
	name      string
	category  string
	cost      string
	price     string
	stock     int
	lowStock  int
	shortDesc string
}

var demoCatalog = []seedProduct{
	{"LIP-MATTE-0601", "Matte Lipstick Ruby", "Lips", "45.00", "120.00", 24, 5, "Long-wear matte finish, shade Ruby"},
	{"LIP-MATTE-0602", "Matte Lipstick Rosewood", "Lips", "45.00", "120.00", 18, 5, "Long-wear matte finish, shade Rosewood"},
	{"LIP-GLOSS-0610", "Plumping Lip Gloss Clear", "Lips", "32.00", "85.00", 30, 6, "High-shine plumping gloss"},
	{"LIP-LINER-0620", "Lip Liner Nude", "Lips", "18.00", "55.00", 40, 8, "Creamy retractable liner"},
	{"EYE-PAL-0701", "Eyeshadow Palette Desert Rose", "Eyes", "95.00", "260.00", 12, 3, "12-pan warm neutrals palette"},
	{"EYE-MASC-0710", "Volumizing Mascara Black", "Eyes", "38.00", "110.00", 36, 8, "Buildable volume, smudge resistant"},
	{"EYE-LINER-0720", "Liquid Eyeliner Jet", "Eyes", "28.00", "78.00", 28, 6, "Felt tip, waterproof"},
	{"EYE-BROW-0730", "Brow Pencil Taupe", "Eyes", "22.00", "65.00", 32, 6, "Micro tip with spoolie"},
	{"FCE-FOUND-0801", "Silk Foundation 120N", "Face", "85.00", "220.00", 15, 4, "Medium coverage, natural finish"},
	{"FCE-FOUND-0802", "Silk Foundation 240W", "Face", "85.00", "220.00", 14, 4, "Medium coverage, natural finish"},
	{"FCE-CONC-0810", "Brightening Concealer 110", "Face", "48.00", "130.00", 22, 5, "Full coverage under-eye concealer"},
	{"FCE-BLUSH-0820", "Cream Blush Peach", "Face", "42.00", "115.00", 20, 5, "Blendable cream-to-powder blush"},
	{"FCE-POWD-0830", "Translucent Setting Powder", "Face", "55.00", "150.00", 16, 4, "Finely milled loose powder"},
	{"SKN-SERUM-0901", "Hydrating Face Serum 30ml", "Skincare", "120.00", "310.00", 10, 3, "Hyaluronic acid and ceramides"},
	{"SKN-CLNS-0910", "Gentle Foam Cleanser 150ml", "Skincare", "38.00", "95.00", 26, 6, "pH balanced daily cleanser"},
	{"SKN-MOIST-0920", "Repair Night Cream 50ml", "Skincare", "88.00", "240.00", 12, 3, "Peptide rich overnight cream"},
	{"SKN-SPF-0930", "Daily Sunscreen SPF50 50ml", "Skincare", "52.00", "140.00", 30, 8, "Lightweight mineral sunscreen"},
	{"NLS-POLISH-1001", "Gel Polish Cherry", "Nails", "15.00", "48.00", 45, 10, "Salon grade gel polish"},
	{"NLS-POLISH-1002", "Gel Polish Pearl", "Nails", "15.00", "48.00", 42, 10, "Salon grade gel polish"},
	{"NLS-CARE-1010", "Cuticle Oil Pen", "Nails", "12.00", "38.00", 50, 10, "Jojoba and vitamin E"},
	{"FRG-EDP-1101", "Eau de Parfum Amber Oud 50ml", "Fragrance", "180.00", "480.00", 8, 2, "Warm amber and oud blend"},
	{"FRG-MIST-1110", "Body Mist Vanilla 200ml", "Fragrance", "35.00", "98.00", 24, 6, "Light everyday body mist"},
	{"ACC-BRUSH-1201", "Foundation Brush No.4", "Accessories", "28.00", "85.00", 20, 5, "Dense synthetic bristles"},
	{"ACC-SPONGE-1210", "Blending Sponge Duo", "Accessories", "14.00", "45.00", 35, 8, "Latex free blending sponges"},
	{"ACC-BAG-1220", "Cosmetic Bag Blush Pink", "Accessories", "22.00", "68.00", 18, 4, "Water resistant lined bag"},
}

func main() {
	var (
		salesDays  = flag.Int("sales-days", 30, "Spread demo sales over this many past days")
		salesCount = flag.Int("sales", 120, "Number of demo sales to record (0 to skip)")
		seed       = flag.Int64("seed", 0, "Random seed (0 uses current time)")
		logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun     = flag.Bool("dry-run", false, "Preview changes without modifying the database")
	)
	flag.Parse()

	var slogLevel slog.Level
	switch *logLevel {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
	slog.SetDefault(logger)

	if *dryRun {
		previewCatalog(logger)
		fmt.Println("\n[DRY RUN] No changes were made to the database")
		return
	}

	ctx := context.Background()

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              getEnv("DB_PORT", "5432"),
		User:              getEnv("DB_USER", "pos"),
		Password:          getEnv("DB_PASSWORD", "pos_dev_2026"),
		Database:          getEnv("DB_NAME", "pos_inventory"),
		SSLMode:           getEnv("DB_SSL_MODE", "disable"),
		MaxConnections:    4,
		MinConnections:    1,
		ConnectTimeout:    10 * time.Second,
		HealthCheckPeriod: time.Minute,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	randSeed := *seed
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(randSeed), uint64(randSeed>>1)))

	repo := db.NewProductRepository(database, logger)
	codegen := services.NewCodeGenerator(rand.NewPCG(uint64(randSeed), uint64(randSeed)), logger)
	dispatcher := services.NewDispatcher(repo, codegen, nil, logger)
	service := services.NewProductService(repo, dispatcher, logger)

	created, skipped, ids := seedCatalog(ctx, service, repo, logger)

	recorded := 0
	if *salesCount > 0 && len(ids) > 0 {
		recorded = seedSales(ctx, repo, rng, ids, *salesCount, *salesDays, logger)
	}

	fmt.Printf("\nSeeding complete: %d products created, %d already present, %d sales recorded\n",
		created, skipped, recorded)

	logger.Info("seed operation completed",
		slog.Int("products_created", created),
		slog.Int("products_skipped", skipped),
		slog.Int("sales_recorded", recorded))
}

func previewCatalog(logger *slog.Logger) {
	for _, sp := range demoCatalog {
		fmt.Printf("%-16s %-34s %-12s cost %8s  price %8s  stock %3d\n",
			sp.sku, sp.name, sp.category, sp.cost, sp.price, sp.stock)
	}
	logger.Info("dry run preview", slog.Int("products", len(demoCatalog)))
}

// seedCatalog creates the demo products. Barcodes are assigned by the
// dispatcher so every created product carries a generated 12-digit code.
func seedCatalog(ctx context.Context, service ports.ProductService, repo ports.ProductRepository, logger *slog.Logger) (created, skipped int, ids []uuid.UUID) {
	for _, sp := range demoCatalog {
		if existing, err := repo.FindBySKU(ctx, domain.Code(sp.sku)); err == nil && existing != nil {
			logger.Debug("product already seeded", slog.String("sku", sp.sku))
			ids = append(ids, existing.ID)
			skipped++
			continue
		}

		cost, err := decimal.NewFromString(sp.cost)
		if err != nil {
			logger.Error("invalid cost in demo catalog", slog.String("sku", sp.sku))
			continue
		}
		price, err := decimal.NewFromString(sp.price)
		if err != nil {
			logger.Error("invalid price in demo catalog", slog.String("sku", sp.sku))
			continue
		}

		product, err := service.Create(ctx, &domain.Product{
			SKU:          domain.Code(sp.sku),
			Name:         sp.name,
			Category:     sp.category,
			Description:  sp.shortDesc,
			CostPrice:    cost,
			SalePrice:    price,
			CurrentStock: sp.stock,
			LowStockAt:   sp.lowStock,
		})
		if err != nil {
			logger.Error("failed to create product",
				slog.String("sku", sp.sku),
				slog.String("error", err.Error()))
			continue
		}

		logger.Info("created product",
			slog.String("sku", sp.sku),
			slog.String("barcode", string(product.Barcode)))
		ids = append(ids, product.ID)
		created++
	}
	return created, skipped, ids
}

// seedSales records backdated sales spread over the past salesDays.
// Sales go through the repository directly so timestamps can be set;
// the service path only records sales at the current time.
func seedSales(ctx context.Context, repo ports.ProductRepository, rng *rand.Rand, ids []uuid.UUID, count, salesDays int, logger *slog.Logger) int {
	recorded := 0
	window := time.Duration(salesDays) * 24 * time.Hour

	for i := 0; i < count; i++ {
		id := ids[rng.IntN(len(ids))]
		qty := 1 + rng.IntN(3)
		at := time.Now().Add(-time.Duration(rng.Int64N(int64(window))))

		if _, err := repo.RecordSale(ctx, id, qty, nil, at); err != nil {
			// Demo stock runs out eventually; skip and keep going.
			logger.Debug("skipping demo sale",
				slog.String("product_id", id.String()),
				slog.String("error", err.Error()))
			continue
		}
		recorded++
	}
	return recorded
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
