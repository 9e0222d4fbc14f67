// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
)

const uniqueViolation = "23505"

const productColumns = `
	id, sku, barcode, name, category, description,
	cost_price, sale_price, current_stock, low_stock_at,
	created_at, updated_at, deleted_at`

// productRepository implements ports.ProductRepository
type productRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *Database, logger *slog.Logger) ports.ProductRepository {
	return &productRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "product")),
	}
}

// Save creates a new product
func (r *productRepository) Save(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (
			id, sku, barcode, name, category, description,
			cost_price, sale_price, current_stock, low_stock_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.SKU, p.Barcode, p.Name, nullString(p.Category), nullString(p.Description),
		p.CostPrice, p.SalePrice, p.CurrentStock, p.LowStockAt,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("code already assigned: %w", domain.ErrDuplicateCode)
		}
		return fmt.Errorf("failed to save product: %w", err)
	}

	r.logger.DebugContext(ctx, "product saved",
		slog.String("id", p.ID.String()),
		slog.String("sku", string(p.SKU)))

	return nil
}

// Update updates an existing product
func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products SET
			sku = $2, barcode = $3, name = $4, category = $5, description = $6,
			cost_price = $7, sale_price = $8, current_stock = $9,
			low_stock_at = $10, updated_at = $11
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	p.UpdatedAt = time.Now()

	err := r.db.QueryRow(ctx, query,
		p.ID, p.SKU, p.Barcode, p.Name, nullString(p.Category), nullString(p.Description),
		p.CostPrice, p.SalePrice, p.CurrentStock, p.LowStockAt, p.UpdatedAt,
	).Scan(&p.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %s: %w", p.ID, domain.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("code already assigned: %w", domain.ErrDuplicateCode)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE id = $1 AND deleted_at IS NULL`

	p, err := scanProductRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return p, nil
}

// FindByBarcode retrieves a product by its barcode
func (r *productRepository) FindByBarcode(ctx context.Context, code domain.Code) (*domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE barcode = $1 AND deleted_at IS NULL`

	p, err := scanProductRow(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product by barcode: %w", err)
	}
	return p, nil
}

// FindBySKU retrieves a product by SKU, exact match first then
// case-insensitive.
func (r *productRepository) FindBySKU(ctx context.Context, code domain.Code) (*domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE sku = $1 AND deleted_at IS NULL`

	p, err := scanProductRow(r.db.QueryRow(ctx, query, code))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to find product by sku: %w", err)
	}

	query = `SELECT ` + productColumns + `
		FROM products
		WHERE LOWER(sku) = LOWER($1) AND deleted_at IS NULL
		LIMIT 1`

	p, err = scanProductRow(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product by sku: %w", err)
	}
	return p, nil
}

// FindAll retrieves products with filtering and pagination
func (r *productRepository) FindAll(ctx context.Context, params ports.ListParams) (*ports.ListResult, error) {
	qb := squirrel.Select(
		"id", "sku", "barcode", "name", "category", "description",
		"cost_price", "sale_price", "current_stock", "low_stock_at",
		"created_at", "updated_at", "deleted_at",
	).From("products").
		PlaceholderFormat(squirrel.Dollar)

	if !params.IncludeDeleted {
		qb = qb.Where("deleted_at IS NULL")
	}
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"barcode": pattern},
		})
	}
	if params.Category != "" {
		qb = qb.Where(squirrel.Eq{"category": params.Category})
	}
	if params.LowStockOnly {
		qb = qb.Where("current_stock <= low_stock_at")
	}

	// Count before pagination
	countQb := qb.Column("COUNT(*) OVER()").Limit(1)
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	row := r.db.QueryRow(ctx, countSQL, countArgs...)
	if _, err := scanProductRowWithCount(row, &totalCount); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	orderBy := "created_at DESC"
	if params.SortBy != "" {
		direction := "ASC"
		if params.SortOrder == "desc" {
			direction = "DESC"
		}

		switch params.SortBy {
		case "name":
			orderBy = fmt.Sprintf("name %s", direction)
		case "sku":
			orderBy = fmt.Sprintf("sku %s", direction)
		case "stock":
			orderBy = fmt.Sprintf("current_stock %s", direction)
		case "price":
			orderBy = fmt.Sprintf("sale_price %s", direction)
		case "updated":
			orderBy = fmt.Sprintf("updated_at %s", direction)
		default:
			orderBy = fmt.Sprintf("created_at %s", direction)
		}
	}
	qb = qb.OrderBy(orderBy)

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	qb = qb.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := ScanMany(rows, scanProductRows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	return &ports.ListResult{
		Products:   products,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// ListCodes returns every assigned SKU and barcode, soft-deleted rows
// included, so the generator never reissues a code.
func (r *productRepository) ListCodes(ctx context.Context) (domain.CodeSet, error) {
	query := `SELECT sku, barcode FROM products`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list codes: %w", err)
	}
	defer rows.Close()

	codes := make(domain.CodeSet)
	for rows.Next() {
		var sku, barcode domain.Code
		if err := rows.Scan(&sku, &barcode); err != nil {
			return nil, fmt.Errorf("failed to scan codes: %w", err)
		}
		codes[sku] = struct{}{}
		codes[barcode] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating codes: %w", err)
	}

	return codes, nil
}

// Categories returns distinct category names in use
func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category FROM products
		WHERE category IS NOT NULL AND category != '' AND deleted_at IS NULL
		ORDER BY category ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Count returns the number of active products
func (r *productRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM products WHERE deleted_at IS NULL`

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return count, nil
}

// AdjustStock applies delta to current stock. The non-negative guard
// lives in the statement itself so concurrent adjustments cannot race
// stock below zero.
func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	query := `
		UPDATE products
		SET current_stock = current_stock + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND current_stock + $2 >= 0
		RETURNING ` + productColumns

	p, err := scanProductRow(r.db.QueryRow(ctx, query, id, delta))
	if err == nil {
		r.logger.DebugContext(ctx, "stock adjusted",
			slog.String("id", id.String()),
			slog.Int("delta", delta),
			slog.Int("current_stock", p.CurrentStock))
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	// Distinguish a missing product from a guard rejection
	exists, err := r.db.Exists(ctx, "SELECT 1 FROM products WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil, fmt.Errorf("adjust by %d: %w", delta, domain.ErrInsufficientStock)
}

// RecordSale checks stock, writes the sale line and decrements stock in
// one transaction.
func (r *productRepository) RecordSale(ctx context.Context, productID uuid.UUID, qty int, unitPrice *decimal.Decimal, at time.Time) (*domain.Sale, error) {
	var sale *domain.Sale

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + productColumns + `
			FROM products
			WHERE id = $1 AND deleted_at IS NULL
			FOR UPDATE`

		p, err := scanProductRow(tx.QueryRow(ctx, query, productID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		if p.CurrentStock < qty {
			return fmt.Errorf("have %d, need %d: %w", p.CurrentStock, qty, domain.ErrInsufficientStock)
		}

		sale, err = domain.NewSale(p, qty, unitPrice, at)
		if err != nil {
			return err
		}

		insert := `
			INSERT INTO sales (
				id, product_id, sku, product_name, quantity,
				unit_price, revenue, profit, sold_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

		if _, err := tx.Exec(ctx, insert,
			sale.ID, sale.ProductID, sale.SKU, sale.Name, sale.Quantity,
			sale.UnitPrice, sale.Revenue, sale.Profit, sale.SoldAt,
		); err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}

		update := `
			UPDATE products
			SET current_stock = current_stock - $2, updated_at = NOW()
			WHERE id = $1`

		if _, err := tx.Exec(ctx, update, productID, qty); err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "sale recorded",
		slog.String("sale_id", sale.ID.String()),
		slog.String("product_id", productID.String()),
		slog.Int("quantity", qty))

	return sale, nil
}

// DeleteSale removes a sale line and restores its quantity to stock
func (r *productRepository) DeleteSale(ctx context.Context, saleID uuid.UUID) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var productID uuid.UUID
		var qty int

		query := `DELETE FROM sales WHERE id = $1 RETURNING product_id, quantity`
		if err := tx.QueryRow(ctx, query, saleID).Scan(&productID, &qty); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("sale %s: %w", saleID, domain.ErrNotFound)
			}
			return fmt.Errorf("failed to delete sale: %w", err)
		}

		restore := `
			UPDATE products
			SET current_stock = current_stock + $2, updated_at = NOW()
			WHERE id = $1`

		if _, err := tx.Exec(ctx, restore, productID, qty); err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}

		r.logger.InfoContext(ctx, "sale deleted, stock restored",
			slog.String("sale_id", saleID.String()),
			slog.String("product_id", productID.String()),
			slog.Int("quantity", qty))

		return nil
	})
}

// ListSales retrieves the sales ledger with filtering and pagination
func (r *productRepository) ListSales(ctx context.Context, params ports.SalesParams) (*ports.SalesResult, error) {
	qb := squirrel.Select(
		"id", "product_id", "sku", "product_name", "quantity",
		"unit_price", "revenue", "profit", "sold_at",
		"COUNT(*) OVER()",
	).From("sales").
		PlaceholderFormat(squirrel.Dollar)

	if params.ProductID != uuid.Nil {
		qb = qb.Where(squirrel.Eq{"product_id": params.ProductID})
	}
	if !params.From.IsZero() {
		qb = qb.Where(squirrel.GtOrEq{"sold_at": params.From})
	}
	if !params.To.IsZero() {
		qb = qb.Where(squirrel.LtOrEq{"sold_at": params.To})
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	qb = qb.OrderBy("sold_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sales query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []*domain.Sale
	var totalCount int64
	for rows.Next() {
		s := &domain.Sale{}
		if err := rows.Scan(
			&s.ID, &s.ProductID, &s.SKU, &s.Name, &s.Quantity,
			&s.UnitPrice, &s.Revenue, &s.Profit, &s.SoldAt,
			&totalCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	return &ports.SalesResult{
		Sales:      sales,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}, nil
}

// HasSales reports whether any sale line references the product
func (r *productRepository) HasSales(ctx context.Context, productID uuid.UUID) (bool, error) {
	exists, err := r.db.Exists(ctx, "SELECT 1 FROM sales WHERE product_id = $1", productID)
	if err != nil {
		return false, fmt.Errorf("failed to check sales: %w", err)
	}
	return exists, nil
}

// SoftDelete marks a product as deleted
func (r *productRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE products SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	now := time.Now()
	tag, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("failed to soft delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}

	r.logger.InfoContext(ctx, "product soft deleted",
		slog.String("id", id.String()))

	return nil
}

// Delete permanently removes a product. Products with recorded sales
// refuse hard deletion so the ledger keeps its referent.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	hasSales, err := r.HasSales(ctx, id)
	if err != nil {
		return err
	}
	if hasSales {
		return fmt.Errorf("product %s has recorded sales, use soft delete", id)
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}

	r.logger.InfoContext(ctx, "product deleted",
		slog.String("id", id.String()))

	return nil
}

// LowStock returns active products at or below their threshold
func (r *productRepository) LowStock(ctx context.Context, limit int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + productColumns + `
		FROM products
		WHERE deleted_at IS NULL AND current_stock <= low_stock_at
		ORDER BY current_stock ASC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}

	return ScanMany(rows, scanProductRows)
}

// SalesSummary aggregates the ledger since the given time
func (r *productRepository) SalesSummary(ctx context.Context, since time.Time) (*ports.SalesSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(quantity), 0),
			COALESCE(SUM(revenue), 0),
			COALESCE(SUM(profit), 0)
		FROM sales
		WHERE sold_at >= $1`

	summary := &ports.SalesSummary{}
	err := r.db.QueryRow(ctx, query, since).Scan(
		&summary.TotalSales,
		&summary.UnitsSold,
		&summary.TotalRevenue,
		&summary.TotalProfit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize sales: %w", err)
	}

	return summary, nil
}

// TopSellers ranks products by units sold since the given time
func (r *productRepository) TopSellers(ctx context.Context, since time.Time, limit int) ([]ports.TopSeller, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			product_id,
			product_name,
			sku,
			SUM(quantity) AS units,
			SUM(revenue) AS revenue
		FROM sales
		WHERE sold_at >= $1
		GROUP BY product_id, product_name, sku
		ORDER BY units DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top sellers: %w", err)
	}
	defer rows.Close()

	var sellers []ports.TopSeller
	for rows.Next() {
		var s ports.TopSeller
		if err := rows.Scan(&s.ProductID, &s.Name, &s.SKU, &s.UnitsSold, &s.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan top seller: %w", err)
		}
		sellers = append(sellers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top sellers: %w", err)
	}

	return sellers, nil
}

// CategoryPerformance aggregates sales per product category
func (r *productRepository) CategoryPerformance(ctx context.Context, since time.Time) ([]ports.CategoryStat, error) {
	query := `
		SELECT
			COALESCE(p.category, 'uncategorized') AS category,
			COUNT(DISTINCT p.id),
			COALESCE(SUM(s.revenue), 0),
			COALESCE(SUM(s.profit), 0)
		FROM products p
		LEFT JOIN sales s ON s.product_id = p.id AND s.sold_at >= $1
		WHERE p.deleted_at IS NULL
		GROUP BY COALESCE(p.category, 'uncategorized')
		ORDER BY SUM(s.revenue) DESC NULLS LAST`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query category performance: %w", err)
	}
	defer rows.Close()

	var stats []ports.CategoryStat
	for rows.Next() {
		var s ports.CategoryStat
		if err := rows.Scan(&s.Category, &s.Products, &s.Revenue, &s.Profit); err != nil {
			return nil, fmt.Errorf("failed to scan category stat: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category stats: %w", err)
	}

	return stats, nil
}

// Scanning helpers

func scanProduct(scan func(dest ...any) error) (*domain.Product, error) {
	p := &domain.Product{}
	var category, description sql.NullString
	var deletedAt sql.NullTime

	err := scan(
		&p.ID, &p.SKU, &p.Barcode, &p.Name, &category, &description,
		&p.CostPrice, &p.SalePrice, &p.CurrentStock, &p.LowStockAt,
		&p.CreatedAt, &p.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Category = category.String
	p.Description = description.String
	if deletedAt.Valid {
		t := deletedAt.Time
		p.DeletedAt = &t
	}

	return p, nil
}

func scanProductRow(row pgx.Row) (*domain.Product, error) {
	return scanProduct(row.Scan)
}

func scanProductRows(rows pgx.Rows) (*domain.Product, error) {
	return scanProduct(rows.Scan)
}

func scanProductRowWithCount(row pgx.Row, count *int64) (*domain.Product, error) {
	p := &domain.Product{}
	var category, description sql.NullString
	var deletedAt sql.NullTime

	err := row.Scan(
		&p.ID, &p.SKU, &p.Barcode, &p.Name, &category, &description,
		&p.CostPrice, &p.SalePrice, &p.CurrentStock, &p.LowStockAt,
		&p.CreatedAt, &p.UpdatedAt, &deletedAt,
		count,
	)
	if err != nil {
		return nil, err
	}

	p.Category = category.String
	p.Description = description.String
	if deletedAt.Valid {
		t := deletedAt.Time
		p.DeletedAt = &t
	}

	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
