// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"
)

// CatalogRow is one product row from the catalog workbook.
type CatalogRow struct {
	Name          string
	SKU           string
	Category      string
	Supplier      string
	Unit          string
	CostPrice     decimal.Decimal
	SellingPrice  decimal.Decimal
	MinStockLevel int
	InitialStock  int
}

// CatalogLoader parses the catalog workbook and seeds the database.
type CatalogLoader struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewCatalogLoader(db *pgxpool.Pool, logger *slog.Logger) *CatalogLoader {
	return &CatalogLoader{db: db, logger: logger}
}

// LoadRows reads product rows from the first sheet of the workbook.
// Expected columns: Name, SKU, Category, Supplier, Unit, CostPrice,
// SellingPrice, MinStockLevel, InitialStock.
func (l *CatalogLoader) LoadRows(path string) ([]CatalogRow, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in catalog file")
	}
	sheet := file.Sheets[0]

	var rows []CatalogRow
	rowIdx := 0
	err = sheet.ForEachRow(func(r *xlsx.Row) error {
		// Skip header
		if rowIdx == 0 {
			rowIdx++
			return nil
		}
		rowIdx++

		get := func(i int) string {
			c := r.GetCell(i)
			if c == nil {
				return ""
			}
			if s, err := c.FormattedValue(); err == nil {
				return strings.TrimSpace(s)
			}
			return strings.TrimSpace(c.String())
		}

		name := get(0)
		sku := get(1)
		if name == "" || sku == "" {
			return nil
		}

		costPrice, err := decimal.NewFromString(orZero(get(5)))
		if err != nil {
			l.logger.Warn("invalid cost price, skipping row",
				slog.String("sku", sku), slog.String("value", get(5)))
			return nil
		}
		sellingPrice, err := decimal.NewFromString(orZero(get(6)))
		if err != nil {
			l.logger.Warn("invalid selling price, skipping row",
				slog.String("sku", sku), slog.String("value", get(6)))
			return nil
		}
		minStock, _ := strconv.Atoi(orZero(get(7)))
		initialStock, _ := strconv.Atoi(orZero(get(8)))
		if minStock < 0 || initialStock < 0 {
			l.logger.Warn("negative stock values, skipping row", slog.String("sku", sku))
			return nil
		}

		unit := get(4)
		if unit == "" {
			unit = "pcs"
		}
		category := get(2)
		if category == "" {
			category = "Uncategorized"
		}

		rows = append(rows, CatalogRow{
			Name:          name,
			SKU:           sku,
			Category:      category,
			Supplier:      get(3),
			Unit:          unit,
			CostPrice:     costPrice,
			SellingPrice:  sellingPrice,
			MinStockLevel: minStock,
			InitialStock:  initialStock,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	l.logger.Info("loaded catalog rows", slog.Int("count", len(rows)))
	return rows, nil
}

// SeedCategories upserts the distinct category names and returns name -> id.
func (l *CatalogLoader) SeedCategories(ctx context.Context, rows []CatalogRow) (map[string]uuid.UUID, error) {
	names := distinct(rows, func(r CatalogRow) string { return r.Category })
	return l.seedNamedTable(ctx, "categories", names)
}

// SeedSuppliers upserts the distinct supplier names and returns name -> id.
// Rows without a supplier are simply absent from the map.
func (l *CatalogLoader) SeedSuppliers(ctx context.Context, rows []CatalogRow) (map[string]uuid.UUID, error) {
	names := distinct(rows, func(r CatalogRow) string { return r.Supplier })
	return l.seedNamedTable(ctx, "suppliers", names)
}

func (l *CatalogLoader) seedNamedTable(ctx context.Context, table string, names []string) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID, len(names))
	for _, name := range names {
		var id uuid.UUID
		// RETURNING only fires on insert, so fall back to a lookup on conflict
		err := l.db.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO %s (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, table), name).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert %s %q: %w", table, name, err)
		}
		ids[name] = id
	}
	l.logger.Info("seeded reference table",
		slog.String("table", table), slog.Int("count", len(ids)))
	return ids, nil
}

// SeedProducts batch-inserts products and an opening balance movement for
// every row that starts with stock on hand.
func (l *CatalogLoader) SeedProducts(ctx context.Context, rows []CatalogRow, categories, suppliers map[string]uuid.UUID) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	queued := 0

	for _, row := range rows {
		categoryID, ok := categories[row.Category]
		if !ok {
			l.logger.Warn("category missing, skipping product", slog.String("sku", row.SKU))
			continue
		}

		var supplierID *uuid.UUID
		if row.Supplier != "" {
			if id, ok := suppliers[row.Supplier]; ok {
				supplierID = &id
			}
		}

		productID := uuid.New()
		batch.Queue(`
			INSERT INTO products (
				id, name, sku, category_id, supplier_id, unit,
				cost_price, selling_price, min_stock_level, current_stock
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
			) ON CONFLICT (sku) DO NOTHING`,
			productID, row.Name, row.SKU, categoryID, supplierID, row.Unit,
			row.CostPrice, row.SellingPrice, row.MinStockLevel, row.InitialStock,
		)
		queued++

		// The ledger stays replayable when initial stock arrives as a
		// movement rather than a bare column value.
		if row.InitialStock > 0 {
			batch.Queue(`
				INSERT INTO stock_movements (
					product_id, type, quantity, remaining_stock,
					reason, performed_by
				) SELECT id, 'IN', $2, $2, 'opening balance', 'seeder'
				FROM products WHERE id = $1`,
				productID, row.InitialStock,
			)
			queued++
		}
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("failed to insert product batch: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.logger.Info("seeded products", slog.Int("count", len(rows)))
	return len(rows), nil
}

func distinct(rows []CatalogRow, key func(CatalogRow) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		k := key(row)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func main() {
	var (
		catalogFile = flag.String("catalog", "./catalog.xlsx", "Excel file with the product catalog")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun      = flag.Bool("dry-run", false, "Preview changes without modifying database")
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

	dbURL := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "stockledger"),
		getEnv("DB_PASSWORD", "stockledger_dev_2025"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "stockledger"),
		getEnv("DB_SSL_MODE", "disable"),
	)

	ctx := context.Background()

	var db *pgxpool.Pool
	var err error
	if !*dryRun {
		db, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close()
	}

	loader := NewCatalogLoader(db, logger)

	start := time.Now()
	rows, err := loader.LoadRows(*catalogFile)
	if err != nil {
		logger.Error("failed to load catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Println("No product rows found in catalog")
		return
	}

	if *dryRun {
		fmt.Printf("[DRY RUN] Would seed %d products across %d categories\n",
			len(rows), len(distinct(rows, func(r CatalogRow) string { return r.Category })))
		for _, row := range rows {
			fmt.Printf("  - %s (%s): %d on hand, reorder at %d\n",
				row.Name, row.SKU, row.InitialStock, row.MinStockLevel)
		}
		return
	}

	categories, err := loader.SeedCategories(ctx, rows)
	if err != nil {
		logger.Error("failed to seed categories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	suppliers, err := loader.SeedSuppliers(ctx, rows)
	if err != nil {
		logger.Error("failed to seed suppliers", slog.String("error", err.Error()))
		os.Exit(1)
	}

	count, err := loader.SeedProducts(ctx, rows, categories, suppliers)
	if err != nil {
		logger.Error("failed to seed products", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Products:   %d\n", count)
	fmt.Printf("Categories: %d\n", len(categories))
	fmt.Printf("Suppliers:  %d\n", len(suppliers))
	fmt.Printf("Elapsed:    %s\n", time.Since(start).Round(time.Millisecond))

	logger.Info("seed operation completed",
		slog.Int("products", count),
		slog.Duration("elapsed", time.Since(start)))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
