// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
)

const productColumns = `id, name, sku, category_id, unit, cost_price, selling_price,
	min_stock_level, current_stock, supplier_id, created_at, updated_at`

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
func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (
			id, name, sku, category_id, unit, cost_price, selling_price,
			min_stock_level, current_stock, supplier_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		product.ID, product.Name, product.SKU, product.CategoryID, product.Unit,
		product.CostPrice, product.SellingPrice, product.MinStockLevel,
		product.CurrentStock, product.SupplierID, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ValidationError{Field: "sku", Message: fmt.Sprintf("sku already exists: %s", product.SKU)}
		}
		return fmt.Errorf("failed to save product: %w", err)
	}

	r.logger.DebugContext(ctx, "product saved",
		slog.String("id", product.ID.String()),
		slog.String("sku", product.SKU))

	return nil
}

// Update updates a product's descriptive fields. The current_stock column
// is deliberately absent: it changes only through the movement ledger.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products SET
			name = $2, sku = $3, category_id = $4, unit = $5,
			cost_price = $6, selling_price = $7, min_stock_level = $8,
			supplier_id = $9, updated_at = $10
		WHERE id = $1
		RETURNING current_stock, updated_at`

	product.UpdatedAt = time.Now()

	err := r.db.QueryRow(ctx, query,
		product.ID, product.Name, product.SKU, product.CategoryID, product.Unit,
		product.CostPrice, product.SellingPrice, product.MinStockLevel,
		product.SupplierID, product.UpdatedAt,
	).Scan(&product.CurrentStock, &product.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.NotFoundError{Resource: "product", ID: product.ID.String()}
		}
		if isUniqueViolation(err) {
			return &domain.ValidationError{Field: "sku", Message: fmt.Sprintf("sku already exists: %s", product.SKU)}
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	r.logger.DebugContext(ctx, "product updated",
		slog.String("id", product.ID.String()))

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

// FindBySKU retrieves a product by its SKU
func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`

	product, err := scanProduct(r.db.QueryRow(ctx, query, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product by sku: %w", err)
	}

	return product, nil
}

// FindAll retrieves products with filtering and pagination
func (r *productRepository) FindAll(ctx context.Context, params ports.ProductListParams) ([]*domain.Product, int64, error) {
	qb := squirrel.Select(
		"id", "name", "sku", "category_id", "unit", "cost_price", "selling_price",
		"min_stock_level", "current_stock", "supplier_id", "created_at", "updated_at",
	).From("products").
		PlaceholderFormat(squirrel.Dollar)

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
		})
	}
	if params.CategoryID != uuid.Nil {
		qb = qb.Where(squirrel.Eq{"category_id": params.CategoryID})
	}
	if params.SupplierID != uuid.Nil {
		qb = qb.Where(squirrel.Eq{"supplier_id": params.SupplierID})
	}

	// Count total items (before pagination)
	countQb := squirrel.Select("COUNT(*)").From("products").
		PlaceholderFormat(squirrel.Dollar)
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		countQb = countQb.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
		})
	}
	if params.CategoryID != uuid.Nil {
		countQb = countQb.Where(squirrel.Eq{"category_id": params.CategoryID})
	}
	if params.SupplierID != uuid.Nil {
		countQb = countQb.Where(squirrel.Eq{"supplier_id": params.SupplierID})
	}

	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	qb = qb.OrderBy("created_at DESC")
	if params.Limit > 0 {
		qb = qb.Limit(uint64(params.Limit))
	}
	if params.Offset > 0 {
		qb = qb.Offset(uint64(params.Offset))
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, totalCount, nil
}

// FindLowStock returns products at or below their minimum stock level
func (r *productRepository) FindLowStock(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE current_stock <= min_stock_level
		ORDER BY current_stock ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// Delete performs a hard delete
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "product", ID: id.String()}
	}

	r.logger.InfoContext(ctx, "product deleted",
		slog.String("id", id.String()))

	return nil
}

// Exists checks if a product exists
func (r *productRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`

	var exists bool
	err := r.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return exists, nil
}

// scanProduct scans a product row. Works for both pgx.Row and pgx.Rows.
func scanProduct(row pgx.Row) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID, &product.Name, &product.SKU, &product.CategoryID, &product.Unit,
		&product.CostPrice, &product.SellingPrice, &product.MinStockLevel,
		&product.CurrentStock, &product.SupplierID, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
