// internal/adapters/db/movement_repository.go
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

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
)

// movementRepository implements ports.MovementRepository
type movementRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *Database, logger *slog.Logger) ports.MovementRepository {
	return &movementRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "movement")),
	}
}

// RecordAdjustment applies a stock change and appends the ledger entry in
// one transaction. The product row is locked with FOR UPDATE so concurrent
// adjustments to the same product serialize; the sufficiency check runs
// under that lock.
func (r *movementRepository) RecordAdjustment(ctx context.Context, adj domain.StockAdjustment) (*domain.Movement, error) {
	movement := &domain.Movement{
		ID:          uuid.New(),
		ProductID:   adj.ProductID,
		Type:        adj.Type,
		Quantity:    adj.Quantity,
		Reason:      adj.Reason,
		ReferenceNo: adj.ReferenceNo,
		PerformedBy: adj.PerformedBy,
		Note:        adj.Note,
	}

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		var currentStock int
		err := tx.QueryRow(ctx,
			`SELECT current_stock FROM products WHERE id = $1 FOR UPDATE`,
			adj.ProductID,
		).Scan(&currentStock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &domain.NotFoundError{Resource: "product", ID: adj.ProductID.String()}
			}
			return fmt.Errorf("failed to lock product row: %w", err)
		}

		newStock := currentStock + adj.Delta()
		if newStock < 0 {
			return &domain.InsufficientStockError{
				ProductID: adj.ProductID.String(),
				Available: currentStock,
				Requested: adj.Quantity,
			}
		}

		_, err = tx.Exec(ctx,
			`UPDATE products SET current_stock = $2, updated_at = NOW() WHERE id = $1`,
			adj.ProductID, newStock,
		)
		if err != nil {
			return fmt.Errorf("failed to update product stock: %w", err)
		}

		movement.RemainingStock = newStock

		err = tx.QueryRow(ctx,
			`INSERT INTO stock_movements (
				id, product_id, type, quantity, remaining_stock,
				reason, reference_no, performed_by, note
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at`,
			movement.ID, movement.ProductID, movement.Type, movement.Quantity,
			movement.RemainingStock, movement.Reason,
			nullIfEmpty(movement.ReferenceNo), nullIfEmpty(movement.PerformedBy),
			nullIfEmpty(movement.Note),
		).Scan(&movement.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert stock movement: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "stock adjustment recorded",
		slog.String("movement_id", movement.ID.String()),
		slog.String("product_id", movement.ProductID.String()),
		slog.String("type", string(movement.Type)),
		slog.Int("quantity", movement.Quantity),
		slog.Int("remaining_stock", movement.RemainingStock))

	return movement, nil
}

// movementSelect builds the base select joining each movement to its product.
func movementSelect() squirrel.SelectBuilder {
	return squirrel.Select(
		"m.id", "m.product_id", "m.type", "m.quantity", "m.remaining_stock",
		"m.reason", "m.reference_no", "m.performed_by", "m.note", "m.created_at",
		"p.name", "p.sku", "p.current_stock",
	).From("stock_movements m").
		Join("products p ON p.id = m.product_id").
		PlaceholderFormat(squirrel.Dollar)
}

// applyMovementFilters adds the type and keyword filters to a builder.
// The keyword matches the product name, reason, operator or reference,
// case-insensitively.
func applyMovementFilters(qb squirrel.SelectBuilder, params ports.MovementQueryParams) squirrel.SelectBuilder {
	if params.Type != "" {
		qb = qb.Where(squirrel.Eq{"m.type": params.Type})
	}
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"p.name": pattern},
			squirrel.ILike{"m.reason": pattern},
			squirrel.ILike{"m.performed_by": pattern},
			squirrel.ILike{"m.reference_no": pattern},
		})
	}
	return qb
}

// FindAll retrieves ledger entries with filtering and pagination,
// newest first.
func (r *movementRepository) FindAll(ctx context.Context, params ports.MovementQueryParams) ([]*domain.MovementWithProduct, int64, error) {
	countQb := squirrel.Select("COUNT(*)").
		From("stock_movements m").
		Join("products p ON p.id = m.product_id").
		PlaceholderFormat(squirrel.Dollar)
	countQb = applyMovementFilters(countQb, params)

	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	qb := applyMovementFilters(movementSelect(), params).
		OrderBy("m.created_at DESC")
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
		return nil, 0, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	movements, err := scanMovements(rows)
	if err != nil {
		return nil, 0, err
	}

	return movements, totalCount, nil
}

// FindByProduct retrieves the ledger entries of one product, newest first.
func (r *movementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*domain.MovementWithProduct, int64, error) {
	totalCount, err := r.CountByProduct(ctx, productID)
	if err != nil {
		return nil, 0, err
	}

	qb := movementSelect().
		Where(squirrel.Eq{"m.product_id": productID}).
		OrderBy("m.created_at DESC")
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}
	if offset > 0 {
		qb = qb.Offset(uint64(offset))
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	movements, err := scanMovements(rows)
	if err != nil {
		return nil, 0, err
	}

	return movements, totalCount, nil
}

// Report aggregates movement quantity and count per type, optionally
// bounded by an inclusive time range.
func (r *movementRepository) Report(ctx context.Context, start, end *time.Time) ([]domain.MovementSummary, error) {
	qb := squirrel.Select(
		"type",
		"COALESCE(SUM(quantity), 0) AS total_quantity",
		"COUNT(*) AS count",
	).From("stock_movements").
		GroupBy("type").
		OrderBy("type ASC").
		PlaceholderFormat(squirrel.Dollar)

	if start != nil {
		qb = qb.Where(squirrel.GtOrEq{"created_at": *start})
	}
	if end != nil {
		qb = qb.Where(squirrel.LtOrEq{"created_at": *end})
	}

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build report query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.MovementSummary, 0, 2)
	for rows.Next() {
		var s domain.MovementSummary
		if err := rows.Scan(&s.Type, &s.TotalQuantity, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return summaries, nil
}

// CountByProduct returns the number of ledger entries for a product
func (r *movementRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM stock_movements WHERE product_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, productID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count movements: %w", err)
	}

	return count, nil
}

// scanMovements scans joined movement rows
func scanMovements(rows pgx.Rows) ([]*domain.MovementWithProduct, error) {
	var movements []*domain.MovementWithProduct
	for rows.Next() {
		m := &domain.MovementWithProduct{}
		var referenceNo, performedBy, note sql.NullString

		err := rows.Scan(
			&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.RemainingStock,
			&m.Reason, &referenceNo, &performedBy, &note, &m.CreatedAt,
			&m.Product.Name, &m.Product.SKU, &m.Product.CurrentStock,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}

		m.Product.ID = m.ProductID
		m.ReferenceNo = referenceNo.String
		m.PerformedBy = performedBy.String
		m.Note = note.String

		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return movements, nil
}

// nullIfEmpty maps empty strings to SQL NULL
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
