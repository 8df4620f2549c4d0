// internal/core/services/stock.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
	"github.com/panuwatk/stockledger-be/internal/workers"
)

const (
	// maxAdjustAttempts bounds the retry loop on transient transaction
	// failures. The caller sees a ConflictError once it is exhausted.
	maxAdjustAttempts = 3

	retryBaseDelay = 25 * time.Millisecond
)

// TaskEnqueuer is the subset of asynq.Client used by the stock service
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// StockService handles stock mutation business logic
type StockService struct {
	movements   ports.MovementRepository
	products    ports.ProductRepository
	tasks       TaskEnqueuer
	invalidator ports.CacheInvalidator
	logger      *slog.Logger
}

// Statically assert that *StockService implements the StockService interface.
var _ ports.StockService = (*StockService)(nil)

// NewStockService creates a new stock service. The invalidator may be nil
// when no cache sits in front of the read side.
func NewStockService(movements ports.MovementRepository, products ports.ProductRepository, tasks TaskEnqueuer, invalidator ports.CacheInvalidator, logger *slog.Logger) *StockService {
	return &StockService{
		movements:   movements,
		products:    products,
		tasks:       tasks,
		invalidator: invalidator,
		logger:      logger.With(slog.String("service", "stock")),
	}
}

// StockIn records an inbound stock movement
func (s *StockService) StockIn(ctx context.Context, adj domain.StockAdjustment) (*domain.Movement, error) {
	adj.Type = domain.MovementIn
	return s.adjust(ctx, adj)
}

// StockOut records an outbound stock movement
func (s *StockService) StockOut(ctx context.Context, adj domain.StockAdjustment) (*domain.Movement, error) {
	adj.Type = domain.MovementOut
	movement, err := s.adjust(ctx, adj)
	if err != nil {
		return nil, err
	}

	s.maybeAlertLowStock(ctx, movement)

	return movement, nil
}

// adjust validates the request and applies it with bounded retries.
// Validation runs before any storage access so malformed requests never
// reach the database.
func (s *StockService) adjust(ctx context.Context, adj domain.StockAdjustment) (*domain.Movement, error) {
	if err := adj.Validate(); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAdjustAttempts; attempt++ {
		movement, err := s.movements.RecordAdjustment(ctx, adj)
		if err == nil {
			if s.invalidator != nil {
				s.invalidator.AfterAdjustment(ctx, adj.ProductID.String())
			}
			s.logger.InfoContext(ctx, "stock adjusted",
				slog.String("product_id", adj.ProductID.String()),
				slog.String("type", string(adj.Type)),
				slog.Int("quantity", adj.Quantity),
				slog.Int("remaining_stock", movement.RemainingStock),
				slog.Int("attempt", attempt))
			return movement, nil
		}

		if !isRetryableTxError(err) {
			return nil, err
		}

		lastErr = err
		s.logger.WarnContext(ctx, "stock adjustment conflicted, retrying",
			slog.String("product_id", adj.ProductID.String()),
			slog.Int("attempt", attempt),
			"err", err)

		if attempt < maxAdjustAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay(attempt)):
			}
		}
	}

	return nil, &domain.ConflictError{
		Message: fmt.Sprintf("stock adjustment for product %s failed after %d attempts: %v",
			adj.ProductID, maxAdjustAttempts, lastErr),
	}
}

// maybeAlertLowStock enqueues a low stock alert when the product dropped
// to or below its minimum level. Best effort: a broken queue never fails
// the adjustment that already committed.
func (s *StockService) maybeAlertLowStock(ctx context.Context, movement *domain.Movement) {
	product, err := s.products.FindByID(ctx, movement.ProductID)
	if err != nil || product == nil {
		return
	}
	if !product.IsLowStock() {
		return
	}

	task, err := workers.NewLowStockAlertTask(product.ID, product.Name, product.SKU,
		movement.RemainingStock, product.MinStockLevel)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to build low stock task", "err", err)
		return
	}

	if _, err := s.tasks.Enqueue(task, asynq.Queue(workers.QueueDefault)); err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue low stock alert",
			slog.String("product_id", product.ID.String()),
			"err", err)
		return
	}

	s.logger.InfoContext(ctx, "low stock alert enqueued",
		slog.String("product_id", product.ID.String()),
		slog.Int("current_stock", movement.RemainingStock),
		slog.Int("min_stock_level", product.MinStockLevel))
}

// isRetryableTxError reports whether the error is a transient transaction
// failure: a serialization failure (40001) or a deadlock (40P01).
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// retryDelay returns a jittered backoff for the given attempt
func retryDelay(attempt int) time.Duration {
	base := retryBaseDelay * time.Duration(attempt)
	jitter := time.Duration(rand.Int63n(int64(retryBaseDelay)))
	return base + jitter
}
