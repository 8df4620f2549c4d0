// internal/core/ports/services.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
)

// StockService defines the application service port for stock mutation.
type StockService interface {
	StockIn(ctx context.Context, adj domain.StockAdjustment) (*domain.Movement, error)
	StockOut(ctx context.Context, adj domain.StockAdjustment) (*domain.Movement, error)
}

// LedgerService defines the read-side port over the movement ledger.
type LedgerService interface {
	ListMovements(ctx context.Context, params MovementListParams) (*MovementListResult, error)
	ListMovementsByProduct(ctx context.Context, productID uuid.UUID, params MovementListParams) (*MovementListResult, error)
	GetReport(ctx context.Context, params ReportParams) ([]domain.MovementSummary, error)
}

// ProductService defines the application service port for products.
type ProductService interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ProductListParams) ([]*domain.Product, int64, error)
	ListLowStock(ctx context.Context) ([]*domain.Product, error)
}

// MovementListParams holds parameters for listing ledger entries.
type MovementListParams struct {
	Type   domain.MovementType
	Search string
	Page   int
	Limit  int
}

// MovementListResult holds one page of ledger entries.
type MovementListResult struct {
	Items      []*domain.MovementWithProduct `json:"items"`
	Page       int                           `json:"page"`
	Limit      int                           `json:"limit"`
	TotalCount int64                         `json:"total_count"`
	TotalPages int                           `json:"total_pages"`
}

// ReportParams holds the optional date range for an aggregate report.
// EndDate is inclusive: the service extends it to the end of its day.
type ReportParams struct {
	StartDate *time.Time
	EndDate   *time.Time
}
