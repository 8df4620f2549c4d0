// internal/core/ports/repositories.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
)

// ProductRepository defines the persistence port for products.
// Implementations must never let a generic update touch current_stock;
// that column belongs to MovementRepository.RecordAdjustment.
type ProductRepository interface {
	Save(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	FindAll(ctx context.Context, params ProductListParams) ([]*domain.Product, int64, error)
	FindLowStock(ctx context.Context) ([]*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// MovementRepository defines the persistence port for the stock ledger.
// The ledger is append-only: there are no update or delete operations.
type MovementRepository interface {
	// RecordAdjustment applies one stock change and appends the matching
	// ledger entry as a single atomic unit. It returns the created
	// movement with its remaining-stock snapshot, or a domain error
	// (NotFoundError, InsufficientStockError, ConflictError) without any
	// partial write.
	RecordAdjustment(ctx context.Context, adj domain.StockAdjustment) (*domain.Movement, error)

	FindAll(ctx context.Context, params MovementQueryParams) ([]*domain.MovementWithProduct, int64, error)
	FindByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]*domain.MovementWithProduct, int64, error)
	Report(ctx context.Context, start, end *time.Time) ([]domain.MovementSummary, error)
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

// CategoryRepository defines the persistence port for categories.
type CategoryRepository interface {
	Save(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	FindAll(ctx context.Context) ([]*domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SupplierRepository defines the persistence port for suppliers.
type SupplierRepository interface {
	Save(ctx context.Context, supplier *domain.Supplier) error
	Update(ctx context.Context, supplier *domain.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	FindAll(ctx context.Context) ([]*domain.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MovementQueryParams holds filters for listing ledger entries. Limit
// and Offset are expected to be normalized by the service layer.
type MovementQueryParams struct {
	Type   domain.MovementType
	Search string
	Limit  int
	Offset int
}

// ProductListParams holds filters for listing products.
type ProductListParams struct {
	Search     string
	CategoryID uuid.UUID
	SupplierID uuid.UUID
	Limit      int
	Offset     int
}
