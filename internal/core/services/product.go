// internal/core/services/product.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
)

// ProductService handles product business logic
type ProductService struct {
	products  ports.ProductRepository
	movements ports.MovementRepository
	logger    *slog.Logger
}

// Statically assert that *ProductService implements the ProductService interface.
var _ ports.ProductService = (*ProductService)(nil)

// NewProductService creates a new product service
func NewProductService(products ports.ProductRepository, movements ports.MovementRepository, logger *slog.Logger) *ProductService {
	return &ProductService{
		products:  products,
		movements: movements,
		logger:    logger.With(slog.String("service", "product")),
	}
}

// Create saves a new product
func (s *ProductService) Create(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	product.PrepareForStorage()

	if existing, err := s.products.FindBySKU(ctx, product.SKU); err != nil {
		return fmt.Errorf("failed to check sku: %w", err)
	} else if existing != nil {
		return &domain.ValidationError{Field: "sku", Message: fmt.Sprintf("sku already exists: %s", product.SKU)}
	}

	if err := s.products.Save(ctx, product); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("id", product.ID.String()),
		slog.String("sku", product.SKU),
		slog.String("name", product.Name))

	return nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "product", ID: id.String()}
	}

	return product, nil
}

// Update updates a product's descriptive fields. The stock level is not
// updatable here: it only moves through the ledger.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, product *domain.Product) error {
	product.ID = id

	if err := product.Validate(); err != nil {
		return err
	}

	if err := s.products.Update(ctx, product); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("id", id.String()))

	return nil
}

// Delete removes a product. Products with ledger history are refused so
// the ledger never references a missing product.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	exists, err := s.products.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return &domain.NotFoundError{Resource: "product", ID: id.String()}
	}

	count, err := s.movements.CountByProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count movements: %w", err)
	}
	if count > 0 {
		return &domain.ValidationError{
			Field:   "id",
			Message: fmt.Sprintf("product has %d stock movements and cannot be deleted", count),
		}
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("id", id.String()))

	return nil
}

// List retrieves products with filtering and pagination
func (s *ProductService) List(ctx context.Context, params ports.ProductListParams) ([]*domain.Product, int64, error) {
	if params.Limit < 1 {
		params.Limit = defaultPageLimit
	}
	if params.Limit > maxPageLimit {
		params.Limit = maxPageLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	products, totalCount, err := s.products.FindAll(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, totalCount, nil
}

// ListLowStock returns products at or below their minimum stock level
func (s *ProductService) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.FindLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}

	return products, nil
}
