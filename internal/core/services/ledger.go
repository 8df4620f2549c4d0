// internal/core/services/ledger.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 500
)

// LedgerService handles read-side queries over the movement ledger
type LedgerService struct {
	movements ports.MovementRepository
	products  ports.ProductRepository
	logger    *slog.Logger
}

// Statically assert that *LedgerService implements the LedgerService interface.
var _ ports.LedgerService = (*LedgerService)(nil)

// NewLedgerService creates a new ledger service
func NewLedgerService(movements ports.MovementRepository, products ports.ProductRepository, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		movements: movements,
		products:  products,
		logger:    logger.With(slog.String("service", "ledger")),
	}
}

// ListMovements retrieves ledger entries with filtering and pagination
func (s *LedgerService) ListMovements(ctx context.Context, params ports.MovementListParams) (*ports.MovementListResult, error) {
	if params.Type != "" && !domain.ValidMovementType(params.Type) {
		return nil, &domain.ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("invalid movement type: %s", params.Type),
		}
	}

	page, limit := normalizePage(params.Page, params.Limit)

	items, totalCount, err := s.movements.FindAll(ctx, ports.MovementQueryParams{
		Type:   params.Type,
		Search: params.Search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	return buildListResult(items, page, limit, totalCount), nil
}

// ListMovementsByProduct retrieves the ledger entries of one product.
// The product must exist even when its ledger is empty.
func (s *LedgerService) ListMovementsByProduct(ctx context.Context, productID uuid.UUID, params ports.MovementListParams) (*ports.MovementListResult, error) {
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return nil, &domain.NotFoundError{Resource: "product", ID: productID.String()}
	}

	page, limit := normalizePage(params.Page, params.Limit)

	items, totalCount, err := s.movements.FindByProduct(ctx, productID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements by product: %w", err)
	}

	return buildListResult(items, page, limit, totalCount), nil
}

// GetReport aggregates movements per type over an optional inclusive
// date range. The end date covers its whole day.
func (s *LedgerService) GetReport(ctx context.Context, params ports.ReportParams) ([]domain.MovementSummary, error) {
	if params.StartDate != nil && params.EndDate != nil && params.EndDate.Before(*params.StartDate) {
		return nil, &domain.ValidationError{
			Field:   "endDate",
			Message: "end date must not be before start date",
		}
	}

	var end *time.Time
	if params.EndDate != nil {
		e := endOfDay(*params.EndDate)
		end = &e
	}

	summaries, err := s.movements.Report(ctx, params.StartDate, end)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	return summaries, nil
}

// normalizePage clamps paging parameters to sane bounds
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// endOfDay extends a date to the last instant of its day
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// buildListResult assembles a page of ledger entries
func buildListResult(items []*domain.MovementWithProduct, page, limit int, totalCount int64) *ports.MovementListResult {
	if items == nil {
		items = []*domain.MovementWithProduct{}
	}

	totalPages := int(totalCount) / limit
	if int(totalCount)%limit > 0 {
		totalPages++
	}

	return &ports.MovementListResult{
		Items:      items,
		Page:       page,
		Limit:      limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
