// internal/core/services/ledger_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
	"github.com/panuwatk/stockledger-be/internal/core/services"
	"github.com/panuwatk/stockledger-be/test/helpers"
	"github.com/panuwatk/stockledger-be/test/mocks"
)

func TestLedgerService_ListMovements(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name          string
		params        ports.MovementListParams
		setupMocks    func(*mocks.MockMovementRepository)
		expectedError bool
		errorCheck    func(*testing.T, error)
		resultCheck   func(*testing.T, *ports.MovementListResult)
	}{
		{
			name:   "defaults_applied_for_missing_paging",
			params: ports.MovementListParams{},
			setupMocks: func(m *mocks.MockMovementRepository) {
				m.EXPECT().
					FindAll(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, qp ports.MovementQueryParams) ([]*domain.MovementWithProduct, int64, error) {
						assert.Equal(t, 20, qp.Limit)
						assert.Equal(t, 0, qp.Offset)
						return nil, 0, nil
					})
			},
			resultCheck: func(t *testing.T, result *ports.MovementListResult) {
				assert.Equal(t, 1, result.Page)
				assert.Equal(t, 20, result.Limit)
				assert.NotNil(t, result.Items)
				assert.Empty(t, result.Items)
			},
		},
		{
			name:   "limit_clamped_to_maximum",
			params: ports.MovementListParams{Page: 2, Limit: 10000},
			setupMocks: func(m *mocks.MockMovementRepository) {
				m.EXPECT().
					FindAll(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, qp ports.MovementQueryParams) ([]*domain.MovementWithProduct, int64, error) {
						assert.Equal(t, 500, qp.Limit)
						assert.Equal(t, 500, qp.Offset)
						return nil, 0, nil
					})
			},
			resultCheck: func(t *testing.T, result *ports.MovementListResult) {
				assert.Equal(t, 2, result.Page)
				assert.Equal(t, 500, result.Limit)
			},
		},
		{
			name:          "rejects_invalid_movement_type",
			params:        ports.MovementListParams{Type: "SIDEWAYS"},
			setupMocks:    func(m *mocks.MockMovementRepository) {},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), "invalid movement type")
			},
		},
		{
			name:   "computes_total_pages_with_remainder",
			params: ports.MovementListParams{Page: 1, Limit: 20},
			setupMocks: func(m *mocks.MockMovementRepository) {
				items := []*domain.MovementWithProduct{
					{Movement: *helpers.CreateTestMovement(productID)},
				}
				m.EXPECT().
					FindAll(gomock.Any(), gomock.Any()).
					Return(items, int64(41), nil)
			},
			resultCheck: func(t *testing.T, result *ports.MovementListResult) {
				assert.Equal(t, int64(41), result.TotalCount)
				assert.Equal(t, 3, result.TotalPages)
				assert.Len(t, result.Items, 1)
			},
		},
		{
			name:   "repository_error_is_wrapped",
			params: ports.MovementListParams{},
			setupMocks: func(m *mocks.MockMovementRepository) {
				m.EXPECT().
					FindAll(gomock.Any(), gomock.Any()).
					Return(nil, int64(0), errors.New("query timeout"))
			},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "failed to list movements")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockMovements := mocks.NewMockMovementRepository(ctrl)
			mockProducts := mocks.NewMockProductRepository(ctrl)
			logger := helpers.TestLogger()

			service := services.NewLedgerService(mockMovements, mockProducts, logger)

			tt.setupMocks(mockMovements)

			result, err := service.ListMovements(context.Background(), tt.params)

			if tt.expectedError {
				require.Error(t, err)
				assert.Nil(t, result)
				if tt.errorCheck != nil {
					tt.errorCheck(t, err)
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
				if tt.resultCheck != nil {
					tt.resultCheck(t, result)
				}
			}
		})
	}
}

func TestLedgerService_ListMovementsByProduct(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name          string
		setupMocks    func(*mocks.MockMovementRepository, *mocks.MockProductRepository)
		expectedError bool
		errorCheck    func(*testing.T, error)
	}{
		{
			name: "returns_movements_for_existing_product",
			setupMocks: func(m *mocks.MockMovementRepository, p *mocks.MockProductRepository) {
				p.EXPECT().Exists(gomock.Any(), productID).Return(true, nil)
				m.EXPECT().
					FindByProduct(gomock.Any(), productID, 20, 0).
					Return([]*domain.MovementWithProduct{
						{Movement: *helpers.CreateTestMovement(productID)},
					}, int64(1), nil)
			},
		},
		{
			name: "empty_ledger_still_succeeds",
			setupMocks: func(m *mocks.MockMovementRepository, p *mocks.MockProductRepository) {
				p.EXPECT().Exists(gomock.Any(), productID).Return(true, nil)
				m.EXPECT().
					FindByProduct(gomock.Any(), productID, 20, 0).
					Return(nil, int64(0), nil)
			},
		},
		{
			name: "unknown_product_returns_not_found",
			setupMocks: func(m *mocks.MockMovementRepository, p *mocks.MockProductRepository) {
				p.EXPECT().Exists(gomock.Any(), productID).Return(false, nil)
			},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.True(t, domain.IsNotFound(err))
			},
		},
		{
			name: "existence_check_error_is_wrapped",
			setupMocks: func(m *mocks.MockMovementRepository, p *mocks.MockProductRepository) {
				p.EXPECT().Exists(gomock.Any(), productID).Return(false, errors.New("connection lost"))
			},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "failed to check product existence")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockMovements := mocks.NewMockMovementRepository(ctrl)
			mockProducts := mocks.NewMockProductRepository(ctrl)
			logger := helpers.TestLogger()

			service := services.NewLedgerService(mockMovements, mockProducts, logger)

			tt.setupMocks(mockMovements, mockProducts)

			result, err := service.ListMovementsByProduct(context.Background(), productID, ports.MovementListParams{})

			if tt.expectedError {
				require.Error(t, err)
				assert.Nil(t, result)
				if tt.errorCheck != nil {
					tt.errorCheck(t, err)
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
				assert.NotNil(t, result.Items)
			}
		})
	}
}

func TestLedgerService_GetReport(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		params        ports.ReportParams
		setupMocks    func(*mocks.MockMovementRepository)
		expectedError bool
		errorCheck    func(*testing.T, error)
		resultCheck   func(*testing.T, []domain.MovementSummary)
	}{
		{
			name:   "no_date_range_queries_everything",
			params: ports.ReportParams{},
			setupMocks: func(m *mocks.MockMovementRepository) {
				m.EXPECT().
					Report(gomock.Any(), nil, nil).
					Return([]domain.MovementSummary{
						{Type: domain.MovementIn, TotalQuantity: 120, Count: 4},
						{Type: domain.MovementOut, TotalQuantity: 70, Count: 1},
					}, nil)
			},
			resultCheck: func(t *testing.T, summaries []domain.MovementSummary) {
				require.Len(t, summaries, 2)
				assert.Equal(t, domain.MovementIn, summaries[0].Type)
				assert.Equal(t, int64(120), summaries[0].TotalQuantity)
			},
		},
		{
			name:   "end_date_extended_to_end_of_day",
			params: ports.ReportParams{StartDate: &start, EndDate: &end},
			setupMocks: func(m *mocks.MockMovementRepository) {
				m.EXPECT().
					Report(gomock.Any(), &start, gomock.Any()).
					DoAndReturn(func(ctx context.Context, s, e *time.Time) ([]domain.MovementSummary, error) {
						require.NotNil(t, e)
						assert.Equal(t, 23, e.Hour())
						assert.Equal(t, 59, e.Minute())
						assert.Equal(t, end.Day(), e.Day())
						return nil, nil
					})
			},
		},
		{
			name:          "end_before_start_is_rejected",
			params:        ports.ReportParams{StartDate: &end, EndDate: &start},
			setupMocks:    func(m *mocks.MockMovementRepository) {},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), "end date must not be before start date")
			},
		},
		{
			name:   "repository_error_is_wrapped",
			params: ports.ReportParams{},
			setupMocks: func(m *mocks.MockMovementRepository) {
				m.EXPECT().
					Report(gomock.Any(), nil, nil).
					Return(nil, errors.New("aggregate failed"))
			},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "failed to build report")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockMovements := mocks.NewMockMovementRepository(ctrl)
			mockProducts := mocks.NewMockProductRepository(ctrl)
			logger := helpers.TestLogger()

			service := services.NewLedgerService(mockMovements, mockProducts, logger)

			tt.setupMocks(mockMovements)

			summaries, err := service.GetReport(context.Background(), tt.params)

			if tt.expectedError {
				require.Error(t, err)
				if tt.errorCheck != nil {
					tt.errorCheck(t, err)
				}
			} else {
				require.NoError(t, err)
				if tt.resultCheck != nil {
					tt.resultCheck(t, summaries)
				}
			}
		})
	}
}
