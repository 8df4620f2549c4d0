// internal/core/services/stock_test.go
package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/services"
	"github.com/panuwatk/stockledger-be/test/helpers"
	"github.com/panuwatk/stockledger-be/test/mocks"
)

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
}

func TestStockService_StockIn(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name          string
		adj           domain.StockAdjustment
		setupMocks    func(*mocks.MockMovementRepository, *mocks.MockCacheInvalidator)
		expectedError bool
		errorCheck    func(*testing.T, error)
	}{
		{
			name: "successful_adjustment",
			adj:  helpers.CreateTestAdjustment(productID),
			setupMocks: func(m *mocks.MockMovementRepository, inv *mocks.MockCacheInvalidator) {
				m.EXPECT().
					RecordAdjustment(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, adj domain.StockAdjustment) (*domain.Movement, error) {
						assert.Equal(t, domain.MovementIn, adj.Type)
						return helpers.CreateTestMovement(productID), nil
					})
				inv.EXPECT().AfterAdjustment(gomock.Any(), productID.String())
			},
		},
		{
			name: "validation_fails_for_missing_product_id",
			adj: helpers.CreateTestAdjustment(productID, func(a *domain.StockAdjustment) {
				a.ProductID = uuid.Nil
			}),
			setupMocks:    func(m *mocks.MockMovementRepository, inv *mocks.MockCacheInvalidator) {},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), "product_id is required")
			},
		},
		{
			name: "validation_fails_for_zero_quantity",
			adj: helpers.CreateTestAdjustment(productID, func(a *domain.StockAdjustment) {
				a.Quantity = 0
			}),
			setupMocks:    func(m *mocks.MockMovementRepository, inv *mocks.MockCacheInvalidator) {},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), "quantity must be at least 1")
			},
		},
		{
			name: "validation_fails_for_missing_reason",
			adj: helpers.CreateTestAdjustment(productID, func(a *domain.StockAdjustment) {
				a.Reason = ""
			}),
			setupMocks:    func(m *mocks.MockMovementRepository, inv *mocks.MockCacheInvalidator) {},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), "reason is required")
			},
		},
		{
			name: "product_not_found_passes_through",
			adj:  helpers.CreateTestAdjustment(productID),
			setupMocks: func(m *mocks.MockMovementRepository, inv *mocks.MockCacheInvalidator) {
				m.EXPECT().
					RecordAdjustment(gomock.Any(), gomock.Any()).
					Return(nil, &domain.NotFoundError{Resource: "product", ID: productID.String()})
			},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.True(t, domain.IsNotFound(err))
			},
		},
		{
			name: "retries_serialization_failure_then_succeeds",
			adj:  helpers.CreateTestAdjustment(productID),
			setupMocks: func(m *mocks.MockMovementRepository, inv *mocks.MockCacheInvalidator) {
				gomock.InOrder(
					m.EXPECT().
						RecordAdjustment(gomock.Any(), gomock.Any()).
						Return(nil, serializationFailure()),
					m.EXPECT().
						RecordAdjustment(gomock.Any(), gomock.Any()).
						Return(helpers.CreateTestMovement(productID), nil),
				)
				inv.EXPECT().AfterAdjustment(gomock.Any(), productID.String())
			},
		},
		{
			name: "returns_conflict_after_retries_exhausted",
			adj:  helpers.CreateTestAdjustment(productID),
			setupMocks: func(m *mocks.MockMovementRepository, inv *mocks.MockCacheInvalidator) {
				m.EXPECT().
					RecordAdjustment(gomock.Any(), gomock.Any()).
					Return(nil, serializationFailure()).
					Times(3)
			},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.True(t, domain.IsConflict(err))
			},
		},
		{
			name: "non_retryable_error_fails_immediately",
			adj:  helpers.CreateTestAdjustment(productID),
			setupMocks: func(m *mocks.MockMovementRepository, inv *mocks.MockCacheInvalidator) {
				m.EXPECT().
					RecordAdjustment(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("connection refused"))
			},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "connection refused")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockMovements := mocks.NewMockMovementRepository(ctrl)
			mockProducts := mocks.NewMockProductRepository(ctrl)
			mockTasks := mocks.NewMockTaskEnqueuer(ctrl)
			mockInvalidator := mocks.NewMockCacheInvalidator(ctrl)
			logger := helpers.TestLogger()

			service := services.NewStockService(mockMovements, mockProducts, mockTasks, mockInvalidator, logger)

			tt.setupMocks(mockMovements, mockInvalidator)

			movement, err := service.StockIn(context.Background(), tt.adj)

			if tt.expectedError {
				require.Error(t, err)
				assert.Nil(t, movement)
				if tt.errorCheck != nil {
					tt.errorCheck(t, err)
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, movement)
			}
		})
	}
}

func TestStockService_StockOut(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name          string
		adj           domain.StockAdjustment
		setupMocks    func(*mocks.MockMovementRepository, *mocks.MockProductRepository, *mocks.MockTaskEnqueuer, *mocks.MockCacheInvalidator)
		expectedError bool
		errorCheck    func(*testing.T, error)
	}{
		{
			name: "successful_withdrawal_without_alert",
			adj:  helpers.CreateTestAdjustment(productID),
			setupMocks: func(m *mocks.MockMovementRepository, p *mocks.MockProductRepository, tasks *mocks.MockTaskEnqueuer, inv *mocks.MockCacheInvalidator) {
				m.EXPECT().
					RecordAdjustment(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, adj domain.StockAdjustment) (*domain.Movement, error) {
						assert.Equal(t, domain.MovementOut, adj.Type)
						return helpers.CreateTestMovement(productID), nil
					})
				inv.EXPECT().AfterAdjustment(gomock.Any(), productID.String())
				p.EXPECT().
					FindByID(gomock.Any(), productID).
					Return(helpers.CreateTestProduct(func(pr *domain.Product) {
						pr.ID = productID
						pr.CurrentStock = 40
					}), nil)
			},
		},
		{
			name: "low_stock_enqueues_alert",
			adj:  helpers.CreateTestAdjustment(productID),
			setupMocks: func(m *mocks.MockMovementRepository, p *mocks.MockProductRepository, tasks *mocks.MockTaskEnqueuer, inv *mocks.MockCacheInvalidator) {
				m.EXPECT().
					RecordAdjustment(gomock.Any(), gomock.Any()).
					Return(helpers.CreateTestMovement(productID, func(mv *domain.Movement) {
						mv.RemainingStock = 5
					}), nil)
				inv.EXPECT().AfterAdjustment(gomock.Any(), productID.String())
				p.EXPECT().
					FindByID(gomock.Any(), productID).
					Return(helpers.CreateTestProduct(func(pr *domain.Product) {
						pr.ID = productID
						pr.CurrentStock = 5
						pr.MinStockLevel = 10
					}), nil)
				tasks.EXPECT().
					Enqueue(gomock.Any(), gomock.Any()).
					Return(&asynq.TaskInfo{}, nil)
			},
		},
		{
			name: "enqueue_failure_does_not_fail_withdrawal",
			adj:  helpers.CreateTestAdjustment(productID),
			setupMocks: func(m *mocks.MockMovementRepository, p *mocks.MockProductRepository, tasks *mocks.MockTaskEnqueuer, inv *mocks.MockCacheInvalidator) {
				m.EXPECT().
					RecordAdjustment(gomock.Any(), gomock.Any()).
					Return(helpers.CreateTestMovement(productID, func(mv *domain.Movement) {
						mv.RemainingStock = 2
					}), nil)
				inv.EXPECT().AfterAdjustment(gomock.Any(), productID.String())
				p.EXPECT().
					FindByID(gomock.Any(), productID).
					Return(helpers.CreateTestProduct(func(pr *domain.Product) {
						pr.ID = productID
						pr.CurrentStock = 2
					}), nil)
				tasks.EXPECT().
					Enqueue(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("redis unavailable"))
			},
		},
		{
			name: "product_lookup_failure_does_not_fail_withdrawal",
			adj:  helpers.CreateTestAdjustment(productID),
			setupMocks: func(m *mocks.MockMovementRepository, p *mocks.MockProductRepository, tasks *mocks.MockTaskEnqueuer, inv *mocks.MockCacheInvalidator) {
				m.EXPECT().
					RecordAdjustment(gomock.Any(), gomock.Any()).
					Return(helpers.CreateTestMovement(productID), nil)
				inv.EXPECT().AfterAdjustment(gomock.Any(), productID.String())
				p.EXPECT().
					FindByID(gomock.Any(), productID).
					Return(nil, errors.New("connection reset"))
			},
		},
		{
			name: "insufficient_stock_passes_through",
			adj:  helpers.CreateTestAdjustment(productID),
			setupMocks: func(m *mocks.MockMovementRepository, p *mocks.MockProductRepository, tasks *mocks.MockTaskEnqueuer, inv *mocks.MockCacheInvalidator) {
				m.EXPECT().
					RecordAdjustment(gomock.Any(), gomock.Any()).
					Return(nil, &domain.InsufficientStockError{
						ProductID: productID.String(),
						Available: 3,
						Requested: 20,
					})
			},
			expectedError: true,
			errorCheck: func(t *testing.T, err error) {
				assert.True(t, domain.IsInsufficientStock(err))
				assert.Contains(t, err.Error(), "insufficient stock")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockMovements := mocks.NewMockMovementRepository(ctrl)
			mockProducts := mocks.NewMockProductRepository(ctrl)
			mockTasks := mocks.NewMockTaskEnqueuer(ctrl)
			mockInvalidator := mocks.NewMockCacheInvalidator(ctrl)
			logger := helpers.TestLogger()

			service := services.NewStockService(mockMovements, mockProducts, mockTasks, mockInvalidator, logger)

			tt.setupMocks(mockMovements, mockProducts, mockTasks, mockInvalidator)

			movement, err := service.StockOut(context.Background(), tt.adj)

			if tt.expectedError {
				require.Error(t, err)
				assert.Nil(t, movement)
				if tt.errorCheck != nil {
					tt.errorCheck(t, err)
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, movement)
			}
		})
	}
}

func TestStockService_NilInvalidator(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	productID := uuid.New()
	mockMovements := mocks.NewMockMovementRepository(ctrl)
	mockProducts := mocks.NewMockProductRepository(ctrl)
	mockTasks := mocks.NewMockTaskEnqueuer(ctrl)

	mockMovements.EXPECT().
		RecordAdjustment(gomock.Any(), gomock.Any()).
		Return(helpers.CreateTestMovement(productID), nil)

	service := services.NewStockService(mockMovements, mockProducts, mockTasks, nil, helpers.TestLogger())

	movement, err := service.StockIn(context.Background(), helpers.CreateTestAdjustment(productID))
	require.NoError(t, err)
	assert.NotNil(t, movement)
}
