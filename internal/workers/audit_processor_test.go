// internal/workers/audit_processor_test.go
package workers_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/workers"
	"github.com/panuwatk/stockledger-be/test/helpers"
	"github.com/panuwatk/stockledger-be/test/mocks"
)

// ledgerEntry builds one MovementWithProduct for a product's history.
func ledgerEntry(productID uuid.UUID, movType domain.MovementType, qty, remaining int) *domain.MovementWithProduct {
	return &domain.MovementWithProduct{
		Movement: domain.Movement{
			ID:             uuid.New(),
			ProductID:      productID,
			Type:           movType,
			Quantity:       qty,
			RemainingStock: remaining,
		},
	}
}

func TestAuditProcessor_AuditLedger(t *testing.T) {
	productID := uuid.New()

	testCases := []struct {
		name        string
		setupMocks  func(movements *mocks.MockMovementRepository, products *mocks.MockProductRepository)
		expectError string
	}{
		{
			name: "clean_ledger_passes",
			setupMocks: func(movements *mocks.MockMovementRepository, products *mocks.MockProductRepository) {
				product := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.CurrentStock = 5
				})
				products.EXPECT().
					FindByID(gomock.Any(), productID).
					Return(product, nil)

				// Newest first, as the repository returns them.
				movements.EXPECT().
					FindByProduct(gomock.Any(), productID, 0, 0).
					Return([]*domain.MovementWithProduct{
						ledgerEntry(productID, domain.MovementOut, 25, 5),
						ledgerEntry(productID, domain.MovementOut, 20, 30),
						ledgerEntry(productID, domain.MovementIn, 50, 50),
					}, int64(3), nil)
			},
		},
		{
			name: "snapshot_mismatch_fails",
			setupMocks: func(movements *mocks.MockMovementRepository, products *mocks.MockProductRepository) {
				product := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.CurrentStock = 30
				})
				products.EXPECT().
					FindByID(gomock.Any(), productID).
					Return(product, nil)

				// The OUT entry recorded a stale remaining-stock snapshot.
				movements.EXPECT().
					FindByProduct(gomock.Any(), productID, 0, 0).
					Return([]*domain.MovementWithProduct{
						ledgerEntry(productID, domain.MovementOut, 20, 25),
						ledgerEntry(productID, domain.MovementIn, 50, 50),
					}, int64(2), nil)
			},
			expectError: "mismatches",
		},
		{
			name: "product_stock_diverges_from_ledger",
			setupMocks: func(movements *mocks.MockMovementRepository, products *mocks.MockProductRepository) {
				product := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.CurrentStock = 99
				})
				products.EXPECT().
					FindByID(gomock.Any(), productID).
					Return(product, nil)

				movements.EXPECT().
					FindByProduct(gomock.Any(), productID, 0, 0).
					Return([]*domain.MovementWithProduct{
						ledgerEntry(productID, domain.MovementIn, 50, 50),
					}, int64(1), nil)
			},
			expectError: "mismatches",
		},
		{
			name: "missing_product_is_skipped",
			setupMocks: func(movements *mocks.MockMovementRepository, products *mocks.MockProductRepository) {
				products.EXPECT().
					FindByID(gomock.Any(), productID).
					Return(nil, nil)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockMovements := mocks.NewMockMovementRepository(ctrl)
			mockProducts := mocks.NewMockProductRepository(ctrl)
			tc.setupMocks(mockMovements, mockProducts)

			processor := workers.NewAuditProcessor(mockMovements, mockProducts, helpers.TestLogger())

			task, err := workers.NewLedgerAuditTask(productID)
			require.NoError(t, err)

			err = processor.AuditLedger(context.Background(), task)
			if tc.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuditProcessor_RejectsBadPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	processor := workers.NewAuditProcessor(
		mocks.NewMockMovementRepository(ctrl),
		mocks.NewMockProductRepository(ctrl),
		helpers.TestLogger(),
	)

	t.Run("malformed_json", func(t *testing.T) {
		task := asynq.NewTask(workers.TypeLedgerAudit, []byte("{not-json"))
		err := processor.AuditLedger(context.Background(), task)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal payload")
	})

	t.Run("invalid_product_id", func(t *testing.T) {
		task := asynq.NewTask(workers.TypeLedgerAudit, []byte(`{"product_id":"not-a-uuid"}`))
		err := processor.AuditLedger(context.Background(), task)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid product id")
	})
}
