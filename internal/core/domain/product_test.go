// internal/core/domain/product_test.go
package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
)

func validProduct() domain.Product {
	return domain.Product{
		Name:          "Test Widget",
		SKU:           "SKU-TEST-001",
		CategoryID:    uuid.New(),
		Unit:          "pcs",
		CostPrice:     decimal.NewFromFloat(35.50),
		SellingPrice:  decimal.NewFromFloat(59.00),
		MinStockLevel: 10,
		CurrentStock:  50,
	}
}

func TestProduct_Validate(t *testing.T) {
	tests := []struct {
		name          string
		modify        func(*domain.Product)
		expectedError string
	}{
		{
			name:   "valid_product",
			modify: func(p *domain.Product) {},
		},
		{
			name:          "missing_name",
			modify:        func(p *domain.Product) { p.Name = "" },
			expectedError: "name is required",
		},
		{
			name:          "missing_sku",
			modify:        func(p *domain.Product) { p.SKU = "" },
			expectedError: "sku is required",
		},
		{
			name:          "missing_category",
			modify:        func(p *domain.Product) { p.CategoryID = uuid.Nil },
			expectedError: "category_id is required",
		},
		{
			name:          "missing_unit",
			modify:        func(p *domain.Product) { p.Unit = "" },
			expectedError: "unit is required",
		},
		{
			name:          "negative_cost_price",
			modify:        func(p *domain.Product) { p.CostPrice = decimal.NewFromFloat(-1) },
			expectedError: "cost_price cannot be negative",
		},
		{
			name:          "negative_selling_price",
			modify:        func(p *domain.Product) { p.SellingPrice = decimal.NewFromFloat(-1) },
			expectedError: "selling_price cannot be negative",
		},
		{
			name:          "negative_min_stock_level",
			modify:        func(p *domain.Product) { p.MinStockLevel = -1 },
			expectedError: "min_stock_level cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := validProduct()
			tt.modify(&product)

			err := product.Validate()

			if tt.expectedError == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), tt.expectedError)
			}
		})
	}
}

func TestProduct_PrepareForStorage(t *testing.T) {
	product := validProduct()
	require.Equal(t, uuid.Nil, product.ID)

	product.PrepareForStorage()

	assert.NotEqual(t, uuid.Nil, product.ID)
	assert.False(t, product.CreatedAt.IsZero())
	assert.False(t, product.UpdatedAt.IsZero())

	// A second call must not reassign the identity
	id := product.ID
	created := product.CreatedAt
	product.PrepareForStorage()
	assert.Equal(t, id, product.ID)
	assert.Equal(t, created, product.CreatedAt)
}

func TestProduct_IsLowStock(t *testing.T) {
	product := validProduct()

	product.CurrentStock = 50
	product.MinStockLevel = 10
	assert.False(t, product.IsLowStock())

	product.CurrentStock = 10
	assert.True(t, product.IsLowStock())

	product.CurrentStock = 0
	assert.True(t, product.IsLowStock())
}
