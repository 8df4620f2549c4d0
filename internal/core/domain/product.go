// internal/core/domain/product.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a stocked warehouse product. CurrentStock is the
// authoritative on-hand quantity and is written only by the stock
// adjustment engine; generic product updates never touch it.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	CategoryID    uuid.UUID       `json:"category_id"`
	Unit          string          `json:"unit"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	MinStockLevel int             `json:"min_stock_level"`
	CurrentStock  int             `json:"current_stock"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductSummary is the minimal product projection joined onto ledger reads.
type ProductSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	SKU          string    `json:"sku"`
	CurrentStock int       `json:"current_stock"`
}

// Validate performs domain validation on the product.
func (p *Product) Validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if p.SKU == "" {
		return &ValidationError{Field: "sku", Message: "sku is required"}
	}
	if p.CategoryID == uuid.Nil {
		return &ValidationError{Field: "category_id", Message: "category_id is required"}
	}
	if p.Unit == "" {
		return &ValidationError{Field: "unit", Message: "unit is required"}
	}
	if p.CostPrice.IsNegative() {
		return &ValidationError{Field: "cost_price", Message: "cost_price cannot be negative"}
	}
	if p.SellingPrice.IsNegative() {
		return &ValidationError{Field: "selling_price", Message: "selling_price cannot be negative"}
	}
	if p.MinStockLevel < 0 {
		return &ValidationError{Field: "min_stock_level", Message: "min_stock_level cannot be negative"}
	}
	return nil
}

// PrepareForStorage assigns an ID and timestamps ahead of the first insert.
func (p *Product) PrepareForStorage() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// IsLowStock reports whether the product sits at or below its minimum level.
func (p *Product) IsLowStock() bool {
	return p.CurrentStock <= p.MinStockLevel
}

// Category is a reference entity grouping products.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate performs domain validation on the category.
func (c *Category) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

// Supplier is a reference entity for product sourcing.
type Supplier struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate performs domain validation on the supplier.
func (s *Supplier) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

// String implements fmt.Stringer for log output.
func (p *Product) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.SKU)
}
