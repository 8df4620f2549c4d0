// internal/core/domain/movement.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
	// MovementAdjust is reserved for manual corrections. The adjustment
	// engine never emits it, but the ledger and reports must accept it.
	MovementAdjust MovementType = "ADJUST"
)

// MaxMovementQuantity caps a single adjustment.
const MaxMovementQuantity = 999999

// ValidMovementType reports whether t is a recognized movement type.
func ValidMovementType(t MovementType) bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjust:
		return true
	}
	return false
}

// Movement is one immutable ledger entry. RemainingStock snapshots the
// product's current stock immediately after this movement was applied.
// Movements are never updated or deleted.
type Movement struct {
	ID             uuid.UUID    `json:"id"`
	ProductID      uuid.UUID    `json:"product_id"`
	Type           MovementType `json:"type"`
	Quantity       int          `json:"quantity"`
	RemainingStock int          `json:"remaining_stock"`
	Reason         string       `json:"reason"`
	ReferenceNo    string       `json:"reference_no,omitempty"`
	PerformedBy    string       `json:"performed_by,omitempty"`
	Note           string       `json:"note,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// MovementWithProduct is a ledger entry joined with its product summary
// for display.
type MovementWithProduct struct {
	Movement
	Product ProductSummary `json:"product"`
}

// MovementSummary is one row of the per-type aggregate report.
type MovementSummary struct {
	Type          MovementType `json:"type"`
	TotalQuantity int64        `json:"total_quantity"`
	Count         int64        `json:"count"`
}

// StockAdjustment is the input to one atomic ledger write: the stock
// delta applied to the product plus the movement metadata recorded
// alongside it.
type StockAdjustment struct {
	ProductID   uuid.UUID
	Type        MovementType
	Quantity    int
	Reason      string
	ReferenceNo string
	PerformedBy string
	Note        string
}

// Validate rejects an adjustment before any storage access.
func (a *StockAdjustment) Validate() error {
	if a.ProductID == uuid.Nil {
		return &ValidationError{Field: "product_id", Message: "product_id is required"}
	}
	if a.Type != MovementIn && a.Type != MovementOut {
		return &ValidationError{Field: "type", Message: "type must be IN or OUT"}
	}
	if a.Quantity < 1 {
		return &ValidationError{Field: "quantity", Message: "quantity must be at least 1"}
	}
	if a.Quantity > MaxMovementQuantity {
		return &ValidationError{Field: "quantity", Message: "quantity exceeds maximum"}
	}
	if a.Reason == "" {
		return &ValidationError{Field: "reason", Message: "reason is required"}
	}
	if len(a.Reason) > 500 {
		return &ValidationError{Field: "reason", Message: "reason exceeds 500 characters"}
	}
	if len(a.ReferenceNo) > 100 {
		return &ValidationError{Field: "reference_no", Message: "reference_no exceeds 100 characters"}
	}
	if len(a.PerformedBy) > 100 {
		return &ValidationError{Field: "performed_by", Message: "performed_by exceeds 100 characters"}
	}
	if len(a.Note) > 500 {
		return &ValidationError{Field: "note", Message: "note exceeds 500 characters"}
	}
	return nil
}

// Delta returns the signed stock change for the adjustment.
func (a *StockAdjustment) Delta() int {
	if a.Type == MovementOut {
		return -a.Quantity
	}
	return a.Quantity
}

// ReplayRemaining recomputes the running stock for movements ordered
// oldest-first, starting from zero: IN adds, OUT subtracts. Used by
// audit checks to verify each entry's RemainingStock snapshot.
func ReplayRemaining(movements []Movement) []int {
	remaining := make([]int, len(movements))
	stock := 0
	for i, m := range movements {
		switch m.Type {
		case MovementOut:
			stock -= m.Quantity
		default:
			stock += m.Quantity
		}
		remaining[i] = stock
	}
	return remaining
}
