// internal/workers/audit_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
)

// LedgerAuditPayload represents the payload for ledger audit tasks
type LedgerAuditPayload struct {
	ProductID string `json:"product_id"`
}

// NewLedgerAuditTask builds the asynq task for a ledger audit
func NewLedgerAuditTask(productID uuid.UUID) (*asynq.Task, error) {
	b, err := json.Marshal(LedgerAuditPayload{ProductID: productID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit payload: %w", err)
	}
	return asynq.NewTask(TypeLedgerAudit, b), nil
}

// AuditProcessor replays a product's ledger to verify that each entry's
// remaining-stock snapshot matches the running total, and that the final
// total matches the product row.
type AuditProcessor struct {
	movements ports.MovementRepository
	products  ports.ProductRepository
	logger    *slog.Logger
}

// NewAuditProcessor creates a new audit processor
func NewAuditProcessor(movements ports.MovementRepository, products ports.ProductRepository, logger *slog.Logger) *AuditProcessor {
	return &AuditProcessor{
		movements: movements,
		products:  products,
		logger:    logger.With(slog.String("processor", "audit")),
	}
}

// AuditLedger checks one product's ledger consistency
func (p *AuditProcessor) AuditLedger(ctx context.Context, t *asynq.Task) error {
	var payload LedgerAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product id in payload: %w", err)
	}

	product, err := p.products.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		p.logger.WarnContext(ctx, "audit skipped, product gone",
			slog.String("product_id", payload.ProductID))
		return nil
	}

	entries, _, err := p.movements.FindByProduct(ctx, productID, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	// FindByProduct returns newest first; replay wants oldest first
	movements := make([]domain.Movement, len(entries))
	for i, e := range entries {
		movements[len(entries)-1-i] = e.Movement
	}

	replayed := domain.ReplayRemaining(movements)
	mismatches := 0
	for i, m := range movements {
		if m.RemainingStock != replayed[i] {
			mismatches++
			p.logger.ErrorContext(ctx, "ledger snapshot mismatch",
				slog.String("product_id", payload.ProductID),
				slog.String("movement_id", m.ID.String()),
				slog.Int("recorded", m.RemainingStock),
				slog.Int("replayed", replayed[i]))
		}
	}

	finalStock := 0
	if len(replayed) > 0 {
		finalStock = replayed[len(replayed)-1]
	}
	if finalStock != product.CurrentStock {
		mismatches++
		p.logger.ErrorContext(ctx, "product stock diverges from ledger",
			slog.String("product_id", payload.ProductID),
			slog.Int("product_stock", product.CurrentStock),
			slog.Int("ledger_stock", finalStock))
	}

	if mismatches > 0 {
		return fmt.Errorf("ledger audit found %d mismatches for product %s", mismatches, payload.ProductID)
	}

	p.logger.InfoContext(ctx, "ledger audit clean",
		slog.String("product_id", payload.ProductID),
		slog.Int("entries", len(movements)))

	return nil
}
