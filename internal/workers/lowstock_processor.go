// internal/workers/lowstock_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/panuwatk/stockledger-be/internal/pkg/config"
)

const (
	TypeLowStockAlert = "stock:low_alert"
	TypeLedgerAudit   = "ledger:audit"
)

// Queue names used when enqueueing tasks
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// LowStockAlertPayload represents the payload for low stock alert tasks
type LowStockAlertPayload struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	SKU           string `json:"sku"`
	CurrentStock  int    `json:"current_stock"`
	MinStockLevel int    `json:"min_stock_level"`
}

// NewLowStockAlertTask builds the asynq task for a low stock alert
func NewLowStockAlertTask(productID uuid.UUID, name, sku string, currentStock, minStockLevel int) (*asynq.Task, error) {
	payload := LowStockAlertPayload{
		ProductID:     productID.String(),
		ProductName:   name,
		SKU:           sku,
		CurrentStock:  currentStock,
		MinStockLevel: minStockLevel,
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal low stock payload: %w", err)
	}

	return asynq.NewTask(TypeLowStockAlert, b), nil
}

// LowStockProcessor handles low stock alert tasks
type LowStockProcessor struct {
	config *config.Config
	logger *slog.Logger
}

// NewLowStockProcessor creates a new low stock processor
func NewLowStockProcessor(config *config.Config, logger *slog.Logger) *LowStockProcessor {
	return &LowStockProcessor{
		config: config,
		logger: logger.With(slog.String("processor", "low_stock")),
	}
}

// ProcessAlert notifies the configured recipient that a product dropped
// to or below its minimum stock level
func (p *LowStockProcessor) ProcessAlert(ctx context.Context, t *asynq.Task) error {
	var payload LowStockAlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	p.logger.InfoContext(ctx, "low stock alert",
		slog.String("product_id", payload.ProductID),
		slog.String("sku", payload.SKU),
		slog.Int("current_stock", payload.CurrentStock),
		slog.Int("min_stock_level", payload.MinStockLevel))

	subject := fmt.Sprintf("Low stock: %s (%s)", payload.ProductName, payload.SKU)
	body := fmt.Sprintf(
		"Product %s (%s) is down to %d units, at or below its minimum level of %d.",
		payload.ProductName, payload.SKU, payload.CurrentStock, payload.MinStockLevel,
	)

	// In development, just log the alert
	if p.config.App.Environment == "development" {
		p.logger.InfoContext(ctx, "alert email would be sent",
			slog.String("to", p.config.Alerts.Recipient),
			slog.String("subject", subject),
			slog.String("body", body))
		return nil
	}

	from := p.config.Alerts.Sender
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		from, p.config.Alerts.Recipient, subject, body,
	))

	auth := smtp.PlainAuth("", p.config.Alerts.SMTPUser, p.config.Alerts.SMTPPassword, p.config.Alerts.SMTPHost)
	addr := fmt.Sprintf("%s:%d", p.config.Alerts.SMTPHost, p.config.Alerts.SMTPPort)
	if err := smtp.SendMail(addr, auth, from, []string{p.config.Alerts.Recipient}, msg); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	p.logger.InfoContext(ctx, "alert email sent",
		slog.String("to", p.config.Alerts.Recipient))
	return nil
}
