// internal/handlers/stock.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
)

// StockHandler handles stock mutation HTTP requests
type StockHandler struct {
	service ports.StockService
	logger  *slog.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(service ports.StockService, logger *slog.Logger) *StockHandler {
	return &StockHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "stock")),
	}
}

// StockIn handles POST /api/v1/stock/in
func (h *StockHandler) StockIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	adj, err := req.ToDomain()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	movement, err := h.service.StockIn(ctx, adj)
	if err != nil {
		h.respondAdjustmentError(ctx, w, "stock in", adj, err)
		return
	}

	h.logger.InfoContext(ctx, "stock received",
		slog.String("product_id", adj.ProductID.String()),
		slog.Int("quantity", adj.Quantity),
		slog.Int("remaining_stock", movement.RemainingStock))

	h.respondJSON(w, http.StatusCreated, movement)
}

// StockOut handles POST /api/v1/stock/out
func (h *StockHandler) StockOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	adj, err := req.ToDomain()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	movement, err := h.service.StockOut(ctx, adj)
	if err != nil {
		h.respondAdjustmentError(ctx, w, "stock out", adj, err)
		return
	}

	h.logger.InfoContext(ctx, "stock withdrawn",
		slog.String("product_id", adj.ProductID.String()),
		slog.Int("quantity", adj.Quantity),
		slog.Int("remaining_stock", movement.RemainingStock))

	h.respondJSON(w, http.StatusCreated, movement)
}

// respondAdjustmentError maps adjustment failures onto HTTP statuses
func (h *StockHandler) respondAdjustmentError(ctx context.Context, w http.ResponseWriter, op string, adj domain.StockAdjustment, err error) {
	h.logger.ErrorContext(ctx, "stock adjustment failed",
		slog.String("operation", op),
		slog.String("product_id", adj.ProductID.String()),
		slog.Int("quantity", adj.Quantity),
		slog.String("error", err.Error()))

	switch {
	case domain.IsValidation(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		h.respondError(w, http.StatusNotFound, "Product not found")
	case domain.IsInsufficientStock(err):
		h.respondError(w, http.StatusConflict, err.Error())
	case domain.IsConflict(err):
		h.respondError(w, http.StatusConflict, "Concurrent stock updates, please retry")
	default:
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to perform %s", op))
	}
}

func (h *StockHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h *StockHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// AdjustmentRequest is the request body for stock in and stock out
type AdjustmentRequest struct {
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
	ReferenceNo string `json:"reference_no,omitempty"`
	PerformedBy string `json:"performed_by,omitempty"`
	Note        string `json:"note,omitempty"`
}

// ToDomain converts the request to a stock adjustment. The movement type
// is set by the service, not the caller.
func (r *AdjustmentRequest) ToDomain() (domain.StockAdjustment, error) {
	if r.ProductID == "" {
		return domain.StockAdjustment{}, fmt.Errorf("product_id is required")
	}

	productID, err := uuid.Parse(r.ProductID)
	if err != nil {
		return domain.StockAdjustment{}, fmt.Errorf("invalid product_id format")
	}

	return domain.StockAdjustment{
		ProductID:   productID,
		Quantity:    r.Quantity,
		Reason:      r.Reason,
		ReferenceNo: r.ReferenceNo,
		PerformedBy: r.PerformedBy,
		Note:        r.Note,
	}, nil
}
