// internal/handlers/ledger.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	redis_a "github.com/panuwatk/stockledger-be/internal/adapters/redis_adapter"
	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
)

// reportCacheTTL bounds how stale the aggregate report may be.
const reportCacheTTL = 5 * time.Minute

// LedgerHandler handles movement ledger read requests
type LedgerHandler struct {
	service ports.LedgerService
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(service ports.LedgerService, cache ports.CacheRepository, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: service,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "ledger")),
	}
}

// ListMovements handles GET /api/v1/stock/movements
func (h *LedgerHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseListParams(r)

	result, err := h.service.ListMovements(ctx, params)
	if err != nil {
		if domain.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.ErrorContext(ctx, "failed to list movements",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to list movements")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ListMovementsByProduct handles GET /api/v1/stock/movements/product/{id}
func (h *LedgerHandler) ListMovementsByProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	productID, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	params := h.parseListParams(r)

	result, err := h.service.ListMovementsByProduct(ctx, productID, params)
	if err != nil {
		if domain.IsNotFound(err) {
			h.respondError(w, http.StatusNotFound, "Product not found")
			return
		}

		h.logger.ErrorContext(ctx, "failed to list product movements",
			slog.String("product_id", idStr),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to list movements")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetReport handles GET /api/v1/stock/report
func (h *LedgerHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := h.parseReportParams(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var summaries []domain.MovementSummary
	key := reportCacheKey(params)

	err = h.cache.GetOrSet(ctx, key, &summaries, func() (interface{}, error) {
		return h.service.GetReport(ctx, params)
	}, reportCacheTTL)
	if err != nil {
		if domain.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.ErrorContext(ctx, "failed to build movement report",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"summary": summaries})
}

// parseListParams parses query parameters for listing movements
func (h *LedgerHandler) parseListParams(r *http.Request) ports.MovementListParams {
	params := ports.MovementListParams{
		Page:  1,
		Limit: 20,
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			params.Limit = l
		}
	}

	params.Type = domain.MovementType(r.URL.Query().Get("type"))
	params.Search = r.URL.Query().Get("search")

	return params
}

// parseReportParams parses the optional date range. Dates use YYYY-MM-DD.
func (h *LedgerHandler) parseReportParams(r *http.Request) (ports.ReportParams, error) {
	var params ports.ReportParams

	if startStr := r.URL.Query().Get("startDate"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return params, fmt.Errorf("invalid startDate, expected YYYY-MM-DD")
		}
		params.StartDate = &start
	}

	if endStr := r.URL.Query().Get("endDate"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return params, fmt.Errorf("invalid endDate, expected YYYY-MM-DD")
		}
		params.EndDate = &end
	}

	return params, nil
}

func reportCacheKey(params ports.ReportParams) string {
	start, end := "all", "all"
	if params.StartDate != nil {
		start = params.StartDate.Format("2006-01-02")
	}
	if params.EndDate != nil {
		end = params.EndDate.Format("2006-01-02")
	}
	return redis_a.BuildKey(redis_a.PrefixReport, start, end)
}

func (h *LedgerHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h *LedgerHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
