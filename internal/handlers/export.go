// internal/handlers/export.go
package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
)

// ExportHandler handles ledger export operations
type ExportHandler struct {
	movements ports.MovementRepository
	logger    *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(movements ports.MovementRepository, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		movements: movements,
		logger:    logger.With(slog.String("handler", "export")),
	}
}

// ExportMovements handles GET /api/v1/export/movements
func (h *ExportHandler) ExportMovements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseExportParams(r)

	h.logger.InfoContext(ctx, "starting movement export",
		slog.String("type", string(params.Type)),
		slog.String("search", params.Search))

	entries, _, err := h.movements.FindAll(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to retrieve ledger entries",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	excelData, err := h.generateExcelFile(entries)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("stock_movements_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(excelData)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(excelData); err != nil {
		h.logger.ErrorContext(ctx, "failed to write Excel response",
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "movement export completed",
		slog.Int("total_rows", len(entries)),
		slog.String("filename", filename))
}

// parseExportParams parses export filters. Limit zero exports everything.
func (h *ExportHandler) parseExportParams(r *http.Request) ports.MovementQueryParams {
	return ports.MovementQueryParams{
		Type:   domain.MovementType(r.URL.Query().Get("type")),
		Search: r.URL.Query().Get("search"),
	}
}

// generateExcelFile creates an Excel workbook in memory from ledger entries
func (h *ExportHandler) generateExcelFile(entries []*domain.MovementWithProduct) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Stock Movements")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headers := []string{
		"Date", "Product", "SKU", "Type", "Quantity", "Remaining Stock",
		"Reason", "Reference No", "Performed By", "Note",
	}

	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for _, entry := range entries {
		row := sheet.AddRow()
		values := []string{
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.Product.Name,
			entry.Product.SKU,
			string(entry.Type),
			strconv.Itoa(entry.Quantity),
			strconv.Itoa(entry.RemainingStock),
			entry.Reason,
			entry.ReferenceNo,
			entry.PerformedBy,
			entry.Note,
		}

		for _, value := range values {
			cell := row.AddCell()
			cell.Value = value
		}
	}

	for i := 0; i < len(headers); i++ {
		sheet.SetColWidth(i+1, i+1, 18)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}

func (h *ExportHandler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, message)
}
