// internal/handlers/product.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
)

// ProductHandler handles product catalog HTTP requests
type ProductHandler struct {
	service ports.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service ports.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "product")),
	}
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := req.ToDomain()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Create(ctx, product); err != nil {
		if domain.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.ErrorContext(ctx, "failed to create product",
			slog.String("sku", product.SKU),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	h.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID.String()),
		slog.String("sku", product.SKU))

	h.respondJSON(w, http.StatusCreated, product)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	productID, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.service.GetByID(ctx, productID)
	if err != nil {
		if domain.IsNotFound(err) {
			h.respondError(w, http.StatusNotFound, "Product not found")
			return
		}

		h.logger.ErrorContext(ctx, "failed to get product",
			slog.String("product_id", idStr),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	productID, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := req.ToDomain()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Update(ctx, productID, product); err != nil {
		switch {
		case domain.IsNotFound(err):
			h.respondError(w, http.StatusNotFound, "Product not found")
		case domain.IsValidation(err):
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.ErrorContext(ctx, "failed to update product",
				slog.String("product_id", idStr),
				slog.String("error", err.Error()))
			h.respondError(w, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	h.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", idStr))

	h.respondJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	productID, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.service.Delete(ctx, productID); err != nil {
		switch {
		case domain.IsNotFound(err):
			h.respondError(w, http.StatusNotFound, "Product not found")
		case domain.IsValidation(err):
			// Products with ledger history cannot be removed
			h.respondError(w, http.StatusConflict, err.Error())
		default:
			h.logger.ErrorContext(ctx, "failed to delete product",
				slog.String("product_id", idStr),
				slog.String("error", err.Error()))
			h.respondError(w, http.StatusInternalServerError, "Failed to delete product")
		}
		return
	}

	h.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", idStr))

	h.respondJSON(w, http.StatusOK, map[string]string{
		"message":    "Product deleted successfully",
		"product_id": idStr,
	})
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseListParams(r)

	products, totalCount, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list products",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":       products,
		"total_count": totalCount,
	})
}

// ListLowStock handles GET /api/v1/products/low-stock
func (h *ProductHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.service.ListLowStock(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list low stock products",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to list low stock products")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": products,
		"count": len(products),
	})
}

// parseListParams parses query parameters for listing products
func (h *ProductHandler) parseListParams(r *http.Request) ports.ProductListParams {
	params := ports.ProductListParams{
		Limit: 20,
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			params.Limit = l
		}
	}

	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil && o >= 0 {
			params.Offset = o
		}
	}

	params.Search = r.URL.Query().Get("search")

	if categoryID := r.URL.Query().Get("category_id"); categoryID != "" {
		if id, err := uuid.Parse(categoryID); err == nil {
			params.CategoryID = id
		}
	}

	if supplierID := r.URL.Query().Get("supplier_id"); supplierID != "" {
		if id, err := uuid.Parse(supplierID); err == nil {
			params.SupplierID = id
		}
	}

	return params
}

func (h *ProductHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h *ProductHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// ProductRequest is the request body for creating and updating products
type ProductRequest struct {
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	CategoryID    string          `json:"category_id"`
	Unit          string          `json:"unit,omitempty"`
	CostPrice     decimal.Decimal `json:"cost_price,omitempty"`
	SellingPrice  decimal.Decimal `json:"selling_price,omitempty"`
	MinStockLevel int             `json:"min_stock_level,omitempty"`
	InitialStock  int             `json:"initial_stock,omitempty"`
	SupplierID    string          `json:"supplier_id,omitempty"`
}

// ToDomain converts the request to a domain model
func (r *ProductRequest) ToDomain() (*domain.Product, error) {
	if r.CategoryID == "" {
		return nil, fmt.Errorf("category_id is required")
	}

	categoryID, err := uuid.Parse(r.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("invalid category_id format")
	}

	product := &domain.Product{
		Name:          r.Name,
		SKU:           r.SKU,
		CategoryID:    categoryID,
		Unit:          r.Unit,
		CostPrice:     r.CostPrice,
		SellingPrice:  r.SellingPrice,
		MinStockLevel: r.MinStockLevel,
		CurrentStock:  r.InitialStock,
	}

	if r.SupplierID != "" {
		supplierID, err := uuid.Parse(r.SupplierID)
		if err != nil {
			return nil, fmt.Errorf("invalid supplier_id format")
		}
		product.SupplierID = &supplierID
	}

	if product.Unit == "" {
		product.Unit = "pcs"
	}

	return product, nil
}
