// internal/handlers/reference.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
)

// ReferenceHandler handles category and supplier HTTP requests. These
// are plain reference data, so it talks to the repositories directly.
type ReferenceHandler struct {
	categories ports.CategoryRepository
	suppliers  ports.SupplierRepository
	logger     *slog.Logger
}

// NewReferenceHandler creates a new reference data handler
func NewReferenceHandler(categories ports.CategoryRepository, suppliers ports.SupplierRepository, logger *slog.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		categories: categories,
		suppliers:  suppliers,
		logger:     logger.With(slog.String("handler", "reference")),
	}
}

// ListCategories handles GET /api/v1/categories
func (h *ReferenceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.categories.FindAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list categories",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"items": categories})
}

// CreateCategory handles POST /api/v1/categories
func (h *ReferenceHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := category.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.categories.Save(ctx, category); err != nil {
		if domain.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.ErrorContext(ctx, "failed to create category",
			slog.String("name", req.Name),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	h.respondJSON(w, http.StatusCreated, category)
}

// UpdateCategory handles PATCH /api/v1/categories/{id}
func (h *ReferenceHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	categoryID, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category := &domain.Category{
		ID:          categoryID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := category.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.categories.Update(ctx, category); err != nil {
		if domain.IsNotFound(err) {
			h.respondError(w, http.StatusNotFound, "Category not found")
			return
		}
		if domain.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.ErrorContext(ctx, "failed to update category",
			slog.String("category_id", idStr),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	h.respondJSON(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/v1/categories/{id}
func (h *ReferenceHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	categoryID, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	if err := h.categories.Delete(ctx, categoryID); err != nil {
		if domain.IsNotFound(err) {
			h.respondError(w, http.StatusNotFound, "Category not found")
			return
		}

		h.logger.ErrorContext(ctx, "failed to delete category",
			slog.String("category_id", idStr),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"message":     "Category deleted successfully",
		"category_id": idStr,
	})
}

// ListSuppliers handles GET /api/v1/suppliers
func (h *ReferenceHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	suppliers, err := h.suppliers.FindAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list suppliers",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to list suppliers")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"items": suppliers})
}

// CreateSupplier handles POST /api/v1/suppliers
func (h *ReferenceHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		h.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	supplier := &domain.Supplier{
		ID:            uuid.New(),
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
	}

	if err := h.suppliers.Save(ctx, supplier); err != nil {
		if domain.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.ErrorContext(ctx, "failed to create supplier",
			slog.String("name", req.Name),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create supplier")
		return
	}

	h.respondJSON(w, http.StatusCreated, supplier)
}

// UpdateSupplier handles PATCH /api/v1/suppliers/{id}
func (h *ReferenceHandler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	supplierID, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	var req SupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		h.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	supplier := &domain.Supplier{
		ID:            supplierID,
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
	}

	if err := h.suppliers.Update(ctx, supplier); err != nil {
		if domain.IsNotFound(err) {
			h.respondError(w, http.StatusNotFound, "Supplier not found")
			return
		}
		if domain.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.ErrorContext(ctx, "failed to update supplier",
			slog.String("supplier_id", idStr),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to update supplier")
		return
	}

	h.respondJSON(w, http.StatusOK, supplier)
}

// DeleteSupplier handles DELETE /api/v1/suppliers/{id}
func (h *ReferenceHandler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	supplierID, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	if err := h.suppliers.Delete(ctx, supplierID); err != nil {
		if domain.IsNotFound(err) {
			h.respondError(w, http.StatusNotFound, "Supplier not found")
			return
		}

		h.logger.ErrorContext(ctx, "failed to delete supplier",
			slog.String("supplier_id", idStr),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to delete supplier")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"message":     "Supplier deleted successfully",
		"supplier_id": idStr,
	})
}

func (h *ReferenceHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h *ReferenceHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// CategoryRequest is the request body for creating a category
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SupplierRequest is the request body for creating a supplier
type SupplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	Address       string `json:"address,omitempty"`
}
