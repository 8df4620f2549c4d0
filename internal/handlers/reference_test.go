// internal/handlers/reference_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/handlers"
	"github.com/panuwatk/stockledger-be/test/helpers"
	"github.com/panuwatk/stockledger-be/test/mocks"
)

func TestReferenceHandler_UpdateCategory(t *testing.T) {
	categoryID := uuid.New()

	testCases := []struct {
		name           string
		pathID         string
		body           string
		setupMocks     func(categories *mocks.MockCategoryRepository)
		expectedStatus int
		validateBody   func(t *testing.T, body []byte)
	}{
		{
			name:   "successful_update",
			pathID: categoryID.String(),
			body:   `{"name":"Electronics","description":"Gadgets and parts"}`,
			setupMocks: func(categories *mocks.MockCategoryRepository) {
				categories.EXPECT().
					Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, c *domain.Category) error {
						assert.Equal(t, categoryID, c.ID)
						assert.Equal(t, "Electronics", c.Name)
						return nil
					})
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var category domain.Category
				require.NoError(t, json.Unmarshal(body, &category))
				assert.Equal(t, categoryID, category.ID)
				assert.Equal(t, "Electronics", category.Name)
			},
		},
		{
			name:           "invalid_category_id",
			pathID:         "not-a-uuid",
			body:           `{"name":"Electronics"}`,
			setupMocks:     func(categories *mocks.MockCategoryRepository) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "Invalid category ID format")
			},
		},
		{
			name:           "missing_name",
			pathID:         categoryID.String(),
			body:           `{"description":"no name"}`,
			setupMocks:     func(categories *mocks.MockCategoryRepository) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "name is required")
			},
		},
		{
			name:   "category_not_found",
			pathID: categoryID.String(),
			body:   `{"name":"Electronics"}`,
			setupMocks: func(categories *mocks.MockCategoryRepository) {
				categories.EXPECT().
					Update(gomock.Any(), gomock.Any()).
					Return(&domain.NotFoundError{Resource: "category", ID: categoryID.String()})
			},
			expectedStatus: http.StatusNotFound,
			validateBody: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "Category not found")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockCategories := mocks.NewMockCategoryRepository(ctrl)
			mockSuppliers := mocks.NewMockSupplierRepository(ctrl)
			tc.setupMocks(mockCategories)

			handler := handlers.NewReferenceHandler(mockCategories, mockSuppliers, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPatch,
				"/api/v1/categories/"+tc.pathID, bytes.NewBufferString(tc.body))
			req.SetPathValue("id", tc.pathID)
			rec := httptest.NewRecorder()

			handler.UpdateCategory(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.validateBody != nil {
				tc.validateBody(t, rec.Body.Bytes())
			}
		})
	}
}

func TestReferenceHandler_UpdateSupplier(t *testing.T) {
	supplierID := uuid.New()

	testCases := []struct {
		name           string
		pathID         string
		body           string
		setupMocks     func(suppliers *mocks.MockSupplierRepository)
		expectedStatus int
		validateBody   func(t *testing.T, body []byte)
	}{
		{
			name:   "successful_update",
			pathID: supplierID.String(),
			body:   `{"name":"Acme Supply","contact_person":"Jordan","phone":"555-0100"}`,
			setupMocks: func(suppliers *mocks.MockSupplierRepository) {
				suppliers.EXPECT().
					Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, s *domain.Supplier) error {
						assert.Equal(t, supplierID, s.ID)
						assert.Equal(t, "Acme Supply", s.Name)
						assert.Equal(t, "Jordan", s.ContactPerson)
						return nil
					})
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var supplier domain.Supplier
				require.NoError(t, json.Unmarshal(body, &supplier))
				assert.Equal(t, supplierID, supplier.ID)
				assert.Equal(t, "Acme Supply", supplier.Name)
			},
		},
		{
			name:           "missing_name",
			pathID:         supplierID.String(),
			body:           `{"phone":"555-0100"}`,
			setupMocks:     func(suppliers *mocks.MockSupplierRepository) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "name is required")
			},
		},
		{
			name:   "supplier_not_found",
			pathID: supplierID.String(),
			body:   `{"name":"Acme Supply"}`,
			setupMocks: func(suppliers *mocks.MockSupplierRepository) {
				suppliers.EXPECT().
					Update(gomock.Any(), gomock.Any()).
					Return(&domain.NotFoundError{Resource: "supplier", ID: supplierID.String()})
			},
			expectedStatus: http.StatusNotFound,
			validateBody: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "Supplier not found")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockCategories := mocks.NewMockCategoryRepository(ctrl)
			mockSuppliers := mocks.NewMockSupplierRepository(ctrl)
			tc.setupMocks(mockSuppliers)

			handler := handlers.NewReferenceHandler(mockCategories, mockSuppliers, helpers.TestLogger())

			req := httptest.NewRequest(http.MethodPatch,
				"/api/v1/suppliers/"+tc.pathID, bytes.NewBufferString(tc.body))
			req.SetPathValue("id", tc.pathID)
			rec := httptest.NewRecorder()

			handler.UpdateSupplier(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.validateBody != nil {
				tc.validateBody(t, rec.Body.Bytes())
			}
		})
	}
}
