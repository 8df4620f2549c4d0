// internal/handlers/ledger_handler_test.go
package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
	"github.com/panuwatk/stockledger-be/internal/handlers"
	"github.com/panuwatk/stockledger-be/test/helpers"
	"github.com/panuwatk/stockledger-be/test/mocks"
)

// passthroughGetOrSet makes the cache mock behave like a cold cache: it
// runs the fetch function and copies the result into dest.
func passthroughGetOrSet(m *mocks.MockCacheRepository) *gomock.Call {
	return m.EXPECT().
		GetOrSet(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, key string, dest interface{}, fetch func() (interface{}, error), ttl time.Duration) error {
			value, err := fetch()
			if err != nil {
				return err
			}
			data, err := json.Marshal(value)
			if err != nil {
				return err
			}
			return json.Unmarshal(data, dest)
		})
}

func TestLedgerHandler_ListMovements(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name           string
		query          string
		setupMocks     func(*mocks.MockLedgerService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:  "successfully_lists_movements",
			query: "?page=1&limit=10",
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					ListMovements(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.MovementListParams) (*ports.MovementListResult, error) {
						assert.Equal(t, 1, params.Page)
						assert.Equal(t, 10, params.Limit)
						return &ports.MovementListResult{
							Items: []*domain.MovementWithProduct{
								{Movement: *helpers.CreateTestMovement(productID)},
							},
							Page:       1,
							Limit:      10,
							TotalCount: 1,
							TotalPages: 1,
						}, nil
					})
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var result ports.MovementListResult
				require.NoError(t, json.Unmarshal(body, &result))
				assert.Len(t, result.Items, 1)
				assert.Equal(t, int64(1), result.TotalCount)
			},
		},
		{
			name:  "type_filter_passed_through",
			query: "?type=OUT",
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					ListMovements(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.MovementListParams) (*ports.MovementListResult, error) {
						assert.Equal(t, domain.MovementOut, params.Type)
						return &ports.MovementListResult{Items: []*domain.MovementWithProduct{}}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "invalid_type_maps_to_400",
			query: "?type=SIDEWAYS",
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					ListMovements(gomock.Any(), gomock.Any()).
					Return(nil, &domain.ValidationError{Field: "type", Message: "invalid movement type: SIDEWAYS"})
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockLedgerService(ctrl)
			mockCache := mocks.NewMockCacheRepository(ctrl)
			logger := helpers.TestLogger()
			handler := handlers.NewLedgerHandler(mockService, mockCache, logger)

			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/stock/movements"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.ListMovements(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestLedgerHandler_ListMovementsByProduct(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name           string
		productID      string
		setupMocks     func(*mocks.MockLedgerService)
		expectedStatus int
	}{
		{
			name:      "successfully_lists_product_movements",
			productID: productID.String(),
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					ListMovementsByProduct(gomock.Any(), productID, gomock.Any()).
					Return(&ports.MovementListResult{
						Items: []*domain.MovementWithProduct{
							{Movement: *helpers.CreateTestMovement(productID)},
						},
						TotalCount: 1,
					}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_uuid_format",
			productID:      "not-a-uuid",
			setupMocks:     func(m *mocks.MockLedgerService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "unknown_product_maps_to_404",
			productID: productID.String(),
			setupMocks: func(m *mocks.MockLedgerService) {
				m.EXPECT().
					ListMovementsByProduct(gomock.Any(), productID, gomock.Any()).
					Return(nil, &domain.NotFoundError{Resource: "product", ID: productID.String()})
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockLedgerService(ctrl)
			mockCache := mocks.NewMockCacheRepository(ctrl)
			logger := helpers.TestLogger()
			handler := handlers.NewLedgerHandler(mockService, mockCache, logger)

			tt.setupMocks(mockService)

			req := httptest.NewRequest("GET", "/api/v1/stock/movements/product/"+tt.productID, nil)
			req.SetPathValue("id", tt.productID)
			w := httptest.NewRecorder()

			handler.ListMovementsByProduct(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestLedgerHandler_GetReport(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMocks     func(*mocks.MockLedgerService, *mocks.MockCacheRepository)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:  "returns_summary_grouped_by_type",
			query: "",
			setupMocks: func(m *mocks.MockLedgerService, c *mocks.MockCacheRepository) {
				passthroughGetOrSet(c)
				m.EXPECT().
					GetReport(gomock.Any(), gomock.Any()).
					Return([]domain.MovementSummary{
						{Type: domain.MovementIn, TotalQuantity: 20, Count: 1},
						{Type: domain.MovementOut, TotalQuantity: 70, Count: 1},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var response struct {
					Summary []domain.MovementSummary `json:"summary"`
				}
				require.NoError(t, json.Unmarshal(body, &response))
				require.Len(t, response.Summary, 2)
				assert.Equal(t, int64(20), response.Summary[0].TotalQuantity)
				assert.Equal(t, int64(70), response.Summary[1].TotalQuantity)
			},
		},
		{
			name:  "date_range_parsed_and_passed_through",
			query: "?startDate=2025-06-01&endDate=2025-06-30",
			setupMocks: func(m *mocks.MockLedgerService, c *mocks.MockCacheRepository) {
				passthroughGetOrSet(c)
				m.EXPECT().
					GetReport(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, params ports.ReportParams) ([]domain.MovementSummary, error) {
						require.NotNil(t, params.StartDate)
						require.NotNil(t, params.EndDate)
						assert.Equal(t, "2025-06-01", params.StartDate.Format("2006-01-02"))
						assert.Equal(t, "2025-06-30", params.EndDate.Format("2006-01-02"))
						return []domain.MovementSummary{}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_start_date_maps_to_400",
			query:          "?startDate=06/01/2025",
			setupMocks:     func(m *mocks.MockLedgerService, c *mocks.MockCacheRepository) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "invalid startDate, expected YYYY-MM-DD", response["error"])
			},
		},
		{
			name:  "validation_error_from_service_maps_to_400",
			query: "?startDate=2025-06-30&endDate=2025-06-01",
			setupMocks: func(m *mocks.MockLedgerService, c *mocks.MockCacheRepository) {
				passthroughGetOrSet(c)
				m.EXPECT().
					GetReport(gomock.Any(), gomock.Any()).
					Return(nil, &domain.ValidationError{Field: "endDate", Message: "end date must not be before start date"})
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockLedgerService(ctrl)
			mockCache := mocks.NewMockCacheRepository(ctrl)
			logger := helpers.TestLogger()
			handler := handlers.NewLedgerHandler(mockService, mockCache, logger)

			tt.setupMocks(mockService, mockCache)

			req := httptest.NewRequest("GET", "/api/v1/stock/report"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.GetReport(w, req)

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}
