// internal/workers/lowstock_processor_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panuwatk/stockledger-be/internal/pkg/config"
	"github.com/panuwatk/stockledger-be/internal/workers"
	"github.com/panuwatk/stockledger-be/test/helpers"
)

func TestNewLowStockAlertTask(t *testing.T) {
	productID := uuid.New()

	task, err := workers.NewLowStockAlertTask(productID, "Test Widget", "SKU-TEST-001", 5, 10)
	require.NoError(t, err)
	assert.Equal(t, workers.TypeLowStockAlert, task.Type())

	var payload workers.LowStockAlertPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, productID.String(), payload.ProductID)
	assert.Equal(t, "SKU-TEST-001", payload.SKU)
	assert.Equal(t, 5, payload.CurrentStock)
	assert.Equal(t, 10, payload.MinStockLevel)
}

func TestLowStockProcessor_ProcessAlert(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Environment: "development"},
		Alerts: config.AlertsConfig{
			Recipient: "warehouse@example.com",
			Sender:    "noreply@stockledger.local",
		},
	}
	processor := workers.NewLowStockProcessor(cfg, helpers.TestLogger())

	t.Run("development_logs_without_sending", func(t *testing.T) {
		task, err := workers.NewLowStockAlertTask(uuid.New(), "Test Widget", "SKU-TEST-001", 5, 10)
		require.NoError(t, err)

		assert.NoError(t, processor.ProcessAlert(context.Background(), task))
	})

	t.Run("malformed_payload_fails", func(t *testing.T) {
		task := asynq.NewTask(workers.TypeLowStockAlert, []byte("{not-json"))

		err := processor.ProcessAlert(context.Background(), task)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal payload")
	})
}
