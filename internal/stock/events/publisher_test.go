package events_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/events"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
	"github.com/chemtrack/chemtrack-backend/pkg/messaging"
	"github.com/chemtrack/chemtrack-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishProductDeleted(t *testing.T) {
	mock := testutil.NewMockPublisher()
	pub := events.NewStockEventPublisherWith(mock, logger.Nop())

	report := &domain.DeletionReport{
		ProductID: "p1",
		BatchIDs:  []string{"b1"},
		Steps: []domain.DeletedRows{
			{Step: domain.StepBatches, Rows: 1},
			{Step: domain.StepProduct, Rows: 1},
		},
	}
	pub.PublishProductDeleted(context.Background(), &domain.Product{ID: "p1", ProductCode: "PCM-01"}, report, "user-7")

	published := mock.Events(messaging.EventProductDeleted)
	require.Len(t, published, 1)
	data, ok := published[0].Payload.(messaging.ProductDeletedEvent)
	require.True(t, ok)
	assert.Equal(t, "PCM-01", data.ProductCode)
	assert.Equal(t, "user-7", data.DeletedBy)
	assert.Equal(t, int64(1), data.RowCounts[domain.StepBatches])
}

func TestPublishBatchExpiring(t *testing.T) {
	mock := testutil.NewMockPublisher()
	pub := events.NewStockEventPublisherWith(mock, logger.Nop())

	days := 12
	view := domain.BatchView{
		Batch: domain.Batch{
			ID:           "b1",
			ProductID:    "p1",
			BatchNumber:  "B-01",
			CurrentStock: decimal.NewFromInt(40),
			ExpiryDate:   testutil.PtrTime(testutil.Date(2026, 10, 30)),
		},
		ExpiryStatus:    domain.ExpiryNearExpiry,
		DaysUntilExpiry: &days,
	}
	pub.PublishBatchExpiring(context.Background(), "Paracetamol", view)

	published := mock.Events(messaging.EventBatchExpiring)
	require.Len(t, published, 1)
	data := published[0].Payload.(messaging.BatchExpiringEvent)
	assert.Equal(t, "near_expiry", data.ExpiryStatus)
	assert.Equal(t, 12, data.DaysUntil)
	assert.Equal(t, "Paracetamol", data.ProductName)
}

func TestPublish_ErrorIsSwallowed(t *testing.T) {
	mock := testutil.NewMockPublisher()
	mock.Err = fmt.Errorf("channel closed")
	pub := events.NewStockEventPublisherWith(mock, logger.Nop())

	assert.NotPanics(t, func() {
		pub.PublishLowStock(context.Background(), &domain.StockSummary{ProductID: "p1"}, 500)
	})
}

func TestNilPublisher(t *testing.T) {
	var pub *events.StockEventPublisher
	assert.NotPanics(t, func() {
		pub.PublishLowStock(context.Background(), &domain.StockSummary{ProductID: "p1"}, 500)
	})
}
