package consumers_test

import (
	"context"
	"testing"

	"github.com/chemtrack/chemtrack-backend/internal/stock/consumers"
	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/service"
	"github.com/chemtrack/chemtrack-backend/internal/stock/stocktest"
	"github.com/chemtrack/chemtrack-backend/pkg/config"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
	"github.com/chemtrack/chemtrack-backend/pkg/messaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T) (*consumers.TransactionEventHandler, *stocktest.Store, *stocktest.Publisher) {
	t.Helper()
	store := stocktest.NewStore()
	pub := &stocktest.Publisher{}
	stock := service.NewStockService(
		store.Products(), store.Batches(), store.References(), store.Cascade(), pub,
		config.StockConfig{LowStockThreshold: 500, SummaryConcurrency: 1}, logger.Nop(),
	)
	return consumers.NewTransactionEventHandler(stock, pub, logger.Nop()), store, pub
}

func seedProduct(store *stocktest.Store, stock string) domain.Product {
	p := store.AddProduct(domain.Product{
		ProductName: "Lactose Monohydrate",
		ProductCode: "LAC-01",
		Category:    domain.CategoryExcipient,
		Unit:        domain.UnitKg,
		IsActive:    true,
	})
	store.AddBatch(domain.Batch{
		ProductID:    p.ID,
		BatchNumber:  "L-01",
		CurrentStock: decimal.RequireFromString(stock),
		IsActive:     true,
	})
	return p
}

func transactionEvent(t *testing.T, productID string) *messaging.Event {
	t.Helper()
	event, err := messaging.NewEvent(messaging.EventTransactionRecorded, "inventory-service", "corr-1", messaging.TransactionRecordedEvent{
		TransactionID:   "tx-1",
		ProductID:       productID,
		TransactionType: "outward",
		Quantity:        decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	return event
}

func TestTransactionEventHandler_PublishesLowStock(t *testing.T) {
	h, store, pub := newHandler(t)
	p := seedProduct(store, "120")

	err := h.HandleEvent(context.Background(), transactionEvent(t, p.ID))

	require.NoError(t, err)
	require.Len(t, pub.LowStock, 1)
	assert.Equal(t, p.ID, pub.LowStock[0].ProductID)
	assert.Equal(t, domain.StockLow, pub.LowStock[0].StockLevel)
}

func TestTransactionEventHandler_PublishesOutOfStock(t *testing.T) {
	h, store, pub := newHandler(t)
	p := seedProduct(store, "0")

	require.NoError(t, h.HandleEvent(context.Background(), transactionEvent(t, p.ID)))

	require.Len(t, pub.LowStock, 1)
	assert.Equal(t, domain.StockOutOfStock, pub.LowStock[0].StockLevel)
}

func TestTransactionEventHandler_SufficientStock(t *testing.T) {
	h, store, pub := newHandler(t)
	p := seedProduct(store, "2500")

	require.NoError(t, h.HandleEvent(context.Background(), transactionEvent(t, p.ID)))

	_, _, lowStock := pub.Counts()
	assert.Zero(t, lowStock)
}

func TestTransactionEventHandler_DeletedProductIsAcked(t *testing.T) {
	h, _, pub := newHandler(t)

	err := h.HandleEvent(context.Background(), transactionEvent(t, "gone"))

	assert.NoError(t, err)
	_, _, lowStock := pub.Counts()
	assert.Zero(t, lowStock)
}

func TestTransactionEventHandler_StoreFailureIsRetried(t *testing.T) {
	h, store, pub := newHandler(t)
	p := seedProduct(store, "10")
	store.BatchListErr = assert.AnError

	err := h.HandleEvent(context.Background(), transactionEvent(t, p.ID))

	assert.Error(t, err)
	_, _, lowStock := pub.Counts()
	assert.Zero(t, lowStock)
}

func TestTransactionEventHandler_MalformedPayload(t *testing.T) {
	h, _, _ := newHandler(t)
	event := &messaging.Event{Type: messaging.EventTransactionRecorded, Data: []byte(`"not an object"`)}

	assert.Error(t, h.HandleEvent(context.Background(), event))
}

func TestTransactionEventHandler_UnknownEventIgnored(t *testing.T) {
	h, _, _ := newHandler(t)

	assert.NoError(t, h.HandleEvent(context.Background(), &messaging.Event{Type: "inventory.location.created"}))
}
