package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	// Stock events
	EventProductDeleted  = "stock.product.deleted"
	EventBatchExpiring   = "stock.batch.expiring"
	EventProductLowStock = "stock.product.low_stock"

	// Inventory events (published by the inventory ledger)
	EventTransactionRecorded = "inventory.transaction.recorded"
)

// Exchange names
const (
	ExchangeStockEvents     = "stock.events"
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Stock Events

// ProductDeletedEvent is published after a product and its dependents were removed
type ProductDeletedEvent struct {
	ProductID   string           `json:"product_id"`
	ProductCode string           `json:"product_code"`
	BatchIDs    []string         `json:"batch_ids"`
	RowCounts   map[string]int64 `json:"row_counts"`
	DeletedBy   string           `json:"deleted_by,omitempty"`
}

// BatchExpiringEvent is published by the expiry scan for every expired or
// near-expiry batch that still holds stock
type BatchExpiringEvent struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	BatchID      string          `json:"batch_id"`
	BatchNumber  string          `json:"batch_number"`
	ExpiryDate   time.Time       `json:"expiry_date"`
	ExpiryStatus string          `json:"expiry_status"`
	DaysUntil    int             `json:"days_until"`
	CurrentStock decimal.Decimal `json:"current_stock"`
}

// ProductLowStockEvent is published when a product's saleable stock drops
// below the configured threshold
type ProductLowStockEvent struct {
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	TotalCurrentStock decimal.Decimal `json:"total_current_stock"`
	Threshold         int             `json:"threshold"`
	StockLevel        string          `json:"stock_level"`
}

// Inventory Events

// TransactionRecordedEvent is consumed from the inventory ledger. Only the
// product id matters to the stock service; the rest is logged.
type TransactionRecordedEvent struct {
	TransactionID   string          `json:"transaction_id"`
	ProductID       string          `json:"product_id"`
	BatchID         string          `json:"batch_id,omitempty"`
	TransactionType string          `json:"transaction_type"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}
