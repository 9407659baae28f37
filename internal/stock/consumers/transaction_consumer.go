package consumers

import (
	"context"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/service"
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
	"github.com/chemtrack/chemtrack-backend/pkg/messaging"
)

// QueueName is the stock service's queue for inventory ledger events
const QueueName = "stock-service.inventory-events"

// StockSummarizer recomputes a product's stock summary
type StockSummarizer interface {
	SummarizeStock(ctx context.Context, productID string) (*domain.StockSummary, error)
	LowStockThreshold() int
}

// TransactionEventHandler re-evaluates stock levels after ledger movements
// (testable without RabbitMQ)
type TransactionEventHandler struct {
	stock     StockSummarizer
	publisher service.EventPublisher
	logger    *logger.Logger
}

// NewTransactionEventHandler creates a new handler
func NewTransactionEventHandler(stock StockSummarizer, publisher service.EventPublisher, log *logger.Logger) *TransactionEventHandler {
	return &TransactionEventHandler{
		stock:     stock,
		publisher: publisher,
		logger:    log,
	}
}

// HandleEvent dispatches an inventory event
func (h *TransactionEventHandler) HandleEvent(ctx context.Context, event *messaging.Event) error {
	switch event.Type {
	case messaging.EventTransactionRecorded:
		return h.handleTransactionRecorded(ctx, event)
	default:
		h.logger.Warn().Str("event_type", event.Type).Msg("unknown event type received")
		return nil
	}
}

// handleTransactionRecorded publishes a low stock alert when the movement left
// the product low or out of stock
func (h *TransactionEventHandler) handleTransactionRecorded(ctx context.Context, event *messaging.Event) error {
	var data messaging.TransactionRecordedEvent
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.Error().Err(err).Msg("failed to unmarshal TransactionRecordedEvent")
		return err
	}

	if data.ProductID == "" {
		h.logger.Warn().
			Str("event_id", event.ID).
			Str("transaction_id", data.TransactionID).
			Msg("transaction event without product id, skipping")
		return nil
	}

	summary, err := h.stock.SummarizeStock(ctx, data.ProductID)
	if err != nil {
		// The product was deleted after the movement; nothing left to alert on
		if errors.Is(err, errors.ErrNotFound) {
			h.logger.Debug().Str("product_id", data.ProductID).Msg("product no longer exists, skipping stock check")
			return nil
		}
		h.logger.Error().Err(err).Str("product_id", data.ProductID).Msg("failed to summarize stock")
		return err
	}

	h.logger.Debug().
		Str("product_id", data.ProductID).
		Str("transaction_type", data.TransactionType).
		Str("quantity", data.Quantity.String()).
		Str("stock_level", string(summary.StockLevel)).
		Msg("stock re-evaluated")

	if summary.StockLevel == domain.StockOK {
		return nil
	}

	h.publisher.PublishLowStock(ctx, summary, h.stock.LowStockThreshold())
	return nil
}

// TransactionEventConsumer consumes inventory ledger events
type TransactionEventConsumer struct {
	consumer *messaging.Consumer
	handler  *TransactionEventHandler
	logger   *logger.Logger
}

// NewTransactionEventConsumer declares the queue and binds it to the
// transaction recorded events
func NewTransactionEventConsumer(rmq *messaging.RabbitMQ, stock StockSummarizer, publisher service.EventPublisher, log *logger.Logger) (*TransactionEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, QueueName, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeInventoryEvents, messaging.EventTransactionRecorded); err != nil {
		return nil, err
	}

	handler := NewTransactionEventHandler(stock, publisher, log)
	consumer.RegisterHandler(messaging.EventTransactionRecorded, handler.handleTransactionRecorded)

	return &TransactionEventConsumer{
		consumer: consumer,
		handler:  handler,
		logger:   log,
	}, nil
}

// Start starts consuming messages
func (c *TransactionEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}
