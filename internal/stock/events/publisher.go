package events

import (
	"context"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
	"github.com/chemtrack/chemtrack-backend/pkg/messaging"
)

// Publisher is the transport the stock events go out on. *messaging.Publisher
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// StockEventPublisher publishes stock-related events. Publish failures are
// logged, never returned: the database change they describe is already committed.
type StockEventPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewStockEventPublisher creates a publisher on the stock events exchange
func NewStockEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*StockEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockEvents, "stock-service", log)
	if err != nil {
		return nil, err
	}

	return NewStockEventPublisherWith(publisher, log), nil
}

// NewStockEventPublisherWith wraps an existing transport
func NewStockEventPublisherWith(publisher Publisher, log *logger.Logger) *StockEventPublisher {
	return &StockEventPublisher{
		publisher: publisher,
		logger:    log.WithComponent("stock-events"),
	}
}

// PublishProductDeleted announces a committed cascade delete
func (p *StockEventPublisher) PublishProductDeleted(ctx context.Context, product *domain.Product, report *domain.DeletionReport, deletedBy string) {
	if p == nil {
		return
	}

	data := messaging.ProductDeletedEvent{
		ProductID:   report.ProductID,
		ProductCode: product.ProductCode,
		BatchIDs:    report.BatchIDs,
		RowCounts:   report.RowCounts(),
		DeletedBy:   deletedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventProductDeleted, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", report.ProductID).Msg("failed to publish product deleted event")
	}
}

// PublishBatchExpiring announces a batch that is expired or close to expiry
func (p *StockEventPublisher) PublishBatchExpiring(ctx context.Context, productName string, view domain.BatchView) {
	if p == nil {
		return
	}

	data := messaging.BatchExpiringEvent{
		ProductID:    view.ProductID,
		ProductName:  productName,
		BatchID:      view.ID,
		BatchNumber:  view.BatchNumber,
		ExpiryStatus: string(view.ExpiryStatus),
		CurrentStock: view.CurrentStock,
	}
	if view.ExpiryDate != nil {
		data.ExpiryDate = *view.ExpiryDate
	}
	if view.DaysUntilExpiry != nil {
		data.DaysUntil = *view.DaysUntilExpiry
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchExpiring, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", view.ID).Msg("failed to publish batch expiring event")
	}
}

// PublishLowStock announces a product whose total stock fell below the threshold
func (p *StockEventPublisher) PublishLowStock(ctx context.Context, summary *domain.StockSummary, threshold int) {
	if p == nil {
		return
	}

	data := messaging.ProductLowStockEvent{
		ProductID:         summary.ProductID,
		ProductName:       summary.ProductName,
		TotalCurrentStock: summary.TotalCurrentStock,
		Threshold:         threshold,
		StockLevel:        string(summary.StockLevel),
	}

	if err := p.publisher.Publish(ctx, messaging.EventProductLowStock, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", summary.ProductID).Msg("failed to publish low stock event")
	}
}
