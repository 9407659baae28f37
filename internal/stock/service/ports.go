package service

import (
	"context"
	"time"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/repository"
)

// ProductStore persists the product catalogue
type ProductStore interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	SetActive(ctx context.Context, id string, active bool) error
}

// BatchSource reads and registers batches
type BatchSource interface {
	Create(ctx context.Context, b *domain.Batch) error
	GetByID(ctx context.Context, id string) (*domain.Batch, error)
	SetActive(ctx context.Context, id string, active bool) error
	ListByProduct(ctx context.Context, productID string) ([]domain.Batch, error)
	ListInStockByProduct(ctx context.Context, productID string) ([]domain.Batch, error)
	ListRefsByProduct(ctx context.Context, productID string) ([]domain.BatchRef, error)
	ListExpiring(ctx context.Context, until time.Time) ([]repository.ExpiringBatch, error)
}

// ReferenceChecker finds records in other modules that keep a product alive
type ReferenceChecker interface {
	FindBlockingReference(ctx context.Context, productID string) (domain.BlockReason, error)
}

// CascadeStore removes a product and its dependents in one transaction
type CascadeStore interface {
	DeleteProduct(ctx context.Context, productID string, confirmedBatchIDs []string) (*domain.DeletionReport, error)
}

// EventPublisher announces stock changes to other services
type EventPublisher interface {
	PublishProductDeleted(ctx context.Context, product *domain.Product, report *domain.DeletionReport, deletedBy string)
	PublishBatchExpiring(ctx context.Context, productName string, view domain.BatchView)
	PublishLowStock(ctx context.Context, summary *domain.StockSummary, threshold int)
}

// Clock returns the current time
type Clock func() time.Time
