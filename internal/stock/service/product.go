package service

import (
	"context"
	"time"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/repository"
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/chemtrack/chemtrack-backend/pkg/httputil"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
)

// ProductService maintains the product catalogue and registers batches
type ProductService struct {
	products ProductStore
	batches  BatchSource
	now      Clock
	logger   *logger.Logger
}

// NewProductService creates a new product service
func NewProductService(products ProductStore, batches BatchSource, log *logger.Logger) *ProductService {
	return &ProductService{
		products: products,
		batches:  batches,
		now:      time.Now,
		logger:   log.WithComponent("catalogue"),
	}
}

// Product operations

// CreateProduct stores a new active product with its pack count derived
func (s *ProductService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := p.RecomputePacks(); err != nil {
		return err
	}
	p.IsActive = true
	if userID := httputil.GetUserID(ctx); userID != "" {
		p.CreatedBy = &userID
	}

	if err := s.products.Create(ctx, p); err != nil {
		return err
	}

	s.logger.Info().Str("product_id", p.ID).Str("product_code", p.ProductCode).Msg("product created")
	return nil
}

// GetProduct gets a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// ListProducts lists products, newest first
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	return s.products.List(ctx, filter)
}

// UpdateProduct replaces the editable fields of an existing product and
// recomputes its pack count. Creation metadata is kept, and so is the active
// flag unless active is set.
func (s *ProductService) UpdateProduct(ctx context.Context, p *domain.Product, active *bool) error {
	existing, err := s.products.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}

	if err := p.RecomputePacks(); err != nil {
		return err
	}
	p.CreatedBy = existing.CreatedBy
	p.CreatedAt = existing.CreatedAt
	p.IsActive = existing.IsActive
	if active != nil {
		p.IsActive = *active
	}

	return s.products.Update(ctx, p)
}

// DeactivateProduct hides the product from stock views. It is the way out for
// products that cannot be deleted.
func (s *ProductService) DeactivateProduct(ctx context.Context, id string) error {
	if err := s.products.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.logger.Info().Str("product_id", id).Msg("product deactivated")
	return nil
}

// Batch operations

// CreateBatch registers a new active batch for an existing product
func (s *ProductService) CreateBatch(ctx context.Context, b *domain.Batch) error {
	product, err := s.products.GetByID(ctx, b.ProductID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return errors.BadRequest("cannot add a batch to an inactive product")
	}
	if !b.CurrentStock.IsPositive() {
		return errors.Validation(map[string]string{"current_stock": "must be greater than zero"})
	}

	b.IsActive = true
	if b.ImportDate.IsZero() {
		b.ImportDate = s.now()
	}

	return s.batches.Create(ctx, b)
}

// GetBatch gets a batch by ID
func (s *ProductService) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	return s.batches.GetByID(ctx, id)
}

// DeactivateBatch takes a batch out of stock without deleting it
func (s *ProductService) DeactivateBatch(ctx context.Context, id string) error {
	return s.batches.SetActive(ctx, id, false)
}
