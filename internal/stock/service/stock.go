package service

import (
	"context"
	"sort"
	"time"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/repository"
	"github.com/chemtrack/chemtrack-backend/pkg/config"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// StockService answers stock questions about products and decides whether
// they may be deleted
type StockService struct {
	products  ProductStore
	batches   BatchSource
	refs      ReferenceChecker
	cascade   CascadeStore
	publisher EventPublisher
	cfg       config.StockConfig
	now       Clock
	logger    *logger.Logger
}

// NewStockService creates a new stock service
func NewStockService(
	products ProductStore,
	batches BatchSource,
	refs ReferenceChecker,
	cascade CascadeStore,
	publisher EventPublisher,
	cfg config.StockConfig,
	log *logger.Logger,
) *StockService {
	if cfg.SummaryConcurrency < 1 {
		cfg.SummaryConcurrency = 1
	}
	return &StockService{
		products:  products,
		batches:   batches,
		refs:      refs,
		cascade:   cascade,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		logger:    log.WithComponent("stock"),
	}
}

// WithClock replaces the service clock
func (s *StockService) WithClock(now Clock) *StockService {
	s.now = now
	return s
}

// LowStockThreshold returns the configured threshold
func (s *StockService) LowStockThreshold() int {
	return s.cfg.LowStockThreshold
}

// ListStockOptions controls ListStock
type ListStockOptions struct {
	// IncludeEmpty keeps products whose total stock is zero
	IncludeEmpty bool
}

// SummarizeStock derives the stock summary of one product from all its batches
func (s *StockService) SummarizeStock(ctx context.Context, productID string) (*domain.StockSummary, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	batches, err := s.batches.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	summary := domain.Summarize(product, batches, s.now(), s.cfg.LowStockThreshold)
	return &summary, nil
}

// ListStock summarizes every active product, ordered by product name.
// Products without stock are left out unless opts.IncludeEmpty is set.
func (s *StockService) ListStock(ctx context.Context, opts ListStockOptions) ([]domain.StockSummary, error) {
	products, err := s.products.List(ctx, repository.ProductFilter{SortByName: true})
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]domain.StockSummary, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SummaryConcurrency)
	for i := range products {
		i := i
		g.Go(func() error {
			batches, err := s.batches.ListByProduct(gctx, products[i].ID)
			if err != nil {
				return err
			}
			summaries[i] = domain.Summarize(&products[i], batches, now, s.cfg.LowStockThreshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.StockSummary, 0, len(summaries))
	for _, summary := range summaries {
		if opts.IncludeEmpty || summary.InStock() {
			out = append(out, summary)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProductName < out[j].ProductName
	})
	return out, nil
}

// ListOrderedBatches returns the product's active batches with positive stock
// in the order they should be consumed, each annotated with its expiry class
func (s *StockService) ListOrderedBatches(ctx context.Context, productID string) ([]domain.BatchView, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	batches, err := s.batches.ListInStockByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ordered := domain.OrderBatches(domain.FilterInStock(batches))
	views := make([]domain.BatchView, len(ordered))
	for i, b := range ordered {
		views[i] = domain.NewBatchView(b, now)
	}
	return views, nil
}

// Dashboard totals the in-stock summaries
func (s *StockService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	summaries, err := s.ListStock(ctx, ListStockOptions{})
	if err != nil {
		return nil, err
	}
	d := domain.BuildDashboard(summaries)
	return &d, nil
}
