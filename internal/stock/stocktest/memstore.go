// Package stocktest provides in-memory stores for the stock service ports.
// They keep the same contracts as the Postgres repositories so service,
// handler and consumer tests run without a database.
package stocktest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/internal/stock/repository"
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/google/uuid"
)

// Store holds products, batches and blocking references in memory
type Store struct {
	mu       sync.Mutex
	products map[string]domain.Product
	batches  map[string]domain.Batch
	refs     map[string]domain.BlockReason

	// BatchListErr, when set, fails every batch listing
	BatchListErr error
	// CascadeErr, when set, fails every cascade delete without touching data
	CascadeErr error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		products: make(map[string]domain.Product),
		batches:  make(map[string]domain.Batch),
		refs:     make(map[string]domain.BlockReason),
	}
}

// AddProduct seeds a product and returns it with its id set
func (s *Store) AddProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	s.products[p.ID] = p
	return p
}

// AddBatch seeds a batch and returns it with its id set
func (s *Store) AddBatch(b domain.Batch) domain.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	s.batches[b.ID] = b
	return b
}

// Reference marks the product as referenced by reason
func (s *Store) Reference(productID string, reason domain.BlockReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[productID] = reason
}

// HasProduct reports whether the product row exists
func (s *Store) HasProduct(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.products[id]
	return ok
}

// BatchCount returns the number of batches stored for the product
func (s *Store) BatchCount(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		if b.ProductID == productID {
			n++
		}
	}
	return n
}

// Products returns the ProductStore view of the store
func (s *Store) Products() *Products { return &Products{s} }

// Batches returns the BatchSource view of the store
func (s *Store) Batches() *Batches { return &Batches{s} }

// References returns the ReferenceChecker view of the store
func (s *Store) References() *References { return &References{s} }

// Cascade returns the CascadeStore view of the store
func (s *Store) Cascade() *Cascade { return &Cascade{s} }

// Products implements the product store
type Products struct{ s *Store }

// Create stores p, rejecting duplicate product codes
func (r *Products) Create(ctx context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.products {
		if existing.ProductCode == p.ProductCode {
			return errors.Conflict("a product with this product code already exists")
		}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.products[p.ID] = *p
	return nil
}

// GetByID returns the product or NotFound
func (r *Products) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, errors.NotFound("product")
	}
	return &p, nil
}

// List applies the active, category and search filters
func (r *Products) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Product{}
	for _, p := range r.s.products {
		if !filter.IncludeInactive && !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.ProductName), q) && !strings.Contains(strings.ToLower(p.ProductCode), q) {
				continue
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.SortByName && out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update replaces a stored product
func (r *Products) Update(ctx context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; !ok {
		return errors.NotFound("product")
	}
	p.UpdatedAt = time.Now()
	r.s.products[p.ID] = *p
	return nil
}

// SetActive flips the product's active flag
func (r *Products) SetActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return errors.NotFound("product")
	}
	p.IsActive = active
	r.s.products[id] = p
	return nil
}

// Batches implements the batch source
type Batches struct{ s *Store }

// Create stores b, rejecting duplicate batch numbers within a product
func (r *Batches) Create(ctx context.Context, b *domain.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.batches {
		if existing.ProductID == b.ProductID && existing.BatchNumber == b.BatchNumber {
			return errors.Conflict("this product already has a batch with this batch number")
		}
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.batches[b.ID] = *b
	return nil
}

// GetByID returns the batch or NotFound
func (r *Batches) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[id]
	if !ok {
		return nil, errors.NotFound("batch")
	}
	return &b, nil
}

// SetActive flips the batch's active flag
func (r *Batches) SetActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[id]
	if !ok {
		return errors.NotFound("batch")
	}
	b.IsActive = active
	r.s.batches[id] = b
	return nil
}

// ListByProduct returns every batch of the product ordered by id
func (r *Batches) ListByProduct(ctx context.Context, productID string) ([]domain.Batch, error) {
	return r.list(func(b domain.Batch) bool { return b.ProductID == productID })
}

// ListInStockByProduct returns active positive-stock batches ordered by id.
// The service must apply the FEFO order itself.
func (r *Batches) ListInStockByProduct(ctx context.Context, productID string) ([]domain.Batch, error) {
	return r.list(func(b domain.Batch) bool { return b.ProductID == productID && b.InStock() })
}

// ListRefsByProduct returns the product's batch refs ordered by batch number
func (r *Batches) ListRefsByProduct(ctx context.Context, productID string) ([]domain.BatchRef, error) {
	batches, err := r.list(func(b domain.Batch) bool { return b.ProductID == productID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(batches, func(i, j int) bool { return batches[i].BatchNumber < batches[j].BatchNumber })
	refs := make([]domain.BatchRef, len(batches))
	for i, b := range batches {
		refs[i] = domain.BatchRef{ID: b.ID, BatchNumber: b.BatchNumber}
	}
	return refs, nil
}

// ListExpiring returns in-stock batches of active products dated on or before until
func (r *Batches) ListExpiring(ctx context.Context, until time.Time) ([]repository.ExpiringBatch, error) {
	batches, err := r.list(func(b domain.Batch) bool {
		return b.InStock() && b.ExpiryDate != nil && !b.ExpiryDate.After(until)
	})
	if err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []repository.ExpiringBatch{}
	for _, b := range domain.OrderBatches(batches) {
		p, ok := r.s.products[b.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		out = append(out, repository.ExpiringBatch{Batch: b, ProductName: p.ProductName})
	}
	return out, nil
}

func (r *Batches) list(keep func(domain.Batch) bool) ([]domain.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.BatchListErr != nil {
		return nil, r.s.BatchListErr
	}
	out := []domain.Batch{}
	for _, b := range r.s.batches {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// References implements the reference checker
type References struct{ s *Store }

// FindBlockingReference returns the reason recorded with Reference
func (r *References) FindBlockingReference(ctx context.Context, productID string) (domain.BlockReason, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.refs[productID], nil
}

// Cascade implements the cascade store
type Cascade struct{ s *Store }

// DeleteProduct removes the product and its batches with the same checks as
// the Postgres cascade
func (r *Cascade) DeleteProduct(ctx context.Context, productID string, confirmedBatchIDs []string) (*domain.DeletionReport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.CascadeErr != nil {
		return nil, r.s.CascadeErr
	}
	if _, ok := r.s.products[productID]; !ok {
		return nil, errors.NotFound("product")
	}
	if reason := r.s.refs[productID]; reason != "" {
		return nil, errors.DeletionBlocked(string(reason))
	}

	var ids []string
	for id, b := range r.s.batches {
		if b.ProductID == productID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	confirmed := append([]string(nil), confirmedBatchIDs...)
	sort.Strings(confirmed)
	if strings.Join(ids, ",") != strings.Join(confirmed, ",") {
		return nil, errors.Conflict("product batches changed since the deletion check")
	}

	for _, id := range ids {
		delete(r.s.batches, id)
	}
	delete(r.s.products, productID)

	report := &domain.DeletionReport{ProductID: productID, BatchIDs: ids}
	for _, step := range domain.CascadeSteps {
		var rows int64
		switch step {
		case domain.StepBatches:
			rows = int64(len(ids))
		case domain.StepProduct:
			rows = 1
		}
		report.Steps = append(report.Steps, domain.DeletedRows{Step: step, Rows: rows})
	}
	return report, nil
}

// Publisher records the stock events it is asked to publish
type Publisher struct {
	mu       sync.Mutex
	Deleted  []DeletedEvent
	Expiring []domain.BatchView
	LowStock []domain.StockSummary
}

// DeletedEvent is one recorded product deletion
type DeletedEvent struct {
	Product   domain.Product
	Report    domain.DeletionReport
	DeletedBy string
}

// PublishProductDeleted records the deletion
func (p *Publisher) PublishProductDeleted(ctx context.Context, product *domain.Product, report *domain.DeletionReport, deletedBy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Deleted = append(p.Deleted, DeletedEvent{Product: *product, Report: *report, DeletedBy: deletedBy})
}

// PublishBatchExpiring records the batch
func (p *Publisher) PublishBatchExpiring(ctx context.Context, productName string, view domain.BatchView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Expiring = append(p.Expiring, view)
}

// PublishLowStock records the summary
func (p *Publisher) PublishLowStock(ctx context.Context, summary *domain.StockSummary, threshold int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LowStock = append(p.LowStock, *summary)
}

// Counts returns the number of deleted, expiring and low stock events
func (p *Publisher) Counts() (deleted, expiring, lowStock int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Deleted), len(p.Expiring), len(p.LowStock)
}
