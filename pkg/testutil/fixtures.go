package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ProductFixture represents test product data
type ProductFixture struct {
	ID          string
	ProductName string
	ProductCode string
	Category    string
	Unit        string
	IsActive    bool
}

// BatchFixture represents test batch data
type BatchFixture struct {
	ID           string
	ProductID    string
	BatchNumber  string
	CurrentStock string
	ExpiryDate   *time.Time
	IsActive     bool
}

// FixtureFactory inserts rows with sensible defaults
type FixtureFactory struct {
	db       *sqlx.DB
	sequence int
}

// NewFixtureFactory creates a new fixture factory writing to db
func NewFixtureFactory(db *sqlx.DB) *FixtureFactory {
	return &FixtureFactory{db: db}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Product inserts a product with defaults
func (f *FixtureFactory) Product(t *testing.T, ctx context.Context, opts ...func(*ProductFixture)) ProductFixture {
	t.Helper()
	seq := f.nextSeq()

	p := ProductFixture{
		ID:          uuid.New().String(),
		ProductName: fmt.Sprintf("Test Product %d", seq),
		ProductCode: fmt.Sprintf("PRD-%04d", seq),
		Category:    "api",
		Unit:        "kg",
		IsActive:    true,
	}

	for _, opt := range opts {
		opt(&p)
	}

	f.exec(t, ctx, `
		INSERT INTO products (id, product_name, product_code, category, unit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.ProductName, p.ProductCode, p.Category, p.Unit, p.IsActive)

	return p
}

// WithProductName sets the product name
func WithProductName(name string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.ProductName = name
	}
}

// WithProductCode sets the product code
func WithProductCode(code string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.ProductCode = code
	}
}

// InactiveProduct marks the product as deactivated
func InactiveProduct() func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.IsActive = false
	}
}

// Batch inserts a batch of productID with defaults
func (f *FixtureFactory) Batch(t *testing.T, ctx context.Context, productID string, opts ...func(*BatchFixture)) BatchFixture {
	t.Helper()
	seq := f.nextSeq()

	b := BatchFixture{
		ID:           uuid.New().String(),
		ProductID:    productID,
		BatchNumber:  fmt.Sprintf("B-%04d", seq),
		CurrentStock: "100",
		IsActive:     true,
	}

	for _, opt := range opts {
		opt(&b)
	}

	f.exec(t, ctx, `
		INSERT INTO batches (id, product_id, batch_number, current_stock, expiry_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, b.ID, b.ProductID, b.BatchNumber, b.CurrentStock, b.ExpiryDate, b.IsActive)

	return b
}

// WithBatchNumber sets the batch number
func WithBatchNumber(number string) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.BatchNumber = number
	}
}

// WithStock sets the batch's current stock
func WithStock(stock string) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.CurrentStock = stock
	}
}

// WithExpiry sets the batch's expiry date
func WithExpiry(expiry time.Time) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.ExpiryDate = &expiry
	}
}

// InactiveBatch marks the batch as deactivated
func InactiveBatch() func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.IsActive = false
	}
}

// SalesInvoiceItem inserts a sales invoice line referencing the product
func (f *FixtureFactory) SalesInvoiceItem(t *testing.T, ctx context.Context, productID string, batchID *string) string {
	t.Helper()
	id := uuid.New().String()
	f.exec(t, ctx, `
		INSERT INTO sales_invoice_items (id, invoice_id, product_id, batch_id, quantity)
		VALUES ($1, $2, $3, $4, 1)
	`, id, uuid.New().String(), productID, batchID)
	return id
}

// DeliveryChallanItem inserts a delivery challan line referencing the product
func (f *FixtureFactory) DeliveryChallanItem(t *testing.T, ctx context.Context, productID string, batchID *string) string {
	t.Helper()
	id := uuid.New().String()
	f.exec(t, ctx, `
		INSERT INTO delivery_challan_items (id, challan_id, product_id, batch_id, quantity)
		VALUES ($1, $2, $3, $4, 1)
	`, id, uuid.New().String(), productID, batchID)
	return id
}

// InventoryTransaction inserts a ledger row. batchID may be nil for
// product-level movements.
func (f *FixtureFactory) InventoryTransaction(t *testing.T, ctx context.Context, productID string, batchID *string) string {
	t.Helper()
	id := uuid.New().String()
	f.exec(t, ctx, `
		INSERT INTO inventory_transactions (id, product_id, batch_id, transaction_type, quantity)
		VALUES ($1, $2, $3, 'inward', 10)
	`, id, productID, batchID)
	return id
}

// BatchDocument inserts a document attached to a batch
func (f *FixtureFactory) BatchDocument(t *testing.T, ctx context.Context, batchID string) string {
	t.Helper()
	id := uuid.New().String()
	f.exec(t, ctx, `
		INSERT INTO batch_documents (id, batch_id, file_name, file_path)
		VALUES ($1, $2, 'coa.pdf', '/docs/coa.pdf')
	`, id, batchID)
	return id
}

// FinanceExpense inserts an expense booked against a batch
func (f *FixtureFactory) FinanceExpense(t *testing.T, ctx context.Context, batchID string) string {
	t.Helper()
	id := uuid.New().String()
	f.exec(t, ctx, `
		INSERT INTO finance_expenses (id, batch_id, amount)
		VALUES ($1, $2, 1250.00)
	`, id, batchID)
	return id
}

// ProductFile inserts a file attached to a product
func (f *FixtureFactory) ProductFile(t *testing.T, ctx context.Context, productID string) string {
	t.Helper()
	id := uuid.New().String()
	f.exec(t, ctx, `
		INSERT INTO product_files (id, product_id, file_name, file_path)
		VALUES ($1, $2, 'msds.pdf', '/files/msds.pdf')
	`, id, productID)
	return id
}

func (f *FixtureFactory) exec(t *testing.T, ctx context.Context, query string, args ...interface{}) {
	t.Helper()
	if _, err := f.db.ExecContext(ctx, query, args...); err != nil {
		t.Fatalf("fixture insert failed: %v", err)
	}
}
