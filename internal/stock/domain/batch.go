package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch is a discrete lot of a product with its own stock and expiry. The
// engine reads CurrentStock but never changes it.
type Batch struct {
	ID           string          `db:"id" json:"id"`
	ProductID    string          `db:"product_id" json:"product_id"`
	BatchNumber  string          `db:"batch_number" json:"batch_number"`
	CurrentStock decimal.Decimal `db:"current_stock" json:"current_stock"`
	ExpiryDate   *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	ImportDate   time.Time       `db:"import_date" json:"import_date"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// InStock reports whether the batch is active and holds positive stock
func (b *Batch) InStock() bool {
	return b.IsActive && b.CurrentStock.IsPositive()
}

// BatchView is a batch annotated for display
type BatchView struct {
	Batch
	ExpiryStatus    ExpiryClass `json:"expiry_status"`
	DaysUntilExpiry *int        `json:"days_until_expiry,omitempty"`
}

// NewBatchView classifies b against now
func NewBatchView(b Batch, now time.Time) BatchView {
	v := BatchView{
		Batch:        b,
		ExpiryStatus: ClassifyExpiry(b.ExpiryDate, now),
	}
	if b.ExpiryDate != nil {
		days := DaysUntil(*b.ExpiryDate, now)
		v.DaysUntilExpiry = &days
	}
	return v
}

// FilterInStock returns the active, positive-stock batches in their input order
func FilterInStock(batches []Batch) []Batch {
	out := make([]Batch, 0, len(batches))
	for i := range batches {
		if batches[i].InStock() {
			out = append(out, batches[i])
		}
	}
	return out
}
