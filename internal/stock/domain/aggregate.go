package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel buckets a product's total stock for display
type StockLevel string

const (
	StockOutOfStock StockLevel = "out_of_stock"
	StockLow        StockLevel = "low"
	StockOK         StockLevel = "ok"
)

// StockSummary is the per-product projection derived from its batches. It is
// recomputed on every read and never stored.
type StockSummary struct {
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	ProductCode       string          `json:"product_code"`
	Unit              Unit            `json:"unit"`
	Category          Category        `json:"category"`
	TotalCurrentStock decimal.Decimal `json:"total_current_stock"`
	ActiveBatchCount  int             `json:"active_batch_count"`
	ExpiredBatchCount int             `json:"expired_batch_count"`
	NearestExpiryDate *time.Time      `json:"nearest_expiry_date,omitempty"`
	ExpiryStatus      ExpiryClass     `json:"expiry_status"`
	StockLevel        StockLevel      `json:"stock_level"`
}

// InStock reports whether the product has positive saleable stock
func (s *StockSummary) InStock() bool {
	return s.TotalCurrentStock.IsPositive()
}

// Summarize reduces all of a product's batches into a StockSummary.
//
// Total stock and the active count cover active batches only. The expired
// count covers every batch dated before now, active or not. The nearest
// expiry is the earliest date among active batches with positive stock;
// undated batches never take part.
func Summarize(p *Product, batches []Batch, now time.Time, lowStockThreshold int) StockSummary {
	s := StockSummary{
		ProductID:         p.ID,
		ProductName:       p.ProductName,
		ProductCode:       p.ProductCode,
		Unit:              p.Unit,
		Category:          p.Category,
		TotalCurrentStock: decimal.Zero,
	}

	for i := range batches {
		b := &batches[i]
		if b.IsActive {
			s.TotalCurrentStock = s.TotalCurrentStock.Add(b.CurrentStock)
			s.ActiveBatchCount++
		}
		if b.ExpiryDate != nil && b.ExpiryDate.Before(now) {
			s.ExpiredBatchCount++
		}
		if b.InStock() && b.ExpiryDate != nil {
			if s.NearestExpiryDate == nil || b.ExpiryDate.Before(*s.NearestExpiryDate) {
				d := *b.ExpiryDate
				s.NearestExpiryDate = &d
			}
		}
	}

	s.ExpiryStatus = ClassifyExpiry(s.NearestExpiryDate, now)
	s.StockLevel = ClassifyStockLevel(s.TotalCurrentStock, lowStockThreshold)
	return s
}

// ClassifyStockLevel buckets total against the low-stock threshold
func ClassifyStockLevel(total decimal.Decimal, lowStockThreshold int) StockLevel {
	switch {
	case !total.IsPositive():
		return StockOutOfStock
	case total.LessThan(decimal.NewFromInt(int64(lowStockThreshold))):
		return StockLow
	default:
		return StockOK
	}
}

// Dashboard is the stock overview shown above the stock table
type Dashboard struct {
	ProductsInStock    int             `json:"products_in_stock"`
	TotalStock         decimal.Decimal `json:"total_stock"`
	LowStockProducts   int             `json:"low_stock_products"`
	NearExpiryProducts int             `json:"near_expiry_products"`
	ExpiredBatches     int             `json:"expired_batches"`
}

// BuildDashboard totals in-stock summaries; summaries without stock are skipped
func BuildDashboard(summaries []StockSummary) Dashboard {
	d := Dashboard{TotalStock: decimal.Zero}
	for i := range summaries {
		s := &summaries[i]
		if !s.InStock() {
			continue
		}
		d.ProductsInStock++
		d.TotalStock = d.TotalStock.Add(s.TotalCurrentStock)
		if s.StockLevel == StockLow {
			d.LowStockProducts++
		}
		if s.ExpiryStatus == ExpiryNearExpiry {
			d.NearExpiryProducts++
		}
		d.ExpiredBatches += s.ExpiredBatchCount
	}
	return d
}
