package domain

import (
	"testing"
	"time"

	"github.com/chemtrack/chemtrack-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aggNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(offset int) *time.Time {
	d := testutil.Date(2026, time.March, 10).AddDate(0, 0, offset)
	return &d
}

func sampleProduct() *Product {
	return &Product{
		ID:          "p1",
		ProductName: "Paracetamol IP",
		ProductCode: "API-001",
		Category:    CategoryAPI,
		Unit:        UnitKg,
	}
}

func TestSummarize(t *testing.T) {
	batches := []Batch{
		{ID: "b1", IsActive: true, CurrentStock: dec("250.5"), ExpiryDate: day(40)},
		{ID: "b2", IsActive: true, CurrentStock: dec("100"), ExpiryDate: day(12)},
		{ID: "b3", IsActive: true, CurrentStock: dec("0"), ExpiryDate: day(2)},
		{ID: "b4", IsActive: false, CurrentStock: dec("900"), ExpiryDate: day(1)},
		{ID: "b5", IsActive: true, CurrentStock: dec("30"), ExpiryDate: day(-5)},
		{ID: "b6", IsActive: false, CurrentStock: dec("0"), ExpiryDate: day(-40)},
		{ID: "b7", IsActive: true, CurrentStock: dec("20")},
	}

	s := Summarize(sampleProduct(), batches, aggNow, 500)

	assert.Equal(t, "p1", s.ProductID)
	assert.Equal(t, UnitKg, s.Unit)
	assert.True(t, s.TotalCurrentStock.Equal(dec("400.5")), "total %s", s.TotalCurrentStock)
	assert.Equal(t, 5, s.ActiveBatchCount)
	assert.Equal(t, 2, s.ExpiredBatchCount)
	require.NotNil(t, s.NearestExpiryDate)
	// b5 is active with stock and dated, so it wins even though it is expired
	assert.True(t, s.NearestExpiryDate.Equal(*day(-5)))
	assert.Equal(t, ExpiryExpired, s.ExpiryStatus)
	assert.Equal(t, StockLow, s.StockLevel)
}

func TestSummarize_InactiveBatchDoesNotChangeTotal(t *testing.T) {
	active := []Batch{
		{ID: "b1", IsActive: true, CurrentStock: dec("10")},
		{ID: "b2", IsActive: true, CurrentStock: dec("15")},
	}
	withInactive := append([]Batch{{ID: "b0", IsActive: false, CurrentStock: dec("999")}}, active...)

	a := Summarize(sampleProduct(), active, aggNow, 500)
	b := Summarize(sampleProduct(), withInactive, aggNow, 500)

	assert.True(t, a.TotalCurrentStock.Equal(b.TotalCurrentStock))
	assert.Equal(t, a.ActiveBatchCount, b.ActiveBatchCount)
}

func TestSummarize_NearestExpiryIgnoresEmptyAndUndated(t *testing.T) {
	batches := []Batch{
		{ID: "empty", IsActive: true, CurrentStock: dec("0"), ExpiryDate: day(1)},
		{ID: "undated", IsActive: true, CurrentStock: dec("50")},
		{ID: "inactive", IsActive: false, CurrentStock: dec("50"), ExpiryDate: day(3)},
		{ID: "real", IsActive: true, CurrentStock: dec("5"), ExpiryDate: day(20)},
	}

	s := Summarize(sampleProduct(), batches, aggNow, 500)

	require.NotNil(t, s.NearestExpiryDate)
	assert.True(t, s.NearestExpiryDate.Equal(*day(20)))
	assert.Equal(t, ExpiryNearExpiry, s.ExpiryStatus)
}

func TestSummarize_NoQualifyingBatch(t *testing.T) {
	s := Summarize(sampleProduct(), []Batch{{ID: "u", IsActive: true, CurrentStock: dec("700")}}, aggNow, 500)

	assert.Nil(t, s.NearestExpiryDate)
	assert.Equal(t, ExpiryNone, s.ExpiryStatus)
	assert.Equal(t, StockOK, s.StockLevel)
}

func TestSummarize_NoBatches(t *testing.T) {
	s := Summarize(sampleProduct(), nil, aggNow, 500)

	assert.True(t, s.TotalCurrentStock.IsZero())
	assert.Equal(t, 0, s.ActiveBatchCount)
	assert.Equal(t, StockOutOfStock, s.StockLevel)
	assert.False(t, s.InStock())
}

func TestClassifyStockLevel(t *testing.T) {
	assert.Equal(t, StockOutOfStock, ClassifyStockLevel(dec("0"), 500))
	assert.Equal(t, StockOutOfStock, ClassifyStockLevel(dec("-1"), 500))
	assert.Equal(t, StockLow, ClassifyStockLevel(dec("499.999"), 500))
	assert.Equal(t, StockOK, ClassifyStockLevel(dec("500"), 500))
}

func TestBuildDashboard(t *testing.T) {
	summaries := []StockSummary{
		{TotalCurrentStock: dec("100"), StockLevel: StockLow, ExpiryStatus: ExpiryNearExpiry, ExpiredBatchCount: 1},
		{TotalCurrentStock: dec("800"), StockLevel: StockOK, ExpiryStatus: ExpiryNormal},
		{TotalCurrentStock: dec("0"), StockLevel: StockOutOfStock, ExpiredBatchCount: 4},
	}

	d := BuildDashboard(summaries)

	assert.Equal(t, 2, d.ProductsInStock)
	assert.True(t, d.TotalStock.Equal(dec("900")))
	assert.Equal(t, 1, d.LowStockProducts)
	assert.Equal(t, 1, d.NearExpiryProducts)
	assert.Equal(t, 1, d.ExpiredBatches)
}

func TestNewBatchView(t *testing.T) {
	v := NewBatchView(Batch{ID: "b", ExpiryDate: day(30)}, aggNow)
	assert.Equal(t, ExpiryNearExpiry, v.ExpiryStatus)
	require.NotNil(t, v.DaysUntilExpiry)
	assert.Equal(t, 30, *v.DaysUntilExpiry)

	v = NewBatchView(Batch{ID: "u"}, aggNow)
	assert.Equal(t, ExpiryNone, v.ExpiryStatus)
	assert.Nil(t, v.DaysUntilExpiry)
}
