package domain

import (
	"sort"
	"strings"
)

// OrderBatches returns a copy of batches in first-expire-first-out order:
// ascending expiry date, undated batches last, ties broken by batch number
// and then id. The input slice is not modified.
func OrderBatches(batches []Batch) []Batch {
	out := make([]Batch, len(batches))
	copy(out, batches)
	sort.SliceStable(out, func(i, j int) bool {
		return fefoLess(&out[i], &out[j])
	})
	return out
}

func fefoLess(a, b *Batch) bool {
	switch {
	case a.ExpiryDate == nil && b.ExpiryDate != nil:
		return false
	case a.ExpiryDate != nil && b.ExpiryDate == nil:
		return true
	case a.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
		return a.ExpiryDate.Before(*b.ExpiryDate)
	}
	if c := strings.Compare(a.BatchNumber, b.BatchNumber); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}
