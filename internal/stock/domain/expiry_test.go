package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyExpiry(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	at := func(d time.Time) *time.Time { return &d }

	tests := []struct {
		name string
		date *time.Time
		want ExpiryClass
	}{
		{"absent", nil, ExpiryNone},
		{"yesterday", at(now.AddDate(0, 0, -1)), ExpiryExpired},
		{"one second ago", at(now.Add(-time.Second)), ExpiryExpired},
		{"exactly now", at(now), ExpiryNearExpiry},
		{"tomorrow", at(now.AddDate(0, 0, 1)), ExpiryNearExpiry},
		{"exactly 30 days", at(now.AddDate(0, 0, 30)), ExpiryNearExpiry},
		{"30 days and a second", at(now.AddDate(0, 0, 30).Add(time.Second)), ExpiryNormal},
		{"31 days", at(now.AddDate(0, 0, 31)), ExpiryNormal},
		{"next year", at(now.AddDate(1, 0, 0)), ExpiryNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyExpiry(tt.date, now))
		})
	}
}

func TestClassifyExpiry_IsPure(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	date := now.AddDate(0, 0, 12)

	first := ClassifyExpiry(&date, now)
	second := ClassifyExpiry(&date, now)

	assert.Equal(t, first, second)
	assert.Equal(t, now.AddDate(0, 0, 12), date)
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysUntil(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 1, DaysUntil(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 30, DaysUntil(time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, -2, DaysUntil(time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), now))
}
