// Package domain holds the stock engine's types and its pure rules: stock
// aggregation, expiry classification, FEFO ordering, pack calculation and
// deletion dispositions. Nothing here reads a clock or a store.
package domain

import "time"

// NearExpiryWindowDays is the lookahead, in calendar days, within which a
// dated batch is flagged as near expiry. The boundary day is included.
const NearExpiryWindowDays = 30

// ExpiryClass classifies an optional expiry date relative to now
type ExpiryClass string

const (
	ExpiryNone       ExpiryClass = "none"
	ExpiryExpired    ExpiryClass = "expired"
	ExpiryNearExpiry ExpiryClass = "near_expiry"
	ExpiryNormal     ExpiryClass = "normal"
)

// ClassifyExpiry returns none for a missing date, expired when the date is
// before now, near_expiry when it falls within NearExpiryWindowDays of now
// (inclusive), and normal otherwise.
func ClassifyExpiry(date *time.Time, now time.Time) ExpiryClass {
	switch {
	case date == nil:
		return ExpiryNone
	case date.Before(now):
		return ExpiryExpired
	case !date.After(now.AddDate(0, 0, NearExpiryWindowDays)):
		return ExpiryNearExpiry
	default:
		return ExpiryNormal
	}
}

// DaysUntil returns the number of calendar days from now's date to date's
// date, both taken in UTC. It is negative for past dates.
func DaysUntil(date, now time.Time) int {
	d := truncateDay(date)
	n := truncateDay(now)
	return int(d.Sub(n).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
