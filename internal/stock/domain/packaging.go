package domain

import (
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// ComputePacks returns ceil(total / perPackWeight). The result is nil (unset,
// which differs from a computed zero) when either input is missing or zero.
// A negative input is rejected with an InvalidInput error.
func ComputePacks(total, perPackWeight *decimal.Decimal) (*int64, error) {
	details := map[string]string{}
	if total != nil && total.IsNegative() {
		details["total_quantity"] = "must not be negative"
	}
	if perPackWeight != nil && perPackWeight.IsNegative() {
		details["per_pack_weight"] = "must not be negative"
	}
	if len(details) > 0 {
		return nil, errors.InvalidInput(details)
	}

	if total == nil || perPackWeight == nil || total.IsZero() || perPackWeight.IsZero() {
		return nil, nil
	}

	// Integer quotient with an exact remainder; Div would round non-terminating quotients
	q, r := total.QuoRem(*perPackWeight, 0)
	packs := q.IntPart()
	if !r.IsZero() {
		packs++
	}
	return &packs, nil
}

// ParseQuantity parses an optional decimal query or form value. An empty
// string yields nil; anything non-numeric is InvalidInput.
func ParseQuantity(field, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errors.InvalidInput(map[string]string{field: "must be a number"})
	}
	return &d, nil
}
