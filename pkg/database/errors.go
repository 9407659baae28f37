package database

import (
	"strings"

	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/lib/pq"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Invalid text representation (22P02), e.g. a malformed UUID
	case "22P02":
		return errors.BadRequest("malformed identifier or value")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "current_stock_non_negative"):
		return errors.Validation(map[string]string{
			"current_stock": "must not be negative",
		})

	case strings.Contains(constraint, "category_valid"):
		return errors.Validation(map[string]string{
			"category": "must be one of: api, excipient, solvent, other",
		})

	case strings.Contains(constraint, "unit_valid"):
		return errors.Validation(map[string]string{
			"unit": "must be one of: kg, litre, ton, piece",
		})

	case strings.Contains(constraint, "total_quantity_non_negative"):
		return errors.Validation(map[string]string{
			"total_quantity": "must not be negative",
		})

	case strings.Contains(constraint, "per_pack_weight_non_negative"):
		return errors.Validation(map[string]string{
			"per_pack_weight": "must not be negative",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "product_code"):
		return "a product with this product code already exists"
	case strings.Contains(constraint, "batch_number"):
		return "this product already has a batch with this batch number"
	default:
		return "a record with these values already exists"
	}
}
