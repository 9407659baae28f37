package repository

import (
	"context"
	"database/sql"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/pkg/database"
	"github.com/jmoiron/sqlx"
)

// referenceChecks run in this order; the first live reference decides the reason
var referenceChecks = []struct {
	reason domain.BlockReason
	query  string
}{
	{domain.BlockedBySalesInvoices, `SELECT id FROM sales_invoice_items WHERE product_id = $1 LIMIT 1`},
	{domain.BlockedByDeliveryChallans, `SELECT id FROM delivery_challan_items WHERE product_id = $1 LIMIT 1`},
}

// ReferenceRepository looks for records in other modules that keep a product alive
type ReferenceRepository struct {
	db *database.DB
}

// NewReferenceRepository creates a new reference repository
func NewReferenceRepository(db *database.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// FindBlockingReference returns the reason the product cannot be deleted, or
// an empty reason when nothing references it
func (r *ReferenceRepository) FindBlockingReference(ctx context.Context, productID string) (domain.BlockReason, error) {
	return findBlockingReference(ctx, r.db, productID)
}

// findBlockingReference works against the pool or an open transaction
func findBlockingReference(ctx context.Context, q sqlx.QueryerContext, productID string) (domain.BlockReason, error) {
	for _, check := range referenceChecks {
		var id string
		err := sqlx.GetContext(ctx, q, &id, check.query, productID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return "", mapError(err, "check "+string(check.reason))
		}
		return check.reason, nil
	}
	return "", nil
}
