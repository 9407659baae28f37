package repository

import (
	"context"
	"database/sql"
	"sort"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/pkg/database"
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// cascadeStatements maps each step to its delete. Batch scoped steps take the
// batch id array, the rest take the product id.
var cascadeStatements = map[string]string{
	domain.StepBatchDocuments:      `DELETE FROM batch_documents WHERE batch_id = ANY($1)`,
	domain.StepBatchTransactions:   `DELETE FROM inventory_transactions WHERE batch_id = ANY($1)`,
	domain.StepBatchExpenses:       `DELETE FROM finance_expenses WHERE batch_id = ANY($1)`,
	domain.StepBatches:             `DELETE FROM batches WHERE id = ANY($1)`,
	domain.StepProductTransactions: `DELETE FROM inventory_transactions WHERE product_id = $1`,
	domain.StepProductFiles:        `DELETE FROM product_files WHERE product_id = $1`,
	domain.StepProduct:             `DELETE FROM products WHERE id = $1`,
}

var batchScopedSteps = map[string]bool{
	domain.StepBatchDocuments:    true,
	domain.StepBatchTransactions: true,
	domain.StepBatchExpenses:     true,
	domain.StepBatches:           true,
}

// CascadeRepository performs the all-or-nothing product delete
type CascadeRepository struct {
	db *database.DB
}

// NewCascadeRepository creates a new cascade repository
func NewCascadeRepository(db *database.DB) *CascadeRepository {
	return &CascadeRepository{db: db}
}

// DeleteProduct removes the product, its batches and every dependent row in
// one transaction. confirmedBatchIDs is the batch list the caller showed the
// operator; if the product's batches changed since, nothing is deleted and a
// Conflict is returned. A live sales or delivery reference found inside the
// transaction aborts with DeletionBlocked.
func (r *CascadeRepository) DeleteProduct(ctx context.Context, productID string, confirmedBatchIDs []string) (*domain.DeletionReport, error) {
	report := &domain.DeletionReport{ProductID: productID}

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var locked string
		err := tx.GetContext(ctx, &locked, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID)
		if err == sql.ErrNoRows {
			return errors.NotFound("product")
		}
		if err != nil {
			return mapError(err, "lock product")
		}

		reason, err := findBlockingReference(ctx, tx, productID)
		if err != nil {
			return err
		}
		if reason != "" {
			return errors.DeletionBlocked(string(reason))
		}

		var batchIDs []string
		if err := tx.SelectContext(ctx, &batchIDs,
			`SELECT id FROM batches WHERE product_id = $1 ORDER BY id FOR UPDATE`, productID); err != nil {
			return mapError(err, "lock batches")
		}
		if !sameIDs(batchIDs, confirmedBatchIDs) {
			return errors.Conflict("product batches changed since the deletion check")
		}
		report.BatchIDs = batchIDs

		for _, step := range domain.CascadeSteps {
			arg := interface{}(productID)
			if batchScopedSteps[step] {
				if len(batchIDs) == 0 {
					report.Steps = append(report.Steps, domain.DeletedRows{Step: step})
					continue
				}
				arg = pq.Array(batchIDs)
			}

			result, err := tx.ExecContext(ctx, cascadeStatements[step], arg)
			if err != nil {
				return mapError(err, "delete "+step)
			}
			rows, err := result.RowsAffected()
			if err != nil {
				return mapError(err, "delete "+step)
			}
			if step == domain.StepProduct && rows != 1 {
				return errors.Conflict("product disappeared during deletion")
			}
			report.Steps = append(report.Steps, domain.DeletedRows{Step: step, Rows: rows})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrRollbackFailed) {
			return nil, errors.PartialCascadeFailure(err)
		}
		return nil, err
	}

	return report, nil
}

// sameIDs reports whether a and b hold the same ids regardless of order
func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
