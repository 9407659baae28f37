package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/pkg/database"
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/google/uuid"
)

const batchColumns = `
	id, product_id, batch_number, current_stock, expiry_date, import_date,
	is_active, created_at, updated_at
`

// ExpiringBatch is a batch joined with its product's name for the expiry scan
type ExpiringBatch struct {
	domain.Batch
	ProductName string `db:"product_name"`
}

// BatchRepository handles batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create creates a new batch
func (r *BatchRepository) Create(ctx context.Context, b *domain.Batch) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	query := `
		INSERT INTO batches (
			id, product_id, batch_number, current_stock, expiry_date, import_date, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		b.ID, b.ProductID, b.BatchNumber, b.CurrentStock, b.ExpiryDate, b.ImportDate, b.IsActive,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return mapError(err, "create batch")
	}
	return nil
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	var b domain.Batch
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, mapError(err, "get batch")
	}
	return &b, nil
}

// ListByProduct returns every batch of a product, active or not, with any stock.
// The aggregator needs the full set to count expired batches.
func (r *BatchRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Batch, error) {
	batches := []domain.Batch{}
	query := `SELECT ` + batchColumns + ` FROM batches WHERE product_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &batches, query, productID); err != nil {
		return nil, mapError(err, "list batches")
	}
	return batches, nil
}

// ListInStockByProduct returns active batches with positive stock in FEFO order
func (r *BatchRepository) ListInStockByProduct(ctx context.Context, productID string) ([]domain.Batch, error) {
	batches := []domain.Batch{}
	query := `
		SELECT ` + batchColumns + ` FROM batches
		WHERE product_id = $1 AND is_active = true AND current_stock > 0
		ORDER BY expiry_date ASC NULLS LAST, batch_number, id
	`
	if err := r.db.SelectContext(ctx, &batches, query, productID); err != nil {
		return nil, mapError(err, "list in-stock batches")
	}
	return batches, nil
}

// ListRefsByProduct returns id and number of every batch of a product
func (r *BatchRepository) ListRefsByProduct(ctx context.Context, productID string) ([]domain.BatchRef, error) {
	refs := []domain.BatchRef{}
	query := `SELECT id, batch_number FROM batches WHERE product_id = $1 ORDER BY batch_number, id`
	if err := r.db.SelectContext(ctx, &refs, query, productID); err != nil {
		return nil, mapError(err, "list batch refs")
	}
	return refs, nil
}

// ListExpiring returns active in-stock batches of active products that expire
// on or before until, soonest first
func (r *BatchRepository) ListExpiring(ctx context.Context, until time.Time) ([]ExpiringBatch, error) {
	batches := []ExpiringBatch{}
	query := `
		SELECT b.id, b.product_id, b.batch_number, b.current_stock, b.expiry_date,
			b.import_date, b.is_active, b.created_at, b.updated_at, p.product_name
		FROM batches b
		JOIN products p ON p.id = b.product_id
		WHERE b.is_active = true AND b.current_stock > 0 AND p.is_active = true
		AND b.expiry_date IS NOT NULL AND b.expiry_date <= $1
		ORDER BY b.expiry_date, b.batch_number, b.id
	`
	if err := r.db.SelectContext(ctx, &batches, query, until); err != nil {
		return nil, mapError(err, "list expiring batches")
	}
	return batches, nil
}

// SetActive flips the batch's active flag
func (r *BatchRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE batches SET is_active = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return mapError(err, "set batch active")
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("batch")
	}

	return nil
}
