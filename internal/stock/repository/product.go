package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/pkg/database"
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/google/uuid"
)

const productColumns = `
	id, product_name, product_code, hsn_code, category, unit, packaging_type,
	default_supplier, description, total_quantity, per_pack_weight, pack_type,
	calculated_packs, is_active, created_by, created_at, updated_at
`

// ProductFilter narrows product listings
type ProductFilter struct {
	IncludeInactive bool
	Category        domain.Category
	Search          string
	// SortByName orders by product name instead of newest first
	SortByName bool
}

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a product. CalculatedPacks must already be derived.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	query := `
		INSERT INTO products (
			id, product_name, product_code, hsn_code, category, unit, packaging_type,
			default_supplier, description, total_quantity, per_pack_weight, pack_type,
			calculated_packs, is_active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.ProductName, p.ProductCode, p.HSNCode, p.Category, p.Unit, p.PackagingType,
		p.DefaultSupplier, p.Description, p.TotalQuantity, p.PerPackWeight, p.PackType,
		p.CalculatedPacks, p.IsActive, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapError(err, "create product")
	}
	return nil
}

// GetByID gets a product by ID, active or not
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		return nil, mapError(err, "get product")
	}
	return &p, nil
}

// List lists products matching the filter
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []interface{}
	)
	if !filter.IncludeInactive {
		where = append(where, "is_active = true")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(product_name ILIKE $%d OR product_code ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.SortByName {
		query += " ORDER BY product_name, id"
	} else {
		query += " ORDER BY created_at DESC, id"
	}

	products := []domain.Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, mapError(err, "list products")
	}
	return products, nil
}

// Update writes every editable column. CalculatedPacks must already be derived.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products SET
			product_name = $2, product_code = $3, hsn_code = $4, category = $5, unit = $6,
			packaging_type = $7, default_supplier = $8, description = $9,
			total_quantity = $10, per_pack_weight = $11, pack_type = $12,
			calculated_packs = $13, is_active = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.ProductName, p.ProductCode, p.HSNCode, p.Category, p.Unit,
		p.PackagingType, p.DefaultSupplier, p.Description,
		p.TotalQuantity, p.PerPackWeight, p.PackType,
		p.CalculatedPacks, p.IsActive,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("product")
		}
		return mapError(err, "update product")
	}
	return nil
}

// SetActive flips the product's active flag
func (r *ProductRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE products SET is_active = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return mapError(err, "set product active")
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	return nil
}

// mapError turns Postgres errors into AppErrors and wraps everything else
func mapError(err error, op string) error {
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return fmt.Errorf("%s: %w", op, err)
}
