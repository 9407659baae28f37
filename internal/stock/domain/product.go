package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the regulatory classification of a product
type Category string

const (
	CategoryAPI       Category = "api"
	CategoryExcipient Category = "excipient"
	CategorySolvent   Category = "solvent"
	CategoryOther     Category = "other"
)

// Unit is the unit of measure stock is counted in
type Unit string

const (
	UnitKg    Unit = "kg"
	UnitLitre Unit = "litre"
	UnitTon   Unit = "ton"
	UnitPiece Unit = "piece"
)

// PackType is the physical container a product ships in
type PackType string

const (
	PackBag       PackType = "Bag"
	PackDrum      PackType = "Drum"
	PackTin       PackType = "Tin"
	PackCarton    PackType = "Carton"
	PackBox       PackType = "Box"
	PackContainer PackType = "Container"
	PackOther     PackType = "Other"
)

// Product is a catalogue entry. Stock lives on its batches.
type Product struct {
	ID              string           `db:"id" json:"id"`
	ProductName     string           `db:"product_name" json:"product_name"`
	ProductCode     string           `db:"product_code" json:"product_code"`
	HSNCode         *string          `db:"hsn_code" json:"hsn_code,omitempty"`
	Category        Category         `db:"category" json:"category"`
	Unit            Unit             `db:"unit" json:"unit"`
	PackagingType   string           `db:"packaging_type" json:"packaging_type"`
	DefaultSupplier string           `db:"default_supplier" json:"default_supplier"`
	Description     *string          `db:"description" json:"description,omitempty"`
	TotalQuantity   *decimal.Decimal `db:"total_quantity" json:"total_quantity,omitempty"`
	PerPackWeight   *decimal.Decimal `db:"per_pack_weight" json:"per_pack_weight,omitempty"`
	PackType        *PackType        `db:"pack_type" json:"pack_type,omitempty"`
	CalculatedPacks *int64           `db:"calculated_packs" json:"calculated_packs,omitempty"`
	IsActive        bool             `db:"is_active" json:"is_active"`
	CreatedBy       *string          `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// RecomputePacks derives CalculatedPacks from the packaging inputs. Every
// write path calls it before persisting so the stored count is never stale.
func (p *Product) RecomputePacks() error {
	packs, err := ComputePacks(p.TotalQuantity, p.PerPackWeight)
	if err != nil {
		return err
	}
	p.CalculatedPacks = packs
	return nil
}
