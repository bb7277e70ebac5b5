// Package product provides the Product catalog.
package product

import (
	"context"
	"time"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
)

// Unit is the sale unit of measure.
type Unit string

const (
	UnitUN  Unit = "UN"  // unidade
	UnitKG  Unit = "KG"  // quilograma
	UnitL   Unit = "L"   // litro
	UnitCX  Unit = "CX"  // caixa
	UnitPCT Unit = "PCT" // pacote
)

// Product is a sellable catalog item. Code is the barcode scanned at the till.
//
// Stock is mutated only through the inventory ledger; an admin edit that
// touches the stock field goes through Service.Update, which synthesizes the
// equivalent movement so the audit trail has no gaps.
type Product struct {
	entity.Catalog

	// Classification
	Category    string `db:"category" json:"category"`
	Subcategory string `db:"subcategory" json:"subcategory,omitempty"`
	Brand       string `db:"brand" json:"brand,omitempty"`
	SupplierID  *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	Unit Unit `db:"unit" json:"unit"`

	// Pricing tiers. Wholesale applies when qty >= WholesaleMinQty and no
	// promotion is in effect.
	CostPrice       types.Money    `db:"cost_price" json:"costPrice"`
	RetailPrice     types.Money    `db:"retail_price" json:"retailPrice"`
	WholesalePrice  types.Money    `db:"wholesale_price" json:"wholesalePrice"`
	WholesaleMinQty types.Quantity `db:"wholesale_min_qty" json:"wholesaleMinQty"`

	// Stock is the current on-hand quantity; >= 0 after any committed
	// operation. MinStock is the reorder threshold, advisory only.
	Stock    types.Quantity `db:"stock" json:"stock"`
	MinStock types.Quantity `db:"min_stock" json:"minStock"`

	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
}

// New creates a new Product.
func New(barcode, name string, unit Unit) *Product {
	return &Product{
		Catalog: entity.NewCatalog(barcode, name),
		Unit:    unit,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.Code == "" {
		return apperror.NewValidation("barcode is required").
			WithDetail("field", "code")
	}

	if !isValidUnit(p.Unit) {
		return apperror.NewValidation("invalid unit").
			WithDetail("field", "unit").
			WithDetail("value", string(p.Unit))
	}

	if p.RetailPrice.IsNegative() || p.WholesalePrice.IsNegative() || p.CostPrice.IsNegative() {
		return apperror.NewValidation("prices cannot be negative").
			WithDetail("field", "prices")
	}

	if p.Stock.IsNegative() {
		return apperror.NewValidation("stock cannot be negative").
			WithDetail("field", "stock")
	}

	if p.WholesaleMinQty.IsNegative() {
		return apperror.NewValidation("wholesale minimum quantity cannot be negative").
			WithDetail("field", "wholesaleMinQty")
	}

	return nil
}

// HasWholesaleTier reports whether the product defines a wholesale price.
func (p *Product) HasWholesaleTier() bool {
	return p.WholesaleMinQty.IsPositive() && p.WholesalePrice.IsPositive()
}

// IsBelowMinStock reports whether the product is at or under its reorder threshold.
func (p *Product) IsBelowMinStock() bool {
	return p.MinStock.IsPositive() && p.Stock <= p.MinStock
}

func isValidUnit(u Unit) bool {
	switch u {
	case UnitUN, UnitKG, UnitL, UnitCX, UnitPCT:
		return true
	}
	return false
}
