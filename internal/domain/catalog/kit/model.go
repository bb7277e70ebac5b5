// Package kit provides the ProductKit catalog: virtual products bundling
// fixed quantities of real products at a bundled price.
package kit

import (
	"context"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
)

// Kit is a sellable bundle. Code is its virtual barcode. The sale price is
// fixed, not derived from promotion/wholesale logic; decomposition into
// components happens only at sale-commit time.
type Kit struct {
	entity.Catalog

	Price  types.Money `db:"price" json:"price"`
	Unit   string      `db:"unit" json:"unit"`
	Active bool        `db:"active" json:"active"`

	// Components, ordered. Quantities may be fractional: a 40 ml pour from a
	// 2000 ml bottle is qty 0.02.
	Components []Component `db:"-" json:"components"`
}

// Component is one real product inside a kit.
type Component struct {
	LineID    id.ID          `db:"line_id" json:"lineId"`
	LineNo    int            `db:"line_no" json:"lineNo"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
}

// New creates a new Kit.
func New(code, name string, price types.Money) *Kit {
	return &Kit{
		Catalog:    entity.NewCatalog(code, name),
		Price:      price,
		Unit:       "UN",
		Active:     true,
		Components: make([]Component, 0),
	}
}

// AddComponent appends a component line.
func (k *Kit) AddComponent(productID id.ID, qty types.Quantity) {
	k.Components = append(k.Components, Component{
		LineID:    id.New(),
		LineNo:    len(k.Components) + 1,
		ProductID: productID,
		Quantity:  qty,
	})
}

// Validate implements entity.Validatable.
func (k *Kit) Validate(ctx context.Context) error {
	if err := k.Catalog.Validate(ctx); err != nil {
		return err
	}

	if k.Code == "" {
		return apperror.NewValidation("kit barcode is required").
			WithDetail("field", "code")
	}

	if !k.Price.IsPositive() {
		return apperror.NewValidation("kit price must be positive").
			WithDetail("field", "price")
	}

	if len(k.Components) == 0 {
		return apperror.NewValidation("at least one component is required").
			WithDetail("field", "components")
	}

	for i, c := range k.Components {
		if id.IsNil(c.ProductID) {
			return apperror.NewValidation("component product is required").
				WithDetail("field", "components").
				WithDetail("lineNo", i+1)
		}
		if !c.Quantity.IsPositive() {
			return apperror.NewValidation("component quantity must be positive").
				WithDetail("field", "components").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// DerivedStock computes how many kits can be assembled from component stocks:
// min over components of floor(stock / componentQty). A missing component
// makes the kit unavailable (derived stock 0).
func (k *Kit) DerivedStock(stocks map[id.ID]types.Quantity) int64 {
	if len(k.Components) == 0 {
		return 0
	}

	available := int64(-1)
	for _, c := range k.Components {
		stock, ok := stocks[c.ProductID]
		if !ok || !c.Quantity.IsPositive() {
			return 0
		}
		kits := stock.Int64Scaled() / c.Quantity.Int64Scaled()
		if available < 0 || kits < available {
			available = kits
		}
	}
	if available < 0 {
		return 0
	}
	return available
}
