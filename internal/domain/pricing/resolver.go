// Package pricing computes unit prices at point-of-sale.
//
// Everything here is pure: promotions, wholesale tiers and discounts go in,
// a price comes out. No clock reads, no storage. The caller supplies "now"
// already converted to the store's local time zone.
package pricing

import (
	"balcao/internal/core/types"
	"balcao/internal/domain/catalog/product"
	"balcao/internal/domain/promotion"

	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ResolveUnitPrice returns the standard unit price for a product at the given
// quantity and local moment:
//
//  1. An in-effect promotion for the product wins outright; promotions
//     override wholesale/retail tiering entirely.
//  2. Otherwise the wholesale price applies when qty >= wholesaleMinQty.
//  3. Otherwise the retail price.
//
// localNow must already be in the store's time zone: only its calendar date
// is compared against the promotion window.
func ResolveUnitPrice(p *product.Product, qty types.Quantity, promos []*promotion.Promotion, localNow time.Time) types.Money {
	for _, promo := range promos {
		if promo.ProductID == p.ID && promo.InEffectOn(localNow) {
			return promo.PromotionalPrice
		}
	}

	if p.HasWholesaleTier() && qty >= p.WholesaleMinQty {
		return p.WholesalePrice
	}

	return p.RetailPrice
}

// DiscountKind distinguishes percentage and flat-value discounts.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFlat    DiscountKind = "flat"
)

// Discount is an operator-entered discount on a line or on the whole cart.
//
// Discounts layer on top of the resolved standard price, never replacing it:
// when a line's quantity changes, the standard price is recomputed fresh
// (the wholesale tier may have been crossed) and the discount ratio is
// re-applied. That makes discount application idempotent under re-pricing:
// the percentage survives, not the absolute amount.
type Discount struct {
	Kind  DiscountKind `json:"kind"`
	Value types.Money  `json:"value"` // percent (0-100) or flat currency value
}

// Apply returns the discounted unit price, floored at zero for flat discounts.
func (d Discount) Apply(price types.Money) types.Money {
	switch d.Kind {
	case DiscountPercent:
		discounted := price.Mul(decimal.NewFromInt(1).Sub(d.Value.Div(hundred)))
		if discounted.IsNegative() {
			return types.ZeroMoney()
		}
		return discounted
	case DiscountFlat:
		discounted := price.Sub(d.Value)
		if discounted.IsNegative() {
			return types.ZeroMoney()
		}
		return discounted
	}
	return price
}

// AsPercentOf converts a flat discount to its equivalent percentage of the
// given base. Percent discounts pass through unchanged.
//
// Cart-wide flat discounts are converted against the cart's standard total,
// then applied per line as that blended percentage. This keeps each line's
// discount ratio visible and re-derivable after quantity edits.
func (d Discount) AsPercentOf(base types.Money) Discount {
	if d.Kind == DiscountPercent {
		return d
	}
	if !base.IsPositive() {
		return Discount{Kind: DiscountPercent, Value: types.ZeroMoney()}
	}
	pct := d.Value.Div(base).Mul(hundred)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return Discount{Kind: DiscountPercent, Value: pct}
}

// AllocateRevenue splits amount across weights proportionally, rounding each
// share to cents and assigning the residual cent(s) to the last share so the
// parts always sum exactly to amount. Zero total weight splits evenly.
//
// Required so per-product revenue/margin reporting remains meaningful even
// though a kit sold at a bundled price.
func AllocateRevenue(amount types.Money, weights []types.Money) []types.Money {
	n := len(weights)
	if n == 0 {
		return nil
	}

	total := types.ZeroMoney()
	for _, w := range weights {
		total = total.Add(w)
	}

	shares := make([]types.Money, n)
	allocated := types.ZeroMoney()
	for i := 0; i < n-1; i++ {
		var share types.Money
		if total.IsPositive() {
			share = amount.Mul(weights[i]).Div(total).Round(2)
		} else {
			share = amount.Div(decimal.NewFromInt(int64(n))).Round(2)
		}
		shares[i] = share
		allocated = allocated.Add(share)
	}
	shares[n-1] = amount.Sub(allocated)

	return shares
}
