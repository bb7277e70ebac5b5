// Package promotion provides promotional pricing windows.
//
// One promotion row covers one product. A campaign over N products
// materializes as N rows sharing name and date range.
package promotion

import (
	"context"
	"time"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
)

// Promotion is a dated promotional price for one product.
//
// A promotion is in effect for a sale iff Active and
// startDate <= today <= endDate, compared as calendar dates in the store's
// local time zone. A sale at 23:50 local time uses that day's promotions,
// not tomorrow's UTC date.
type Promotion struct {
	entity.BaseCatalog

	Name      string `db:"name" json:"name"`
	ProductID id.ID  `db:"product_id" json:"productId"`

	PromotionalPrice types.Money `db:"promotional_price" json:"promotionalPrice"`

	// StartDate/EndDate are inclusive calendar dates (time component ignored).
	StartDate time.Time `db:"start_date" json:"startDate"`
	EndDate   time.Time `db:"end_date" json:"endDate"`

	Active bool `db:"active" json:"active"`
}

// New creates a new Promotion.
func New(name string, productID id.ID, price types.Money, start, end time.Time) *Promotion {
	return &Promotion{
		BaseCatalog:      entity.NewBaseCatalog(),
		Name:             name,
		ProductID:        productID,
		PromotionalPrice: price,
		StartDate:        start,
		EndDate:          end,
		Active:           true,
	}
}

// Validate implements entity.Validatable.
func (p *Promotion) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("promotion name is required").
			WithDetail("field", "name")
	}
	if id.IsNil(p.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if !p.PromotionalPrice.IsPositive() {
		return apperror.NewValidation("promotional price must be positive").
			WithDetail("field", "promotionalPrice")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return apperror.NewValidation("date range is required").
			WithDetail("field", "startDate")
	}
	if dateOnly(p.EndDate).Before(dateOnly(p.StartDate)) {
		return apperror.NewValidation("end date is before start date").
			WithDetail("field", "endDate")
	}
	return nil
}

// InEffectOn reports whether the promotion applies on the given local moment.
// Only the calendar date of t matters.
func (p *Promotion) InEffectOn(t time.Time) bool {
	if !p.Active {
		return false
	}
	day := dateOnly(t)
	return !day.Before(dateOnly(p.StartDate)) && !day.After(dateOnly(p.EndDate))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
