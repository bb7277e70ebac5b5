// Package purchase provides the stock entry document and the coordinator
// that commits and cancels purchases across inventory, costing and finance.
package purchase

import (
	"context"
	"time"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
)

// EntryType classifies how the goods arrived.
type EntryType string

const (
	EntryPurchase   EntryType = "PURCHASE"
	EntryDonation   EntryType = "DONATION"
	EntryBonus      EntryType = "BONUS"
	EntryAdjustment EntryType = "ADJUSTMENT"
)

// Status of a purchase document.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusCanceled Status = "CANCELED"
)

// Item is one received product line.
type Item struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID   id.ID  `db:"product_id" json:"productId"`
	ProductName string `db:"product_name" json:"productName"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	UnitCost types.Money    `db:"unit_cost" json:"unitCost"`

	// RetailPrice is the new retail price entered alongside the cost
	// (last-purchase-wins). Zero means keep the current price.
	RetailPrice types.Money `db:"retail_price" json:"retailPrice"`

	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
}

// Total returns quantity * unit cost.
func (i Item) Total() types.Money {
	return i.UnitCost.Mul(i.Quantity.Decimal())
}

// Purchase is the committed stock entry document. Its ID doubles as the
// purchase group key linking the expense installments in finance.
type Purchase struct {
	entity.Document

	EntryType EntryType `db:"entry_type" json:"entryType"`
	Status    Status    `db:"status" json:"status"`

	SupplierID   *id.ID `db:"supplier_id" json:"supplierId,omitempty"`
	SupplierName string `db:"supplier_name" json:"supplierName,omitempty"`

	// Installment plan; meaningful only for EntryPurchase.
	Installments int       `db:"installments" json:"installments"`
	FirstDueDate time.Time `db:"first_due_date" json:"firstDueDate"`
	IntervalDays int       `db:"interval_days" json:"intervalDays"`

	Total types.Money `db:"total" json:"total"`

	Items []Item `db:"-" json:"items"`
}

// NewPurchase creates an empty active purchase document.
func NewPurchase(et EntryType) *Purchase {
	return &Purchase{
		Document:  entity.NewDocument(),
		EntryType: et,
		Status:    StatusActive,
	}
}

// Validate implements entity.Validatable.
func (p *Purchase) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if !isValidEntryType(p.EntryType) {
		return apperror.NewValidation("invalid entry type").
			WithDetail("field", "entryType").
			WithDetail("value", string(p.EntryType))
	}

	if len(p.Items) == 0 {
		return apperror.NewValidation("purchase has no items").
			WithDetail("field", "items")
	}

	for _, item := range p.Items {
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("lineNo", item.LineNo)
		}
		if item.UnitCost.IsNegative() {
			return apperror.NewValidation("item cost cannot be negative").
				WithDetail("lineNo", item.LineNo)
		}
	}

	if p.EntryType == EntryPurchase {
		if p.Installments < 1 {
			return apperror.NewValidation("purchase requires at least one installment").
				WithDetail("field", "installments")
		}
		if p.FirstDueDate.IsZero() {
			return apperror.NewValidation("purchase requires a first due date").
				WithDetail("field", "firstDueDate")
		}
	}

	return nil
}

// IsFinancial reports whether the entry produces expense installments.
// Donations, bonuses and adjustments move stock and open cost layers but
// never touch the books.
func (p *Purchase) IsFinancial() bool {
	return p.EntryType == EntryPurchase
}

func isValidEntryType(et EntryType) bool {
	switch et {
	case EntryPurchase, EntryDonation, EntryBonus, EntryAdjustment:
		return true
	}
	return false
}
