// Package sale provides the Sale document and the coordinator that commits,
// voids and partially returns sales across inventory, costing, finance and
// customer credit.
package sale

import (
	"context"
	"time"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain/costing"
	"balcao/internal/domain/pricing"
)

// PaymentMethod is the tender used at the till.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCredit   PaymentMethod = "CREDIT"
	PaymentDebit    PaymentMethod = "DEBIT"
	PaymentPix      PaymentMethod = "PIX"
	PaymentFiado    PaymentMethod = "FIADO"
	PaymentMultiple PaymentMethod = "MULTIPLE"
)

// Payment is one tender slice of a MULTIPLE payment (or the single implicit
// payment of a simple sale).
type Payment struct {
	Method PaymentMethod `db:"method" json:"method"`
	Amount types.Money   `db:"amount" json:"amount"`
}

// Status of a sale document.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusCanceled  Status = "CANCELED"
)

// LineKind distinguishes product lines from kit lines.
type LineKind string

const (
	LineProduct LineKind = "product"
	LineKit     LineKind = "kit"
)

// StockEffect is one concrete stock exit produced by a line. A product line
// has exactly one; a kit line has one per component. The effect carries its
// FIFO consumptions and allocated revenue so Void and Return reverse exactly
// what Commit did, at the original granularity.
type StockEffect struct {
	EffectID  id.ID          `db:"effect_id" json:"effectId"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	// AllocatedRevenue is this product's share of the line total (the whole
	// total for product lines, a proportional share for kit components).
	AllocatedRevenue types.Money `db:"allocated_revenue" json:"allocatedRevenue"`

	Consumptions []costing.Consumption `db:"-" json:"consumptions,omitempty"`
}

// Line is one cart line as committed.
type Line struct {
	LineID id.ID    `db:"line_id" json:"lineId"`
	LineNo int      `db:"line_no" json:"lineNo"`
	Kind   LineKind `db:"kind" json:"kind"`

	// ItemID references a product or a kit depending on Kind.
	ItemID      id.ID  `db:"item_id" json:"itemId"`
	Description string `db:"description" json:"description"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// StandardUnitPrice is the resolved price before discounts; UnitPrice is
	// what the customer actually paid per unit. The discount is stored as a
	// ratio so a later repricing reproduces UnitPrice from the new standard.
	StandardUnitPrice types.Money       `db:"standard_unit_price" json:"standardUnitPrice"`
	Discount          *pricing.Discount `db:"-" json:"discount,omitempty"`
	UnitPrice         types.Money       `db:"unit_price" json:"unitPrice"`
	Total             types.Money       `db:"total" json:"total"`

	// CostTotal is the FIFO cost of goods for the line.
	CostTotal types.Money `db:"cost_total" json:"costTotal"`

	// ReturnedQty accumulates partial returns against this line.
	ReturnedQty types.Quantity `db:"returned_qty" json:"returnedQty"`

	Effects []StockEffect `db:"-" json:"effects"`
}

// RemainingQty is the quantity still returnable.
func (l *Line) RemainingQty() types.Quantity {
	return l.Quantity - l.ReturnedQty
}

// Sale is the committed sale document.
type Sale struct {
	entity.Document

	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`

	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`
	Payments      []Payment     `db:"-" json:"payments"`

	Status Status `db:"status" json:"status"`

	Total     types.Money `db:"total" json:"total"`
	CostTotal types.Money `db:"cost_total" json:"costTotal"`

	Lines []Line `db:"-" json:"lines"`
}

// NewSale creates an empty completed sale document.
func NewSale() *Sale {
	return &Sale{
		Document: entity.NewDocument(),
		Status:   StatusCompleted,
	}
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}

	if len(s.Lines) == 0 {
		return apperror.NewValidation("sale has no lines").
			WithDetail("field", "lines")
	}

	for _, l := range s.Lines {
		if !l.Quantity.IsPositive() {
			return apperror.NewValidation("line quantity must be positive").
				WithDetail("lineNo", l.LineNo)
		}
	}

	if !isValidPaymentMethod(s.PaymentMethod) {
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "paymentMethod").
			WithDetail("value", string(s.PaymentMethod))
	}

	if s.PaymentMethod == PaymentFiado && s.CustomerID == nil {
		return apperror.NewValidation("fiado sale requires a customer").
			WithDetail("field", "customerId")
	}

	if s.PaymentMethod == PaymentMultiple && len(s.Payments) < 2 {
		return apperror.NewValidation("multiple payment requires at least two tenders").
			WithDetail("field", "payments")
	}

	// Whenever tenders are present they must cover the total exactly, no
	// matter the payment method.
	if len(s.Payments) > 0 {
		paid := types.ZeroMoney()
		for _, p := range s.Payments {
			if !p.Amount.IsPositive() {
				return apperror.NewValidation("payment amount must be positive").
					WithDetail("field", "payments")
			}
			paid = paid.Add(p.Amount)
		}
		if paid.Sub(s.Total).Abs().GreaterThan(types.PaymentTolerance) {
			return apperror.NewPaymentMismatch(s.Total, paid)
		}
	}

	return nil
}

// Margin returns total revenue minus total FIFO cost.
func (s *Sale) Margin() types.Money {
	return s.Total.Sub(s.CostTotal)
}

func isValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCredit, PaymentDebit, PaymentPix, PaymentFiado, PaymentMultiple:
		return true
	}
	return false
}

// FiadoDueDate computes when a fiado receivable falls due.
func FiadoDueDate(saleDate time.Time, dueDays int) time.Time {
	if dueDays <= 0 {
		dueDays = 30
	}
	return saleDate.AddDate(0, 0, dueDays)
}
