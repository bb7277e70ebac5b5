// Package finance records the money side of the operation: sale income,
// purchase expenses with installments, debt payments and manual entries.
package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
)

// TransactionType defines the direction of a financial transaction.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// TransactionStatus defines settlement state.
type TransactionStatus string

const (
	StatusPaid    TransactionStatus = "PAID"
	StatusPending TransactionStatus = "PENDING"
)

// Well-known categories. Category is free text for manual entries; these are
// the ones the coordinators write.
const (
	CategorySale        = "Venda"
	CategoryPurchase    = "Compra de Mercadoria"
	CategoryDebtPayment = "Recebimento Fiado"
)

// TransactionItem is a snapshot of one purchased item, denormalized into the
// expense so the financial record stays readable after product edits.
type TransactionItem struct {
	LineID      id.ID          `db:"line_id" json:"lineId"`
	ProductID   id.ID          `db:"product_id" json:"productId"`
	ProductName string         `db:"product_name" json:"productName"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	UnitCost    types.Money    `db:"unit_cost" json:"unitCost"`
}

// Transaction is one financial entry.
type Transaction struct {
	ID id.ID `db:"id" json:"id"`

	Type        TransactionType `db:"type" json:"type"`
	Category    string          `db:"category" json:"category"`
	Description string          `db:"description" json:"description"`
	Amount      types.Money     `db:"amount" json:"amount"` // always positive

	// Date is when the transaction was recorded; DueDate is when an
	// installment falls due (nil for immediate entries).
	Date    time.Time  `db:"date" json:"date"`
	DueDate *time.Time `db:"due_date" json:"dueDate,omitempty"`

	Status        TransactionStatus `db:"status" json:"status"`
	PaymentMethod string            `db:"payment_method" json:"paymentMethod,omitempty"`

	// SourceSaleID links sale income to its sale; PurchaseGroupID groups the
	// installments of one purchase. Reversal deletes by these keys, never by
	// matching description text.
	SourceSaleID    *id.ID `db:"source_sale_id" json:"sourceSaleId,omitempty"`
	PurchaseGroupID *id.ID `db:"purchase_group_id" json:"purchaseGroupId,omitempty"`

	// CustomerID links fiado income to the paying customer.
	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`

	Items []TransactionItem `db:"-" json:"items,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a transaction recorded now.
func New(tt TransactionType, category, description string, amount types.Money) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:          id.New(),
		Type:        tt,
		Category:    category,
		Description: description,
		Amount:      amount,
		Date:        now,
		Status:      StatusPaid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks transaction invariants.
func (t *Transaction) Validate(_ context.Context) error {
	if t.Type != TypeIncome && t.Type != TypeExpense {
		return apperror.NewValidation("transaction type must be INCOME or EXPENSE")
	}
	if !t.Amount.IsPositive() {
		return apperror.NewValidation("transaction amount must be positive")
	}
	if t.Category == "" {
		return apperror.NewValidation("transaction category is required")
	}
	if t.Status == StatusPending && t.DueDate == nil {
		return apperror.NewValidation("pending transaction requires a due date")
	}
	return nil
}

// IsOverdue reports whether a pending transaction is past due at the given
// local moment.
func (t *Transaction) IsOverdue(localNow time.Time) bool {
	if t.Status != StatusPending || t.DueDate == nil {
		return false
	}
	y1, m1, d1 := t.DueDate.Date()
	y2, m2, d2 := localNow.Date()
	due := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// Installment is one slice of a purchase total.
type Installment struct {
	Amount  types.Money
	DueDate time.Time
}

// BuildInstallments splits total into n installments rounded to cents, the
// last one absorbing the rounding residual so the sum is exactly total.
// Due dates start at firstDue and step by intervalDays.
func BuildInstallments(total types.Money, n int, firstDue time.Time, intervalDays int) []Installment {
	if n <= 0 {
		n = 1
	}

	base := total.DivRound(decimal.NewFromInt(int64(n)), 2)
	installments := make([]Installment, n)
	allocated := types.ZeroMoney()

	for i := 0; i < n; i++ {
		amount := base
		if i == n-1 {
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)
		installments[i] = Installment{
			Amount:  amount,
			DueDate: firstDue.AddDate(0, 0, i*intervalDays),
		}
	}
	return installments
}
