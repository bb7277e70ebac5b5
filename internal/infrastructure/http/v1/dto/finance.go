package dto

import (
	"time"

	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain/finance"
)

// TransactionRequest records a manual income or expense entry. The type comes
// from the route, not the body.
type TransactionRequest struct {
	Category      string      `json:"category" binding:"required"`
	Description   string      `json:"description" binding:"required"`
	Amount        types.Money `json:"amount" binding:"required"`
	Date          *time.Time  `json:"date"`
	DueDate       *time.Time  `json:"dueDate"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"paymentMethod"`
	CustomerID    *id.ID      `json:"customerId"`
}

// ToEntity converts the request to a Transaction of the given type.
func (r *TransactionRequest) ToEntity(txType finance.TransactionType) *finance.Transaction {
	t := finance.New(txType, r.Category, r.Description, r.Amount)
	if r.Date != nil {
		t.Date = *r.Date
	}
	t.DueDate = r.DueDate
	if r.Status != "" {
		t.Status = finance.TransactionStatus(r.Status)
	} else if r.DueDate != nil {
		t.Status = finance.StatusPending
	}
	t.PaymentMethod = r.PaymentMethod
	t.CustomerID = r.CustomerID
	return t
}
