package finance

import (
	"context"
	"time"

	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain"
)

// Repository defines persistence operations for financial transactions.
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, txID id.ID) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transaction], error)

	// DeleteBySale removes the income rows of a voided sale.
	DeleteBySale(ctx context.Context, saleID id.ID) (int64, error)

	ListBySale(ctx context.Context, saleID id.ID) ([]*Transaction, error)

	// DeleteGroup removes all installments of a cancelled purchase.
	DeleteGroup(ctx context.Context, groupID id.ID) (int64, error)

	ListByGroup(ctx context.Context, groupID id.ID) ([]*Transaction, error)

	// Summarize returns total income and expense over a period, counting
	// PAID transactions only.
	Summarize(ctx context.Context, period domain.Period) (income, expense types.Money, err error)
}

// ListFilter for filtering transactions.
type ListFilter struct {
	domain.ListFilter

	Type     *TransactionType
	Status   *TransactionStatus
	Category string
	FromDate *time.Time
	ToDate   *time.Time
}
