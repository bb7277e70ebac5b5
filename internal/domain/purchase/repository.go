package purchase

import (
	"context"
	"time"

	"balcao/internal/core/id"
	"balcao/internal/domain"
)

// Repository defines persistence operations for purchases.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, purchaseID id.ID) (*Purchase, error)
	Update(ctx context.Context, p *Purchase) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error)

	// NextNumber issues the next sequential document number ("C-000042").
	NextNumber(ctx context.Context) (string, error)
}

// ListFilter for filtering purchases.
type ListFilter struct {
	domain.ListFilter

	SupplierID *id.ID
	EntryType  *EntryType
	Status     *Status
	FromDate   *time.Time
	ToDate     *time.Time
}
