package sale

import (
	"context"
	"time"

	"balcao/internal/core/id"
	"balcao/internal/domain"
)

// Repository defines persistence operations for sales.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// Update persists status and returned-quantity changes with an optimistic
	// version check; a lost race surfaces as CONCURRENT_MODIFICATION.
	Update(ctx context.Context, s *Sale) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)

	// NextNumber issues the next sequential document number ("V-000123").
	NextNumber(ctx context.Context) (string, error)
}

// ListFilter for filtering sales.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	Status     *Status
	FromDate   *time.Time
	ToDate     *time.Time
}
