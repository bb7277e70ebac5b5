package product

import (
	"context"
	"time"

	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain"
)

// Repository defines persistence operations for products.
//
// Stock is never written through Update: the column belongs to the inventory
// ledger's atomic increment/decrement statements.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByCode(ctx context.Context, barcode string) (*Product, error)
	GetByIDs(ctx context.Context, ids []id.ID) ([]*Product, error)

	// Update modifies catalog fields with optimistic locking. The stock
	// column is excluded from the SET list.
	Update(ctx context.Context, p *Product) error

	// ApplyPurchaseInfo overwrites cost/retail/supplier/expiry with the values
	// entered on the latest purchase (last-purchase-wins pricing).
	ApplyPurchaseInfo(ctx context.Context, productID id.ID, costPrice, retailPrice types.Money, supplierID *id.ID, expiryDate *time.Time) error

	SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error)

	// ListBelowMinStock returns products at or under their reorder threshold.
	ListBelowMinStock(ctx context.Context) ([]*Product, error)

	ExistsByCode(ctx context.Context, barcode string) (bool, error)
}

// ListFilter for filtering products.
type ListFilter struct {
	domain.ListFilter

	Category   *string
	SupplierID *id.ID
}
