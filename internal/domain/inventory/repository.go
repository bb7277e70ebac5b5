// Package inventory provides the inventory ledger: the single mutator of
// product stock and the append-only log of stock movements.
package inventory

import (
	"context"
	"time"

	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
)

// Repository defines persistence operations for the ledger.
//
// Stock mutations are single-statement conditional updates against the
// product row, never read-then-write of the whole object: two terminals
// selling the same product concurrently each get a serialized decrement, and
// one of them fails cleanly when stock runs out instead of silently
// overwriting the other's deduction.
type Repository interface {
	// CreateMovement appends one immutable audit row.
	CreateMovement(ctx context.Context, m entity.StockMovement) error

	// Decrement executes
	//   UPDATE products SET stock = stock - $qty WHERE id = $id AND stock >= $qty
	// returning the new stock. Zero rows affected on an existing product is
	// reported as INSUFFICIENT_STOCK with the current availability.
	Decrement(ctx context.Context, productID id.ID, qty types.Quantity) (types.Quantity, error)

	// DecrementClamped subtracts at most the available stock, flooring at
	// zero, and returns (newStock, applied). Used only by reversal paths
	// where part of the quantity may have been legitimately consumed since
	// (cancelling a purchase whose goods were already resold).
	DecrementClamped(ctx context.Context, productID id.ID, qty types.Quantity) (newStock, applied types.Quantity, err error)

	// Increment adds to stock unconditionally and returns the new stock.
	Increment(ctx context.Context, productID id.ID, qty types.Quantity) (types.Quantity, error)

	// SetStock overwrites stock and returns the previous value. Runs under
	// row lock; only used by manual adjustment, which synthesizes the delta
	// movement itself.
	SetStock(ctx context.Context, productID id.ID, newStock types.Quantity) (previous types.Quantity, err error)

	GetStock(ctx context.Context, productID id.ID) (types.Quantity, error)
	GetStocks(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Quantity, error)

	ListMovements(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error)

	// SumMovements returns total entries and exits over the product's full
	// movement history.
	SumMovements(ctx context.Context, productID id.ID) (entries, exits types.Quantity, err error)
}

// MovementFilter for movement history queries.
type MovementFilter struct {
	Type     *entity.MovementType
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
