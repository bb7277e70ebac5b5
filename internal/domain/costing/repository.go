// Package costing tracks purchase cost layers (batches) and consumes them
// FIFO to compute cost of goods sold.
package costing

import (
	"context"

	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
)

// Repository defines persistence operations for stock batches.
type Repository interface {
	CreateBatch(ctx context.Context, b *entity.StockBatch) error

	// ListOpenForUpdate returns the product's non-exhausted batches ordered
	// oldest purchase date first (ties by creation order), locked FOR UPDATE
	// so concurrent sales consume layers serially.
	ListOpenForUpdate(ctx context.Context, productID id.ID) ([]*entity.StockBatch, error)

	UpdateRemaining(ctx context.Context, batchID id.ID, remaining types.Quantity) error

	// ListByTransaction returns batches opened by a purchase transaction group.
	ListByTransaction(ctx context.Context, transactionID id.ID) ([]*entity.StockBatch, error)

	ListByProduct(ctx context.Context, productID id.ID) ([]*entity.StockBatch, error)

	// Valuation returns sum(qty_remaining * cost_price) grouped by product.
	Valuation(ctx context.Context) (map[id.ID]types.Money, error)
}
