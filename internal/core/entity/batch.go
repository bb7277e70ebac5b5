package entity

import (
	"time"

	"balcao/internal/core/id"
	"balcao/internal/core/types"
)

// StockBatch is one FIFO cost layer. Every stock entry opens exactly one new
// batch, never merged with an existing one, to preserve purchase-cost history.
// Exits consume layers oldest purchase date first (ties broken by insertion
// order) for margin and valuation reporting.
type StockBatch struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// TransactionID links the batch to the expense transaction of the
	// purchase that opened it (nil for donations, bonuses, adjustments).
	TransactionID *id.ID `db:"transaction_id" json:"transactionId,omitempty"`

	// QtyOriginal never changes; 0 <= QtyRemaining <= QtyOriginal.
	QtyOriginal  types.Quantity `db:"qty_original" json:"qtyOriginal"`
	QtyRemaining types.Quantity `db:"qty_remaining" json:"qtyRemaining"`

	// CostPrice is the unit cost at entry (possibly zero for donations).
	CostPrice types.Money `db:"cost_price" json:"costPrice"`

	PurchaseDate time.Time  `db:"purchase_date" json:"purchaseDate"`
	ExpiryDate   *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockBatch opens a new cost layer with the full quantity remaining.
func NewStockBatch(productID id.ID, qty types.Quantity, costPrice types.Money, purchaseDate time.Time) StockBatch {
	return StockBatch{
		ID:           id.New(),
		ProductID:    productID,
		QtyOriginal:  qty,
		QtyRemaining: qty,
		CostPrice:    costPrice,
		PurchaseDate: purchaseDate,
		CreatedAt:    time.Now().UTC(),
	}
}

// IsExhausted reports whether the layer is fully consumed.
func (b *StockBatch) IsExhausted() bool {
	return b.QtyRemaining.IsZero()
}
