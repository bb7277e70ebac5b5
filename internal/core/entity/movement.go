package entity

import (
	"time"

	"balcao/internal/core/id"
	"balcao/internal/core/types"
)

// MovementType defines stock movement direction.
type MovementType string

const (
	// MovementEntry increases stock (purchase, donation, void restock, adjustment up)
	MovementEntry MovementType = "entry"
	// MovementExit decreases stock (sale, cancel purchase, adjustment down)
	MovementExit MovementType = "exit"
)

// StockMovement is one append-only audit row in the inventory ledger.
// Movements are immutable: never updated, never deleted. Every stock mutation
// emits exactly one, so product stock always reconciles with
// sum(entries) - sum(exits).
type StockMovement struct {
	// LineID is the unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// ProductID is the product whose stock moved
	ProductID id.ID `db:"product_id" json:"productId"`

	// Type: entry or exit. Quantity is always positive.
	Type     MovementType   `db:"type" json:"type"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Reason is the operator-visible explanation ("Venda #a1b2c3d4",
	// "Estorno Venda #a1b2c3d4", "Ajuste manual: quebra")
	Reason string `db:"reason" json:"reason"`

	// RecorderID/RecorderType link the movement to the document that caused
	// it (sale, purchase, return, adjustment). Explicit keys, not description
	// matching, so reversal never relies on text heuristics.
	RecorderID   *id.ID `db:"recorder_id" json:"recorderId,omitempty"`
	RecorderType string `db:"recorder_type" json:"recorderType,omitempty"`

	// Period is the business date of the movement
	Period time.Time `db:"period" json:"period"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a new stock movement.
func NewStockMovement(productID id.ID, mt MovementType, qty types.Quantity, reason string) StockMovement {
	now := time.Now().UTC()
	return StockMovement{
		LineID:    id.New(),
		ProductID: productID,
		Type:      mt,
		Quantity:  qty,
		Reason:    reason,
		Period:    now,
		CreatedAt: now,
	}
}

// WithRecorder links the movement to its originating document.
func (m StockMovement) WithRecorder(recorderID id.ID, recorderType string) StockMovement {
	m.RecorderID = &recorderID
	m.RecorderType = recorderType
	return m
}

// SignedQuantity returns quantity with sign based on movement type.
// Entry = positive, exit = negative.
func (m *StockMovement) SignedQuantity() types.Quantity {
	if m.Type == MovementExit {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
