package inventory

import (
	"context"
	"fmt"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/tx"
	"balcao/internal/core/types"
	"balcao/pkg/logger"
)

// Recorder identifies the document responsible for a movement.
type Recorder struct {
	ID   id.ID
	Type string // "Sale", "SaleVoid", "SaleReturn", "Purchase", "PurchaseCancel", "Adjustment"
}

// Service is the inventory ledger. Every stock mutation goes through here and
// emits exactly one movement row alongside the stock update, inside the same
// transaction.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates the ledger service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Entry increases stock and appends an ENTRY movement.
func (s *Service) Entry(ctx context.Context, productID id.ID, qty types.Quantity, reason string, rec *Recorder) (types.Quantity, error) {
	if !qty.IsPositive() {
		return 0, apperror.NewValidation("entry quantity must be positive")
	}

	var newStock types.Quantity
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		newStock, err = s.repo.Increment(ctx, productID, qty)
		if err != nil {
			return err
		}
		return s.repo.CreateMovement(ctx, s.movement(productID, entity.MovementEntry, qty, reason, rec))
	})
	if err != nil {
		return 0, err
	}

	logger.Debug(ctx, "stock entry", "product_id", productID, "qty", qty, "new_stock", newStock)
	return newStock, nil
}

// Exit decreases stock and appends an EXIT movement. An exit exceeding
// current stock is rejected with INSUFFICIENT_STOCK, never clamped, so
// over-selling is visible at the till instead of silently masked.
func (s *Service) Exit(ctx context.Context, productID id.ID, qty types.Quantity, reason string, rec *Recorder) (types.Quantity, error) {
	if !qty.IsPositive() {
		return 0, apperror.NewValidation("exit quantity must be positive")
	}

	var newStock types.Quantity
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		newStock, err = s.repo.Decrement(ctx, productID, qty)
		if err != nil {
			return err
		}
		return s.repo.CreateMovement(ctx, s.movement(productID, entity.MovementExit, qty, reason, rec))
	})
	if err != nil {
		return 0, err
	}

	logger.Debug(ctx, "stock exit", "product_id", productID, "qty", qty, "new_stock", newStock)
	return newStock, nil
}

// ExitClamped decreases stock by at most the available quantity, flooring at
// zero. Only reversal paths use this: cancelling a purchase cannot reclaim
// goods that were already resold. The movement records the applied quantity;
// nothing is emitted when nothing could be applied.
func (s *Service) ExitClamped(ctx context.Context, productID id.ID, qty types.Quantity, reason string, rec *Recorder) (applied types.Quantity, err error) {
	if !qty.IsPositive() {
		return 0, apperror.NewValidation("exit quantity must be positive")
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		_, app, err := s.repo.DecrementClamped(ctx, productID, qty)
		if err != nil {
			return err
		}
		applied = app
		if applied.IsZero() {
			return nil
		}
		return s.repo.CreateMovement(ctx, s.movement(productID, entity.MovementExit, applied, reason, rec))
	})
	if err != nil {
		return 0, err
	}

	if applied < qty {
		logger.Warn(ctx, "exit clamped below requested quantity",
			"product_id", productID,
			"requested", qty,
			"applied", applied,
		)
	}
	return applied, nil
}

// AdjustTo sets stock to an absolute value and synthesizes the equivalent
// movement from the delta (ENTRY if positive, EXIT if negative) so manual
// edits leave no gap in the audit trail. Returns the delta.
func (s *Service) AdjustTo(ctx context.Context, productID id.ID, newStock types.Quantity, reason string) (types.Quantity, error) {
	if newStock.IsNegative() {
		return 0, apperror.NewValidation("stock cannot be negative")
	}

	var delta types.Quantity
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		previous, err := s.repo.SetStock(ctx, productID, newStock)
		if err != nil {
			return err
		}

		delta = newStock - previous
		if delta.IsZero() {
			return nil
		}

		mt := entity.MovementEntry
		if delta.IsNegative() {
			mt = entity.MovementExit
		}
		rec := Recorder{ID: productID, Type: "Adjustment"}
		return s.repo.CreateMovement(ctx, s.movement(productID, mt, delta.Abs(), reason, &rec))
	})
	if err != nil {
		return 0, err
	}

	if !delta.IsZero() {
		logger.Info(ctx, "manual stock adjustment",
			"product_id", productID,
			"delta", delta,
			"reason", reason,
		)
	}
	return delta, nil
}

// GetStock returns current stock for one product.
func (s *Service) GetStock(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return s.repo.GetStock(ctx, productID)
}

// GetStocks returns current stock for several products at once.
func (s *Service) GetStocks(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Quantity, error) {
	return s.repo.GetStocks(ctx, productIDs)
}

// History returns a product's movement log.
func (s *Service) History(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	return s.repo.ListMovements(ctx, productID, filter)
}

// Reconciliation compares a product's stock field against its full movement
// history. Stock must equal sum(entries) - sum(exits) after any committed
// sequence of operations.
type Reconciliation struct {
	ProductID id.ID          `json:"productId"`
	Stock     types.Quantity `json:"stock"`
	Entries   types.Quantity `json:"entries"`
	Exits     types.Quantity `json:"exits"`
	Expected  types.Quantity `json:"expected"`
	Balanced  bool           `json:"balanced"`
}

// Reconcile builds the reconciliation report for one product.
func (s *Service) Reconcile(ctx context.Context, productID id.ID) (Reconciliation, error) {
	stock, err := s.repo.GetStock(ctx, productID)
	if err != nil {
		return Reconciliation{}, err
	}

	entries, exits, err := s.repo.SumMovements(ctx, productID)
	if err != nil {
		return Reconciliation{}, fmt.Errorf("sum movements: %w", err)
	}

	expected := entries - exits
	return Reconciliation{
		ProductID: productID,
		Stock:     stock,
		Entries:   entries,
		Exits:     exits,
		Expected:  expected,
		Balanced:  stock == expected,
	}, nil
}

func (s *Service) movement(productID id.ID, mt entity.MovementType, qty types.Quantity, reason string, rec *Recorder) entity.StockMovement {
	m := entity.NewStockMovement(productID, mt, qty, reason)
	if rec != nil {
		m = m.WithRecorder(rec.ID, rec.Type)
	}
	return m
}
