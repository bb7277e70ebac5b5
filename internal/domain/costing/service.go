package costing

import (
	"context"
	"fmt"
	"time"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/tx"
	"balcao/internal/core/types"
	"balcao/pkg/logger"
)

// Consumption is one batch draw produced by a FIFO consume. BatchID is nil for
// the shortfall layer (goods sold with no recorded purchase batch, costed at
// zero).
type Consumption struct {
	BatchID  *id.ID         `json:"batchId,omitempty"`
	Quantity types.Quantity `json:"quantity"`
	UnitCost types.Money    `json:"unitCost"`
}

// Cost returns quantity * unit cost.
func (c Consumption) Cost() types.Money {
	return c.UnitCost.Mul(c.Quantity.Decimal())
}

// TotalCost sums the cost of a consumption set.
func TotalCost(cs []Consumption) types.Money {
	total := types.ZeroMoney()
	for _, c := range cs {
		total = total.Add(c.Cost())
	}
	return total
}

// Service manages cost layers. It does not touch product stock; the inventory
// ledger owns that. Callers run both inside one transaction.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates the costing service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// OpenBatch records a new cost layer for a stock entry.
func (s *Service) OpenBatch(ctx context.Context, productID id.ID, qty types.Quantity, costPrice types.Money, purchaseDate time.Time, expiryDate *time.Time, transactionID *id.ID) (*entity.StockBatch, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("batch quantity must be positive")
	}
	if costPrice.IsNegative() {
		return nil, apperror.NewValidation("batch cost price cannot be negative")
	}

	b := entity.NewStockBatch(productID, qty, costPrice, purchaseDate)
	b.ExpiryDate = expiryDate
	b.TransactionID = transactionID

	if err := s.repo.CreateBatch(ctx, &b); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	return &b, nil
}

// Consume draws qty from the product's open batches oldest-first and returns
// the per-batch breakdown. When open batches do not cover qty, the remainder
// becomes a single zero-cost consumption: missing cost data must never block
// a sale, it only degrades the margin report.
func (s *Service) Consume(ctx context.Context, productID id.ID, qty types.Quantity) ([]Consumption, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("consume quantity must be positive")
	}

	var result []Consumption
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		batches, err := s.repo.ListOpenForUpdate(ctx, productID)
		if err != nil {
			return fmt.Errorf("list open batches: %w", err)
		}

		consumptions, shortfall := drainFIFO(batches, qty)
		for _, b := range batches {
			if err := s.repo.UpdateRemaining(ctx, b.ID, b.QtyRemaining); err != nil {
				return fmt.Errorf("update batch %s: %w", b.ID, err)
			}
		}

		if shortfall.IsPositive() {
			logger.Warn(ctx, "cost layer shortfall, costing remainder at zero",
				"product_id", productID,
				"shortfall", shortfall,
			)
			consumptions = append(consumptions, Consumption{
				Quantity: shortfall,
				UnitCost: types.ZeroMoney(),
			})
		}

		result = consumptions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Restore puts quantity back into a batch (sale void). When the batch no
// longer exists or the consumption was the zero-cost shortfall layer, a fresh
// batch at the given fallback cost is opened instead so valuation stays
// consistent with the restocked quantity.
func (s *Service) Restore(ctx context.Context, productID id.ID, cs []Consumption, fallbackCost types.Money) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, c := range cs {
			if c.BatchID == nil {
				if _, err := s.OpenBatch(ctx, productID, c.Quantity, fallbackCost, time.Now().UTC(), nil, nil); err != nil {
					return err
				}
				continue
			}
			if err := s.restoreIntoBatch(ctx, productID, c, fallbackCost); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) restoreIntoBatch(ctx context.Context, productID id.ID, c Consumption, fallbackCost types.Money) error {
	batches, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return err
	}
	for _, b := range batches {
		if b.ID == *c.BatchID {
			return s.repo.UpdateRemaining(ctx, b.ID, b.QtyRemaining+c.Quantity)
		}
	}
	_, err = s.OpenBatch(ctx, productID, c.Quantity, fallbackCost, time.Now().UTC(), nil, nil)
	return err
}

// CloseByTransaction zeroes the remaining quantity of batches opened by a
// purchase group, capped at what is still unconsumed (cancelling a purchase
// cannot reclaim layers already sold). Returns the total quantity reclaimed.
func (s *Service) CloseByTransaction(ctx context.Context, transactionID id.ID) (types.Quantity, error) {
	var reclaimed types.Quantity
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		batches, err := s.repo.ListByTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		for _, b := range batches {
			if b.QtyRemaining.IsPositive() {
				reclaimed += b.QtyRemaining
				if err := s.repo.UpdateRemaining(ctx, b.ID, 0); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reclaimed, nil
}

// Valuation returns the current stock valuation at cost, per product.
func (s *Service) Valuation(ctx context.Context) (map[id.ID]types.Money, error) {
	return s.repo.Valuation(ctx)
}

// drainFIFO consumes qty from batches in order, mutating QtyRemaining in
// place, and returns the draws plus any uncovered shortfall. Batches must
// already be sorted oldest purchase first.
func drainFIFO(batches []*entity.StockBatch, qty types.Quantity) ([]Consumption, types.Quantity) {
	var consumptions []Consumption
	remaining := qty

	for _, b := range batches {
		if !remaining.IsPositive() {
			break
		}
		if !b.QtyRemaining.IsPositive() {
			continue
		}

		draw := b.QtyRemaining
		if remaining < draw {
			draw = remaining
		}

		b.QtyRemaining -= draw
		remaining -= draw

		batchID := b.ID
		consumptions = append(consumptions, Consumption{
			BatchID:  &batchID,
			Quantity: draw,
			UnitCost: b.CostPrice,
		})
	}

	return consumptions, remaining
}
