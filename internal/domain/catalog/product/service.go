package product

import (
	"context"
	"fmt"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/core/tx"
	"balcao/internal/core/types"
	"balcao/internal/domain"
	"balcao/pkg/logger"
)

// StockAdjuster is the slice of the inventory ledger the product service
// needs: when an admin edits the stock field directly, the edit must go
// through the ledger so a movement row is synthesized for the delta.
type StockAdjuster interface {
	AdjustTo(ctx context.Context, productID id.ID, newStock types.Quantity, reason string) (types.Quantity, error)
}

// Service provides business operations for the product catalog.
type Service struct {
	repo      Repository
	ledger    StockAdjuster
	txManager tx.Manager
}

// NewService creates a new product service.
func NewService(repo Repository, ledger StockAdjuster, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledger,
		txManager: txManager,
	}
}

// Create registers a new product. Initial stock, when present, is recorded
// through the ledger so even the opening balance has a movement.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if exists, err := s.repo.ExistsByCode(ctx, p.Code); err != nil {
		return fmt.Errorf("check barcode: %w", err)
	} else if exists {
		return apperror.NewDuplicate("product", "barcode", p.Code)
	}

	initialStock := p.Stock
	p.Stock = 0

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if initialStock.IsPositive() {
			if _, err := s.ledger.AdjustTo(ctx, p.ID, initialStock, "Saldo inicial"); err != nil {
				return err
			}
			p.Stock = initialStock
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product created", "id", p.ID, "barcode", p.Code)
	return nil
}

// Update modifies a product. A changed stock value is not written directly:
// the delta goes through the ledger, which emits the equivalent entry or exit
// movement (classified by sign) so the audit trail has no gaps.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}

	desiredStock := p.Stock

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		if desiredStock != current.Stock {
			delta, err := s.ledger.AdjustTo(ctx, p.ID, desiredStock, "Ajuste manual (edição de produto)")
			if err != nil {
				return err
			}
			logger.Info(ctx, "stock adjusted via product edit",
				"product_id", p.ID,
				"delta", delta,
			)
		}
		return nil
	})
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetByCode retrieves a product by barcode.
func (s *Service) GetByCode(ctx context.Context, barcode string) (*Product, error) {
	return s.repo.GetByCode(ctx, barcode)
}

// Delete soft-deletes a product. Hard deletion is intentionally not exposed:
// historical sales and purchases keep referencing the row.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return err
	}
	return s.repo.SetDeletionMark(ctx, productID, true)
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}

// ListBelowMinStock returns the reorder report.
func (s *Service) ListBelowMinStock(ctx context.Context) ([]*Product, error) {
	return s.repo.ListBelowMinStock(ctx)
}
