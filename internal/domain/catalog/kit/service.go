package kit

import (
	"context"
	"fmt"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/core/tx"
	"balcao/internal/core/types"
	"balcao/internal/domain"
)

// Repository defines persistence operations for kits.
type Repository interface {
	Create(ctx context.Context, k *Kit) error
	GetByID(ctx context.Context, kitID id.ID) (*Kit, error)
	GetByCode(ctx context.Context, code string) (*Kit, error)
	Update(ctx context.Context, k *Kit) error
	SaveComponents(ctx context.Context, kitID id.ID, components []Component) error
	GetComponents(ctx context.Context, kitID id.ID) ([]Component, error)
	SetDeletionMark(ctx context.Context, kitID id.ID, marked bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Kit], error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// StockReader resolves current component stocks for derived availability.
type StockReader interface {
	GetStocks(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Quantity, error)
}

// Service provides business operations for kits.
type Service struct {
	repo      Repository
	stocks    StockReader
	txManager tx.Manager
}

// NewService creates a new kit service.
func NewService(repo Repository, stocks StockReader, txManager tx.Manager) *Service {
	return &Service{repo: repo, stocks: stocks, txManager: txManager}
}

// Create registers a kit with its components.
func (s *Service) Create(ctx context.Context, k *Kit) error {
	if err := k.Validate(ctx); err != nil {
		return err
	}

	if exists, err := s.repo.ExistsByCode(ctx, k.Code); err != nil {
		return fmt.Errorf("check kit barcode: %w", err)
	} else if exists {
		return apperror.NewDuplicate("kit", "barcode", k.Code)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, k); err != nil {
			return fmt.Errorf("create kit: %w", err)
		}
		return s.repo.SaveComponents(ctx, k.ID, k.Components)
	})
}

// Update modifies a kit and replaces its component list.
func (s *Service) Update(ctx context.Context, k *Kit) error {
	if err := k.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, k); err != nil {
			return err
		}
		return s.repo.SaveComponents(ctx, k.ID, k.Components)
	})
}

// GetByID retrieves a kit with components.
func (s *Service) GetByID(ctx context.Context, kitID id.ID) (*Kit, error) {
	k, err := s.repo.GetByID(ctx, kitID)
	if err != nil {
		return nil, err
	}
	return s.loadComponents(ctx, k)
}

// GetByCode retrieves a kit by virtual barcode.
func (s *Service) GetByCode(ctx context.Context, code string) (*Kit, error) {
	k, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.loadComponents(ctx, k)
}

// Delete soft-deletes a kit.
func (s *Service) Delete(ctx context.Context, kitID id.ID) error {
	return s.repo.SetDeletionMark(ctx, kitID, true)
}

// List retrieves kits.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Kit], error) {
	return s.repo.List(ctx, filter)
}

// Availability returns how many kits can be assembled right now.
// Inactive kits report zero regardless of component stock.
func (s *Service) Availability(ctx context.Context, kitID id.ID) (int64, error) {
	k, err := s.GetByID(ctx, kitID)
	if err != nil {
		return 0, err
	}
	if !k.Active {
		return 0, nil
	}

	productIDs := make([]id.ID, 0, len(k.Components))
	for _, c := range k.Components {
		productIDs = append(productIDs, c.ProductID)
	}

	stocks, err := s.stocks.GetStocks(ctx, productIDs)
	if err != nil {
		return 0, fmt.Errorf("get component stocks: %w", err)
	}

	return k.DerivedStock(stocks), nil
}

func (s *Service) loadComponents(ctx context.Context, k *Kit) (*Kit, error) {
	components, err := s.repo.GetComponents(ctx, k.ID)
	if err != nil {
		return nil, fmt.Errorf("get components: %w", err)
	}
	k.Components = components
	return k, nil
}
