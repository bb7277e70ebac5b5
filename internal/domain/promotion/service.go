package promotion

import (
	"context"
	"fmt"
	"time"

	"balcao/internal/core/id"
	"balcao/internal/core/tx"
	"balcao/internal/core/types"
	"balcao/internal/domain"
	"balcao/pkg/logger"
)

// Repository defines persistence operations for promotions.
type Repository interface {
	Create(ctx context.Context, p *Promotion) error
	GetByID(ctx context.Context, promoID id.ID) (*Promotion, error)
	Update(ctx context.Context, p *Promotion) error
	Delete(ctx context.Context, promoID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Promotion], error)

	// ListInEffect returns active promotions whose date range covers day.
	ListInEffect(ctx context.Context, day time.Time) ([]*Promotion, error)
}

// ListFilter for filtering promotions.
type ListFilter struct {
	domain.ListFilter

	ProductID  *id.ID
	OnlyActive bool
}

// Cache caches the in-effect promotion set per calendar day. The POS pricing
// path hits this on every cart line; a miss falls through to the repository.
type Cache interface {
	GetDay(ctx context.Context, day string) ([]*Promotion, bool)
	SetDay(ctx context.Context, day string, promos []*Promotion)
	Invalidate(ctx context.Context)
}

// CampaignItem is one product entry in a campaign.
type CampaignItem struct {
	ProductID id.ID
	Price     types.Money
}

// Service provides business operations for promotions.
type Service struct {
	repo      Repository
	cache     Cache // optional
	txManager tx.Manager
}

// NewService creates a new promotion service. cache may be nil.
func NewService(repo Repository, cache Cache, txManager tx.Manager) *Service {
	return &Service{repo: repo, cache: cache, txManager: txManager}
}

// Create registers a promotion.
func (s *Service) Create(ctx context.Context, p *Promotion) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// CreateCampaign materializes one promotion row per product, all sharing
// name and date range.
func (s *Service) CreateCampaign(ctx context.Context, name string, start, end time.Time, items []CampaignItem) ([]*Promotion, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("campaign has no items")
	}

	promos := make([]*Promotion, 0, len(items))
	for _, item := range items {
		p := New(name, item.ProductID, item.Price, start, end)
		if err := p.Validate(ctx); err != nil {
			return nil, err
		}
		promos = append(promos, p)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, p := range promos {
			if err := s.repo.Create(ctx, p); err != nil {
				return fmt.Errorf("create promotion for product %s: %w", p.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	logger.Info(ctx, "campaign created", "name", name, "products", len(items))
	return promos, nil
}

// Update modifies a promotion.
func (s *Service) Update(ctx context.Context, p *Promotion) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a promotion.
func (s *Service) Delete(ctx context.Context, promoID id.ID) error {
	if err := s.repo.Delete(ctx, promoID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// GetByID retrieves a promotion.
func (s *Service) GetByID(ctx context.Context, promoID id.ID) (*Promotion, error) {
	return s.repo.GetByID(ctx, promoID)
}

// List retrieves promotions.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Promotion], error) {
	return s.repo.List(ctx, filter)
}

// InEffect returns the promotions applying at the given local moment,
// served from cache when possible.
func (s *Service) InEffect(ctx context.Context, localNow time.Time) ([]*Promotion, error) {
	day := localNow.Format("2006-01-02")

	if s.cache != nil {
		if promos, ok := s.cache.GetDay(ctx, day); ok {
			return promos, nil
		}
	}

	promos, err := s.repo.ListInEffect(ctx, localNow)
	if err != nil {
		return nil, fmt.Errorf("list promotions in effect: %w", err)
	}

	if s.cache != nil {
		s.cache.SetDay(ctx, day, promos)
	}
	return promos, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
