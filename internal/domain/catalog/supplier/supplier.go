// Package supplier provides the Supplier catalog.
package supplier

import (
	"context"
	"fmt"
	"strings"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/tx"
	"balcao/internal/domain"
	"balcao/pkg/logger"
)

// Supplier is a goods supplier. Suppliers are auto-registered by name during
// purchase entry when not already known.
type Supplier struct {
	entity.Catalog

	Document string `db:"document" json:"document,omitempty"` // CNPJ/CPF
	Phone    string `db:"phone" json:"phone,omitempty"`
	Email    string `db:"email" json:"email,omitempty"`
}

// New creates a new Supplier.
func New(name string) *Supplier {
	return &Supplier{
		Catalog: entity.NewCatalog("", name),
	}
}

// Repository defines persistence operations for suppliers.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error)

	// GetByName matches case-insensitively on the trimmed name.
	GetByName(ctx context.Context, name string) (*Supplier, error)

	Update(ctx context.Context, s *Supplier) error
	SetDeletionMark(ctx context.Context, supplierID id.ID, marked bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Supplier], error)
}

// Service provides business operations for suppliers.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new supplier service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create registers a supplier.
func (s *Service) Create(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Create(ctx, sup)
}

// GetOrCreateByName finds a supplier by case-insensitive name match, creating
// it if unknown. Used by purchase entry.
func (s *Service) GetOrCreateByName(ctx context.Context, name string) (*Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("supplier name is empty")
	}

	existing, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("look up supplier %q: %w", name, err)
	}

	sup := New(name)
	if err := s.repo.Create(ctx, sup); err != nil {
		return nil, fmt.Errorf("auto-register supplier: %w", err)
	}

	logger.Info(ctx, "supplier auto-registered", "id", sup.ID, "name", name)
	return sup, nil
}

// GetByID retrieves a supplier.
func (s *Service) GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, supplierID)
}

// Update modifies a supplier.
func (s *Service) Update(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, sup)
}

// List retrieves suppliers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Supplier], error) {
	return s.repo.List(ctx, filter)
}
