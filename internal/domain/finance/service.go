package finance

import (
	"context"
	"fmt"
	"time"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain"
	"balcao/pkg/logger"
)

// Service provides business operations for financial transactions.
type Service struct {
	repo Repository
}

// NewService creates a new finance service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AddIncome records a paid income entry.
func (s *Service) AddIncome(ctx context.Context, t *Transaction) error {
	t.Type = TypeIncome
	return s.add(ctx, t)
}

// AddExpense records an expense entry.
func (s *Service) AddExpense(ctx context.Context, t *Transaction) error {
	t.Type = TypeExpense
	return s.add(ctx, t)
}

func (s *Service) add(ctx context.Context, t *Transaction) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	logger.Info(ctx, "transaction recorded",
		"transaction_id", t.ID,
		"type", t.Type,
		"category", t.Category,
		"amount", t.Amount,
	)
	return nil
}

// RecordDebtPayment books the income entry of a fiado payment.
func (s *Service) RecordDebtPayment(ctx context.Context, customerID id.ID, customerName string, amount types.Money, method string) error {
	t := New(TypeIncome, CategoryDebtPayment, fmt.Sprintf("Recebimento fiado - %s", customerName), amount)
	t.PaymentMethod = method
	t.CustomerID = &customerID
	return s.add(ctx, t)
}

// Settle marks a pending transaction as paid.
func (s *Service) Settle(ctx context.Context, txID id.ID) (*Transaction, error) {
	t, err := s.repo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusPaid {
		return nil, apperror.NewConflict("transaction is already paid")
	}

	t.Status = StatusPaid
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	logger.Info(ctx, "transaction settled", "transaction_id", t.ID, "amount", t.Amount)
	return t, nil
}

// GetByID retrieves a transaction.
func (s *Service) GetByID(ctx context.Context, txID id.ID) (*Transaction, error) {
	return s.repo.GetByID(ctx, txID)
}

// List retrieves transactions.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transaction], error) {
	return s.repo.List(ctx, filter)
}

// DeleteBySale removes the income entries of a sale being voided.
func (s *Service) DeleteBySale(ctx context.Context, saleID id.ID) error {
	n, err := s.repo.DeleteBySale(ctx, saleID)
	if err != nil {
		return fmt.Errorf("delete sale income: %w", err)
	}
	logger.Info(ctx, "sale income removed", "sale_id", saleID, "rows", n)
	return nil
}

// DeleteGroup removes all installments of a purchase being cancelled.
func (s *Service) DeleteGroup(ctx context.Context, groupID id.ID) error {
	n, err := s.repo.DeleteGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("delete purchase group: %w", err)
	}
	logger.Info(ctx, "purchase installments removed", "purchase_group_id", groupID, "rows", n)
	return nil
}

// ListBySale retrieves the transactions linked to one sale.
func (s *Service) ListBySale(ctx context.Context, saleID id.ID) ([]*Transaction, error) {
	return s.repo.ListBySale(ctx, saleID)
}

// ListByGroup retrieves the installments of one purchase.
func (s *Service) ListByGroup(ctx context.Context, groupID id.ID) ([]*Transaction, error) {
	return s.repo.ListByGroup(ctx, groupID)
}

// Summary is the cash flow report for a period.
type Summary struct {
	Income  types.Money `json:"income"`
	Expense types.Money `json:"expense"`
	Net     types.Money `json:"net"`
}

// Summarize computes paid income, paid expense and net result for a period.
func (s *Service) Summarize(ctx context.Context, period domain.Period) (Summary, error) {
	income, expense, err := s.repo.Summarize(ctx, period)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	return Summary{Income: income, Expense: expense, Net: income.Sub(expense)}, nil
}
