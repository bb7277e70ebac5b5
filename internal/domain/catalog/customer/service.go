package customer

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

// Repository defines persistence operations for customers.
//
// Charge and Credit are single-row atomic updates: debt is never mutated by a
// read-then-write of the whole record, so two terminals charging the same
// customer concurrently cannot overwrite each other.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	SetDeletionMark(ctx context.Context, customerID id.ID, marked bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Customer], error)

	// Charge executes
	//   UPDATE customers SET debt_balance = debt_balance + $amt
	//   WHERE id = $id AND debt_balance + $amt <= credit_limit
	// and returns the new balance. Zero rows affected means the limit no
	// longer holds at write time; the repository reports it as
	// CREDIT_LIMIT_EXCEEDED with the current headroom.
	Charge(ctx context.Context, customerID id.ID, amount types.Money) (types.Money, error)

	// Credit reduces the balance, floored at zero, and returns the new
	// balance. Overpayment is a caller-responsibility boundary: the UI
	// rejects it before this is reached.
	Credit(ctx context.Context, customerID id.ID, amount types.Money) (types.Money, error)
}

// PaymentRecorder books the income side of a fiado debt payment.
type PaymentRecorder interface {
	RecordDebtPayment(ctx context.Context, customerID id.ID, customerName string, amount types.Money, method string) error
}

// Service provides customer and credit account operations.
type Service struct {
	repo      Repository
	payments  PaymentRecorder
	txManager tx.Manager
}

// NewService creates a new customer service.
func NewService(repo Repository, payments PaymentRecorder, txManager tx.Manager) *Service {
	return &Service{repo: repo, payments: payments, txManager: txManager}
}

// Create registers a customer.
func (s *Service) Create(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Create(ctx, c)
}

// GetByID retrieves a customer.
func (s *Service) GetByID(ctx context.Context, customerID id.ID) (*Customer, error) {
	return s.repo.GetByID(ctx, customerID)
}

// Update modifies a customer. Debt balance changes go through Charge/Credit.
func (s *Service) Update(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, c)
}

// List retrieves customers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Customer], error) {
	return s.repo.List(ctx, filter)
}

// Charge increases the customer's debt for a fiado sale. Fails with
// CREDIT_LIMIT_EXCEEDED if the limit would be broken; the check and the write
// are one atomic statement, so a concurrent charge cannot slip past it.
func (s *Service) Charge(ctx context.Context, customerID id.ID, amount types.Money) (types.Money, error) {
	if !amount.IsPositive() {
		return types.ZeroMoney(), fmt.Errorf("charge amount must be positive")
	}

	balance, err := s.repo.Charge(ctx, customerID, amount)
	if err != nil {
		return types.ZeroMoney(), err
	}

	logger.Info(ctx, "customer charged",
		"customer_id", customerID,
		"amount", amount.StringFixed(2),
		"new_balance", balance.StringFixed(2),
	)
	return balance, nil
}

// Credit reduces the customer's debt (fiado payment or fiado sale reversal).
// The balance never goes negative.
func (s *Service) Credit(ctx context.Context, customerID id.ID, amount types.Money) (types.Money, error) {
	if !amount.IsPositive() {
		return types.ZeroMoney(), fmt.Errorf("credit amount must be positive")
	}

	balance, err := s.repo.Credit(ctx, customerID, amount)
	if err != nil {
		return types.ZeroMoney(), err
	}

	logger.Info(ctx, "customer credited",
		"customer_id", customerID,
		"amount", amount.StringFixed(2),
		"new_balance", balance.StringFixed(2),
	)
	return balance, nil
}

// PayDebt receives a fiado payment: the debt decreases and the income entry
// is booked, in one transaction. Paying more than is owed is rejected.
func (s *Service) PayDebt(ctx context.Context, customerID id.ID, amount types.Money, method string) (types.Money, error) {
	if !amount.IsPositive() {
		return types.ZeroMoney(), apperror.NewValidation("payment amount must be positive")
	}

	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return types.ZeroMoney(), err
	}
	if amount.GreaterThan(c.DebtBalance) {
		return types.ZeroMoney(), apperror.NewValidation("payment exceeds outstanding debt").
			WithDetail("debt", c.DebtBalance.StringFixed(2)).
			WithDetail("amount", amount.StringFixed(2))
	}

	var balance types.Money
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		balance, err = s.repo.Credit(ctx, customerID, amount)
		if err != nil {
			return err
		}
		return s.payments.RecordDebtPayment(ctx, customerID, c.Name, amount, method)
	})
	if err != nil {
		return types.ZeroMoney(), err
	}

	logger.Info(ctx, "fiado payment received",
		"customer_id", customerID,
		"amount", amount.StringFixed(2),
		"remaining_debt", balance.StringFixed(2),
	)
	return balance, nil
}
