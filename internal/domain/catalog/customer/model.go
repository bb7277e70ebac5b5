// Package customer provides the Customer catalog and the credit account
// ("fiado") operations on it.
package customer

import (
	"context"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/types"
)

// Customer is a registered customer with an optional store-credit account.
//
// Invariant, enforced before a fiado sale commits any side effect:
// DebtBalance + saleTotal <= CreditLimit.
type Customer struct {
	entity.Catalog

	Document string `db:"document" json:"document,omitempty"` // CPF
	Phone    string `db:"phone" json:"phone,omitempty"`

	CreditLimit types.Money `db:"credit_limit" json:"creditLimit"`
	DebtBalance types.Money `db:"debt_balance" json:"debtBalance"`
}

// New creates a new Customer.
func New(name string, creditLimit types.Money) *Customer {
	return &Customer{
		Catalog:     entity.NewCatalog("", name),
		CreditLimit: creditLimit,
	}
}

// Validate implements entity.Validatable.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit cannot be negative").
			WithDetail("field", "creditLimit")
	}

	if c.DebtBalance.IsNegative() {
		return apperror.NewValidation("debt balance cannot be negative").
			WithDetail("field", "debtBalance")
	}

	return nil
}

// AvailableCredit returns the remaining fiado headroom.
func (c *Customer) AvailableCredit() types.Money {
	headroom := c.CreditLimit.Sub(c.DebtBalance)
	if headroom.IsNegative() {
		return types.ZeroMoney()
	}
	return headroom
}

// WouldExceed reports whether charging amount would break the credit limit.
func (c *Customer) WouldExceed(amount types.Money) bool {
	return c.DebtBalance.Add(amount).GreaterThan(c.CreditLimit)
}
