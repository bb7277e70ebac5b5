package customer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	byID map[id.ID]*Customer
}

func (f *fakeRepo) Create(_ context.Context, c *Customer) error {
	f.byID[c.ID] = c
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, customerID id.ID) (*Customer, error) {
	c, ok := f.byID[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID)
	}
	return c, nil
}

func (f *fakeRepo) Update(_ context.Context, c *Customer) error {
	f.byID[c.ID] = c
	return nil
}

func (f *fakeRepo) SetDeletionMark(_ context.Context, customerID id.ID, marked bool) error {
	f.byID[customerID].DeletionMark = marked
	return nil
}

func (f *fakeRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Customer], error) {
	panic("not used in tests")
}

func (f *fakeRepo) Charge(_ context.Context, customerID id.ID, amount types.Money) (types.Money, error) {
	c := f.byID[customerID]
	if c.DebtBalance.Add(amount).GreaterThan(c.CreditLimit) {
		return types.ZeroMoney(), apperror.NewCreditLimitExceeded(customerID.String(), c.AvailableCredit())
	}
	c.DebtBalance = c.DebtBalance.Add(amount)
	return c.DebtBalance, nil
}

func (f *fakeRepo) Credit(_ context.Context, customerID id.ID, amount types.Money) (types.Money, error) {
	c := f.byID[customerID]
	c.DebtBalance = c.DebtBalance.Sub(amount)
	if c.DebtBalance.IsNegative() {
		c.DebtBalance = types.ZeroMoney()
	}
	return c.DebtBalance, nil
}

type fakePayments struct {
	recorded []types.Money
}

func (f *fakePayments) RecordDebtPayment(_ context.Context, _ id.ID, _ string, amount types.Money, _ string) error {
	f.recorded = append(f.recorded, amount)
	return nil
}

func newService(c *Customer) (*Service, *fakeRepo, *fakePayments) {
	repo := &fakeRepo{byID: map[id.ID]*Customer{c.ID: c}}
	payments := &fakePayments{}
	return NewService(repo, payments, fakeTxManager{}), repo, payments
}

func TestCharge_WithinLimit(t *testing.T) {
	c := New("Maria", types.MustMoney("100.00"))
	svc, _, _ := newService(c)

	balance, err := svc.Charge(context.Background(), c.ID, types.MustMoney("60.00"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.MustMoney("60.00")))
	assert.True(t, c.AvailableCredit().Equal(types.MustMoney("40.00")))
}

func TestCharge_ExceedingLimitRejected(t *testing.T) {
	c := New("Maria", types.MustMoney("100.00"))
	c.DebtBalance = types.MustMoney("80.00")
	svc, _, _ := newService(c)

	_, err := svc.Charge(context.Background(), c.ID, types.MustMoney("30.00"))
	require.Error(t, err)
	assert.True(t, apperror.IsCreditLimitExceeded(err))

	// Debt unchanged after the rejection.
	assert.True(t, c.DebtBalance.Equal(types.MustMoney("80.00")))
}

func TestCharge_ExactlyAtLimit(t *testing.T) {
	c := New("Maria", types.MustMoney("100.00"))
	c.DebtBalance = types.MustMoney("70.00")
	svc, _, _ := newService(c)

	balance, err := svc.Charge(context.Background(), c.ID, types.MustMoney("30.00"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.MustMoney("100.00")))
	assert.True(t, c.AvailableCredit().IsZero())
}

func TestCredit_FlooredAtZero(t *testing.T) {
	c := New("Maria", types.MustMoney("100.00"))
	c.DebtBalance = types.MustMoney("20.00")
	svc, _, _ := newService(c)

	balance, err := svc.Credit(context.Background(), c.ID, types.MustMoney("50.00"))
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestPayDebt_ReducesDebtAndBooksIncome(t *testing.T) {
	c := New("Maria", types.MustMoney("100.00"))
	c.DebtBalance = types.MustMoney("50.00")
	svc, _, payments := newService(c)

	balance, err := svc.PayDebt(context.Background(), c.ID, types.MustMoney("30.00"), "CASH")
	require.NoError(t, err)

	assert.True(t, balance.Equal(types.MustMoney("20.00")))
	require.Len(t, payments.recorded, 1)
	assert.True(t, payments.recorded[0].Equal(types.MustMoney("30.00")))
}

func TestPayDebt_OverpaymentRejected(t *testing.T) {
	c := New("Maria", types.MustMoney("100.00"))
	c.DebtBalance = types.MustMoney("20.00")
	svc, _, payments := newService(c)

	_, err := svc.PayDebt(context.Background(), c.ID, types.MustMoney("25.00"), "CASH")
	require.Error(t, err)

	assert.True(t, c.DebtBalance.Equal(types.MustMoney("20.00")))
	assert.Empty(t, payments.recorded)
}
