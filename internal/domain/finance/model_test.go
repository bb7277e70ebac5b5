package finance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balcao/internal/core/types"
)

func TestBuildInstallments_EvenSplit(t *testing.T) {
	firstDue := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	got := BuildInstallments(types.MustMoney("300.00"), 3, firstDue, 30)

	require.Len(t, got, 3)
	for i, inst := range got {
		assert.True(t, inst.Amount.Equal(types.MustMoney("100.00")), "installment %d: got %s", i, inst.Amount)
	}
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), got[0].DueDate)
	assert.Equal(t, time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), got[1].DueDate)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), got[2].DueDate)
}

func TestBuildInstallments_ResidualOnLast(t *testing.T) {
	firstDue := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	got := BuildInstallments(types.MustMoney("100.00"), 3, firstDue, 30)

	require.Len(t, got, 3)
	assert.True(t, got[0].Amount.Equal(types.MustMoney("33.33")))
	assert.True(t, got[1].Amount.Equal(types.MustMoney("33.33")))
	assert.True(t, got[2].Amount.Equal(types.MustMoney("33.34")), "got %s", got[2].Amount)

	sum := types.ZeroMoney()
	for _, inst := range got {
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, sum.Equal(types.MustMoney("100.00")))
}

func TestBuildInstallments_SingleInstallment(t *testing.T) {
	firstDue := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	got := BuildInstallments(types.MustMoney("59.90"), 1, firstDue, 30)

	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.Equal(types.MustMoney("59.90")))
	assert.Equal(t, firstDue, got[0].DueDate)
}

func TestBuildInstallments_ZeroCountDefaultsToOne(t *testing.T) {
	got := BuildInstallments(types.MustMoney("10.00"), 0, time.Now(), 30)
	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.Equal(types.MustMoney("10.00")))
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr bool
	}{
		{"valid", func(tx *Transaction) {}, false},
		{"zero amount", func(tx *Transaction) { tx.Amount = types.ZeroMoney() }, true},
		{"negative amount", func(tx *Transaction) { tx.Amount = types.MustMoney("-5") }, true},
		{"missing category", func(tx *Transaction) { tx.Category = "" }, true},
		{"pending without due date", func(tx *Transaction) { tx.Status = StatusPending }, true},
		{"pending with due date", func(tx *Transaction) {
			tx.Status = StatusPending
			due := time.Now().AddDate(0, 0, 30)
			tx.DueDate = &due
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := New(TypeExpense, CategoryPurchase, "Compra #abc", types.MustMoney("100.00"))
			tt.mutate(tx)
			err := tx.Validate(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransactionIsOverdue(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	due := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	tx := New(TypeExpense, CategoryPurchase, "", types.MustMoney("50"))
	tx.Status = StatusPending
	tx.DueDate = &due
	assert.True(t, tx.IsOverdue(now))

	// Due today is not overdue.
	dueToday := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	tx.DueDate = &dueToday
	assert.False(t, tx.IsOverdue(now))

	// Paid is never overdue.
	tx.DueDate = &due
	tx.Status = StatusPaid
	assert.False(t, tx.IsOverdue(now))
}
