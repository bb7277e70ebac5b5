package purchase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balcao/internal/config"
	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain"
	"balcao/internal/domain/catalog/product"
	"balcao/internal/domain/catalog/supplier"
	"balcao/internal/domain/finance"
	"balcao/internal/domain/inventory"

	"github.com/shopspring/decimal"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProducts struct {
	byID    map[id.ID]*product.Product
	applied int
}

func (f *fakeProducts) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	p, ok := f.byID[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (f *fakeProducts) ApplyPurchaseInfo(_ context.Context, productID id.ID, costPrice, retailPrice types.Money, supplierID *id.ID, expiryDate *time.Time) error {
	p := f.byID[productID]
	p.CostPrice = costPrice
	p.RetailPrice = retailPrice
	p.SupplierID = supplierID
	p.ExpiryDate = expiryDate
	f.applied++
	return nil
}

type fakeSuppliers struct {
	byName  map[string]*supplier.Supplier
	created int
}

func (f *fakeSuppliers) GetOrCreateByName(_ context.Context, name string) (*supplier.Supplier, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if sup, ok := f.byName[key]; ok {
		return sup, nil
	}
	sup := supplier.New(strings.TrimSpace(name))
	f.byName[key] = sup
	f.created++
	return sup, nil
}

type fakeLedger struct {
	stocks map[id.ID]types.Quantity
}

func (f *fakeLedger) Entry(_ context.Context, productID id.ID, qty types.Quantity, _ string, _ *inventory.Recorder) (types.Quantity, error) {
	f.stocks[productID] += qty
	return f.stocks[productID], nil
}

func (f *fakeLedger) ExitClamped(_ context.Context, productID id.ID, qty types.Quantity, _ string, _ *inventory.Recorder) (types.Quantity, error) {
	applied := qty
	if f.stocks[productID] < qty {
		applied = f.stocks[productID]
	}
	f.stocks[productID] -= applied
	return applied, nil
}

type fakeCosts struct {
	batches []*entity.StockBatch
}

func (f *fakeCosts) OpenBatch(_ context.Context, productID id.ID, qty types.Quantity, costPrice types.Money, purchaseDate time.Time, expiryDate *time.Time, transactionID *id.ID) (*entity.StockBatch, error) {
	b := entity.NewStockBatch(productID, qty, costPrice, purchaseDate)
	b.ExpiryDate = expiryDate
	b.TransactionID = transactionID
	f.batches = append(f.batches, &b)
	return &b, nil
}

func (f *fakeCosts) CloseByTransaction(_ context.Context, transactionID id.ID) (types.Quantity, error) {
	var reclaimed types.Quantity
	for _, b := range f.batches {
		if b.TransactionID != nil && *b.TransactionID == transactionID {
			reclaimed += b.QtyRemaining
			b.QtyRemaining = 0
		}
	}
	return reclaimed, nil
}

type fakeBooks struct {
	expenses []*finance.Transaction
}

func (f *fakeBooks) AddExpense(_ context.Context, t *finance.Transaction) error {
	f.expenses = append(f.expenses, t)
	return nil
}

func (f *fakeBooks) DeleteGroup(_ context.Context, groupID id.ID) error {
	kept := f.expenses[:0]
	for _, t := range f.expenses {
		if t.PurchaseGroupID == nil || *t.PurchaseGroupID != groupID {
			kept = append(kept, t)
		}
	}
	f.expenses = kept
	return nil
}

type fakeRepo struct {
	purchases map[id.ID]*Purchase
	seq       int
}

func (f *fakeRepo) Create(_ context.Context, p *Purchase) error {
	f.purchases[p.ID] = p
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, purchaseID id.ID) (*Purchase, error) {
	p, ok := f.purchases[purchaseID]
	if !ok {
		return nil, apperror.NewNotFound("purchase", purchaseID)
	}
	return p, nil
}

func (f *fakeRepo) Update(_ context.Context, p *Purchase) error {
	f.purchases[p.ID] = p
	return nil
}

func (f *fakeRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Purchase], error) {
	panic("not used in tests")
}

func (f *fakeRepo) NextNumber(_ context.Context) (string, error) {
	f.seq++
	return fmt.Sprintf("C-%06d", f.seq), nil
}

type fixture struct {
	svc       *Service
	repo      *fakeRepo
	products  *fakeProducts
	suppliers *fakeSuppliers
	ledger    *fakeLedger
	costs     *fakeCosts
	books     *fakeBooks

	rice *product.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rice := product.New("7891000100103", "Arroz 5kg", product.UnitUN)
	rice.Category = "Alimentos"
	rice.RetailPrice = types.MustMoney("10.00")
	rice.CostPrice = types.MustMoney("6.00")

	f := &fixture{
		repo:      &fakeRepo{purchases: make(map[id.ID]*Purchase)},
		products:  &fakeProducts{byID: map[id.ID]*product.Product{rice.ID: rice}},
		suppliers: &fakeSuppliers{byName: make(map[string]*supplier.Supplier)},
		ledger:    &fakeLedger{stocks: map[id.ID]types.Quantity{rice.ID: types.NewQuantityFromInt(10)}},
		costs:     &fakeCosts{},
		books:     &fakeBooks{},
		rice:      rice,
	}

	store := config.StoreConfig{
		CategoryMarkups: map[string]decimal.Decimal{"Alimentos": decimal.NewFromFloat(0.25)},
		DefaultMarkup:   decimal.NewFromFloat(0.30),
	}

	f.svc = NewService(f.repo, f.products, f.suppliers, f.ledger, f.costs, f.books,
		fakeTxManager{}, store)
	return f
}

func TestCommit_PurchaseWithInstallments(t *testing.T) {
	f := newFixture(t)
	firstDue := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	doc, err := f.svc.Commit(context.Background(), CommitInput{
		EntryType:    EntryPurchase,
		SupplierName: "Atacadão Central",
		Installments: 3,
		FirstDueDate: firstDue,
		IntervalDays: 30,
		Items: []ItemInput{
			{
				ProductID:   f.rice.ID,
				Quantity:    types.NewQuantityFromInt(50),
				UnitCost:    types.MustMoney("6.00"),
				RetailPrice: types.MustMoney("11.00"),
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "C-000001", doc.Number)
	assert.True(t, doc.Total.Equal(types.MustMoney("300.00")))

	// Stock entered.
	assert.Equal(t, types.NewQuantityFromInt(60), f.ledger.stocks[f.rice.ID])

	// One batch per item, linked to the purchase group.
	require.Len(t, f.costs.batches, 1)
	batch := f.costs.batches[0]
	require.NotNil(t, batch.TransactionID)
	assert.Equal(t, doc.ID, *batch.TransactionID)
	assert.True(t, batch.CostPrice.Equal(types.MustMoney("6.00")))

	// Three pending installments of 100.00, 30 days apart.
	require.Len(t, f.books.expenses, 3)
	for i, exp := range f.books.expenses {
		assert.Equal(t, finance.StatusPending, exp.Status)
		assert.True(t, exp.Amount.Equal(types.MustMoney("100.00")), "installment %d: got %s", i, exp.Amount)
		require.NotNil(t, exp.PurchaseGroupID)
		assert.Equal(t, doc.ID, *exp.PurchaseGroupID)
	}
	assert.Equal(t, firstDue, *f.books.expenses[0].DueDate)
	assert.Equal(t, firstDue.AddDate(0, 0, 30), *f.books.expenses[1].DueDate)

	// Item snapshot on the first installment only.
	assert.Len(t, f.books.expenses[0].Items, 1)
	assert.Empty(t, f.books.expenses[1].Items)

	// Last-purchase-wins catalog pricing.
	assert.True(t, f.rice.CostPrice.Equal(types.MustMoney("6.00")))
	assert.True(t, f.rice.RetailPrice.Equal(types.MustMoney("11.00")))

	// Supplier auto-registered and linked.
	assert.Equal(t, 1, f.suppliers.created)
	require.NotNil(t, doc.SupplierID)
	require.NotNil(t, f.rice.SupplierID)
}

func TestCommit_SupplierReusedCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	firstDue := time.Now().AddDate(0, 0, 30)

	in := CommitInput{
		EntryType:    EntryPurchase,
		SupplierName: "Atacadão Central",
		Installments: 1,
		FirstDueDate: firstDue,
		Items: []ItemInput{
			{ProductID: f.rice.ID, Quantity: types.NewQuantityFromInt(5), UnitCost: types.MustMoney("6.00")},
		},
	}
	_, err := f.svc.Commit(context.Background(), in)
	require.NoError(t, err)

	in.SupplierName = "  atacadão central "
	_, err = f.svc.Commit(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1, f.suppliers.created)
}

func TestCommit_DonationSkipsFinance(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.Commit(context.Background(), CommitInput{
		EntryType: EntryDonation,
		Items: []ItemInput{
			{ProductID: f.rice.ID, Quantity: types.NewQuantityFromInt(20), UnitCost: types.ZeroMoney()},
		},
	})
	require.NoError(t, err)

	assert.Empty(t, f.books.expenses)
	assert.Equal(t, types.NewQuantityFromInt(30), f.ledger.stocks[f.rice.ID])

	// Donations still open a layer, at zero cost.
	require.Len(t, f.costs.batches, 1)
	assert.True(t, f.costs.batches[0].CostPrice.IsZero())
	require.NotNil(t, doc)
}

func TestCommit_PurchaseRequiresInstallmentPlan(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Commit(context.Background(), CommitInput{
		EntryType: EntryPurchase,
		Items: []ItemInput{
			{ProductID: f.rice.ID, Quantity: types.NewQuantityFromInt(5), UnitCost: types.MustMoney("6.00")},
		},
	})
	require.Error(t, err)
	assert.Empty(t, f.books.expenses)
	assert.Equal(t, types.NewQuantityFromInt(10), f.ledger.stocks[f.rice.ID])
}

func TestCancel_ClampsExitAndRemovesInstallments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		EntryType:    EntryPurchase,
		SupplierName: "Fornecedor X",
		Installments: 2,
		FirstDueDate: time.Now().AddDate(0, 0, 30),
		Items: []ItemInput{
			{ProductID: f.rice.ID, Quantity: types.NewQuantityFromInt(50), UnitCost: types.MustMoney("6.00")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(60), f.ledger.stocks[f.rice.ID])

	// 55 of the 60 on hand were sold meanwhile; only 5 can come back out.
	f.ledger.stocks[f.rice.ID] = types.NewQuantityFromInt(5)

	canceled, err := f.svc.Cancel(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, canceled.Status)

	// Clamped at zero, never negative.
	assert.True(t, f.ledger.stocks[f.rice.ID].IsZero())

	// Installment group gone, batches closed.
	assert.Empty(t, f.books.expenses)
	assert.True(t, f.costs.batches[0].QtyRemaining.IsZero())
}

func TestCancel_AlreadyCanceled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		EntryType: EntryBonus,
		Items: []ItemInput{
			{ProductID: f.rice.ID, Quantity: types.NewQuantityFromInt(5), UnitCost: types.MustMoney("1.00")},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, doc.ID)
	require.Error(t, err)
}

func TestSuggestRetail(t *testing.T) {
	f := newFixture(t)

	// Category markup 25%.
	got := f.svc.SuggestRetail(types.MustMoney("8.00"), "Alimentos")
	assert.True(t, got.Equal(types.MustMoney("10.00")), "got %s", got)

	// Unknown category falls back to the default 30%.
	got = f.svc.SuggestRetail(types.MustMoney("10.00"), "Eletrônicos")
	assert.True(t, got.Equal(types.MustMoney("13.00")), "got %s", got)
}
