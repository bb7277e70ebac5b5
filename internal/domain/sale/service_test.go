package sale

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balcao/internal/config"
	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain"
	"balcao/internal/domain/catalog/kit"
	"balcao/internal/domain/catalog/product"
	"balcao/internal/domain/costing"
	"balcao/internal/domain/finance"
	"balcao/internal/domain/inventory"
	"balcao/internal/domain/pricing"
	"balcao/internal/domain/promotion"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProducts struct {
	byID map[id.ID]*product.Product
}

func (f *fakeProducts) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	p, ok := f.byID[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

type fakeKits struct {
	byID map[id.ID]*kit.Kit
}

func (f *fakeKits) GetByID(_ context.Context, kitID id.ID) (*kit.Kit, error) {
	k, ok := f.byID[kitID]
	if !ok {
		return nil, apperror.NewNotFound("kit", kitID)
	}
	return k, nil
}

type fakeLedger struct {
	stocks map[id.ID]types.Quantity
}

func (f *fakeLedger) Exit(_ context.Context, productID id.ID, qty types.Quantity, _ string, _ *inventory.Recorder) (types.Quantity, error) {
	stock := f.stocks[productID]
	if stock < qty {
		return 0, apperror.NewInsufficientStock(productID.String(), qty.Float64(), stock.Float64())
	}
	f.stocks[productID] = stock - qty
	return f.stocks[productID], nil
}

func (f *fakeLedger) Entry(_ context.Context, productID id.ID, qty types.Quantity, _ string, _ *inventory.Recorder) (types.Quantity, error) {
	f.stocks[productID] += qty
	return f.stocks[productID], nil
}

type fakeCosts struct {
	unitCosts map[id.ID]types.Money
	restored  map[id.ID]types.Quantity
}

func (f *fakeCosts) Consume(_ context.Context, productID id.ID, qty types.Quantity) ([]costing.Consumption, error) {
	batchID := id.New()
	return []costing.Consumption{{
		BatchID:  &batchID,
		Quantity: qty,
		UnitCost: f.unitCosts[productID],
	}}, nil
}

func (f *fakeCosts) Restore(_ context.Context, productID id.ID, cs []costing.Consumption, _ types.Money) error {
	for _, c := range cs {
		f.restored[productID] += c.Quantity
	}
	return nil
}

type fakeCredit struct {
	debt  types.Money
	limit types.Money
}

func (f *fakeCredit) Charge(_ context.Context, customerID id.ID, amount types.Money) (types.Money, error) {
	if f.debt.Add(amount).GreaterThan(f.limit) {
		return types.ZeroMoney(), apperror.NewCreditLimitExceeded(customerID.String(), f.limit.Sub(f.debt))
	}
	f.debt = f.debt.Add(amount)
	return f.debt, nil
}

func (f *fakeCredit) Credit(_ context.Context, _ id.ID, amount types.Money) (types.Money, error) {
	f.debt = f.debt.Sub(amount)
	if f.debt.IsNegative() {
		f.debt = types.ZeroMoney()
	}
	return f.debt, nil
}

type fakeBooks struct {
	incomes  []*finance.Transaction
	expenses []*finance.Transaction
}

func (f *fakeBooks) AddIncome(_ context.Context, t *finance.Transaction) error {
	f.incomes = append(f.incomes, t)
	return nil
}

func (f *fakeBooks) AddExpense(_ context.Context, t *finance.Transaction) error {
	f.expenses = append(f.expenses, t)
	return nil
}

func (f *fakeBooks) DeleteBySale(_ context.Context, saleID id.ID) error {
	kept := f.incomes[:0]
	for _, t := range f.incomes {
		if t.SourceSaleID == nil || *t.SourceSaleID != saleID {
			kept = append(kept, t)
		}
	}
	f.incomes = kept
	return nil
}

func (f *fakeBooks) ListBySale(_ context.Context, saleID id.ID) ([]*finance.Transaction, error) {
	var out []*finance.Transaction
	for _, t := range append(append([]*finance.Transaction{}, f.incomes...), f.expenses...) {
		if t.SourceSaleID != nil && *t.SourceSaleID == saleID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakePromos struct {
	promos []*promotion.Promotion
}

func (f *fakePromos) InEffect(_ context.Context, _ time.Time) ([]*promotion.Promotion, error) {
	return f.promos, nil
}

type fakeRepo struct {
	sales map[id.ID]*Sale
	seq   int
}

func (f *fakeRepo) Create(_ context.Context, s *Sale) error {
	f.sales[s.ID] = s
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, saleID id.ID) (*Sale, error) {
	s, ok := f.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	return s, nil
}

func (f *fakeRepo) Update(_ context.Context, s *Sale) error {
	f.sales[s.ID] = s
	return nil
}

func (f *fakeRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Sale], error) {
	panic("not used in tests")
}

func (f *fakeRepo) NextNumber(_ context.Context) (string, error) {
	f.seq++
	return fmt.Sprintf("V-%06d", f.seq), nil
}

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	products *fakeProducts
	ledger   *fakeLedger
	costs    *fakeCosts
	credit   *fakeCredit
	books    *fakeBooks

	rice     *product.Product // retail 10.00, wholesale 8.00 @ 10, cost 6.00, stock 100
	beans    *product.Product // retail 5.00, cost 2.00, stock 50
	basicKit *kit.Kit         // 1x rice + 2x beans at 15.00
	customer id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rice := product.New("7891000100103", "Arroz 5kg", product.UnitUN)
	rice.RetailPrice = types.MustMoney("10.00")
	rice.WholesalePrice = types.MustMoney("8.00")
	rice.WholesaleMinQty = types.NewQuantityFromInt(10)
	rice.CostPrice = types.MustMoney("6.00")

	beans := product.New("7891000200101", "Feijão 1kg", product.UnitUN)
	beans.RetailPrice = types.MustMoney("5.00")
	beans.CostPrice = types.MustMoney("2.00")

	basicKit := kit.New("KIT001", "Cesta Básica", types.MustMoney("15.00"))
	basicKit.AddComponent(rice.ID, types.NewQuantityFromInt(1))
	basicKit.AddComponent(beans.ID, types.NewQuantityFromInt(2))

	f := &fixture{
		repo: &fakeRepo{sales: make(map[id.ID]*Sale)},
		products: &fakeProducts{byID: map[id.ID]*product.Product{
			rice.ID:  rice,
			beans.ID: beans,
		}},
		ledger: &fakeLedger{stocks: map[id.ID]types.Quantity{
			rice.ID:  types.NewQuantityFromInt(100),
			beans.ID: types.NewQuantityFromInt(50),
		}},
		costs: &fakeCosts{
			unitCosts: map[id.ID]types.Money{
				rice.ID:  types.MustMoney("6.00"),
				beans.ID: types.MustMoney("2.00"),
			},
			restored: make(map[id.ID]types.Quantity),
		},
		credit:   &fakeCredit{limit: types.MustMoney("100.00")},
		books:    &fakeBooks{},
		rice:     rice,
		beans:    beans,
		basicKit: basicKit,
		customer: id.New(),
	}

	kits := &fakeKits{byID: map[id.ID]*kit.Kit{basicKit.ID: basicKit}}
	store := config.StoreConfig{FiadoDueDays: 30}

	f.svc = NewService(f.repo, f.products, kits, f.ledger, f.costs, f.credit, f.books,
		&fakePromos{}, nil, fakeTxManager{}, store)
	return f
}

func TestCommit_CashSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		PaymentMethod: PaymentCash,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(3)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, doc.Status)
	assert.Equal(t, "V-000001", doc.Number)
	assert.True(t, doc.Total.Equal(types.MustMoney("30.00")), "got %s", doc.Total)
	assert.True(t, doc.CostTotal.Equal(types.MustMoney("18.00")), "got %s", doc.CostTotal)
	assert.True(t, doc.Margin().Equal(types.MustMoney("12.00")))

	assert.Equal(t, types.NewQuantityFromInt(97), f.ledger.stocks[f.rice.ID])

	require.Len(t, f.books.incomes, 1)
	income := f.books.incomes[0]
	assert.Equal(t, finance.StatusPaid, income.Status)
	assert.True(t, income.Amount.Equal(types.MustMoney("30.00")))
	require.NotNil(t, income.SourceSaleID)
	assert.Equal(t, doc.ID, *income.SourceSaleID)

	// Implicit single payment synthesized.
	require.Len(t, doc.Payments, 1)
	assert.Equal(t, PaymentCash, doc.Payments[0].Method)
}

func TestCommit_WholesaleTier(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.Commit(context.Background(), CommitInput{
		PaymentMethod: PaymentCash,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(10)},
		},
	})
	require.NoError(t, err)

	assert.True(t, doc.Lines[0].StandardUnitPrice.Equal(types.MustMoney("8.00")))
	assert.True(t, doc.Total.Equal(types.MustMoney("80.00")), "got %s", doc.Total)
}

func TestCommit_KitDecomposition(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.Commit(context.Background(), CommitInput{
		PaymentMethod: PaymentCash,
		Lines: []CartLine{
			{Kind: LineKit, ItemID: f.basicKit.ID, Quantity: types.NewQuantityFromInt(2)},
		},
	})
	require.NoError(t, err)

	// 2 kits = 2x rice + 4x beans out of stock.
	assert.Equal(t, types.NewQuantityFromInt(98), f.ledger.stocks[f.rice.ID])
	assert.Equal(t, types.NewQuantityFromInt(46), f.ledger.stocks[f.beans.ID])

	line := doc.Lines[0]
	require.Len(t, line.Effects, 2)
	assert.True(t, doc.Total.Equal(types.MustMoney("30.00")))

	// Revenue allocated by retail value: rice 10.00 vs beans 2x5.00 = even split.
	allocated := types.ZeroMoney()
	for _, eff := range line.Effects {
		allocated = allocated.Add(eff.AllocatedRevenue)
	}
	assert.True(t, allocated.Equal(line.Total), "allocation must conserve the line total")
	assert.True(t, line.Effects[0].AllocatedRevenue.Equal(types.MustMoney("15.00")))
	assert.True(t, line.Effects[1].AllocatedRevenue.Equal(types.MustMoney("15.00")))

	// Kit cost = 2*6.00 + 4*2.00 = 20.00.
	assert.True(t, doc.CostTotal.Equal(types.MustMoney("20.00")), "got %s", doc.CostTotal)
}

func TestCommit_KitInsufficientComponentRejectsSale(t *testing.T) {
	f := newFixture(t)
	f.ledger.stocks[f.beans.ID] = types.NewQuantityFromInt(3)

	// 2 kits need 4 beans, only 3 on hand.
	_, err := f.svc.Commit(context.Background(), CommitInput{
		PaymentMethod: PaymentCash,
		Lines: []CartLine{
			{Kind: LineKit, ItemID: f.basicKit.ID, Quantity: types.NewQuantityFromInt(2)},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Nothing was persisted or booked.
	assert.Empty(t, f.repo.sales)
	assert.Empty(t, f.books.incomes)
}

func TestCommit_FiadoRequiresCustomer(t *testing.T) {
	f := newFixture(t)
	before := f.ledger.stocks[f.rice.ID]

	_, err := f.svc.Commit(context.Background(), CommitInput{
		PaymentMethod: PaymentFiado,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(1)},
		},
	})
	require.Error(t, err)

	// Validation happens before any side effects.
	assert.Equal(t, before, f.ledger.stocks[f.rice.ID])
	assert.Empty(t, f.books.incomes)
}

func TestCommit_FiadoChargesDebtAndBooksPendingIncome(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Commit(context.Background(), CommitInput{
		CustomerID:    &f.customer,
		PaymentMethod: PaymentFiado,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(2)},
		},
	})
	require.NoError(t, err)

	assert.True(t, f.credit.debt.Equal(types.MustMoney("20.00")))

	require.Len(t, f.books.incomes, 1)
	income := f.books.incomes[0]
	assert.Equal(t, finance.StatusPending, income.Status)
	require.NotNil(t, income.DueDate)
	assert.True(t, income.DueDate.After(time.Now().AddDate(0, 0, 29)))
}

func TestCommit_FiadoCreditLimitExceeded(t *testing.T) {
	f := newFixture(t)
	f.credit.limit = types.MustMoney("15.00")

	_, err := f.svc.Commit(context.Background(), CommitInput{
		CustomerID:    &f.customer,
		PaymentMethod: PaymentFiado,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(2)},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCreditLimitExceeded(err))
	assert.Empty(t, f.repo.sales)
}

func TestCommit_MultiplePaymentMismatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Commit(context.Background(), CommitInput{
		PaymentMethod: PaymentMultiple,
		Payments: []Payment{
			{Method: PaymentCash, Amount: types.MustMoney("10.00")},
			{Method: PaymentPix, Amount: types.MustMoney("10.00")},
		},
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(3)},
		},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePaymentMismatch, appErr.Code)
}

func TestCommit_SinglePaymentMismatchRejected(t *testing.T) {
	f := newFixture(t)

	// An explicit tender on a simple sale must still cover the total.
	_, err := f.svc.Commit(context.Background(), CommitInput{
		PaymentMethod: PaymentCash,
		Payments: []Payment{
			{Method: PaymentCash, Amount: types.MustMoney("5.00")},
		},
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(3)},
		},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePaymentMismatch, appErr.Code)
	assert.Empty(t, f.repo.sales)
}

func TestCommit_MultiplePaymentWithinTolerance(t *testing.T) {
	f := newFixture(t)

	// 29.99 against a 30.00 total is inside the 0.01 tolerance.
	doc, err := f.svc.Commit(context.Background(), CommitInput{
		PaymentMethod: PaymentMultiple,
		Payments: []Payment{
			{Method: PaymentCash, Amount: types.MustMoney("20.00")},
			{Method: PaymentPix, Amount: types.MustMoney("9.99")},
		},
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(3)},
		},
	})
	require.NoError(t, err)
	assert.True(t, doc.Total.Equal(types.MustMoney("30.00")))
}

func TestCommit_LineDiscountRepricesFromStandard(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.Commit(context.Background(), CommitInput{
		PaymentMethod: PaymentCash,
		Lines: []CartLine{
			{
				Kind:     LineProduct,
				ItemID:   f.rice.ID,
				Quantity: types.NewQuantityFromInt(12),
				Discount: &pricing.Discount{Kind: pricing.DiscountPercent, Value: types.MustMoney("20")},
			},
		},
	})
	require.NoError(t, err)

	// qty 12 crosses the wholesale tier: 8.00 standard, 20% off = 6.40.
	line := doc.Lines[0]
	assert.True(t, line.StandardUnitPrice.Equal(types.MustMoney("8.00")))
	assert.True(t, line.UnitPrice.Equal(types.MustMoney("6.40")), "got %s", line.UnitPrice)
	assert.True(t, doc.Total.Equal(types.MustMoney("76.80")))
}

func TestCommit_CartDiscountBlended(t *testing.T) {
	f := newFixture(t)

	// Cart: 3x rice (30.00) + 2x beans (10.00) = 40.00; R$4 off = 10% blended.
	doc, err := f.svc.Commit(context.Background(), CommitInput{
		PaymentMethod: PaymentCash,
		CartDiscount:  &pricing.Discount{Kind: pricing.DiscountFlat, Value: types.MustMoney("4.00")},
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(3)},
			{Kind: LineProduct, ItemID: f.beans.ID, Quantity: types.NewQuantityFromInt(2)},
		},
	})
	require.NoError(t, err)

	assert.True(t, doc.Total.Equal(types.MustMoney("36.00")), "got %s", doc.Total)
	assert.True(t, doc.Lines[0].UnitPrice.Equal(types.MustMoney("9.00")))
	assert.True(t, doc.Lines[1].UnitPrice.Equal(types.MustMoney("4.50")))

	// Stored discount is the effective ratio against the standard price.
	require.NotNil(t, doc.Lines[0].Discount)
	assert.True(t, doc.Lines[0].Discount.Value.Equal(types.MustMoney("10")), "got %s", doc.Lines[0].Discount.Value)
}

func TestVoid_RestoresStockAndBooksReversalExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		PaymentMethod: PaymentCash,
		Lines: []CartLine{
			{Kind: LineKit, ItemID: f.basicKit.ID, Quantity: types.NewQuantityFromInt(2)},
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(5)},
		},
	})
	require.NoError(t, err)

	voided, err := f.svc.Void(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, voided.Status)

	// Stock back to the starting point, at original component granularity.
	assert.Equal(t, types.NewQuantityFromInt(100), f.ledger.stocks[f.rice.ID])
	assert.Equal(t, types.NewQuantityFromInt(50), f.ledger.stocks[f.beans.ID])

	// Cost layers restored for every consumed quantity.
	assert.Equal(t, types.NewQuantityFromInt(7), f.costs.restored[f.rice.ID])
	assert.Equal(t, types.NewQuantityFromInt(4), f.costs.restored[f.beans.ID])

	// The paid income stays on the books; a compensating expense offsets it.
	require.Len(t, f.books.incomes, 1)
	require.Len(t, f.books.expenses, 1)
	reversal := f.books.expenses[0]
	assert.True(t, reversal.Amount.Equal(doc.Total), "got %s", reversal.Amount)
	require.NotNil(t, reversal.SourceSaleID)
	assert.Equal(t, doc.ID, *reversal.SourceSaleID)
}

func TestVoid_FiadoSettledCompensatesInsteadOfDeleting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		CustomerID:    &f.customer,
		PaymentMethod: PaymentFiado,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(2)},
		},
	})
	require.NoError(t, err)

	// Customer settles the receivable before the void.
	f.books.incomes[0].Status = finance.StatusPaid
	f.credit.debt = types.ZeroMoney()

	_, err = f.svc.Void(ctx, doc.ID)
	require.NoError(t, err)

	// Money was received: the income stays, a reversal expense offsets it and
	// the already-cleared debt is untouched.
	require.Len(t, f.books.incomes, 1)
	require.Len(t, f.books.expenses, 1)
	assert.True(t, f.books.expenses[0].Amount.Equal(types.MustMoney("20.00")))
	assert.True(t, f.credit.debt.IsZero(), "got %s", f.credit.debt)
}

func TestVoid_FiadoCreditsDebtBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		CustomerID:    &f.customer,
		PaymentMethod: PaymentFiado,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(2)},
		},
	})
	require.NoError(t, err)
	assert.True(t, f.credit.debt.Equal(types.MustMoney("20.00")))

	_, err = f.svc.Void(ctx, doc.ID)
	require.NoError(t, err)

	assert.True(t, f.credit.debt.IsZero(), "debt must return to zero, got %s", f.credit.debt)

	// The pending receivable is deleted outright; no reversal entry appears.
	assert.Empty(t, f.books.incomes)
	assert.Empty(t, f.books.expenses)
}

func TestVoid_AlreadyCanceled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		PaymentMethod: PaymentCash,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(1)},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Void(ctx, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.Void(ctx, doc.ID)
	require.Error(t, err)
}

func TestReturn_PartialRestocksAndRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		PaymentMethod: PaymentCash,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(5)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(95), f.ledger.stocks[f.rice.ID])

	refund, err := f.svc.Return(ctx, doc.ID, []ReturnItem{
		{LineID: doc.Lines[0].LineID, Quantity: types.NewQuantityFromInt(2)},
	})
	require.NoError(t, err)

	assert.True(t, refund.Equal(types.MustMoney("20.00")), "got %s", refund)
	assert.Equal(t, types.NewQuantityFromInt(97), f.ledger.stocks[f.rice.ID])

	require.Len(t, f.books.expenses, 1)
	assert.True(t, f.books.expenses[0].Amount.Equal(types.MustMoney("20.00")))

	// The sale income stays; only the refund expense offsets it.
	assert.Len(t, f.books.incomes, 1)
}

func TestReturn_KitReturnsComponentsProportionally(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		PaymentMethod: PaymentCash,
		Lines: []CartLine{
			{Kind: LineKit, ItemID: f.basicKit.ID, Quantity: types.NewQuantityFromInt(2)},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Return(ctx, doc.ID, []ReturnItem{
		{LineID: doc.Lines[0].LineID, Quantity: types.NewQuantityFromInt(1)},
	})
	require.NoError(t, err)

	// One of two kits returned: half of each component effect re-enters.
	assert.Equal(t, types.NewQuantityFromInt(99), f.ledger.stocks[f.rice.ID])
	assert.Equal(t, types.NewQuantityFromInt(48), f.ledger.stocks[f.beans.ID])
}

func TestReturn_FiadoReducesDebt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		CustomerID:    &f.customer,
		PaymentMethod: PaymentFiado,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(4)},
		},
	})
	require.NoError(t, err)
	assert.True(t, f.credit.debt.Equal(types.MustMoney("40.00")))

	_, err = f.svc.Return(ctx, doc.ID, []ReturnItem{
		{LineID: doc.Lines[0].LineID, Quantity: types.NewQuantityFromInt(1)},
	})
	require.NoError(t, err)

	assert.True(t, f.credit.debt.Equal(types.MustMoney("30.00")), "got %s", f.credit.debt)
	assert.Empty(t, f.books.expenses, "fiado return reduces debt, not cash")
}

func TestReturn_ExceedingRemainingRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		PaymentMethod: PaymentCash,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(3)},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Return(ctx, doc.ID, []ReturnItem{
		{LineID: doc.Lines[0].LineID, Quantity: types.NewQuantityFromInt(2)},
	})
	require.NoError(t, err)

	_, err = f.svc.Return(ctx, doc.ID, []ReturnItem{
		{LineID: doc.Lines[0].LineID, Quantity: types.NewQuantityFromInt(2)},
	})
	require.Error(t, err, "only 1 of 3 remains returnable")
}

func TestVoid_RejectedAfterPartialReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Commit(ctx, CommitInput{
		PaymentMethod: PaymentCash,
		Lines: []CartLine{
			{Kind: LineProduct, ItemID: f.rice.ID, Quantity: types.NewQuantityFromInt(3)},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.Return(ctx, doc.ID, []ReturnItem{
		{LineID: doc.Lines[0].LineID, Quantity: types.NewQuantityFromInt(1)},
	})
	require.NoError(t, err)

	_, err = f.svc.Void(ctx, doc.ID)
	require.Error(t, err)
}
