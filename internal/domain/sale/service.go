package sale

import (
	"context"
	"fmt"
	"time"

	"balcao/internal/config"
	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/core/tx"
	"balcao/internal/core/types"
	"balcao/internal/domain"
	"balcao/internal/domain/catalog/kit"
	"balcao/internal/domain/catalog/product"
	"balcao/internal/domain/costing"
	"balcao/internal/domain/finance"
	"balcao/internal/domain/inventory"
	"balcao/internal/domain/pricing"
	"balcao/internal/domain/promotion"
	"balcao/pkg/logger"
)

// ProductReader supplies products for pricing and kit decomposition.
type ProductReader interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// KitReader supplies kits for decomposition at commit time.
type KitReader interface {
	GetByID(ctx context.Context, kitID id.ID) (*kit.Kit, error)
}

// Ledger is the inventory side of a sale.
type Ledger interface {
	Entry(ctx context.Context, productID id.ID, qty types.Quantity, reason string, rec *inventory.Recorder) (types.Quantity, error)
	Exit(ctx context.Context, productID id.ID, qty types.Quantity, reason string, rec *inventory.Recorder) (types.Quantity, error)
}

// CostTracker is the FIFO cost layer side of a sale.
type CostTracker interface {
	Consume(ctx context.Context, productID id.ID, qty types.Quantity) ([]costing.Consumption, error)
	Restore(ctx context.Context, productID id.ID, cs []costing.Consumption, fallbackCost types.Money) error
}

// CreditAccount is the customer debt side of a fiado sale.
type CreditAccount interface {
	Charge(ctx context.Context, customerID id.ID, amount types.Money) (types.Money, error)
	Credit(ctx context.Context, customerID id.ID, amount types.Money) (types.Money, error)
}

// Books is the financial side of a sale.
type Books interface {
	AddIncome(ctx context.Context, t *finance.Transaction) error
	AddExpense(ctx context.Context, t *finance.Transaction) error
	DeleteBySale(ctx context.Context, saleID id.ID) error
	ListBySale(ctx context.Context, saleID id.ID) ([]*finance.Transaction, error)
}

// PromotionSource supplies the promotions in effect at a local moment.
type PromotionSource interface {
	InEffect(ctx context.Context, localNow time.Time) ([]*promotion.Promotion, error)
}

// CartLine is one line of the incoming cart.
type CartLine struct {
	Kind     LineKind          `json:"kind"`
	ItemID   id.ID             `json:"itemId"`
	Quantity types.Quantity    `json:"quantity"`
	Discount *pricing.Discount `json:"discount,omitempty"`
}

// CommitInput is the request to commit a sale.
type CommitInput struct {
	CustomerID    *id.ID            `json:"customerId,omitempty"`
	PaymentMethod PaymentMethod     `json:"paymentMethod"`
	Payments      []Payment         `json:"payments,omitempty"`
	CartDiscount  *pricing.Discount `json:"cartDiscount,omitempty"`
	Comment       string            `json:"comment,omitempty"`
	Lines         []CartLine        `json:"lines"`
}

// ReturnItem requests a partial return of one committed line.
type ReturnItem struct {
	LineID   id.ID          `json:"lineId"`
	Quantity types.Quantity `json:"quantity"`
}

// Service coordinates the sale document across pricing, inventory, costing,
// finance and customer credit. Each operation runs its side effects inside a
// single transaction: stock, cost layers, money and debt change together or
// not at all.
type Service struct {
	repo      Repository
	products  ProductReader
	kits      KitReader
	ledger    Ledger
	costs     CostTracker
	credit    CreditAccount
	books     Books
	promos    PromotionSource
	printer   Printer
	txManager tx.Manager
	store     config.StoreConfig
}

// NewService creates the sale coordinator. printer may be nil.
func NewService(
	repo Repository,
	products ProductReader,
	kits KitReader,
	ledger Ledger,
	costs CostTracker,
	credit CreditAccount,
	books Books,
	promos PromotionSource,
	printer Printer,
	txManager tx.Manager,
	store config.StoreConfig,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		kits:      kits,
		ledger:    ledger,
		costs:     costs,
		credit:    credit,
		books:     books,
		promos:    promos,
		printer:   printer,
		txManager: txManager,
		store:     store,
	}
}

func (s *Service) localNow() time.Time {
	now := time.Now()
	if s.store.Timezone != nil {
		now = now.In(s.store.Timezone)
	}
	return now
}

// Commit prices the cart, decomposes kits, and commits stock exits, cost
// consumption, the income entry and fiado debt in one transaction. The
// receipt is printed after commit, outside the transaction.
func (s *Service) Commit(ctx context.Context, in CommitInput) (*Sale, error) {
	if len(in.Lines) == 0 {
		return nil, apperror.NewValidation("sale has no lines").WithDetail("field", "lines")
	}

	localNow := s.localNow()
	promos, err := s.promos.InEffect(ctx, localNow)
	if err != nil {
		return nil, fmt.Errorf("load promotions: %w", err)
	}

	doc := NewSale()
	doc.CustomerID = in.CustomerID
	doc.PaymentMethod = in.PaymentMethod
	doc.Payments = in.Payments
	doc.Comment = in.Comment

	for i, cl := range in.Lines {
		line, err := s.priceLine(ctx, cl, i+1, promos, localNow)
		if err != nil {
			return nil, err
		}
		doc.Lines = append(doc.Lines, line)
	}

	if in.CartDiscount != nil {
		applyCartDiscount(doc.Lines, *in.CartDiscount)
	}

	for i := range doc.Lines {
		if err := s.buildEffects(ctx, &doc.Lines[i]); err != nil {
			return nil, err
		}
		doc.Total = doc.Total.Add(doc.Lines[i].Total)
	}

	if doc.PaymentMethod != PaymentMultiple && len(doc.Payments) == 0 {
		doc.Payments = []Payment{{Method: doc.PaymentMethod, Amount: doc.Total}}
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.repo.NextNumber(ctx)
		if err != nil {
			return fmt.Errorf("issue sale number: %w", err)
		}
		doc.Number = number

		reason := fmt.Sprintf("Venda #%s", doc.Number)
		rec := &inventory.Recorder{ID: doc.ID, Type: "Sale"}

		for i := range doc.Lines {
			line := &doc.Lines[i]
			for j := range line.Effects {
				eff := &line.Effects[j]
				if _, err := s.ledger.Exit(ctx, eff.ProductID, eff.Quantity, reason, rec); err != nil {
					return err
				}
				cs, err := s.costs.Consume(ctx, eff.ProductID, eff.Quantity)
				if err != nil {
					return err
				}
				eff.Consumptions = cs
				line.CostTotal = line.CostTotal.Add(costing.TotalCost(cs))
			}
			doc.CostTotal = doc.CostTotal.Add(line.CostTotal)
		}

		if doc.PaymentMethod == PaymentFiado {
			if _, err := s.credit.Charge(ctx, *doc.CustomerID, doc.Total); err != nil {
				return err
			}
		}

		if err := s.books.AddIncome(ctx, s.incomeFor(doc, localNow)); err != nil {
			return err
		}

		return s.repo.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale committed",
		"sale_id", doc.ID,
		"number", doc.Number,
		"payment_method", doc.PaymentMethod,
		"total", doc.Total.StringFixed(2),
		"lines", len(doc.Lines),
	)

	printAsync(ctx, s.printer, buildReceipt(doc))
	return doc, nil
}

// Void cancels a completed sale, reversing exactly the effects Commit
// produced: stock re-enters at the original per-component quantities and cost
// layers are restored. Financially, a paid sale keeps its income entry and
// gets a compensating expense so the books stay auditable; only a still
// pending fiado receivable is deleted outright, with the debt credited back.
// A fiado receivable already settled is money received and is compensated
// like a paid sale.
func (s *Service) Void(ctx context.Context, saleID id.ID) (*Sale, error) {
	doc, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if doc.Status != StatusCompleted {
		return nil, apperror.NewConflict("sale is already canceled")
	}
	for _, l := range doc.Lines {
		if l.ReturnedQty.IsPositive() {
			return nil, apperror.NewConflict("sale has partial returns; return the remaining items instead")
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		reason := fmt.Sprintf("Estorno Venda #%s", doc.Number)
		rec := &inventory.Recorder{ID: doc.ID, Type: "SaleVoid"}

		for _, line := range doc.Lines {
			for _, eff := range line.Effects {
				if _, err := s.ledger.Entry(ctx, eff.ProductID, eff.Quantity, reason, rec); err != nil {
					return err
				}
				if err := s.costs.Restore(ctx, eff.ProductID, eff.Consumptions, s.fallbackCost(ctx, eff.ProductID)); err != nil {
					return err
				}
			}
		}

		if doc.PaymentMethod == PaymentFiado {
			settled, err := s.saleIncomeSettled(ctx, doc.ID)
			if err != nil {
				return err
			}
			if settled {
				if err := s.addVoidExpense(ctx, doc, reason); err != nil {
					return err
				}
			} else {
				if doc.CustomerID != nil {
					if _, err := s.credit.Credit(ctx, *doc.CustomerID, doc.Total); err != nil {
						return err
					}
				}
				if err := s.books.DeleteBySale(ctx, doc.ID); err != nil {
					return err
				}
			}
		} else {
			if err := s.addVoidExpense(ctx, doc, reason); err != nil {
				return err
			}
		}

		doc.Status = StatusCanceled
		doc.Touch()
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale voided", "sale_id", doc.ID, "number", doc.Number, "total", doc.Total.StringFixed(2))
	return doc, nil
}

// saleIncomeSettled reports whether the sale's income entry was already paid.
func (s *Service) saleIncomeSettled(ctx context.Context, saleID id.ID) (bool, error) {
	txs, err := s.books.ListBySale(ctx, saleID)
	if err != nil {
		return false, err
	}
	for _, t := range txs {
		if t.Type == finance.TypeIncome && t.Status == finance.StatusPaid {
			return true, nil
		}
	}
	return false, nil
}

// addVoidExpense records the compensating entry of a voided paid sale. The
// original income stays on the books.
func (s *Service) addVoidExpense(ctx context.Context, doc *Sale, reason string) error {
	t := finance.New(finance.TypeExpense, "Estorno", reason, doc.Total)
	t.SourceSaleID = &doc.ID
	t.PaymentMethod = string(doc.PaymentMethod)
	return s.books.AddExpense(ctx, t)
}

// Return processes a partial return: restocks the returned fraction of each
// line's stock effects, reopens cost layers at the product's current cost and
// refunds the discounted price actually paid. Fiado refunds reduce the
// customer's debt; other methods record a refund expense.
func (s *Service) Return(ctx context.Context, saleID id.ID, items []ReturnItem) (types.Money, error) {
	if len(items) == 0 {
		return types.ZeroMoney(), apperror.NewValidation("no items to return")
	}

	doc, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return types.ZeroMoney(), err
	}
	if doc.Status != StatusCompleted {
		return types.ZeroMoney(), apperror.NewConflict("cannot return items of a canceled sale")
	}

	lineByID := make(map[id.ID]*Line, len(doc.Lines))
	for i := range doc.Lines {
		lineByID[doc.Lines[i].LineID] = &doc.Lines[i]
	}

	refund := types.ZeroMoney()
	for _, item := range items {
		line, ok := lineByID[item.LineID]
		if !ok {
			return types.ZeroMoney(), apperror.NewValidation("line not found in sale").
				WithDetail("lineId", item.LineID)
		}
		if !item.Quantity.IsPositive() {
			return types.ZeroMoney(), apperror.NewValidation("return quantity must be positive").
				WithDetail("lineId", item.LineID)
		}
		if item.Quantity > line.RemainingQty() {
			return types.ZeroMoney(), apperror.NewValidation("return quantity exceeds remaining quantity").
				WithDetail("lineId", item.LineID).
				WithDetail("remaining", line.RemainingQty().String())
		}
		refund = refund.Add(line.UnitPrice.Mul(item.Quantity.Decimal()).Round(2))
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		reason := fmt.Sprintf("Devolução Venda #%s", doc.Number)
		rec := &inventory.Recorder{ID: doc.ID, Type: "SaleReturn"}

		for _, item := range items {
			line := lineByID[item.LineID]
			for _, eff := range line.Effects {
				retQty := scaleQuantity(eff.Quantity, item.Quantity, line.Quantity)
				if !retQty.IsPositive() {
					continue
				}
				if _, err := s.ledger.Entry(ctx, eff.ProductID, retQty, reason, rec); err != nil {
					return err
				}
				reopen := []costing.Consumption{{Quantity: retQty}}
				if err := s.costs.Restore(ctx, eff.ProductID, reopen, s.fallbackCost(ctx, eff.ProductID)); err != nil {
					return err
				}
			}
			line.ReturnedQty += item.Quantity
		}

		if doc.PaymentMethod == PaymentFiado && doc.CustomerID != nil {
			if _, err := s.credit.Credit(ctx, *doc.CustomerID, refund); err != nil {
				return err
			}
		} else {
			t := finance.New(finance.TypeExpense, "Devolução", reason, refund)
			t.SourceSaleID = &doc.ID
			if err := s.books.AddExpense(ctx, t); err != nil {
				return err
			}
		}

		doc.Touch()
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return types.ZeroMoney(), err
	}

	logger.Info(ctx, "sale items returned",
		"sale_id", doc.ID,
		"number", doc.Number,
		"refund", refund.StringFixed(2),
	)
	return refund, nil
}

// GetByID retrieves a sale.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, saleID)
}

// List retrieves sales.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) priceLine(ctx context.Context, cl CartLine, lineNo int, promos []*promotion.Promotion, localNow time.Time) (Line, error) {
	if !cl.Quantity.IsPositive() {
		return Line{}, apperror.NewValidation("line quantity must be positive").
			WithDetail("lineNo", lineNo)
	}

	line := Line{
		LineID:   id.New(),
		LineNo:   lineNo,
		Kind:     cl.Kind,
		ItemID:   cl.ItemID,
		Quantity: cl.Quantity,
		Discount: cl.Discount,
	}

	switch cl.Kind {
	case LineProduct:
		p, err := s.products.GetByID(ctx, cl.ItemID)
		if err != nil {
			return Line{}, err
		}
		if p.DeletionMark {
			return Line{}, apperror.NewValidation("product is no longer available").
				WithDetail("productId", p.ID)
		}
		line.Description = p.Name
		line.StandardUnitPrice = pricing.ResolveUnitPrice(p, cl.Quantity, promos, localNow)

	case LineKit:
		k, err := s.kits.GetByID(ctx, cl.ItemID)
		if err != nil {
			return Line{}, err
		}
		if !k.Active {
			return Line{}, apperror.NewValidation("kit is not active").
				WithDetail("kitId", k.ID)
		}
		line.Description = k.Name
		line.StandardUnitPrice = k.Price

	default:
		return Line{}, apperror.NewValidation("invalid line kind").
			WithDetail("lineNo", lineNo).
			WithDetail("kind", string(cl.Kind))
	}

	line.UnitPrice = line.StandardUnitPrice
	if cl.Discount != nil {
		line.UnitPrice = cl.Discount.Apply(line.StandardUnitPrice)
	}
	line.Total = line.UnitPrice.Mul(cl.Quantity.Decimal()).Round(2)
	return line, nil
}

// applyCartDiscount converts a cart-wide discount to its blended percentage
// of the cart total after line discounts, then applies that percentage to
// every line. Each line's stored discount becomes the effective ratio against
// its standard price, so repricing on a later edit is reproducible.
func applyCartDiscount(lines []Line, d pricing.Discount) {
	cartTotal := types.ZeroMoney()
	for i := range lines {
		cartTotal = cartTotal.Add(lines[i].Total)
	}

	blended := d.AsPercentOf(cartTotal)
	for i := range lines {
		line := &lines[i]
		line.UnitPrice = blended.Apply(line.UnitPrice)
		line.Total = line.UnitPrice.Mul(line.Quantity.Decimal()).Round(2)
		line.Discount = effectiveDiscount(line.StandardUnitPrice, line.UnitPrice)
	}
}

// effectiveDiscount derives the percent discount that turns std into unit.
func effectiveDiscount(std, unit types.Money) *pricing.Discount {
	if !std.IsPositive() || unit.GreaterThanOrEqual(std) {
		return nil
	}
	pct := types.MustMoney("1").Sub(unit.Div(std)).Mul(types.MustMoney("100"))
	return &pricing.Discount{Kind: pricing.DiscountPercent, Value: pct}
}

// buildEffects expands the line into its concrete stock exits. Kit lines get
// one effect per component, with the line total allocated proportionally to
// the components' retail value.
func (s *Service) buildEffects(ctx context.Context, line *Line) error {
	switch line.Kind {
	case LineProduct:
		line.Effects = []StockEffect{{
			EffectID:         id.New(),
			ProductID:        line.ItemID,
			Quantity:         line.Quantity,
			AllocatedRevenue: line.Total,
		}}
		return nil

	case LineKit:
		k, err := s.kits.GetByID(ctx, line.ItemID)
		if err != nil {
			return err
		}

		weights := make([]types.Money, len(k.Components))
		effects := make([]StockEffect, len(k.Components))
		for i, c := range k.Components {
			p, err := s.products.GetByID(ctx, c.ProductID)
			if err != nil {
				return err
			}
			weights[i] = p.RetailPrice.Mul(c.Quantity.Decimal())
			effects[i] = StockEffect{
				EffectID:  id.New(),
				ProductID: c.ProductID,
				Quantity:  c.Quantity.Mul(line.Quantity),
			}
		}

		shares := pricing.AllocateRevenue(line.Total, weights)
		for i := range effects {
			effects[i].AllocatedRevenue = shares[i]
		}
		line.Effects = effects
		return nil
	}
	return apperror.NewValidation("invalid line kind")
}

func (s *Service) incomeFor(doc *Sale, localNow time.Time) *finance.Transaction {
	t := finance.New(finance.TypeIncome, finance.CategorySale, fmt.Sprintf("Venda #%s", doc.Number), doc.Total)
	t.SourceSaleID = &doc.ID
	t.PaymentMethod = string(doc.PaymentMethod)
	if doc.PaymentMethod == PaymentFiado {
		t.Status = finance.StatusPending
		due := FiadoDueDate(localNow, s.store.FiadoDueDays)
		t.DueDate = &due
	}
	return t
}

// fallbackCost is the unit cost used to reopen a layer when the original
// batch is gone or the consumption was the zero-cost shortfall.
func (s *Service) fallbackCost(ctx context.Context, productID id.ID) types.Money {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return types.ZeroMoney()
	}
	return p.CostPrice
}

// scaleQuantity computes effectQty * (returnQty / lineQty) in fixed point.
func scaleQuantity(effectQty, returnQty, lineQty types.Quantity) types.Quantity {
	if !lineQty.IsPositive() {
		return 0
	}
	return types.Quantity(int64(effectQty) * int64(returnQty) / int64(lineQty))
}
