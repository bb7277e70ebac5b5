package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"balcao/internal/config"
	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/tx"
	"balcao/internal/core/types"
	"balcao/internal/domain"
	"balcao/internal/domain/catalog/product"
	"balcao/internal/domain/catalog/supplier"
	"balcao/internal/domain/finance"
	"balcao/internal/domain/inventory"
	"balcao/pkg/logger"
)

// ProductCatalog is the product side of a purchase entry.
type ProductCatalog interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
	ApplyPurchaseInfo(ctx context.Context, productID id.ID, costPrice, retailPrice types.Money, supplierID *id.ID, expiryDate *time.Time) error
}

// SupplierRegistry auto-registers suppliers seen on purchase entry.
type SupplierRegistry interface {
	GetOrCreateByName(ctx context.Context, name string) (*supplier.Supplier, error)
}

// Ledger is the inventory side of a purchase.
type Ledger interface {
	Entry(ctx context.Context, productID id.ID, qty types.Quantity, reason string, rec *inventory.Recorder) (types.Quantity, error)
	ExitClamped(ctx context.Context, productID id.ID, qty types.Quantity, reason string, rec *inventory.Recorder) (types.Quantity, error)
}

// CostTracker opens and closes FIFO layers for a purchase.
type CostTracker interface {
	OpenBatch(ctx context.Context, productID id.ID, qty types.Quantity, costPrice types.Money, purchaseDate time.Time, expiryDate *time.Time, transactionID *id.ID) (*entity.StockBatch, error)
	CloseByTransaction(ctx context.Context, transactionID id.ID) (types.Quantity, error)
}

// Books is the financial side of a purchase.
type Books interface {
	AddExpense(ctx context.Context, t *finance.Transaction) error
	DeleteGroup(ctx context.Context, groupID id.ID) error
}

// ItemInput is one received line of the incoming entry.
type ItemInput struct {
	ProductID   id.ID          `json:"productId"`
	Quantity    types.Quantity `json:"quantity"`
	UnitCost    types.Money    `json:"unitCost"`
	RetailPrice types.Money    `json:"retailPrice,omitempty"`
	ExpiryDate  *time.Time     `json:"expiryDate,omitempty"`
}

// CommitInput is the request to commit a stock entry.
type CommitInput struct {
	EntryType    EntryType   `json:"entryType"`
	SupplierName string      `json:"supplierName,omitempty"`
	Installments int         `json:"installments,omitempty"`
	FirstDueDate time.Time   `json:"firstDueDate,omitempty"`
	IntervalDays int         `json:"intervalDays,omitempty"`
	Comment      string      `json:"comment,omitempty"`
	Items        []ItemInput `json:"items"`
}

// Service coordinates the purchase document: supplier auto-registration,
// stock entries, one cost layer per item, last-purchase-wins catalog pricing
// and the expense installment plan, all in one transaction.
type Service struct {
	repo      Repository
	products  ProductCatalog
	suppliers SupplierRegistry
	ledger    Ledger
	costs     CostTracker
	books     Books
	txManager tx.Manager
	store     config.StoreConfig
}

// NewService creates the purchase coordinator.
func NewService(
	repo Repository,
	products ProductCatalog,
	suppliers SupplierRegistry,
	ledger Ledger,
	costs CostTracker,
	books Books,
	txManager tx.Manager,
	store config.StoreConfig,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		suppliers: suppliers,
		ledger:    ledger,
		costs:     costs,
		books:     books,
		txManager: txManager,
		store:     store,
	}
}

// Commit records a stock entry. Every item increases stock, opens exactly one
// cost layer and overwrites the product's cost (and retail price when given)
// with the values just entered. PURCHASE entries additionally write the
// expense installment plan; donations, bonuses and adjustments do not.
func (s *Service) Commit(ctx context.Context, in CommitInput) (*Purchase, error) {
	doc := NewPurchase(in.EntryType)
	doc.SupplierName = in.SupplierName
	doc.Installments = in.Installments
	doc.FirstDueDate = in.FirstDueDate
	doc.IntervalDays = in.IntervalDays
	doc.Comment = in.Comment

	if doc.IntervalDays <= 0 {
		doc.IntervalDays = 30
	}

	for i, item := range in.Items {
		doc.Items = append(doc.Items, Item{
			LineID:      id.New(),
			LineNo:      i + 1,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
			RetailPrice: item.RetailPrice,
			ExpiryDate:  item.ExpiryDate,
		})
		doc.Total = doc.Total.Add(item.UnitCost.Mul(item.Quantity.Decimal()))
	}
	doc.Total = doc.Total.Round(2)

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.repo.NextNumber(ctx)
		if err != nil {
			return fmt.Errorf("issue purchase number: %w", err)
		}
		doc.Number = number

		if doc.SupplierName != "" {
			sup, err := s.suppliers.GetOrCreateByName(ctx, doc.SupplierName)
			if err != nil {
				return err
			}
			doc.SupplierID = &sup.ID
			doc.SupplierName = sup.Name
		}

		reason := fmt.Sprintf("Compra #%s", doc.Number)
		if doc.EntryType != EntryPurchase {
			reason = fmt.Sprintf("Entrada (%s) #%s", doc.EntryType, doc.Number)
		}
		rec := &inventory.Recorder{ID: doc.ID, Type: "Purchase"}

		for i := range doc.Items {
			item := &doc.Items[i]

			p, err := s.products.GetByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			item.ProductName = p.Name

			if _, err := s.ledger.Entry(ctx, item.ProductID, item.Quantity, reason, rec); err != nil {
				return err
			}

			if _, err := s.costs.OpenBatch(ctx, item.ProductID, item.Quantity, item.UnitCost, doc.Date, item.ExpiryDate, &doc.ID); err != nil {
				return err
			}

			retail := item.RetailPrice
			if retail.IsZero() {
				retail = p.RetailPrice
			}
			if err := s.products.ApplyPurchaseInfo(ctx, item.ProductID, item.UnitCost, retail, doc.SupplierID, item.ExpiryDate); err != nil {
				return err
			}
		}

		if doc.IsFinancial() {
			if err := s.writeInstallments(ctx, doc); err != nil {
				return err
			}
		}

		return s.repo.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase committed",
		"purchase_id", doc.ID,
		"number", doc.Number,
		"entry_type", doc.EntryType,
		"total", doc.Total.StringFixed(2),
		"items", len(doc.Items),
	)
	return doc, nil
}

// Cancel reverses a purchase: stock exits are clamped at what is still on
// hand (goods already resold stay sold), remaining cost layers close, and the
// whole installment group disappears from the books.
func (s *Service) Cancel(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	doc, err := s.repo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if doc.Status != StatusActive {
		return nil, apperror.NewConflict("purchase is already canceled")
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		reason := fmt.Sprintf("Cancelamento Compra #%s", doc.Number)
		rec := &inventory.Recorder{ID: doc.ID, Type: "PurchaseCancel"}

		for _, item := range doc.Items {
			if _, err := s.ledger.ExitClamped(ctx, item.ProductID, item.Quantity, reason, rec); err != nil {
				return err
			}
		}

		if _, err := s.costs.CloseByTransaction(ctx, doc.ID); err != nil {
			return err
		}

		if doc.IsFinancial() {
			if err := s.books.DeleteGroup(ctx, doc.ID); err != nil {
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

	logger.Info(ctx, "purchase canceled", "purchase_id", doc.ID, "number", doc.Number)
	return doc, nil
}

// GetByID retrieves a purchase.
func (s *Service) GetByID(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	return s.repo.GetByID(ctx, purchaseID)
}

// List retrieves purchases.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error) {
	return s.repo.List(ctx, filter)
}

// SuggestRetail computes a suggested retail price from the entered cost and
// the store's category markup table.
func (s *Service) SuggestRetail(cost types.Money, category string) types.Money {
	markup := s.store.MarkupFor(category)
	return cost.Mul(decimal.NewFromInt(1).Add(markup)).Round(2)
}

func (s *Service) writeInstallments(ctx context.Context, doc *Purchase) error {
	installments := finance.BuildInstallments(doc.Total, doc.Installments, doc.FirstDueDate, doc.IntervalDays)

	for i, inst := range installments {
		t := finance.New(finance.TypeExpense, finance.CategoryPurchase,
			fmt.Sprintf("Compra #%s (%d/%d)", doc.Number, i+1, len(installments)), inst.Amount)
		t.Status = finance.StatusPending
		due := inst.DueDate
		t.DueDate = &due
		t.PurchaseGroupID = &doc.ID

		// Item snapshot rides on the first installment only.
		if i == 0 {
			for _, item := range doc.Items {
				t.Items = append(t.Items, finance.TransactionItem{
					LineID:      id.New(),
					ProductID:   item.ProductID,
					ProductName: item.ProductName,
					Quantity:    item.Quantity,
					UnitCost:    item.UnitCost,
				})
			}
		}

		if err := s.books.AddExpense(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
