package postgres

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"balcao/internal/domain"
	"balcao/internal/domain/backup"
	"balcao/internal/domain/catalog/kit"
	"balcao/internal/domain/finance"
	"balcao/internal/domain/purchase"
	"balcao/internal/domain/sale"
)

// truncateOrder empties dependents before their referents. Import replaces
// the whole dataset in one transaction.
var truncateOrder = []string{
	saleConsumptionsTable, saleEffectsTable, saleLinesTable, salePaymentsTable, salesTable,
	purchaseItemsTable, purchasesTable,
	transactionItemsTable, transactionsTable,
	stockBatchesTable, stockMovementsTable,
	kitComponentsTable, kitsTable,
	promotionsTable, customersTable, productsTable, suppliersTable,
	usersTable,
}

// BackupStore implements backup.Store over the repositories, so exported
// snapshots carry exactly the shapes the domain works with.
type BackupStore struct {
	txManager *TxManager

	products  *ProductRepo
	kits      *KitRepo
	customers *CustomerRepo
	suppliers *SupplierRepo
	promos    *PromotionRepo
	sales     *SaleRepo
	purchases *PurchaseRepo
	finances  *FinanceRepo
	inventory *InventoryRepo
	batches   *CostingRepo
	users     *UserRepo
}

// NewBackupStore creates the backup store.
func NewBackupStore(txManager *TxManager) *BackupStore {
	return &BackupStore{
		txManager: txManager,
		products:  NewProductRepo(txManager),
		kits:      NewKitRepo(txManager),
		customers: NewCustomerRepo(txManager),
		suppliers: NewSupplierRepo(txManager),
		promos:    NewPromotionRepo(txManager),
		sales:     NewSaleRepo(txManager),
		purchases: NewPurchaseRepo(txManager),
		finances:  NewFinanceRepo(txManager),
		inventory: NewInventoryRepo(txManager),
		batches:   NewCostingRepo(txManager),
		users:     NewUserRepo(txManager),
	}
}

// Export reads the complete dataset.
func (s *BackupStore) Export(ctx context.Context) (*backup.Snapshot, error) {
	snap := &backup.Snapshot{}
	querier := s.txManager.GetQuerier(ctx)

	if err := pgxscan.Select(ctx, querier, &snap.Products,
		"SELECT "+joinColumns(productColumns)+" FROM "+productsTable+" ORDER BY id"); err != nil {
		return nil, fmt.Errorf("export products: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &snap.Customers,
		"SELECT "+joinColumns(customerColumns)+" FROM "+customersTable+" ORDER BY id"); err != nil {
		return nil, fmt.Errorf("export customers: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &snap.Suppliers,
		"SELECT "+joinColumns(supplierColumns)+" FROM "+suppliersTable+" ORDER BY id"); err != nil {
		return nil, fmt.Errorf("export suppliers: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &snap.Promotions,
		"SELECT "+joinColumns(promotionColumns)+" FROM "+promotionsTable+" ORDER BY id"); err != nil {
		return nil, fmt.Errorf("export promotions: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &snap.Movements,
		"SELECT "+joinColumns(stockMovementColumns)+" FROM "+stockMovementsTable+" ORDER BY created_at"); err != nil {
		return nil, fmt.Errorf("export movements: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &snap.Batches,
		"SELECT "+joinColumns(stockBatchColumns)+" FROM "+stockBatchesTable+" ORDER BY created_at"); err != nil {
		return nil, fmt.Errorf("export batches: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &snap.Users,
		"SELECT "+joinColumns(userColumns)+" FROM "+usersTable+" ORDER BY username"); err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}

	kits, err := s.exportKits(ctx)
	if err != nil {
		return nil, err
	}
	snap.Kits = kits

	sales, err := s.exportSales(ctx)
	if err != nil {
		return nil, err
	}
	snap.Sales = sales

	purchases, err := s.exportPurchases(ctx)
	if err != nil {
		return nil, err
	}
	snap.Purchases = purchases

	transactions, err := s.exportTransactions(ctx)
	if err != nil {
		return nil, err
	}
	snap.Transactions = transactions

	return snap, nil
}

func (s *BackupStore) exportKits(ctx context.Context) ([]*kit.Kit, error) {
	list, err := s.kits.List(ctx, domain.ListFilter{IncludeDeleted: true})
	if err != nil {
		return nil, fmt.Errorf("export kits: %w", err)
	}
	for _, k := range list.Items {
		components, err := s.kits.GetComponents(ctx, k.ID)
		if err != nil {
			return nil, fmt.Errorf("export kit components: %w", err)
		}
		k.Components = components
	}
	return list.Items, nil
}

func (s *BackupStore) exportSales(ctx context.Context) ([]*sale.Sale, error) {
	headers, err := s.sales.List(ctx, sale.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("export sales: %w", err)
	}
	sales := make([]*sale.Sale, 0, len(headers.Items))
	for _, header := range headers.Items {
		full, err := s.sales.GetByID(ctx, header.ID)
		if err != nil {
			return nil, fmt.Errorf("export sale %s: %w", header.ID, err)
		}
		sales = append(sales, full)
	}
	return sales, nil
}

func (s *BackupStore) exportPurchases(ctx context.Context) ([]*purchase.Purchase, error) {
	headers, err := s.purchases.List(ctx, purchase.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("export purchases: %w", err)
	}
	purchases := make([]*purchase.Purchase, 0, len(headers.Items))
	for _, header := range headers.Items {
		full, err := s.purchases.GetByID(ctx, header.ID)
		if err != nil {
			return nil, fmt.Errorf("export purchase %s: %w", header.ID, err)
		}
		purchases = append(purchases, full)
	}
	return purchases, nil
}

func (s *BackupStore) exportTransactions(ctx context.Context) ([]*finance.Transaction, error) {
	headers, err := s.finances.List(ctx, finance.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("export transactions: %w", err)
	}
	transactions := make([]*finance.Transaction, 0, len(headers.Items))
	for _, header := range headers.Items {
		full, err := s.finances.GetByID(ctx, header.ID)
		if err != nil {
			return nil, fmt.Errorf("export transaction %s: %w", header.ID, err)
		}
		transactions = append(transactions, full)
	}
	return transactions, nil
}

// Import replaces the entire dataset with the snapshot. The backup service
// already wrapped this in a transaction.
func (s *BackupStore) Import(ctx context.Context, snap *backup.Snapshot) error {
	querier := s.txManager.GetQuerier(ctx)

	for _, table := range truncateOrder {
		if _, err := querier.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, sup := range snap.Suppliers {
		if err := s.suppliers.Create(ctx, sup); err != nil {
			return err
		}
	}
	for _, p := range snap.Products {
		if err := s.products.Create(ctx, p); err != nil {
			return err
		}
	}
	for _, c := range snap.Customers {
		if err := s.customers.Create(ctx, c); err != nil {
			return err
		}
	}
	for _, k := range snap.Kits {
		if err := s.kits.Create(ctx, k); err != nil {
			return err
		}
		if err := s.kits.SaveComponents(ctx, k.ID, k.Components); err != nil {
			return err
		}
	}
	for _, p := range snap.Promotions {
		if err := s.promos.Create(ctx, p); err != nil {
			return err
		}
	}
	for _, m := range snap.Movements {
		if err := s.inventory.CreateMovement(ctx, m); err != nil {
			return err
		}
	}
	for _, b := range snap.Batches {
		if err := s.batches.CreateBatch(ctx, b); err != nil {
			return err
		}
	}
	for _, t := range snap.Transactions {
		if err := s.finances.Create(ctx, t); err != nil {
			return err
		}
	}
	for _, doc := range snap.Sales {
		if err := s.sales.Create(ctx, doc); err != nil {
			return err
		}
	}
	for _, doc := range snap.Purchases {
		if err := s.purchases.Create(ctx, doc); err != nil {
			return err
		}
	}
	for _, u := range snap.Users {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
	}

	return s.resetSequences(ctx)
}

// resetSequences realigns the document number sequences with the restored
// documents so the next sale does not collide with an imported number.
func (s *BackupStore) resetSequences(ctx context.Context) error {
	querier := s.txManager.GetQuerier(ctx)

	const saleSQL = `
		SELECT setval('sale_numbers',
			GREATEST(COALESCE((SELECT MAX(SUBSTRING(number FROM 3)::bigint) FROM sales), 1), 1))
	`
	if _, err := querier.Exec(ctx, saleSQL); err != nil {
		return fmt.Errorf("reset sale numbers: %w", err)
	}

	const purchaseSQL = `
		SELECT setval('purchase_numbers',
			GREATEST(COALESCE((SELECT MAX(SUBSTRING(number FROM 3)::bigint) FROM purchases), 1), 1))
	`
	if _, err := querier.Exec(ctx, purchaseSQL); err != nil {
		return fmt.Errorf("reset purchase numbers: %w", err)
	}
	return nil
}

func joinColumns(columns []string) string {
	out := ""
	for i, col := range columns {
		if i > 0 {
			out += ", "
		}
		out += col
	}
	return out
}

var _ backup.Store = (*BackupStore)(nil)
