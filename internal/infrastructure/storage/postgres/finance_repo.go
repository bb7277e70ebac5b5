package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain"
	"balcao/internal/domain/finance"
)

const (
	transactionsTable     = "transactions"
	transactionItemsTable = "transaction_items"
)

var transactionColumns = []string{
	"id", "type", "category", "description", "amount",
	"date", "due_date", "status", "payment_method",
	"source_sale_id", "purchase_group_id", "customer_id",
	"created_at", "updated_at",
}

// FinanceRepo implements finance.Repository.
type FinanceRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewFinanceRepo creates a finance repository.
func NewFinanceRepo(txManager *TxManager) *FinanceRepo {
	return &FinanceRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *FinanceRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(transactionColumns...).From(transactionsTable)
}

// Create inserts a transaction with its item snapshot.
func (r *FinanceRepo) Create(ctx context.Context, t *finance.Transaction) error {
	q := r.builder.Insert(transactionsTable).
		Columns(transactionColumns...).
		Values(
			t.ID, t.Type, t.Category, t.Description, t.Amount,
			t.Date, t.DueDate, t.Status, t.PaymentMethod,
			t.SourceSaleID, t.PurchaseGroupID, t.CustomerID,
			t.CreatedAt, t.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if len(t.Items) == 0 {
		return nil
	}

	itemsQ := r.builder.Insert(transactionItemsTable).
		Columns("line_id", "transaction_id", "product_id", "product_name", "quantity", "unit_cost")
	for _, item := range t.Items {
		itemsQ = itemsQ.Values(item.LineID, t.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitCost)
	}

	itemsSQL, itemsArgs, err := itemsQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}
	if _, err := querier.Exec(ctx, itemsSQL, itemsArgs...); err != nil {
		return fmt.Errorf("insert transaction items: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction with its items.
func (r *FinanceRepo) GetByID(ctx context.Context, txID id.ID) (*finance.Transaction, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": txID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t finance.Transaction
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transaction", txID.String())
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	items, err := r.getItems(ctx, txID)
	if err != nil {
		return nil, err
	}
	t.Items = items
	return &t, nil
}

func (r *FinanceRepo) getItems(ctx context.Context, txID id.ID) ([]finance.TransactionItem, error) {
	q := r.builder.Select("line_id", "product_id", "product_name", "quantity", "unit_cost").
		From(transactionItemsTable).
		Where(squirrel.Eq{"transaction_id": txID}).
		OrderBy("line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []finance.TransactionItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get transaction items: %w", err)
	}
	return items, nil
}

// Update persists settlement and description changes. Items are immutable.
func (r *FinanceRepo) Update(ctx context.Context, t *finance.Transaction) error {
	q := r.builder.Update(transactionsTable).
		Set("category", t.Category).
		Set("description", t.Description).
		Set("amount", t.Amount).
		Set("due_date", t.DueDate).
		Set("status", t.Status).
		Set("payment_method", t.PaymentMethod).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": t.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("transaction", t.ID.String())
	}
	return nil
}

// List retrieves transactions. Item snapshots are not loaded for lists.
func (r *FinanceRepo) List(ctx context.Context, filter finance.ListFilter) (domain.ListResult[*finance.Transaction], error) {
	result := domain.ListResult[*finance.Transaction]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"description": "%" + filter.Search + "%"})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count transactions: %w", err)
	}

	orderBy := "date DESC"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list transactions: %w", err)
	}
	return result, nil
}

// DeleteBySale removes the income rows of a voided sale. Item snapshots go
// with them via ON DELETE CASCADE.
func (r *FinanceRepo) DeleteBySale(ctx context.Context, saleID id.ID) (int64, error) {
	const sql = `DELETE FROM transactions WHERE source_sale_id = $1 AND type = 'INCOME'`

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, saleID)
	if err != nil {
		return 0, fmt.Errorf("delete transactions by sale: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteGroup removes all installments of a cancelled purchase.
func (r *FinanceRepo) DeleteGroup(ctx context.Context, groupID id.ID) (int64, error) {
	const sql = `DELETE FROM transactions WHERE purchase_group_id = $1`

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, groupID)
	if err != nil {
		return 0, fmt.Errorf("delete transaction group: %w", err)
	}
	return result.RowsAffected(), nil
}

// ListBySale returns the transactions linked to a sale.
func (r *FinanceRepo) ListBySale(ctx context.Context, saleID id.ID) ([]*finance.Transaction, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"source_sale_id": saleID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var transactions []*finance.Transaction
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &transactions, sql, args...); err != nil {
		return nil, fmt.Errorf("list transactions by sale: %w", err)
	}
	return transactions, nil
}

// ListByGroup returns a purchase's installments ordered by due date.
func (r *FinanceRepo) ListByGroup(ctx context.Context, groupID id.ID) ([]*finance.Transaction, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"purchase_group_id": groupID}).
		OrderBy("due_date ASC NULLS FIRST", "created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var transactions []*finance.Transaction
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &transactions, sql, args...); err != nil {
		return nil, fmt.Errorf("list transactions by group: %w", err)
	}
	return transactions, nil
}

// Summarize totals PAID income and expense over the period.
func (r *FinanceRepo) Summarize(ctx context.Context, period domain.Period) (types.Money, types.Money, error) {
	const sql = `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'INCOME' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'EXPENSE' THEN amount ELSE 0 END), 0)
		FROM transactions
		WHERE status = 'PAID' AND date >= $1 AND date <= $2
	`

	var income, expense types.Money
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, period.From, period.To).Scan(&income, &expense)
	if err != nil && err != pgx.ErrNoRows {
		return types.ZeroMoney(), types.ZeroMoney(), fmt.Errorf("summarize transactions: %w", err)
	}
	return income, expense, nil
}

var _ finance.Repository = (*FinanceRepo)(nil)
