package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/domain"
	"balcao/internal/domain/purchase"
)

const (
	purchasesTable     = "purchases"
	purchaseItemsTable = "purchase_items"
)

var purchaseColumns = []string{
	"id", "deletion_mark", "version",
	"created_at", "updated_at", "created_by", "updated_by",
	"number", "date", "comment",
	"entry_type", "status", "supplier_id", "supplier_name",
	"installments", "first_due_date", "interval_days", "total",
}

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewPurchaseRepo creates a purchase repository.
func NewPurchaseRepo(txManager *TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create persists the purchase with its items.
func (r *PurchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	querier := r.txManager.GetQuerier(ctx)

	q := r.builder.Insert(purchasesTable).
		Columns(purchaseColumns...).
		Values(
			p.ID, p.DeletionMark, p.Version,
			p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy,
			p.Number, p.Date, p.Comment,
			p.EntryType, p.Status, p.SupplierID, p.SupplierName,
			p.Installments, p.FirstDueDate, p.IntervalDays, p.Total,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}

	if len(p.Items) == 0 {
		return nil
	}

	itemsQ := r.builder.Insert(purchaseItemsTable).
		Columns(
			"line_id", "purchase_id", "line_no", "product_id", "product_name",
			"quantity", "unit_cost", "retail_price", "expiry_date",
		)
	for _, item := range p.Items {
		itemsQ = itemsQ.Values(
			item.LineID, p.ID, item.LineNo, item.ProductID, item.ProductName,
			item.Quantity, item.UnitCost, item.RetailPrice, item.ExpiryDate,
		)
	}

	itemsSQL, itemsArgs, err := itemsQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}
	if _, err := querier.Exec(ctx, itemsSQL, itemsArgs...); err != nil {
		return fmt.Errorf("insert purchase items: %w", err)
	}
	return nil
}

// GetByID retrieves a purchase with its items.
func (r *PurchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	q := r.builder.Select(purchaseColumns...).From(purchasesTable).
		Where(squirrel.Eq{"id": purchaseID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p purchase.Purchase
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase", purchaseID.String())
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}

	items, err := r.getItems(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return &p, nil
}

func (r *PurchaseRepo) getItems(ctx context.Context, purchaseID id.ID) ([]purchase.Item, error) {
	q := r.builder.Select(
		"line_id", "line_no", "product_id", "product_name",
		"quantity", "unit_cost", "retail_price", "expiry_date",
	).
		From(purchaseItemsTable).
		Where(squirrel.Eq{"purchase_id": purchaseID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []purchase.Item
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get purchase items: %w", err)
	}
	return items, nil
}

// Update persists status changes with an optimistic version check. Items are
// immutable once committed.
func (r *PurchaseRepo) Update(ctx context.Context, p *purchase.Purchase) error {
	q := r.builder.Update(purchasesTable).
		Set("status", p.Status).
		Set("comment", p.Comment).
		Set("updated_at", p.UpdatedAt).
		Set("updated_by", p.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"version": p.Version - 1})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("purchase", p.ID)
	}
	return nil
}

// List retrieves purchase headers.
func (r *PurchaseRepo) List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	result := domain.ListResult[*purchase.Purchase]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder.Select(purchaseColumns...).From(purchasesTable)

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.EntryType != nil {
		q = q.Where(squirrel.Eq{"entry_type": *filter.EntryType})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"supplier_name": pattern},
		})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count purchases: %w", err)
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
		return result, fmt.Errorf("list purchases: %w", err)
	}
	return result, nil
}

// NextNumber issues the next sequential purchase number.
func (r *PurchaseRepo) NextNumber(ctx context.Context) (string, error) {
	var n int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, "SELECT nextval('purchase_numbers')").Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next purchase number: %w", err)
	}
	return fmt.Sprintf("C-%06d", n), nil
}

var _ purchase.Repository = (*PurchaseRepo)(nil)
