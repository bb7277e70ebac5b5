package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain/costing"
)

const stockBatchesTable = "stock_batches"

var stockBatchColumns = []string{
	"id", "product_id", "transaction_id",
	"qty_original", "qty_remaining", "cost_price",
	"purchase_date", "expiry_date", "created_at",
}

// CostingRepo implements costing.Repository.
type CostingRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewCostingRepo creates a costing repository.
func NewCostingRepo(txManager *TxManager) *CostingRepo {
	return &CostingRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateBatch inserts a new cost layer.
func (r *CostingRepo) CreateBatch(ctx context.Context, b *entity.StockBatch) error {
	q := r.builder.Insert(stockBatchesTable).
		Columns(stockBatchColumns...).
		Values(
			b.ID, b.ProductID, b.TransactionID,
			b.QtyOriginal, b.QtyRemaining, b.CostPrice,
			b.PurchaseDate, b.ExpiryDate, b.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// ListOpenForUpdate returns non-exhausted batches oldest purchase first,
// locked FOR UPDATE so concurrent sales drain layers serially.
func (r *CostingRepo) ListOpenForUpdate(ctx context.Context, productID id.ID) ([]*entity.StockBatch, error) {
	q := r.builder.Select(stockBatchColumns...).
		From(stockBatchesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Gt{"qty_remaining": 0}).
		OrderBy("purchase_date ASC", "created_at ASC").
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*entity.StockBatch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("list open batches: %w", err)
	}
	return batches, nil
}

// UpdateRemaining sets the batch's remaining quantity.
func (r *CostingRepo) UpdateRemaining(ctx context.Context, batchID id.ID, remaining types.Quantity) error {
	q := r.builder.Update(stockBatchesTable).
		Set("qty_remaining", remaining).
		Where(squirrel.Eq{"id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch remaining: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("stock batch", batchID.String())
	}
	return nil
}

// ListByTransaction returns batches opened by a purchase group.
func (r *CostingRepo) ListByTransaction(ctx context.Context, transactionID id.ID) ([]*entity.StockBatch, error) {
	q := r.builder.Select(stockBatchColumns...).
		From(stockBatchesTable).
		Where(squirrel.Eq{"transaction_id": transactionID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*entity.StockBatch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches by transaction: %w", err)
	}
	return batches, nil
}

// ListByProduct returns all batches of a product, oldest first.
func (r *CostingRepo) ListByProduct(ctx context.Context, productID id.ID) ([]*entity.StockBatch, error) {
	q := r.builder.Select(stockBatchColumns...).
		From(stockBatchesTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("purchase_date ASC", "created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*entity.StockBatch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches by product: %w", err)
	}
	return batches, nil
}

// Valuation returns sum(qty_remaining * cost_price) per product with open
// layers. Quantities are stored scaled by 1e4, hence the division.
func (r *CostingRepo) Valuation(ctx context.Context) (map[id.ID]types.Money, error) {
	const sql = `
		SELECT product_id, SUM((qty_remaining::numeric / 10000) * cost_price)
		FROM stock_batches
		WHERE qty_remaining > 0
		GROUP BY product_id
	`

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("valuation: %w", err)
	}
	defer rows.Close()

	valuation := make(map[id.ID]types.Money)
	for rows.Next() {
		var productID id.ID
		var value types.Money
		if err := rows.Scan(&productID, &value); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		valuation[productID] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate valuation: %w", err)
	}
	return valuation, nil
}

var _ costing.Repository = (*CostingRepo)(nil)
