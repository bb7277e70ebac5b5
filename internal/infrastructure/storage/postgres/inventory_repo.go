package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain/inventory"
)

const stockMovementsTable = "stock_movements"

var stockMovementColumns = []string{
	"line_id", "product_id", "type", "quantity", "reason",
	"recorder_id", "recorder_type", "period", "created_at",
}

// InventoryRepo implements inventory.Repository.
//
// Stock mutations are single conditional UPDATE statements against the
// product row. The check and the write cannot be separated by a concurrent
// terminal's commit.
type InventoryRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewInventoryRepo creates an inventory repository.
func NewInventoryRepo(txManager *TxManager) *InventoryRepo {
	return &InventoryRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovement appends one immutable audit row.
func (r *InventoryRepo) CreateMovement(ctx context.Context, m entity.StockMovement) error {
	q := r.builder.Insert(stockMovementsTable).
		Columns(stockMovementColumns...).
		Values(
			m.LineID, m.ProductID, m.Type, m.Quantity, m.Reason,
			m.RecorderID, m.RecorderType, m.Period, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// Decrement subtracts qty from stock iff enough is available. Zero rows
// affected on an existing product surfaces as INSUFFICIENT_STOCK carrying the
// availability at the moment of the attempt.
func (r *InventoryRepo) Decrement(ctx context.Context, productID id.ID, qty types.Quantity) (types.Quantity, error) {
	const sql = `
		UPDATE products
		SET stock = stock - $1
		WHERE id = $2 AND stock >= $1
		RETURNING stock
	`

	querier := r.txManager.GetQuerier(ctx)

	var newStock types.Quantity
	err := querier.QueryRow(ctx, sql, qty, productID).Scan(&newStock)
	if err == nil {
		return newStock, nil
	}
	if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	available, getErr := r.GetStock(ctx, productID)
	if getErr != nil {
		return 0, getErr
	}
	return 0, apperror.NewInsufficientStock(productID.String(), qty.Float64(), available.Float64())
}

// DecrementClamped subtracts at most the available stock, flooring at zero.
func (r *InventoryRepo) DecrementClamped(ctx context.Context, productID id.ID, qty types.Quantity) (types.Quantity, types.Quantity, error) {
	const sql = `
		WITH prev AS (
			SELECT stock FROM products WHERE id = $2 FOR UPDATE
		)
		UPDATE products p
		SET stock = GREATEST(p.stock - $1, 0)
		FROM prev
		WHERE p.id = $2
		RETURNING p.stock, prev.stock - p.stock
	`

	var newStock, applied types.Quantity
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, qty, productID).Scan(&newStock, &applied)
	if err == pgx.ErrNoRows {
		return 0, 0, apperror.NewNotFound("product", productID.String())
	}
	if err != nil {
		return 0, 0, fmt.Errorf("decrement stock clamped: %w", err)
	}
	return newStock, applied, nil
}

// Increment adds to stock unconditionally.
func (r *InventoryRepo) Increment(ctx context.Context, productID id.ID, qty types.Quantity) (types.Quantity, error) {
	const sql = `
		UPDATE products
		SET stock = stock + $1
		WHERE id = $2
		RETURNING stock
	`

	var newStock types.Quantity
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, qty, productID).Scan(&newStock)
	if err == pgx.ErrNoRows {
		return 0, apperror.NewNotFound("product", productID.String())
	}
	if err != nil {
		return 0, fmt.Errorf("increment stock: %w", err)
	}
	return newStock, nil
}

// SetStock overwrites stock under row lock and returns the previous value.
func (r *InventoryRepo) SetStock(ctx context.Context, productID id.ID, newStock types.Quantity) (types.Quantity, error) {
	const sql = `
		WITH prev AS (
			SELECT stock FROM products WHERE id = $2 FOR UPDATE
		)
		UPDATE products p
		SET stock = $1
		FROM prev
		WHERE p.id = $2
		RETURNING prev.stock
	`

	var previous types.Quantity
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, newStock, productID).Scan(&previous)
	if err == pgx.ErrNoRows {
		return 0, apperror.NewNotFound("product", productID.String())
	}
	if err != nil {
		return 0, fmt.Errorf("set stock: %w", err)
	}
	return previous, nil
}

// GetStock returns the product's current stock.
func (r *InventoryRepo) GetStock(ctx context.Context, productID id.ID) (types.Quantity, error) {
	const sql = `SELECT stock FROM products WHERE id = $1`

	var stock types.Quantity
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, productID).Scan(&stock)
	if err == pgx.ErrNoRows {
		return 0, apperror.NewNotFound("product", productID.String())
	}
	if err != nil {
		return 0, fmt.Errorf("get stock: %w", err)
	}
	return stock, nil
}

// GetStocks returns current stock for a set of products.
func (r *InventoryRepo) GetStocks(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Quantity, error) {
	stocks := make(map[id.ID]types.Quantity, len(productIDs))
	if len(productIDs) == 0 {
		return stocks, nil
	}

	q := r.builder.Select("id", "stock").From(productsTable).
		Where(squirrel.Eq{"id": productIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("get stocks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID id.ID
		var stock types.Quantity
		if err := rows.Scan(&productID, &stock); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		stocks[productID] = stock
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stocks: %w", err)
	}
	return stocks, nil
}

// ListMovements returns the product's movement history, newest first.
func (r *InventoryRepo) ListMovements(ctx context.Context, productID id.ID, filter inventory.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.Select(stockMovementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID})

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	q = q.OrderBy("period DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// SumMovements totals entries and exits over the full movement history.
func (r *InventoryRepo) SumMovements(ctx context.Context, productID id.ID) (types.Quantity, types.Quantity, error) {
	const sql = `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'entry' THEN quantity ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'exit' THEN quantity ELSE 0 END), 0)
		FROM stock_movements
		WHERE product_id = $1
	`

	var entriesScaled, exitsScaled int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, productID).Scan(&entriesScaled, &exitsScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, 0, fmt.Errorf("sum movements: %w", err)
	}
	return types.NewQuantityFromInt64Scaled(entriesScaled), types.NewQuantityFromInt64Scaled(exitsScaled), nil
}

var _ inventory.Repository = (*InventoryRepo)(nil)
