package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain"
	"balcao/internal/domain/catalog/product"
)

const productsTable = "products"

// productColumns excludes nothing; the stock column is still selected but
// never written by Update.
var productColumns = []string{
	"id", "deletion_mark", "version", "code", "name",
	"category", "subcategory", "brand", "supplier_id", "unit",
	"cost_price", "retail_price", "wholesale_price", "wholesale_min_qty",
	"stock", "min_stock", "expiry_date",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewProductRepo creates a product repository.
func NewProductRepo(txManager *TxManager) *ProductRepo {
	return &ProductRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ProductRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(productColumns...).From(productsTable)
}

// Create inserts a product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(
			p.ID, p.DeletionMark, p.Version, p.Code, p.Name,
			p.Category, p.Subcategory, p.Brand, p.SupplierID, p.Unit,
			p.CostPrice, p.RetailPrice, p.WholesalePrice, p.WholesaleMinQty,
			p.Stock, p.MinStock, p.ExpiryDate,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("product", "barcode", p.Code)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": productID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetByCode retrieves a product by barcode.
func (r *ProductRepo) GetByCode(ctx context.Context, barcode string) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"code": barcode}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", barcode)
		}
		return nil, fmt.Errorf("get product by barcode: %w", err)
	}
	return &p, nil
}

// GetByIDs retrieves products in bulk.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []id.ID) ([]*product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := r.baseSelect().Where(squirrel.Eq{"id": ids})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []*product.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	return products, nil
}

// Update modifies catalog fields with optimistic locking. The stock column is
// deliberately absent from the SET list: it belongs to the inventory ledger.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.builder.Update(productsTable).
		Set("code", p.Code).
		Set("name", p.Name).
		Set("category", p.Category).
		Set("subcategory", p.Subcategory).
		Set("brand", p.Brand).
		Set("supplier_id", p.SupplierID).
		Set("unit", p.Unit).
		Set("cost_price", p.CostPrice).
		Set("retail_price", p.RetailPrice).
		Set("wholesale_price", p.WholesalePrice).
		Set("wholesale_min_qty", p.WholesaleMinQty).
		Set("min_stock", p.MinStock).
		Set("expiry_date", p.ExpiryDate).
		Set("deletion_mark", p.DeletionMark).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("product", p.ID)
	}

	p.SetVersion(p.Version + 1)
	return nil
}

// ApplyPurchaseInfo overwrites cost/retail/supplier/expiry with the values of
// the latest purchase (last-purchase-wins pricing).
func (r *ProductRepo) ApplyPurchaseInfo(ctx context.Context, productID id.ID, costPrice, retailPrice types.Money, supplierID *id.ID, expiryDate *time.Time) error {
	q := r.builder.Update(productsTable).
		Set("cost_price", costPrice).
		Set("retail_price", retailPrice).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": productID})

	if supplierID != nil {
		q = q.Set("supplier_id", supplierID)
	}
	if expiryDate != nil {
		q = q.Set("expiry_date", expiryDate)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("apply purchase info: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

// SetDeletionMark sets or clears the deletion mark (soft delete).
func (r *ProductRepo) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	q := r.builder.Update(productsTable).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}

// List retrieves products with filtering and pagination.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"brand": pattern},
		})
	}
	if filter.Category != nil {
		q = q.Where(squirrel.Eq{"category": *filter.Category})
	}
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count products: %w", err)
	}

	orderBy := "name ASC"
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
		return result, fmt.Errorf("list products: %w", err)
	}
	return result, nil
}

// ListBelowMinStock returns products at or under their reorder threshold.
func (r *ProductRepo) ListBelowMinStock(ctx context.Context) ([]*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Gt{"min_stock": 0}).
		Where(squirrel.Expr("stock <= min_stock")).
		OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []*product.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("list below min stock: %w", err)
	}
	return products, nil
}

// ExistsByCode checks if a live product with the barcode exists.
func (r *ProductRepo) ExistsByCode(ctx context.Context, barcode string) (bool, error) {
	q := r.builder.Select("1").From(productsTable).
		Where(squirrel.Eq{"code": barcode}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("exists by barcode: %w", err)
	}
	return true, nil
}

var _ product.Repository = (*ProductRepo)(nil)
