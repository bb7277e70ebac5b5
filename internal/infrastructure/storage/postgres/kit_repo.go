package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/domain"
	"balcao/internal/domain/catalog/kit"
)

const (
	kitsTable          = "kits"
	kitComponentsTable = "kit_components"
)

var kitColumns = []string{
	"id", "deletion_mark", "version", "code", "name",
	"price", "unit", "active",
}

// KitRepo implements kit.Repository.
type KitRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewKitRepo creates a kit repository.
func NewKitRepo(txManager *TxManager) *KitRepo {
	return &KitRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *KitRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(kitColumns...).From(kitsTable)
}

// Create inserts a kit header. Components go through SaveComponents.
func (r *KitRepo) Create(ctx context.Context, k *kit.Kit) error {
	q := r.builder.Insert(kitsTable).
		Columns(kitColumns...).
		Values(
			k.ID, k.DeletionMark, k.Version, k.Code, k.Name,
			k.Price, k.Unit, k.Active,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert kit: %w", err)
	}
	return nil
}

// GetByID retrieves a kit header.
func (r *KitRepo) GetByID(ctx context.Context, kitID id.ID) (*kit.Kit, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": kitID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var k kit.Kit
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &k, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("kit", kitID.String())
		}
		return nil, fmt.Errorf("get kit: %w", err)
	}
	return &k, nil
}

// GetByCode retrieves a kit by virtual barcode.
func (r *KitRepo) GetByCode(ctx context.Context, code string) (*kit.Kit, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var k kit.Kit
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &k, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("kit", code)
		}
		return nil, fmt.Errorf("get kit by barcode: %w", err)
	}
	return &k, nil
}

// Update modifies a kit header with optimistic locking.
func (r *KitRepo) Update(ctx context.Context, k *kit.Kit) error {
	q := r.builder.Update(kitsTable).
		Set("code", k.Code).
		Set("name", k.Name).
		Set("price", k.Price).
		Set("unit", k.Unit).
		Set("active", k.Active).
		Set("deletion_mark", k.DeletionMark).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": k.ID}).
		Where(squirrel.Eq{"version": k.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update kit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("kit", k.ID)
	}

	k.SetVersion(k.Version + 1)
	return nil
}

// SaveComponents replaces the kit's component list (delete + insert).
func (r *KitRepo) SaveComponents(ctx context.Context, kitID id.ID, components []kit.Component) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+kitComponentsTable+" WHERE kit_id = $1", kitID); err != nil {
		return fmt.Errorf("delete existing components: %w", err)
	}

	if len(components) == 0 {
		return nil
	}

	q := r.builder.Insert(kitComponentsTable).
		Columns("line_id", "kit_id", "line_no", "product_id", "quantity")
	for _, c := range components {
		q = q.Values(c.LineID, kitID, c.LineNo, c.ProductID, c.Quantity)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert components: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert components: %w", err)
	}
	return nil
}

// GetComponents retrieves the kit's components in line order.
func (r *KitRepo) GetComponents(ctx context.Context, kitID id.ID) ([]kit.Component, error) {
	q := r.builder.Select("line_id", "line_no", "product_id", "quantity").
		From(kitComponentsTable).
		Where(squirrel.Eq{"kit_id": kitID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var components []kit.Component
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &components, sql, args...); err != nil {
		return nil, fmt.Errorf("get components: %w", err)
	}
	return components, nil
}

// SetDeletionMark sets or clears the deletion mark.
func (r *KitRepo) SetDeletionMark(ctx context.Context, kitID id.ID, marked bool) error {
	q := r.builder.Update(kitsTable).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": kitID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("kit", kitID.String())
	}
	return nil
}

// List retrieves kit headers.
func (r *KitRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*kit.Kit], error) {
	result := domain.ListResult[*kit.Kit]{
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
		})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count kits: %w", err)
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
		return result, fmt.Errorf("list kits: %w", err)
	}
	return result, nil
}

// ExistsByCode checks if a live kit with the barcode exists.
func (r *KitRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	q := r.builder.Select("1").From(kitsTable).
		Where(squirrel.Eq{"code": code}).
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

var _ kit.Repository = (*KitRepo)(nil)
