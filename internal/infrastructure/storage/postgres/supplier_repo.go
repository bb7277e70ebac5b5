package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/domain"
	"balcao/internal/domain/catalog/supplier"
)

const suppliersTable = "suppliers"

var supplierColumns = []string{
	"id", "deletion_mark", "version", "code", "name",
	"document", "phone", "email",
}

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewSupplierRepo creates a supplier repository.
func NewSupplierRepo(txManager *TxManager) *SupplierRepo {
	return &SupplierRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SupplierRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(supplierColumns...).From(suppliersTable)
}

// Create inserts a supplier.
func (r *SupplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	q := r.builder.Insert(suppliersTable).
		Columns(supplierColumns...).
		Values(
			s.ID, s.DeletionMark, s.Version, s.Code, s.Name,
			s.Document, s.Phone, s.Email,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

// GetByID retrieves a supplier.
func (r *SupplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": supplierID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s supplier.Supplier
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("supplier", supplierID.String())
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return &s, nil
}

// GetByName matches case-insensitively on the trimmed name. Purchase entry
// relies on this for auto-registration.
func (r *SupplierRepo) GetByName(ctx context.Context, name string) (*supplier.Supplier, error) {
	q := r.baseSelect().
		Where(squirrel.Expr("LOWER(TRIM(name)) = LOWER(?)", strings.TrimSpace(name))).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s supplier.Supplier
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("supplier", name)
		}
		return nil, fmt.Errorf("get supplier by name: %w", err)
	}
	return &s, nil
}

// Update modifies a supplier with optimistic locking.
func (r *SupplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	q := r.builder.Update(suppliersTable).
		Set("name", s.Name).
		Set("document", s.Document).
		Set("phone", s.Phone).
		Set("email", s.Email).
		Set("deletion_mark", s.DeletionMark).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": s.ID}).
		Where(squirrel.Eq{"version": s.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("supplier", s.ID)
	}

	s.SetVersion(s.Version + 1)
	return nil
}

// SetDeletionMark sets or clears the deletion mark.
func (r *SupplierRepo) SetDeletionMark(ctx context.Context, supplierID id.ID, marked bool) error {
	q := r.builder.Update(suppliersTable).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": supplierID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("supplier", supplierID.String())
	}
	return nil
}

// List retrieves suppliers.
func (r *SupplierRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	result := domain.ListResult[*supplier.Supplier]{
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
			squirrel.ILike{"document": pattern},
		})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count suppliers: %w", err)
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
		return result, fmt.Errorf("list suppliers: %w", err)
	}
	return result, nil
}

var _ supplier.Repository = (*SupplierRepo)(nil)
