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
	"balcao/internal/domain/catalog/customer"
)

const customersTable = "customers"

var customerColumns = []string{
	"id", "deletion_mark", "version", "code", "name",
	"document", "phone", "credit_limit", "debt_balance",
}

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewCustomerRepo creates a customer repository.
func NewCustomerRepo(txManager *TxManager) *CustomerRepo {
	return &CustomerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CustomerRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(customerColumns...).From(customersTable)
}

// Create inserts a customer.
func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	q := r.builder.Insert(customersTable).
		Columns(customerColumns...).
		Values(
			c.ID, c.DeletionMark, c.Version, c.Code, c.Name,
			c.Document, c.Phone, c.CreditLimit, c.DebtBalance,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID retrieves a customer.
func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": customerID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c customer.Customer
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("customer", customerID.String())
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// Update modifies catalog fields with optimistic locking. The debt balance is
// deliberately absent from the SET list: it belongs to Charge/Credit.
func (r *CustomerRepo) Update(ctx context.Context, c *customer.Customer) error {
	q := r.builder.Update(customersTable).
		Set("name", c.Name).
		Set("document", c.Document).
		Set("phone", c.Phone).
		Set("credit_limit", c.CreditLimit).
		Set("deletion_mark", c.DeletionMark).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": c.ID}).
		Where(squirrel.Eq{"version": c.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("customer", c.ID)
	}

	c.SetVersion(c.Version + 1)
	return nil
}

// SetDeletionMark sets or clears the deletion mark.
func (r *CustomerRepo) SetDeletionMark(ctx context.Context, customerID id.ID, marked bool) error {
	q := r.builder.Update(customersTable).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": customerID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("customer", customerID.String())
	}
	return nil
}

// List retrieves customers.
func (r *CustomerRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*customer.Customer], error) {
	result := domain.ListResult[*customer.Customer]{
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
			squirrel.ILike{"phone": pattern},
		})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count customers: %w", err)
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
		return result, fmt.Errorf("list customers: %w", err)
	}
	return result, nil
}

// Charge increases the debt iff the credit limit still holds. The condition
// and the write are one statement: a concurrent charge that lands first makes
// this one fail instead of both slipping past the limit.
func (r *CustomerRepo) Charge(ctx context.Context, customerID id.ID, amount types.Money) (types.Money, error) {
	const sql = `
		UPDATE customers
		SET debt_balance = debt_balance + $1
		WHERE id = $2 AND debt_balance + $1 <= credit_limit
		RETURNING debt_balance
	`

	querier := r.txManager.GetQuerier(ctx)

	var balance types.Money
	err := querier.QueryRow(ctx, sql, amount, customerID).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if err != pgx.ErrNoRows {
		return types.ZeroMoney(), fmt.Errorf("charge customer: %w", err)
	}

	c, getErr := r.GetByID(ctx, customerID)
	if getErr != nil {
		return types.ZeroMoney(), getErr
	}
	return types.ZeroMoney(), apperror.NewCreditLimitExceeded(customerID.String(), c.AvailableCredit())
}

// Credit reduces the debt, floored at zero.
func (r *CustomerRepo) Credit(ctx context.Context, customerID id.ID, amount types.Money) (types.Money, error) {
	const sql = `
		UPDATE customers
		SET debt_balance = GREATEST(debt_balance - $1, 0)
		WHERE id = $2
		RETURNING debt_balance
	`

	var balance types.Money
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, amount, customerID).Scan(&balance)
	if err == pgx.ErrNoRows {
		return types.ZeroMoney(), apperror.NewNotFound("customer", customerID.String())
	}
	if err != nil {
		return types.ZeroMoney(), fmt.Errorf("credit customer: %w", err)
	}
	return balance, nil
}

var _ customer.Repository = (*CustomerRepo)(nil)
