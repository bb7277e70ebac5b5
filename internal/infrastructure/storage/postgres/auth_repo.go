package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/domain/auth"
)

const usersTable = "users"

var userColumns = []string{
	"id", "username", "name", "password_hash", "role", "is_active",
	"failed_login_attempts", "locked_until", "last_login_at",
	"created_at", "updated_at", "version",
}

// UserRepo implements auth.Repository.
type UserRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewUserRepo creates a user repository.
func NewUserRepo(txManager *TxManager) *UserRepo {
	return &UserRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *UserRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(userColumns...).From(usersTable)
}

// Create inserts a user.
func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	q := r.builder.Insert(usersTable).
		Columns(userColumns...).
		Values(
			u.ID, u.Username, u.Name, u.PasswordHash, u.Role, u.IsActive,
			u.FailedLoginAttempts, u.LockedUntil, u.LastLoginAt,
			u.CreatedAt, u.UpdatedAt, u.Version,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("user", "username", u.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": userID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var u auth.User
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &u, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetByUsername retrieves a user by login name.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	q := r.baseSelect().Where(squirrel.Eq{"username": username}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var u auth.User
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &u, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", username)
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

// Update persists the user, including lockout counters.
func (r *UserRepo) Update(ctx context.Context, u *auth.User) error {
	q := r.builder.Update(usersTable).
		Set("name", u.Name).
		Set("password_hash", u.PasswordHash).
		Set("role", u.Role).
		Set("is_active", u.IsActive).
		Set("failed_login_attempts", u.FailedLoginAttempts).
		Set("locked_until", u.LockedUntil).
		Set("last_login_at", u.LastLoginAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": u.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", u.ID.String())
	}
	return nil
}

// List retrieves all users ordered by username.
func (r *UserRepo) List(ctx context.Context) ([]*auth.User, error) {
	q := r.baseSelect().OrderBy("username ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var users []*auth.User
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &users, sql, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

var _ auth.Repository = (*UserRepo)(nil)
