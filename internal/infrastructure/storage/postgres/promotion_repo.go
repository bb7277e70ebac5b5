package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/domain"
	"balcao/internal/domain/promotion"
)

const promotionsTable = "promotions"

var promotionColumns = []string{
	"id", "deletion_mark", "version", "name", "product_id",
	"promotional_price", "start_date", "end_date", "active",
}

// PromotionRepo implements promotion.Repository.
type PromotionRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewPromotionRepo creates a promotion repository.
func NewPromotionRepo(txManager *TxManager) *PromotionRepo {
	return &PromotionRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PromotionRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(promotionColumns...).From(promotionsTable)
}

// Create inserts a promotion.
func (r *PromotionRepo) Create(ctx context.Context, p *promotion.Promotion) error {
	q := r.builder.Insert(promotionsTable).
		Columns(promotionColumns...).
		Values(
			p.ID, p.DeletionMark, p.Version, p.Name, p.ProductID,
			p.PromotionalPrice, p.StartDate, p.EndDate, p.Active,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert promotion: %w", err)
	}
	return nil
}

// GetByID retrieves a promotion.
func (r *PromotionRepo) GetByID(ctx context.Context, promoID id.ID) (*promotion.Promotion, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": promoID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p promotion.Promotion
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("promotion", promoID.String())
		}
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	return &p, nil
}

// Update modifies a promotion with optimistic locking.
func (r *PromotionRepo) Update(ctx context.Context, p *promotion.Promotion) error {
	q := r.builder.Update(promotionsTable).
		Set("name", p.Name).
		Set("product_id", p.ProductID).
		Set("promotional_price", p.PromotionalPrice).
		Set("start_date", p.StartDate).
		Set("end_date", p.EndDate).
		Set("active", p.Active).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update promotion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("promotion", p.ID)
	}

	p.SetVersion(p.Version + 1)
	return nil
}

// Delete removes a promotion. Historical sale lines carry their own price
// snapshot, so hard delete is safe here.
func (r *PromotionRepo) Delete(ctx context.Context, promoID id.ID) error {
	q := r.builder.Delete(promotionsTable).Where(squirrel.Eq{"id": promoID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("promotion", promoID.String())
	}
	return nil
}

// List retrieves promotions.
func (r *PromotionRepo) List(ctx context.Context, filter promotion.ListFilter) (domain.ListResult[*promotion.Promotion], error) {
	result := domain.ListResult[*promotion.Promotion]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.OnlyActive {
		q = q.Where(squirrel.Eq{"active": true})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count promotions: %w", err)
	}

	orderBy := "start_date DESC"
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
		return result, fmt.Errorf("list promotions: %w", err)
	}
	return result, nil
}

// ListInEffect returns active promotions whose inclusive date range covers the
// calendar date of day. Only the date component participates.
func (r *PromotionRepo) ListInEffect(ctx context.Context, day time.Time) ([]*promotion.Promotion, error) {
	// The caller already converted day to the store's time zone; only its
	// calendar date crosses the wire, so the server zone cannot shift it.
	date := day.Format("2006-01-02")

	q := r.baseSelect().
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Expr("start_date::date <= ?::date", date)).
		Where(squirrel.Expr("end_date::date >= ?::date", date)).
		OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var promos []*promotion.Promotion
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &promos, sql, args...); err != nil {
		return nil, fmt.Errorf("list promotions in effect: %w", err)
	}
	return promos, nil
}

var _ promotion.Repository = (*PromotionRepo)(nil)
