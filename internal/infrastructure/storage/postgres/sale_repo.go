package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain"
	"balcao/internal/domain/costing"
	"balcao/internal/domain/pricing"
	"balcao/internal/domain/sale"
)

const (
	salesTable            = "sales"
	salePaymentsTable     = "sale_payments"
	saleLinesTable        = "sale_lines"
	saleEffectsTable      = "sale_effects"
	saleConsumptionsTable = "sale_consumptions"
)

var saleColumns = []string{
	"id", "deletion_mark", "version",
	"created_at", "updated_at", "created_by", "updated_by",
	"number", "date", "comment",
	"customer_id", "payment_method", "status", "total", "cost_total",
}

// SaleRepo implements sale.Repository. A sale persists as a small graph:
// header, payments, lines, per-line stock effects and per-effect FIFO
// consumptions. The whole graph is written at commit and read back for void
// and return, which reverse at consumption granularity.
type SaleRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewSaleRepo creates a sale repository.
func NewSaleRepo(txManager *TxManager) *SaleRepo {
	return &SaleRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// saleLineRow flattens sale.Line for scanning; the optional discount becomes
// two nullable columns.
type saleLineRow struct {
	LineID            id.ID          `db:"line_id"`
	LineNo            int            `db:"line_no"`
	Kind              sale.LineKind  `db:"kind"`
	ItemID            id.ID          `db:"item_id"`
	Description       string         `db:"description"`
	Quantity          types.Quantity `db:"quantity"`
	StandardUnitPrice types.Money    `db:"standard_unit_price"`
	DiscountKind      *string        `db:"discount_kind"`
	DiscountValue     *types.Money   `db:"discount_value"`
	UnitPrice         types.Money    `db:"unit_price"`
	Total             types.Money    `db:"total"`
	CostTotal         types.Money    `db:"cost_total"`
	ReturnedQty       types.Quantity `db:"returned_qty"`
}

func (row saleLineRow) toLine() sale.Line {
	l := sale.Line{
		LineID:            row.LineID,
		LineNo:            row.LineNo,
		Kind:              row.Kind,
		ItemID:            row.ItemID,
		Description:       row.Description,
		Quantity:          row.Quantity,
		StandardUnitPrice: row.StandardUnitPrice,
		UnitPrice:         row.UnitPrice,
		Total:             row.Total,
		CostTotal:         row.CostTotal,
		ReturnedQty:       row.ReturnedQty,
	}
	if row.DiscountKind != nil && row.DiscountValue != nil {
		l.Discount = &pricing.Discount{
			Kind:  pricing.DiscountKind(*row.DiscountKind),
			Value: *row.DiscountValue,
		}
	}
	return l
}

// Create persists the full sale graph.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	querier := r.txManager.GetQuerier(ctx)

	q := r.builder.Insert(salesTable).
		Columns(saleColumns...).
		Values(
			s.ID, s.DeletionMark, s.Version,
			s.CreatedAt, s.UpdatedAt, s.CreatedBy, s.UpdatedBy,
			s.Number, s.Date, s.Comment,
			s.CustomerID, s.PaymentMethod, s.Status, s.Total, s.CostTotal,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	if err := r.insertPayments(ctx, s); err != nil {
		return err
	}
	return r.insertLines(ctx, s)
}

func (r *SaleRepo) insertPayments(ctx context.Context, s *sale.Sale) error {
	if len(s.Payments) == 0 {
		return nil
	}

	q := r.builder.Insert(salePaymentsTable).
		Columns("sale_id", "ordinal", "method", "amount")
	for i, p := range s.Payments {
		q = q.Values(s.ID, i+1, p.Method, p.Amount)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert payments: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale payments: %w", err)
	}
	return nil
}

func (r *SaleRepo) insertLines(ctx context.Context, s *sale.Sale) error {
	querier := r.txManager.GetQuerier(ctx)

	linesQ := r.builder.Insert(saleLinesTable).
		Columns(
			"line_id", "sale_id", "line_no", "kind", "item_id", "description",
			"quantity", "standard_unit_price", "discount_kind", "discount_value",
			"unit_price", "total", "cost_total", "returned_qty",
		)
	effectsQ := r.builder.Insert(saleEffectsTable).
		Columns("effect_id", "line_id", "product_id", "quantity", "allocated_revenue")
	consumptionsQ := r.builder.Insert(saleConsumptionsTable).
		Columns("effect_id", "ordinal", "batch_id", "quantity", "unit_cost")

	haveEffects := false
	haveConsumptions := false

	for _, l := range s.Lines {
		var discountKind *string
		var discountValue *types.Money
		if l.Discount != nil {
			kind := string(l.Discount.Kind)
			value := l.Discount.Value
			discountKind = &kind
			discountValue = &value
		}

		linesQ = linesQ.Values(
			l.LineID, s.ID, l.LineNo, l.Kind, l.ItemID, l.Description,
			l.Quantity, l.StandardUnitPrice, discountKind, discountValue,
			l.UnitPrice, l.Total, l.CostTotal, l.ReturnedQty,
		)

		for _, e := range l.Effects {
			haveEffects = true
			effectsQ = effectsQ.Values(e.EffectID, l.LineID, e.ProductID, e.Quantity, e.AllocatedRevenue)
			for i, c := range e.Consumptions {
				haveConsumptions = true
				consumptionsQ = consumptionsQ.Values(e.EffectID, i+1, c.BatchID, c.Quantity, c.UnitCost)
			}
		}
	}

	sql, args, err := linesQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale lines: %w", err)
	}

	if haveEffects {
		sql, args, err = effectsQ.ToSql()
		if err != nil {
			return fmt.Errorf("build insert effects: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert sale effects: %w", err)
		}
	}

	if haveConsumptions {
		sql, args, err = consumptionsQ.ToSql()
		if err != nil {
			return fmt.Errorf("build insert consumptions: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert sale consumptions: %w", err)
		}
	}
	return nil
}

// GetByID retrieves the full sale graph.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	q := r.builder.Select(saleColumns...).From(salesTable).
		Where(squirrel.Eq{"id": saleID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sale.Sale
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	if err := r.loadGraph(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SaleRepo) loadGraph(ctx context.Context, s *sale.Sale) error {
	querier := r.txManager.GetQuerier(ctx)

	paymentsSQL, paymentsArgs, err := r.builder.
		Select("method", "amount").
		From(salePaymentsTable).
		Where(squirrel.Eq{"sale_id": s.ID}).
		OrderBy("ordinal").
		ToSql()
	if err != nil {
		return fmt.Errorf("build payments query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &s.Payments, paymentsSQL, paymentsArgs...); err != nil {
		return fmt.Errorf("get sale payments: %w", err)
	}

	linesSQL, linesArgs, err := r.builder.
		Select(
			"line_id", "line_no", "kind", "item_id", "description",
			"quantity", "standard_unit_price", "discount_kind", "discount_value",
			"unit_price", "total", "cost_total", "returned_qty",
		).
		From(saleLinesTable).
		Where(squirrel.Eq{"sale_id": s.ID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}

	var rows []saleLineRow
	if err := pgxscan.Select(ctx, querier, &rows, linesSQL, linesArgs...); err != nil {
		return fmt.Errorf("get sale lines: %w", err)
	}

	s.Lines = make([]sale.Line, 0, len(rows))
	for _, row := range rows {
		line := row.toLine()
		if err := r.loadEffects(ctx, &line); err != nil {
			return err
		}
		s.Lines = append(s.Lines, line)
	}
	return nil
}

func (r *SaleRepo) loadEffects(ctx context.Context, line *sale.Line) error {
	querier := r.txManager.GetQuerier(ctx)

	effectsSQL, effectsArgs, err := r.builder.
		Select("effect_id", "product_id", "quantity", "allocated_revenue").
		From(saleEffectsTable).
		Where(squirrel.Eq{"line_id": line.LineID}).
		OrderBy("effect_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build effects query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &line.Effects, effectsSQL, effectsArgs...); err != nil {
		return fmt.Errorf("get sale effects: %w", err)
	}

	for i := range line.Effects {
		e := &line.Effects[i]

		consSQL, consArgs, err := r.builder.
			Select("batch_id", "quantity", "unit_cost").
			From(saleConsumptionsTable).
			Where(squirrel.Eq{"effect_id": e.EffectID}).
			OrderBy("ordinal").
			ToSql()
		if err != nil {
			return fmt.Errorf("build consumptions query: %w", err)
		}

		var consumptions []costing.Consumption
		if err := pgxscan.Select(ctx, querier, &consumptions, consSQL, consArgs...); err != nil {
			return fmt.Errorf("get sale consumptions: %w", err)
		}
		e.Consumptions = consumptions
	}
	return nil
}

// Update persists status and returned-quantity changes with an optimistic
// version check. Lines are otherwise immutable once committed.
func (r *SaleRepo) Update(ctx context.Context, s *sale.Sale) error {
	querier := r.txManager.GetQuerier(ctx)

	q := r.builder.Update(salesTable).
		Set("status", s.Status).
		Set("comment", s.Comment).
		Set("updated_at", s.UpdatedAt).
		Set("updated_by", s.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": s.ID}).
		Where(squirrel.Eq{"version": s.Version - 1})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("sale", s.ID)
	}

	for _, l := range s.Lines {
		lineSQL, lineArgs, err := r.builder.Update(saleLinesTable).
			Set("returned_qty", l.ReturnedQty).
			Where(squirrel.Eq{"line_id": l.LineID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build line update: %w", err)
		}
		if _, err := querier.Exec(ctx, lineSQL, lineArgs...); err != nil {
			return fmt.Errorf("update sale line: %w", err)
		}
	}
	return nil
}

// List retrieves sale headers. Lines are loaded per sale via GetByID.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	result := domain.ListResult[*sale.Sale]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder.Select(saleColumns...).From(salesTable)

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
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
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count sales: %w", err)
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
		return result, fmt.Errorf("list sales: %w", err)
	}
	return result, nil
}

// NextNumber issues the next sequential sale number.
func (r *SaleRepo) NextNumber(ctx context.Context) (string, error) {
	var n int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, "SELECT nextval('sale_numbers')").Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next sale number: %w", err)
	}
	return fmt.Sprintf("V-%06d", n), nil
}

var _ sale.Repository = (*SaleRepo)(nil)
