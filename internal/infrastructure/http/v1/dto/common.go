// Package dto provides request and response shapes for API v1.
package dto

import (
	"time"

	"balcao/internal/domain"
)

// IDResponse carries the id of a created entity.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse confirms an operation without a payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListQuery contains common list parameters.
type ListQuery struct {
	Search         string `form:"search"`
	IncludeDeleted bool   `form:"includeDeleted"`
	OrderBy        string `form:"orderBy"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
}

// ToFilter converts the query to the shared list filter, applying defaults.
func (q ListQuery) ToFilter() domain.ListFilter {
	f := domain.ListFilter{
		Search:         q.Search,
		IncludeDeleted: q.IncludeDeleted,
		OrderBy:        q.OrderBy,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return f
}

// PeriodQuery is a closed date range for reports.
type PeriodQuery struct {
	From time.Time `form:"from" time_format:"2006-01-02"`
	To   time.Time `form:"to" time_format:"2006-01-02"`
}

// ToPeriod converts the query to a domain period. An empty range defaults to
// the current month.
func (q PeriodQuery) ToPeriod() domain.Period {
	if q.From.IsZero() && q.To.IsZero() {
		now := time.Now()
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return domain.Period{From: from, To: from.AddDate(0, 1, 0).Add(-time.Second)}
	}
	to := q.To
	if to.IsZero() {
		to = time.Now()
	} else {
		// Inclusive end of day.
		to = to.Add(24*time.Hour - time.Second)
	}
	return domain.Period{From: q.From, To: to}
}
