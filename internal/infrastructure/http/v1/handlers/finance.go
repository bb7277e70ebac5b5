package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"balcao/internal/domain/costing"
	"balcao/internal/domain/finance"
	"balcao/internal/infrastructure/http/v1/dto"
)

// FinanceHandler serves the cashbook: manual entries, settlement, reports.
type FinanceHandler struct {
	BaseHandler
	books *finance.Service
	costs *costing.Service
}

// NewFinanceHandler creates the finance handler.
func NewFinanceHandler(books *finance.Service, costs *costing.Service) *FinanceHandler {
	return &FinanceHandler{books: books, costs: costs}
}

// AddIncome records a manual income entry.
func (h *FinanceHandler) AddIncome(c *gin.Context) {
	var req dto.TransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t := req.ToEntity(finance.TypeIncome)
	if err := h.books.AddIncome(c.Request.Context(), t); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, t.ID)
}

// AddExpense records a manual expense entry.
func (h *FinanceHandler) AddExpense(c *gin.Context) {
	var req dto.TransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t := req.ToEntity(finance.TypeExpense)
	if err := h.books.AddExpense(c.Request.Context(), t); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, t.ID)
}

// Settle marks a pending transaction as paid.
func (h *FinanceHandler) Settle(c *gin.Context) {
	txID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	t, err := h.books.Settle(c.Request.Context(), txID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Get returns one transaction with its items.
func (h *FinanceHandler) Get(c *gin.Context) {
	txID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	t, err := h.books.GetByID(c.Request.Context(), txID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// transactionListQuery extends the common list query with cashbook filters.
type transactionListQuery struct {
	dto.ListQuery

	Type     string     `form:"type"`
	Status   string     `form:"status"`
	Category string     `form:"category"`
	FromDate *time.Time `form:"from" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"to" time_format:"2006-01-02"`
}

// List returns transactions.
func (h *FinanceHandler) List(c *gin.Context) {
	var q transactionListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := finance.ListFilter{
		ListFilter: q.ToFilter(),
		Category:   q.Category,
		FromDate:   q.FromDate,
		ToDate:     q.ToDate,
	}
	if q.Type != "" {
		txType := finance.TransactionType(q.Type)
		filter.Type = &txType
	}
	if q.Status != "" {
		status := finance.TransactionStatus(q.Status)
		filter.Status = &status
	}

	result, err := h.books.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Summary totals paid income and expense over a period.
func (h *FinanceHandler) Summary(c *gin.Context) {
	var q dto.PeriodQuery
	if !h.BindQuery(c, &q) {
		return
	}

	summary, err := h.books.Summarize(c.Request.Context(), q.ToPeriod())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// Valuation reports the cost value of stock on hand, per product, from the
// open purchase batches.
func (h *FinanceHandler) Valuation(c *gin.Context) {
	valuation, err := h.costs.Valuation(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, valuation)
}
