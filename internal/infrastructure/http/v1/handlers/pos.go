package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"balcao/internal/core/id"
	"balcao/internal/domain/sale"
	"balcao/internal/infrastructure/http/v1/dto"
)

// POSHandler serves the point-of-sale flow: checkout, void and return.
type POSHandler struct {
	BaseHandler
	sales *sale.Service
}

// NewPOSHandler creates the POS handler.
func NewPOSHandler(sales *sale.Service) *POSHandler {
	return &POSHandler{sales: sales}
}

// Checkout commits a cart as a sale.
func (h *POSHandler) Checkout(c *gin.Context) {
	var in sale.CommitInput
	if !h.BindJSON(c, &in) {
		return
	}

	doc, err := h.sales.Commit(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// Void reverses a whole sale.
func (h *POSHandler) Void(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.sales.Void(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Return reverses part of a sale at line granularity.
func (h *POSHandler) Return(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var items []sale.ReturnItem
	if !h.BindJSON(c, &items) {
		return
	}

	refund, err := h.sales.Return(c.Request.Context(), saleID, items)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"refund": refund})
}

// Get returns the full sale graph.
func (h *POSHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.sales.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// saleListQuery extends the common list query with sale filters.
type saleListQuery struct {
	dto.ListQuery

	CustomerID string     `form:"customerId"`
	Status     string     `form:"status"`
	FromDate   *time.Time `form:"from" time_format:"2006-01-02"`
	ToDate     *time.Time `form:"to" time_format:"2006-01-02"`
}

// List returns sale headers.
func (h *POSHandler) List(c *gin.Context) {
	var q saleListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := sale.ListFilter{
		ListFilter: q.ToFilter(),
		FromDate:   q.FromDate,
		ToDate:     q.ToDate,
	}
	if q.CustomerID != "" {
		customerID, err := id.Parse(q.CustomerID)
		if err == nil {
			filter.CustomerID = &customerID
		}
	}
	if q.Status != "" {
		status := sale.Status(q.Status)
		filter.Status = &status
	}

	result, err := h.sales.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}
