package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/domain/purchase"
	"balcao/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler serves stock entry documents.
type PurchaseHandler struct {
	BaseHandler
	purchases *purchase.Service
}

// NewPurchaseHandler creates the purchase handler.
func NewPurchaseHandler(purchases *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// Commit records a stock entry with its installment schedule.
func (h *PurchaseHandler) Commit(c *gin.Context) {
	var in purchase.CommitInput
	if !h.BindJSON(c, &in) {
		return
	}

	doc, err := h.purchases.Commit(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// Cancel reverses a stock entry.
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.purchases.Cancel(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Get returns the full purchase graph.
func (h *PurchaseHandler) Get(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.purchases.GetByID(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// purchaseListQuery extends the common list query with purchase filters.
type purchaseListQuery struct {
	dto.ListQuery

	SupplierID string     `form:"supplierId"`
	EntryType  string     `form:"entryType"`
	Status     string     `form:"status"`
	FromDate   *time.Time `form:"from" time_format:"2006-01-02"`
	ToDate     *time.Time `form:"to" time_format:"2006-01-02"`
}

// List returns purchase headers.
func (h *PurchaseHandler) List(c *gin.Context) {
	var q purchaseListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := purchase.ListFilter{
		ListFilter: q.ToFilter(),
		FromDate:   q.FromDate,
		ToDate:     q.ToDate,
	}
	if q.SupplierID != "" {
		supplierID, err := id.Parse(q.SupplierID)
		if err == nil {
			filter.SupplierID = &supplierID
		}
	}
	if q.EntryType != "" {
		entryType := purchase.EntryType(q.EntryType)
		filter.EntryType = &entryType
	}
	if q.Status != "" {
		status := purchase.Status(q.Status)
		filter.Status = &status
	}

	result, err := h.purchases.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// suggestRetailQuery carries the inputs of a retail price suggestion.
type suggestRetailQuery struct {
	Cost     string `form:"cost" binding:"required"`
	Category string `form:"category"`
}

// SuggestRetail computes a retail price from a unit cost and the category
// markup table.
func (h *PurchaseHandler) SuggestRetail(c *gin.Context) {
	var q suggestRetailQuery
	if !h.BindQuery(c, &q) {
		return
	}

	cost, err := decimal.NewFromString(q.Cost)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid cost").WithDetail("cost", q.Cost))
		return
	}

	h.OK(c, gin.H{"retailPrice": h.purchases.SuggestRetail(cost, q.Category)})
}
