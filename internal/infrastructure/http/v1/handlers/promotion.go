package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"balcao/internal/core/id"
	"balcao/internal/domain/promotion"
	"balcao/internal/infrastructure/http/v1/dto"
)

// PromotionHandler serves time-boxed price overrides.
type PromotionHandler struct {
	BaseHandler
	promos *promotion.Service
	loc    *time.Location
}

// NewPromotionHandler creates the promotion handler. loc is the store's
// timezone; nil means server local time.
func NewPromotionHandler(promos *promotion.Service, loc *time.Location) *PromotionHandler {
	return &PromotionHandler{promos: promos, loc: loc}
}

// Create registers a promotion.
func (h *PromotionHandler) Create(c *gin.Context) {
	var req dto.PromotionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	if err := h.promos.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID)
}

// CreateCampaign registers one promotion per product over a shared window.
func (h *PromotionHandler) CreateCampaign(c *gin.Context) {
	var req dto.CampaignRequest
	if !h.BindJSON(c, &req) {
		return
	}

	promos, err := h.promos.CreateCampaign(c.Request.Context(), req.Name, req.StartDate, req.EndDate, req.ToItems())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, promos)
}

// Get returns one promotion.
func (h *PromotionHandler) Get(c *gin.Context) {
	promoID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.promos.GetByID(c.Request.Context(), promoID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Update edits a promotion.
func (h *PromotionHandler) Update(c *gin.Context) {
	promoID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.PromotionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.promos.GetByID(c.Request.Context(), promoID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(p)
	if err := h.promos.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// Delete soft-deletes a promotion.
func (h *PromotionHandler) Delete(c *gin.Context) {
	promoID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.promos.Delete(c.Request.Context(), promoID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// promotionListQuery extends the common list query with promotion filters.
type promotionListQuery struct {
	dto.ListQuery

	ProductID  string `form:"productId"`
	OnlyActive bool   `form:"onlyActive"`
}

// List returns promotions.
func (h *PromotionHandler) List(c *gin.Context) {
	var q promotionListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := promotion.ListFilter{
		ListFilter: q.ToFilter(),
		OnlyActive: q.OnlyActive,
	}
	if q.ProductID != "" {
		productID, err := id.Parse(q.ProductID)
		if err == nil {
			filter.ProductID = &productID
		}
	}

	result, err := h.promos.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// InEffect returns the promotions applying right now, store-local time.
func (h *PromotionHandler) InEffect(c *gin.Context) {
	now := time.Now()
	if h.loc != nil {
		now = now.In(h.loc)
	}

	promos, err := h.promos.InEffect(c.Request.Context(), now)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, promos)
}
