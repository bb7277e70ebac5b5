package handlers

import (
	"github.com/gin-gonic/gin"

	"balcao/internal/domain/catalog/kit"
	"balcao/internal/infrastructure/http/v1/dto"
)

// KitHandler serves the bundled-product catalog.
type KitHandler struct {
	BaseHandler
	kits *kit.Service
}

// NewKitHandler creates the kit handler.
func NewKitHandler(kits *kit.Service) *KitHandler {
	return &KitHandler{kits: kits}
}

// Create registers a kit with its component lines.
func (h *KitHandler) Create(c *gin.Context) {
	var req dto.KitRequest
	if !h.BindJSON(c, &req) {
		return
	}

	k := req.ToEntity()
	if err := h.kits.Create(c.Request.Context(), k); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, k.ID)
}

// Get returns one kit with its components.
func (h *KitHandler) Get(c *gin.Context) {
	kitID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	k, err := h.kits.GetByID(c.Request.Context(), kitID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, k)
}

// GetByBarcode looks a kit up by its till barcode.
func (h *KitHandler) GetByBarcode(c *gin.Context) {
	k, err := h.kits.GetByCode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, k)
}

// Update edits a kit, replacing its component lines.
func (h *KitHandler) Update(c *gin.Context) {
	kitID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.KitRequest
	if !h.BindJSON(c, &req) {
		return
	}

	k, err := h.kits.GetByID(c.Request.Context(), kitID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(k)
	if err := h.kits.Update(c.Request.Context(), k); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, k)
}

// Delete soft-deletes a kit.
func (h *KitHandler) Delete(c *gin.Context) {
	kitID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.kits.Delete(c.Request.Context(), kitID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List returns kits.
func (h *KitHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.kits.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Availability reports how many units of the kit current stock can assemble.
func (h *KitHandler) Availability(c *gin.Context) {
	kitID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	available, err := h.kits.Availability(c.Request.Context(), kitID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"available": available})
}
