package handlers

import (
	"github.com/gin-gonic/gin"

	"balcao/internal/domain/catalog/supplier"
	"balcao/internal/infrastructure/http/v1/dto"
)

// SupplierHandler serves the supplier register.
type SupplierHandler struct {
	BaseHandler
	suppliers *supplier.Service
}

// NewSupplierHandler creates the supplier handler.
func NewSupplierHandler(suppliers *supplier.Service) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers}
}

// Create registers a supplier.
func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s := req.ToEntity()
	if err := h.suppliers.Create(c.Request.Context(), s); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, s.ID)
}

// Get returns one supplier.
func (h *SupplierHandler) Get(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	s, err := h.suppliers.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Update edits a supplier.
func (h *SupplierHandler) Update(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.suppliers.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(s)
	if err := h.suppliers.Update(c.Request.Context(), s); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, s)
}

// List returns suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.suppliers.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
