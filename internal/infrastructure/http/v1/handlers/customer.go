package handlers

import (
	"github.com/gin-gonic/gin"

	"balcao/internal/domain/catalog/customer"
	"balcao/internal/infrastructure/http/v1/dto"
)

// CustomerHandler serves the fiado customer register.
type CustomerHandler struct {
	BaseHandler
	customers *customer.Service
}

// NewCustomerHandler creates the customer handler.
func NewCustomerHandler(customers *customer.Service) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// Create registers a customer.
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust := req.ToEntity()
	if err := h.customers.Create(c.Request.Context(), cust); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, cust.ID)
}

// Get returns one customer.
func (h *CustomerHandler) Get(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	cust, err := h.customers.GetByID(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cust)
}

// Update edits a customer. Debt balance moves only through sales and payments.
func (h *CustomerHandler) Update(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust, err := h.customers.GetByID(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(cust)
	if err := h.customers.Update(c.Request.Context(), cust); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cust)
}

// List returns customers.
func (h *CustomerHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.customers.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// PayDebt records a fiado payment and returns the remaining balance.
func (h *CustomerHandler) PayDebt(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.PayDebtRequest
	if !h.BindJSON(c, &req) {
		return
	}

	remaining, err := h.customers.PayDebt(c.Request.Context(), customerID, req.Amount, req.Method)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"remainingDebt": remaining})
}
