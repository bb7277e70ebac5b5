package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"balcao/internal/core/entity"
	"balcao/internal/core/id"
	"balcao/internal/domain/catalog/product"
	"balcao/internal/domain/inventory"
	"balcao/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product catalog and its stock views.
type ProductHandler struct {
	BaseHandler
	products *product.Service
	ledger   *inventory.Service
}

// NewProductHandler creates the product handler.
func NewProductHandler(products *product.Service, ledger *inventory.Service) *ProductHandler {
	return &ProductHandler{products: products, ledger: ledger}
}

// Create registers a product.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	if err := h.products.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID)
}

// Get returns one product.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.products.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// GetByBarcode looks a product up by its till barcode.
func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	p, err := h.products.GetByCode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Update edits a product. A stock change here goes through the ledger, which
// synthesizes the matching movement.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.products.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(p)
	if err := h.products.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// Delete soft-deletes a product. Historical sales keep referencing it.
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.products.Delete(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// productListQuery extends the common list query with product filters.
type productListQuery struct {
	dto.ListQuery

	Category   string `form:"category"`
	SupplierID string `form:"supplierId"`
}

// List returns products.
func (h *ProductHandler) List(c *gin.Context) {
	var q productListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := product.ListFilter{ListFilter: q.ToFilter()}
	if q.Category != "" {
		filter.Category = &q.Category
	}
	if q.SupplierID != "" {
		supplierID, err := id.Parse(q.SupplierID)
		if err == nil {
			filter.SupplierID = &supplierID
		}
	}

	result, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// LowStock returns products at or under their reorder threshold.
func (h *ProductHandler) LowStock(c *gin.Context) {
	products, err := h.products.ListBelowMinStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, products)
}

// movementQuery filters the movement history.
type movementQuery struct {
	Type     string     `form:"type"`
	FromDate *time.Time `form:"from" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"to" time_format:"2006-01-02"`
	Limit    int        `form:"limit"`
	Offset   int        `form:"offset"`
}

// Movements returns a product's stock movement history.
func (h *ProductHandler) Movements(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var q movementQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := inventory.MovementFilter{
		FromDate: q.FromDate,
		ToDate:   q.ToDate,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.Type != "" {
		mt := entity.MovementType(q.Type)
		filter.Type = &mt
	}

	movements, err := h.ledger.History(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, movements)
}

// Reconcile compares a product's stock against its movement history.
func (h *ProductHandler) Reconcile(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	report, err := h.ledger.Reconcile(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// AdjustStock sets a product's stock to a counted absolute value.
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	newStock, err := h.ledger.AdjustTo(c.Request.Context(), productID, req.NewStock, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"stock": newStock})
}
