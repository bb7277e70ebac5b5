package dto

import (
	"time"

	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain/catalog/customer"
	"balcao/internal/domain/catalog/kit"
	"balcao/internal/domain/catalog/product"
	"balcao/internal/domain/catalog/supplier"
)

// --- Products ---

// CreateProductRequest is the request body for registering a product.
type CreateProductRequest struct {
	Code            string         `json:"code" binding:"required"`
	Name            string         `json:"name" binding:"required"`
	Unit            product.Unit   `json:"unit" binding:"required"`
	Category        string         `json:"category"`
	Subcategory     string         `json:"subcategory"`
	Brand           string         `json:"brand"`
	SupplierID      *id.ID         `json:"supplierId"`
	CostPrice       types.Money    `json:"costPrice"`
	RetailPrice     types.Money    `json:"retailPrice"`
	WholesalePrice  types.Money    `json:"wholesalePrice"`
	WholesaleMinQty types.Quantity `json:"wholesaleMinQty"`
	Stock           types.Quantity `json:"stock"`
	MinStock        types.Quantity `json:"minStock"`
	ExpiryDate      *time.Time     `json:"expiryDate"`
}

// ToEntity converts the request to a Product.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.New(r.Code, r.Name, r.Unit)
	p.Category = r.Category
	p.Subcategory = r.Subcategory
	p.Brand = r.Brand
	p.SupplierID = r.SupplierID
	p.CostPrice = r.CostPrice
	p.RetailPrice = r.RetailPrice
	p.WholesalePrice = r.WholesalePrice
	p.WholesaleMinQty = r.WholesaleMinQty
	p.Stock = r.Stock
	p.MinStock = r.MinStock
	p.ExpiryDate = r.ExpiryDate
	return p
}

// UpdateProductRequest is the request body for editing a product.
type UpdateProductRequest struct {
	Code            string         `json:"code" binding:"required"`
	Name            string         `json:"name" binding:"required"`
	Unit            product.Unit   `json:"unit" binding:"required"`
	Category        string         `json:"category"`
	Subcategory     string         `json:"subcategory"`
	Brand           string         `json:"brand"`
	SupplierID      *id.ID         `json:"supplierId"`
	CostPrice       types.Money    `json:"costPrice"`
	RetailPrice     types.Money    `json:"retailPrice"`
	WholesalePrice  types.Money    `json:"wholesalePrice"`
	WholesaleMinQty types.Quantity `json:"wholesaleMinQty"`
	Stock           types.Quantity `json:"stock"`
	MinStock        types.Quantity `json:"minStock"`
	ExpiryDate      *time.Time     `json:"expiryDate"`
	Version         int            `json:"version" binding:"required"`
}

// ApplyTo applies the update to an existing product.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Code = r.Code
	p.Name = r.Name
	p.Unit = r.Unit
	p.Category = r.Category
	p.Subcategory = r.Subcategory
	p.Brand = r.Brand
	p.SupplierID = r.SupplierID
	p.CostPrice = r.CostPrice
	p.RetailPrice = r.RetailPrice
	p.WholesalePrice = r.WholesalePrice
	p.WholesaleMinQty = r.WholesaleMinQty
	p.Stock = r.Stock
	p.MinStock = r.MinStock
	p.ExpiryDate = r.ExpiryDate
	p.Version = r.Version
}

// AdjustStockRequest sets a product's stock to an absolute counted value.
type AdjustStockRequest struct {
	NewStock types.Quantity `json:"newStock"`
	Reason   string         `json:"reason" binding:"required"`
}

// --- Customers ---

// CreateCustomerRequest is the request body for registering a fiado customer.
type CreateCustomerRequest struct {
	Name        string      `json:"name" binding:"required"`
	Document    string      `json:"document"`
	Phone       string      `json:"phone"`
	CreditLimit types.Money `json:"creditLimit"`
}

// ToEntity converts the request to a Customer.
func (r *CreateCustomerRequest) ToEntity() *customer.Customer {
	c := customer.New(r.Name, r.CreditLimit)
	c.Document = r.Document
	c.Phone = r.Phone
	return c
}

// UpdateCustomerRequest is the request body for editing a customer. The debt
// balance is not editable here; it moves only through sales and payments.
type UpdateCustomerRequest struct {
	Name        string      `json:"name" binding:"required"`
	Document    string      `json:"document"`
	Phone       string      `json:"phone"`
	CreditLimit types.Money `json:"creditLimit"`
	Version     int         `json:"version" binding:"required"`
}

// ApplyTo applies the update to an existing customer.
func (r *UpdateCustomerRequest) ApplyTo(c *customer.Customer) {
	c.Name = r.Name
	c.Document = r.Document
	c.Phone = r.Phone
	c.CreditLimit = r.CreditLimit
	c.Version = r.Version
}

// PayDebtRequest records a fiado payment.
type PayDebtRequest struct {
	Amount types.Money `json:"amount" binding:"required"`
	Method string      `json:"method" binding:"required"`
}

// --- Suppliers ---

// SupplierRequest is the request body for creating or editing a supplier.
type SupplierRequest struct {
	Name     string `json:"name" binding:"required"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Version  int    `json:"version"`
}

// ToEntity converts the request to a Supplier.
func (r *SupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.New(r.Name)
	s.Document = r.Document
	s.Phone = r.Phone
	s.Email = r.Email
	return s
}

// ApplyTo applies the update to an existing supplier.
func (r *SupplierRequest) ApplyTo(s *supplier.Supplier) {
	s.Name = r.Name
	s.Document = r.Document
	s.Phone = r.Phone
	s.Email = r.Email
	if r.Version > 0 {
		s.Version = r.Version
	}
}

// --- Kits ---

// KitComponentRequest is one component line of a kit.
type KitComponentRequest struct {
	ProductID id.ID          `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
}

// KitRequest is the request body for creating or editing a kit.
type KitRequest struct {
	Code       string                `json:"code" binding:"required"`
	Name       string                `json:"name" binding:"required"`
	Price      types.Money           `json:"price"`
	Active     bool                  `json:"active"`
	Components []KitComponentRequest `json:"components" binding:"required"`
	Version    int                   `json:"version"`
}

// ToEntity converts the request to a Kit.
func (r *KitRequest) ToEntity() *kit.Kit {
	k := kit.New(r.Code, r.Name, r.Price)
	k.Active = r.Active
	for i, c := range r.Components {
		k.Components = append(k.Components, kit.Component{
			LineID:    id.New(),
			LineNo:    i + 1,
			ProductID: c.ProductID,
			Quantity:  c.Quantity,
		})
	}
	return k
}

// ApplyTo applies the update to an existing kit. Components are replaced
// wholesale.
func (r *KitRequest) ApplyTo(k *kit.Kit) {
	k.Code = r.Code
	k.Name = r.Name
	k.Price = r.Price
	k.Active = r.Active
	if r.Version > 0 {
		k.Version = r.Version
	}
	k.Components = k.Components[:0]
	for i, c := range r.Components {
		k.Components = append(k.Components, kit.Component{
			LineID:    id.New(),
			LineNo:    i + 1,
			ProductID: c.ProductID,
			Quantity:  c.Quantity,
		})
	}
}
