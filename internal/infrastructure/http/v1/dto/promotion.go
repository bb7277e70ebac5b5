package dto

import (
	"time"

	"balcao/internal/core/id"
	"balcao/internal/core/types"
	"balcao/internal/domain/promotion"
)

// PromotionRequest is the request body for creating or editing a promotion.
type PromotionRequest struct {
	Name             string      `json:"name" binding:"required"`
	ProductID        id.ID       `json:"productId" binding:"required"`
	PromotionalPrice types.Money `json:"promotionalPrice" binding:"required"`
	StartDate        time.Time   `json:"startDate" binding:"required"`
	EndDate          time.Time   `json:"endDate" binding:"required"`
	Active           bool        `json:"active"`
	Version          int         `json:"version"`
}

// ToEntity converts the request to a Promotion.
func (r *PromotionRequest) ToEntity() *promotion.Promotion {
	p := promotion.New(r.Name, r.ProductID, r.PromotionalPrice, r.StartDate, r.EndDate)
	p.Active = r.Active
	return p
}

// ApplyTo applies the update to an existing promotion.
func (r *PromotionRequest) ApplyTo(p *promotion.Promotion) {
	p.Name = r.Name
	p.ProductID = r.ProductID
	p.PromotionalPrice = r.PromotionalPrice
	p.StartDate = r.StartDate
	p.EndDate = r.EndDate
	p.Active = r.Active
	if r.Version > 0 {
		p.Version = r.Version
	}
}

// CampaignItemRequest is one product entry of a campaign.
type CampaignItemRequest struct {
	ProductID id.ID       `json:"productId" binding:"required"`
	Price     types.Money `json:"price" binding:"required"`
}

// CampaignRequest creates one promotion per product over a shared window.
type CampaignRequest struct {
	Name      string                `json:"name" binding:"required"`
	StartDate time.Time             `json:"startDate" binding:"required"`
	EndDate   time.Time             `json:"endDate" binding:"required"`
	Items     []CampaignItemRequest `json:"items" binding:"required"`
}

// ToItems converts the campaign entries to domain items.
func (r *CampaignRequest) ToItems() []promotion.CampaignItem {
	items := make([]promotion.CampaignItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, promotion.CampaignItem{
			ProductID: item.ProductID,
			Price:     item.Price,
		})
	}
	return items
}
