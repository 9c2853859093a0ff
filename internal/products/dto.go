package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	"github.com/leafline/dispensary-backend/pkg/pricing"
)

// VolumeDiscountDTO is one quantity tier on a product.
type VolumeDiscountDTO struct {
	MinQty         int `json:"min_qty"`
	UnitPriceCents int `json:"unit_price_cents"`
}

// ProductDTO is the API-facing projection of a catalog row.
type ProductDTO struct {
	ID              uuid.UUID                    `json:"id"`
	StoreID         uuid.UUID                    `json:"store_id"`
	SKU             string                       `json:"sku"`
	Name            string                       `json:"name"`
	Description     *string                      `json:"description,omitempty"`
	Category        enums.ProductCategory        `json:"category"`
	Strain          *string                      `json:"strain,omitempty"`
	Classification  *enums.ProductClassification `json:"classification,omitempty"`
	Unit            enums.ProductUnit            `json:"unit"`
	PriceCents      int                          `json:"price_cents"`
	Deal            *string                      `json:"deal,omitempty"`
	DealParses      bool                         `json:"deal_parses"`
	THCPercent      *float64                     `json:"thc_percent,omitempty"`
	CBDPercent      *float64                     `json:"cbd_percent,omitempty"`
	StockQty        int                          `json:"stock_qty"`
	MaxQty          int                          `json:"max_qty"`
	IsActive        bool                         `json:"is_active"`
	VolumeDiscounts []VolumeDiscountDTO          `json:"volume_discounts,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

// ProductListResult is one page of products plus the next cursor.
type ProductListResult struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Category   *enums.ProductCategory
	ActiveOnly bool
}

// NewProductDTO converts the row into its API projection. DealParses tells
// back office users whether the merchandising string will actually discount.
func NewProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:             product.ID,
		StoreID:        product.StoreID,
		SKU:            product.SKU,
		Name:           product.Name,
		Description:    product.Description,
		Category:       product.Category,
		Strain:         product.Strain,
		Classification: product.Classification,
		Unit:           product.Unit,
		PriceCents:     product.PriceCents,
		Deal:           product.Deal,
		THCPercent:     product.THCPercent,
		CBDPercent:     product.CBDPercent,
		StockQty:       product.StockQty,
		MaxQty:         product.MaxQty,
		IsActive:       product.IsActive,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
	if product.Deal != nil {
		dto.DealParses = pricing.ParseDeal(*product.Deal) != nil
	}
	for _, tier := range product.VolumeDiscounts {
		dto.VolumeDiscounts = append(dto.VolumeDiscounts, VolumeDiscountDTO{
			MinQty:         tier.MinQty,
			UnitPriceCents: tier.UnitPriceCents,
		})
	}
	return dto
}
