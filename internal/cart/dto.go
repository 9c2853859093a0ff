package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	"github.com/leafline/dispensary-backend/pkg/types"
)

// QuoteItemInput is one requested line in a quote.
type QuoteItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required"`
}

// QuoteInput is the full quote request for one seller store.
type QuoteInput struct {
	StoreID uuid.UUID        `json:"store_id" validate:"required"`
	Items   []QuoteItemInput `json:"items" validate:"required,min=1"`
}

// CartItemDTO is one priced line of the quoted cart.
type CartItemDTO struct {
	ProductID         uuid.UUID              `json:"product_id"`
	ProductName       string                 `json:"product_name"`
	Quantity          int                    `json:"quantity"`
	UnitPriceCents    int                    `json:"unit_price_cents"`
	Deal              *string                `json:"deal,omitempty"`
	AppliedDiscount   *types.AppliedDiscount `json:"applied_discount,omitempty"`
	DiscountMessage   string                 `json:"discount_message,omitempty"`
	Warnings          types.CartItemWarnings `json:"warnings,omitempty"`
	DiscountCents     int                    `json:"discount_cents"`
	LineSubtotalCents int                    `json:"line_subtotal_cents"`
	LineTotalCents    int                    `json:"line_total_cents"`
	Status            enums.CartItemStatus   `json:"status"`
}

// CartDTO is the API-facing projection of a quoted cart.
type CartDTO struct {
	ID                 uuid.UUID        `json:"id"`
	BuyerStoreID       uuid.UUID        `json:"buyer_store_id"`
	StoreID            uuid.UUID        `json:"store_id"`
	Status             enums.CartStatus `json:"status"`
	Currency           enums.Currency   `json:"currency"`
	AppliedPromotionID *uuid.UUID       `json:"applied_promotion_id,omitempty"`
	SubtotalCents      int              `json:"subtotal_cents"`
	DiscountsCents     int              `json:"discounts_cents"`
	TotalCents         int              `json:"total_cents"`
	Items              []CartItemDTO    `json:"items"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// NewCartDTO converts the persisted cart into its API projection. The
// per-line discount message is rebuilt from the stored snapshot.
func NewCartDTO(cart *models.CartRecord, names map[uuid.UUID]string, messages map[uuid.UUID]string) *CartDTO {
	if cart == nil {
		return nil
	}
	dto := &CartDTO{
		ID:                 cart.ID,
		BuyerStoreID:       cart.BuyerStoreID,
		StoreID:            cart.StoreID,
		Status:             cart.Status,
		Currency:           cart.Currency,
		AppliedPromotionID: cart.AppliedPromotionID,
		SubtotalCents:      cart.SubtotalCents,
		DiscountsCents:     cart.DiscountsCents,
		TotalCents:         cart.TotalCents,
		UpdatedAt:          cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		line := CartItemDTO{
			ProductID:         item.ProductID,
			ProductName:       names[item.ProductID],
			Quantity:          item.Quantity,
			UnitPriceCents:    item.UnitPriceCents,
			Deal:              item.Deal,
			AppliedDiscount:   item.AppliedDiscount,
			DiscountMessage:   messages[item.ProductID],
			Warnings:          item.Warnings,
			DiscountCents:     item.DiscountCents,
			LineSubtotalCents: item.LineSubtotalCents,
			LineTotalCents:    item.LineTotalCents,
			Status:            item.Status,
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
