package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	"github.com/leafline/dispensary-backend/pkg/types"
)

// PlaceOrderInput carries the fields accepted when converting a cart.
type PlaceOrderInput struct {
	StoreID uuid.UUID `json:"store_id" validate:"required"`
	// ExpectedTotalCents is the total the buyer saw on the last quote. A
	// mismatch after repricing rejects the placement so stale carts cannot
	// charge surprise amounts.
	ExpectedTotalCents *int    `json:"expected_total_cents"`
	Notes              *string `json:"notes"`
}

// OrderLineDTO is one frozen line on a placed order.
type OrderLineDTO struct {
	ID              uuid.UUID              `json:"id"`
	ProductID       *uuid.UUID             `json:"product_id,omitempty"`
	Name            string                 `json:"name"`
	Category        string                 `json:"category"`
	Unit            enums.ProductUnit      `json:"unit"`
	UnitPriceCents  int                    `json:"unit_price_cents"`
	Qty             int                    `json:"qty"`
	Deal            *string                `json:"deal,omitempty"`
	AppliedDiscount *types.AppliedDiscount `json:"applied_discount,omitempty"`
	DiscountCents   int                    `json:"discount_cents"`
	TotalCents      int                    `json:"total_cents"`
	Status          enums.LineItemStatus   `json:"status"`
}

// OrderDTO is the API-facing projection of an order.
type OrderDTO struct {
	ID                uuid.UUID                `json:"id"`
	CartID            *uuid.UUID               `json:"cart_id,omitempty"`
	BuyerStoreID      uuid.UUID                `json:"buyer_store_id"`
	StoreID           uuid.UUID                `json:"store_id"`
	OrderNumber       int64                    `json:"order_number"`
	Currency          enums.Currency           `json:"currency"`
	Status            enums.OrderStatus        `json:"status"`
	SubtotalCents     int                      `json:"subtotal_cents"`
	DiscountsCents    int                      `json:"discounts_cents"`
	TotalCents        int                      `json:"total_cents"`
	PromotionSnapshot *types.PromotionSnapshot `json:"promotion_snapshot,omitempty"`
	Notes             *string                  `json:"notes,omitempty"`
	PlacedAt          time.Time                `json:"placed_at"`
	FulfilledAt       *time.Time               `json:"fulfilled_at,omitempty"`
	CanceledAt        *time.Time               `json:"canceled_at,omitempty"`
	Items             []OrderLineDTO           `json:"items"`
}

// OrderListResult is one page of orders plus the next cursor.
type OrderListResult struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewOrderDTO converts the row into its API projection.
func NewOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:                order.ID,
		CartID:            order.CartID,
		BuyerStoreID:      order.BuyerStoreID,
		StoreID:           order.StoreID,
		OrderNumber:       order.OrderNumber,
		Currency:          order.Currency,
		Status:            order.Status,
		SubtotalCents:     order.SubtotalCents,
		DiscountsCents:    order.DiscountsCents,
		TotalCents:        order.TotalCents,
		PromotionSnapshot: order.PromotionSnapshot,
		Notes:             order.Notes,
		PlacedAt:          order.PlacedAt,
		FulfilledAt:       order.FulfilledAt,
		CanceledAt:        order.CanceledAt,
	}
	for _, line := range order.Items {
		dto.Items = append(dto.Items, OrderLineDTO{
			ID:              line.ID,
			ProductID:       line.ProductID,
			Name:            line.Name,
			Category:        line.Category,
			Unit:            line.Unit,
			UnitPriceCents:  line.UnitPriceCents,
			Qty:             line.Qty,
			Deal:            line.Deal,
			AppliedDiscount: line.AppliedDiscount,
			DiscountCents:   line.DiscountCents,
			TotalCents:      line.TotalCents,
			Status:          line.Status,
		})
	}
	return dto
}
