package outbox

import (
	"github.com/google/uuid"
)

// OrderCreatedPayload is the v1 data shape for order_created events.
type OrderCreatedPayload struct {
	OrderID        uuid.UUID `json:"orderId"`
	OrderNumber    int64     `json:"orderNumber"`
	BuyerStoreID   uuid.UUID `json:"buyerStoreId"`
	StoreID        uuid.UUID `json:"storeId"`
	SubtotalCents  int       `json:"subtotalCents"`
	DiscountsCents int       `json:"discountsCents"`
	TotalCents     int       `json:"totalCents"`
}

// OrderStateChangedPayload is the v1 data shape for order_state_changed events.
type OrderStateChangedPayload struct {
	OrderID    uuid.UUID `json:"orderId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
}

// PromotionStatusPayload is the v1 data shape for promotion activation events.
type PromotionStatusPayload struct {
	PromotionID uuid.UUID `json:"promotionId"`
	StoreID     uuid.UUID `json:"storeId"`
	Status      string    `json:"status"`
}
