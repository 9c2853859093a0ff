package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/enums"
	"github.com/leafline/dispensary-backend/pkg/types"
)

// Order is the placed order produced from an active cart.
type Order struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID            *uuid.UUID               `gorm:"column:cart_id;type:uuid"`
	BuyerStoreID      uuid.UUID                `gorm:"column:buyer_store_id;type:uuid;not null"`
	StoreID           uuid.UUID                `gorm:"column:store_id;type:uuid;not null"`
	OrderNumber       int64                    `gorm:"column:order_number;not null"`
	Currency          enums.Currency           `gorm:"column:currency;not null;default:'USD'"`
	Status            enums.OrderStatus        `gorm:"column:status;type:order_status;not null;default:'pending'"`
	SubtotalCents     int                      `gorm:"column:subtotal_cents;not null"`
	DiscountsCents    int                      `gorm:"column:discounts_cents;not null;default:0"`
	TotalCents        int                      `gorm:"column:total_cents;not null"`
	PromotionSnapshot *types.PromotionSnapshot `gorm:"column:promotion_snapshot;type:jsonb;serializer:json"`
	Notes             *string                  `gorm:"column:notes"`
	PlacedAt          time.Time                `gorm:"column:placed_at;not null"`
	FulfilledAt       *time.Time               `gorm:"column:fulfilled_at"`
	CanceledAt        *time.Time               `gorm:"column:canceled_at"`
	Items             []OrderLineItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
