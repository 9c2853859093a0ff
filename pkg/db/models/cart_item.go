package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/enums"
	"github.com/leafline/dispensary-backend/pkg/types"
)

// CartItem persists product-level snapshots tied to a CartRecord.
type CartItem struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID            uuid.UUID              `gorm:"column:cart_id;type:uuid;not null"`
	ProductID         uuid.UUID              `gorm:"column:product_id;type:uuid;not null"`
	Quantity          int                    `gorm:"column:quantity;not null"`
	UnitPriceCents    int                    `gorm:"column:unit_price_cents;not null"`
	Deal              *string                `gorm:"column:deal"`
	AppliedDiscount   *types.AppliedDiscount `gorm:"column:applied_discount;type:jsonb;serializer:json"`
	Warnings          types.CartItemWarnings `gorm:"column:warnings;type:jsonb;serializer:json"`
	DiscountCents     int                    `gorm:"column:discount_cents;not null;default:0"`
	LineSubtotalCents int                    `gorm:"column:line_subtotal_cents;not null"`
	LineTotalCents    int                    `gorm:"column:line_total_cents;not null"`
	Status            enums.CartItemStatus   `gorm:"column:status;type:cart_item_status;not null;default:'ok'"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
