package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/enums"
	"github.com/leafline/dispensary-backend/pkg/types"
)

// OrderLineItem captures the snapshot of each item within an order. Deal keeps
// the product's merchandising string as it read at placement so invoices can
// replay pricing later.
type OrderLineItem struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID              `gorm:"column:order_id;type:uuid;not null"`
	ProductID       *uuid.UUID             `gorm:"column:product_id;type:uuid"`
	Name            string                 `gorm:"column:name;not null"`
	Category        string                 `gorm:"column:category;not null"`
	Unit            enums.ProductUnit      `gorm:"column:unit;type:unit;not null"`
	UnitPriceCents  int                    `gorm:"column:unit_price_cents;not null"`
	Qty             int                    `gorm:"column:qty;not null"`
	Deal            *string                `gorm:"column:deal"`
	AppliedDiscount *types.AppliedDiscount `gorm:"column:applied_discount;type:jsonb;serializer:json"`
	DiscountCents   int                    `gorm:"column:discount_cents;not null;default:0"`
	TotalCents      int                    `gorm:"column:total_cents;not null"`
	Status          enums.LineItemStatus   `gorm:"column:status;type:line_item_status;not null;default:'pending'"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
