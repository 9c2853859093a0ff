package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/enums"
)

// CartRecord captures the buyer-scoped cart snapshot persisted at quote time.
type CartRecord struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerStoreID       uuid.UUID        `gorm:"column:buyer_store_id;type:uuid;not null"`
	StoreID            uuid.UUID        `gorm:"column:store_id;type:uuid;not null"`
	Status             enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	Currency           enums.Currency   `gorm:"column:currency;not null;default:'USD'"`
	AppliedPromotionID *uuid.UUID       `gorm:"column:applied_promotion_id;type:uuid"`
	SubtotalCents      int              `gorm:"column:subtotal_cents;not null;default:0"`
	DiscountsCents     int              `gorm:"column:discounts_cents;not null;default:0"`
	TotalCents         int              `gorm:"column:total_cents;not null;default:0"`
	ConvertedAt        *time.Time       `gorm:"column:converted_at"`
	Items              []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
