package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leafline/dispensary-backend/pkg/enums"
)

// Promotion is a store-wide discount configured by back office staff.
//
// ValidFrom and ValidTo are nullable on purpose. A promotion with a missing
// boundary never applies; the window is only trusted when both ends exist.
type Promotion struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID          uuid.UUID              `gorm:"column:store_id;type:uuid;not null"`
	Name             string                 `gorm:"column:name;not null"`
	DiscountType     enums.DiscountType     `gorm:"column:discount_type;type:discount_type;not null"`
	DiscountValue    decimal.Decimal        `gorm:"column:discount_value;type:numeric(10,2);not null"`
	MinimumOrderType enums.MinimumOrderType `gorm:"column:minimum_order_type;type:minimum_order_type;not null;default:'no_minimum'"`
	MinimumAmount    *decimal.Decimal       `gorm:"column:minimum_amount;type:numeric(10,2)"`
	ValidFrom        *time.Time             `gorm:"column:valid_from"`
	ValidTo          *time.Time             `gorm:"column:valid_to"`
	Status           enums.PromotionStatus  `gorm:"column:status;type:promotion_status;not null;default:'inactive'"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
