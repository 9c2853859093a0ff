package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/enums"
)

// Product represents a catalog listing for a store.
//
// Deal holds the raw merchandising string ("10%", "$5"). It is stored as
// entered; pricing decides at resolution time whether it parses.
type Product struct {
	ID              uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID         uuid.UUID                    `gorm:"column:store_id;type:uuid;not null"`
	SKU             string                       `gorm:"column:sku;not null"`
	Name            string                       `gorm:"column:name;not null"`
	Description     *string                      `gorm:"column:description"`
	Category        enums.ProductCategory        `gorm:"column:category;type:category;not null"`
	Strain          *string                      `gorm:"column:strain"`
	Classification  *enums.ProductClassification `gorm:"column:classification;type:classification"`
	Unit            enums.ProductUnit            `gorm:"column:unit;type:unit;not null"`
	PriceCents      int                          `gorm:"column:price_cents;not null"`
	Deal            *string                      `gorm:"column:deal"`
	THCPercent      *float64                     `gorm:"column:thc_percent;type:numeric(5,2)"`
	CBDPercent      *float64                     `gorm:"column:cbd_percent;type:numeric(5,2)"`
	StockQty        int                          `gorm:"column:stock_qty;not null;default:0"`
	MaxQty          int                          `gorm:"column:max_qty;not null;default:0"`
	IsActive        bool                         `gorm:"column:is_active;not null;default:true"`
	VolumeDiscounts []ProductVolumeDiscount      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}
