package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/types"
)

// Store represents the canonical tenant model: one dispensary storefront.
type Store struct {
	ID        uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string        `gorm:"column:name;not null"`
	Slug      string        `gorm:"column:slug;not null;uniqueIndex"`
	Phone     *string       `gorm:"column:phone"`
	Email     *string       `gorm:"column:email"`
	Address   types.Address `gorm:"column:address;type:jsonb;serializer:json;not null"`
	IsActive  bool          `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
