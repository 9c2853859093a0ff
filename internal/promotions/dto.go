package promotions

import (
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
)

// PromotionDTO is the API-facing projection of a promotion row.
type PromotionDTO struct {
	ID               uuid.UUID              `json:"id"`
	StoreID          uuid.UUID              `json:"store_id"`
	Name             string                 `json:"name"`
	DiscountType     enums.DiscountType     `json:"discount_type"`
	DiscountValue    string                 `json:"discount_value"`
	MinimumOrderType enums.MinimumOrderType `json:"minimum_order_type"`
	MinimumAmount    *string                `json:"minimum_amount,omitempty"`
	ValidFrom        *time.Time             `json:"valid_from,omitempty"`
	ValidTo          *time.Time             `json:"valid_to,omitempty"`
	Status           enums.PromotionStatus  `json:"status"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// NewPromotionDTO converts the row into its API projection.
func NewPromotionDTO(promo *models.Promotion) *PromotionDTO {
	if promo == nil {
		return nil
	}
	dto := &PromotionDTO{
		ID:               promo.ID,
		StoreID:          promo.StoreID,
		Name:             promo.Name,
		DiscountType:     promo.DiscountType,
		DiscountValue:    promo.DiscountValue.String(),
		MinimumOrderType: promo.MinimumOrderType,
		ValidFrom:        promo.ValidFrom,
		ValidTo:          promo.ValidTo,
		Status:           promo.Status,
		CreatedAt:        promo.CreatedAt,
		UpdatedAt:        promo.UpdatedAt,
	}
	if promo.MinimumAmount != nil {
		value := promo.MinimumAmount.String()
		dto.MinimumAmount = &value
	}
	return dto
}

// PromotionListResult is one page of promotions plus the next cursor.
type PromotionListResult struct {
	Items      []PromotionDTO `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
