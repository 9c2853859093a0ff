package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/enums"
)

// PromotionSnapshot freezes the promotion terms in effect when an order was
// placed. Invoices recompute against this snapshot, not the live promotion row.
type PromotionSnapshot struct {
	ID               uuid.UUID              `json:"id"`
	Name             string                 `json:"name"`
	DiscountType     enums.DiscountType     `json:"discount_type"`
	DiscountValue    string                 `json:"discount_value"`
	MinimumOrderType enums.MinimumOrderType `json:"minimum_order_type"`
	MinimumAmount    *string                `json:"minimum_amount,omitempty"`
	ValidFrom        *time.Time             `json:"valid_from,omitempty"`
	ValidTo          *time.Time             `json:"valid_to,omitempty"`
	Status           enums.PromotionStatus  `json:"status"`
}

// Value serializes the snapshot to JSON.
func (p *PromotionSnapshot) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan decodes JSONB into the snapshot struct.
func (p *PromotionSnapshot) Scan(value interface{}) error {
	if value == nil {
		*p = PromotionSnapshot{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, p)
}
