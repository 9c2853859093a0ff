package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	"github.com/leafline/dispensary-backend/pkg/types"
)

// Promotion carries the subset of a promotion row the resolver needs.
type Promotion struct {
	ID               uuid.UUID
	Name             string
	DiscountType     enums.DiscountType
	DiscountValue    decimal.Decimal
	MinimumOrderType enums.MinimumOrderType
	MinimumAmount    *decimal.Decimal
	ValidFrom        *time.Time
	ValidTo          *time.Time
	Status           enums.PromotionStatus
}

// Applicable reports whether the promotion may discount a line whose subtotal
// is basePrice * qty. Gates are checked in order: status, validity window,
// spend minimum. A promotion with a missing or zero window boundary never
// applies; both bounds are inclusive.
func (p *Promotion) Applicable(subtotal decimal.Decimal, now time.Time) bool {
	if p == nil {
		return false
	}
	if p.Status != enums.PromotionStatusActive {
		return false
	}
	if p.ValidFrom == nil || p.ValidTo == nil || p.ValidFrom.IsZero() || p.ValidTo.IsZero() {
		return false
	}
	if now.Before(*p.ValidFrom) || now.After(*p.ValidTo) {
		return false
	}
	if p.MinimumOrderType == enums.MinimumOrderTypeDollarAmount {
		if p.MinimumAmount == nil {
			return false
		}
		if subtotal.LessThan(*p.MinimumAmount) {
			return false
		}
	}
	return true
}

// FromModel adapts a promotion row for the resolver. Returns nil for nil input.
func FromModel(m *models.Promotion) *Promotion {
	if m == nil {
		return nil
	}
	return &Promotion{
		ID:               m.ID,
		Name:             m.Name,
		DiscountType:     m.DiscountType,
		DiscountValue:    m.DiscountValue,
		MinimumOrderType: m.MinimumOrderType,
		MinimumAmount:    m.MinimumAmount,
		ValidFrom:        m.ValidFrom,
		ValidTo:          m.ValidTo,
		Status:           m.Status,
	}
}

// FromSnapshot rebuilds a promotion from the terms frozen on an order.
func FromSnapshot(s *types.PromotionSnapshot) *Promotion {
	if s == nil {
		return nil
	}
	p := &Promotion{
		ID:               s.ID,
		Name:             s.Name,
		DiscountType:     s.DiscountType,
		MinimumOrderType: s.MinimumOrderType,
		ValidFrom:        s.ValidFrom,
		ValidTo:          s.ValidTo,
		Status:           s.Status,
	}
	if value, err := decimal.NewFromString(s.DiscountValue); err == nil {
		p.DiscountValue = value
	}
	if s.MinimumAmount != nil {
		if minimum, err := decimal.NewFromString(*s.MinimumAmount); err == nil {
			p.MinimumAmount = &minimum
		}
	}
	return p
}

// Snapshot freezes the promotion terms for persistence on an order.
func (p *Promotion) Snapshot() *types.PromotionSnapshot {
	if p == nil {
		return nil
	}
	snap := &types.PromotionSnapshot{
		ID:               p.ID,
		Name:             p.Name,
		DiscountType:     p.DiscountType,
		DiscountValue:    p.DiscountValue.String(),
		MinimumOrderType: p.MinimumOrderType,
		ValidFrom:        p.ValidFrom,
		ValidTo:          p.ValidTo,
		Status:           p.Status,
	}
	if p.MinimumAmount != nil {
		value := p.MinimumAmount.String()
		snap.MinimumAmount = &value
	}
	return snap
}
