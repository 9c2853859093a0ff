package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leafline/dispensary-backend/pkg/enums"
)

var frozenNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func activePromotion(discountType enums.DiscountType, value string) *Promotion {
	from := frozenNow.Add(-24 * time.Hour)
	to := frozenNow.Add(24 * time.Hour)
	return &Promotion{
		Name:             "spring special",
		DiscountType:     discountType,
		DiscountValue:    decimal.RequireFromString(value),
		MinimumOrderType: enums.MinimumOrderTypeNone,
		ValidFrom:        &from,
		ValidTo:          &to,
		Status:           enums.PromotionStatusActive,
	}
}

func TestPromotionApplicable(t *testing.T) {
	t.Parallel()

	subtotal := decimal.NewFromInt(100)

	t.Run("nil promotion", func(t *testing.T) {
		t.Parallel()
		var p *Promotion
		if p.Applicable(subtotal, frozenNow) {
			t.Fatal("nil promotion should not apply")
		}
	})

	t.Run("inactive status", func(t *testing.T) {
		t.Parallel()
		p := activePromotion(enums.DiscountTypePercentage, "10")
		p.Status = enums.PromotionStatusInactive
		if p.Applicable(subtotal, frozenNow) {
			t.Fatal("inactive promotion should not apply")
		}
	})

	t.Run("missing window fails closed", func(t *testing.T) {
		t.Parallel()
		p := activePromotion(enums.DiscountTypePercentage, "10")
		p.ValidTo = nil
		if p.Applicable(subtotal, frozenNow) {
			t.Fatal("promotion without validTo should not apply")
		}

		p = activePromotion(enums.DiscountTypePercentage, "10")
		zero := time.Time{}
		p.ValidFrom = &zero
		if p.Applicable(subtotal, frozenNow) {
			t.Fatal("promotion with zero validFrom should not apply")
		}
	})

	t.Run("expired window", func(t *testing.T) {
		t.Parallel()
		p := activePromotion(enums.DiscountTypePercentage, "10")
		from := frozenNow.Add(-48 * time.Hour)
		to := frozenNow.Add(-24 * time.Hour)
		p.ValidFrom, p.ValidTo = &from, &to
		if p.Applicable(subtotal, frozenNow) {
			t.Fatal("expired promotion should not apply")
		}
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		t.Parallel()
		p := activePromotion(enums.DiscountTypePercentage, "10")
		if !p.Applicable(subtotal, *p.ValidFrom) {
			t.Fatal("promotion should apply at validFrom")
		}
		if !p.Applicable(subtotal, *p.ValidTo) {
			t.Fatal("promotion should apply at validTo")
		}
		if p.Applicable(subtotal, p.ValidTo.Add(time.Second)) {
			t.Fatal("promotion should not apply after validTo")
		}
	})

	t.Run("dollar minimum gates by subtotal", func(t *testing.T) {
		t.Parallel()
		p := activePromotion(enums.DiscountTypePercentage, "10")
		minimum := decimal.NewFromInt(50)
		p.MinimumOrderType = enums.MinimumOrderTypeDollarAmount
		p.MinimumAmount = &minimum

		if p.Applicable(decimal.NewFromInt(10), frozenNow) {
			t.Fatal("subtotal under minimum should not apply")
		}
		if !p.Applicable(decimal.NewFromInt(50), frozenNow) {
			t.Fatal("subtotal equal to minimum should apply")
		}
	})

	t.Run("dollar minimum without amount fails closed", func(t *testing.T) {
		t.Parallel()
		p := activePromotion(enums.DiscountTypePercentage, "10")
		p.MinimumOrderType = enums.MinimumOrderTypeDollarAmount
		p.MinimumAmount = nil
		if p.Applicable(subtotal, frozenNow) {
			t.Fatal("dollar minimum without configured amount should not apply")
		}
	})
}

func TestPromotionSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	p := activePromotion(enums.DiscountTypeFixed, "7.50")
	minimum := decimal.RequireFromString("25")
	p.MinimumOrderType = enums.MinimumOrderTypeDollarAmount
	p.MinimumAmount = &minimum

	restored := FromSnapshot(p.Snapshot())
	if restored == nil {
		t.Fatal("expected snapshot round trip to produce a promotion")
	}
	if !restored.DiscountValue.Equal(p.DiscountValue) {
		t.Fatalf("discount value drifted: %s vs %s", restored.DiscountValue, p.DiscountValue)
	}
	if restored.MinimumAmount == nil || !restored.MinimumAmount.Equal(minimum) {
		t.Fatalf("minimum amount drifted: %v", restored.MinimumAmount)
	}
	if !restored.Applicable(decimal.NewFromInt(25), frozenNow) {
		t.Fatal("restored promotion should still apply")
	}

	if FromSnapshot(nil) != nil {
		t.Fatal("nil snapshot should restore to nil")
	}
	var nilPromo *Promotion
	if nilPromo.Snapshot() != nil {
		t.Fatal("nil promotion should snapshot to nil")
	}
}
