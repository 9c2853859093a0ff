package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leafline/dispensary-backend/pkg/enums"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/types"
)

var oneHundred = decimal.NewFromInt(100)

// AppliedDiscount describes the discount selected for a single line.
type AppliedDiscount struct {
	IsApplicable  bool
	Source        enums.DiscountSource
	Type          enums.DiscountType
	Value         decimal.Decimal
	Display       string
	AmountPerUnit decimal.Decimal
}

// Result is the outcome of one pricing resolution.
type Result struct {
	BasePrice         decimal.Decimal
	Quantity          int
	Discount          AppliedDiscount
	FinalPricePerUnit decimal.Decimal
}

// LineSubtotal is the undiscounted line amount.
func (r *Result) LineSubtotal() decimal.Decimal {
	return r.BasePrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// LineDiscount is the total amount removed from the line.
func (r *Result) LineDiscount() decimal.Decimal {
	return r.Discount.AmountPerUnit.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// LineTotal is the discounted line amount.
func (r *Result) LineTotal() decimal.Decimal {
	return r.FinalPricePerUnit.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// Message returns the marketing sentence for the resolved source, empty when
// nothing applied. Display only; arithmetic never reads it.
func (r *Result) Message() string {
	savings := r.LineDiscount().StringFixed(2)
	switch r.Discount.Source {
	case enums.DiscountSourceDeal:
		return fmt.Sprintf("Special deal: save $%s", savings)
	case enums.DiscountSourcePromotion:
		return fmt.Sprintf("Discount applied: save $%s", savings)
	case enums.DiscountSourceCombined:
		return fmt.Sprintf("Combo offer: save $%s", savings)
	default:
		return ""
	}
}

// Snapshot converts the discount to its cents-based persisted form.
func (r *Result) Snapshot() *types.AppliedDiscount {
	if !r.Discount.IsApplicable {
		return nil
	}
	return &types.AppliedDiscount{
		Source:             r.Discount.Source,
		Type:               r.Discount.Type,
		Value:              r.Discount.Value.String(),
		Display:            r.Discount.Display,
		AmountPerUnitCents: CentsFromDecimal(r.Discount.AmountPerUnit),
	}
}

// Resolve prices one line. The promotion and the deal are judged
// independently; when both apply their per-unit amounts are each computed
// against the original base price and summed, never compounded. The caller
// supplies now so repeated calls with identical inputs stay identical.
//
// Errors are reserved for caller bugs: a negative base price or a
// non-positive quantity. Unparseable deals and gated-out promotions are
// ordinary no-discount outcomes.
func Resolve(basePrice decimal.Decimal, quantity int, promo *Promotion, deal string, now time.Time) (*Result, error) {
	if basePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	subtotal := basePrice.Mul(decimal.NewFromInt(int64(quantity)))
	promoApplies := promo.Applicable(subtotal, now)
	descriptor := ParseDeal(deal)

	result := &Result{
		BasePrice: basePrice,
		Quantity:  quantity,
		Discount: AppliedDiscount{
			Source: enums.DiscountSourceNone,
		},
		FinalPricePerUnit: basePrice,
	}

	var promoAmount, dealAmount decimal.Decimal
	if promoApplies {
		promoAmount = perUnitAmount(basePrice, promo.DiscountType, promo.DiscountValue)
	}
	if descriptor != nil {
		dealAmount = perUnitAmount(basePrice, descriptor.Type, descriptor.Value)
	}

	switch {
	case promoApplies && descriptor != nil:
		total := promoAmount.Add(dealAmount)
		result.Discount = AppliedDiscount{
			IsApplicable:  true,
			Source:        enums.DiscountSourceCombined,
			AmountPerUnit: total,
		}
		if promo.DiscountType == descriptor.Type {
			result.Discount.Type = promo.DiscountType
			result.Discount.Value = promo.DiscountValue.Add(descriptor.Value)
			result.Discount.Display = formatDisplay(promo.DiscountType, result.Discount.Value)
		} else {
			// Mixed types never collapse to a synthetic percentage; show both
			// components and report the literal dollar total as the value.
			result.Discount.Type = enums.DiscountTypeFixed
			result.Discount.Value = total
			result.Discount.Display = fmt.Sprintf("%s + %s",
				formatDisplay(promo.DiscountType, promo.DiscountValue),
				formatDisplay(descriptor.Type, descriptor.Value))
		}
	case promoApplies:
		result.Discount = AppliedDiscount{
			IsApplicable:  true,
			Source:        enums.DiscountSourcePromotion,
			Type:          promo.DiscountType,
			Value:         promo.DiscountValue,
			Display:       formatDisplay(promo.DiscountType, promo.DiscountValue),
			AmountPerUnit: promoAmount,
		}
	case descriptor != nil:
		result.Discount = AppliedDiscount{
			IsApplicable:  true,
			Source:        enums.DiscountSourceDeal,
			Type:          descriptor.Type,
			Value:         descriptor.Value,
			Display:       formatDisplay(descriptor.Type, descriptor.Value),
			AmountPerUnit: dealAmount,
		}
	}

	if result.Discount.AmountPerUnit.GreaterThan(basePrice) {
		result.Discount.AmountPerUnit = basePrice
	}
	if result.Discount.AmountPerUnit.IsNegative() {
		result.Discount.AmountPerUnit = decimal.Zero
	}
	result.FinalPricePerUnit = basePrice.Sub(result.Discount.AmountPerUnit)

	return result, nil
}

// ResolveFloat adapts float callers, rejecting NaN and infinite base prices
// before delegating to Resolve.
func ResolveFloat(basePrice float64, quantity int, promo *Promotion, deal string, now time.Time) (*Result, error) {
	if math.IsNaN(basePrice) || math.IsInf(basePrice, 0) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be finite")
	}
	return Resolve(decimal.NewFromFloat(basePrice), quantity, promo, deal, now)
}

// perUnitAmount converts a discount definition to the absolute currency amount
// removed from one unit. Fixed discounts never exceed the unit price.
func perUnitAmount(basePrice decimal.Decimal, discountType enums.DiscountType, value decimal.Decimal) decimal.Decimal {
	switch discountType {
	case enums.DiscountTypePercentage:
		return basePrice.Mul(value).Div(oneHundred)
	case enums.DiscountTypeFixed:
		if value.GreaterThan(basePrice) {
			return basePrice
		}
		return value
	default:
		return decimal.Zero
	}
}

func formatDisplay(discountType enums.DiscountType, value decimal.Decimal) string {
	if discountType == enums.DiscountTypePercentage {
		return fmt.Sprintf("%s%%", value.String())
	}
	return fmt.Sprintf("$%s", value.StringFixed(2))
}
