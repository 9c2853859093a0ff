package enums

import "fmt"

// DiscountType distinguishes percentage discounts from fixed dollar discounts.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercentage,
	DiscountTypeFixed,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}

// DiscountSource records which mechanisms contributed to a resolved price.
type DiscountSource string

const (
	DiscountSourcePromotion DiscountSource = "discount"
	DiscountSourceDeal      DiscountSource = "deal"
	DiscountSourceCombined  DiscountSource = "combined"
	DiscountSourceNone      DiscountSource = "none"
)

var validDiscountSources = []DiscountSource{
	DiscountSourcePromotion,
	DiscountSourceDeal,
	DiscountSourceCombined,
	DiscountSourceNone,
}

// String implements fmt.Stringer.
func (d DiscountSource) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountSource.
func (d DiscountSource) IsValid() bool {
	for _, candidate := range validDiscountSources {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountSource converts raw input into a DiscountSource.
func ParseDiscountSource(value string) (DiscountSource, error) {
	for _, candidate := range validDiscountSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount source %q", value)
}

// MinimumOrderType describes the spend threshold gating a promotion.
type MinimumOrderType string

const (
	MinimumOrderTypeNone         MinimumOrderType = "no_minimum"
	MinimumOrderTypeDollarAmount MinimumOrderType = "dollar_amount"
)

var validMinimumOrderTypes = []MinimumOrderType{
	MinimumOrderTypeNone,
	MinimumOrderTypeDollarAmount,
}

// String implements fmt.Stringer.
func (m MinimumOrderType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MinimumOrderType.
func (m MinimumOrderType) IsValid() bool {
	for _, candidate := range validMinimumOrderTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMinimumOrderType converts raw input into a MinimumOrderType.
func ParseMinimumOrderType(value string) (MinimumOrderType, error) {
	for _, candidate := range validMinimumOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid minimum order type %q", value)
}
