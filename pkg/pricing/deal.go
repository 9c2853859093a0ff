package pricing

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/leafline/dispensary-backend/pkg/enums"
)

// DealDescriptor is a parsed product merchandising string.
type DealDescriptor struct {
	Type  enums.DiscountType
	Value decimal.Decimal
}

var (
	percentDealPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*%\s*$`)
	dollarDealPattern  = regexp.MustCompile(`^\s*\$\s*(\d+(?:\.\d+)?)\s*$`)
)

// ParseDeal interprets a product deal string such as "10%" or "$5". Anything
// that does not match the grammar, including compound expressions and negative
// values, yields nil. Malformed deals are not errors; the product simply
// prices without one.
func ParseDeal(s string) *DealDescriptor {
	if m := percentDealPattern.FindStringSubmatch(s); m != nil {
		value, err := decimal.NewFromString(m[1])
		if err != nil {
			return nil
		}
		return &DealDescriptor{Type: enums.DiscountTypePercentage, Value: value}
	}
	if m := dollarDealPattern.FindStringSubmatch(s); m != nil {
		value, err := decimal.NewFromString(m[1])
		if err != nil {
			return nil
		}
		return &DealDescriptor{Type: enums.DiscountTypeFixed, Value: value}
	}
	return nil
}
