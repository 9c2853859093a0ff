package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/leafline/dispensary-backend/pkg/enums"
)

// CartItemWarning captures a warning attached to a persisted cart line.
type CartItemWarning struct {
	Type    enums.CartItemWarningType `json:"type"`
	Message string                    `json:"message"`
}

// CartItemWarnings is a slice marshaled as JSONB.
type CartItemWarnings []CartItemWarning

// Value serializes the warnings to JSON.
func (c CartItemWarnings) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan decodes JSONB into the warning slice.
func (c *CartItemWarnings) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded CartItemWarnings
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*c = decoded
	return nil
}

// AppliedDiscount is the resolved per-line discount saved with cart items and
// order lines so later reads do not re-derive it from mutable catalog state.
type AppliedDiscount struct {
	Source             enums.DiscountSource `json:"source"`
	Type               enums.DiscountType   `json:"type,omitempty"`
	Value              string               `json:"value,omitempty"`
	Display            string               `json:"display,omitempty"`
	AmountPerUnitCents int                  `json:"amount_per_unit_cents"`
}

// Scan decodes a JSON object into the discount struct.
func (a *AppliedDiscount) Scan(value interface{}) error {
	if value == nil {
		*a = AppliedDiscount{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, a)
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
