package pricing

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leafline/dispensary-backend/pkg/enums"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
)

func mustResolve(t *testing.T, basePrice string, qty int, promo *Promotion, deal string) *Result {
	t.Helper()
	result, err := Resolve(decimal.RequireFromString(basePrice), qty, promo, deal, frozenNow)
	if err != nil {
		t.Fatalf("Resolve returned unexpected error: %v", err)
	}
	return result
}

func TestResolve_StackingAdditivity(t *testing.T) {
	t.Parallel()

	promo := activePromotion(enums.DiscountTypePercentage, "10")
	result := mustResolve(t, "100", 1, promo, "$5")

	if result.Discount.Source != enums.DiscountSourceCombined {
		t.Fatalf("source = %s, want combined", result.Discount.Source)
	}
	if !result.Discount.AmountPerUnit.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("per-unit discount = %s, want 15", result.Discount.AmountPerUnit)
	}
	if !result.FinalPricePerUnit.Equal(decimal.NewFromInt(85)) {
		t.Fatalf("final price = %s, want 85", result.FinalPricePerUnit)
	}
	if result.Discount.Display != "10% + $5.00" {
		t.Fatalf("display = %q, want mixed components", result.Discount.Display)
	}
	if result.Discount.Type != enums.DiscountTypeFixed {
		t.Fatalf("mixed combined type = %s, want fixed", result.Discount.Type)
	}
}

func TestResolve_NoCompounding(t *testing.T) {
	t.Parallel()

	// 10% promo and 10% deal each judged against the original $100, not the
	// intermediate $90.
	promo := activePromotion(enums.DiscountTypePercentage, "10")
	result := mustResolve(t, "100", 2, promo, "10%")

	if !result.Discount.AmountPerUnit.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("per-unit discount = %s, want 20", result.Discount.AmountPerUnit)
	}
	if result.Discount.Display != "20%" {
		t.Fatalf("display = %q, want summed percentage", result.Discount.Display)
	}
	if result.Discount.Type != enums.DiscountTypePercentage {
		t.Fatalf("same-type combined type = %s, want percentage", result.Discount.Type)
	}
	if !result.LineTotal().Equal(decimal.NewFromInt(160)) {
		t.Fatalf("line total = %s, want 160", result.LineTotal())
	}
}

func TestResolve_PromotionOnly(t *testing.T) {
	t.Parallel()

	promo := activePromotion(enums.DiscountTypePercentage, "20")
	result := mustResolve(t, "45", 1, promo, "")

	if result.Discount.Source != enums.DiscountSourcePromotion {
		t.Fatalf("source = %s, want discount", result.Discount.Source)
	}
	if !result.FinalPricePerUnit.Equal(decimal.NewFromInt(36)) {
		t.Fatalf("final price = %s, want 36", result.FinalPricePerUnit)
	}
	if result.Discount.Display != "20%" {
		t.Fatalf("display = %q, want 20%%", result.Discount.Display)
	}
}

func TestResolve_DealOnly(t *testing.T) {
	t.Parallel()

	result := mustResolve(t, "55", 1, nil, "10%")

	if result.Discount.Source != enums.DiscountSourceDeal {
		t.Fatalf("source = %s, want deal", result.Discount.Source)
	}
	if !result.FinalPricePerUnit.Equal(decimal.RequireFromString("49.5")) {
		t.Fatalf("final price = %s, want 49.5", result.FinalPricePerUnit)
	}
}

func TestResolve_NeitherApplies(t *testing.T) {
	t.Parallel()

	result := mustResolve(t, "30", 3, nil, "")

	if result.Discount.IsApplicable {
		t.Fatal("expected no applicable discount")
	}
	if result.Discount.Source != enums.DiscountSourceNone {
		t.Fatalf("source = %s, want none", result.Discount.Source)
	}
	if !result.FinalPricePerUnit.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("final price = %s, want base price", result.FinalPricePerUnit)
	}
	if result.Message() != "" {
		t.Fatalf("message = %q, want empty", result.Message())
	}
	if result.Snapshot() != nil {
		t.Fatal("no-discount result should not snapshot")
	}
}

func TestResolve_FixedDiscountCappedAtUnitPrice(t *testing.T) {
	t.Parallel()

	promo := activePromotion(enums.DiscountTypeFixed, "80")
	result := mustResolve(t, "50", 1, promo, "")

	if !result.FinalPricePerUnit.IsZero() {
		t.Fatalf("final price = %s, want 0", result.FinalPricePerUnit)
	}
	if !result.Discount.AmountPerUnit.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("per-unit discount = %s, want capped 50", result.Discount.AmountPerUnit)
	}
}

func TestResolve_CombinedClampsAtZero(t *testing.T) {
	t.Parallel()

	promo := activePromotion(enums.DiscountTypeFixed, "8")
	result := mustResolve(t, "10", 1, promo, "$6")

	if !result.FinalPricePerUnit.IsZero() {
		t.Fatalf("final price = %s, want 0", result.FinalPricePerUnit)
	}
	if !result.Discount.AmountPerUnit.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("per-unit discount = %s, want clamped 10", result.Discount.AmountPerUnit)
	}
}

func TestResolve_ExpiredPromotionNeverApplies(t *testing.T) {
	t.Parallel()

	promo := activePromotion(enums.DiscountTypePercentage, "10")
	from := frozenNow.Add(-48 * time.Hour)
	to := frozenNow.Add(-24 * time.Hour)
	promo.ValidFrom, promo.ValidTo = &from, &to

	result := mustResolve(t, "100", 1, promo, "")
	if result.Discount.Source != enums.DiscountSourceNone {
		t.Fatalf("source = %s, want none for expired window", result.Discount.Source)
	}
}

func TestResolve_MinimumGatingFallsBackToDeal(t *testing.T) {
	t.Parallel()

	promo := activePromotion(enums.DiscountTypePercentage, "10")
	minimum := decimal.NewFromInt(50)
	promo.MinimumOrderType = enums.MinimumOrderTypeDollarAmount
	promo.MinimumAmount = &minimum

	// Subtotal $10 misses the $50 minimum; only the deal fires.
	result := mustResolve(t, "10", 1, promo, "$2")
	if result.Discount.Source != enums.DiscountSourceDeal {
		t.Fatalf("source = %s, want deal", result.Discount.Source)
	}
	if !result.FinalPricePerUnit.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("final price = %s, want 8", result.FinalPricePerUnit)
	}

	// Without a deal, nothing applies.
	result = mustResolve(t, "10", 1, promo, "")
	if result.Discount.Source != enums.DiscountSourceNone {
		t.Fatalf("source = %s, want none", result.Discount.Source)
	}

	// Quantity lifts the subtotal over the minimum.
	result = mustResolve(t, "10", 5, promo, "")
	if result.Discount.Source != enums.DiscountSourcePromotion {
		t.Fatalf("source = %s, want discount once subtotal clears minimum", result.Discount.Source)
	}
}

func TestResolve_UnparseableDealIsInert(t *testing.T) {
	t.Parallel()

	promo := activePromotion(enums.DiscountTypePercentage, "20")

	withGarbage := mustResolve(t, "45", 2, promo, "buy one get one")
	withEmpty := mustResolve(t, "45", 2, promo, "")

	if !reflect.DeepEqual(withGarbage, withEmpty) {
		t.Fatalf("garbage deal changed the result: %+v vs %+v", withGarbage, withEmpty)
	}
	if withGarbage.Discount.Source != enums.DiscountSourcePromotion {
		t.Fatalf("source = %s, want discount", withGarbage.Discount.Source)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()

	promo := activePromotion(enums.DiscountTypePercentage, "12.5")
	first := mustResolve(t, "19.99", 4, promo, "$1.25")
	second := mustResolve(t, "19.99", 4, promo, "$1.25")

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs diverged: %+v vs %+v", first, second)
	}
}

func TestResolve_InvalidInputs(t *testing.T) {
	t.Parallel()

	if _, err := Resolve(decimal.NewFromInt(-1), 1, nil, "", frozenNow); err == nil {
		t.Fatal("expected error for negative base price")
	}
	if _, err := Resolve(decimal.NewFromInt(10), 0, nil, "", frozenNow); err == nil {
		t.Fatal("expected error for zero quantity")
	}
	if _, err := Resolve(decimal.NewFromInt(10), -2, nil, "", frozenNow); err == nil {
		t.Fatal("expected error for negative quantity")
	}

	_, err := ResolveFloat(math.NaN(), 1, nil, "", frozenNow)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for NaN base price, got %v", err)
	}
	if _, err := ResolveFloat(math.Inf(1), 1, nil, "", frozenNow); err == nil {
		t.Fatal("expected error for infinite base price")
	}
}

func TestResolve_Messages(t *testing.T) {
	t.Parallel()

	promo := activePromotion(enums.DiscountTypePercentage, "10")

	dealOnly := mustResolve(t, "55", 1, nil, "10%")
	if got := dealOnly.Message(); got != "Special deal: save $5.50" {
		t.Fatalf("deal message = %q", got)
	}

	promoOnly := mustResolve(t, "45", 1, promo, "")
	if got := promoOnly.Message(); got != "Discount applied: save $4.50" {
		t.Fatalf("promotion message = %q", got)
	}

	combined := mustResolve(t, "100", 2, promo, "$5")
	if got := combined.Message(); got != "Combo offer: save $30.00" {
		t.Fatalf("combined message = %q", got)
	}
}

func TestResolve_SnapshotConversion(t *testing.T) {
	t.Parallel()

	promo := activePromotion(enums.DiscountTypePercentage, "10")
	result := mustResolve(t, "19.99", 1, promo, "")

	snap := result.Snapshot()
	if snap == nil {
		t.Fatal("expected snapshot for applicable discount")
	}
	if snap.Source != enums.DiscountSourcePromotion {
		t.Fatalf("snapshot source = %s", snap.Source)
	}
	// 10% of $19.99 is $1.999, which rounds to 200 cents.
	if snap.AmountPerUnitCents != 200 {
		t.Fatalf("snapshot cents = %d, want 200", snap.AmountPerUnitCents)
	}
}

func TestMoneyConversions(t *testing.T) {
	t.Parallel()

	if got := DecimalFromCents(1999); !got.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("DecimalFromCents = %s", got)
	}
	if got := CentsFromDecimal(decimal.RequireFromString("19.995")); got != 2000 {
		t.Fatalf("CentsFromDecimal = %d, want 2000", got)
	}
	if got := CentsFromDecimal(decimal.Zero); got != 0 {
		t.Fatalf("CentsFromDecimal zero = %d", got)
	}
}
