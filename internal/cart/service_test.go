package cart

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/logger"
	"github.com/leafline/dispensary-backend/pkg/pricing"
	"github.com/leafline/dispensary-backend/pkg/types"
)

var quoteNow = time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)

type stubCartStore struct {
	active *models.CartRecord
	saved  *models.CartRecord
}

func (s *stubCartStore) FindActive(_ context.Context, _, _ uuid.UUID) (*models.CartRecord, error) {
	if s.active == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.active, nil
}

func (s *stubCartStore) SaveQuoteTx(_ *gorm.DB, cart *models.CartRecord) error {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	s.saved = cart
	return nil
}

type stubProductLoader struct {
	products map[uuid.UUID]*models.Product
	loadErr  error
}

func (s *stubProductLoader) FindByID(_ context.Context, _, productID uuid.UUID) (*models.Product, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if product, ok := s.products[productID]; ok {
		return product, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubPromotionSource struct {
	promo *pricing.Promotion
}

func (s *stubPromotionSource) ActivePromotion(_ context.Context, _ uuid.UUID, _ time.Time) (*pricing.Promotion, error) {
	return s.promo, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func activePromotion(discountType enums.DiscountType, value string) *pricing.Promotion {
	from := quoteNow.Add(-24 * time.Hour)
	to := quoteNow.Add(24 * time.Hour)
	return &pricing.Promotion{
		ID:               uuid.New(),
		Name:             "Test Promotion",
		DiscountType:     discountType,
		DiscountValue:    decimal.RequireFromString(value),
		MinimumOrderType: enums.MinimumOrderTypeNone,
		ValidFrom:        &from,
		ValidTo:          &to,
		Status:           enums.PromotionStatusActive,
	}
}

func testProduct(priceCents, stock, maxQty int, deal *string) *models.Product {
	return &models.Product{
		ID:         uuid.New(),
		SKU:        "SKU-1",
		Name:       "Test Product",
		Category:   enums.ProductCategoryFlower,
		Unit:       enums.ProductUnitEighth,
		PriceCents: priceCents,
		Deal:       deal,
		StockQty:   stock,
		MaxQty:     maxQty,
		IsActive:   true,
	}
}

func newTestService(t *testing.T, repo *stubCartStore, loader *stubProductLoader, promos *stubPromotionSource) Service {
	t.Helper()
	svc, err := NewService(repo, loader, promos, stubTxRunner{}, nil, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	svc.(*service).now = func() time.Time { return quoteNow }
	return svc
}

func TestQuote_PromotionAndDealStack(t *testing.T) {
	t.Parallel()

	deal := "$5"
	product := testProduct(10000, 10, 0, &deal)
	repo := &stubCartStore{}
	loader := &stubProductLoader{products: map[uuid.UUID]*models.Product{product.ID: product}}
	promos := &stubPromotionSource{promo: activePromotion(enums.DiscountTypePercentage, "10")}
	svc := newTestService(t, repo, loader, promos)

	dto, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{
		StoreID: uuid.New(),
		Items:   []QuoteItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}

	if len(dto.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(dto.Items))
	}
	line := dto.Items[0]
	// $100 base, 10% promo plus $5 deal is $15 off per unit.
	if line.DiscountCents != 3000 || line.LineTotalCents != 17000 {
		t.Fatalf("line math off: discount=%d total=%d", line.DiscountCents, line.LineTotalCents)
	}
	if line.AppliedDiscount == nil || line.AppliedDiscount.Source != enums.DiscountSourceCombined {
		t.Fatalf("unexpected discount snapshot: %+v", line.AppliedDiscount)
	}
	if dto.AppliedPromotionID == nil {
		t.Fatal("expected applied promotion recorded on the cart")
	}
	if dto.SubtotalCents != 20000 || dto.TotalCents != 17000 {
		t.Fatalf("cart totals off: %+v", dto)
	}
}

func TestQuote_QuantityClamping(t *testing.T) {
	t.Parallel()

	product := testProduct(5000, 3, 0, nil)
	repo := &stubCartStore{}
	loader := &stubProductLoader{products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc := newTestService(t, repo, loader, &stubPromotionSource{})

	dto, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{
		StoreID: uuid.New(),
		Items:   []QuoteItemInput{{ProductID: product.ID, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	line := dto.Items[0]
	if line.Quantity != 3 {
		t.Fatalf("quantity = %d, want clamped to 3", line.Quantity)
	}
	if !hasWarning(line.Warnings, enums.CartItemWarningTypeClampedToStock) {
		t.Fatalf("missing stock clamp warning: %+v", line.Warnings)
	}

	dto, err = svc.Quote(context.Background(), uuid.New(), QuoteInput{
		StoreID: uuid.New(),
		Items:   []QuoteItemInput{{ProductID: product.ID, Quantity: 0}},
	})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	line = dto.Items[0]
	if line.Quantity != 1 || !hasWarning(line.Warnings, enums.CartItemWarningTypeClampedToMin) {
		t.Fatalf("expected minimum clamp: %+v", line)
	}
}

func TestQuote_MaxQtyBeatsStock(t *testing.T) {
	t.Parallel()

	product := testProduct(5000, 50, 2, nil)
	loader := &stubProductLoader{products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc := newTestService(t, &stubCartStore{}, loader, &stubPromotionSource{})

	dto, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{
		StoreID: uuid.New(),
		Items:   []QuoteItemInput{{ProductID: product.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if dto.Items[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want per-order max 2", dto.Items[0].Quantity)
	}
}

func TestQuote_VolumeTierRewritesUnitPrice(t *testing.T) {
	t.Parallel()

	product := testProduct(4500, 20, 0, nil)
	product.VolumeDiscounts = []models.ProductVolumeDiscount{
		{MinQty: 4, UnitPriceCents: 4000},
		{MinQty: 8, UnitPriceCents: 3500},
	}
	loader := &stubProductLoader{products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc := newTestService(t, &stubCartStore{}, loader, &stubPromotionSource{})

	dto, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{
		StoreID: uuid.New(),
		Items:   []QuoteItemInput{{ProductID: product.ID, Quantity: 8}},
	})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	line := dto.Items[0]
	if line.UnitPriceCents != 3500 {
		t.Fatalf("unit price = %d, want deepest tier 3500", line.UnitPriceCents)
	}
	if line.LineSubtotalCents != 28000 {
		t.Fatalf("line subtotal = %d", line.LineSubtotalCents)
	}
}

func TestQuote_UnavailableAndMissingProducts(t *testing.T) {
	t.Parallel()

	inactive := testProduct(5000, 10, 0, nil)
	inactive.IsActive = false
	loader := &stubProductLoader{products: map[uuid.UUID]*models.Product{inactive.ID: inactive}}
	svc := newTestService(t, &stubCartStore{}, loader, &stubPromotionSource{})

	missingID := uuid.New()
	dto, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{
		StoreID: uuid.New(),
		Items: []QuoteItemInput{
			{ProductID: inactive.ID, Quantity: 1},
			{ProductID: missingID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if len(dto.Items) != 2 {
		t.Fatalf("items = %d, want both lines kept", len(dto.Items))
	}
	for _, line := range dto.Items {
		if line.Status != enums.CartItemStatusNotAvailable {
			t.Fatalf("line status = %s, want not_available", line.Status)
		}
		if !hasWarning(line.Warnings, enums.CartItemWarningTypeNotAvailable) {
			t.Fatalf("missing availability warning: %+v", line.Warnings)
		}
	}
	if dto.SubtotalCents != 0 || dto.TotalCents != 0 {
		t.Fatalf("unavailable lines must not contribute to totals: %+v", dto)
	}
}

func TestQuote_InvalidDealWarnsButPrices(t *testing.T) {
	t.Parallel()

	deal := "buy one get one"
	product := testProduct(5000, 10, 0, &deal)
	loader := &stubProductLoader{products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc := newTestService(t, &stubCartStore{}, loader, &stubPromotionSource{})

	dto, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{
		StoreID: uuid.New(),
		Items:   []QuoteItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	line := dto.Items[0]
	if !hasWarning(line.Warnings, enums.CartItemWarningTypeInvalidDeal) {
		t.Fatalf("missing invalid deal warning: %+v", line.Warnings)
	}
	if line.LineTotalCents != 5000 || line.DiscountCents != 0 {
		t.Fatalf("opaque deal must not discount: %+v", line)
	}
}

func TestQuote_PriceChangeWarning(t *testing.T) {
	t.Parallel()

	product := testProduct(4200, 10, 0, nil)
	previous := &models.CartRecord{
		ID:     uuid.New(),
		Status: enums.CartStatusActive,
		Items: []models.CartItem{{
			ProductID:      product.ID,
			Quantity:       1,
			UnitPriceCents: 4500,
		}},
	}
	loader := &stubProductLoader{products: map[uuid.UUID]*models.Product{product.ID: product}}
	repo := &stubCartStore{active: previous}
	svc := newTestService(t, repo, loader, &stubPromotionSource{})

	dto, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{
		StoreID: uuid.New(),
		Items:   []QuoteItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if !hasWarning(dto.Items[0].Warnings, enums.CartItemWarningTypePriceChanged) {
		t.Fatalf("missing price change warning: %+v", dto.Items[0].Warnings)
	}
	if dto.ID != previous.ID {
		t.Fatal("requoting must keep the existing cart identity")
	}
}

func TestQuote_SelfPurchaseRejected(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartStore{}, &stubProductLoader{}, &stubPromotionSource{})
	storeID := uuid.New()

	_, err := svc.Quote(context.Background(), storeID, QuoteInput{
		StoreID: storeID,
		Items:   []QuoteItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetActiveCart_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartStore{}, &stubProductLoader{}, &stubPromotionSource{})
	_, err := svc.GetActiveCart(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetActiveCart_LookupFailureIsLoggedNotFatal(t *testing.T) {
	t.Parallel()

	var logged bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "cart-test", Output: &logged})

	productID := uuid.New()
	repo := &stubCartStore{active: &models.CartRecord{
		ID:           uuid.New(),
		BuyerStoreID: uuid.New(),
		StoreID:      uuid.New(),
		Status:       enums.CartStatusActive,
		Currency:     enums.CurrencyUSD,
		Items: []models.CartItem{{
			ProductID:      productID,
			Quantity:       1,
			UnitPriceCents: 4500,
			Status:         enums.CartItemStatusOK,
		}},
	}}
	loader := &stubProductLoader{loadErr: errors.New("connection reset")}

	svc, err := NewService(repo, loader, &stubPromotionSource{}, stubTxRunner{}, logg, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	dto, err := svc.GetActiveCart(context.Background(), repo.active.BuyerStoreID, repo.active.StoreID)
	if err != nil {
		t.Fatalf("GetActiveCart returned error: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].ProductName != "" {
		t.Fatalf("items = %+v, want one unnamed line", dto.Items)
	}
	if !strings.Contains(logged.String(), "loading product name for cart item") {
		t.Fatalf("lookup failure not logged: %s", logged.String())
	}
}

func hasWarning(warnings types.CartItemWarnings, kind enums.CartItemWarningType) bool {
	for _, warning := range warnings {
		if warning.Type == kind {
			return true
		}
	}
	return false
}
