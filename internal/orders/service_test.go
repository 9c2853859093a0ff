package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/outbox"
	"github.com/leafline/dispensary-backend/pkg/pagination"
	"github.com/leafline/dispensary-backend/pkg/pricing"
)

var placeNow = time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)

type stubOrderStore struct {
	nextNumber int64
	created    *models.Order
	byID       map[uuid.UUID]*models.Order
	lineStatus *enums.LineItemStatus
}

func (s *stubOrderStore) NextOrderNumberTx(_ *gorm.DB) (int64, error) {
	s.nextNumber++
	return 1000 + s.nextNumber, nil
}

func (s *stubOrderStore) CreateTx(_ *gorm.DB, order *models.Order) error {
	order.ID = uuid.New()
	s.created = order
	return nil
}

func (s *stubOrderStore) FindByID(_ context.Context, _, orderID uuid.UUID) (*models.Order, error) {
	if order, ok := s.byID[orderID]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderStore) ListByParty(_ context.Context, _ uuid.UUID, _ *pagination.Cursor, _ int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderStore) SaveTx(_ *gorm.DB, _ *models.Order) error {
	return nil
}

func (s *stubOrderStore) UpdateLineStatusesTx(_ *gorm.DB, _ uuid.UUID, status enums.LineItemStatus) error {
	s.lineStatus = &status
	return nil
}

type stubCartSource struct {
	cart      *models.CartRecord
	converted []uuid.UUID
}

func (s *stubCartSource) FindActive(_ context.Context, _, _ uuid.UUID) (*models.CartRecord, error) {
	if s.cart == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cart, nil
}

func (s *stubCartSource) MarkConvertedTx(_ *gorm.DB, cartID uuid.UUID, _ time.Time) error {
	s.converted = append(s.converted, cartID)
	return nil
}

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
	deltas   map[uuid.UUID]int
}

func (s *stubCatalog) FindByID(_ context.Context, _, productID uuid.UUID) (*models.Product, error) {
	if product, ok := s.products[productID]; ok {
		return product, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalog) AdjustStockTx(_ *gorm.DB, productID uuid.UUID, delta int) error {
	if s.deltas == nil {
		s.deltas = map[uuid.UUID]int{}
	}
	s.deltas[productID] += delta
	return nil
}

type stubPromotionSource struct {
	promo *pricing.Promotion
}

func (s *stubPromotionSource) ActivePromotion(_ context.Context, _ uuid.UUID, _ time.Time) (*pricing.Promotion, error) {
	return s.promo, nil
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (e *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	e.events = append(e.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fixture struct {
	repo    *stubOrderStore
	carts   *stubCartSource
	catalog *stubCatalog
	promos  *stubPromotionSource
	emitter *stubEmitter
	svc     Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    &stubOrderStore{byID: map[uuid.UUID]*models.Order{}},
		carts:   &stubCartSource{},
		catalog: &stubCatalog{products: map[uuid.UUID]*models.Product{}},
		promos:  &stubPromotionSource{},
		emitter: &stubEmitter{},
	}
	svc, err := NewService(f.repo, f.carts, f.catalog, f.promos, f.emitter, stubTxRunner{}, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	svc.(*service).now = func() time.Time { return placeNow }
	f.svc = svc
	return f
}

func (f *fixture) seedCartWithProduct(priceCents, qty, stock int, deal *string) *models.Product {
	product := &models.Product{
		ID:         uuid.New(),
		Name:       "Test Product",
		Category:   enums.ProductCategoryFlower,
		Unit:       enums.ProductUnitEighth,
		PriceCents: priceCents,
		Deal:       deal,
		StockQty:   stock,
		IsActive:   true,
	}
	f.catalog.products[product.ID] = product
	f.carts.cart = &models.CartRecord{
		ID:           uuid.New(),
		BuyerStoreID: uuid.New(),
		StoreID:      uuid.New(),
		Status:       enums.CartStatusActive,
		Currency:     enums.CurrencyUSD,
		Items: []models.CartItem{{
			ProductID:      product.ID,
			Quantity:       qty,
			UnitPriceCents: priceCents,
			Status:         enums.CartItemStatusOK,
		}},
	}
	return product
}

func activePromotion(value string) *pricing.Promotion {
	from := placeNow.Add(-time.Hour)
	to := placeNow.Add(time.Hour)
	return &pricing.Promotion{
		ID:               uuid.New(),
		Name:             "Order Promo",
		DiscountType:     enums.DiscountTypePercentage,
		DiscountValue:    decimal.RequireFromString(value),
		MinimumOrderType: enums.MinimumOrderTypeNone,
		ValidFrom:        &from,
		ValidTo:          &to,
		Status:           enums.PromotionStatusActive,
	}
}

func TestPlaceOrder_RepricesAndFreezes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	deal := "$5"
	product := f.seedCartWithProduct(10000, 2, 10, &deal)
	f.promos.promo = activePromotion("10")

	dto, err := f.svc.PlaceOrder(context.Background(), uuid.New(), f.carts.cart.BuyerStoreID, PlaceOrderInput{
		StoreID: f.carts.cart.StoreID,
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}

	if dto.Status != enums.OrderStatusPending {
		t.Fatalf("status = %s, want pending", dto.Status)
	}
	if dto.OrderNumber != 1001 {
		t.Fatalf("order number = %d", dto.OrderNumber)
	}
	// $100 base, 10% + $5 per unit, qty 2.
	if dto.SubtotalCents != 20000 || dto.DiscountsCents != 3000 || dto.TotalCents != 17000 {
		t.Fatalf("totals off: %+v", dto)
	}
	if dto.PromotionSnapshot == nil || dto.PromotionSnapshot.Name != "Order Promo" {
		t.Fatal("expected promotion snapshot frozen on the order")
	}
	line := dto.Items[0]
	if line.Deal == nil || *line.Deal != "$5" {
		t.Fatal("expected deal string frozen on the line")
	}
	if line.AppliedDiscount == nil || line.AppliedDiscount.Source != enums.DiscountSourceCombined {
		t.Fatalf("unexpected line discount: %+v", line.AppliedDiscount)
	}

	if f.catalog.deltas[product.ID] != -2 {
		t.Fatalf("stock delta = %d, want -2", f.catalog.deltas[product.ID])
	}
	if len(f.carts.converted) != 1 || f.carts.converted[0] != f.carts.cart.ID {
		t.Fatal("cart was not converted")
	}
	if len(f.emitter.events) != 2 {
		t.Fatalf("events = %d, want order_created and cart_converted", len(f.emitter.events))
	}
	if f.emitter.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("first event = %s", f.emitter.events[0].EventType)
	}
	if f.emitter.events[1].EventType != enums.EventCartConverted {
		t.Fatalf("second event = %s", f.emitter.events[1].EventType)
	}
}

func TestPlaceOrder_PriceDriftRejectedWhenExpectedTotalGiven(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedCartWithProduct(10000, 1, 10, nil)

	// Buyer quoted $90 earlier; repricing now yields $100.
	expected := 9000
	_, err := f.svc.PlaceOrder(context.Background(), uuid.New(), f.carts.cart.BuyerStoreID, PlaceOrderInput{
		StoreID:            f.carts.cart.StoreID,
		ExpectedTotalCents: &expected,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if f.repo.created != nil {
		t.Fatal("order must not be created on total drift")
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedCartWithProduct(5000, 4, 2, nil)

	_, err := f.svc.PlaceOrder(context.Background(), uuid.New(), f.carts.cart.BuyerStoreID, PlaceOrderInput{
		StoreID: f.carts.cart.StoreID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestPlaceOrder_NoActiveCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), uuid.New(), uuid.New(), PlaceOrderInput{StoreID: uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlaceOrder_SkipsUnavailableLines(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedCartWithProduct(5000, 1, 10, nil)
	f.carts.cart.Items = append(f.carts.cart.Items, models.CartItem{
		ProductID: uuid.New(),
		Quantity:  1,
		Status:    enums.CartItemStatusNotAvailable,
	})

	dto, err := f.svc.PlaceOrder(context.Background(), uuid.New(), f.carts.cart.BuyerStoreID, PlaceOrderInput{
		StoreID: f.carts.cart.StoreID,
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("items = %d, want unavailable line dropped", len(dto.Items))
	}
}

func TestUpdateOrderStatus_Lifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := uuid.New()
	order := &models.Order{
		ID:           uuid.New(),
		BuyerStoreID: uuid.New(),
		StoreID:      uuid.New(),
		Status:       enums.OrderStatusPending,
		Items: []models.OrderLineItem{{
			ID:        uuid.New(),
			ProductID: &productID,
			Qty:       2,
			Status:    enums.LineItemStatusPending,
		}},
	}
	f.repo.byID[order.ID] = order

	dto, err := f.svc.UpdateOrderStatus(context.Background(), uuid.New(), order.StoreID, order.ID, enums.OrderStatusAccepted)
	if err != nil {
		t.Fatalf("accept returned error: %v", err)
	}
	if dto.Status != enums.OrderStatusAccepted {
		t.Fatalf("status = %s", dto.Status)
	}

	dto, err = f.svc.UpdateOrderStatus(context.Background(), uuid.New(), order.StoreID, order.ID, enums.OrderStatusFulfilled)
	if err != nil {
		t.Fatalf("fulfill returned error: %v", err)
	}
	if dto.FulfilledAt == nil {
		t.Fatal("expected fulfilled timestamp")
	}
	if f.repo.lineStatus == nil || *f.repo.lineStatus != enums.LineItemStatusFulfilled {
		t.Fatalf("line status = %v", f.repo.lineStatus)
	}

	// Fulfilled is terminal.
	_, err = f.svc.UpdateOrderStatus(context.Background(), uuid.New(), order.StoreID, order.ID, enums.OrderStatusCanceled)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateOrderStatus_CancelRestocksAndEmits(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := uuid.New()
	order := &models.Order{
		ID:           uuid.New(),
		BuyerStoreID: uuid.New(),
		StoreID:      uuid.New(),
		Status:       enums.OrderStatusPending,
		Items: []models.OrderLineItem{{
			ID:        uuid.New(),
			ProductID: &productID,
			Qty:       3,
			Status:    enums.LineItemStatusPending,
		}},
	}
	f.repo.byID[order.ID] = order

	dto, err := f.svc.UpdateOrderStatus(context.Background(), uuid.New(), order.BuyerStoreID, order.ID, enums.OrderStatusCanceled)
	if err != nil {
		t.Fatalf("cancel returned error: %v", err)
	}
	if dto.CanceledAt == nil {
		t.Fatal("expected canceled timestamp")
	}
	if f.catalog.deltas[productID] != 3 {
		t.Fatalf("restock delta = %d, want 3", f.catalog.deltas[productID])
	}
	var seen []enums.OutboxEventType
	for _, event := range f.emitter.events {
		seen = append(seen, event.EventType)
	}
	if len(seen) != 2 || seen[0] != enums.EventOrderStateChanged || seen[1] != enums.EventOrderCanceled {
		t.Fatalf("events = %v", seen)
	}
}
