package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/types"
)

var placedAt = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

type stubOrderLoader struct {
	orders map[uuid.UUID]*models.Order
}

func (s *stubOrderLoader) FindByID(_ context.Context, _, orderID uuid.UUID) (*models.Order, error) {
	if order, ok := s.orders[orderID]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubStoreLoader struct {
	stores map[uuid.UUID]*models.Store
}

func (s *stubStoreLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	if store, ok := s.stores[id]; ok {
		return store, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func promotionSnapshot() *types.PromotionSnapshot {
	from := placedAt.Add(-24 * time.Hour)
	to := placedAt.Add(24 * time.Hour)
	return &types.PromotionSnapshot{
		ID:               uuid.New(),
		Name:             "March Madness",
		DiscountType:     enums.DiscountTypePercentage,
		DiscountValue:    "10",
		MinimumOrderType: enums.MinimumOrderTypeNone,
		ValidFrom:        &from,
		ValidTo:          &to,
		Status:           enums.PromotionStatusActive,
	}
}

func seedOrder(snapshot *types.PromotionSnapshot, deal *string) (*stubOrderLoader, *stubStoreLoader, *models.Order) {
	seller := &models.Store{ID: uuid.New(), Name: "Seller", Address: types.Address{City: "Tulsa", State: "OK"}}
	buyer := &models.Store{ID: uuid.New(), Name: "Buyer", Address: types.Address{City: "Edmond", State: "OK"}}

	order := &models.Order{
		ID:                uuid.New(),
		BuyerStoreID:      buyer.ID,
		StoreID:           seller.ID,
		OrderNumber:       1042,
		Currency:          enums.CurrencyUSD,
		Status:            enums.OrderStatusFulfilled,
		PromotionSnapshot: snapshot,
		PlacedAt:          placedAt,
		Items: []models.OrderLineItem{{
			ID:             uuid.New(),
			Name:           "Blue Dream 1/8",
			Category:       "flower",
			Unit:           enums.ProductUnitEighth,
			UnitPriceCents: 10000,
			Qty:            2,
			Deal:           deal,
			DiscountCents:  3000,
			TotalCents:     17000,
			Status:         enums.LineItemStatusFulfilled,
		}},
	}
	orders := &stubOrderLoader{orders: map[uuid.UUID]*models.Order{order.ID: order}}
	stores := &stubStoreLoader{stores: map[uuid.UUID]*models.Store{seller.ID: seller, buyer.ID: buyer}}
	return orders, stores, order
}

func TestBuildInvoice_ReplaysFrozenTerms(t *testing.T) {
	t.Parallel()

	deal := "$5"
	orders, stores, order := seedOrder(promotionSnapshot(), &deal)
	svc, err := NewService(orders, stores, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	issuedAt := placedAt.AddDate(1, 0, 0)
	doc, err := svc.BuildInvoice(context.Background(), order.StoreID, order.ID, issuedAt)
	if err != nil {
		t.Fatalf("BuildInvoice returned error: %v", err)
	}

	if doc.Number != "INV-001042" {
		t.Fatalf("number = %q", doc.Number)
	}
	// Replay must match what was stored at placement even though the
	// promotion window has long expired by the issue date.
	if doc.SubtotalCents != 20000 || doc.DiscountCents != 3000 || doc.TotalCents != 17000 {
		t.Fatalf("totals off: %+v", doc)
	}
	line := doc.Lines[0]
	if line.DiscountSource != enums.DiscountSourceCombined {
		t.Fatalf("discount source = %s", line.DiscountSource)
	}
	if line.DiscountDisplay != "10% + $5.00" {
		t.Fatalf("discount display = %q", line.DiscountDisplay)
	}
	if doc.PromotionName != "March Madness" {
		t.Fatalf("promotion name = %q", doc.PromotionName)
	}
	if doc.Seller.Name != "Seller" || doc.Buyer.Name != "Buyer" {
		t.Fatalf("parties off: %+v", doc)
	}
}

func TestBuildInvoice_NoPromotionNoDeal(t *testing.T) {
	t.Parallel()

	orders, stores, order := seedOrder(nil, nil)
	order.Items[0].DiscountCents = 0
	order.Items[0].TotalCents = 20000
	svc, err := NewService(orders, stores, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	doc, err := svc.BuildInvoice(context.Background(), order.StoreID, order.ID, time.Now())
	if err != nil {
		t.Fatalf("BuildInvoice returned error: %v", err)
	}
	if doc.DiscountCents != 0 || doc.TotalCents != 20000 {
		t.Fatalf("totals off: %+v", doc)
	}
	if doc.Lines[0].DiscountDisplay != "" {
		t.Fatalf("unexpected discount display %q", doc.Lines[0].DiscountDisplay)
	}
}

func TestBuildInvoice_SkipsCanceledLines(t *testing.T) {
	t.Parallel()

	orders, stores, order := seedOrder(nil, nil)
	order.Items[0].Status = enums.LineItemStatusCanceled
	svc, err := NewService(orders, stores, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	doc, err := svc.BuildInvoice(context.Background(), order.StoreID, order.ID, time.Now())
	if err != nil {
		t.Fatalf("BuildInvoice returned error: %v", err)
	}
	if len(doc.Lines) != 0 || doc.TotalCents != 0 {
		t.Fatalf("canceled lines must not invoice: %+v", doc)
	}
}

func TestBuildInvoice_CanceledOrderRejected(t *testing.T) {
	t.Parallel()

	orders, stores, order := seedOrder(nil, nil)
	order.Status = enums.OrderStatusCanceled
	svc, err := NewService(orders, stores, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	_, err = svc.BuildInvoice(context.Background(), order.StoreID, order.ID, time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestBuildInvoice_OrderNotFound(t *testing.T) {
	t.Parallel()

	orders, stores, _ := seedOrder(nil, nil)
	svc, err := NewService(orders, stores, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	_, err = svc.BuildInvoice(context.Background(), uuid.New(), uuid.New(), time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
