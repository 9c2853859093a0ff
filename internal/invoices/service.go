package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/logger"
	"github.com/leafline/dispensary-backend/pkg/pricing"
)

// Service renders invoices for placed orders. Amounts are not read from the
// order rows; each line is recomputed by the resolver from the terms frozen
// at placement, so an invoice generated years later still shows the math the
// buyer was charged.
type Service interface {
	BuildInvoice(ctx context.Context, partyStoreID, orderID uuid.UUID, issuedAt time.Time) (*Document, error)
}

type orderLoader interface {
	FindByID(ctx context.Context, partyStoreID, orderID uuid.UUID) (*models.Order, error)
}

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type service struct {
	orders orderLoader
	stores storeLoader
	logg   *logger.Logger
}

// NewService wires the invoice service with its collaborators.
func NewService(orders orderLoader, stores storeLoader, logg *logger.Logger) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order loader is required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store loader is required")
	}
	return &service{orders: orders, stores: stores, logg: logg}, nil
}

func (s *service) BuildInvoice(ctx context.Context, partyStoreID, orderID uuid.UUID, issuedAt time.Time) (*Document, error) {
	order, err := s.orders.FindByID(ctx, partyStoreID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find order")
	}
	if order.Status == enums.OrderStatusCanceled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "canceled orders are not invoiced")
	}

	seller, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load seller store")
	}
	buyer, err := s.stores.FindByID(ctx, order.BuyerStoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load buyer store")
	}

	promo := pricing.FromSnapshot(order.PromotionSnapshot)
	doc := &Document{
		Number:      fmt.Sprintf("INV-%06d", order.OrderNumber),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Currency:    order.Currency,
		IssuedAt:    issuedAt,
		PlacedAt:    order.PlacedAt,
		Seller:      newParty(seller),
		Buyer:       newParty(buyer),
	}
	if order.PromotionSnapshot != nil {
		doc.PromotionName = order.PromotionSnapshot.Name
	}

	for _, line := range order.Items {
		if line.Status == enums.LineItemStatusCanceled {
			continue
		}
		deal := ""
		if line.Deal != nil {
			deal = *line.Deal
		}
		// Replay against the placement clock so the frozen window still holds.
		result, err := pricing.Resolve(pricing.DecimalFromCents(line.UnitPriceCents), line.Qty, promo, deal, order.PlacedAt)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "repricing invoice line")
		}

		invoiceLine := Line{
			Description:    line.Name,
			Unit:           line.Unit,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
			DiscountCents:  pricing.CentsFromDecimal(result.LineDiscount()),
			TotalCents:     pricing.CentsFromDecimal(result.LineTotal()),
		}
		if result.Discount.IsApplicable {
			invoiceLine.DiscountDisplay = result.Discount.Display
			invoiceLine.DiscountSource = result.Discount.Source
		}
		if invoiceLine.TotalCents != line.TotalCents && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_id":     order.ID.String(),
				"line_id":      line.ID.String(),
				"stored_cents": line.TotalCents,
				"replay_cents": invoiceLine.TotalCents,
			})
			s.logg.Warn(logCtx, "invoice replay disagrees with stored line total")
		}

		doc.SubtotalCents += line.UnitPriceCents * line.Qty
		doc.DiscountCents += invoiceLine.DiscountCents
		doc.TotalCents += invoiceLine.TotalCents
		doc.Lines = append(doc.Lines, invoiceLine)
	}
	return doc, nil
}
