package orders

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
	"github.com/leafline/dispensary-backend/pkg/outbox"
	"github.com/leafline/dispensary-backend/pkg/pagination"
	"github.com/leafline/dispensary-backend/pkg/pricing"
)

// Service converts carts into orders and walks them through their lifecycle.
type Service interface {
	PlaceOrder(ctx context.Context, actorID, buyerStoreID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, partyStoreID, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, partyStoreID uuid.UUID, params pagination.Params) (*OrderListResult, error)
	UpdateOrderStatus(ctx context.Context, actorID, partyStoreID, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error)
}

type orderStore interface {
	NextOrderNumberTx(tx *gorm.DB) (int64, error)
	CreateTx(tx *gorm.DB, order *models.Order) error
	FindByID(ctx context.Context, partyStoreID, orderID uuid.UUID) (*models.Order, error)
	ListByParty(ctx context.Context, partyStoreID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	SaveTx(tx *gorm.DB, order *models.Order) error
	UpdateLineStatusesTx(tx *gorm.DB, orderID uuid.UUID, status enums.LineItemStatus) error
}

type cartSource interface {
	FindActive(ctx context.Context, buyerStoreID, storeID uuid.UUID) (*models.CartRecord, error)
	MarkConvertedTx(tx *gorm.DB, cartID uuid.UUID, at time.Time) error
}

type catalog interface {
	FindByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
	AdjustStockTx(tx *gorm.DB, productID uuid.UUID, delta int) error
}

type promotionSource interface {
	ActivePromotion(ctx context.Context, storeID uuid.UUID, now time.Time) (*pricing.Promotion, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     orderStore
	carts    cartSource
	products catalog
	promos   promotionSource
	events   eventEmitter
	dbClient txRunner
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the order service with its collaborators.
func NewService(repo orderStore, carts cartSource, products catalog, promos promotionSource, events eventEmitter, dbClient txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart source is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog is required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promotion source is required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{
		repo:     repo,
		carts:    carts,
		products: products,
		promos:   promos,
		events:   events,
		dbClient: dbClient,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// PlaceOrder reprices the buyer's active cart line by line and freezes the
// result. Prices are never copied from the stored cart; the cart is a display
// snapshot and only the resolver's answer at placement time is charged.
func (s *service) PlaceOrder(ctx context.Context, actorID, buyerStoreID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error) {
	cart, err := s.carts.FindActive(ctx, buyerStoreID, input.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no active cart to place")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load active cart")
	}

	now := s.now()
	promo, err := s.promos.ActivePromotion(ctx, input.StoreID, now)
	if err != nil {
		return nil, err
	}

	lines := make([]models.OrderLineItem, 0, len(cart.Items))
	stockDeltas := make(map[uuid.UUID]int, len(cart.Items))
	subtotal, discounts, total := 0, 0, 0
	promotionApplied := false
	for _, item := range cart.Items {
		if item.Status != enums.CartItemStatusOK {
			continue
		}
		line, err := s.repriceLine(ctx, input.StoreID, item, promo, now)
		if err != nil {
			return nil, err
		}
		if line.AppliedDiscount != nil {
			source := line.AppliedDiscount.Source
			if source == enums.DiscountSourcePromotion || source == enums.DiscountSourceCombined {
				promotionApplied = true
			}
		}
		subtotal += line.UnitPriceCents * line.Qty
		discounts += line.DiscountCents
		total += line.TotalCents
		stockDeltas[*line.ProductID] = -line.Qty
		lines = append(lines, *line)
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no purchasable items")
	}
	if input.ExpectedTotalCents != nil && *input.ExpectedTotalCents != total {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart total changed since the last quote")
	}

	cartID := cart.ID
	order := &models.Order{
		CartID:         &cartID,
		BuyerStoreID:   buyerStoreID,
		StoreID:        input.StoreID,
		Currency:       cart.Currency,
		Status:         enums.OrderStatusPending,
		SubtotalCents:  subtotal,
		DiscountsCents: discounts,
		TotalCents:     total,
		Notes:          input.Notes,
		PlacedAt:       now,
		Items:          lines,
	}
	if promotionApplied {
		order.PromotionSnapshot = promo.Snapshot()
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.repo.NextOrderNumberTx(tx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: next order number")
		}
		order.OrderNumber = number
		if err := s.repo.CreateTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}
		for productID, delta := range stockDeltas {
			if err := s.products.AdjustStockTx(tx, productID, delta); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "insufficient stock at placement")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: adjust stock")
			}
		}
		if err := s.carts.MarkConvertedTx(tx, cart.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: convert cart")
		}
		actor := &outbox.ActorRef{UserID: actorID, StoreID: &buyerStoreID}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Version:       1,
			OccurredAt:    now,
			Data: outbox.OrderCreatedPayload{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				BuyerStoreID:   order.BuyerStoreID,
				StoreID:        order.StoreID,
				SubtotalCents:  order.SubtotalCents,
				DiscountsCents: order.DiscountsCents,
				TotalCents:     order.TotalCents,
			},
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartConverted,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Actor:         actor,
			Version:       1,
			OccurredAt:    now,
			Data:          map[string]any{"cartId": cart.ID, "orderId": order.ID},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: place order transaction")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"total_cents":  order.TotalCents,
		})
		s.logg.Info(logCtx, "order placed")
	}
	return NewOrderDTO(order), nil
}

func (s *service) GetOrder(ctx context.Context, partyStoreID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, partyStoreID, orderID)
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, partyStoreID uuid.UUID, params pagination.Params) (*OrderListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListByParty(ctx, partyStoreID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}

	result := &OrderListResult{Items: make([]OrderDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Items = append(result.Items, *NewOrderDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, actorID, partyStoreID, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", target))
	}
	order, err := s.findOrder(ctx, partyStoreID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order cannot move from %s to %s", order.Status, target))
	}

	now := s.now()
	previous := order.Status
	order.Status = target
	var lineStatus *enums.LineItemStatus
	switch target {
	case enums.OrderStatusFulfilled:
		order.FulfilledAt = &now
		status := enums.LineItemStatusFulfilled
		lineStatus = &status
	case enums.OrderStatusCanceled:
		order.CanceledAt = &now
		status := enums.LineItemStatusCanceled
		lineStatus = &status
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.SaveTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
		}
		if lineStatus != nil {
			if err := s.repo.UpdateLineStatusesTx(tx, order.ID, *lineStatus); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update line statuses")
			}
			for i := range order.Items {
				order.Items[i].Status = *lineStatus
			}
		}
		// Canceled orders restock what pending lines reserved.
		if target == enums.OrderStatusCanceled {
			for _, line := range order.Items {
				if line.ProductID == nil {
					continue
				}
				if err := s.products.AdjustStockTx(tx, *line.ProductID, line.Qty); err != nil &&
					!errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: restock canceled line")
				}
			}
		}
		actor := &outbox.ActorRef{UserID: actorID, StoreID: &partyStoreID}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStateChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Version:       1,
			OccurredAt:    now,
			Data: outbox.OrderStateChangedPayload{
				OrderID:    order.ID,
				FromStatus: string(previous),
				ToStatus:   string(target),
			},
		}); err != nil {
			return err
		}
		if target != enums.OrderStatusCanceled {
			return nil
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Version:       1,
			OccurredAt:    now,
			Data: outbox.OrderStateChangedPayload{
				OrderID:    order.ID,
				FromStatus: string(previous),
				ToStatus:   string(target),
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: order status transaction")
	}
	return NewOrderDTO(order), nil
}

func (s *service) findOrder(ctx context.Context, partyStoreID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, partyStoreID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find order")
	}
	return order, nil
}

func (s *service) repriceLine(ctx context.Context, storeID uuid.UUID, item models.CartItem, promo *pricing.Promotion, now time.Time) (*models.OrderLineItem, error) {
	product, err := s.products.FindByID(ctx, storeID, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "a cart item is no longer listed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a cart item is no longer available")
	}
	if product.StockQty < item.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock for a cart item")
	}

	unitPriceCents := product.PriceCents
	for _, tier := range product.VolumeDiscounts {
		if item.Quantity >= tier.MinQty && tier.UnitPriceCents < unitPriceCents {
			unitPriceCents = tier.UnitPriceCents
		}
	}
	deal := ""
	if product.Deal != nil {
		deal = *product.Deal
	}
	result, err := pricing.Resolve(pricing.DecimalFromCents(unitPriceCents), item.Quantity, promo, deal, now)
	if err != nil {
		return nil, err
	}

	productID := product.ID
	return &models.OrderLineItem{
		ProductID:       &productID,
		Name:            product.Name,
		Category:        string(product.Category),
		Unit:            product.Unit,
		UnitPriceCents:  unitPriceCents,
		Qty:             item.Quantity,
		Deal:            product.Deal,
		AppliedDiscount: result.Snapshot(),
		DiscountCents:   pricing.CentsFromDecimal(result.LineDiscount()),
		TotalCents:      pricing.CentsFromDecimal(result.LineTotal()),
		Status:          enums.LineItemStatusPending,
	}, nil
}
