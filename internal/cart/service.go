package cart

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
	"github.com/leafline/dispensary-backend/pkg/metrics"
	"github.com/leafline/dispensary-backend/pkg/pricing"
	"github.com/leafline/dispensary-backend/pkg/types"
)

// Service quotes and persists buyer carts. Every price shown to a buyer is
// produced here so carts, orders, and invoices cannot disagree on math.
type Service interface {
	Quote(ctx context.Context, buyerStoreID uuid.UUID, input QuoteInput) (*CartDTO, error)
	GetActiveCart(ctx context.Context, buyerStoreID, storeID uuid.UUID) (*CartDTO, error)
}

type cartStore interface {
	FindActive(ctx context.Context, buyerStoreID, storeID uuid.UUID) (*models.CartRecord, error)
	SaveQuoteTx(tx *gorm.DB, cart *models.CartRecord) error
}

type productLoader interface {
	FindByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
}

type promotionSource interface {
	ActivePromotion(ctx context.Context, storeID uuid.UUID, now time.Time) (*pricing.Promotion, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     cartStore
	products productLoader
	promos   promotionSource
	dbClient txRunner
	logg     *logger.Logger
	pricing  *metrics.PricingMetrics
	now      func() time.Time
}

// NewService wires the cart service with its collaborators.
func NewService(repo cartStore, products productLoader, promos promotionSource, dbClient txRunner, logg *logger.Logger, pricingMetrics *metrics.PricingMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader is required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promotion source is required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{
		repo:     repo,
		products: products,
		promos:   promos,
		dbClient: dbClient,
		logg:     logg,
		pricing:  pricingMetrics,
		now:      time.Now,
	}, nil
}

// quotedLine pairs a persisted item with quote-time context that is not
// stored, like the product name and the discount message.
type quotedLine struct {
	item    models.CartItem
	name    string
	message string
}

func (s *service) Quote(ctx context.Context, buyerStoreID uuid.UUID, input QuoteInput) (*CartDTO, error) {
	if buyerStoreID == input.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a store cannot buy from itself")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	now := s.now()
	promo, err := s.promos.ActivePromotion(ctx, input.StoreID, now)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindActive(ctx, buyerStoreID, input.StoreID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load active cart")
	}
	previousPrices := map[uuid.UUID]int{}
	if existing != nil {
		for _, item := range existing.Items {
			previousPrices[item.ProductID] = item.UnitPriceCents
		}
	}

	lines := make([]quotedLine, 0, len(input.Items))
	var promotionApplied bool
	for _, requested := range input.Items {
		line, err := s.quoteLine(ctx, input.StoreID, requested, promo, previousPrices, now)
		if err != nil {
			return nil, err
		}
		if line.item.AppliedDiscount != nil {
			source := line.item.AppliedDiscount.Source
			if source == enums.DiscountSourcePromotion || source == enums.DiscountSourceCombined {
				promotionApplied = true
			}
		}
		lines = append(lines, *line)
	}

	cart := existing
	if cart == nil {
		cart = &models.CartRecord{
			BuyerStoreID: buyerStoreID,
			StoreID:      input.StoreID,
			Status:       enums.CartStatusActive,
			Currency:     enums.CurrencyUSD,
		}
	}
	cart.SubtotalCents, cart.DiscountsCents, cart.TotalCents = 0, 0, 0
	cart.Items = cart.Items[:0]
	cart.AppliedPromotionID = nil
	if promotionApplied && promo != nil {
		promoID := promo.ID
		cart.AppliedPromotionID = &promoID
	}
	for _, line := range lines {
		if line.item.Status == enums.CartItemStatusOK {
			cart.SubtotalCents += line.item.LineSubtotalCents
			cart.DiscountsCents += line.item.DiscountCents
			cart.TotalCents += line.item.LineTotalCents
		}
		cart.Items = append(cart.Items, line.item)
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.SaveQuoteTx(tx, cart)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save cart quote")
	}

	names := make(map[uuid.UUID]string, len(lines))
	messages := make(map[uuid.UUID]string, len(lines))
	for _, line := range lines {
		names[line.item.ProductID] = line.name
		if line.message != "" {
			messages[line.item.ProductID] = line.message
		}
	}
	return NewCartDTO(cart, names, messages), nil
}

func (s *service) GetActiveCart(ctx context.Context, buyerStoreID, storeID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindActive(ctx, buyerStoreID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load active cart")
	}

	names := make(map[uuid.UUID]string, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.products.FindByID(ctx, storeID, item.ProductID)
		if err != nil {
			// Delisted products legitimately miss; anything else is a
			// lookup failure worth surfacing in the logs.
			if !errors.Is(err, gorm.ErrRecordNotFound) && s.logg != nil {
				logCtx := s.logg.WithField(ctx, "product_id", item.ProductID.String())
				s.logg.Error(logCtx, "loading product name for cart item", err)
			}
			continue
		}
		names[item.ProductID] = product.Name
	}
	return NewCartDTO(cart, names, nil), nil
}

func (s *service) quoteLine(ctx context.Context, storeID uuid.UUID, requested QuoteItemInput, promo *pricing.Promotion, previousPrices map[uuid.UUID]int, now time.Time) (*quotedLine, error) {
	product, err := s.products.FindByID(ctx, storeID, requested.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return unavailableLine(requested, "product is no longer listed"), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if !product.IsActive || product.StockQty <= 0 {
		line := unavailableLine(requested, "product is not available")
		line.name = product.Name
		return line, nil
	}

	var warnings types.CartItemWarnings
	qty := requested.Quantity
	if qty < 1 {
		qty = 1
		warnings = append(warnings, types.CartItemWarning{
			Type:    enums.CartItemWarningTypeClampedToMin,
			Message: "quantity raised to the minimum of 1",
		})
	}
	ceiling := product.StockQty
	if product.MaxQty > 0 && product.MaxQty < ceiling {
		ceiling = product.MaxQty
	}
	if qty > ceiling {
		qty = ceiling
		warnings = append(warnings, types.CartItemWarning{
			Type:    enums.CartItemWarningTypeClampedToStock,
			Message: fmt.Sprintf("quantity reduced to the available limit of %d", ceiling),
		})
	}

	// Volume tiers rewrite the unit price before any discount math runs.
	unitPriceCents := product.PriceCents
	for _, tier := range product.VolumeDiscounts {
		if qty >= tier.MinQty && tier.UnitPriceCents < unitPriceCents {
			unitPriceCents = tier.UnitPriceCents
		}
	}
	if previous, ok := previousPrices[product.ID]; ok && previous != unitPriceCents {
		warnings = append(warnings, types.CartItemWarning{
			Type:    enums.CartItemWarningTypePriceChanged,
			Message: "price changed since the last quote",
		})
	}

	deal := ""
	if product.Deal != nil {
		deal = *product.Deal
		if deal != "" && pricing.ParseDeal(deal) == nil {
			warnings = append(warnings, types.CartItemWarning{
				Type:    enums.CartItemWarningTypeInvalidDeal,
				Message: "listed deal is not a recognized format and was ignored",
			})
		}
	}

	result, err := pricing.Resolve(pricing.DecimalFromCents(unitPriceCents), qty, promo, deal, now)
	if err != nil {
		return nil, err
	}
	s.pricing.ObserveResolution(string(result.Discount.Source), result.LineDiscount().InexactFloat64())

	item := models.CartItem{
		ProductID:         product.ID,
		Quantity:          qty,
		UnitPriceCents:    unitPriceCents,
		Deal:              product.Deal,
		AppliedDiscount:   result.Snapshot(),
		Warnings:          warnings,
		DiscountCents:     pricing.CentsFromDecimal(result.LineDiscount()),
		LineSubtotalCents: pricing.CentsFromDecimal(result.LineSubtotal()),
		LineTotalCents:    pricing.CentsFromDecimal(result.LineTotal()),
		Status:            enums.CartItemStatusOK,
	}
	return &quotedLine{item: item, name: product.Name, message: result.Message()}, nil
}

func unavailableLine(requested QuoteItemInput, message string) *quotedLine {
	qty := requested.Quantity
	if qty < 1 {
		qty = 1
	}
	return &quotedLine{
		item: models.CartItem{
			ProductID: requested.ProductID,
			Quantity:  qty,
			Warnings: types.CartItemWarnings{{
				Type:    enums.CartItemWarningTypeNotAvailable,
				Message: message,
			}},
			Status: enums.CartItemStatusNotAvailable,
		},
	}
}
