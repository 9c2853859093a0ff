package promotions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/leafline/dispensary-backend/pkg/config"
	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/logger"
	"github.com/leafline/dispensary-backend/pkg/outbox"
	"github.com/leafline/dispensary-backend/pkg/pagination"
	"github.com/leafline/dispensary-backend/pkg/pricing"
	"github.com/leafline/dispensary-backend/pkg/types"
)

// cacheMissSentinel marks stores that currently have no active promotion so
// repeat quotes do not hammer the database.
const cacheMissSentinel = "none"

// Service exposes promotion management plus the active-promotion lookup the
// pricing callers share.
type Service interface {
	CreatePromotion(ctx context.Context, actorID, storeID uuid.UUID, input CreatePromotionInput) (*PromotionDTO, error)
	UpdatePromotion(ctx context.Context, actorID, storeID, promoID uuid.UUID, input UpdatePromotionInput) (*PromotionDTO, error)
	GetPromotion(ctx context.Context, storeID, promoID uuid.UUID) (*PromotionDTO, error)
	ListPromotions(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*PromotionListResult, error)
	SetPromotionStatus(ctx context.Context, actorID, storeID, promoID uuid.UUID, status enums.PromotionStatus) (*PromotionDTO, error)
	DeletePromotion(ctx context.Context, actorID, storeID, promoID uuid.UUID) error
	ActivePromotion(ctx context.Context, storeID uuid.UUID, now time.Time) (*pricing.Promotion, error)
}

// CreatePromotionInput carries the fields accepted when creating a promotion.
type CreatePromotionInput struct {
	Name             string     `json:"name" validate:"required"`
	DiscountType     string     `json:"discount_type" validate:"required"`
	DiscountValue    string     `json:"discount_value" validate:"required"`
	MinimumOrderType string     `json:"minimum_order_type"`
	MinimumAmount    *string    `json:"minimum_amount"`
	ValidFrom        *time.Time `json:"valid_from"`
	ValidTo          *time.Time `json:"valid_to"`
}

// UpdatePromotionInput carries optional fields for partial updates.
type UpdatePromotionInput struct {
	Name             *string    `json:"name"`
	DiscountType     *string    `json:"discount_type"`
	DiscountValue    *string    `json:"discount_value"`
	MinimumOrderType *string    `json:"minimum_order_type"`
	MinimumAmount    *string    `json:"minimum_amount"`
	ValidFrom        *time.Time `json:"valid_from"`
	ValidTo          *time.Time `json:"valid_to"`
}

type promotionStore interface {
	Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	FindByID(ctx context.Context, storeID, promoID uuid.UUID) (*models.Promotion, error)
	Delete(ctx context.Context, storeID, promoID uuid.UUID) error
	ListByStore(ctx context.Context, storeID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Promotion, error)
	ActiveForStore(ctx context.Context, storeID uuid.UUID, now time.Time) (*models.Promotion, error)
	UpdateStatusTx(tx *gorm.DB, storeID, promoID uuid.UUID, status enums.PromotionStatus) (*models.Promotion, error)
}

type promotionCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	PromotionCacheKey(storeID string) string
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     promotionStore
	cache    promotionCache
	events   eventEmitter
	dbClient txRunner
	logg     *logger.Logger
	cacheTTL time.Duration
}

// NewService wires the promotion service with its collaborators.
func NewService(repo promotionStore, cache promotionCache, events eventEmitter, dbClient txRunner, logg *logger.Logger, cfg config.PromotionsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository is required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{
		repo:     repo,
		cache:    cache,
		events:   events,
		dbClient: dbClient,
		logg:     logg,
		cacheTTL: cfg.CacheTTL,
	}, nil
}

func (s *service) CreatePromotion(ctx context.Context, actorID, storeID uuid.UUID, input CreatePromotionInput) (*PromotionDTO, error) {
	promo := &models.Promotion{
		StoreID:          storeID,
		Name:             input.Name,
		MinimumOrderType: enums.MinimumOrderTypeNone,
		Status:           enums.PromotionStatusInactive,
		ValidFrom:        input.ValidFrom,
		ValidTo:          input.ValidTo,
	}
	if err := applyDiscountFields(promo, input.Name, input.DiscountType, input.DiscountValue, input.MinimumOrderType, input.MinimumAmount); err != nil {
		return nil, err
	}
	if err := validateWindow(promo.ValidFrom, promo.ValidTo); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert promotion")
	}
	return NewPromotionDTO(created), nil
}

func (s *service) UpdatePromotion(ctx context.Context, actorID, storeID, promoID uuid.UUID, input UpdatePromotionInput) (*PromotionDTO, error) {
	promo, err := s.findPromotion(ctx, storeID, promoID)
	if err != nil {
		return nil, err
	}

	name := promo.Name
	if input.Name != nil {
		name = *input.Name
	}
	discountType := string(promo.DiscountType)
	if input.DiscountType != nil {
		discountType = *input.DiscountType
	}
	discountValue := promo.DiscountValue.String()
	if input.DiscountValue != nil {
		discountValue = *input.DiscountValue
	}
	minimumType := string(promo.MinimumOrderType)
	if input.MinimumOrderType != nil {
		minimumType = *input.MinimumOrderType
	}
	minimumAmount := input.MinimumAmount
	if minimumAmount == nil && promo.MinimumAmount != nil {
		existing := promo.MinimumAmount.String()
		minimumAmount = &existing
	}
	if err := applyDiscountFields(promo, name, discountType, discountValue, minimumType, minimumAmount); err != nil {
		return nil, err
	}
	if input.ValidFrom != nil {
		promo.ValidFrom = input.ValidFrom
	}
	if input.ValidTo != nil {
		promo.ValidTo = input.ValidTo
	}
	if err := validateWindow(promo.ValidFrom, promo.ValidTo); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update promotion")
	}
	s.invalidateCache(ctx, storeID)
	return NewPromotionDTO(updated), nil
}

func (s *service) GetPromotion(ctx context.Context, storeID, promoID uuid.UUID) (*PromotionDTO, error) {
	promo, err := s.findPromotion(ctx, storeID, promoID)
	if err != nil {
		return nil, err
	}
	return NewPromotionDTO(promo), nil
}

func (s *service) ListPromotions(ctx context.Context, storeID uuid.UUID, params pagination.Params) (*PromotionListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListByStore(ctx, storeID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list promotions")
	}

	result := &PromotionListResult{Items: make([]PromotionDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Items = append(result.Items, *NewPromotionDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

func (s *service) SetPromotionStatus(ctx context.Context, actorID, storeID, promoID uuid.UUID, status enums.PromotionStatus) (*PromotionDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid promotion status %q", status))
	}

	var updated *models.Promotion
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		promo, err := s.repo.UpdateStatusTx(tx, storeID, promoID, status)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "promotion not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update promotion status")
		}
		updated = promo

		eventType := enums.EventPromotionDeactivated
		if status == enums.PromotionStatusActive {
			eventType = enums.EventPromotionActivated
		}
		event := outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregatePromotion,
			AggregateID:   promo.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, StoreID: &storeID},
			Version:       1,
			Data: outbox.PromotionStatusPayload{
				PromotionID: promo.ID,
				StoreID:     promo.StoreID,
				Status:      string(status),
			},
		}
		return s.events.Emit(ctx, tx, event)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: promotion status transaction")
	}

	s.invalidateCache(ctx, storeID)
	return NewPromotionDTO(updated), nil
}

func (s *service) DeletePromotion(ctx context.Context, actorID, storeID, promoID uuid.UUID) error {
	if _, err := s.findPromotion(ctx, storeID, promoID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, storeID, promoID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete promotion")
	}
	s.invalidateCache(ctx, storeID)
	return nil
}

// ActivePromotion returns the promotion the pricing engine should consider for
// the store, or nil when none is live. Reads go through the cache; a stale
// entry can outlive a status flip by at most the configured TTL because writes
// invalidate the key.
func (s *service) ActivePromotion(ctx context.Context, storeID uuid.UUID, now time.Time) (*pricing.Promotion, error) {
	if cached, ok := s.cachedPromotion(ctx, storeID); ok {
		return cached, nil
	}

	row, err := s.repo.ActiveForStore(ctx, storeID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.storeInCache(ctx, storeID, nil)
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup active promotion")
	}

	promo := pricing.FromModel(row)
	s.storeInCache(ctx, storeID, promo)
	return promo, nil
}

func (s *service) findPromotion(ctx context.Context, storeID, promoID uuid.UUID) (*models.Promotion, error) {
	promo, err := s.repo.FindByID(ctx, storeID, promoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find promotion")
	}
	return promo, nil
}

func (s *service) cachedPromotion(ctx context.Context, storeID uuid.UUID) (*pricing.Promotion, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.PromotionCacheKey(storeID.String()))
	if err != nil {
		return nil, false
	}
	if raw == cacheMissSentinel {
		return nil, true
	}
	var snap types.PromotionSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "discarding undecodable promotion cache entry")
		}
		return nil, false
	}
	return pricing.FromSnapshot(&snap), true
}

func (s *service) storeInCache(ctx context.Context, storeID uuid.UUID, promo *pricing.Promotion) {
	if s.cache == nil {
		return
	}
	key := s.cache.PromotionCacheKey(storeID.String())
	value := cacheMissSentinel
	if promo != nil {
		encoded, err := json.Marshal(promo.Snapshot())
		if err != nil {
			return
		}
		value = string(encoded)
	}
	// Cache failures degrade to database reads, so the error is only logged.
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil && s.logg != nil {
		s.logg.Error(ctx, "caching active promotion failed", err)
	}
}

func (s *service) invalidateCache(ctx context.Context, storeID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.PromotionCacheKey(storeID.String())); err != nil && s.logg != nil {
		s.logg.Error(ctx, "invalidating promotion cache failed", err)
	}
}

func applyDiscountFields(promo *models.Promotion, name, discountType, discountValue, minimumType string, minimumAmount *string) error {
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion name is required")
	}
	promo.Name = name

	parsedType, err := enums.ParseDiscountType(discountType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	promo.DiscountType = parsedType

	value, err := decimal.NewFromString(discountValue)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount value")
	}
	if value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value cannot be negative")
	}
	if parsedType == enums.DiscountTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	promo.DiscountValue = value

	if minimumType == "" {
		minimumType = string(enums.MinimumOrderTypeNone)
	}
	parsedMinType, err := enums.ParseMinimumOrderType(minimumType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid minimum order type")
	}
	promo.MinimumOrderType = parsedMinType

	switch parsedMinType {
	case enums.MinimumOrderTypeDollarAmount:
		if minimumAmount == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "minimum amount is required for dollar minimums")
		}
		minimum, err := decimal.NewFromString(*minimumAmount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid minimum amount")
		}
		if minimum.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "minimum amount cannot be negative")
		}
		promo.MinimumAmount = &minimum
	default:
		promo.MinimumAmount = nil
	}
	return nil
}

func validateWindow(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return pkgerrors.New(pkgerrors.CodeValidation, "valid_from must not be after valid_to")
	}
	return nil
}
