package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/logger"
	"github.com/leafline/dispensary-backend/pkg/pagination"
	"github.com/leafline/dispensary-backend/pkg/pricing"
)

// Service exposes catalog management for a store.
type Service interface {
	CreateProduct(ctx context.Context, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, storeID, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, storeID uuid.UUID, filter ListFilter, params pagination.Params) (*ProductListResult, error)
	DeleteProduct(ctx context.Context, storeID, productID uuid.UUID) error
}

// CreateProductInput carries the fields accepted when listing a product.
type CreateProductInput struct {
	SKU             string              `json:"sku" validate:"required"`
	Name            string              `json:"name" validate:"required"`
	Description     *string             `json:"description"`
	Category        string              `json:"category" validate:"required"`
	Strain          *string             `json:"strain"`
	Classification  *string             `json:"classification"`
	Unit            string              `json:"unit" validate:"required"`
	PriceCents      int                 `json:"price_cents" validate:"gte=0"`
	Deal            *string             `json:"deal"`
	THCPercent      *float64            `json:"thc_percent"`
	CBDPercent      *float64            `json:"cbd_percent"`
	StockQty        int                 `json:"stock_qty" validate:"gte=0"`
	MaxQty          int                 `json:"max_qty" validate:"gte=0"`
	VolumeDiscounts []VolumeDiscountDTO `json:"volume_discounts"`
}

// UpdateProductInput carries optional fields for partial updates.
type UpdateProductInput struct {
	Name            *string              `json:"name"`
	Description     *string              `json:"description"`
	Category        *string              `json:"category"`
	Strain          *string              `json:"strain"`
	Classification  *string              `json:"classification"`
	Unit            *string              `json:"unit"`
	PriceCents      *int                 `json:"price_cents"`
	Deal            *string              `json:"deal"`
	ClearDeal       bool                 `json:"clear_deal"`
	THCPercent      *float64             `json:"thc_percent"`
	CBDPercent      *float64             `json:"cbd_percent"`
	StockQty        *int                 `json:"stock_qty"`
	MaxQty          *int                 `json:"max_qty"`
	IsActive        *bool                `json:"is_active"`
	VolumeDiscounts *[]VolumeDiscountDTO `json:"volume_discounts"`
}

type productStore interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	ReplaceVolumeDiscounts(tx *gorm.DB, productID uuid.UUID, tiers []models.ProductVolumeDiscount) error
	FindByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
	Delete(ctx context.Context, storeID, productID uuid.UUID) error
	ListByStore(ctx context.Context, storeID uuid.UUID, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     productStore
	dbClient txRunner
	logg     *logger.Logger
}

// NewService wires the catalog service with its collaborators.
func NewService(repo productStore, dbClient txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{repo: repo, dbClient: dbClient, logg: logg}, nil
}

func (s *service) CreateProduct(ctx context.Context, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if input.SKU == "" || input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku and name are required")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.StockQty < 0 || input.MaxQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock and max quantities cannot be negative")
	}
	category, err := enums.ParseProductCategory(input.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	unit, err := enums.ParseProductUnit(input.Unit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit")
	}
	var classification *enums.ProductClassification
	if input.Classification != nil {
		parsed, err := enums.ParseProductClassification(*input.Classification)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid classification")
		}
		classification = &parsed
	}
	tiers, err := tierRows(input.VolumeDiscounts, input.PriceCents)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		StoreID:         storeID,
		SKU:             input.SKU,
		Name:            input.Name,
		Description:     input.Description,
		Category:        category,
		Strain:          input.Strain,
		Classification:  classification,
		Unit:            unit,
		PriceCents:      input.PriceCents,
		Deal:            input.Deal,
		THCPercent:      input.THCPercent,
		CBDPercent:      input.CBDPercent,
		StockQty:        input.StockQty,
		MaxQty:          input.MaxQty,
		IsActive:        true,
		VolumeDiscounts: tiers,
	}
	s.warnOnOpaqueDeal(ctx, input.Deal)

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		category, err := enums.ParseProductCategory(*input.Category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		product.Category = category
	}
	if input.Strain != nil {
		product.Strain = input.Strain
	}
	if input.Classification != nil {
		parsed, err := enums.ParseProductClassification(*input.Classification)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid classification")
		}
		product.Classification = &parsed
	}
	if input.Unit != nil {
		unit, err := enums.ParseProductUnit(*input.Unit)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit")
		}
		product.Unit = unit
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.ClearDeal {
		product.Deal = nil
	} else if input.Deal != nil {
		product.Deal = input.Deal
		s.warnOnOpaqueDeal(ctx, input.Deal)
	}
	if input.THCPercent != nil {
		product.THCPercent = input.THCPercent
	}
	if input.CBDPercent != nil {
		product.CBDPercent = input.CBDPercent
	}
	if input.StockQty != nil {
		if *input.StockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.StockQty = *input.StockQty
	}
	if input.MaxQty != nil {
		if *input.MaxQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max quantity cannot be negative")
		}
		product.MaxQty = *input.MaxQty
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	var tiers []models.ProductVolumeDiscount
	if input.VolumeDiscounts != nil {
		tiers, err = tierRows(*input.VolumeDiscounts, product.PriceCents)
		if err != nil {
			return nil, err
		}
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Update(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		if input.VolumeDiscounts != nil {
			if err := s.repo.ReplaceVolumeDiscounts(tx, product.ID, tiers); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace volume tiers")
			}
			product.VolumeDiscounts = tiers
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: product update transaction")
	}
	return NewProductDTO(product), nil
}

func (s *service) GetProduct(ctx context.Context, storeID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, storeID uuid.UUID, filter ListFilter, params pagination.Params) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListByStore(ctx, storeID, filter, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	result := &ProductListResult{Items: make([]ProductDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Items = append(result.Items, *NewProductDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

func (s *service) DeleteProduct(ctx context.Context, storeID, productID uuid.UUID) error {
	if _, err := s.findProduct(ctx, storeID, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, storeID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

func (s *service) findProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product")
	}
	return product, nil
}

// A deal string that does not parse is saved as entered. The catalog warns
// instead of rejecting so merchandising copy can go live before the discount
// format is fixed.
func (s *service) warnOnOpaqueDeal(ctx context.Context, deal *string) {
	if deal == nil || *deal == "" || s.logg == nil {
		return
	}
	if pricing.ParseDeal(*deal) == nil {
		logCtx := s.logg.WithField(ctx, "deal", *deal)
		s.logg.Warn(logCtx, "product deal does not parse and will not discount")
	}
}

func tierRows(tiers []VolumeDiscountDTO, priceCents int) ([]models.ProductVolumeDiscount, error) {
	if len(tiers) == 0 {
		return nil, nil
	}
	rows := make([]models.ProductVolumeDiscount, 0, len(tiers))
	lastMin := 0
	for _, tier := range tiers {
		if tier.MinQty <= 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "volume tiers start at quantity 2")
		}
		if tier.MinQty <= lastMin {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "volume tiers must have increasing quantities")
		}
		if tier.UnitPriceCents < 0 || tier.UnitPriceCents > priceCents {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "volume tier price must be between zero and the base price")
		}
		lastMin = tier.MinQty
		rows = append(rows, models.ProductVolumeDiscount{
			MinQty:         tier.MinQty,
			UnitPriceCents: tier.UnitPriceCents,
		})
	}
	return rows, nil
}
