package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/pagination"
)

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the product plus its volume tiers in one statement.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves the product row. Volume tiers are replaced separately so a
// partial update cannot silently drop them.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit("VolumeDiscounts").Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// ReplaceVolumeDiscounts swaps the product's tier rows inside the caller's
// transaction.
func (r *Repository) ReplaceVolumeDiscounts(tx *gorm.DB, productID uuid.UUID, tiers []models.ProductVolumeDiscount) error {
	if err := tx.Delete(&models.ProductVolumeDiscount{}, "product_id = ?", productID).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	for i := range tiers {
		tiers[i].ProductID = productID
	}
	return tx.Create(&tiers).Error
}

// FindByID loads a product with its volume tiers, scoped to its store.
func (r *Repository) FindByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("VolumeDiscounts", func(db *gorm.DB) *gorm.DB { return db.Order("min_qty ASC") }).
		First(&product, "id = ? AND store_id = ?", productID, storeID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete removes a product scoped to its store.
func (r *Repository) Delete(ctx context.Context, storeID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.Product{}, "id = ? AND store_id = ?", productID, storeID).Error
}

// ListByStore returns a cursor page of catalog rows, newest first.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = TRUE")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AdjustStockTx decrements stock inside the caller's transaction, refusing to
// go below zero.
func (r *Repository) AdjustStockTx(tx *gorm.DB, productID uuid.UUID, delta int) error {
	result := tx.Model(&models.Product{}).
		Where("id = ? AND stock_qty + ? >= 0", productID, delta).
		Update("stock_qty", gorm.Expr("stock_qty + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
