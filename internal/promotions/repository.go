package promotions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	"github.com/leafline/dispensary-backend/pkg/pagination"
)

// Repository wires together promotion persistence helpers.
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

// Create inserts the promotion row.
func (r *Repository) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// Update saves the full promotion row.
func (r *Repository) Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Save(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// FindByID loads a promotion scoped to its store.
func (r *Repository) FindByID(ctx context.Context, storeID, promoID uuid.UUID) (*models.Promotion, error) {
	var promo models.Promotion
	if err := r.db.WithContext(ctx).
		First(&promo, "id = ? AND store_id = ?", promoID, storeID).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// Delete removes a promotion scoped to its store.
func (r *Repository) Delete(ctx context.Context, storeID, promoID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.Promotion{}, "id = ? AND store_id = ?", promoID, storeID).Error
}

// ListByStore returns a cursor page of promotions, newest first.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Promotion, error) {
	query := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Promotion
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ActiveForStore returns the most recently started active promotion whose
// window contains now. Promotions with missing window bounds are excluded
// outright; they can never apply.
func (r *Repository) ActiveForStore(ctx context.Context, storeID uuid.UUID, now time.Time) (*models.Promotion, error) {
	var promo models.Promotion
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND status = ?", storeID, enums.PromotionStatusActive).
		Where("valid_from IS NOT NULL AND valid_to IS NOT NULL").
		Where("valid_from <= ? AND valid_to >= ?", now, now).
		Order("valid_from DESC").
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// UpdateStatusTx flips the status inside the caller's transaction and returns
// the refreshed row.
func (r *Repository) UpdateStatusTx(tx *gorm.DB, storeID, promoID uuid.UUID, status enums.PromotionStatus) (*models.Promotion, error) {
	result := tx.Model(&models.Promotion{}).
		Where("id = ? AND store_id = ?", promoID, storeID).
		Update("status", status)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var promo models.Promotion
	if err := tx.First(&promo, "id = ? AND store_id = ?", promoID, storeID).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}
