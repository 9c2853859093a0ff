package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
)

// Repository wires together cart persistence helpers.
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

// FindActive loads the buyer's active cart for the store, items included.
func (r *Repository) FindActive(ctx context.Context, buyerStoreID, storeID uuid.UUID) (*models.CartRecord, error) {
	var cart models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&cart, "buyer_store_id = ? AND store_id = ? AND status = ?", buyerStoreID, storeID, enums.CartStatusActive).
		Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindByID loads a cart with its items.
func (r *Repository) FindByID(ctx context.Context, cartID uuid.UUID) (*models.CartRecord, error) {
	var cart models.CartRecord
	if err := r.db.WithContext(ctx).Preload("Items").First(&cart, "id = ?", cartID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// SaveQuoteTx persists the quoted cart inside the caller's transaction. An
// existing cart keeps its identity; its items are replaced wholesale so the
// stored snapshot always matches the last quote.
func (r *Repository) SaveQuoteTx(tx *gorm.DB, cart *models.CartRecord) error {
	if cart.ID == uuid.Nil {
		return tx.Create(cart).Error
	}
	items := cart.Items
	if err := tx.Omit("Items").Save(cart).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.CartItem{}, "cart_id = ?", cart.ID).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = uuid.Nil
		items[i].CartID = cart.ID
	}
	if err := tx.Create(&items).Error; err != nil {
		return err
	}
	cart.Items = items
	return nil
}

// MarkConvertedTx flips the cart to converted inside the caller's transaction.
func (r *Repository) MarkConvertedTx(tx *gorm.DB, cartID uuid.UUID, at time.Time) error {
	result := tx.Model(&models.CartRecord{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Updates(map[string]any{
			"status":       enums.CartStatusConverted,
			"converted_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
