package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	"github.com/leafline/dispensary-backend/pkg/pagination"
)

// Repository wires together order persistence helpers.
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

// NextOrderNumberTx pulls the next buyer-facing order number from the shared
// sequence inside the caller's transaction.
func (r *Repository) NextOrderNumberTx(tx *gorm.DB) (int64, error) {
	var number int64
	if err := tx.Raw("SELECT nextval('order_number_seq')").Scan(&number).Error; err != nil {
		return 0, err
	}
	return number, nil
}

// CreateTx inserts the order and its lines inside the caller's transaction.
func (r *Repository) CreateTx(tx *gorm.DB, order *models.Order) error {
	return tx.Create(order).Error
}

// FindByID loads an order with its lines, scoped to either party.
func (r *Repository) FindByID(ctx context.Context, partyStoreID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ? AND (buyer_store_id = ? OR store_id = ?)", orderID, partyStoreID, partyStoreID).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByParty returns a cursor page of the store's orders, as buyer or
// seller, newest first.
func (r *Repository) ListByParty(ctx context.Context, partyStoreID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_store_id = ? OR store_id = ?", partyStoreID, partyStoreID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveTx persists order mutations inside the caller's transaction.
func (r *Repository) SaveTx(tx *gorm.DB, order *models.Order) error {
	return tx.Omit("Items").Save(order).Error
}

// UpdateLineStatusesTx flips every line on the order to the given status.
func (r *Repository) UpdateLineStatusesTx(tx *gorm.DB, orderID uuid.UUID, status enums.LineItemStatus) error {
	return tx.Model(&models.OrderLineItem{}).
		Where("order_id = ?", orderID).
		Update("status", status).Error
}
