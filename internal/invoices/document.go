package invoices

import (
	"time"

	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	"github.com/leafline/dispensary-backend/pkg/enums"
	"github.com/leafline/dispensary-backend/pkg/types"
)

// Party identifies one side of the invoice.
type Party struct {
	StoreID uuid.UUID     `json:"store_id"`
	Name    string        `json:"name"`
	Email   *string       `json:"email,omitempty"`
	Phone   *string       `json:"phone,omitempty"`
	Address types.Address `json:"address"`
}

// Line is one recomputed invoice line.
type Line struct {
	Description     string               `json:"description"`
	Unit            enums.ProductUnit    `json:"unit"`
	Qty             int                  `json:"qty"`
	UnitPriceCents  int                  `json:"unit_price_cents"`
	DiscountDisplay string               `json:"discount_display,omitempty"`
	DiscountSource  enums.DiscountSource `json:"discount_source,omitempty"`
	DiscountCents   int                  `json:"discount_cents"`
	TotalCents      int                  `json:"total_cents"`
}

// Document is a fully rendered invoice.
type Document struct {
	Number        string            `json:"number"`
	OrderID       uuid.UUID         `json:"order_id"`
	OrderNumber   int64             `json:"order_number"`
	Status        enums.OrderStatus `json:"status"`
	Currency      enums.Currency    `json:"currency"`
	IssuedAt      time.Time         `json:"issued_at"`
	PlacedAt      time.Time         `json:"placed_at"`
	Seller        Party             `json:"seller"`
	Buyer         Party             `json:"buyer"`
	PromotionName string            `json:"promotion_name,omitempty"`
	Lines         []Line            `json:"lines"`
	SubtotalCents int               `json:"subtotal_cents"`
	DiscountCents int               `json:"discount_cents"`
	TotalCents    int               `json:"total_cents"`
}

func newParty(store *models.Store) Party {
	return Party{
		StoreID: store.ID,
		Name:    store.Name,
		Email:   store.Email,
		Phone:   store.Phone,
		Address: store.Address,
	}
}
