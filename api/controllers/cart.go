package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/api/middleware"
	"github.com/leafline/dispensary-backend/api/responses"
	"github.com/leafline/dispensary-backend/api/validators"
	"github.com/leafline/dispensary-backend/internal/cart"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/logger"
)

type CartController struct {
	service cart.Service
	logg    *logger.Logger
}

func NewCartController(service cart.Service, logg *logger.Logger) *CartController {
	return &CartController{service: service, logg: logg}
}

// Quote replaces the buyer's active cart for the target store with a freshly
// priced one. The request is the full desired cart, not a delta.
func (c *CartController) Quote(w http.ResponseWriter, r *http.Request) {
	_, buyerStoreID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	var input cart.QuoteInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	quoted, err := c.service.Quote(r.Context(), buyerStoreID, input)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, quoted)
}

func (c *CartController) GetActive(w http.ResponseWriter, r *http.Request) {
	_, buyerStoreID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	storeID, err := uuid.Parse(chi.URLParam(r, "storeID"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid store id"))
		return
	}
	active, err := c.service.GetActiveCart(r.Context(), buyerStoreID, storeID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, active)
}
