package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/api/middleware"
	"github.com/leafline/dispensary-backend/api/responses"
	"github.com/leafline/dispensary-backend/internal/invoices"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/logger"
)

type InvoicesController struct {
	service invoices.Service
	logg    *logger.Logger
	now     func() time.Time
}

func NewInvoicesController(service invoices.Service, logg *logger.Logger) *InvoicesController {
	return &InvoicesController{service: service, logg: logg, now: time.Now}
}

func (c *InvoicesController) GetForOrder(w http.ResponseWriter, r *http.Request) {
	_, partyStoreID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
		return
	}
	document, err := c.service.BuildInvoice(r.Context(), partyStoreID, orderID, c.now())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, document)
}
