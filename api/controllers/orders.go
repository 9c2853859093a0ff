package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/api/middleware"
	"github.com/leafline/dispensary-backend/api/responses"
	"github.com/leafline/dispensary-backend/api/validators"
	"github.com/leafline/dispensary-backend/internal/orders"
	"github.com/leafline/dispensary-backend/pkg/enums"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/logger"
)

type OrdersController struct {
	service orders.Service
	logg    *logger.Logger
}

func NewOrdersController(service orders.Service, logg *logger.Logger) *OrdersController {
	return &OrdersController{service: service, logg: logg}
}

func (c *OrdersController) Place(w http.ResponseWriter, r *http.Request) {
	userID, buyerStoreID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	var input orders.PlaceOrderInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	order, err := c.service.PlaceOrder(r.Context(), userID, buyerStoreID, input)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, order)
}

func (c *OrdersController) Get(w http.ResponseWriter, r *http.Request) {
	_, partyStoreID, orderID, err := c.actorAndOrder(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	order, err := c.service.GetOrder(r.Context(), partyStoreID, orderID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, order)
}

func (c *OrdersController) List(w http.ResponseWriter, r *http.Request) {
	_, partyStoreID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	result, err := c.service.ListOrders(r.Context(), partyStoreID, params)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (c *OrdersController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, partyStoreID, orderID, err := c.actorAndOrder(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	var body orderStatusRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	target, err := enums.ParseOrderStatus(body.Status)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status"))
		return
	}
	order, err := c.service.UpdateOrderStatus(r.Context(), userID, partyStoreID, orderID, target)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, order)
}

func (c *OrdersController) actorAndOrder(r *http.Request) (uuid.UUID, uuid.UUID, uuid.UUID, error) {
	userID, storeID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	return userID, storeID, orderID, nil
}
