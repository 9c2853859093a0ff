package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/api/middleware"
	"github.com/leafline/dispensary-backend/api/responses"
	"github.com/leafline/dispensary-backend/api/validators"
	"github.com/leafline/dispensary-backend/internal/promotions"
	"github.com/leafline/dispensary-backend/pkg/enums"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/logger"
)

type PromotionsController struct {
	service promotions.Service
	logg    *logger.Logger
}

func NewPromotionsController(service promotions.Service, logg *logger.Logger) *PromotionsController {
	return &PromotionsController{service: service, logg: logg}
}

func (c *PromotionsController) Create(w http.ResponseWriter, r *http.Request) {
	userID, storeID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	var input promotions.CreatePromotionInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	promo, err := c.service.CreatePromotion(r.Context(), userID, storeID, input)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, promo)
}

func (c *PromotionsController) Update(w http.ResponseWriter, r *http.Request) {
	userID, storeID, promoID, err := c.actorAndPromo(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	var input promotions.UpdatePromotionInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	promo, err := c.service.UpdatePromotion(r.Context(), userID, storeID, promoID, input)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, promo)
}

func (c *PromotionsController) Get(w http.ResponseWriter, r *http.Request) {
	_, storeID, promoID, err := c.actorAndPromo(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	promo, err := c.service.GetPromotion(r.Context(), storeID, promoID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, promo)
}

func (c *PromotionsController) List(w http.ResponseWriter, r *http.Request) {
	_, storeID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	result, err := c.service.ListPromotions(r.Context(), storeID, params)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (c *PromotionsController) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID, storeID, promoID, err := c.actorAndPromo(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	var body setStatusRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	status, err := enums.ParsePromotionStatus(body.Status)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid promotion status"))
		return
	}
	promo, err := c.service.SetPromotionStatus(r.Context(), userID, storeID, promoID, status)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, promo)
}

func (c *PromotionsController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, storeID, promoID, err := c.actorAndPromo(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if err := c.service.DeletePromotion(r.Context(), userID, storeID, promoID); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]string{"status": "deleted"})
}

func (c *PromotionsController) actorAndPromo(r *http.Request) (uuid.UUID, uuid.UUID, uuid.UUID, error) {
	userID, storeID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}
	promoID, err := uuid.Parse(chi.URLParam(r, "promotionID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid promotion id")
	}
	return userID, storeID, promoID, nil
}
