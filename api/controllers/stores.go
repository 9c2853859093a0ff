package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/api/responses"
	"github.com/leafline/dispensary-backend/api/validators"
	"github.com/leafline/dispensary-backend/internal/stores"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/logger"
)

type StoresController struct {
	service stores.Service
	logg    *logger.Logger
}

func NewStoresController(service stores.Service, logg *logger.Logger) *StoresController {
	return &StoresController{service: service, logg: logg}
}

func (c *StoresController) Create(w http.ResponseWriter, r *http.Request) {
	var input stores.CreateStoreInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	store, err := c.service.CreateStore(r.Context(), input)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, store)
}

func (c *StoresController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "storeID"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid store id"))
		return
	}
	store, err := c.service.GetStore(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, store)
}

func (c *StoresController) GetBySlug(w http.ResponseWriter, r *http.Request) {
	store, err := c.service.GetStoreBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, store)
}

func (c *StoresController) List(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.ListStores(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}
