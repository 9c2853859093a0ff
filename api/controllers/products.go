package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leafline/dispensary-backend/api/middleware"
	"github.com/leafline/dispensary-backend/api/responses"
	"github.com/leafline/dispensary-backend/api/validators"
	"github.com/leafline/dispensary-backend/internal/products"
	"github.com/leafline/dispensary-backend/pkg/enums"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/logger"
)

type ProductsController struct {
	service products.Service
	logg    *logger.Logger
}

func NewProductsController(service products.Service, logg *logger.Logger) *ProductsController {
	return &ProductsController{service: service, logg: logg}
}

func (c *ProductsController) Create(w http.ResponseWriter, r *http.Request) {
	_, storeID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	var input products.CreateProductInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	product, err := c.service.CreateProduct(r.Context(), storeID, input)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, product)
}

func (c *ProductsController) Update(w http.ResponseWriter, r *http.Request) {
	_, storeID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
		return
	}
	var input products.UpdateProductInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	product, err := c.service.UpdateProduct(r.Context(), storeID, productID, input)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, product)
}

func (c *ProductsController) Get(w http.ResponseWriter, r *http.Request) {
	storeID, productID, err := storefrontProductIDs(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	product, err := c.service.GetProduct(r.Context(), storeID, productID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, product)
}

// List serves a storefront's catalog. The store is taken from the URL so a
// buyer can browse any seller, not just their own listings.
func (c *ProductsController) List(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "storeID"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid store id"))
		return
	}

	filter := products.ListFilter{}
	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category, parseErr := enums.ParseProductCategory(raw)
		if parseErr != nil {
			responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category"))
			return
		}
		filter.Category = &category
	}
	filter.ActiveOnly = r.URL.Query().Get("include_inactive") != "true"

	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	result, err := c.service.ListProducts(r.Context(), storeID, filter, params)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}

func (c *ProductsController) Delete(w http.ResponseWriter, r *http.Request) {
	_, storeID, err := middleware.ActorIDs(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
		return
	}
	if err := c.service.DeleteProduct(r.Context(), storeID, productID); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]string{"status": "deleted"})
}

func storefrontProductIDs(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	storeID, err := uuid.Parse(chi.URLParam(r, "storeID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid store id")
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	return storeID, productID, nil
}
