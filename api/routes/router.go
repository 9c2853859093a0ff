package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leafline/dispensary-backend/api/controllers"
	"github.com/leafline/dispensary-backend/api/middleware"
	"github.com/leafline/dispensary-backend/internal/cart"
	"github.com/leafline/dispensary-backend/internal/invoices"
	"github.com/leafline/dispensary-backend/internal/orders"
	"github.com/leafline/dispensary-backend/internal/products"
	"github.com/leafline/dispensary-backend/internal/promotions"
	"github.com/leafline/dispensary-backend/internal/stores"
	"github.com/leafline/dispensary-backend/pkg/config"
	"github.com/leafline/dispensary-backend/pkg/logger"
	"github.com/leafline/dispensary-backend/pkg/metrics"
	pkgredis "github.com/leafline/dispensary-backend/pkg/redis"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DBPinger     controllers.DependencyPinger
	CachePinger  controllers.DependencyPinger
	Idempotency  pkgredis.IdempotencyStore
	HTTPMetrics  *metrics.HTTPMetrics
	PromGatherer prometheus.Gatherer

	Stores     stores.Service
	Products   products.Service
	Promotions promotions.Service
	Cart       cart.Service
	Orders     orders.Service
	Invoices   invoices.Service
}

func NewRouter(deps Deps) http.Handler {
	logg := deps.Logger

	health := controllers.NewHealthController(deps.DBPinger, deps.CachePinger, logg)
	storesCtl := controllers.NewStoresController(deps.Stores, logg)
	productsCtl := controllers.NewProductsController(deps.Products, logg)
	promotionsCtl := controllers.NewPromotionsController(deps.Promotions, logg)
	cartCtl := controllers.NewCartController(deps.Cart, logg)
	ordersCtl := controllers.NewOrdersController(deps.Orders, logg)
	invoicesCtl := controllers.NewInvoicesController(deps.Invoices, logg)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", health.Live)
		r.Get("/ready", health.Ready)
	})

	if deps.PromGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromGatherer, promhttp.HandlerOpts{}))
	}

	// Public storefront reads require no token.
	r.Route("/api/public/v1", func(r chi.Router) {
		r.Get("/stores", storesCtl.List)
		r.Get("/stores/slug/{slug}", storesCtl.GetBySlug)
		r.Get("/stores/{storeID}", storesCtl.Get)
		r.Get("/stores/{storeID}/products", productsCtl.List)
		r.Get("/stores/{storeID}/products/{productID}", productsCtl.Get)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Config.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Post("/stores", storesCtl.Create)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStore(logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", productsCtl.Create)
				r.Patch("/{productID}", productsCtl.Update)
				r.Delete("/{productID}", productsCtl.Delete)
			})

			r.Route("/promotions", func(r chi.Router) {
				r.Use(middleware.RequirePromotionManager(logg))
				r.Get("/", promotionsCtl.List)
				r.Post("/", promotionsCtl.Create)
				r.Get("/{promotionID}", promotionsCtl.Get)
				r.Patch("/{promotionID}", promotionsCtl.Update)
				r.Post("/{promotionID}/status", promotionsCtl.SetStatus)
				r.Delete("/{promotionID}", promotionsCtl.Delete)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Put("/", cartCtl.Quote)
				r.Get("/{storeID}", cartCtl.GetActive)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordersCtl.List)
				r.Post("/", ordersCtl.Place)
				r.Get("/{orderID}", ordersCtl.Get)
				r.Post("/{orderID}/status", ordersCtl.UpdateStatus)
				r.Get("/{orderID}/invoice", invoicesCtl.GetForOrder)
			})
		})
	})

	return r
}
