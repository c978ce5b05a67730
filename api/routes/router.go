package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/athengaudio/storefront/api/controllers"
	"github.com/athengaudio/storefront/api/middleware"
	"github.com/athengaudio/storefront/internal/cart"
	"github.com/athengaudio/storefront/internal/catalog"
	"github.com/athengaudio/storefront/internal/identity"
	"github.com/athengaudio/storefront/internal/orders"
	"github.com/athengaudio/storefront/pkg/config"
	"github.com/athengaudio/storefront/pkg/kv"
	"github.com/athengaudio/storefront/pkg/logger"
	"github.com/athengaudio/storefront/pkg/metrics"
)

// CartRegistry hands out per-owner carts and merges guest carts on sign in.
type CartRegistry interface {
	Get(ctx context.Context, owner string) (*cart.Manager, error)
	Merge(ctx context.Context, from, to string) (*cart.Manager, error)
}

// Dependencies is everything the HTTP surface is built from.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Storefront
	Gatherer prometheus.Gatherer
	// Store backs idempotency replay and auth rate limiting.
	Store    kv.Store
	Pingers  map[string]controllers.Pinger
	Identity identity.Service
	Catalog  catalog.Service
	Carts    CartRegistry
	Checkout *orders.Assembler
	Orders   orders.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	cartHandlers := controllers.CartHandlers{
		Carts:   deps.Carts,
		Catalog: deps.Catalog,
		Metrics: deps.Metrics,
		Logger:  logg,
	}

	// Replay runs inline so it sees the full route pattern and, behind Auth,
	// the caller's identity.
	idempotent := middleware.Idempotency(deps.Store, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Store, logg)).Post("/login", controllers.AuthLogin(deps.Identity, deps.Carts, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Store, logg), idempotent).Post("/register", controllers.AuthRegister(deps.Identity, deps.Carts, logg))
			r.Post("/logout", controllers.AuthLogout(cfg.JWT, deps.Identity, logg))
			r.Post("/refresh", controllers.AuthRefresh(cfg.JWT, deps.Identity, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Catalog, logg))
			r.Get("/brands", controllers.ProductBrands(deps.Catalog, logg))
			r.Get("/headphone-types", controllers.ProductHeadphoneTypes(deps.Catalog, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Catalog, logg))
			r.Get("/{productId}/related", controllers.ProductRelated(deps.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, deps.Identity, logg))
			r.Use(middleware.CartOwner(logg))
			r.Get("/", cartHandlers.Get)
			r.Delete("/", cartHandlers.Clear)
			r.Post("/items", cartHandlers.AddItem)
			r.Put("/items/{productId}", cartHandlers.UpdateItem)
			r.Delete("/items/{productId}", cartHandlers.RemoveItem)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Identity, logg))
			r.Use(middleware.CartOwner(logg))

			r.With(idempotent).Post("/checkout", controllers.Checkout(deps.Checkout, deps.Carts, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(deps.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			})

			r.Route("/me", func(r chi.Router) {
				r.Get("/", controllers.MeGet(logg))
				r.Put("/", controllers.MeUpdate(logg))
				r.Post("/password", controllers.MeChangePassword(logg))
				r.Route("/wishlist", func(r chi.Router) {
					r.Get("/", controllers.WishlistGet(logg))
					r.Delete("/", controllers.WishlistClear(logg))
					r.Post("/{productId}", controllers.WishlistAdd(logg))
					r.Delete("/{productId}", controllers.WishlistRemove(logg))
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Get("/stats", controllers.AdminStats(deps.Catalog, deps.Orders, logg))
				r.Route("/products", func(r chi.Router) {
					r.With(idempotent).Post("/", controllers.AdminProductCreate(deps.Catalog, logg))
					r.Put("/{productId}", controllers.AdminProductUpdate(deps.Catalog, logg))
					r.Delete("/{productId}", controllers.AdminProductDelete(deps.Catalog, logg))
				})
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
					r.Get("/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
					r.With(idempotent).Put("/{orderId}/status", controllers.AdminOrderStatus(deps.Orders, logg))
					r.Delete("/{orderId}", controllers.AdminOrderDelete(deps.Orders, logg))
				})
			})
		})
	})

	return r
}
