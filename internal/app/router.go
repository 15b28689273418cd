package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/warebase/warebase/internal/addresses"
	"github.com/warebase/warebase/internal/auth"
	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/cart"
	"github.com/warebase/warebase/internal/observability"
	"github.com/warebase/warebase/internal/orders"
	"github.com/warebase/warebase/internal/products"
	"github.com/warebase/warebase/internal/roles"
	"github.com/warebase/warebase/internal/suppliers"
	"github.com/warebase/warebase/internal/users"
	"github.com/warebase/warebase/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Tokens *auth.TokenIssuer
	Authz  authz.Middleware

	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	RolesHandler     *roles.Handler
	SuppliersHandler *suppliers.Handler
	ProductsHandler  *products.Handler
	CartHandler      *cart.Handler
	OrdersHandler    *orders.Handler
	AddressesHandler *addresses.Handler
	JobsHandler      *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Tokens:  params.Tokens,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	manageCatalog := params.Authz.Require(authz.ActionManageProducts)
	manageUsers := params.Authz.Require(authz.ActionManageUsers)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Route("/users", func(r chi.Router) {
			r.Use(manageUsers)
			params.UsersHandler.MountRoutes(r)
		})
		r.Route("/roles", func(r chi.Router) {
			r.Use(manageUsers)
			params.RolesHandler.MountRoutes(r)
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Use(params.Authz.RequireAuthenticated)
			params.SuppliersHandler.MountRoutes(r, manageCatalog)
		})
		r.Route("/products", func(r chi.Router) {
			params.ProductsHandler.MountRoutes(r, manageCatalog)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(params.Authz.RequireAuthenticated)
			params.CartHandler.MountRoutes(r)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Use(params.Authz.RequireAuthenticated)
			params.OrdersHandler.MountRoutes(r)
		})
		r.Route("/addresses", func(r chi.Router) {
			r.Use(params.Authz.RequireAuthenticated)
			params.AddressesHandler.MountRoutes(r)
		})

		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
