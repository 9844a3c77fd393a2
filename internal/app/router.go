package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mesa-ops/mesa/internal/assets"
	"github.com/mesa-ops/mesa/internal/auth"
	"github.com/mesa-ops/mesa/internal/authgate"
	"github.com/mesa-ops/mesa/internal/clients"
	"github.com/mesa-ops/mesa/internal/dashboard"
	"github.com/mesa-ops/mesa/internal/observability"
	"github.com/mesa-ops/mesa/internal/orders"
	"github.com/mesa-ops/mesa/internal/shared"
	"github.com/mesa-ops/mesa/internal/trading"
	"github.com/mesa-ops/mesa/internal/users"
	"github.com/mesa-ops/mesa/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Gate           *authgate.Gate

	AuthHandler      *auth.Handler
	DashboardHandler *dashboard.Handler
	OrdersHandler    *orders.Handler
	TradingHandler   *trading.Handler
	ClientsHandler   *clients.Handler
	AssetsHandler    *assets.Handler
	UsersHandler     *users.Handler
	JobHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router. Probes and metrics sit outside the
// authorization gate; everything else passes through it.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		if params.Gate != nil {
			r.Use(params.Gate.Middleware)
		}
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		r.Route("/orders", params.OrdersHandler.MountRoutes)
		r.Route("/trading", params.TradingHandler.MountRoutes)
		r.Route("/config", func(r chi.Router) {
			r.Route("/assets", params.AssetsHandler.MountRoutes)
			r.Route("/clients", params.ClientsHandler.MountRoutes)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Route("/users", params.UsersHandler.MountRoutes)
		})
		r.Get("/access-denied", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"your role does not allow access to the requested page"}`))
		})
	})

	return r
}
