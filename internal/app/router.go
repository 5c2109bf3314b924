package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jms-erp/jms/internal/debt"
	"github.com/jms-erp/jms/internal/inventory"
	"github.com/jms-erp/jms/internal/observability"
	"github.com/jms-erp/jms/internal/platform/httpx"
	"github.com/jms-erp/jms/internal/sales"
	"github.com/jms-erp/jms/jobs"
)

// Pinger reports dependency health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	InventoryHandler *inventory.Handler
	SalesHandler     *sales.Handler
	DebtHandler      *debt.Handler
	JobHandler       *jobs.Handler
	DB               Pinger
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with JMS defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := params.DB.Ping(ctx); err != nil {
				params.Logger.Warn("health check failed", slog.Any("error", err))
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.InventoryHandler != nil {
			r.Route("/products", params.InventoryHandler.MountRoutes)
		}
		r.Route("/sales", func(r chi.Router) {
			if params.SalesHandler != nil {
				params.SalesHandler.MountRoutes(r)
			}
			if params.DebtHandler != nil {
				params.DebtHandler.MountSaleRoutes(r)
			}
		})
		if params.DebtHandler != nil {
			r.Route("/debt", params.DebtHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			params.JobHandler.MountRoutes(r)
		}
	})

	return r
}
