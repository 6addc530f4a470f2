package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-wms/meridian-wms/internal/batch"
	"github.com/meridian-wms/meridian-wms/internal/observability"
	"github.com/meridian-wms/meridian-wms/internal/orders"
	"github.com/meridian-wms/meridian-wms/internal/packing"
	"github.com/meridian-wms/meridian-wms/internal/picking"
	"github.com/meridian-wms/meridian-wms/internal/replenishment"
	"github.com/meridian-wms/meridian-wms/internal/scan"
	"github.com/meridian-wms/meridian-wms/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	OrdersHandler        *orders.Handler
	PackingHandler       *packing.Handler
	PickingHandler       *picking.Handler
	ScanHandler          *scan.Handler
	BatchHandler         *batch.Handler
	ReplenishmentHandler *replenishment.Handler
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
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
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/orders", params.OrdersHandler.MountRoutes)
	r.Route("/packing", params.PackingHandler.MountRoutes)
	r.Route("/picking", params.PickingHandler.MountRoutes)
	r.Route("/scan", params.ScanHandler.MountRoutes)
	r.Route("/batch", params.BatchHandler.MountRoutes)
	r.Route("/replenishment", params.ReplenishmentHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
