package mgnrega

import (
	"net/http"

	"github.com/eticloud-hub/rozgar-map/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handlers, a *Admin) http.Handler {
	r := chi.NewRouter()

	// Public read endpoints
	r.Get("/districts", h.ListDistricts)
	r.Get("/districts/compare", h.CompareDistricts)
	r.Get("/districts/rankings", h.GetRankings)
	r.Get("/districts/{code}", h.GetDistrict)
	r.Get("/districts/{code}/metrics", h.GetDistrictMetrics)
	r.Get("/districts/{code}/summary", h.GetDistrictSummary)
	r.Get("/metrics/aggregate", h.AggregateMetrics)
	r.Get("/sync/runs", h.ListSyncRuns)
	r.Post("/reports", h.SubmitReport)

	// Administrative endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuthMiddleware)
		r.Post("/sync", a.TriggerSync)
		r.Get("/sync/status", a.SyncStatus)
		r.Get("/reports", a.ListReports)
		r.Get("/cache", a.CacheStats)
		r.Post("/cache/flush", a.FlushCache)
	})

	return r
}
