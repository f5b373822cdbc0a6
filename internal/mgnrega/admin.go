package mgnrega

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/eticloud-hub/rozgar-map/internal/cache"
	"github.com/eticloud-hub/rozgar-map/internal/syncjob"
)

// JobNameManual is the ledger label for admin-triggered runs.
const JobNameManual = "manual_sync"

// Admin serves the authenticated administrative surface: triggering a
// sync outside the schedule and inspecting pipeline state.
type Admin struct {
	Orchestrator *syncjob.Orchestrator
	Store        *Store
	Cache        *cache.Cache
}

// TriggerSync handles POST /admin/sync. The run executes in the
// background; the orchestrator's single-flight guard serializes it
// against the scheduled trigger, so an active run yields 409.
func (a *Admin) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if a.Orchestrator.Running() {
		http.Error(w, "A sync run is already in progress", http.StatusConflict)
		return
	}

	go func() {
		// Detached from the request context: the run outlives the
		// response and is stopped only by process shutdown.
		tally, err := a.Orchestrator.RunSync(context.Background(), JobNameManual, true)
		if err != nil {
			if errors.Is(err, syncjob.ErrSyncRunning) {
				log.Printf("[Admin] manual sync skipped, already running")
				return
			}
			log.Printf("[Admin] manual sync failed: %v", err)
			return
		}
		log.Printf("[Admin] manual sync finished: %d success, %d errors",
			tally.SuccessCount, tally.ErrorCount)
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"job_name": JobNameManual,
		"status":   "running",
	})
}

// SyncStatus handles GET /admin/sync/status.
func (a *Admin) SyncStatus(w http.ResponseWriter, r *http.Request) {
	runs, err := a.Store.RecentRuns(r.Context(), 1)
	if err != nil {
		log.Printf("[Admin] sync status err=%v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	out := map[string]any{"running": a.Orchestrator.Running()}
	if len(runs) > 0 {
		out["last_run"] = runs[0]
	}
	writeJSON(w, out)
}

// ListReports handles GET /admin/reports?status=&limit= — citizen report
// review queue.
func (a *Admin) ListReports(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit := queryInt(r, "limit", 20, 100)

	reports, err := a.Store.RecentReports(r.Context(), status, limit)
	if err != nil {
		log.Printf("[Admin] list reports err=%v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []CitizenReport{}
	}
	writeJSON(w, map[string]any{"reports": reports})
}

// CacheStats handles GET /admin/cache — response-cache occupancy and
// hit counters.
func (a *Admin) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.Cache.Stats())
}

// FlushCache handles POST /admin/cache/flush?prefix=
func (a *Admin) FlushCache(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	removed := a.Cache.Invalidate(prefix)
	writeJSON(w, map[string]int{"removed": removed})
}
