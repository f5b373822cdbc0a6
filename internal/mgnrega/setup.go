package mgnrega

import (
	"fmt"
	"log"

	"github.com/eticloud-hub/rozgar-map/internal/cache"
	"github.com/eticloud-hub/rozgar-map/internal/db"
	"github.com/eticloud-hub/rozgar-map/internal/mgnrega/provider"
	"github.com/eticloud-hub/rozgar-map/internal/syncjob"
	"gorm.io/gorm"

	// Import providers to register them via init()
	_ "github.com/eticloud-hub/rozgar-map/internal/mgnrega/datagov"
	_ "github.com/eticloud-hub/rozgar-map/internal/mgnrega/nregadirect"
)

// Module bundles the constructed services. Everything is built once at
// process start and injected explicitly; there is no package-level
// mutable state beyond the provider registry.
type Module struct {
	Store        *Store
	Cache        *cache.Cache
	Provider     provider.MetricsProvider
	Orchestrator *syncjob.Orchestrator
	Handlers     *Handlers
	Admin        *Admin
}

// Init migrates the schema and wires the module's services together.
func Init(database *gorm.DB, responseCache *cache.Cache) (*Module, error) {
	if err := db.EnsureSchema(database, "mgnrega"); err != nil {
		return nil, fmt.Errorf("ensure schema mgnrega: %w", err)
	}

	if err := database.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	if err := database.AutoMigrate(
		&State{},
		&District{},
		&DistrictMetric{},
		&SyncRun{},
		&CitizenReport{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate tables: %w", err)
	}

	store := NewStore(database)

	cfg := provider.LoadFromEnv()
	p, err := provider.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", cfg.Provider, err)
	}
	log.Printf("[mgnrega] initialized %s provider", p.Name())

	orch := syncjob.NewOrchestrator(syncjob.NewFetcher(p), store, syncjob.DefaultConfig())
	orch.AfterRun = func(tally syncjob.Tally) {
		// Fresh rows landed; stale read-path entries must not outlive
		// them.
		removed := responseCache.Invalidate("")
		log.Printf("[mgnrega] invalidated %d cache entries after sync", removed)
	}

	m := &Module{
		Store:        store,
		Cache:        responseCache,
		Provider:     p,
		Orchestrator: orch,
		Handlers:     &Handlers{Store: store, Cache: responseCache},
		Admin:        &Admin{Orchestrator: orch, Store: store, Cache: responseCache},
	}
	return m, nil
}
