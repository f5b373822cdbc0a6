package syncjob

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/eticloud-hub/rozgar-map/internal/mgnrega/provider"
	"github.com/google/uuid"
)

// ErrSyncRunning is returned when a sync run is triggered while another
// one is still in flight. Runs are serialized, never queued.
var ErrSyncRunning = errors.New("a sync run is already in progress")

// District is the minimal registry row the orchestrator needs.
type District struct {
	ID   uuid.UUID
	Code string
	Name string
}

// Tally is the aggregate outcome of one sync run. Errors holds
// human-readable per-district messages; the stored ledger keeps only a
// bounded prefix while counts stay exact.
type Tally struct {
	SuccessCount int
	ErrorCount   int
	Errors       []string
}

// Store is the persistence surface the orchestrator drives. The mgnrega
// package provides the gorm-backed implementation; tests use fakes.
type Store interface {
	// DistrictsForSync lists every registered district.
	DistrictsForSync(ctx context.Context) ([]District, error)

	// SaveDistrictMetrics normalizes and upserts one raw payload keyed by
	// (district, period). Re-running for the same key replaces the row.
	SaveDistrictMetrics(ctx context.Context, d District, period string, raw *provider.RawDistrictMetrics, manual bool) (created bool, err error)

	// BeginRun opens a ledger row in status "running".
	BeginRun(ctx context.Context, jobName string) (uuid.UUID, error)

	// FinishRun finalizes a ledger row from the tally
	// (success, partial, or failed).
	FinishRun(ctx context.Context, runID uuid.UUID, tally Tally) error

	// FailRun finalizes a ledger row after an orchestrator-level failure.
	FailRun(ctx context.Context, runID uuid.UUID, message string) error
}

// Config holds batching and pacing knobs for a sync run.
type Config struct {
	BatchSize  int           // districts per batch (default 5)
	ItemDelay  time.Duration // delay between districts in a batch (default 2s)
	BatchDelay time.Duration // delay between batches (default 5s)
	MaxErrors  int           // error strings stored in the ledger (default 10)
}

// DefaultConfig mirrors the provider's implicit rate budget.
func DefaultConfig() Config {
	return Config{
		BatchSize:  5,
		ItemDelay:  2 * time.Second,
		BatchDelay: 5 * time.Second,
		MaxErrors:  10,
	}
}

// Orchestrator runs the full fetch-transform-persist pipeline for every
// registered district for the current reporting period.
type Orchestrator struct {
	fetcher *Fetcher
	store   Store
	cfg     Config

	// AfterRun, when set, is invoked after a run that persisted at least
	// one record. The service uses it to drop stale response-cache
	// entries.
	AfterRun func(Tally)

	running atomic.Bool
}

// NewOrchestrator wires a fetcher and store with the given config.
// Zero-valued config fields fall back to defaults.
func NewOrchestrator(f *Fetcher, s Store, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = def.MaxErrors
	}
	return &Orchestrator{fetcher: f, store: s, cfg: cfg}
}

// Running reports whether a sync run is currently in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// CurrentPeriod returns the calendar-month token for now, e.g. "2024-10".
func CurrentPeriod(now time.Time) string {
	return now.UTC().Format("2006-01")
}

// RunSync executes one pipeline run under the given job label. Every
// district is processed exactly once; per-district failures are counted
// and recorded but never abort the run. Only orchestrator-level failures
// (the district listing itself) propagate to the caller.
func (o *Orchestrator) RunSync(ctx context.Context, jobName string, manual bool) (Tally, error) {
	if !o.running.CompareAndSwap(false, true) {
		return Tally{}, ErrSyncRunning
	}
	defer o.running.Store(false)

	period := CurrentPeriod(time.Now())
	log.Printf("[Sync] starting %s for period %s", jobName, period)

	runID, err := o.store.BeginRun(ctx, jobName)
	if err != nil {
		return Tally{}, fmt.Errorf("begin sync run: %w", err)
	}

	var districts []District
	listErr := Retry(ctx, "listDistricts", 3, time.Second, func() error {
		var err error
		districts, err = o.store.DistrictsForSync(ctx)
		return err
	})
	if listErr != nil {
		msg := fmt.Sprintf("list districts: %v", listErr)
		if ferr := o.store.FailRun(ctx, runID, msg); ferr != nil {
			log.Printf("[Sync] failed to finalize run %s: %v", runID, ferr)
		}
		return Tally{}, fmt.Errorf("list districts: %w", listErr)
	}

	tally := o.processAll(ctx, districts, period, manual)

	stored := tally
	if len(stored.Errors) > o.cfg.MaxErrors {
		stored.Errors = stored.Errors[:o.cfg.MaxErrors]
	}
	if err := o.store.FinishRun(ctx, runID, stored); err != nil {
		log.Printf("[Sync] failed to finalize run %s: %v", runID, err)
	}

	if o.AfterRun != nil && tally.SuccessCount > 0 {
		o.AfterRun(tally)
	}

	log.Printf("[Sync] %s completed: %d success, %d errors",
		jobName, tally.SuccessCount, tally.ErrorCount)
	return tally, nil
}

// processAll walks the district set in fixed-size batches with
// inter-item and inter-batch delays. The delay structure is cooperative
// backpressure against the provider and is preserved regardless of how
// individual fetches behave.
func (o *Orchestrator) processAll(ctx context.Context, districts []District, period string, manual bool) Tally {
	var tally Tally

	for start := 0; start < len(districts); start += o.cfg.BatchSize {
		end := start + o.cfg.BatchSize
		if end > len(districts) {
			end = len(districts)
		}

		for i, d := range districts[start:end] {
			if err := o.processDistrict(ctx, d, period, manual); err != nil {
				tally.ErrorCount++
				msg := fmt.Sprintf("Failed to update %s: %v", d.Name, err)
				tally.Errors = append(tally.Errors, msg)
				log.Printf("[Sync] %s", msg)
			} else {
				tally.SuccessCount++
			}

			// Pace requests within the batch (skip after the last item).
			if i+1 < end-start {
				if serr := sleepCtx(ctx, o.cfg.ItemDelay); serr != nil {
					return tally
				}
			}
		}

		// Longer pause between batches, except after the last one.
		if end < len(districts) {
			if serr := sleepCtx(ctx, o.cfg.BatchDelay); serr != nil {
				return tally
			}
		}
	}

	return tally
}

func (o *Orchestrator) processDistrict(ctx context.Context, d District, period string, manual bool) error {
	raw, err := o.fetcher.FetchDistrict(ctx, d.Code, period)
	if err != nil {
		return err
	}

	t0 := time.Now()
	created, err := o.store.SaveDistrictMetrics(ctx, d, period, raw, manual)
	if err != nil {
		return fmt.Errorf("persist metrics: %w", err)
	}

	provider.LogUpsert("Sync", d.Code, period, created, time.Since(t0))
	return nil
}
