package syncjob_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eticloud-hub/rozgar-map/internal/mgnrega/provider"
	"github.com/eticloud-hub/rozgar-map/internal/syncjob"
)

// mapProvider plays back a per-district error queue, then succeeds.
type mapProvider struct {
	mu   sync.Mutex
	errs map[string][]error
}

func (p *mapProvider) Name() string { return "map" }

func (p *mapProvider) FetchDistrict(ctx context.Context, code, period string) (*provider.RawDistrictMetrics, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if queue := p.errs[code]; len(queue) > 0 {
		err := queue[0]
		p.errs[code] = queue[1:]
		return nil, err
	}
	return &provider.RawDistrictMetrics{DistrictCode: code, Month: period, PersonDays: "500"}, nil
}

func (p *mapProvider) HealthCheck(ctx context.Context) error { return nil }

// memStore is an in-memory syncjob.Store that records every call.
type memStore struct {
	mu sync.Mutex

	districts []syncjob.District
	listErr   error

	saves map[string]int // district code -> save count

	beginGate  chan struct{} // when set, BeginRun blocks until closed
	runID      uuid.UUID
	finished   *syncjob.Tally
	failReason string
}

func newMemStore(codes ...string) *memStore {
	s := &memStore{saves: make(map[string]int), runID: uuid.New()}
	for _, code := range codes {
		s.districts = append(s.districts, syncjob.District{
			ID:   uuid.New(),
			Code: code,
			Name: "District " + code,
		})
	}
	return s
}

func (s *memStore) DistrictsForSync(ctx context.Context) ([]syncjob.District, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.districts, nil
}

func (s *memStore) SaveDistrictMetrics(ctx context.Context, d syncjob.District, period string, raw *provider.RawDistrictMetrics, manual bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves[d.Code]++
	return s.saves[d.Code] == 1, nil
}

func (s *memStore) BeginRun(ctx context.Context, jobName string) (uuid.UUID, error) {
	if s.beginGate != nil {
		<-s.beginGate
	}
	return s.runID, nil
}

func (s *memStore) FinishRun(ctx context.Context, runID uuid.UUID, tally syncjob.Tally) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = &tally
	return nil
}

func (s *memStore) FailRun(ctx context.Context, runID uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReason = message
	return nil
}

func fastConfig() syncjob.Config {
	return syncjob.Config{BatchSize: 5, ItemDelay: 0, BatchDelay: 0, MaxErrors: 10}
}

func newTestOrchestrator(p provider.MetricsProvider, s syncjob.Store) *syncjob.Orchestrator {
	f := &syncjob.Fetcher{Provider: p, MaxAttempts: 3, BaseDelay: time.Millisecond, RateLimitDelay: time.Millisecond}
	return syncjob.NewOrchestrator(f, s, fastConfig())
}

func TestRunSyncContainsPerDistrictFailures(t *testing.T) {
	store := newMemStore("2701", "2702", "2703", "2704", "2705", "2706", "2707")
	p := &mapProvider{errs: map[string][]error{
		"2702": {errors.New("transient")}, // recovers on retry
		"2705": {provider.ErrNoData, provider.ErrNoData, provider.ErrNoData}, // permanent
	}}

	tally, err := newTestOrchestrator(p, store).RunSync(context.Background(), "test_sync", false)
	if err != nil {
		t.Fatalf("RunSync error: %v", err)
	}

	if tally.SuccessCount != 6 || tally.ErrorCount != 1 {
		t.Fatalf("expected 6 success / 1 error, got %d / %d", tally.SuccessCount, tally.ErrorCount)
	}
	if len(tally.Errors) != 1 || !strings.Contains(tally.Errors[0], "District 2705") {
		t.Fatalf("expected error message naming District 2705, got %v", tally.Errors)
	}

	// Every district except the permanent failure persisted exactly once.
	for _, code := range []string{"2701", "2702", "2703", "2704", "2706", "2707"} {
		if store.saves[code] != 1 {
			t.Errorf("district %s saved %d times, want 1", code, store.saves[code])
		}
	}
	if store.saves["2705"] != 0 {
		t.Errorf("failed district persisted %d times, want 0", store.saves["2705"])
	}

	if store.finished == nil {
		t.Fatal("run was never finalized")
	}
	if store.finished.SuccessCount != 6 || store.finished.ErrorCount != 1 {
		t.Fatalf("ledger tally mismatch: %+v", store.finished)
	}
}

func TestRunSyncRerunIsIdempotentPerDistrict(t *testing.T) {
	store := newMemStore("2701", "2702")
	o := newTestOrchestrator(&mapProvider{}, store)

	for i := 0; i < 2; i++ {
		if _, err := o.RunSync(context.Background(), "test_sync", false); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	// Two runs upsert the same keys; each run touches each district once.
	for code, n := range store.saves {
		if n != 2 {
			t.Errorf("district %s saved %d times across 2 runs, want 2", code, n)
		}
	}
}

func TestRunSyncTruncatesStoredErrors(t *testing.T) {
	codes := make([]string, 12)
	errs := make(map[string][]error, 12)
	for i := range codes {
		codes[i] = fmt.Sprintf("27%02d", i+1)
		errs[codes[i]] = []error{provider.ErrNoData, provider.ErrNoData, provider.ErrNoData}
	}
	store := newMemStore(codes...)

	tally, err := newTestOrchestrator(&mapProvider{errs: errs}, store).RunSync(context.Background(), "test_sync", false)
	if err != nil {
		t.Fatalf("RunSync error: %v", err)
	}

	// Counts stay exact; only the stored message list is bounded.
	if tally.ErrorCount != 12 || len(tally.Errors) != 12 {
		t.Fatalf("expected full tally with 12 errors, got count=%d len=%d", tally.ErrorCount, len(tally.Errors))
	}
	if store.finished.ErrorCount != 12 {
		t.Fatalf("ledger error count = %d, want 12", store.finished.ErrorCount)
	}
	if len(store.finished.Errors) != 10 {
		t.Fatalf("ledger stored %d error messages, want 10", len(store.finished.Errors))
	}
}

func TestRunSyncSingleFlight(t *testing.T) {
	store := newMemStore("2701")
	store.beginGate = make(chan struct{})
	o := newTestOrchestrator(&mapProvider{}, store)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.RunSync(context.Background(), "first", false)
	}()

	// Wait for the first run to take the flight slot.
	for !o.Running() {
		time.Sleep(time.Millisecond)
	}

	if _, err := o.RunSync(context.Background(), "second", true); !errors.Is(err, syncjob.ErrSyncRunning) {
		t.Fatalf("expected ErrSyncRunning, got %v", err)
	}

	close(store.beginGate)
	<-done

	if o.Running() {
		t.Fatal("flight slot not released after run completed")
	}
}

func TestRunSyncListFailureFinalizesRunAsFailed(t *testing.T) {
	store := newMemStore("2701")
	store.listErr = errors.New("connection refused")

	_, err := newTestOrchestrator(&mapProvider{}, store).RunSync(context.Background(), "test_sync", false)
	if err == nil {
		t.Fatal("expected orchestrator-level error")
	}
	if store.failReason == "" {
		t.Fatal("run was not finalized as failed")
	}
	if !strings.Contains(store.failReason, "connection refused") {
		t.Fatalf("fail reason %q does not carry the cause", store.failReason)
	}
}

func TestRunSyncInvokesAfterRunOnlyWithSuccesses(t *testing.T) {
	store := newMemStore("2701")
	store2 := newMemStore("2701")

	okOrch := newTestOrchestrator(&mapProvider{}, store)
	var hookTally *syncjob.Tally
	okOrch.AfterRun = func(tally syncjob.Tally) { hookTally = &tally }
	if _, err := okOrch.RunSync(context.Background(), "test_sync", false); err != nil {
		t.Fatalf("RunSync error: %v", err)
	}
	if hookTally == nil || hookTally.SuccessCount != 1 {
		t.Fatalf("AfterRun not invoked with successes, got %+v", hookTally)
	}

	failOrch := newTestOrchestrator(&mapProvider{errs: map[string][]error{
		"2701": {provider.ErrNoData, provider.ErrNoData, provider.ErrNoData},
	}}, store2)
	invoked := false
	failOrch.AfterRun = func(syncjob.Tally) { invoked = true }
	if _, err := failOrch.RunSync(context.Background(), "test_sync", false); err != nil {
		t.Fatalf("RunSync error: %v", err)
	}
	if invoked {
		t.Fatal("AfterRun must not fire when nothing was persisted")
	}
}

func TestCurrentPeriodFormat(t *testing.T) {
	// 01:00 IST on Nov 1 is still Oct 31 in UTC; the period token is
	// UTC-normalized.
	at := time.Date(2024, time.November, 1, 1, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	if got := syncjob.CurrentPeriod(at); got != "2024-10" {
		t.Fatalf("CurrentPeriod = %q, want 2024-10", got)
	}
}
