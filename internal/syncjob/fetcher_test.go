package syncjob_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/eticloud-hub/rozgar-map/internal/mgnrega/provider"
	"github.com/eticloud-hub/rozgar-map/internal/syncjob"
)

// scriptedProvider returns the queued errors in order, then succeeds.
type scriptedProvider struct {
	errs  []error
	calls int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) FetchDistrict(ctx context.Context, code, period string) (*provider.RawDistrictMetrics, error) {
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &provider.RawDistrictMetrics{
		DistrictCode: code,
		Month:        period,
		PersonDays:   "1000",
	}, nil
}

func (p *scriptedProvider) HealthCheck(ctx context.Context) error { return nil }

func fastFetcher(p provider.MetricsProvider) *syncjob.Fetcher {
	return &syncjob.Fetcher{
		Provider:       p,
		MaxAttempts:    3,
		BaseDelay:      time.Millisecond,
		RateLimitDelay: time.Millisecond,
	}
}

func TestFetchDistrictRetriesAfterRateLimit(t *testing.T) {
	p := &scriptedProvider{errs: []error{provider.ErrRateLimited}}
	f := fastFetcher(p)

	raw, err := f.FetchDistrict(context.Background(), "2726", "2024-10")
	if err != nil {
		t.Fatalf("expected success after rate-limit retry, got %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", p.calls)
	}
	if raw.DistrictCode != "2726" {
		t.Fatalf("expected district code passthrough, got %q", raw.DistrictCode)
	}
}

func TestFetchDistrictExhaustsSharedCeiling(t *testing.T) {
	// Rate-limit and generic failures draw from the same attempt budget.
	p := &scriptedProvider{errs: []error{
		provider.ErrRateLimited,
		errors.New("upstream hiccup"),
		fmt.Errorf("district 2726: %w", provider.ErrNoData),
	}}
	f := fastFetcher(p)

	_, err := f.FetchDistrict(context.Background(), "2726", "2024-10")
	if p.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", p.calls)
	}
	if !errors.Is(err, provider.ErrNoData) {
		t.Fatalf("expected last error to surface unchanged, got %v", err)
	}
}

func TestFetchDistrictEmptyResultIsFailure(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		provider.ErrNoData,
		provider.ErrNoData,
		provider.ErrNoData,
	}}
	f := fastFetcher(p)

	_, err := f.FetchDistrict(context.Background(), "2701", "2024-10")
	if !errors.Is(err, provider.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
