package syncjob

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/eticloud-hub/rozgar-map/internal/mgnrega/provider"
)

// Fetcher wraps a MetricsProvider with the retry envelope the upstream
// sources need: pure exponential backoff for transient failures and a
// longer, attempt-scaled wait when the source answers 429. Both paths
// share one attempt ceiling; exhausting it surfaces the last error for
// that district/period pair unchanged.
type Fetcher struct {
	Provider provider.MetricsProvider

	// MaxAttempts is the shared attempt ceiling (default 3).
	MaxAttempts int

	// BaseDelay seeds the exponential backoff for generic failures
	// (default 1s, so waits run 1s, 2s, 4s...).
	BaseDelay time.Duration

	// RateLimitDelay is multiplied by the attempt number after a 429
	// (default 5s, so waits run 5s, 10s, 15s...).
	RateLimitDelay time.Duration
}

// NewFetcher returns a Fetcher with the standard limits.
func NewFetcher(p provider.MetricsProvider) *Fetcher {
	return &Fetcher{
		Provider:       p,
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		RateLimitDelay: 5 * time.Second,
	}
}

// FetchDistrict fetches raw metrics for one district/period, retrying per
// the envelope above. A successful return always carries a nonempty
// payload; the providers map empty result sets to provider.ErrNoData.
func (f *Fetcher) FetchDistrict(ctx context.Context, districtCode, period string) (*provider.RawDistrictMetrics, error) {
	name := fmt.Sprintf("fetchDistrict(%s, %s)", districtCode, period)
	var lastErr error

	for attempt := 1; attempt <= f.MaxAttempts; attempt++ {
		raw, err := f.Provider.FetchDistrict(ctx, districtCode, period)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if attempt == f.MaxAttempts {
			break
		}

		var wait time.Duration
		if errors.Is(err, provider.ErrRateLimited) {
			wait = f.RateLimitDelay * time.Duration(attempt)
			log.Printf("[Fetcher] rate limited on attempt %d for %s, waiting %s", attempt, name, wait)
		} else {
			wait = f.BaseDelay * (1 << (attempt - 1))
			log.Printf("[Fetcher] attempt %d failed for %s (%v), waiting %s", attempt, name, err, wait)
		}

		if serr := sleepCtx(ctx, wait); serr != nil {
			return nil, serr
		}
	}

	return nil, lastErr
}
