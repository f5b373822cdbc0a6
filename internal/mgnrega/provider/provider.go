package provider

import (
	"context"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrMissingDataGovKey    = errors.New("DATA_GOV_API_KEY environment variable is required for datagov provider")
	ErrMissingNregaEndpoint = errors.New("NREGA_ENDPOINT environment variable is required for nregadirect provider")
	ErrUnknownProvider      = errors.New("unknown provider type")

	// ErrNoData is returned when the upstream responds successfully but
	// carries zero records for the requested district/period. Downstream
	// consumers assume a nonempty payload on success, so this is a fetch
	// failure, not an empty success.
	ErrNoData = errors.New("no records for requested district and period")

	// ErrRateLimited is returned when the upstream responds with HTTP 429.
	ErrRateLimited = errors.New("rate limited by upstream API")
)

// MetricsProvider is the interface all district metrics providers implement.
// It abstracts the differences between the data.gov.in resource API, the
// direct NREGA endpoint, and any future sources.
type MetricsProvider interface {
	// Name returns the provider name for logging purposes.
	Name() string

	// FetchDistrict fetches raw metrics for one district and one calendar
	// month period (e.g. "2024-10"). A nil error guarantees a nonempty
	// payload; zero upstream records surface as ErrNoData.
	FetchDistrict(ctx context.Context, districtCode, period string) (*RawDistrictMetrics, error)

	// HealthCheck verifies the provider can reach its data source.
	HealthCheck(ctx context.Context) error
}

// providerRegistry holds registered provider constructors so new providers
// can be added without modifying this file.
var providerRegistry = make(map[ProviderType]func(Config) (MetricsProvider, error))

// RegisterProvider registers a provider constructor for a given provider
// type. Called from init() in each provider package.
func RegisterProvider(providerType ProviderType, constructor func(Config) (MetricsProvider, error)) {
	providerRegistry[providerType] = constructor
}

// NewProvider creates a MetricsProvider based on the configuration.
func NewProvider(cfg Config) (MetricsProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	constructor, ok := providerRegistry[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	return constructor(cfg)
}
