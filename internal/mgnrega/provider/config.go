package provider

import (
	"os"
	"strings"
)

// ProviderType identifies which metrics data provider to use.
type ProviderType string

const (
	ProviderDataGov     ProviderType = "datagov"
	ProviderNregaDirect ProviderType = "nregadirect"
)

// Config holds configuration for the district metrics provider.
type Config struct {
	// Provider type: "datagov" or "nregadirect"
	Provider ProviderType

	// data.gov.in-specific config
	DataGovKey      string
	DataGovEndpoint string

	// Direct NREGA API config
	NregaEndpoint string
}

// DefaultDataGovEndpoint is the data.gov.in resource API base URL.
const DefaultDataGovEndpoint = "https://api.data.gov.in/resource"

// DefaultNregaEndpoint is the direct NREGA district data endpoint.
const DefaultNregaEndpoint = "https://nrega.nic.in/netnrega/api/district_data"

// LoadFromEnv loads provider configuration from environment variables.
//
// Environment variables:
//   - METRICS_PROVIDER: "datagov" or "nregadirect" (default: "datagov")
//   - DATA_GOV_API_KEY: API key for data.gov.in (required if using datagov)
//   - DATA_GOV_ENDPOINT: resource API base URL (default: https://api.data.gov.in/resource)
//   - NREGA_ENDPOINT: direct API URL (default: https://nrega.nic.in/netnrega/api/district_data)
func LoadFromEnv() Config {
	providerStr := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_PROVIDER")))

	var p ProviderType
	switch providerStr {
	case "nregadirect":
		p = ProviderNregaDirect
	default:
		p = ProviderDataGov
	}

	dgEndpoint := strings.TrimSpace(os.Getenv("DATA_GOV_ENDPOINT"))
	if dgEndpoint == "" {
		dgEndpoint = DefaultDataGovEndpoint
	}

	nregaEndpoint := strings.TrimSpace(os.Getenv("NREGA_ENDPOINT"))
	if nregaEndpoint == "" {
		nregaEndpoint = DefaultNregaEndpoint
	}

	return Config{
		Provider:        p,
		DataGovKey:      os.Getenv("DATA_GOV_API_KEY"),
		DataGovEndpoint: dgEndpoint,
		NregaEndpoint:   nregaEndpoint,
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderDataGov:
		if c.DataGovKey == "" {
			return ErrMissingDataGovKey
		}
	case ProviderNregaDirect:
		if c.NregaEndpoint == "" {
			return ErrMissingNregaEndpoint
		}
	}
	return nil
}
