package datagov

import (
	"context"

	"github.com/eticloud-hub/rozgar-map/internal/mgnrega/provider"
)

// Provider adapts Client to the MetricsProvider interface.
type Provider struct {
	client *Client
}

func init() {
	provider.RegisterProvider(provider.ProviderDataGov, New)
}

// New creates a data.gov.in provider from config.
func New(cfg provider.Config) (provider.MetricsProvider, error) {
	return &Provider{
		client: NewClient(cfg.DataGovKey, cfg.DataGovEndpoint),
	}, nil
}

func (p *Provider) Name() string {
	return "datagov"
}

func (p *Provider) FetchDistrict(ctx context.Context, districtCode, period string) (*provider.RawDistrictMetrics, error) {
	return p.client.FetchDistrict(ctx, districtCode, period)
}

func (p *Provider) HealthCheck(ctx context.Context) error {
	return p.client.HealthCheck(ctx)
}
