package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

// DefaultIPAPIEndpoint is the free ip-api.com JSON endpoint
// (45 requests/minute on the free tier).
const DefaultIPAPIEndpoint = "http://ip-api.com/json"

// IPAPIClient looks up approximate coordinates for an IP address.
type IPAPIClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewIPAPIClient creates a client against ip-api.com. An empty endpoint
// uses the default.
func NewIPAPIClient(endpoint string) *IPAPIClient {
	if endpoint == "" {
		endpoint = DefaultIPAPIEndpoint
	}
	return &IPAPIClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	City       string  `json:"city"`
	RegionName string  `json:"regionName"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// Locate resolves ip to coordinates. Any failure (transport, non-200,
// service-level "fail" status) is returned as an error; the resolver
// maps those to an unresolved result.
func (c *IPAPIClient) Locate(ctx context.Context, ip string) (float64, float64, error) {
	u := fmt.Sprintf("%s/%s", c.endpoint, url.PathEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("ip lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("ip lookup status %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, fmt.Errorf("decode ip lookup: %w", err)
	}

	if body.Status != "success" {
		return 0, 0, fmt.Errorf("ip lookup failed: %s", body.Message)
	}

	log.Printf("[geo] IP %s resolved to %s, %s", ip, body.City, body.RegionName)
	return body.Lat, body.Lon, nil
}
