package datagov

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/eticloud-hub/rozgar-map/internal/mgnrega/provider"
	"golang.org/x/time/rate"
)

const (
	// ResourceID is the data.gov.in resource exposing MGNREGA
	// district-level figures.
	ResourceID = "28e54ed5-9fa1-46f6-b82f-96236bf20c42"

	// userAgent identifies this service to the API.
	userAgent = "Rozgar-Map-Backend/1.0"
)

// Client is an HTTP client for the data.gov.in resource API. A local
// rate limiter paces outbound requests under the provider's implicit
// budget regardless of how callers schedule fetches.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a data.gov.in client. The limiter allows a request
// every two seconds with a small burst, matching the sync pipeline's
// inter-item pacing.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = provider.DefaultDataGovEndpoint
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 2),
	}
}

type resourceResponse struct {
	Count   int                           `json:"count"`
	Records []provider.RawDistrictMetrics `json:"records"`
}

// FetchDistrict issues one request for a district/period pair. Zero
// records is a fetch failure (provider.ErrNoData), and HTTP 429 maps to
// provider.ErrRateLimited so the caller's retry envelope can apply its
// longer wait.
func (c *Client) FetchDistrict(ctx context.Context, districtCode, period string) (*provider.RawDistrictMetrics, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("filters[district_code]", districtCode)
	params.Set("filters[month]", period)

	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, ResourceID, params.Encode())

	start := time.Now()
	provider.LogRequest("datagov", "GET", c.baseURL, map[string]interface{}{
		"district": districtCode,
		"month":    period,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		provider.LogError("datagov", "fetch", err)
		return nil, fmt.Errorf("datagov request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		provider.LogError("datagov", "fetch", provider.ErrRateLimited)
		return nil, provider.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("datagov status %d", resp.StatusCode)
		provider.LogError("datagov", "fetch", err)
		return nil, err
	}

	var body resourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		provider.LogError("datagov", "decode", err)
		return nil, fmt.Errorf("decode datagov: %w", err)
	}

	provider.LogResponse("datagov", resp.StatusCode, time.Since(start), len(body.Records))

	if body.Count == 0 || len(body.Records) == 0 {
		return nil, fmt.Errorf("district %s month %s: %w", districtCode, period, provider.ErrNoData)
	}

	rec := body.Records[0]
	rec.DistrictCode = districtCode
	rec.Source = "datagov"
	return &rec, nil
}

// HealthCheck verifies the API key with a minimal request.
func (c *Client) HealthCheck(ctx context.Context) error {
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", "1")

	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, ResourceID, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}
