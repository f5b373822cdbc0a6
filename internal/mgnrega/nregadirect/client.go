package nregadirect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eticloud-hub/rozgar-map/internal/mgnrega/provider"
)

const userAgent = "Rozgar-Map-Backend/1.0"

// Client posts JSON requests to the direct NREGA district-data endpoint.
// Unlike datagov's resource query interface, this API takes the district
// code and period split into year/month fields in the request body.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = provider.DefaultNregaEndpoint
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type districtRequest struct {
	DistrictCode string `json:"district_code"`
	Year         int    `json:"year"`
	Month        string `json:"month"`
}

// FetchDistrict issues one POST for a district/period pair, with the
// same error taxonomy as the datagov client: 429 → ErrRateLimited,
// missing payload → ErrNoData.
func (c *Client) FetchDistrict(ctx context.Context, districtCode, period string) (*provider.RawDistrictMetrics, error) {
	year, month, err := splitPeriod(period)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(districtRequest{
		DistrictCode: districtCode,
		Year:         year,
		Month:        month,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	provider.LogRequest("nregadirect", "POST", c.endpoint, map[string]interface{}{
		"district": districtCode,
		"month":    period,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		provider.LogError("nregadirect", "fetch", err)
		return nil, fmt.Errorf("nregadirect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		provider.LogError("nregadirect", "fetch", provider.ErrRateLimited)
		return nil, provider.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("nregadirect status %d", resp.StatusCode)
		provider.LogError("nregadirect", "fetch", err)
		return nil, err
	}

	var raw provider.RawDistrictMetrics
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		provider.LogError("nregadirect", "decode", err)
		return nil, fmt.Errorf("decode nregadirect: %w", err)
	}

	provider.LogResponse("nregadirect", resp.StatusCode, time.Since(start), 1)

	// The endpoint answers 200 with an empty object for unknown keys;
	// treat a payload with no employment figures at all as no data.
	if isEmpty(raw) {
		return nil, fmt.Errorf("district %s month %s: %w", districtCode, period, provider.ErrNoData)
	}

	raw.DistrictCode = districtCode
	raw.Source = "nregadirect"
	return &raw, nil
}

// HealthCheck probes the endpoint with a HEAD request.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}

func splitPeriod(period string) (int, string, error) {
	parts := strings.SplitN(period, "-", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("invalid period %q", period)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("invalid period %q", period)
	}
	return year, parts[1], nil
}

func isEmpty(raw provider.RawDistrictMetrics) bool {
	return raw.HouseholdsRegistered == "" &&
		raw.HouseholdsEmployed == "" &&
		raw.PersonDays == "" &&
		raw.FundsUtilized == ""
}
