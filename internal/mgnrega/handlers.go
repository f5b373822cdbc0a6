package mgnrega

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eticloud-hub/rozgar-map/internal/cache"
	"github.com/go-chi/chi/v5"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Cache TTLs by endpoint shape: list-style aggregates are refreshed by
// the daily sync anyway, point lookups turn over faster.
const (
	listCacheTTL  = time.Hour
	pointCacheTTL = 15 * time.Minute
)

// Handlers serves the read API. Every endpoint goes through the response
// cache; on a miss the store is queried and the serialized payload is
// cached. Read endpoints never surface sync errors — missing data is an
// empty array, not a failure.
type Handlers struct {
	Store *Store
	Cache *cache.Cache
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// cached implements the read-through: serve from cache (flagging HIT and
// staleness), else build the payload, store it, serve it.
func (h *Handlers) cached(w http.ResponseWriter, key string, ttl time.Duration, build func() (any, error)) {
	if body, ok, stale := h.Cache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json")
		if stale {
			w.Header().Set("X-Cache", "STALE")
		} else {
			w.Header().Set("X-Cache", "HIT")
		}
		_, _ = w.Write(body)
		return
	}

	payload, err := build()
	if err != nil {
		log.Printf("[API] key=%s err=%v", key, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.Cache.Set(key, body, ttl)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(body)
}

// districtNameCollator orders district names the way an Indian-English
// directory would, rather than by raw bytes.
var districtNameCollator = collate.New(language.Make("en-IN"))

func queryInt(r *http.Request, name string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

// ListDistricts handles GET /districts?page=&page_size=
func (h *Handlers) ListDistricts(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1, 0)
	pageSize := queryInt(r, "page_size", 50, 100)
	key := fmt.Sprintf("districts:list:%d:%d", page, pageSize)

	h.cached(w, key, listCacheTTL, func() (any, error) {
		rows, err := h.Store.ListDistricts(r.Context())
		if err != nil {
			return nil, err
		}

		sort.SliceStable(rows, func(i, j int) bool {
			return districtNameCollator.CompareString(rows[i].Name, rows[j].Name) < 0
		})

		start := (page - 1) * pageSize
		if start > len(rows) {
			start = len(rows)
		}
		end := start + pageSize
		if end > len(rows) {
			end = len(rows)
		}

		return map[string]any{
			"count":     len(rows),
			"page":      page,
			"page_size": pageSize,
			"data":      rows[start:end],
		}, nil
	})
}

// GetDistrict handles GET /districts/{code}
func (h *Handlers) GetDistrict(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	d, err := h.Store.DistrictByCode(r.Context(), code)
	if errors.Is(err, ErrDistrictNotFound) {
		http.Error(w, "District not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] district code=%s err=%v", code, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, d)
}

// GetDistrictMetrics handles GET /districts/{code}/metrics?months=N
func (h *Handlers) GetDistrictMetrics(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	months := queryInt(r, "months", 12, 60)

	d, err := h.Store.DistrictByCode(r.Context(), code)
	if errors.Is(err, ErrDistrictNotFound) {
		http.Error(w, "District not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] metrics code=%s err=%v", code, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	key := fmt.Sprintf("districts:metrics:%s:%d", code, months)
	h.cached(w, key, pointCacheTTL, func() (any, error) {
		rows, err := h.Store.MetricsForDistrict(r.Context(), d.ID, months)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []DistrictMetric{}
		}
		return map[string]any{
			"district": map[string]string{
				"code":       d.Code,
				"name":       d.Name,
				"state_name": d.StateName,
			},
			"metrics": rows,
		}, nil
	})
}

// staleAfter marks a summary stale when the latest row is older than a
// reporting month plus slack.
const staleAfter = 30 * 24 * time.Hour

// GetDistrictSummary handles GET /districts/{code}/summary
func (h *Handlers) GetDistrictSummary(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	d, err := h.Store.DistrictByCode(r.Context(), code)
	if errors.Is(err, ErrDistrictNotFound) {
		http.Error(w, "District not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] summary code=%s err=%v", code, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// The summary window is fixed (latest row only), so unlike the
	// metrics keys there is no window component here. All per-district
	// keys share the districts: prefix for invalidation.
	key := "districts:summary:" + code
	h.cached(w, key, pointCacheTTL, func() (any, error) {
		rows, err := h.Store.MetricsForDistrict(r.Context(), d.ID, 1)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return map[string]any{
				"district_code": d.Code,
				"district_name": d.Name,
				"has_data":      false,
			}, nil
		}

		latest := rows[0]
		age := time.Since(latest.LastUpdated)
		return map[string]any{
			"district_code": d.Code,
			"district_name": d.Name,
			"has_data":      true,
			"latest_month":  latest.Month,
			"metrics":       latest,
			"freshness": map[string]any{
				"last_updated": latest.LastUpdated,
				"days_old":     int(age.Hours() / 24),
				"is_stale":     age > staleAfter,
			},
		}, nil
	})
}

// AggregateMetrics handles GET /metrics/aggregate?months=N
func (h *Handlers) AggregateMetrics(w http.ResponseWriter, r *http.Request) {
	months := queryInt(r, "months", 12, 60)
	key := fmt.Sprintf("metrics:aggregate:%d", months)

	h.cached(w, key, listCacheTTL, func() (any, error) {
		rows, err := h.Store.AggregateByMonth(r.Context(), months)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []MonthlyAggregate{}
		}
		return map[string]any{"months": rows}, nil
	})
}

// maxCompareCodes bounds the comparison endpoint.
const maxCompareCodes = 10

// CompareDistricts handles GET /districts/compare?codes=a,b,c
func (h *Handlers) CompareDistricts(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("codes"))
	if raw == "" {
		http.Error(w, "codes query parameter is required", http.StatusBadRequest)
		return
	}

	codes := strings.Split(raw, ",")
	if len(codes) > maxCompareCodes {
		http.Error(w, fmt.Sprintf("at most %d codes per comparison", maxCompareCodes), http.StatusBadRequest)
		return
	}

	key := "districts:compare:" + raw
	h.cached(w, key, pointCacheTTL, func() (any, error) {
		latest, err := h.Store.LatestMetrics(r.Context())
		if err != nil {
			return nil, err
		}
		byCode := make(map[string]LatestDistrictMetric, len(latest))
		for _, row := range latest {
			byCode[row.DistrictCode] = row
		}

		// Unknown or data-less codes are skipped, not errors.
		out := make([]map[string]any, 0, len(codes))
		for _, code := range codes {
			row, ok := byCode[strings.TrimSpace(code)]
			if !ok {
				continue
			}
			out = append(out, map[string]any{
				"district_code": row.DistrictCode,
				"district_name": row.DistrictName,
				"metrics":       row.Metric,
			})
		}
		return map[string]any{"comparisons": out}, nil
	})
}

// GetRankings handles GET /districts/rankings?metric=&limit=
func (h *Handlers) GetRankings(w http.ResponseWriter, r *http.Request) {
	metricParam := r.URL.Query().Get("metric")
	if metricParam == "" {
		metricParam = string(MetricPersonDays)
	}
	metric, err := ParseMetricKey(metricParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit := queryInt(r, "limit", 10, 50)

	key := fmt.Sprintf("districts:rankings:%s:%d", metric, limit)
	h.cached(w, key, listCacheTTL, func() (any, error) {
		latest, err := h.Store.LatestMetrics(r.Context())
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"metric":   metric,
			"rankings": RankDistricts(latest, metric, limit),
		}, nil
	})
}

// Citizen report message length bounds, in runes.
const (
	reportMinLen = 10
	reportMaxLen = 500
)

func validateReportMessage(msg string) (string, error) {
	msg = strings.TrimSpace(msg)
	if n := utf8.RuneCountInString(msg); n < reportMinLen || n > reportMaxLen {
		return "", fmt.Errorf("message must be %d-%d characters", reportMinLen, reportMaxLen)
	}
	return msg, nil
}

// SubmitReport handles POST /reports — a citizen complaint or correction
// about published numbers. district_code is optional but must be
// registered when given.
func (h *Handlers) SubmitReport(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message      string `json:"message"`
		DistrictCode string `json:"district_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	msg, err := validateReportMessage(in.Message)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report := CitizenReport{
		Message:   msg,
		UserAgent: r.UserAgent(),
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		report.IPAddress = host
	} else {
		report.IPAddress = r.RemoteAddr
	}

	if code := strings.TrimSpace(in.DistrictCode); code != "" {
		d, err := h.Store.DistrictByCode(r.Context(), code)
		if errors.Is(err, ErrDistrictNotFound) {
			http.Error(w, "Unknown district code", http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Printf("[API] report district code=%s err=%v", code, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		report.DistrictID = &d.ID
	}

	if err := h.Store.CreateReport(r.Context(), &report); err != nil {
		log.Printf("[API] submit report err=%v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Printf("[API] citizen report %s submitted from %s", report.ID, report.IPAddress)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":        report.ID,
		"status":    "submitted",
		"message":   "Thank you for your report. We will review it shortly.",
		"timestamp": report.SubmittedAt,
	})
}

// ListSyncRuns handles GET /sync/runs?limit= — run history for
// operational dashboards.
func (h *Handlers) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, 100)

	runs, err := h.Store.RecentRuns(r.Context(), limit)
	if err != nil {
		log.Printf("[API] sync runs err=%v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []SyncRun{}
	}
	writeJSON(w, map[string]any{"runs": runs})
}
