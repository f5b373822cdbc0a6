package mgnrega

import (
	"strconv"
	"strings"
	"time"

	"github.com/eticloud-hub/rozgar-map/internal/mgnrega/provider"
)

// Cache-expiry horizons stamped on normalized records. Automated syncs
// refresh daily; manual/bulk imports are trusted for longer.
const (
	AutoSyncTTL     = 24 * time.Hour
	ManualImportTTL = 7 * 24 * time.Hour
)

// lakhDivisor scales monetary fields from rupees to lakhs.
const lakhDivisor = 100000

// NormalizeMetrics maps a raw provider payload into the canonical metric
// record. Every numeric field is coerced leniently: missing, empty, or
// unparseable values default to zero so malformed upstream data degrades
// a single field, never the record or the batch. LastUpdated is the
// normalization time, not the upstream report time.
func NormalizeMetrics(raw *provider.RawDistrictMetrics, period string, now time.Time, source string, ttl time.Duration) DistrictMetric {
	month := strings.TrimSpace(raw.Month)
	if month == "" {
		month = period
	}

	finYear := strings.TrimSpace(raw.FinancialYear)
	if finYear == "" {
		finYear = FinancialYearOf(month)
	}

	return DistrictMetric{
		Month:         month,
		FinancialYear: finYear,

		HouseholdsRegistered: parseCount(raw.HouseholdsRegistered),
		HouseholdsEmployed:   parseCount(raw.HouseholdsEmployed),
		PersonDaysGenerated:  parseCount(raw.PersonDays),
		AverageWagePerDay:    parseAmount(raw.AvgWage),

		FundsAllocated: parseAmount(raw.FundsAllocated) / lakhDivisor,
		FundsReleased:  parseAmount(raw.FundsReleased) / lakhDivisor,
		FundsUtilized:  parseAmount(raw.FundsUtilized) / lakhDivisor,

		TotalWorksStarted:        parseCount(raw.WorksStarted),
		TotalWorksCompleted:      parseCount(raw.WorksCompleted),
		WorkCompletionPercentage: clampPct(parseAmount(raw.CompletionPct)),

		WomenEmploymentPercentage: clampPct(parseAmount(raw.WomenPct)),
		ScStEmploymentPercentage:  clampPct(parseAmount(raw.ScStPct)),

		DataSource:  source,
		LastUpdated: now,
		IsVerified:  false,
		CacheExpiry: now.Add(ttl),
	}
}

// FinancialYearOf derives the Indian fiscal year (April-March) from a
// calendar-month token like "2024-10". Unparseable tokens yield "".
func FinancialYearOf(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return ""
	}
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	return strconv.Itoa(year) + "-" + strconv.Itoa(year+1)
}

func parseCount(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		// Some feeds quote counts as decimals ("1200.0").
		if f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return v
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
