package mgnrega

import (
	"fmt"
	"sort"
)

// MetricKey is a closed enumeration of the metrics districts can be
// ranked by. Each key maps to an explicit accessor, so "sort by a
// configurable metric" stays type-safe with no reflective field access.
type MetricKey string

const (
	MetricPersonDays         MetricKey = "personDays"
	MetricHouseholdsEmployed MetricKey = "householdsEmployed"
	MetricAvgWage            MetricKey = "avgWage"
	MetricFundsUtilized      MetricKey = "fundsUtilized"
	MetricCompletionRate     MetricKey = "completionRate"
	MetricWomenEmployment    MetricKey = "womenEmployment"
)

var metricAccessors = map[MetricKey]func(DistrictMetric) float64{
	MetricPersonDays:         func(m DistrictMetric) float64 { return float64(m.PersonDaysGenerated) },
	MetricHouseholdsEmployed: func(m DistrictMetric) float64 { return float64(m.HouseholdsEmployed) },
	MetricAvgWage:            func(m DistrictMetric) float64 { return m.AverageWagePerDay },
	MetricFundsUtilized:      func(m DistrictMetric) float64 { return m.FundsUtilized },
	MetricCompletionRate:     func(m DistrictMetric) float64 { return m.WorkCompletionPercentage },
	MetricWomenEmployment:    func(m DistrictMetric) float64 { return m.WomenEmploymentPercentage },
}

// ParseMetricKey validates a caller-supplied metric name.
func ParseMetricKey(s string) (MetricKey, error) {
	key := MetricKey(s)
	if _, ok := metricAccessors[key]; !ok {
		return "", fmt.Errorf("unknown metric key %q", s)
	}
	return key, nil
}

// RankedDistrict pairs a district with its latest value for the ranked
// metric.
type RankedDistrict struct {
	DistrictCode string  `json:"district_code"`
	DistrictName string  `json:"district_name"`
	Month        string  `json:"month"`
	Value        float64 `json:"value"`
}

// RankDistricts orders latest-metric rows by the given key, descending.
// Ties keep a stable district-name order.
func RankDistricts(rows []LatestDistrictMetric, key MetricKey, limit int) []RankedDistrict {
	accessor := metricAccessors[key]

	ranked := make([]RankedDistrict, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, RankedDistrict{
			DistrictCode: row.DistrictCode,
			DistrictName: row.DistrictName,
			Month:        row.Metric.Month,
			Value:        accessor(row.Metric),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].DistrictName < ranked[j].DistrictName
	})

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}
