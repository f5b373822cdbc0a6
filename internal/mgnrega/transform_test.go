package mgnrega

import (
	"testing"
	"time"

	"github.com/eticloud-hub/rozgar-map/internal/mgnrega/provider"
)

func TestNormalizeMetricsCoercesLeniently(t *testing.T) {
	now := time.Date(2024, 10, 20, 12, 0, 0, 0, time.UTC)
	raw := &provider.RawDistrictMetrics{
		Month:                "2024-10",
		HouseholdsRegistered: "12000",
		HouseholdsEmployed:   "8500.0", // decimal-quoted count
		PersonDays:           "not-a-number",
		AvgWage:              " 245.50 ",
		FundsAllocated:       "25000000", // rupees
		FundsReleased:        "",
		FundsUtilized:        "garbage",
		WorksStarted:         "320",
		CompletionPct:        "112.5", // out of range upstream
		WomenPct:             "-3",
		ScStPct:              "41.2",
	}

	m := NormalizeMetrics(raw, "2024-10", now, SourceAPI, AutoSyncTTL)

	if m.HouseholdsRegistered != 12000 {
		t.Errorf("HouseholdsRegistered = %d", m.HouseholdsRegistered)
	}
	if m.HouseholdsEmployed != 8500 {
		t.Errorf("decimal count not coerced: %d", m.HouseholdsEmployed)
	}
	if m.PersonDaysGenerated != 0 {
		t.Errorf("malformed count should zero out, got %d", m.PersonDaysGenerated)
	}
	if m.AverageWagePerDay != 245.50 {
		t.Errorf("AverageWagePerDay = %f", m.AverageWagePerDay)
	}
	if m.FundsAllocated != 250 {
		t.Errorf("funds not scaled to lakhs: %f", m.FundsAllocated)
	}
	if m.FundsReleased != 0 || m.FundsUtilized != 0 {
		t.Errorf("missing/malformed funds should zero out: %f / %f", m.FundsReleased, m.FundsUtilized)
	}
	if m.WorkCompletionPercentage != 100 {
		t.Errorf("percentage not clamped high: %f", m.WorkCompletionPercentage)
	}
	if m.WomenEmploymentPercentage != 0 {
		t.Errorf("percentage not clamped low: %f", m.WomenEmploymentPercentage)
	}
	if m.ScStEmploymentPercentage != 41.2 {
		t.Errorf("ScStEmploymentPercentage = %f", m.ScStEmploymentPercentage)
	}
}

func TestNormalizeMetricsStampsProvenance(t *testing.T) {
	now := time.Date(2024, 10, 20, 12, 0, 0, 0, time.UTC)
	raw := &provider.RawDistrictMetrics{PersonDays: "100"}

	m := NormalizeMetrics(raw, "2024-10", now, SourceAPI, AutoSyncTTL)

	if m.DataSource != SourceAPI {
		t.Errorf("DataSource = %q", m.DataSource)
	}
	if !m.LastUpdated.Equal(now) {
		t.Errorf("LastUpdated = %s, want normalization time", m.LastUpdated)
	}
	if !m.CacheExpiry.Equal(now.Add(AutoSyncTTL)) {
		t.Errorf("CacheExpiry = %s", m.CacheExpiry)
	}
	if m.IsVerified {
		t.Error("automated records must start unverified")
	}
	// Month falls back to the requested period when the payload omits it.
	if m.Month != "2024-10" {
		t.Errorf("Month = %q", m.Month)
	}
	if m.FinancialYear != "2024-2025" {
		t.Errorf("FinancialYear = %q", m.FinancialYear)
	}
}

func TestNormalizeMetricsManualTTL(t *testing.T) {
	now := time.Now()
	m := NormalizeMetrics(&provider.RawDistrictMetrics{}, "2024-10", now, SourceManual, ManualImportTTL)
	if !m.CacheExpiry.Equal(now.Add(ManualImportTTL)) {
		t.Fatalf("manual import expiry = %s", m.CacheExpiry)
	}
}

func TestFinancialYearOf(t *testing.T) {
	cases := []struct {
		month string
		want  string
	}{
		{"2024-04", "2024-2025"},
		{"2024-10", "2024-2025"},
		{"2025-03", "2024-2025"},
		{"2025-04", "2025-2026"},
		{"2024-01", "2023-2024"},
		{"bogus", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FinancialYearOf(tc.month); got != tc.want {
			t.Errorf("FinancialYearOf(%q) = %q, want %q", tc.month, got, tc.want)
		}
	}
}
