package provider

// RawDistrictMetrics is the provider-agnostic raw payload for one district
// and one reporting month. Fields are kept as strings because upstream
// sources deliver numbers inconsistently (quoted, empty, or absent);
// normalization into typed metrics happens in the transform step, which
// coerces malformed values to zero rather than failing the record.
type RawDistrictMetrics struct {
	DistrictCode  string `json:"district_code"`
	FinancialYear string `json:"fin_year"`
	Month         string `json:"month"`

	HouseholdsRegistered string `json:"households_registered"`
	HouseholdsEmployed   string `json:"households_employed"`
	PersonDays           string `json:"person_days"`
	AvgWage              string `json:"avg_wage"`

	// Monetary fields arrive in rupees and are scaled to lakhs downstream.
	FundsAllocated string `json:"funds_allocated"`
	FundsReleased  string `json:"funds_released"`
	FundsUtilized  string `json:"funds_utilized"`

	WorksStarted   string `json:"works_started"`
	WorksCompleted string `json:"works_completed"`
	CompletionPct  string `json:"completion_pct"`

	WomenPct string `json:"women_pct"`
	ScStPct  string `json:"sc_st_pct"`

	// Source tracking
	Source string `json:"source"` // "datagov" or "nregadirect"
}
