package mgnrega

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// State is master data, created at seed time.
type State struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name           string    `json:"name"`
	Code           string    `json:"code" gorm:"uniqueIndex;size:5"` // e.g. "MH"
	Region         string    `json:"region"`                         // North, South, East, West, Central, Northeast
	Population     int64     `json:"population"`
	TotalDistricts int       `json:"total_districts"`
}

// District is master data: one row per administrative district. Created
// at seed/registration time, rarely mutated, never deleted by the
// pipeline.
type District struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	StateID         uuid.UUID `json:"state_id" gorm:"type:uuid;index"`
	Name            string    `json:"name"`
	Code            string    `json:"code" gorm:"uniqueIndex;size:10"` // MGNREGA district code
	Population      int64     `json:"population"`
	RuralPopulation int64     `json:"rural_population"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
}

// Data source provenance tags for DistrictMetric.DataSource.
const (
	SourceAPI    = "MGNREGA_API"
	SourceManual = "MANUAL"
	SourceSeed   = "SEED"
)

// DistrictMetric holds one district's reported numbers for one calendar
// month. At most one row exists per (DistrictID, Month); a second write
// for the same key replaces the value fields in place.
type DistrictMetric struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	DistrictID uuid.UUID `json:"district_id" gorm:"type:uuid;uniqueIndex:uniq_district_month;index"`
	Month      string    `json:"month" gorm:"uniqueIndex:uniq_district_month;size:7"` // "2024-10"

	FinancialYear string `json:"financial_year" gorm:"size:9;index"` // "2024-2025"

	// Core employment metrics
	HouseholdsRegistered int64   `json:"households_registered"`
	HouseholdsEmployed   int64   `json:"households_employed"`
	PersonDaysGenerated  int64   `json:"person_days_generated"`
	AverageWagePerDay    float64 `json:"average_wage_per_day"`

	// Financial data, in lakhs
	FundsAllocated float64 `json:"funds_allocated"`
	FundsReleased  float64 `json:"funds_released"`
	FundsUtilized  float64 `json:"funds_utilized"`

	// Work completion
	TotalWorksStarted        int64   `json:"total_works_started"`
	TotalWorksCompleted      int64   `json:"total_works_completed"`
	WorkCompletionPercentage float64 `json:"work_completion_percentage"`

	// Demographic employment shares
	WomenEmploymentPercentage float64 `json:"women_employment_percentage"`
	ScStEmploymentPercentage  float64 `json:"sc_st_employment_percentage"`

	// Provenance / freshness
	DataSource  string    `json:"data_source"` // MGNREGA_API, MANUAL, SEED
	LastUpdated time.Time `json:"last_updated"`
	IsVerified  bool      `json:"is_verified"`
	CacheExpiry time.Time `json:"cache_expiry" gorm:"index"`
}

// Sync run statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

// SyncRun is the ledger row for one pipeline execution. Created at run
// start, finalized exactly once, immutable thereafter.
type SyncRun struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	JobName string    `json:"job_name" gorm:"index;size:64"`
	Status  string    `json:"status" gorm:"index;size:16"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`

	// Errors holds a truncated prefix of per-district error strings;
	// the counts above stay exact.
	Errors pq.StringArray `json:"errors" gorm:"type:text[]"`

	// ErrorMessage is set on orchestrator-level failure.
	ErrorMessage string `json:"error_message,omitempty"`
}

// Citizen report statuses.
const (
	ReportStatusPending  = "pending"
	ReportStatusReviewed = "reviewed"
	ReportStatusResolved = "resolved"
)

// CitizenReport is a user-submitted complaint or correction about a
// district's published numbers. DistrictID is optional; reports survive
// district deletion as unattributed.
type CitizenReport struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	DistrictID *uuid.UUID `json:"district_id,omitempty" gorm:"type:uuid;index"`

	Message   string `json:"message"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`

	Status      string    `json:"status" gorm:"index;size:16"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (State) TableName() string {
	return "mgnrega.states"
}

func (District) TableName() string {
	return "mgnrega.districts"
}

func (DistrictMetric) TableName() string {
	return "mgnrega.district_metrics"
}

func (SyncRun) TableName() string {
	return "mgnrega.sync_runs"
}

func (CitizenReport) TableName() string {
	return "mgnrega.citizen_reports"
}
