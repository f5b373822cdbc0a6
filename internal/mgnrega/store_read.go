package mgnrega

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DistrictOut is a registry row joined with its state name.
type DistrictOut struct {
	District
	StateName string `json:"state_name"`
	StateCode string `json:"state_code"`
}

// ListDistricts returns the full registry with state names attached.
// Callers handle ordering and pagination; the registry is small.
func (s *Store) ListDistricts(ctx context.Context) ([]DistrictOut, error) {
	var districts []District
	if err := s.DB.WithContext(ctx).Find(&districts).Error; err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}

	var states []State
	if err := s.DB.WithContext(ctx).Find(&states).Error; err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	stateByID := make(map[uuid.UUID]State, len(states))
	for _, st := range states {
		stateByID[st.ID] = st
	}

	out := make([]DistrictOut, 0, len(districts))
	for _, d := range districts {
		row := DistrictOut{District: d}
		if st, ok := stateByID[d.StateID]; ok {
			row.StateName = st.Name
			row.StateCode = st.Code
		}
		out = append(out, row)
	}
	return out, nil
}

// DistrictByCode looks up one registry row. Unknown codes return
// ErrDistrictNotFound.
func (s *Store) DistrictByCode(ctx context.Context, code string) (*DistrictOut, error) {
	var d District
	err := s.DB.WithContext(ctx).Where("code = ?", code).Take(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDistrictNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("district by code %s: %w", code, err)
	}

	out := DistrictOut{District: d}
	var st State
	if err := s.DB.WithContext(ctx).Where("id = ?", d.StateID).Take(&st).Error; err == nil {
		out.StateName = st.Name
		out.StateCode = st.Code
	}
	return &out, nil
}

// DistrictIDByCode resolves a district code to its row ID. Unregistered
// codes report found=false, not an error; the geo enrichment path treats
// them as simply unenrichable.
func (s *Store) DistrictIDByCode(ctx context.Context, code string) (uuid.UUID, bool, error) {
	var row District
	err := s.DB.WithContext(ctx).Select("id").Where("code = ?", code).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("district id by code %s: %w", code, err)
	}
	return row.ID, true, nil
}

// MetricsForDistrict returns the district's last `months` metric rows,
// newest first. No data yields an empty slice, not an error.
func (s *Store) MetricsForDistrict(ctx context.Context, districtID uuid.UUID, months int) ([]DistrictMetric, error) {
	var rows []DistrictMetric
	err := s.DB.WithContext(ctx).
		Where("district_id = ?", districtID).
		Order("month DESC").
		Limit(months).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("metrics for district %s: %w", districtID, err)
	}
	return rows, nil
}

// LatestDistrictMetric pairs a district with its most recent metric row.
type LatestDistrictMetric struct {
	DistrictCode string
	DistrictName string
	Metric       DistrictMetric
}

// LatestMetrics returns the newest metric row per district, for
// comparison and ranking endpoints. Districts with no data are absent.
func (s *Store) LatestMetrics(ctx context.Context) ([]LatestDistrictMetric, error) {
	var metrics []DistrictMetric
	err := s.DB.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (district_id) *
		FROM mgnrega.district_metrics
		ORDER BY district_id, month DESC
	`).Scan(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("latest metrics: %w", err)
	}

	var districts []District
	if err := s.DB.WithContext(ctx).Find(&districts).Error; err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	byID := make(map[uuid.UUID]District, len(districts))
	for _, d := range districts {
		byID[d.ID] = d
	}

	out := make([]LatestDistrictMetric, 0, len(metrics))
	for _, m := range metrics {
		d, ok := byID[m.DistrictID]
		if !ok {
			continue
		}
		out = append(out, LatestDistrictMetric{
			DistrictCode: d.Code,
			DistrictName: d.Name,
			Metric:       m,
		})
	}
	return out, nil
}

// MonthlyAggregate is one month's cross-district rollup.
type MonthlyAggregate struct {
	Month                   string  `json:"month"`
	Districts               int64   `json:"districts"`
	TotalHouseholdsEmployed int64   `json:"total_households_employed"`
	TotalPersonDays         int64   `json:"total_person_days"`
	AverageWagePerDay       float64 `json:"average_wage_per_day"`
	TotalFundsUtilized      float64 `json:"total_funds_utilized"`
	AvgCompletionPercentage float64 `json:"avg_completion_percentage"`
}

// AggregateByMonth rolls metrics up across all districts for the last
// `months` reporting months, newest first.
func (s *Store) AggregateByMonth(ctx context.Context, months int) ([]MonthlyAggregate, error) {
	var rows []MonthlyAggregate
	err := s.DB.WithContext(ctx).Raw(`
		SELECT
			month,
			COUNT(*)                         AS districts,
			SUM(households_employed)         AS total_households_employed,
			SUM(person_days_generated)       AS total_person_days,
			AVG(average_wage_per_day)        AS average_wage_per_day,
			SUM(funds_utilized)              AS total_funds_utilized,
			AVG(work_completion_percentage)  AS avg_completion_percentage
		FROM mgnrega.district_metrics
		GROUP BY month
		ORDER BY month DESC
		LIMIT ?
	`, months).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate by month: %w", err)
	}
	return rows, nil
}
