package mgnrega

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eticloud-hub/rozgar-map/internal/mgnrega/provider"
	"github.com/eticloud-hub/rozgar-map/internal/syncjob"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrDistrictNotFound is returned by read paths for unregistered codes.
var ErrDistrictNotFound = errors.New("district not found")

// Store is the persistence layer for districts, metrics, and the sync
// run ledger. It is constructed once at startup and injected wherever
// persistence is needed; it satisfies syncjob.Store.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// DistrictsForSync lists every registered district for the orchestrator.
func (s *Store) DistrictsForSync(ctx context.Context) ([]syncjob.District, error) {
	var rows []District
	if err := s.DB.WithContext(ctx).Order("code").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}

	out := make([]syncjob.District, 0, len(rows))
	for _, d := range rows {
		out = append(out, syncjob.District{ID: d.ID, Code: d.Code, Name: d.Name})
	}
	return out, nil
}

// SaveDistrictMetrics normalizes one raw payload and upserts it keyed by
// (district, period).
func (s *Store) SaveDistrictMetrics(ctx context.Context, d syncjob.District, period string, raw *provider.RawDistrictMetrics, manual bool) (bool, error) {
	ttl := AutoSyncTTL
	if manual {
		ttl = ManualImportTTL
	}

	rec := NormalizeMetrics(raw, period, time.Now(), SourceAPI, ttl)
	return s.UpsertMetric(ctx, d.ID, rec.Month, rec)
}

// metricValueColumns are the fields replaced when a row for the
// (district, month) key already exists. Identity columns stay put.
var metricValueColumns = []string{
	"financial_year",
	"households_registered",
	"households_employed",
	"person_days_generated",
	"average_wage_per_day",
	"funds_allocated",
	"funds_released",
	"funds_utilized",
	"total_works_started",
	"total_works_completed",
	"work_completion_percentage",
	"women_employment_percentage",
	"sc_st_employment_percentage",
	"data_source",
	"last_updated",
	"is_verified",
	"cache_expiry",
}

// UpsertMetric writes rec under the (districtID, month) compound key:
// update in place when a row exists, insert otherwise. Returns whether a
// new row was created. Re-running the same sync for the same period is
// convergent; final state depends only on the last write.
func (s *Store) UpsertMetric(ctx context.Context, districtID uuid.UUID, month string, rec DistrictMetric) (bool, error) {
	rec.DistrictID = districtID
	rec.Month = month

	created := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing DistrictMetric
		err := tx.Where("district_id = ? AND month = ?", districtID, month).
			Take(&existing).Error

		if err == nil {
			return tx.Model(&DistrictMetric{}).
				Where("id = ?", existing.ID).
				Select(metricValueColumns).
				Updates(rec).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if cerr := tx.Create(&rec).Error; cerr != nil {
			// A concurrent writer may have inserted the same key between
			// the lookup and the insert; the unique index converts the
			// race into last-writer-wins.
			if isUniqueViolation(cerr) {
				return tx.Model(&DistrictMetric{}).
					Where("district_id = ? AND month = ?", districtID, month).
					Select(metricValueColumns).
					Updates(rec).Error
			}
			return cerr
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("upsert metric district=%s month=%s: %w", districtID, month, err)
	}
	return created, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// BeginRun opens a ledger row in status "running".
func (s *Store) BeginRun(ctx context.Context, jobName string) (uuid.UUID, error) {
	run := SyncRun{
		ID:        uuid.New(),
		JobName:   jobName,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(&run).Error; err != nil {
		return uuid.Nil, fmt.Errorf("create sync run: %w", err)
	}
	return run.ID, nil
}

// FinishRun finalizes a ledger row from the tally. Partial is chosen
// when both successes and failures occurred.
func (s *Store) FinishRun(ctx context.Context, runID uuid.UUID, tally syncjob.Tally) error {
	status := RunStatusSuccess
	switch {
	case tally.ErrorCount > 0 && tally.SuccessCount > 0:
		status = RunStatusPartial
	case tally.ErrorCount > 0:
		status = RunStatusFailed
	}

	now := time.Now()
	return s.DB.WithContext(ctx).Model(&SyncRun{}).
		Where("id = ? AND status = ?", runID, RunStatusRunning).
		Updates(map[string]any{
			"status":        status,
			"completed_at":  now,
			"success_count": tally.SuccessCount,
			"error_count":   tally.ErrorCount,
			"errors":        pq.StringArray(tally.Errors),
		}).Error
}

// FailRun finalizes a ledger row after an orchestrator-level failure so
// no run is ever left permanently "running".
func (s *Store) FailRun(ctx context.Context, runID uuid.UUID, message string) error {
	now := time.Now()
	return s.DB.WithContext(ctx).Model(&SyncRun{}).
		Where("id = ? AND status = ?", runID, RunStatusRunning).
		Updates(map[string]any{
			"status":        RunStatusFailed,
			"completed_at":  now,
			"error_message": message,
		}).Error
}

// CreateReport persists a citizen report in status "pending".
func (s *Store) CreateReport(ctx context.Context, report *CitizenReport) error {
	report.ID = uuid.New()
	report.Status = ReportStatusPending
	report.SubmittedAt = time.Now()
	if err := s.DB.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("create citizen report: %w", err)
	}
	return nil
}

// RecentReports lists reports for the admin review surface, newest
// first. An empty status returns all of them.
func (s *Store) RecentReports(ctx context.Context, status string, limit int) ([]CitizenReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := s.DB.WithContext(ctx).Order("submitted_at DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reports []CitizenReport
	if err := q.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("list citizen reports: %w", err)
	}
	return reports, nil
}

// RecentRuns returns the latest ledger rows for the ops surface.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []SyncRun
	err := s.DB.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}
