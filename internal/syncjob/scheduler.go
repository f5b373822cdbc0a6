package syncjob

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"time"
)

// JobNameScheduled is the ledger label for timer-driven runs.
const JobNameScheduled = "daily_mgnrega_refresh"

// Scheduler triggers the orchestrator once at startup and then daily at a
// fixed UTC hour/minute. Both triggers are plain calls into RunSync; the
// orchestrator's single-flight guard serializes them against manual runs.
type Scheduler struct {
	Orchestrator *Orchestrator

	// Daily trigger time, timezone-normalized to UTC.
	// Default 20:30 UTC (02:00 IST).
	HourUTC   int
	MinuteUTC int
}

// SchedulerFromEnv reads SYNC_HOUR_UTC / SYNC_MINUTE_UTC, defaulting to
// 20:30 UTC.
func SchedulerFromEnv(o *Orchestrator) *Scheduler {
	s := &Scheduler{Orchestrator: o, HourUTC: 20, MinuteUTC: 30}
	if v, err := strconv.Atoi(os.Getenv("SYNC_HOUR_UTC")); err == nil && v >= 0 && v < 24 {
		s.HourUTC = v
	}
	if v, err := strconv.Atoi(os.Getenv("SYNC_MINUTE_UTC")); err == nil && v >= 0 && v < 60 {
		s.MinuteUTC = v
	}
	return s
}

// Start launches the scheduling loop in a goroutine. It returns
// immediately; the loop stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	log.Printf("[Scheduler] starting, daily run at %02d:%02d UTC plus immediate run",
		s.HourUTC, s.MinuteUTC)

	// Run once at process start.
	s.trigger(ctx)

	for {
		wait := time.Until(s.NextRun(time.Now()))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("[Scheduler] stopping: %v", ctx.Err())
			return
		case <-timer.C:
			s.trigger(ctx)
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context) {
	if _, err := s.Orchestrator.RunSync(ctx, JobNameScheduled, false); err != nil {
		if errors.Is(err, ErrSyncRunning) {
			log.Printf("[Scheduler] skipping trigger, sync already running")
			return
		}
		log.Printf("[Scheduler] sync run failed: %v", err)
	}
}

// NextRun returns the next HH:MM UTC occurrence strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.HourUTC, s.MinuteUTC, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
