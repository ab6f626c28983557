// Package jobs runs scheduled background work.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/listenupapp/streakup-server/internal/domain"
	"github.com/listenupapp/streakup-server/internal/store"
)

// StreakMetricsJobName labels the job in metrics and logs.
const StreakMetricsJobName = "streak_metrics"

// StreakGauges receives the totals of each run.
type StreakGauges interface {
	SetActiveStreaks(streakDays, habits int)
	RecordJobRun(job string, duration time.Duration, err error)
}

// RunSummary describes one refresh.
type RunSummary struct {
	Users       int
	FailedUsers int
	Habits      int
	StreakDays  int
}

// StreakMetricsJob periodically recomputes the active-streak gauges from storage.
type StreakMetricsJob struct {
	store    store.Store
	gauges   StreakGauges
	logger   *slog.Logger
	schedule string
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// NewStreakMetricsJob validates the cron schedule and creates the job.
// Standard five-field specs and descriptors such as "@every 15m" are accepted.
func NewStreakMetricsJob(st store.Store, gauges StreakGauges, schedule string, logger *slog.Logger) (*StreakMetricsJob, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid streak metrics schedule %q: %w", schedule, err)
	}
	return &StreakMetricsJob{
		store:    st,
		gauges:   gauges,
		logger:   logger,
		schedule: schedule,
		now:      time.Now,
	}, nil
}

// Start runs the job once and then on every tick of the schedule until Stop.
func (j *StreakMetricsJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cron != nil {
		return errors.New("streak metrics job already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(j.schedule, func() { j.runLogged(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule streak metrics job: %w", err)
	}

	j.cron = c
	j.cancel = cancel

	j.running.Add(1)
	go func() {
		defer j.running.Done()
		j.runLogged(runCtx)
	}()
	c.Start()

	j.logger.Info("streak metrics job started", "schedule", j.schedule)
	return nil
}

// Stop halts the schedule and waits for in-flight runs, or for ctx.
func (j *StreakMetricsJob) Stop(ctx context.Context) error {
	j.mu.Lock()
	c, cancel := j.cron, j.cancel
	j.cron, j.cancel = nil, nil
	j.mu.Unlock()

	if c == nil {
		return nil
	}

	cancel()
	cronDone := c.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		j.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Info("streak metrics job stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *StreakMetricsJob) runLogged(ctx context.Context) {
	summary, err := j.RunOnce(ctx)
	if err != nil {
		j.logger.Error("streak metrics refresh failed", "error", err)
		return
	}
	j.logger.Debug("streak metrics refreshed",
		"users", summary.Users,
		"failed_users", summary.FailedUsers,
		"habits", summary.Habits,
		"streak_days", summary.StreakDays,
	)
}

// RunOnce aggregates every user's non-deleted habits as of now and publishes
// the totals. A failure for one user is logged and the run continues.
func (j *StreakMetricsJob) RunOnce(ctx context.Context) (RunSummary, error) {
	start := time.Now()
	summary, err := j.refresh(ctx)
	j.gauges.RecordJobRun(StreakMetricsJobName, time.Since(start), err)
	if err != nil {
		return summary, err
	}

	j.gauges.SetActiveStreaks(summary.StreakDays, summary.Habits)
	return summary, nil
}

func (j *StreakMetricsJob) refresh(ctx context.Context) (RunSummary, error) {
	var summary RunSummary

	users, err := j.store.ListUsers(ctx)
	if err != nil {
		return summary, fmt.Errorf("list users: %w", err)
	}

	now := j.now()
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Users++

		habits, err := j.store.ListHabitsByOwner(ctx, u.ID)
		if err != nil {
			summary.FailedUsers++
			j.logger.Warn("skipping user in streak refresh", "user_id", u.ID, "error", err)
			continue
		}

		stats := domain.Aggregate(habits, now)
		summary.Habits += stats.TotalHabitsCreated
		summary.StreakDays += stats.TotalCurrentStreakDays
	}

	return summary, nil
}
