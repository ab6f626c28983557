package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/streakup-server/internal/config"
	"github.com/listenupapp/streakup-server/internal/jobs"
	"github.com/listenupapp/streakup-server/internal/logger"
	"github.com/listenupapp/streakup-server/internal/metrics"
)

// StreakMetricsJobHandle wraps the streak gauge job with shutdown capability.
type StreakMetricsJobHandle struct {
	*jobs.StreakMetricsJob
}

// Shutdown implements do.Shutdownable.
func (h *StreakMetricsJobHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Stop(ctx)
}

// ProvideStreakMetricsJob provides and starts the periodic streak gauge refresh.
func ProvideStreakMetricsJob(i do.Injector) (*StreakMetricsJobHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	job, err := jobs.NewStreakMetricsJob(storeHandle.Store, m, cfg.Jobs.StreakMetricsSchedule, log.Logger)
	if err != nil {
		return nil, err
	}
	if err := job.Start(context.Background()); err != nil {
		return nil, err
	}

	return &StreakMetricsJobHandle{StreakMetricsJob: job}, nil
}
