package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"chessfam/logger"
	"chessfam/metrics"
	"chessfam/models"
)

// LifecycleJob advances tournament statuses as their dates pass.
type LifecycleJob struct {
	repo    TournamentRepository
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewLifecycleJob(repo TournamentRepository, log *logger.Logger, m *metrics.Metrics) *LifecycleJob {
	if log == nil {
		log = logger.Nop()
	}
	return &LifecycleJob{repo: repo, log: log.With("component", "scheduler"), metrics: m, now: time.Now}
}

// Run performs one pass.
func (j *LifecycleJob) Run(ctx context.Context) error {
	started, completed, err := j.repo.AdvanceStatuses(ctx, j.now())
	if err != nil {
		j.log.Error("failed to advance tournament statuses", "error", err)
		return err
	}
	j.metrics.StatusTransitions(string(models.TournamentOngoing), started)
	j.metrics.StatusTransitions(string(models.TournamentCompleted), completed)
	if started > 0 || completed > 0 {
		j.log.Info("tournament statuses advanced", "started", started, "completed", completed)
	}
	return nil
}

// StartLifecycleScheduler runs job every interval until the returned
// scheduler is shut down.
func StartLifecycleScheduler(ctx context.Context, job *LifecycleJob, interval time.Duration) (gocron.Scheduler, error) {
	if interval <= 0 {
		interval = time.Minute
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			runCtx, cancel := context.WithTimeout(ctx, interval)
			defer cancel()
			_ = job.Run(runCtx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
