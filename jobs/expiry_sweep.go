package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/branded-hq/branded/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ExpirySweeper is the slice of the rbac service the sweep job needs.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// ExpirySweepJob deactivates lapsed time-limited assignments. Expiry is
// already enforced at read time; the sweep keeps the stored rows honest and
// produces the audit trail for lapsed grants.
type ExpirySweepJob struct {
	sweeper ExpirySweeper

	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewExpirySweepJob constructs the job. Logger and Metrics may be nil.
func NewExpirySweepJob(sweeper ExpirySweeper, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExpirySweepJob {
	return &ExpirySweepJob{sweeper: sweeper, Logger: logger, Metrics: metrics}
}

// Handle processes one TaskExpirySweep task.
func (j *ExpirySweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics().Track(TaskExpirySweep)
	count, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		j.logger().Error("expiry sweep failed", slog.Any("error", err))
		return tracker.End(err)
	}
	j.metrics().AddDeactivated(count)
	if count > 0 {
		j.logger().Info("expiry sweep deactivated assignments", slog.Int("count", count))
	}
	return tracker.End(nil)
}

func (j *ExpirySweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskExpirySweep))
	}
	return slog.Default().With(slog.String("job", TaskExpirySweep))
}

func (j *ExpirySweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
