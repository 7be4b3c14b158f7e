// Package jobs holds background task definitions and the Asynq worker glue.
package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskExpirySweep deactivates role assignments whose expiry has passed.
	TaskExpirySweep = "rbac:expiry_sweep"
)

// NewExpirySweepTask constructs the expiry sweep task. The task carries no
// payload; the sweep always covers every lapsed assignment.
func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TaskExpirySweep, nil)
}
