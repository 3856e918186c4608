// Package cron schedules periodic background work, currently the fact
// store maintenance job.
package cron

import "context"

// Job is a periodic background task.
type Job interface {
	// Name uniquely identifies the job for registration and logging.
	Name() string

	// Schedule is a cron expression, five-field or descriptor form
	// ("30 3 * * *", "@hourly").
	Schedule() string

	// Run executes one invocation. Implementations honor ctx cancellation.
	Run(ctx context.Context) error
}
