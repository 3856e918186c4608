package cron

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tablemind/recall/internal/memory"
)

// MaintainableStore is the subset of the fact store needed by the
// maintenance job. Defined here to avoid depending on the sqlite module.
type MaintainableStore interface {
	Checkpoint(ctx context.Context) error
	CountByCategory(ctx context.Context) (map[memory.Category]int, error)
	Len() int
}

// StoreMaintenanceJob periodically truncates the WAL and logs fact counts
// so operators can watch memory growth without querying the database.
type StoreMaintenanceJob struct {
	Store        MaintainableStore
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "@hourly"
}

// Compile-time interface check.
var _ Job = (*StoreMaintenanceJob)(nil)

// Name implements Job.
func (j *StoreMaintenanceJob) Name() string {
	return "store_maintenance"
}

// Schedule implements Job.
func (j *StoreMaintenanceJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "@hourly"
}

// Run checkpoints the WAL and logs per-category fact counts.
func (j *StoreMaintenanceJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("cron: maintenance cancelled: %w", ctx.Err())
	}

	if err := j.Store.Checkpoint(ctx); err != nil {
		return fmt.Errorf("cron: checkpoint: %w", err)
	}

	counts, err := j.Store.CountByCategory(ctx)
	if err != nil {
		return fmt.Errorf("cron: count facts: %w", err)
	}

	attrs := []any{"total", j.Store.Len()}
	for category, n := range counts {
		attrs = append(attrs, string(category), n)
	}
	j.Logger.Info("cron: store maintenance completed", attrs...)
	return nil
}
