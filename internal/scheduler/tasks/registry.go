// Package tasks implements the scheduled maintenance tasks.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/diary/internal/config"
	"github.com/edgard/diary/internal/database"
)

// ScheduledTaskFunc is the signature of every task. It should respect ctx
// cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps contains the dependencies of scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
}

// RegisterAllTasks returns every task keyed by its scheduler config name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return map[string]ScheduledTaskFunc{
		config.SQLMaintenanceTask: newSQLMaintenanceTask(deps),
	}
}
