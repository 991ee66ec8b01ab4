package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/diary/internal/config"
	"github.com/edgard/diary/internal/database"
	"github.com/edgard/diary/internal/logger"
)

type maintenanceStore struct {
	database.Store
	calls int
	err   error
}

func (m *maintenanceStore) RunSQLMaintenance(context.Context) error {
	m.calls++
	return m.err
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	taskMap := RegisterAllTasks(TaskDeps{Logger: logger.Discard(), Store: &maintenanceStore{}})
	assert.Len(t, taskMap, 1)
	assert.Contains(t, taskMap, config.SQLMaintenanceTask)
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	store := &maintenanceStore{}
	task := newSQLMaintenanceTask(TaskDeps{Logger: logger.Discard(), Store: store})
	require.NoError(t, task(context.Background()))
	assert.Equal(t, 1, store.calls)

	store.err = errors.New("database is locked")
	err := task(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.err)
}

func TestSQLMaintenanceTaskAgainstSQLite(t *testing.T) {
	t.Parallel()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "diary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	taskMap := RegisterAllTasks(TaskDeps{Logger: logger.Discard(), Store: database.NewStore(db, logger.Discard())})
	assert.NoError(t, taskMap[config.SQLMaintenanceTask](context.Background()))
}
