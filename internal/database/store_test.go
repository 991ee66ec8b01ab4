package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/diary/internal/logger"
)

// steppingClock returns a clock that advances one second per call so that
// every insert gets a distinct created_at.
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newTestStore(t *testing.T, now func() time.Time) *sqlxStore {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "diary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })
	return newStore(db, logger.Discard(), now)
}

func newEntry(content string) *Entry {
	return &Entry{Content: content, Greentext: ">" + content}
}

func TestCreateAndGetEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, steppingClock(start))

	entry := &Entry{Content: "today was rough", Greentext: ">today was rough", Sub: "mfw"}
	require.NoError(t, store.CreateEntry(ctx, entry))

	assert.Equal(t, int64(1), entry.ID)
	assert.Equal(t, DefaultName, entry.Name)
	assert.True(t, entry.CreatedAt.Equal(start.Add(time.Second)))

	got, err := store.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Content, got.Content)
	assert.Equal(t, entry.Greentext, got.Greentext)
	assert.Equal(t, DefaultName, got.Name)
	assert.Equal(t, "mfw", got.Sub)
	assert.True(t, entry.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", entry.CreatedAt, got.CreatedAt)
}

func TestGetEntryMissing(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, steppingClock(time.Now().UTC()))

	got, err := store.GetEntry(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateEntryValidation(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, steppingClock(time.Now().UTC()))
	ctx := context.Background()

	assert.Error(t, store.CreateEntry(ctx, nil))
	assert.Error(t, store.CreateEntry(ctx, &Entry{Greentext: ">x"}))
	assert.Error(t, store.CreateEntry(ctx, &Entry{Content: "x"}))

	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListEntriesNewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t, steppingClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, store.CreateEntry(ctx, newEntry(fmt.Sprintf("entry %d", i))))
	}

	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, n)
	for i, entry := range entries {
		assert.Equal(t, fmt.Sprintf("entry %d", n-1-i), entry.Content)
		if i > 0 {
			assert.True(t, entries[i-1].CreatedAt.After(entry.CreatedAt))
		}
	}
}

func TestListEntriesSameInstantUsesID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newTestStore(t, func() time.Time { return fixed })

	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateEntry(ctx, newEntry(fmt.Sprintf("tie %d", i))))
	}

	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{entries[0].ID, entries[1].ID, entries[2].ID})
}

func TestListEntriesEmptyIsNotNil(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, steppingClock(time.Now().UTC()))

	entries, err := store.ListEntries(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestDeleteEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t, steppingClock(time.Now().UTC()))

	entry := newEntry("delete me")
	require.NoError(t, store.CreateEntry(ctx, entry))

	changes, err := store.DeleteEntry(ctx, 999)
	require.NoError(t, err)
	assert.Zero(t, changes)

	changes, err = store.DeleteEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changes)

	got, err := store.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteAllEntriesNeverReusesIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t, steppingClock(time.Now().UTC()))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateEntry(ctx, newEntry(fmt.Sprintf("old %d", i))))
	}

	changes, err := store.DeleteAllEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), changes)

	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	fresh := newEntry("new")
	require.NoError(t, store.CreateEntry(ctx, fresh))
	assert.Equal(t, int64(4), fresh.ID)
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, steppingClock(time.Now().UTC()))

	require.NoError(t, store.RunSQLMaintenance(context.Background()))
	require.NoError(t, store.Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.RunSQLMaintenance(ctx), context.Canceled)
}

func TestNewDBIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "diary.db")

	first, err := NewDB(path)
	require.NoError(t, err)
	CloseDB(first)

	second, err := NewDB(path)
	require.NoError(t, err)
	CloseDB(second)
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"diary.db":                         "diary.db",
		"file:diary.db":                    "diary.db",
		"file:data/diary.db?cache=shared":  "data/diary.db",
		"data/my%20diary.db":               "data/my diary.db",
		"/var/lib/diary/diary.db?_pragma=": "/var/lib/diary/diary.db",
	}
	for input, want := range tests {
		assert.Equal(t, want, ExtractDBNameFromPath(input), input)
	}
}

func newMockStore(t *testing.T) (*sqlxStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlite")
	return newStore(db, logger.Discard(), func() time.Time { return time.Unix(0, 0).UTC() }), mock
}

func TestStoreWrapsDriverErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	t.Run("insert", func(t *testing.T) {
		t.Parallel()
		store, mock := newMockStore(t)
		mock.ExpectExec(`INSERT INTO entries`).WillReturnError(boom)

		err := store.CreateEntry(ctx, newEntry("x"))
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list", func(t *testing.T) {
		t.Parallel()
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT id, content, greentext, name, sub, created_at`).WillReturnError(boom)

		_, err := store.ListEntries(ctx)
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete all", func(t *testing.T) {
		t.Parallel()
		store, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM entries`).WillReturnError(boom)

		_, err := store.DeleteAllEntries(ctx)
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete one reports rows", func(t *testing.T) {
		t.Parallel()
		store, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM entries WHERE id = \?`).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))

		changes, err := store.DeleteEntry(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(1), changes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
