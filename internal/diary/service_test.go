package diary

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/diary/internal/database"
	apperrors "github.com/edgard/diary/internal/errors"
	"github.com/edgard/diary/internal/greentext"
	"github.com/edgard/diary/internal/logger"
)

// memoryStore is an in-memory database.Store.
type memoryStore struct {
	mu      sync.Mutex
	entries map[int64]database.Entry
	nextID  int64
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[int64]database.Entry{}}
}

func (m *memoryStore) Ping(context.Context) error { return m.err }

func (m *memoryStore) CreateEntry(_ context.Context, e *database.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	e.ID = m.nextID
	e.CreatedAt = time.Unix(1700000000, 0).UTC()
	m.entries[e.ID] = *e
	return nil
}

func (m *memoryStore) GetEntry(_ context.Context, id int64) (*database.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memoryStore) ListEntries(context.Context) ([]database.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]database.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryStore) DeleteEntry(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if _, ok := m.entries[id]; !ok {
		return 0, nil
	}
	delete(m.entries, id)
	return 1, nil
}

func (m *memoryStore) DeleteAllEntries(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	n := int64(len(m.entries))
	m.entries = map[int64]database.Entry{}
	return n, nil
}

func (m *memoryStore) RunSQLMaintenance(context.Context) error { return m.err }

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type stubTransformer struct {
	result greentext.Result
	calls  []string
}

func (s *stubTransformer) Transform(_ context.Context, content string) greentext.Result {
	s.calls = append(s.calls, content)
	return s.result
}

type countingCounter struct {
	created int
	removed int64
}

func (c *countingCounter) EntryCreated()          { c.created++ }
func (c *countingCounter) EntriesRemoved(n int64) { c.removed += n }

func newTestService(store database.Store, tr Transformer, opts ...Option) *Service {
	return NewService(store, tr, logger.Discard(), opts...)
}

func TestIsClearCommand(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"clear", "CLEAR", "  Clear \n", "\tcLeAr"} {
		assert.True(t, IsClearCommand(in), in)
	}
	for _, in := range []string{"", "clear!", "sage", "clear all", "cl ear"} {
		assert.False(t, IsClearCommand(in), in)
	}
}

func TestSubmitStoresTrimmedEntry(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	tr := &stubTransformer{result: greentext.Result{Text: ">be me\n>mfw", Source: greentext.SourceModel}}
	counter := &countingCounter{}
	svc := newTestService(store, tr, WithCounter(counter))

	res, err := svc.Submit(context.Background(), Submission{
		Content: "  stubbed my toe \n",
		Name:    "  anon42 ",
		Sub:     " monday ",
	}, false)
	require.NoError(t, err)
	require.NotNil(t, res.Entry)
	assert.False(t, res.Cleared)

	assert.Equal(t, int64(1), res.Entry.ID)
	assert.Equal(t, "stubbed my toe", res.Entry.Content)
	assert.Equal(t, ">be me\n>mfw", res.Entry.Greentext)
	assert.Equal(t, "anon42", res.Entry.Name)
	assert.Equal(t, "monday", res.Entry.Sub)
	assert.False(t, res.Entry.CreatedAt.IsZero())
	assert.Equal(t, []string{"stubbed my toe"}, tr.calls)
	assert.Equal(t, 1, counter.created)
}

func TestSubmitDefaults(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	svc := newTestService(store, greentext.NewTransformer(nil, logger.Discard()))

	res, err := svc.Submit(context.Background(), Submission{Content: "today was rough\n\nstill alive", Name: "   "}, false)
	require.NoError(t, err)
	assert.Equal(t, database.DefaultName, res.Entry.Name)
	assert.Empty(t, res.Entry.Sub)
	assert.Equal(t, ">today was rough\n>be me\n>still alive", res.Entry.Greentext)
}

func TestSubmitRejectsBlankContent(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"", "   ", "\n\t\n"} {
		store := newMemoryStore()
		tr := &stubTransformer{}
		svc := newTestService(store, tr)

		res, err := svc.Submit(context.Background(), Submission{Content: content}, false)
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
		assert.Equal(t, "Content is required", apperrors.Message(err, ""))
		assert.Zero(t, store.count())
		assert.Empty(t, tr.calls, "transformer must not run for invalid input")
	}
}

func TestSubmitStoreFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.err = errors.New("disk I/O error")
	svc := newTestService(store, &stubTransformer{result: greentext.Result{Text: ">x", Source: greentext.SourceFallback}})

	_, err := svc.Submit(context.Background(), Submission{Content: "x"}, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabase, apperrors.Code(err))
	assert.Equal(t, "Failed to save", apperrors.Message(err, ""))
}

func TestSubmitClearCommand(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, svc *Service) {
		t.Helper()
		for _, c := range []string{"one", "two", "three"} {
			_, err := svc.Submit(context.Background(), Submission{Content: c}, false)
			require.NoError(t, err)
		}
	}

	t.Run("unauthorized leaves rows intact", func(t *testing.T) {
		t.Parallel()
		store := newMemoryStore()
		svc := newTestService(store, &stubTransformer{result: greentext.Result{Text: ">x"}})
		seed(t, svc)

		res, err := svc.Submit(context.Background(), Submission{Options: " CLEAR "}, false)
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Equal(t, apperrors.CodeUnauthorized, apperrors.Code(err))
		assert.Equal(t, 3, store.count())
	})

	t.Run("admin clears regardless of content", func(t *testing.T) {
		t.Parallel()
		store := newMemoryStore()
		tr := &stubTransformer{result: greentext.Result{Text: ">x"}}
		counter := &countingCounter{}
		svc := newTestService(store, tr, WithCounter(counter))
		seed(t, svc)

		res, err := svc.Submit(context.Background(), Submission{Content: "", Options: "Clear"}, true)
		require.NoError(t, err)
		assert.True(t, res.Cleared)
		assert.Nil(t, res.Entry)
		assert.Equal(t, ClearedMessage, res.Message)
		assert.Equal(t, int64(3), res.Changes)
		assert.Zero(t, store.count())
		assert.Len(t, tr.calls, 3, "clear must not transform")
		assert.Equal(t, int64(3), counter.removed)
	})

	t.Run("admin non-clear options post normally", func(t *testing.T) {
		t.Parallel()
		store := newMemoryStore()
		svc := newTestService(store, &stubTransformer{result: greentext.Result{Text: ">x"}})

		res, err := svc.Submit(context.Background(), Submission{Content: "hi", Options: "sage"}, true)
		require.NoError(t, err)
		require.NotNil(t, res.Entry)
		assert.Equal(t, 1, store.count())
	})
}

func TestListGetDelete(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	counter := &countingCounter{}
	svc := newTestService(store, &stubTransformer{result: greentext.Result{Text: ">x"}}, WithCounter(counter))
	ctx := context.Background()

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	for _, c := range []string{"first", "second"} {
		_, err := svc.Submit(ctx, Submission{Content: c}, false)
		require.NoError(t, err)
	}

	entries, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Content)

	got, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Content)

	missing, err := svc.Get(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := svc.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n, "deleting a missing id is not an error")

	got, err = svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(1), counter.removed)
}

func TestStoreErrorsAreDatabaseErrors(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.err = errors.New("database is locked")
	svc := newTestService(store, &stubTransformer{})
	ctx := context.Background()

	_, err := svc.List(ctx)
	assert.Equal(t, apperrors.CodeDatabase, apperrors.Code(err))
	_, err = svc.Get(ctx, 1)
	assert.Equal(t, apperrors.CodeDatabase, apperrors.Code(err))
	_, err = svc.Delete(ctx, 1)
	assert.Equal(t, apperrors.CodeDatabase, apperrors.Code(err))
	_, err = svc.Clear(ctx)
	assert.Equal(t, apperrors.CodeDatabase, apperrors.Code(err))
	assert.Equal(t, "Clear failed", apperrors.Message(err, ""))
	assert.ErrorIs(t, err, store.err)
}
