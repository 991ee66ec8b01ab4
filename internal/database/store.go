package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the persistence operations on diary entries.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateEntry inserts a new entry and sets its ID and CreatedAt.
	CreateEntry(ctx context.Context, entry *Entry) error

	// GetEntry retrieves one entry by id. Returns nil, nil if not found.
	GetEntry(ctx context.Context, id int64) (*Entry, error)

	// ListEntries returns every entry, newest first.
	ListEntries(ctx context.Context) ([]Entry, error)

	// DeleteEntry removes one entry and reports the number of rows removed.
	DeleteEntry(ctx context.Context, id int64) (int64, error)

	// DeleteAllEntries removes every entry and reports the number removed.
	DeleteAllEntries(ctx context.Context) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	return newStore(db, logger, func() time.Time { return time.Now().UTC() })
}

func newStore(db *sqlx.DB, logger *slog.Logger, now func() time.Time) *sqlxStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    now,
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateEntry inserts entry in a single statement. CreatedAt is always
// assigned here so that insert time is the sort key.
func (s *sqlxStore) CreateEntry(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("cannot save nil entry")
	}
	if entry.Content == "" {
		return errors.New("entry must have non-empty content")
	}
	if entry.Greentext == "" {
		return errors.New("entry must have non-empty greentext")
	}
	if entry.Name == "" {
		entry.Name = DefaultName
	}

	entry.CreatedAt = s.now()

	query := `
        INSERT INTO entries (content, greentext, name, sub, created_at)
        VALUES (:content, :greentext, :name, :sub, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving entry", "error", err)
		return fmt.Errorf("failed to save entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.ErrorContext(ctx, "Could not retrieve last insert ID after saving entry", "error", err)
		return fmt.Errorf("failed to read entry id: %w", err)
	}
	entry.ID = id

	s.logger.DebugContext(ctx, "Entry saved", "entry_id", entry.ID)
	return nil
}

// GetEntry retrieves one entry by id. Returns nil, nil if not found.
func (s *sqlxStore) GetEntry(ctx context.Context, id int64) (*Entry, error) {
	var entry Entry
	query := `SELECT id, content, greentext, name, sub, created_at FROM entries WHERE id = ?`

	err := s.db.GetContext(ctx, &entry, query, id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No entry found", "entry_id", id)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching entry", "entry_id", id, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting entry by ID", "entry_id", id, "error", err)
		return nil, fmt.Errorf("failed to get entry %d: %w", id, err)
	}

	return &entry, nil
}

// ListEntries returns every entry ordered by created_at descending. The id
// breaks ties between entries created within the same instant.
func (s *sqlxStore) ListEntries(ctx context.Context) ([]Entry, error) {
	entries := []Entry{}
	query := `
        SELECT id, content, greentext, name, sub, created_at
        FROM entries
        ORDER BY created_at DESC, id DESC;
    `

	if err := s.db.SelectContext(ctx, &entries, query); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.logger.WarnContext(ctx, "Context timeout or cancellation while listing entries", "error", err)
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Error listing entries", "error", err)
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	s.logger.DebugContext(ctx, "Listed entries", "count", len(entries))
	return entries, nil
}

// DeleteEntry removes one entry. A missing id is not an error; it simply
// affects zero rows.
func (s *sqlxStore) DeleteEntry(ctx context.Context, id int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting entry", "entry_id", id, "error", err)
		return 0, fmt.Errorf("failed to delete entry %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	s.logger.DebugContext(ctx, "Entry delete executed", "entry_id", id, "changes", affected)
	return affected, nil
}

// DeleteAllEntries removes every entry.
func (s *sqlxStore) DeleteAllEntries(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting all entries", "error", err)
		return 0, fmt.Errorf("failed to delete all entries: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	s.logger.InfoContext(ctx, "All entries deleted", "changes", affected)
	return affected, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
