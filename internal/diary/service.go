// Package diary implements the submission and retrieval operations of the
// journal: it validates submissions, routes the admin clear command and
// orchestrates the greentext transformer and the store.
package diary

import (
	"context"
	"log/slog"
	"strings"

	"github.com/edgard/diary/internal/database"
	apperrors "github.com/edgard/diary/internal/errors"
	"github.com/edgard/diary/internal/greentext"
	"github.com/edgard/diary/internal/logger"
)

const (
	// ClearCommand in the options field deletes every entry.
	ClearCommand = "clear"

	ClearedMessage = "All entries deleted. Database cleared."

	msgContentRequired = "Content is required"
	msgSaveFailed      = "Failed to save"
	msgClearFailed     = "Clear failed"
	msgListFailed      = "Failed to load entries"
	msgGetFailed       = "Failed to load entry"
	msgDeleteFailed    = "Failed to delete entry"
	msgClearForbidden  = "Admin authorization required to clear entries"
)

// Submission is the raw client input.
type Submission struct {
	Content string
	Options string
	Name    string
	Sub     string
}

// SubmitResult is either the created entry or the outcome of a clear.
type SubmitResult struct {
	Entry   *database.Entry
	Cleared bool
	Message string
	Changes int64
}

// Transformer produces greentext for an entry.
type Transformer interface {
	Transform(ctx context.Context, content string) greentext.Result
}

// Counter observes entry writes.
type Counter interface {
	EntryCreated()
	EntriesRemoved(n int64)
}

type noopCounter struct{}

func (noopCounter) EntryCreated()        {}
func (noopCounter) EntriesRemoved(int64) {}

// Service implements the journal operations.
type Service struct {
	store       database.Store
	transformer Transformer
	counter     Counter
	log         *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCounter reports entry writes to c.
func WithCounter(c Counter) Option {
	return func(s *Service) { s.counter = c }
}

// NewService creates a Service.
func NewService(store database.Store, transformer Transformer, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store:       store,
		transformer: transformer,
		counter:     noopCounter{},
		log:         log.With("component", "diary"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsClearCommand reports whether options asks for the admin clear.
func IsClearCommand(options string) bool {
	return strings.ToLower(strings.TrimSpace(options)) == ClearCommand
}

// Submit handles one submission. A clear command is honoured only when
// admin is true and skips content validation. Any other submission needs
// non-blank content, is transformed and stored.
func (s *Service) Submit(ctx context.Context, sub Submission, admin bool) (*SubmitResult, error) {
	if IsClearCommand(sub.Options) {
		if !admin {
			s.log.WarnContext(ctx, "Rejected unauthenticated clear command")
			return nil, apperrors.NewUnauthorizedError(msgClearForbidden)
		}
		n, err := s.Clear(ctx)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Cleared: true, Message: ClearedMessage, Changes: n}, nil
	}

	content := strings.TrimSpace(sub.Content)
	if content == "" {
		return nil, apperrors.NewValidationError(msgContentRequired, nil)
	}

	s.log.DebugContext(ctx, "Received submission", "content_preview", logger.Preview(content))
	result := s.transformer.Transform(ctx, content)

	entry := &database.Entry{
		Content:   content,
		Greentext: result.Text,
		Name:      strings.TrimSpace(sub.Name),
		Sub:       strings.TrimSpace(sub.Sub),
	}
	if entry.Name == "" {
		entry.Name = database.DefaultName
	}

	if err := s.store.CreateEntry(ctx, entry); err != nil {
		s.log.ErrorContext(ctx, "Failed to save entry", "error", err)
		return nil, apperrors.NewDatabaseError(msgSaveFailed, err)
	}
	s.counter.EntryCreated()

	s.log.InfoContext(ctx, "Entry created", "entry_id", entry.ID, "greentext_source", result.Source)
	return &SubmitResult{Entry: entry}, nil
}

// List returns every entry, newest first.
func (s *Service) List(ctx context.Context) ([]database.Entry, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list entries", "error", err)
		return nil, apperrors.NewDatabaseError(msgListFailed, err)
	}
	return entries, nil
}

// Get returns the entry with id, or nil when there is none.
func (s *Service) Get(ctx context.Context, id int64) (*database.Entry, error) {
	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get entry", "entry_id", id, "error", err)
		return nil, apperrors.NewDatabaseError(msgGetFailed, err)
	}
	return entry, nil
}

// Delete removes the entry with id and returns the number of rows removed,
// which is zero for unknown ids.
func (s *Service) Delete(ctx context.Context, id int64) (int64, error) {
	n, err := s.store.DeleteEntry(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to delete entry", "entry_id", id, "error", err)
		return 0, apperrors.NewDatabaseError(msgDeleteFailed, err)
	}
	s.counter.EntriesRemoved(n)
	s.log.InfoContext(ctx, "Entry delete processed", "entry_id", id, "changes", n)
	return n, nil
}

// Clear removes every entry. Callers are responsible for authorization.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAllEntries(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Clear failed", "error", err)
		return 0, apperrors.NewDatabaseError(msgClearFailed, err)
	}
	s.counter.EntriesRemoved(n)
	s.log.WarnContext(ctx, "Database cleared by admin command", "changes", n)
	return n, nil
}
