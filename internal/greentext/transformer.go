// Package greentext turns journal entries into imageboard-style greentext,
// either through an external text generation service or, when that fails,
// through a deterministic line-prefixing fallback.
package greentext

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Source records which path produced a greentext.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// fallbackBlankLine replaces lines that are empty after trimming.
const fallbackBlankLine = "be me"

// ErrEmptyResponse is returned by generators whose reply is blank.
var ErrEmptyResponse = errors.New("generator returned empty text")

// Generator produces text for a prompt. Implementations make exactly one
// attempt per call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recorder observes transformer outcomes.
type Recorder interface {
	ObserveGreentext(source string, duration time.Duration)
}

// Result is the outcome of a transformation.
type Result struct {
	Text   string
	Source Source
}

// Transformer converts raw content into greentext. A nil generator makes
// every call take the fallback path.
type Transformer struct {
	generator Generator
	timeout   time.Duration
	recorder  Recorder
	log       *slog.Logger
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithTimeout bounds each generator call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(t *Transformer) { t.timeout = d }
}

// WithRecorder reports every outcome to r.
func WithRecorder(r Recorder) Option {
	return func(t *Transformer) { t.recorder = r }
}

// NewTransformer creates a Transformer around generator.
func NewTransformer(generator Generator, log *slog.Logger, opts ...Option) *Transformer {
	if log == nil {
		log = slog.Default()
	}
	t := &Transformer{
		generator: generator,
		log:       log.With("component", "greentext"),
	}
	for _, opt := range opts {
		opt(t)
	}
	if generator == nil {
		t.log.Warn("No text generator configured, greentext will use the fallback transform")
	}
	return t
}

// Transform produces greentext for content. The trimmed generator reply is
// stored as is. It never fails: any generator error or blank reply is logged
// and the deterministic fallback is returned instead. There are no retries.
func (t *Transformer) Transform(ctx context.Context, content string) Result {
	content = strings.TrimSpace(content)
	startTime := time.Now()

	result := Result{Source: SourceFallback}
	if t.generator != nil {
		text, err := t.generate(ctx, content)
		if err != nil {
			t.log.ErrorContext(ctx, "Greentext generation failed, using fallback", "error", err)
		} else {
			result = Result{Text: text, Source: SourceModel}
		}
	}
	if result.Source == SourceFallback {
		result.Text = Fallback(content)
	}

	duration := time.Since(startTime)
	if t.recorder != nil {
		t.recorder.ObserveGreentext(string(result.Source), duration)
	}
	t.log.DebugContext(ctx, "Greentext produced", "source", result.Source, "duration_ms", duration.Milliseconds())
	return result
}

func (t *Transformer) generate(ctx context.Context, content string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	text, err := t.generator.Generate(ctx, BuildPrompt(content))
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Fallback prefixes every line of the trimmed content with ">", substituting
// "be me" for lines that are blank after trimming.
func Fallback(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			line = fallbackBlankLine
		}
		lines[i] = ">" + line
	}
	return strings.Join(lines, "\n")
}
