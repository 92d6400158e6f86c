// Package analytics emits product events (question_created, draft_saved, ...)
// to pluggable sinks. Sinks are injected; there is no global emitter.
package analytics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/hostboard/internal/observability/logger"
	"go.uber.org/zap"
)

// Event names.
const (
	QuestionCreated     = "question_created"
	QuestionCreateError = "question_create_failed"
	DraftSaved          = "draft_saved"
	SignInRequired      = "sign_in_required"
)

// Event is one analytics occurrence.
type Event struct {
	Name       string
	UserID     string
	ObjectID   string
	Properties map[string]any
	OccurredAt time.Time
}

// Sink receives events. Implementations must not block the caller for long.
type Sink interface {
	Track(ctx context.Context, e Event) error
}

// SinkFunc allows plain functions to satisfy Sink.
type SinkFunc func(ctx context.Context, e Event) error

// Track dispatches to the underlying function.
func (fn SinkFunc) Track(ctx context.Context, e Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, e)
}

// Sinks fans out to every sink and joins their errors.
type Sinks []Sink

// Track normalizes the event once and forwards it.
func (s Sinks) Track(ctx context.Context, e Event) error {
	e = normalize(e)
	var errs []error
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Track(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func normalize(e Event) Event {
	e.Name = strings.TrimSpace(e.Name)
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return e
}

// Nop discards every event.
var Nop Sink = SinkFunc(func(context.Context, Event) error { return nil })

// LogSink writes events as structured log lines.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(l *zap.Logger) *LogSink {
	if l == nil {
		l = logger.L()
	}
	return &LogSink{log: l.With(logger.Component("analytics"))}
}

func (s *LogSink) Track(_ context.Context, e Event) error {
	s.log.Info("analytics event",
		zap.String("event", e.Name),
		logger.UserID(e.UserID),
		zap.String("object_id", e.ObjectID),
		zap.Any("properties", e.Properties),
		zap.Time("occurred_at", e.OccurredAt),
	)
	return nil
}

// Capture records events for assertions in tests.
type Capture struct {
	mu     sync.Mutex
	events []Event
}

func (c *Capture) Track(_ context.Context, e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, normalize(e))
	return nil
}

// Events returns a copy of the recorded events.
func (c *Capture) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Names returns the recorded event names in order.
func (c *Capture) Names() []string {
	var out []string
	for _, e := range c.Events() {
		out = append(out, e.Name)
	}
	return out
}
