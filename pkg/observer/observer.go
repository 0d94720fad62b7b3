// Package observer provides protocol.Observer implementations for logging,
// fan-out and test recording of lifecycle events.
package observer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dukex/journeys/pkg/events"
	"github.com/dukex/journeys/pkg/protocol"
)

// Log writes every event as a structured log line.
type Log struct {
	logger *slog.Logger
	level  slog.Level
}

func NewLog(logger *slog.Logger, level slog.Level) *Log {
	return &Log{logger: logger.With(slog.String("module", "observer")), level: level}
}

func (l *Log) Notify(ctx context.Context, event events.Event) error {
	l.logger.Log(ctx, l.level, "Journey event",
		slog.String("event_type", string(event.GetType())),
		slog.String("execution_id", event.Key()),
	)

	return nil
}

// Fanout forwards events to every observer and joins their errors.
type Fanout []protocol.Observer

func (f Fanout) Notify(ctx context.Context, event events.Event) error {
	var errs []error

	for _, observer := range f {
		if observer == nil {
			continue
		}

		err := observer.Notify(ctx, event)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Recorder keeps every event it receives, in order.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)

	return nil
}

func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]events.Event, len(r.events))
	copy(out, r.events)

	return out
}

// Types returns the types of the recorded events, in order.
func (r *Recorder) Types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]events.EventType, len(r.events))
	for i, event := range r.events {
		types[i] = event.GetType()
	}

	return types
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}
