// Package engine advances journey executions: it enrolls contacts, claims due
// executions and applies one step transition at a time.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/journeys/pkg/events"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/otelhelper"
	"github.com/dukex/journeys/pkg/persistence"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/dukex/journeys/pkg/registry"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"
)

type Engine struct {
	journeys   persistence.JourneyRepository
	executions persistence.ExecutionRepository
	contacts   protocol.ContactStore
	registry   *registry.Registry
	observer   protocol.Observer
	clock      clockwork.Clock
	tracer     trace.Tracer
	logger     *slog.Logger
	config     Config
}

type Option func(*Engine)

func WithConfig(config Config) Option {
	return func(e *Engine) {
		e.config = config.withDefaults()
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithObserver sets the receiver of lifecycle events.
func WithObserver(observer protocol.Observer) Option {
	return func(e *Engine) {
		e.observer = observer
	}
}

func New(
	journeys persistence.JourneyRepository,
	executions persistence.ExecutionRepository,
	contacts protocol.ContactStore,
	reg *registry.Registry,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		journeys:   journeys,
		executions: executions,
		contacts:   contacts,
		registry:   reg,
		clock:      clockwork.NewRealClock(),
		tracer:     otelhelper.NoopTracer(),
		logger:     logger.With(slog.String("module", "engine")),
		config:     DefaultConfig(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With(slog.String("worker_id", e.config.WorkerID))

	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

func (e *Engine) notify(ctx context.Context, event events.Event) {
	if e.observer == nil {
		return
	}

	err := e.observer.Notify(ctx, event)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to notify observer",
			slog.String("event_type", string(event.GetType())),
			slog.Any("error", err),
		)
	}
}

func (e *Engine) baseEvent(eventType events.EventType, execution *models.Execution) events.BaseEvent {
	base := events.NewBaseEvent(eventType, execution, e.now())
	base.WorkerID = e.config.WorkerID

	return base
}

func executionLogger(logger *slog.Logger, execution *models.Execution) *slog.Logger {
	return logger.With(
		slog.String("execution_id", execution.ID),
		slog.String("journey_id", execution.JourneyID),
		slog.String("contact_id", execution.ContactID),
	)
}
