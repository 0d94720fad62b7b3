package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/journeys/pkg/actions"
	"github.com/dukex/journeys/pkg/engine"
	"github.com/dukex/journeys/pkg/eventbus"
	"github.com/dukex/journeys/pkg/otelhelper"
	"github.com/dukex/journeys/pkg/persistence"
	"github.com/dukex/journeys/pkg/registry"
)

var ErrContactsRequired = errors.New("a CRM database is required to run journeys")

// RuntimeConfig collects what the binaries need to assemble an engine.
type RuntimeConfig struct {
	ServiceName  string
	DatabaseURL  string
	RedisURL     string
	EventBus     string
	KafkaBrokers string
	PluginsPath  string
	OtelEnabled  bool
	Ports        PortsConfig
	Engine       engine.Config
}

// Runtime is an engine together with everything it was built from.
type Runtime struct {
	Persistence persistence.Persistence
	EventBus    eventbus.EventBus
	Registry    *registry.Registry
	Ports       actions.Ports
	Engine      *engine.Engine

	closers []func(context.Context) error
}

func NewRuntime(ctx context.Context, logger *slog.Logger, config RuntimeConfig) (*Runtime, error) {
	rt := &Runtime{}

	err := rt.build(ctx, logger, config)
	if err != nil {
		closeErr := rt.Close(ctx)

		return nil, errors.Join(err, closeErr)
	}

	return rt, nil
}

func (rt *Runtime) build(ctx context.Context, logger *slog.Logger, config RuntimeConfig) error {
	var engineOpts []engine.Option

	if config.OtelEnabled {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, config.ServiceName)
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		rt.closers = append(rt.closers, shutdown)
		engineOpts = append(engineOpts, engine.WithTracer(tracer))
	}

	store, err := NewPersistence(ctx, logger, config.DatabaseURL, config.RedisURL)
	if err != nil {
		return err
	}

	rt.Persistence = store
	rt.closers = append(rt.closers, store.Close)

	bus, err := NewEventBus(config.EventBus, config.KafkaBrokers, config.ServiceName, logger)
	if err != nil {
		return err
	}

	if bus != nil {
		rt.EventBus = bus
		rt.closers = append(rt.closers, func(context.Context) error { return bus.Close() })
	}

	rt.Ports, err = NewPorts(ctx, logger, config.Ports)
	if err != nil {
		return err
	}

	if rt.Ports.Contacts == nil {
		return ErrContactsRequired
	}

	rt.Registry, err = NewRegistry(logger, config.PluginsPath, rt.Ports)
	if err != nil {
		return err
	}

	engineOpts = append(engineOpts,
		engine.WithConfig(config.Engine),
		engine.WithObserver(NewObserver(logger, rt.EventBus)),
	)

	rt.Engine = engine.New(store, store, rt.Ports.Contacts, rt.Registry, logger, engineOpts...)

	return nil
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error

	for i := len(rt.closers) - 1; i >= 0; i-- {
		err := rt.closers[i](ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}

	rt.closers = nil

	return errors.Join(errs...)
}
