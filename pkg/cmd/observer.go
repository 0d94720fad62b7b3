package cmd

import (
	"log/slog"

	"github.com/dukex/journeys/pkg/eventbus"
	"github.com/dukex/journeys/pkg/observer"
	"github.com/dukex/journeys/pkg/protocol"
)

// NewObserver logs lifecycle events at debug level and, when bus is set,
// publishes them.
func NewObserver(logger *slog.Logger, bus eventbus.EventBus) protocol.Observer {
	observers := observer.Fanout{observer.NewLog(logger, slog.LevelDebug)}

	if bus != nil {
		observers = append(observers, eventbus.NewObserver(bus))
	}

	return observers
}
