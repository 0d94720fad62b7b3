package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/journeys/pkg/channels/gochannel"
	"github.com/dukex/journeys/pkg/eventbus"
	"github.com/dukex/journeys/pkg/events"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub, testutil.Logger())
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func sampleExecution() *models.Execution {
	return &models.Execution{ID: "exec-1", JourneyID: "welcome", ContactID: "c-1"}
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := newBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Event, 1)

	require.NoError(t, bus.Handle(events.ExecutionFailedEvent, func(_ context.Context, event events.Event) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	sent := events.ExecutionFailed{
		BaseEvent: events.NewBaseEvent(events.ExecutionFailedEvent, sampleExecution(), time.Now()),
		StepID:    "send-welcome",
		Error:     "smtp down",
	}
	require.NoError(t, bus.Publish(ctx, sent.Key(), sent))

	select {
	case event := <-received:
		failed, ok := event.(*events.ExecutionFailed)
		require.True(t, ok)
		assert.Equal(t, "exec-1", failed.ExecutionID)
		assert.Equal(t, "send-welcome", failed.StepID)
		assert.Equal(t, "smtp down", failed.Error)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_IgnoresUnhandledTypes(t *testing.T) {
	bus := newBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Event, 2)

	require.NoError(t, bus.Handle(events.ExecutionCompletedEvent, func(_ context.Context, event events.Event) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	started := events.ExecutionStarted{BaseEvent: events.NewBaseEvent(events.ExecutionStartedEvent, sampleExecution(), time.Now())}
	completed := events.ExecutionCompleted{BaseEvent: events.NewBaseEvent(events.ExecutionCompletedEvent, sampleExecution(), time.Now())}

	require.NoError(t, bus.Publish(ctx, started.Key(), started))
	require.NoError(t, bus.Publish(ctx, completed.Key(), completed))

	select {
	case event := <-received:
		assert.Equal(t, events.ExecutionCompletedEvent, event.GetType())
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	assert.Empty(t, received)
}

type failingPublisher struct{ err error }

func (p failingPublisher) Publish(context.Context, string, events.Event) error { return p.err }

func TestObserver_PublishesWithExecutionKey(t *testing.T) {
	bus := newBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Event, 1)

	require.NoError(t, bus.Handle(events.StepSkippedEvent, func(_ context.Context, event events.Event) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	observer := eventbus.NewObserver(bus)
	err := observer.Notify(ctx, events.StepSkipped{
		BaseEvent: events.NewBaseEvent(events.StepSkippedEvent, sampleExecution(), time.Now()),
		StepID:    "vip-only",
		StepKind:  models.StepKindSendEmail,
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "exec-1", event.Key())
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	boom := errors.New("broker unavailable")
	err = eventbus.NewObserver(failingPublisher{err: boom}).Notify(ctx, events.StepSkipped{})
	require.ErrorIs(t, err, boom)
}
