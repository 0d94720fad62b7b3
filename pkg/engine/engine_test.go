package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dukex/journeys/pkg/actions"
	"github.com/dukex/journeys/pkg/events"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/observer"
	"github.com/dukex/journeys/pkg/persistence/file"
	"github.com/dukex/journeys/pkg/registry"
	"github.com/dukex/journeys/pkg/testutil"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	engine   *Engine
	store    *file.Persistence
	contacts *testutil.Contacts
	mailer   *testutil.Mailer
	clock    *clockwork.FakeClock
	recorder *observer.Recorder
}

func newHarness(t *testing.T, config Config) *harness {
	t.Helper()

	h := &harness{
		store:    file.NewPersistence(t.TempDir()),
		contacts: testutil.NewContacts(),
		mailer:   &testutil.Mailer{},
		clock:    clockwork.NewFakeClockAt(testutil.Now),
		recorder: observer.NewRecorder(),
	}

	h.engine = h.newEngine(config)

	return h
}

// newEngine builds an engine sharing the harness stores, e.g. a second runner.
func (h *harness) newEngine(config Config) *Engine {
	reg := registry.NewRegistry(testutil.Logger())
	for _, action := range actions.Builtins(actions.Ports{
		Contacts: h.contacts,
		Tasks:    &testutil.Tasks{},
		Deals:    &testutil.Deals{},
		Templates: testutil.Templates{
			"tpl-welcome": {ID: "tpl-welcome", Subject: "Welcome {{ .first_name }}", Body: "Hello {{ .first_name }}"},
		},
		Mailer: h.mailer,
	}) {
		reg.Register(action)
	}

	return New(h.store, h.store, h.contacts, reg, testutil.Logger(),
		WithConfig(config),
		WithClock(h.clock),
		WithObserver(h.recorder),
	)
}

func (h *harness) journey(t *testing.T, steps ...*models.Step) *models.Journey {
	t.Helper()

	journey := testutil.CreateTestJourney(steps...)
	require.NoError(t, h.store.SaveJourney(context.Background(), journey))

	return journey
}

func (h *harness) contact(overrides ...func(*models.Contact)) *models.Contact {
	contact := testutil.CreateTestContact(overrides...)
	h.contacts.Put(contact)

	return contact
}

func (h *harness) process(t *testing.T) ProcessReport {
	t.Helper()

	report, err := h.engine.ProcessReadyExecutions(context.Background())
	require.NoError(t, err)

	return report
}

func (h *harness) reload(t *testing.T, id string) *models.Execution {
	t.Helper()

	execution, err := h.store.ExecutionByID(context.Background(), id)
	require.NoError(t, err)

	return execution
}

func emailStep(id string) *models.Step {
	return testutil.Step(id, models.StepKindSendEmail, models.SendEmailConfig{TemplateID: "tpl-welcome"})
}

func waitStep(id string, config models.WaitConfig) *models.Step {
	return testutil.Step(id, models.StepKindWait, config)
}

func endStep(id string) *models.Step {
	return testutil.Step(id, models.StepKindEnd, models.EndConfig{})
}

func TestStartJourney_RejectsJourneyThatIsNotActive(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	contact := h.contact()

	for _, status := range []models.JourneyStatus{models.JourneyStatusDraft, models.JourneyStatusPaused, models.JourneyStatusArchived} {
		journey := testutil.CreateTestJourney(endStep("done"))
		journey.Status = status
		require.NoError(t, h.store.SaveJourney(context.Background(), journey))

		_, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
		require.ErrorIs(t, err, ErrJourneyNotExecutable, status)

		var startErr *StartError
		require.ErrorAs(t, err, &startErr)
		assert.Equal(t, journey.ID, startErr.JourneyID)
		assert.True(t, IsStartRejected(err))
	}
}

func TestStartJourney_UnknownJourneyAndContact(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, endStep("done"))

	_, err := h.engine.StartJourney(context.Background(), "missing", "c1")
	require.ErrorIs(t, err, ErrJourneyNotFound)

	_, err = h.engine.StartJourney(context.Background(), journey.ID, "ghost")
	require.Error(t, err)
	assert.False(t, IsStartRejected(err))
}

func TestStartJourney_NoDuplicateActiveExecutions(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, waitStep("pause", models.WaitConfig{Days: 1}), endStep("done"))
	contact := h.contact()

	first, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, first.Status)

	_, err = h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.ErrorIs(t, err, ErrDuplicateExecution)

	other := h.contact()
	_, err = h.engine.StartJourney(context.Background(), journey.ID, other.ID)
	require.NoError(t, err)
}

func TestStartJourney_AllowsRestartAfterTerminalExecution(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, endStep("done"))
	contact := h.contact()

	first, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, first.Status)

	second, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStartJourney_ExecutesFirstStepImmediately(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, emailStep("welcome"), endStep("done"))
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, h.mailer.Count())
	assert.Equal(t, "Welcome Ada", h.mailer.Sent[0].Subject)
	require.NotNil(t, execution.CurrentStepID)
	assert.Equal(t, "done", *execution.CurrentStepID)
	assert.Empty(t, execution.LeaseOwner, "the starter's lease is released")

	stored := h.reload(t, execution.ID)
	assert.Len(t, stored.Data.ByKind(models.DataEntryEmailSent), 1)

	assert.Equal(t, []events.EventType{events.ExecutionStartedEvent, events.StepExecutedEvent}, h.recorder.Types())
}

func TestStartJourney_LeadingWaitKeepsItsDelay(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, waitStep("pause", models.WaitConfig{Hours: 2}), emailStep("welcome"))
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	assert.Equal(t, "pause", *execution.CurrentStepID)
	assert.Equal(t, testutil.Now.Add(2*time.Hour), *execution.NextWakeAt)
	assert.Zero(t, h.mailer.Count())
}

func TestStartJourney_FirstStepFailureIsRecordedOnTheExecution(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, emailStep("welcome"), endStep("done"))
	contact := h.contact(func(c *models.Contact) { c.Email = "" })

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.FailureReason, "welcome")
	assert.Equal(t, models.ExecutionStatusFailed, h.reload(t, execution.ID).Status)
}

func TestAdvance_WaitSetsWakeTime(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, emailStep("welcome"), waitStep("pause", models.WaitConfig{Days: 1}), endStep("done"))
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	assert.Equal(t, "pause", *execution.CurrentStepID)
	assert.Equal(t, testutil.Now.Add(24*time.Hour), *execution.NextWakeAt)

	h.clock.Advance(23 * time.Hour)
	assert.Zero(t, h.process(t).Claimed, "not due before the wait elapses")

	h.clock.Advance(time.Hour)
	assert.Equal(t, 1, h.process(t).Claimed)

	stored := h.reload(t, execution.ID)
	assert.Equal(t, "done", *stored.CurrentStepID)
}

func TestAdvance_ConditionNotMetSkipsActionAndAdvances(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t,
		testutil.Step("vip", models.StepKindAddTag, models.TagConfig{Tags: []string{"vip"}},
			models.Condition{Field: "lead_score", Operator: models.OperatorGreaterThan, Value: 50}),
		endStep("done"),
	)
	contact := h.contact(func(c *models.Contact) { c.LeadScore = 40 })

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	assert.Equal(t, "done", *execution.CurrentStepID)
	assert.Contains(t, h.recorder.Types(), events.StepSkippedEvent)

	stored, err := h.contacts.Get(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Tags)
}

func TestAdvance_ConditionMetRunsAction(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t,
		testutil.Step("vip", models.StepKindAddTag, models.TagConfig{Tags: []string{"vip"}},
			models.Condition{Field: "lead_score", Operator: models.OperatorGreaterThan, Value: 50}),
		endStep("done"),
	)
	contact := h.contact(func(c *models.Contact) { c.LeadScore = 60 })

	_, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	stored, err := h.contacts.Get(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"vip"}, stored.Tags)
}

func TestAdvance_EndCompletesBeforeRemainingSteps(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, endStep("stop"), emailStep("never"))
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
	assert.Equal(t, testutil.Now, *execution.CompletedAt)
	assert.Zero(t, h.mailer.Count())
	assert.Contains(t, h.recorder.Types(), events.ExecutionCompletedEvent)
}

func TestAdvance_LastStepCompletes(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, emailStep("welcome"))
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
	assert.Nil(t, execution.CurrentStepID)
}

func TestAdvance_UnknownKindIsANoOp(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t,
		testutil.Step("fax", "send_fax", models.RawConfig{"number": "555"}),
		endStep("done"),
	)
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusRunning, execution.Status)
	assert.Equal(t, "done", *execution.CurrentStepID)
	assert.Contains(t, h.recorder.Types(), events.StepUnknownKindEvent)
}

func TestProcessReadyExecutions_IsolatesFailures(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, waitStep("pause", models.WaitConfig{Minutes: 1}), emailStep("welcome"), endStep("done"))

	good1 := h.contact()
	bad := h.contact(func(c *models.Contact) { c.Email = "" })
	good2 := h.contact()

	ids := make(map[string]string)

	for _, contact := range []*models.Contact{good1, bad, good2} {
		execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
		require.NoError(t, err)

		ids[contact.ID] = execution.ID
	}

	h.clock.Advance(time.Minute)
	assert.Equal(t, ProcessReport{Claimed: 3, Advanced: 3}, h.process(t))

	assert.Equal(t, ProcessReport{Claimed: 3, Advanced: 2, Failed: 1}, h.process(t))

	failed := h.reload(t, ids[bad.ID])
	assert.Equal(t, models.ExecutionStatusFailed, failed.Status)
	assert.NotEmpty(t, failed.FailureReason)

	for _, contact := range []*models.Contact{good1, good2} {
		assert.Equal(t, "done", *h.reload(t, ids[contact.ID]).CurrentStepID)
	}

	assert.Equal(t, ProcessReport{Claimed: 2, Advanced: 2}, h.process(t))
	assert.Zero(t, h.process(t).Claimed, "terminal executions are never claimed")
}

func TestProcessReadyExecutions_EndToEnd(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t,
		emailStep("welcome"),
		waitStep("one-day", models.WaitConfig{Days: 1}),
		testutil.Step("score", models.StepKindUpdateLeadScore, models.LeadScoreConfig{Action: models.LeadScoreAdd, Points: 10}),
		endStep("done"),
	)
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, h.mailer.Count())
	assert.Equal(t, "one-day", *execution.CurrentStepID)

	h.clock.Advance(24 * time.Hour)

	h.process(t)
	assert.Equal(t, "score", *h.reload(t, execution.ID).CurrentStepID)

	h.process(t)
	assert.Equal(t, "done", *h.reload(t, execution.ID).CurrentStepID)

	stored, err := h.contacts.Get(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.LeadScore)

	h.process(t)

	final := h.reload(t, execution.ID)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Equal(t, testutil.Now.Add(24*time.Hour), *final.CompletedAt)
	assert.Len(t, final.Data.ByKind(models.DataEntryEmailSent), 1)

	assert.Equal(t, []events.EventType{
		events.ExecutionStartedEvent,
		events.StepExecutedEvent,
		events.StepExecutedEvent,
		events.StepExecutedEvent,
		events.StepExecutedEvent,
		events.ExecutionCompletedEvent,
	}, h.recorder.Types())
}

func TestProcessReadyExecutions_MaxStepsPerTickChainsDueSteps(t *testing.T) {
	config := DefaultConfig()
	config.MaxStepsPerTick = 10

	h := newHarness(t, config)
	journey := h.journey(t,
		waitStep("pause", models.WaitConfig{Hours: 1}),
		emailStep("welcome"),
		testutil.Step("tag", models.StepKindAddTag, models.TagConfig{Tags: []string{"onboarded"}}),
		waitStep("later", models.WaitConfig{Days: 2}),
		endStep("done"),
	)
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	h.clock.Advance(time.Hour)
	h.process(t)

	stored := h.reload(t, execution.ID)
	assert.Equal(t, "later", *stored.CurrentStepID, "chaining stops at the next wait")
	assert.Equal(t, testutil.Now.Add(time.Hour+48*time.Hour), *stored.NextWakeAt)
	assert.Equal(t, 1, h.mailer.Count())
}

func TestProcessReadyExecutions_ConcurrentRunnersAdvanceOnce(t *testing.T) {
	h := newHarness(t, Config{WorkerID: "runner-a"})
	second := h.newEngine(Config{WorkerID: "runner-b"})

	journey := h.journey(t, waitStep("pause", models.WaitConfig{Minutes: 5}), emailStep("welcome"), endStep("done"))

	for range 10 {
		_, err := h.engine.StartJourney(context.Background(), journey.ID, h.contact().ID)
		require.NoError(t, err)
	}

	h.clock.Advance(5 * time.Minute)

	// Runners race until nothing is due. A runner may pick up an execution
	// the other one just saved, but never one it still holds.
	for range 10 {
		reports := make(chan ProcessReport, 2)

		for _, runner := range []*Engine{h.engine, second} {
			go func() {
				report, err := runner.ProcessReadyExecutions(context.Background())
				assert.NoError(t, err)

				reports <- report
			}()
		}

		first, other := <-reports, <-reports
		assert.Zero(t, first.LeaseLost+other.LeaseLost)

		if first.Claimed+other.Claimed == 0 {
			break
		}
	}

	assert.Equal(t, 10, h.mailer.Count(), "each email step ran exactly once")

	executions, err := h.store.ExecutionsByJourney(context.Background(), journey.ID)
	require.NoError(t, err)
	require.Len(t, executions, 10)

	for _, execution := range executions {
		assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
		assert.Len(t, execution.Data.ByKind(models.DataEntryEmailSent), 1)
	}
}

func TestProcessReadyExecutions_CancelledStepIsReleasedNotFailed(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, waitStep("pause", models.WaitConfig{Minutes: 1}), emailStep("welcome"), endStep("done"))
	contact := h.contact()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := registry.NewRegistry(testutil.Logger())
	for _, action := range actions.Builtins(actions.Ports{
		Contacts:  h.contacts,
		Templates: testutil.Templates{"tpl-welcome": {ID: "tpl-welcome", Subject: "Welcome", Body: "Hello"}},
		Mailer:    cancellingMailer{cancel: cancel},
	}) {
		reg.Register(action)
	}

	shuttingDown := New(h.store, h.store, h.contacts, reg, testutil.Logger(),
		WithClock(h.clock),
		WithObserver(h.recorder),
	)

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	h.clock.Advance(time.Minute)
	assert.Equal(t, ProcessReport{Claimed: 1, Advanced: 1}, h.process(t))

	report, err := shuttingDown.ProcessReadyExecutions(ctx)
	require.NoError(t, err)
	assert.Equal(t, ProcessReport{Claimed: 1, Interrupted: 1}, report)

	stored := h.reload(t, execution.ID)
	assert.Equal(t, models.ExecutionStatusRunning, stored.Status)
	assert.Empty(t, stored.FailureReason)
	assert.Equal(t, "welcome", *stored.CurrentStepID)
	assert.Empty(t, stored.LeaseOwner, "the claim is released for the next runner")
	assert.NotContains(t, h.recorder.Types(), events.ExecutionFailedEvent)

	assert.Equal(t, ProcessReport{Claimed: 1, Advanced: 1}, h.process(t))
	assert.Equal(t, 1, h.mailer.Count())
	assert.Equal(t, "done", *h.reload(t, execution.ID).CurrentStepID)
}

func TestProcessReadyExecutions_ExpiredLeaseIsReclaimed(t *testing.T) {
	h := newHarness(t, Config{WorkerID: "runner-a", LeaseDuration: time.Minute})
	journey := h.journey(t, waitStep("pause", models.WaitConfig{Minutes: 1}), endStep("done"))
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	h.clock.Advance(time.Minute)

	// A runner that crashed after claiming never writes back.
	crashed, err := h.store.ClaimDueExecutions(context.Background(), "crashed", h.clock.Now(), time.Minute, 0)
	require.NoError(t, err)
	require.Len(t, crashed, 1)

	assert.Zero(t, h.process(t).Claimed)

	h.clock.Advance(time.Minute)
	assert.Equal(t, ProcessReport{Claimed: 1, Advanced: 1}, h.process(t))

	require.ErrorIs(t, h.store.SaveClaimed(context.Background(), crashed[0], "crashed"), ErrLeaseLost)
	assert.Equal(t, "done", *h.reload(t, execution.ID).CurrentStepID)
}

func TestDefinitionModes(t *testing.T) {
	tests := []struct {
		mode     DefinitionMode
		wantStep string
	}{
		{mode: DefinitionModeLive, wantStep: "inserted"},
		{mode: DefinitionModeSnapshot, wantStep: "done"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			h := newHarness(t, Config{DefinitionMode: tt.mode})
			journey := h.journey(t, waitStep("pause", models.WaitConfig{Hours: 1}), endStep("done"))
			contact := h.contact()

			execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
			require.NoError(t, err)

			inserted := emailStep("inserted")
			inserted.Position = 15
			journey.Steps = append(journey.Steps, inserted)
			require.NoError(t, h.store.SaveJourney(context.Background(), journey))

			h.clock.Advance(time.Hour)
			h.process(t)

			assert.Equal(t, tt.wantStep, *h.reload(t, execution.ID).CurrentStepID)
		})
	}
}

func TestAdvance_CurrentStepRemovedFailsExecution(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, waitStep("pause", models.WaitConfig{Hours: 1}), endStep("done"))
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	journey.Steps = journey.Steps[1:]
	require.NoError(t, h.store.SaveJourney(context.Background(), journey))

	h.clock.Advance(time.Hour)
	assert.Equal(t, 1, h.process(t).Failed)

	stored := h.reload(t, execution.ID)
	assert.Equal(t, models.ExecutionStatusFailed, stored.Status)
	assert.Contains(t, stored.FailureReason, ErrStepNotFound.Error())
}

func TestPauseAndResume(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	journey := h.journey(t, waitStep("pause", models.WaitConfig{Minutes: 10}), endStep("done"))
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)

	paused, err := h.engine.PauseExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPaused, paused.Status)

	_, err = h.engine.PauseExecution(context.Background(), execution.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	h.clock.Advance(time.Hour)
	assert.Zero(t, h.process(t).Claimed, "paused executions are not advanced")

	resumed, err := h.engine.ResumeExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, resumed.Status)
	assert.Equal(t, testutil.Now.Add(10*time.Minute), *resumed.NextWakeAt, "wake time is kept")

	_, err = h.engine.ResumeExecution(context.Background(), execution.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = h.store.ClaimDueExecutions(context.Background(), "other", h.clock.Now(), time.Minute, 0)
	require.NoError(t, err)

	_, err = h.engine.PauseExecution(context.Background(), execution.ID)
	require.ErrorIs(t, err, ErrExecutionBusy)

	_, err = h.engine.PauseExecution(context.Background(), "missing")
	require.ErrorIs(t, err, ErrExecutionNotFound)

	assert.Contains(t, h.recorder.Types(), events.ExecutionPausedEvent)
	assert.Contains(t, h.recorder.Types(), events.ExecutionResumedEvent)
}

func TestObserverErrorsDoNotFailExecution(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.engine.observer = observer.Fanout{h.recorder, failingObserver{}}

	journey := h.journey(t, emailStep("welcome"))
	contact := h.contact()

	execution, err := h.engine.StartJourney(context.Background(), journey.ID, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
}

// cancellingMailer simulates a shutdown signal arriving during delivery.
type cancellingMailer struct {
	cancel context.CancelFunc
}

func (m cancellingMailer) Send(ctx context.Context, _, _, _ string) error {
	m.cancel()

	return fmt.Errorf("send email: %w", ctx.Err())
}

type failingObserver struct{}

func (failingObserver) Notify(context.Context, events.Event) error {
	return errors.New("broker unavailable")
}
