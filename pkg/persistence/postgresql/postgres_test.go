package postgresql_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/persistence"
	"github.com/dukex/journeys/pkg/persistence/postgresql"
	"github.com/dukex/journeys/pkg/testutil"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"executions", "journeys", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("journeys_test"),
			postgres.WithUsername("journeys"),
			postgres.WithPassword("journeys"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	p, err := postgresql.NewPersistence(ctx, testutil.Logger(), databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func newExecution(journeyID, contactID string) *models.Execution {
	return &models.Execution{
		ID:        uuid.New().String(),
		JourneyID: journeyID,
		ContactID: contactID,
		Status:    models.ExecutionStatusRunning,
		StartedAt: testutil.Now,
		UpdatedAt: testutil.Now,
	}
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	for _, table := range []string{"journeys", "executions", "schema_migrations"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewPersistence_ConcurrentMigrationsApplyOnce(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	errs := make(chan error, 3)

	for range 3 {
		go func() {
			p, err := postgresql.NewPersistence(ctx, testutil.Logger(), databaseURL)
			if err == nil {
				err = p.Close(ctx)
			}

			errs <- err
		}()
	}

	for range 3 {
		require.NoError(t, <-errs)
	}

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	var applied int

	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}

func TestJourneyRepository_SaveLoadDelete(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	journey := testutil.CreateTestJourney(
		testutil.Step("welcome", models.StepKindSendEmail, models.SendEmailConfig{TemplateID: "tpl-welcome"}),
		testutil.Step("wait", models.StepKindWait, models.WaitConfig{Hours: 4}),
		testutil.Step("vip", models.StepKindAddTag, models.TagConfig{Tags: []string{"vip"}},
			models.Condition{Field: "lead_score", Operator: models.OperatorGreaterThan, Value: 50.0}),
	)

	require.NoError(t, p.SaveJourney(ctx, journey))

	loaded, err := p.JourneyByID(ctx, journey.ID)
	require.NoError(t, err)
	assert.Equal(t, journey.Name, loaded.Name)
	require.Len(t, loaded.Steps, 3)
	assert.Equal(t, models.WaitConfig{Hours: 4}, loaded.Steps[1].Config)
	assert.Equal(t, journey.Steps[2].Conditions, loaded.Steps[2].Conditions)

	journeys, err := p.Journeys(ctx)
	require.NoError(t, err)
	assert.Len(t, journeys, 1)

	require.NoError(t, p.DeleteJourney(ctx, journey.ID))

	_, err = p.JourneyByID(ctx, journey.ID)
	require.ErrorIs(t, err, persistence.ErrJourneyNotFound)
	require.ErrorIs(t, p.DeleteJourney(ctx, journey.ID), persistence.ErrJourneyNotFound)
}

func TestExecutionRepository_DuplicateActiveExecution(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	require.NoError(t, p.CreateExecution(ctx, newExecution("j1", "c1")))

	err := p.CreateExecution(ctx, newExecution("j1", "c1"))
	require.ErrorIs(t, err, persistence.ErrDuplicateExecution)

	done := newExecution("j2", "c1")
	done.Complete(testutil.Now)
	require.NoError(t, p.CreateExecution(ctx, done))
	require.NoError(t, p.CreateExecution(ctx, newExecution("j2", "c1")))
}

func TestExecutionRepository_StepsStoredOnlyForSnapshots(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)

	live := newExecution("j1", "c1")
	require.Nil(t, live.Steps)
	require.NoError(t, p.CreateExecution(ctx, live))

	snapshot := newExecution("j1", "c2")
	snapshot.Steps = []*models.Step{
		testutil.Step("done", models.StepKindEnd, models.EndConfig{}),
	}
	require.NoError(t, p.CreateExecution(ctx, snapshot))

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	var stepsIsNull bool

	err = db.QueryRowContext(ctx, "SELECT steps IS NULL FROM executions WHERE id = $1", live.ID).Scan(&stepsIsNull)
	require.NoError(t, err)
	assert.True(t, stepsIsNull)

	claimed, err := p.ClaimDueExecutions(ctx, "worker-a", testutil.Now, time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	for _, execution := range claimed {
		require.NoError(t, p.SaveClaimed(ctx, execution, "worker-a"))
	}

	storedLive, err := p.ExecutionByID(ctx, live.ID)
	require.NoError(t, err)
	assert.Nil(t, storedLive.Steps)

	storedSnapshot, err := p.ExecutionByID(ctx, snapshot.ID)
	require.NoError(t, err)
	require.Len(t, storedSnapshot.Steps, 1)
	assert.Equal(t, "done", storedSnapshot.Steps[0].ID)
}

func TestExecutionRepository_ClaimSaveAndTransition(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	execution := newExecution("j1", "c1")
	execution.Record(models.DataEntry{
		Kind:   models.DataEntryTaskCreated,
		StepID: "follow-up",
		At:     testutil.Now,
		Data:   map[string]any{"task_id": "t-1"},
	})
	require.NoError(t, p.CreateExecution(ctx, execution))

	claimed, err := p.ClaimDueExecutions(ctx, "worker-a", testutil.Now, time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, "worker-a", claimed[0].LeaseOwner)
	assert.Len(t, claimed[0].Data, 1)

	_, err = p.TransitionStatus(ctx, execution.ID, models.ExecutionStatusRunning, models.ExecutionStatusPaused, testutil.Now)
	require.ErrorIs(t, err, persistence.ErrExecutionBusy)

	again, err := p.ClaimDueExecutions(ctx, "worker-b", testutil.Now, time.Minute, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	wake := testutil.Now.Add(time.Hour)
	claimed[0].MoveTo(&models.Step{ID: "wait"}, wake)

	require.ErrorIs(t, p.SaveClaimed(ctx, claimed[0], "worker-b"), persistence.ErrLeaseLost)
	require.NoError(t, p.SaveClaimed(ctx, claimed[0], "worker-a"))

	stored, err := p.ExecutionByID(ctx, execution.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentStepID)
	assert.Equal(t, "wait", *stored.CurrentStepID)
	assert.True(t, wake.Equal(*stored.NextWakeAt))
	assert.Empty(t, stored.LeaseOwner)

	paused, err := p.TransitionStatus(ctx, execution.ID, models.ExecutionStatusRunning, models.ExecutionStatusPaused, testutil.Now)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPaused, paused.Status)

	_, err = p.TransitionStatus(ctx, execution.ID, models.ExecutionStatusRunning, models.ExecutionStatusPaused, testutil.Now)
	require.ErrorIs(t, err, persistence.ErrInvalidStatusTransition)

	active, err := p.ActiveExecution(ctx, "j1", "c1")
	require.NoError(t, err)
	assert.Equal(t, execution.ID, active.ID)

	byJourney, err := p.ExecutionsByJourney(ctx, "j1")
	require.NoError(t, err)
	assert.Len(t, byJourney, 1)
}

func TestExecutionRepository_ConcurrentClaimsAreExclusive(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	for i := range 20 {
		require.NoError(t, p.CreateExecution(ctx, newExecution("j1", uuid.New().String()+string(rune('a'+i)))))
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total = make(map[string]int)
	)

	for _, worker := range []string{"w1", "w2", "w3", "w4"} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			claimed, err := p.ClaimDueExecutions(ctx, worker, testutil.Now, time.Minute, 5)
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()

			for _, e := range claimed {
				total[e.ID]++
			}
		}()
	}

	wg.Wait()

	for id, count := range total {
		assert.Equal(t, 1, count, id)
	}
}
