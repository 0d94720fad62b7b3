package mocks

import (
	"context"
	"time"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

var _ persistence.Persistence = (*MockPersistence)(nil)

func (m *MockPersistence) Journeys(ctx context.Context) ([]*models.Journey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Journey), args.Error(1)
}

func (m *MockPersistence) JourneyByID(ctx context.Context, id string) (*models.Journey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Journey), args.Error(1)
}

func (m *MockPersistence) SaveJourney(ctx context.Context, journey *models.Journey) error {
	args := m.Called(ctx, journey)

	return args.Error(0)
}

func (m *MockPersistence) DeleteJourney(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) CreateExecution(ctx context.Context, execution *models.Execution) error {
	args := m.Called(ctx, execution)

	return args.Error(0)
}

func (m *MockPersistence) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Execution), args.Error(1)
}

func (m *MockPersistence) ActiveExecution(ctx context.Context, journeyID, contactID string) (*models.Execution, error) {
	args := m.Called(ctx, journeyID, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Execution), args.Error(1)
}

func (m *MockPersistence) ExecutionsByJourney(ctx context.Context, journeyID string) ([]*models.Execution, error) {
	args := m.Called(ctx, journeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Execution), args.Error(1)
}

func (m *MockPersistence) ClaimDueExecutions(ctx context.Context, owner string, now time.Time, ttl time.Duration, limit int) ([]*models.Execution, error) {
	args := m.Called(ctx, owner, now, ttl, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Execution), args.Error(1)
}

func (m *MockPersistence) SaveClaimed(ctx context.Context, execution *models.Execution, owner string) error {
	args := m.Called(ctx, execution, owner)

	return args.Error(0)
}

func (m *MockPersistence) TransitionStatus(ctx context.Context, id string, from, to models.ExecutionStatus, now time.Time) (*models.Execution, error) {
	args := m.Called(ctx, id, from, to, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Execution), args.Error(1)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
