package mocks

import (
	"context"

	"github.com/dukex/journeys/pkg/events"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

// MockContactStore is a mock implementation of protocol.ContactStore interface.
type MockContactStore struct {
	mock.Mock
}

func (m *MockContactStore) Get(ctx context.Context, contactID string) (*models.Contact, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockContactStore) Update(ctx context.Context, contactID string, fields map[string]any) error {
	args := m.Called(ctx, contactID, fields)

	return args.Error(0)
}

// MockTaskStore is a mock implementation of protocol.TaskStore interface.
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Create(ctx context.Context, task *models.Task) (string, error) {
	args := m.Called(ctx, task)

	return args.String(0), args.Error(1)
}

// MockDealStore is a mock implementation of protocol.DealStore interface.
type MockDealStore struct {
	mock.Mock
}

func (m *MockDealStore) Create(ctx context.Context, deal *models.Deal) (string, error) {
	args := m.Called(ctx, deal)

	return args.String(0), args.Error(1)
}

// MockTemplateStore is a mock implementation of protocol.TemplateStore interface.
type MockTemplateStore struct {
	mock.Mock
}

func (m *MockTemplateStore) Get(ctx context.Context, templateID string) (*models.EmailTemplate, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.EmailTemplate), args.Error(1)
}

// MockMailer is a mock implementation of protocol.Mailer interface.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)

	return args.Error(0)
}

// MockSMSSender is a mock implementation of protocol.SMSSender interface.
type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) Send(ctx context.Context, to, message string) error {
	args := m.Called(ctx, to, message)

	return args.Error(0)
}

// MockWebhookClient is a mock implementation of protocol.WebhookClient interface.
type MockWebhookClient struct {
	mock.Mock
}

func (m *MockWebhookClient) Post(ctx context.Context, url, method string, headers map[string]string, body []byte) (protocol.WebhookResponse, error) {
	args := m.Called(ctx, url, method, headers, body)

	return args.Get(0).(protocol.WebhookResponse), args.Error(1)
}

// MockObserver is a mock implementation of protocol.Observer interface.
type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) Notify(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}
