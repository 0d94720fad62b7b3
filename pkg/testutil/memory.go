package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
)

// Contacts is an in-memory protocol.ContactStore.
type Contacts struct {
	mu       sync.Mutex
	contacts map[string]*models.Contact
}

func NewContacts(contacts ...*models.Contact) *Contacts {
	store := &Contacts{contacts: make(map[string]*models.Contact)}
	for _, contact := range contacts {
		store.Put(contact)
	}

	return store
}

func (s *Contacts) Put(contact *models.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *contact
	s.contacts[contact.ID] = &clone
}

func (s *Contacts) Get(_ context.Context, contactID string) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[contactID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", protocol.ErrContactNotFound, contactID)
	}

	clone := *contact
	clone.Tags = append([]string(nil), contact.Tags...)

	return &clone, nil
}

func (s *Contacts) Update(_ context.Context, contactID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[contactID]
	if !ok {
		return fmt.Errorf("%w: %s", protocol.ErrContactNotFound, contactID)
	}

	return contact.ApplyFields(fields)
}

// Mailer records sent messages and optionally fails.
type Mailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

type SentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *Mailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})

	return nil
}

func (m *Mailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Sent)
}

// Templates is an in-memory protocol.TemplateStore.
type Templates map[string]*models.EmailTemplate

func (t Templates) Get(_ context.Context, templateID string) (*models.EmailTemplate, error) {
	tpl, ok := t[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", protocol.ErrTemplateNotFound, templateID)
	}

	return tpl, nil
}

// Tasks records created tasks.
type Tasks struct {
	mu      sync.Mutex
	Created []*models.Task
}

func (s *Tasks) Create(_ context.Context, task *models.Task) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = fmt.Sprintf("task-%d", len(s.Created)+1)
	s.Created = append(s.Created, task)

	return task.ID, nil
}

// Deals records created deals.
type Deals struct {
	mu      sync.Mutex
	Created []*models.Deal
}

func (s *Deals) Create(_ context.Context, deal *models.Deal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal.ID = fmt.Sprintf("deal-%d", len(s.Created)+1)
	s.Created = append(s.Created, deal)

	return deal.ID, nil
}
