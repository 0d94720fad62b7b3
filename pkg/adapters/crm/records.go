package crm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStore struct {
	db *gorm.DB
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

var _ protocol.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) Create(ctx context.Context, task *models.Task) (string, error) {
	record := taskRecord{
		ID:          uuid.New().String(),
		ContactID:   task.ContactID,
		AssignedTo:  task.AssignedTo,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		DueAt:       task.DueAt,
	}

	err := s.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		return "", fmt.Errorf("failed to create task for contact %s: %w", task.ContactID, err)
	}

	return record.ID, nil
}

// ByContact lists the tasks created for contactID, oldest first.
func (s *TaskStore) ByContact(ctx context.Context, contactID string) ([]*models.Task, error) {
	var records []taskRecord

	err := s.db.WithContext(ctx).Where("contact_id = ?", contactID).Order("created_at, id").Find(&records).Error
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, &models.Task{
			ID:          r.ID,
			ContactID:   r.ContactID,
			AssignedTo:  r.AssignedTo,
			Title:       r.Title,
			Description: r.Description,
			Priority:    r.Priority,
			DueAt:       r.DueAt,
		})
	}

	return tasks, nil
}

type DealStore struct {
	db *gorm.DB
}

func NewDealStore(db *gorm.DB) *DealStore {
	return &DealStore{db: db}
}

var _ protocol.DealStore = (*DealStore)(nil)

func (s *DealStore) Create(ctx context.Context, deal *models.Deal) (string, error) {
	record := dealRecord{
		ID:        uuid.New().String(),
		ContactID: deal.ContactID,
		OwnerID:   deal.OwnerID,
		Title:     deal.Title,
		Value:     deal.Value,
		Stage:     deal.Stage,
	}

	err := s.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		return "", fmt.Errorf("failed to create deal for contact %s: %w", deal.ContactID, err)
	}

	return record.ID, nil
}

type TemplateStore struct {
	db *gorm.DB
}

func NewTemplateStore(db *gorm.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

var _ protocol.TemplateStore = (*TemplateStore)(nil)

func (s *TemplateStore) Get(ctx context.Context, templateID string) (*models.EmailTemplate, error) {
	var record templateRecord

	err := s.db.WithContext(ctx).First(&record, "id = ?", templateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", protocol.ErrTemplateNotFound, templateID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", templateID, err)
	}

	return &models.EmailTemplate{ID: record.ID, Subject: record.Subject, Body: record.Body}, nil
}

func (s *TemplateStore) Save(ctx context.Context, template *models.EmailTemplate) error {
	return s.db.WithContext(ctx).Save(&templateRecord{
		ID:      template.ID,
		Subject: template.Subject,
		Body:    template.Body,
	}).Error
}
