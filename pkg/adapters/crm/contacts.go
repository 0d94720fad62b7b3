package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
	"gorm.io/gorm"
)

type ContactStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewContactStore(db *gorm.DB, logger *slog.Logger) *ContactStore {
	return &ContactStore{db: db, logger: logger.With(slog.String("module", "crm_contacts"))}
}

var _ protocol.ContactStore = (*ContactStore)(nil)

func (s *ContactStore) Get(ctx context.Context, contactID string) (*models.Contact, error) {
	record, err := findContact(s.db.WithContext(ctx), contactID)
	if err != nil {
		return nil, err
	}

	return record.toModel(), nil
}

// Update loads the contact, applies fields and writes it back in one
// transaction.
func (s *ContactStore) Update(ctx context.Context, contactID string, fields map[string]any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := findContact(tx, contactID)
		if err != nil {
			return err
		}

		contact := record.toModel()

		err = contact.ApplyFields(fields)
		if err != nil {
			return err
		}

		err = tx.Save(contactFromModel(contact)).Error
		if err != nil {
			return fmt.Errorf("failed to update contact %s: %w", contactID, err)
		}

		s.logger.DebugContext(ctx, "Contact updated", slog.String("contact_id", contactID), slog.Int("fields", len(fields)))

		return nil
	})
}

// Save inserts or replaces contact.
func (s *ContactStore) Save(ctx context.Context, contact *models.Contact) error {
	err := s.db.WithContext(ctx).Save(contactFromModel(contact)).Error
	if err != nil {
		return fmt.Errorf("failed to save contact %s: %w", contact.ID, err)
	}

	return nil
}

func findContact(db *gorm.DB, contactID string) (*contactRecord, error) {
	var record contactRecord

	err := db.First(&record, "id = ?", contactID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", protocol.ErrContactNotFound, contactID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load contact %s: %w", contactID, err)
	}

	return &record, nil
}

func (r *contactRecord) toModel() *models.Contact {
	contact := &models.Contact{
		ID:          r.ID,
		Email:       r.Email,
		Phone:       r.Phone,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		CompanyName: r.CompanyName,
		OwnerID:     r.OwnerID,
		LeadScore:   r.LeadScore,
	}

	if len(r.Tags) > 0 {
		contact.Tags = append([]string(nil), r.Tags...)
	}

	if len(r.Attributes) > 0 {
		contact.Attributes = make(map[string]any, len(r.Attributes))
		for k, v := range r.Attributes {
			contact.Attributes[k] = v
		}
	}

	return contact
}

func contactFromModel(c *models.Contact) *contactRecord {
	return &contactRecord{
		ID:          c.ID,
		Email:       c.Email,
		Phone:       c.Phone,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		CompanyName: c.CompanyName,
		OwnerID:     c.OwnerID,
		LeadScore:   c.LeadScore,
		Tags:        c.Tags,
		Attributes:  c.Attributes,
	}
}
