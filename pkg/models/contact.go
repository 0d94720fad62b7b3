package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidContactField is returned when an update value has the wrong type.
var ErrInvalidContactField = errors.New("invalid contact field")

// Contact is the snapshot of a CRM contact the engine reads and mutates.
type Contact struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone,omitempty"`
	FirstName   string         `json:"first_name,omitempty"`
	LastName    string         `json:"last_name,omitempty"`
	CompanyName string         `json:"company_name,omitempty"`
	OwnerID     string         `json:"owner_id,omitempty"`
	LeadScore   int            `json:"lead_score"`
	Tags        []string       `json:"tags,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Contact field names accepted by ContactStore.Update.
const (
	ContactFieldEmail       = "email"
	ContactFieldPhone       = "phone"
	ContactFieldFirstName   = "first_name"
	ContactFieldLastName    = "last_name"
	ContactFieldCompanyName = "company_name"
	ContactFieldOwnerID     = "owner_id"
	ContactFieldLeadScore   = "lead_score"
	ContactFieldTags        = "tags"
)

// Task is a follow-up created for a contact.
type Task struct {
	ID          string    `json:"id,omitempty"`
	ContactID   string    `json:"contact_id"`
	AssignedTo  string    `json:"assigned_to"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	DueAt       time.Time `json:"due_at"`
}

// Deal is a sales opportunity created for a contact.
type Deal struct {
	ID        string  `json:"id,omitempty"`
	ContactID string  `json:"contact_id"`
	OwnerID   string  `json:"owner_id,omitempty"`
	Title     string  `json:"title"`
	Value     float64 `json:"value"`
	Stage     string  `json:"stage"`
}

// EmailTemplate is a stored message rendered per contact.
type EmailTemplate struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ApplyFields sets the named fields on c. Names that are not contact fields
// are stored as custom attributes.
func (c *Contact) ApplyFields(fields map[string]any) error {
	for name, value := range fields {
		switch name {
		case ContactFieldEmail, ContactFieldPhone, ContactFieldFirstName,
			ContactFieldLastName, ContactFieldCompanyName, ContactFieldOwnerID:
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidContactField, name, value)
			}

			c.setString(name, s)
		case ContactFieldLeadScore:
			score, ok := toInt(value)
			if !ok {
				return fmt.Errorf("%w: lead_score must be a number, got %T", ErrInvalidContactField, value)
			}

			c.LeadScore = score
		case ContactFieldTags:
			tags, ok := toStrings(value)
			if !ok {
				return fmt.Errorf("%w: tags must be a list of strings, got %T", ErrInvalidContactField, value)
			}

			c.Tags = tags
		default:
			if c.Attributes == nil {
				c.Attributes = make(map[string]any)
			}

			c.Attributes[name] = value
		}
	}

	return nil
}

func (c *Contact) setString(name, value string) {
	switch name {
	case ContactFieldEmail:
		c.Email = value
	case ContactFieldPhone:
		c.Phone = value
	case ContactFieldFirstName:
		c.FirstName = value
	case ContactFieldLastName:
		c.LastName = value
	case ContactFieldCompanyName:
		c.CompanyName = value
	case ContactFieldOwnerID:
		c.OwnerID = value
	}
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), v == float64(int(v))
	default:
		return 0, false
	}
}

func toStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}

			out = append(out, s)
		}

		return out, true
	default:
		return nil, false
	}
}
