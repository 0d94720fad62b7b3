package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StepKind identifies the behaviour of a journey step.
type StepKind string

const (
	StepKindWait            StepKind = "wait"
	StepKindSendEmail       StepKind = "send_email"
	StepKindSendSMS         StepKind = "send_sms"
	StepKindCreateTask      StepKind = "create_task"
	StepKindCreateDeal      StepKind = "create_deal"
	StepKindUpdateContact   StepKind = "update_contact"
	StepKindAddTag          StepKind = "add_tag"
	StepKindRemoveTag       StepKind = "remove_tag"
	StepKindUpdateLeadScore StepKind = "update_lead_score"
	StepKindWebhook         StepKind = "webhook"
	StepKindCondition       StepKind = "condition"
	StepKindEnd             StepKind = "end"
)

// StepKinds lists every kind the engine knows how to dispatch.
var StepKinds = []StepKind{
	StepKindWait,
	StepKindSendEmail,
	StepKindSendSMS,
	StepKindCreateTask,
	StepKindCreateDeal,
	StepKindUpdateContact,
	StepKindAddTag,
	StepKindRemoveTag,
	StepKindUpdateLeadScore,
	StepKindWebhook,
	StepKindCondition,
	StepKindEnd,
}

// IsKnown reports whether k is one of StepKinds.
func (k StepKind) IsKnown() bool {
	for _, known := range StepKinds {
		if k == known {
			return true
		}
	}

	return false
}

// Step is one unit of work in a journey.
type Step struct {
	ID         string      `json:"id"                   validate:"required"`
	Name       string      `json:"name,omitempty"`
	Position   int         `json:"position"`
	Kind       StepKind    `json:"kind"                 validate:"required"`
	Config     StepConfig  `json:"config,omitempty"     validate:"-"`
	Conditions []Condition `json:"conditions,omitempty" validate:"dive"`
}

// HasConditions reports whether the step gates its action on conditions.
func (s *Step) HasConditions() bool {
	return len(s.Conditions) > 0
}

// UnmarshalJSON decodes the step and its kind-specific configuration.
func (s *Step) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Position   int             `json:"position"`
		Kind       StepKind        `json:"kind"`
		Config     json.RawMessage `json:"config"`
		Conditions []Condition     `json:"conditions"`
	}

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	config, err := DecodeStepConfig(raw.Kind, raw.Config)
	if err != nil {
		return fmt.Errorf("step %s: %w", raw.ID, err)
	}

	*s = Step{
		ID:         raw.ID,
		Name:       raw.Name,
		Position:   raw.Position,
		Kind:       raw.Kind,
		Config:     config,
		Conditions: raw.Conditions,
	}

	return nil
}

// StepConfig is the closed set of kind-specific step configurations.
type StepConfig interface {
	isStepConfig()
}

// WaitConfig delays the journey; all units default to zero.
type WaitConfig struct {
	Days    int `json:"days,omitempty"    validate:"gte=0"`
	Hours   int `json:"hours,omitempty"   validate:"gte=0"`
	Minutes int `json:"minutes,omitempty" validate:"gte=0"`
}

// Duration returns the total delay.
func (c WaitConfig) Duration() time.Duration {
	return time.Duration(c.Days)*24*time.Hour +
		time.Duration(c.Hours)*time.Hour +
		time.Duration(c.Minutes)*time.Minute
}

type SendEmailConfig struct {
	TemplateID string `json:"template_id" validate:"required"`
}

type SendSMSConfig struct {
	Message string `json:"message" validate:"required"`
}

type CreateTaskConfig struct {
	Title       string     `json:"title"                 validate:"required"`
	Description string     `json:"description,omitempty"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	Priority    string     `json:"priority,omitempty"    validate:"omitempty,oneof=low normal high urgent"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	DueInDays   *int       `json:"due_in_days,omitempty" validate:"omitempty,gte=0"`
}

type CreateDealConfig struct {
	Title string  `json:"title,omitempty"`
	Value float64 `json:"value"           validate:"gte=0"`
	Stage string  `json:"stage"           validate:"required"`
}

type UpdateContactConfig struct {
	Fields map[string]any `json:"fields" validate:"required,min=1"`
}

// TagConfig is shared by add_tag and remove_tag.
type TagConfig struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,required"`
}

// LeadScoreAction is the arithmetic applied by update_lead_score.
type LeadScoreAction string

const (
	LeadScoreAdd      LeadScoreAction = "add"
	LeadScoreSubtract LeadScoreAction = "subtract"
	LeadScoreSet      LeadScoreAction = "set"
)

type LeadScoreConfig struct {
	Action LeadScoreAction `json:"action" validate:"required,oneof=add subtract set"`
	Points int             `json:"points" validate:"gte=0"`
}

type WebhookConfig struct {
	URL     string            `json:"url"               validate:"required,http_url_template"`
	Method  string            `json:"method,omitempty"  validate:"omitempty,oneof=GET POST PUT PATCH DELETE"`
	Headers map[string]string `json:"headers,omitempty"`
	Payload map[string]any    `json:"payload,omitempty"`
}

// ConditionConfig is the standalone check recorded by condition steps.
type ConditionConfig struct {
	Condition
}

type EndConfig struct{}

// RawConfig keeps the configuration of kinds the engine does not know.
type RawConfig map[string]any

func (WaitConfig) isStepConfig()          {}
func (SendEmailConfig) isStepConfig()     {}
func (SendSMSConfig) isStepConfig()       {}
func (CreateTaskConfig) isStepConfig()    {}
func (CreateDealConfig) isStepConfig()    {}
func (UpdateContactConfig) isStepConfig() {}
func (TagConfig) isStepConfig()           {}
func (LeadScoreConfig) isStepConfig()     {}
func (WebhookConfig) isStepConfig()       {}
func (ConditionConfig) isStepConfig()     {}
func (EndConfig) isStepConfig()           {}
func (RawConfig) isStepConfig()           {}

// DecodeStepConfig decodes raw into the configuration type of kind. Unknown
// fields are rejected for known kinds; unknown kinds decode into RawConfig.
func DecodeStepConfig(kind StepKind, raw json.RawMessage) (StepConfig, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = json.RawMessage("{}")
	}

	switch kind {
	case StepKindWait:
		return decodeStrict[WaitConfig](kind, raw)
	case StepKindSendEmail:
		return decodeStrict[SendEmailConfig](kind, raw)
	case StepKindSendSMS:
		return decodeStrict[SendSMSConfig](kind, raw)
	case StepKindCreateTask:
		return decodeStrict[CreateTaskConfig](kind, raw)
	case StepKindCreateDeal:
		return decodeStrict[CreateDealConfig](kind, raw)
	case StepKindUpdateContact:
		return decodeStrict[UpdateContactConfig](kind, raw)
	case StepKindAddTag, StepKindRemoveTag:
		return decodeStrict[TagConfig](kind, raw)
	case StepKindUpdateLeadScore:
		return decodeStrict[LeadScoreConfig](kind, raw)
	case StepKindWebhook:
		config, err := decodeStrict[WebhookConfig](kind, raw)
		if err != nil {
			return nil, err
		}

		config.Method = strings.ToUpper(config.Method)

		return config, nil
	case StepKindCondition:
		return decodeStrict[ConditionConfig](kind, raw)
	case StepKindEnd:
		return decodeStrict[EndConfig](kind, raw)
	default:
		var config RawConfig

		err := json.Unmarshal(raw, &config)
		if err != nil {
			return nil, fmt.Errorf("%w: config of %q: %w", ErrInvalidStep, kind, err)
		}

		return config, nil
	}
}

func decodeStrict[T StepConfig](kind StepKind, raw json.RawMessage) (T, error) {
	var config T

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(&config)
	if err != nil {
		return config, fmt.Errorf("%w: config of %q: %w", ErrInvalidStep, kind, err)
	}

	return config, nil
}
