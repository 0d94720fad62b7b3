package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidJourney indicates a journey definition failed validation.
	ErrInvalidJourney = errors.New("invalid journey")

	// ErrInvalidStep indicates a step definition failed validation.
	ErrInvalidStep = errors.New("invalid step")
)

var (
	validate = newValidator()
	// urls checks values outside struct validation, see ValidateHTTPURL.
	urls = validator.New()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("http_url_template", httpURLTemplate)

	return v
}

// httpURLTemplate accepts an http(s) URL, or any value containing template
// actions; those are checked once rendered.
func httpURLTemplate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.Contains(value, "{{") {
		return true
	}

	return ValidateHTTPURL(value) == nil
}

// ValidateHTTPURL reports whether value is an absolute http or https URL.
func ValidateHTTPURL(value string) error {
	err := urls.Var(value, "required,http_url")
	if err != nil {
		return fmt.Errorf("%q is not an http url: %w", value, err)
	}

	return nil
}

// ValidateJourney checks the journey, each step and each known step config.
// Steps of unknown kinds are accepted; see UnknownStepKinds.
func ValidateJourney(journey *Journey) error {
	if journey == nil {
		return fmt.Errorf("%w: journey is nil", ErrInvalidJourney)
	}

	err := validate.Struct(journey)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidJourney, journey.ID, err)
	}

	seenIDs := make(map[string]bool, len(journey.Steps))
	seenPositions := make(map[int]string, len(journey.Steps))

	for _, step := range journey.Steps {
		if seenIDs[step.ID] {
			return fmt.Errorf("%w %s: duplicate step id %q", ErrInvalidJourney, journey.ID, step.ID)
		}

		seenIDs[step.ID] = true

		if other, ok := seenPositions[step.Position]; ok {
			return fmt.Errorf("%w %s: steps %q and %q share position %d", ErrInvalidJourney, journey.ID, other, step.ID, step.Position)
		}

		seenPositions[step.Position] = step.ID

		err := ValidateStep(step)
		if err != nil {
			return fmt.Errorf("%w %s: %w", ErrInvalidJourney, journey.ID, err)
		}
	}

	return nil
}

// ValidateStep validates a single step and its configuration.
func ValidateStep(step *Step) error {
	err := validate.Struct(step)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidStep, step.ID, err)
	}

	if !step.Kind.IsKnown() {
		return nil
	}

	if step.Config == nil {
		config, err := DecodeStepConfig(step.Kind, nil)
		if err != nil {
			return err
		}

		step.Config = config
	}

	if !configMatchesKind(step.Kind, step.Config) {
		return fmt.Errorf("%w %s: config %T does not match kind %q", ErrInvalidStep, step.ID, step.Config, step.Kind)
	}

	err = validate.Struct(step.Config)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidStep, step.ID, err)
	}

	return nil
}

// UnknownStepKinds returns the ids of steps whose kind the engine cannot dispatch.
func UnknownStepKinds(journey *Journey) []string {
	var ids []string

	for _, step := range journey.Steps {
		if !step.Kind.IsKnown() {
			ids = append(ids, step.ID)
		}
	}

	return ids
}

func configMatchesKind(kind StepKind, config StepConfig) bool {
	switch config.(type) {
	case WaitConfig:
		return kind == StepKindWait
	case SendEmailConfig:
		return kind == StepKindSendEmail
	case SendSMSConfig:
		return kind == StepKindSendSMS
	case CreateTaskConfig:
		return kind == StepKindCreateTask
	case CreateDealConfig:
		return kind == StepKindCreateDeal
	case UpdateContactConfig:
		return kind == StepKindUpdateContact
	case TagConfig:
		return kind == StepKindAddTag || kind == StepKindRemoveTag
	case LeadScoreConfig:
		return kind == StepKindUpdateLeadScore
	case WebhookConfig:
		return kind == StepKindWebhook
	case ConditionConfig:
		return kind == StepKindCondition
	case EndConfig:
		return kind == StepKindEnd
	default:
		return false
	}
}
