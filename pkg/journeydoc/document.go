// Package journeydoc reads and writes journey definitions as YAML or JSON
// documents, checking their shape against a JSON schema before decoding.
package journeydoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/journeys/pkg/models"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument indicates the document does not match the journey schema.
var ErrInvalidDocument = errors.New("invalid journey document")

// Schema is the JSON schema every journey document must satisfy. Step
// configs are checked later against the typed config of their kind.
var Schema = map[string]any{
	"type":     "object",
	"required": []any{"id", "name", "status", "steps"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string", "minLength": 1},
		"name":        map[string]any{"type": "string", "minLength": 1},
		"description": map[string]any{"type": "string"},
		"status": map[string]any{
			"type": "string",
			"enum": []any{"draft", "active", "paused", "archived"},
		},
		"steps": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "kind", "position"},
				"properties": map[string]any{
					"id":       map[string]any{"type": "string", "minLength": 1},
					"name":     map[string]any{"type": "string"},
					"kind":     map[string]any{"type": "string", "minLength": 1},
					"position": map[string]any{"type": "integer"},
					"config":   map[string]any{"type": []any{"object", "null"}},
					"conditions": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":     "object",
							"required": []any{"field", "operator"},
							"properties": map[string]any{
								"field":    map[string]any{"type": "string", "minLength": 1},
								"operator": map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
	},
}

// Decode parses a YAML or JSON document into a validated journey.
func Decode(data []byte) (*models.Journey, error) {
	var document map[string]any

	err := yaml.Unmarshal(data, &document)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if document == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}

	err = validateSchema(document)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	var journey models.Journey

	err = json.Unmarshal(raw, &journey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	err = models.ValidateJourney(&journey)
	if err != nil {
		return nil, err
	}

	return &journey, nil
}

// EncodeYAML renders journey as a YAML document readable by Decode.
func EncodeYAML(journey *models.Journey) ([]byte, error) {
	raw, err := json.Marshal(journey)
	if err != nil {
		return nil, fmt.Errorf("marshal journey %s: %w", journey.ID, err)
	}

	var document map[string]any

	err = json.Unmarshal(raw, &document)
	if err != nil {
		return nil, fmt.Errorf("marshal journey %s: %w", journey.ID, err)
	}

	return yaml.Marshal(document)
}

func validateSchema(document map[string]any) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(Schema), gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			messages = append(messages, resultErr.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(messages, "; "))
	}

	return nil
}
