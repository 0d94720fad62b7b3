// Package condition evaluates step conditions against an execution context.
package condition

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dukex/journeys/pkg/models"
)

// Result is the outcome of checking one condition.
type Result struct {
	Field    string          `json:"field"`
	Operator models.Operator `json:"operator"`
	Expected any             `json:"expected"`
	Actual   any             `json:"actual"`
	Found    bool            `json:"found"`
	Met      bool            `json:"result"`
}

// Evaluate reports whether every condition holds. A missing field fails the
// whole set; an empty set always holds.
func Evaluate(values map[string]any, conditions []models.Condition) bool {
	for _, c := range conditions {
		result := Check(values, c)
		if !result.Found || !result.Met {
			return false
		}
	}

	return true
}

// Check evaluates a single condition. It never fails: unsupported operators,
// missing fields and non-numeric operands of numeric operators evaluate to false.
func Check(values map[string]any, c models.Condition) Result {
	result := Result{
		Field:    c.Field,
		Operator: c.Operator,
		Expected: c.Value,
	}

	actual, found := Lookup(values, c.Field)
	if !found || actual == nil {
		return result
	}

	result.Actual = actual
	result.Found = true
	result.Met = compare(c.Operator, actual, c.Value)

	return result
}

// Lookup resolves field in values. Exact keys win; otherwise dotted paths
// descend into nested maps.
func Lookup(values map[string]any, field string) (any, bool) {
	if value, ok := values[field]; ok {
		return value, true
	}

	parts := strings.Split(field, ".")
	if len(parts) < 2 {
		return nil, false
	}

	var current any = values

	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func compare(operator models.Operator, actual, expected any) bool {
	switch operator {
	case models.OperatorEquals:
		return equals(actual, expected)
	case models.OperatorNotEquals:
		return !equals(actual, expected)
	case models.OperatorGreaterThan:
		a, okA := toFloat(actual)
		e, okE := toFloat(expected)

		return okA && okE && a > e
	case models.OperatorLessThan:
		a, okA := toFloat(actual)
		e, okE := toFloat(expected)

		return okA && okE && a < e
	case models.OperatorContains:
		return strings.Contains(stringify(actual), stringify(expected))
	case models.OperatorNotContains:
		return !strings.Contains(stringify(actual), stringify(expected))
	default:
		return false
	}
}

func equals(actual, expected any) bool {
	a, okA := toFloat(actual)
	e, okE := toFloat(expected)

	if okA && okE {
		return a == e
	}

	ab, okA := actual.(bool)
	eb, okE := expected.(bool)

	if okA && okE {
		return ab == eb
	}

	return stringify(actual) == stringify(expected)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)

		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item))
		}

		return strings.Join(parts, ",")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}
