// Package template renders step configuration against an execution context.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// Render executes templateStr and coerces the output: JSON objects and arrays
// are decoded, numbers become float64 and booleans bool. Anything else is
// returned as a string.
func Render(templateStr string, data any) (any, error) {
	result, err := RenderString(templateStr, data)
	if err != nil {
		return nil, err
	}

	result = strings.TrimSpace(result)
	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err == nil {
			return jsonResult, nil
		}

		return jsonResult, fmt.Errorf("failed to parse json '%s': %w", templateStr, err)
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

// RenderString executes templateStr and returns its raw output. Strings
// without actions are returned unchanged.
func RenderString(templateStr string, data any) (string, error) {
	if !NeedsTemplating(templateStr) {
		return templateStr, nil
	}

	tmpl, err := template.
		New("step").
		Funcs(funcs()).
		Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}

// RenderValue renders string leaves of value, descending into maps and slices.
func RenderValue(value any, data any) (any, error) {
	switch v := value.(type) {
	case string:
		if !NeedsTemplating(v) {
			return v, nil
		}

		return Render(v, data)
	case map[string]any:
		rendered := make(map[string]any, len(v))

		for key, item := range v {
			out, err := RenderValue(item, data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}

			rendered[key] = out
		}

		return rendered, nil
	case []any:
		rendered := make([]any, len(v))

		for i, item := range v {
			out, err := RenderValue(item, data)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}

			rendered[i] = out
		}

		return rendered, nil
	default:
		return value, nil
	}
}

// NeedsTemplating reports whether input contains template actions.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"now": func() string {
			return time.Now().UTC().Format(time.RFC3339)
		},
		"rand": func(max int) int {
			if max <= 0 {
				return 0
			}

			num := make([]byte, 1)

			_, err := rand.Read(num)
			if err != nil {
				return 0
			}

			return int(num[0]) % max
		},
		"default": func(fallback, value any) any {
			if value == nil {
				return fallback
			}

			if s, ok := value.(string); ok && s == "" {
				return fallback
			}

			return value
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}
}
