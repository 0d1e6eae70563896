package validator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/railguard/railguard/internal/rail"
)

func init() {
	Register("valid-range", []string{rail.TypeInteger, rail.TypeFloat}, newValidRange)
	Register("valid-choices", []string{"all"}, newValidChoices)
	Register("lower-case", []string{rail.TypeString}, newLowerCase)
	Register("upper-case", []string{rail.TypeString}, newUpperCase)
	Register("length", []string{rail.TypeString, rail.TypeList}, newValidLength)
	Register("two-words", []string{rail.TypeString}, newTwoWords)
	Register("one-line", []string{rail.TypeString}, newOneLine)
	Register("valid-url", []string{rail.TypeString, rail.TypeURL}, newValidURL)
	Register("similar-to-document", []string{rail.TypeString}, newSimilarToDocument)
}

func parseFloatArg(args map[string]string, name string) (float64, bool, error) {
	raw, ok := args[name]
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("arg %q: %w", name, err)
	}
	return value, true, nil
}

func parseIntArg(args map[string]string, name string) (int, bool, error) {
	raw, ok := args[name]
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("arg %q: %w", name, err)
	}
	return value, true, nil
}

func asString(value any) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// validRange rejects numbers outside [min, max].
type validRange struct {
	min, max       float64
	hasMin, hasMax bool
}

func newValidRange(args map[string]string, _ Env) (Validator, error) {
	v := &validRange{}
	var err error
	if v.min, v.hasMin, err = parseFloatArg(args, "min"); err != nil {
		return nil, err
	}
	if v.max, v.hasMax, err = parseFloatArg(args, "max"); err != nil {
		return nil, err
	}
	if !v.hasMin && !v.hasMax {
		return nil, fmt.Errorf("valid-range requires min or max")
	}
	return v, nil
}

func (v *validRange) Name() string { return "valid-range" }

func (v *validRange) Validate(_ context.Context, key string, value any, _ map[string]any) (*FailDetail, error) {
	n, ok := asNumber(value)
	if !ok {
		return &FailDetail{Key: key, Value: value, Message: fmt.Sprintf("value %v is not numeric", value)}, nil
	}
	if v.hasMin && n < v.min {
		return &FailDetail{
			Key:     key,
			Value:   value,
			Message: fmt.Sprintf("value %v is less than %v", n, v.min),
			Fix:     v.min,
		}, nil
	}
	if v.hasMax && n > v.max {
		return &FailDetail{
			Key:     key,
			Value:   value,
			Message: fmt.Sprintf("value %v is greater than %v", n, v.max),
			Fix:     v.max,
		}, nil
	}
	return nil, nil
}

// validChoices rejects values outside a declared set.
type validChoices struct {
	choices []string
}

func newValidChoices(args map[string]string, _ Env) (Validator, error) {
	raw := strings.TrimSpace(args["choices"])
	if raw == "" {
		return nil, fmt.Errorf("valid-choices requires choices")
	}
	parts := strings.Split(raw, ",")
	choices := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			choices = append(choices, p)
		}
	}
	return &validChoices{choices: choices}, nil
}

func (v *validChoices) Name() string { return "valid-choices" }

func (v *validChoices) Validate(_ context.Context, key string, value any, _ map[string]any) (*FailDetail, error) {
	rendered := fmt.Sprintf("%v", value)
	for _, choice := range v.choices {
		if rendered == choice {
			return nil, nil
		}
	}
	return &FailDetail{
		Key:     key,
		Value:   value,
		Message: fmt.Sprintf("value %v is not one of %s", value, strings.Join(v.choices, ", ")),
	}, nil
}

// lowerCase rejects strings that are not entirely lower case.
type lowerCase struct{}

func newLowerCase(map[string]string, Env) (Validator, error) { return lowerCase{}, nil }

func (lowerCase) Name() string { return "lower-case" }

func (lowerCase) Validate(_ context.Context, key string, value any, _ map[string]any) (*FailDetail, error) {
	s, ok := asString(value)
	if !ok {
		return &FailDetail{Key: key, Value: value, Message: "value is not a string"}, nil
	}
	if strings.ToLower(s) != s {
		return &FailDetail{
			Key:     key,
			Value:   value,
			Message: fmt.Sprintf("value %q is not lower case", s),
			Fix:     strings.ToLower(s),
		}, nil
	}
	return nil, nil
}

// upperCase rejects strings that are not entirely upper case.
type upperCase struct{}

func newUpperCase(map[string]string, Env) (Validator, error) { return upperCase{}, nil }

func (upperCase) Name() string { return "upper-case" }

func (upperCase) Validate(_ context.Context, key string, value any, _ map[string]any) (*FailDetail, error) {
	s, ok := asString(value)
	if !ok {
		return &FailDetail{Key: key, Value: value, Message: "value is not a string"}, nil
	}
	if strings.ToUpper(s) != s {
		return &FailDetail{
			Key:     key,
			Value:   value,
			Message: fmt.Sprintf("value %q is not upper case", s),
			Fix:     strings.ToUpper(s),
		}, nil
	}
	return nil, nil
}

// validLength rejects strings and lists outside a length range. The fix
// pads a short string by repeating its last character and truncates a
// long one.
type validLength struct {
	min, max       int
	hasMin, hasMax bool
}

func newValidLength(args map[string]string, _ Env) (Validator, error) {
	v := &validLength{}
	var err error
	if v.min, v.hasMin, err = parseIntArg(args, "min"); err != nil {
		return nil, err
	}
	if v.max, v.hasMax, err = parseIntArg(args, "max"); err != nil {
		return nil, err
	}
	if !v.hasMin && !v.hasMax {
		return nil, fmt.Errorf("length requires min or max")
	}
	return v, nil
}

func (v *validLength) Name() string { return "length" }

func (v *validLength) Validate(_ context.Context, key string, value any, _ map[string]any) (*FailDetail, error) {
	switch val := value.(type) {
	case string:
		runes := []rune(val)
		if v.hasMin && len(runes) < v.min {
			fix := val
			if len(runes) > 0 {
				fix += strings.Repeat(string(runes[len(runes)-1]), v.min-len(runes))
			}
			return &FailDetail{
				Key:     key,
				Value:   value,
				Message: fmt.Sprintf("value has length %d, shorter than %d", len(runes), v.min),
				Fix:     fix,
			}, nil
		}
		if v.hasMax && len(runes) > v.max {
			return &FailDetail{
				Key:     key,
				Value:   value,
				Message: fmt.Sprintf("value has length %d, longer than %d", len(runes), v.max),
				Fix:     string(runes[:v.max]),
			}, nil
		}
	case []any:
		if v.hasMin && len(val) < v.min {
			return &FailDetail{
				Key:     key,
				Value:   value,
				Message: fmt.Sprintf("list has %d items, fewer than %d", len(val), v.min),
			}, nil
		}
		if v.hasMax && len(val) > v.max {
			return &FailDetail{
				Key:     key,
				Value:   value,
				Message: fmt.Sprintf("list has %d items, more than %d", len(val), v.max),
				Fix:     val[:v.max],
			}, nil
		}
	default:
		return &FailDetail{Key: key, Value: value, Message: "value has no length"}, nil
	}
	return nil, nil
}

// twoWords rejects strings that are not exactly two words.
type twoWords struct{}

func newTwoWords(map[string]string, Env) (Validator, error) { return twoWords{}, nil }

func (twoWords) Name() string { return "two-words" }

func (twoWords) Validate(_ context.Context, key string, value any, _ map[string]any) (*FailDetail, error) {
	s, ok := asString(value)
	if !ok {
		return &FailDetail{Key: key, Value: value, Message: "value is not a string"}, nil
	}
	words := strings.Fields(s)
	if len(words) == 2 {
		return nil, nil
	}
	detail := &FailDetail{
		Key:     key,
		Value:   value,
		Message: "must be exactly two words",
	}
	if len(words) > 2 {
		detail.Fix = strings.Join(words[:2], " ")
	}
	return detail, nil
}

// oneLine rejects strings spanning more than one line.
type oneLine struct{}

func newOneLine(map[string]string, Env) (Validator, error) { return oneLine{}, nil }

func (oneLine) Name() string { return "one-line" }

func (oneLine) Validate(_ context.Context, key string, value any, _ map[string]any) (*FailDetail, error) {
	s, ok := asString(value)
	if !ok {
		return &FailDetail{Key: key, Value: value, Message: "value is not a string"}, nil
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= 1 {
		return nil, nil
	}
	return &FailDetail{
		Key:     key,
		Value:   value,
		Message: fmt.Sprintf("value spans %d lines, expected one", len(lines)),
		Fix:     lines[0],
	}, nil
}
