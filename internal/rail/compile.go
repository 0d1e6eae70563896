package rail

import (
	"encoding/json"
	"fmt"
	"strings"
)

// jsonTypeFor maps rail field types to JSON Schema types.
func jsonTypeFor(fieldType string) string {
	switch fieldType {
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "number"
	case TypeBool:
		return "boolean"
	case TypeList:
		return "array"
	case TypeObject:
		return "object"
	default:
		// string and url are both JSON strings on the wire.
		return "string"
	}
}

// JSONSchema compiles the spec's output contract into a draft-07 JSON
// Schema document. The schema covers structure only; field validators run
// separately after structural validation passes.
func (s *Spec) JSONSchema() (json.RawMessage, error) {
	properties := make(map[string]any, len(s.Output))
	required := make([]string, 0, len(s.Output))
	for _, f := range s.Output {
		prop := map[string]any{"type": jsonTypeFor(f.Type)}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if f.Type == TypeURL {
			prop["format"] = "uri"
		}
		properties[f.Name] = prop
		required = append(required, f.Name)
	}
	doc := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("compile output schema: %w", err)
	}
	return raw, nil
}

// Instructions renders the output contract the model is asked to honor.
// It is sent as the system/instructions message alongside the prompt.
func (s *Spec) Instructions() string {
	var b strings.Builder
	b.WriteString("Return ONLY a JSON object. No markdown fences, no commentary.\n")
	b.WriteString("The object must contain exactly these fields:\n")
	for _, f := range s.Output {
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString(" (")
		b.WriteString(f.Type)
		b.WriteString(")")
		if f.Description != "" {
			b.WriteString(": ")
			b.WriteString(f.Description)
		}
		b.WriteString("\n")
	}
	if s.Description != "" {
		b.WriteString(s.Description)
		b.WriteString("\n")
	}
	return b.String()
}
