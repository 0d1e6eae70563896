// Package rail defines output schema specs for guarded LLM calls.
//
// A rail spec declares the fields an LLM response must contain, the
// validators attached to each field, and the prompt template the call is
// made with. Specs are written in YAML and compiled into LLM instructions
// plus a JSON Schema used for structural validation of the raw output.
package rail

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// OnFail selects what the guard does when a validator rejects a value.
type OnFail string

const (
	// OnFailNoop records the failure and keeps the value.
	OnFailNoop OnFail = "noop"
	// OnFailFilter removes the offending key from the output.
	OnFailFilter OnFail = "filter"
	// OnFailRefrain discards the entire output.
	OnFailRefrain OnFail = "refrain"
	// OnFailFix substitutes the validator's proposed correction.
	OnFailFix OnFail = "fix"
	// OnFailReask asks the model again, quoting the validation issues.
	OnFailReask OnFail = "reask"
)

var onFailValues = map[OnFail]bool{
	OnFailNoop:    true,
	OnFailFilter:  true,
	OnFailRefrain: true,
	OnFailFix:     true,
	OnFailReask:   true,
}

// Valid reports whether o names a known on-fail policy.
func (o OnFail) Valid() bool {
	return onFailValues[o]
}

// Field data types a spec may declare.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeBool    = "bool"
	TypeList    = "list"
	TypeObject  = "object"
	TypeURL     = "url"
)

var fieldTypes = map[string]bool{
	TypeString:  true,
	TypeInteger: true,
	TypeFloat:   true,
	TypeBool:    true,
	TypeList:    true,
	TypeObject:  true,
	TypeURL:     true,
}

// ValidatorRef attaches a named validator to a field.
type ValidatorRef struct {
	Use    string            `yaml:"use"`
	Args   map[string]string `yaml:"args,omitempty"`
	OnFail OnFail            `yaml:"on_fail,omitempty"`
}

// Field declares a single key of the expected output object.
type Field struct {
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Description string         `yaml:"description,omitempty"`
	Validators  []ValidatorRef `yaml:"validators,omitempty"`
}

// Spec is a parsed rail document.
type Spec struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Prompt      string  `yaml:"prompt"`
	Output      []Field `yaml:"output"`
}

// Parse reads a rail spec from YAML.
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse rail spec: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Load reads a rail spec from a file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rail spec: %w", err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

func (s *Spec) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("rail spec requires a name")
	}
	if strings.TrimSpace(s.Prompt) == "" {
		return fmt.Errorf("rail spec %q requires a prompt", s.Name)
	}
	if len(s.Output) == 0 {
		return fmt.Errorf("rail spec %q declares no output fields", s.Name)
	}
	seen := make(map[string]bool, len(s.Output))
	for i := range s.Output {
		f := &s.Output[i]
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("rail spec %q: output field %d has no name", s.Name, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("rail spec %q: duplicate output field %q", s.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Type == "" {
			f.Type = TypeString
		}
		if !fieldTypes[f.Type] {
			return fmt.Errorf("rail spec %q: field %q has unknown type %q", s.Name, f.Name, f.Type)
		}
		for j := range f.Validators {
			v := &f.Validators[j]
			if strings.TrimSpace(v.Use) == "" {
				return fmt.Errorf("rail spec %q: field %q validator %d has no name", s.Name, f.Name, j)
			}
			if v.OnFail == "" {
				v.OnFail = OnFailNoop
			}
			if !onFailValues[v.OnFail] {
				return fmt.Errorf("rail spec %q: field %q validator %q has unknown on_fail %q",
					s.Name, f.Name, v.Use, v.OnFail)
			}
		}
	}
	return nil
}

// Field returns the declared field with the given name, or nil.
func (s *Spec) Field(name string) *Field {
	for i := range s.Output {
		if s.Output[i].Name == name {
			return &s.Output[i]
		}
	}
	return nil
}

// FillPrompt substitutes {{param}} placeholders in the prompt template.
// Every placeholder must have a value; unused params are ignored. The
// template is walked once, so braces inside a param value pass through
// untouched.
func (s *Spec) FillPrompt(params map[string]string) (string, error) {
	var filled strings.Builder
	rest := s.Prompt
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			break
		}
		name := rest[start+2 : start+2+end]
		value, ok := params[name]
		if !ok {
			return "", fmt.Errorf("prompt param %q has no value", name)
		}
		filled.WriteString(rest[:start])
		filled.WriteString(value)
		rest = rest[start+2+end+2:]
	}
	filled.WriteString(rest)
	return filled.String(), nil
}
