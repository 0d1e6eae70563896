package validator

import (
	"fmt"
	"sort"

	"github.com/railguard/railguard/internal/rail"
)

// Factory builds a validator from its rail spec args and the invocation
// environment.
type Factory func(args map[string]string, env Env) (Validator, error)

type registration struct {
	factory   Factory
	dataTypes map[string]bool
}

var registry = map[string]registration{}

// Register adds a validator factory under a name, restricted to the
// given rail field types. "all" admits every type.
func Register(name string, dataTypes []string, factory Factory) {
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("validator %q registered twice", name))
	}
	types := make(map[string]bool, len(dataTypes))
	for _, dt := range dataTypes {
		types[dt] = true
	}
	registry[name] = registration{factory: factory, dataTypes: types}
}

// Names returns the registered validator names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check verifies that a validator reference is registered, applicable
// to the field type, and carries a known on-fail policy. It does not
// construct the validator, so it is safe to call at spec parse time
// without an Env. An empty on-fail means noop; specs built in code
// bypass the YAML-path defaulting, so the policy is checked here too.
func Check(fieldType string, ref rail.ValidatorRef) error {
	reg, ok := registry[ref.Use]
	if !ok {
		return fmt.Errorf("unknown validator %q", ref.Use)
	}
	if !reg.dataTypes["all"] && !reg.dataTypes[fieldType] {
		return fmt.Errorf("validator %q does not apply to type %q", ref.Use, fieldType)
	}
	if ref.OnFail != "" && !ref.OnFail.Valid() {
		return fmt.Errorf("validator %q has unknown on_fail %q", ref.Use, ref.OnFail)
	}
	return nil
}

// Bound couples a constructed validator with its on-fail policy.
type Bound struct {
	Validator Validator
	OnFail    rail.OnFail
}

// Bind constructs the validators declared on a field.
func Bind(field rail.Field, env Env) ([]Bound, error) {
	bound := make([]Bound, 0, len(field.Validators))
	for _, ref := range field.Validators {
		if err := Check(field.Type, ref); err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		v, err := registry[ref.Use].factory(ref.Args, env)
		if err != nil {
			return nil, fmt.Errorf("field %q: bind %q: %w", field.Name, ref.Use, err)
		}
		onFail := ref.OnFail
		if onFail == "" {
			onFail = rail.OnFailNoop
		}
		bound = append(bound, Bound{Validator: v, OnFail: onFail})
	}
	return bound, nil
}
