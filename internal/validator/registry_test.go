package validator

import (
	"strings"
	"testing"

	"github.com/railguard/railguard/internal/rail"
)

func TestNames_IncludesBuiltins(t *testing.T) {
	t.Parallel()

	names := Names()
	want := []string{
		"length", "lower-case", "one-line", "similar-to-document",
		"two-words", "upper-case", "valid-choices", "valid-range", "valid-url",
	}
	got := strings.Join(names, ",")
	for _, name := range want {
		if !strings.Contains(got, name) {
			t.Fatalf("Names() = %v, missing %q", names, name)
		}
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	if err := Check(rail.TypeString, rail.ValidatorRef{Use: "lower-case"}); err != nil {
		t.Fatalf("lower-case on string rejected: %v", err)
	}
	if err := Check(rail.TypeInteger, rail.ValidatorRef{Use: "lower-case"}); err == nil {
		t.Fatalf("lower-case on integer accepted")
	}
	if err := Check(rail.TypeInteger, rail.ValidatorRef{Use: "valid-choices"}); err != nil {
		t.Fatalf("all-types validator rejected: %v", err)
	}
	if err := Check(rail.TypeString, rail.ValidatorRef{Use: "no-such-validator"}); err == nil {
		t.Fatalf("unknown validator accepted")
	}
	if err := Check(rail.TypeString, rail.ValidatorRef{Use: "lower-case", OnFail: "fliter"}); err == nil {
		t.Fatalf("unknown on_fail policy accepted")
	}
}

func TestBind_PropagatesFactoryError(t *testing.T) {
	t.Parallel()

	field := rail.Field{
		Name: "n",
		Type: rail.TypeFloat,
		Validators: []rail.ValidatorRef{
			{Use: "valid-range", Args: map[string]string{"min": "x"}, OnFail: rail.OnFailNoop},
		},
	}
	_, err := Bind(field, Env{})
	if err == nil {
		t.Fatalf("Bind accepted malformed validator args")
	}
	if !strings.Contains(err.Error(), `field "n"`) {
		t.Fatalf("error = %q, want it to name the field", err)
	}
}

func TestBind_DefaultsEmptyOnFailToNoop(t *testing.T) {
	t.Parallel()

	field := rail.Field{
		Name:       "s",
		Type:       rail.TypeString,
		Validators: []rail.ValidatorRef{{Use: "lower-case"}},
	}
	bound, err := Bind(field, Env{})
	if err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if bound[0].OnFail != rail.OnFailNoop {
		t.Fatalf("on_fail = %q, want noop", bound[0].OnFail)
	}
}

func TestBind_PreservesOnFail(t *testing.T) {
	t.Parallel()

	field := rail.Field{
		Name: "s",
		Type: rail.TypeString,
		Validators: []rail.ValidatorRef{
			{Use: "lower-case", OnFail: rail.OnFailFix},
			{Use: "one-line", OnFail: rail.OnFailReask},
		},
	}
	bound, err := Bind(field, Env{})
	if err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if len(bound) != 2 {
		t.Fatalf("bound = %d validators, want 2", len(bound))
	}
	if bound[0].OnFail != rail.OnFailFix || bound[1].OnFail != rail.OnFailReask {
		t.Fatalf("on_fail order = %q, %q", bound[0].OnFail, bound[1].OnFail)
	}
}
