package validator

import (
	"context"
	"strings"
	"testing"

	"github.com/railguard/railguard/internal/rail"
)

func mustBind(t *testing.T, use string, args map[string]string, env Env) Validator {
	t.Helper()
	field := rail.Field{
		Name:       "value",
		Type:       rail.TypeString,
		Validators: []rail.ValidatorRef{{Use: use, Args: args, OnFail: rail.OnFailNoop}},
	}
	switch use {
	case "valid-range":
		field.Type = rail.TypeFloat
	case "length":
		field.Type = rail.TypeString
	}
	bound, err := Bind(field, env)
	if err != nil {
		t.Fatalf("Bind(%s) returned error: %v", use, err)
	}
	return bound[0].Validator
}

func TestValidRange(t *testing.T) {
	t.Parallel()

	v := mustBind(t, "valid-range", map[string]string{"min": "1", "max": "10"}, Env{})
	ctx := context.Background()

	if detail, err := v.Validate(ctx, "n", float64(5), nil); err != nil || detail != nil {
		t.Fatalf("in-range value rejected: detail=%+v err=%v", detail, err)
	}

	detail, err := v.Validate(ctx, "n", float64(0), nil)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if detail == nil {
		t.Fatalf("below-min value accepted")
	}
	if detail.Fix != 1.0 {
		t.Fatalf("fix = %v, want min 1", detail.Fix)
	}

	detail, err = v.Validate(ctx, "n", float64(42), nil)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if detail == nil || detail.Fix != 10.0 {
		t.Fatalf("above-max fix = %+v, want max 10", detail)
	}
}

func TestValidRange_RequiresBound(t *testing.T) {
	t.Parallel()

	if _, err := newValidRange(nil, Env{}); err == nil {
		t.Fatalf("valid-range accepted empty args")
	}
}

func TestValidChoices(t *testing.T) {
	t.Parallel()

	v := mustBind(t, "valid-choices", map[string]string{"choices": "red, green, blue"}, Env{})
	ctx := context.Background()

	if detail, err := v.Validate(ctx, "color", "green", nil); err != nil || detail != nil {
		t.Fatalf("declared choice rejected: detail=%+v err=%v", detail, err)
	}

	detail, err := v.Validate(ctx, "color", "mauve", nil)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if detail == nil || !strings.Contains(detail.Message, "red, green, blue") {
		t.Fatalf("detail = %+v, want message listing choices", detail)
	}
}

func TestCaseValidators(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	lower := mustBind(t, "lower-case", nil, Env{})
	if detail, _ := lower.Validate(ctx, "s", "quiet", nil); detail != nil {
		t.Fatalf("lower-case rejected %q: %+v", "quiet", detail)
	}
	detail, _ := lower.Validate(ctx, "s", "Loud", nil)
	if detail == nil || detail.Fix != "loud" {
		t.Fatalf("lower-case fix = %+v, want %q", detail, "loud")
	}

	upper := mustBind(t, "upper-case", nil, Env{})
	if detail, _ := upper.Validate(ctx, "s", "LOUD", nil); detail != nil {
		t.Fatalf("upper-case rejected %q: %+v", "LOUD", detail)
	}
	detail, _ = upper.Validate(ctx, "s", "quiet", nil)
	if detail == nil || detail.Fix != "QUIET" {
		t.Fatalf("upper-case fix = %+v, want %q", detail, "QUIET")
	}
}

func TestValidLength_String(t *testing.T) {
	t.Parallel()

	v := mustBind(t, "length", map[string]string{"min": "3", "max": "5"}, Env{})
	ctx := context.Background()

	if detail, _ := v.Validate(ctx, "s", "four", nil); detail != nil {
		t.Fatalf("in-range string rejected: %+v", detail)
	}

	detail, _ := v.Validate(ctx, "s", "hi", nil)
	if detail == nil || detail.Fix != "hii" {
		t.Fatalf("short string fix = %+v, want padded %q", detail, "hii")
	}

	detail, _ = v.Validate(ctx, "s", "toolong", nil)
	if detail == nil || detail.Fix != "toolo" {
		t.Fatalf("long string fix = %+v, want truncated %q", detail, "toolo")
	}
}

func TestValidLength_List(t *testing.T) {
	t.Parallel()

	v, err := newValidLength(map[string]string{"max": "2"}, Env{})
	if err != nil {
		t.Fatalf("newValidLength returned error: %v", err)
	}
	ctx := context.Background()

	detail, _ := v.Validate(ctx, "items", []any{"a", "b", "c"}, nil)
	if detail == nil {
		t.Fatalf("over-long list accepted")
	}
	fix, ok := detail.Fix.([]any)
	if !ok || len(fix) != 2 {
		t.Fatalf("list fix = %+v, want first two items", detail.Fix)
	}
}

func TestTwoWords(t *testing.T) {
	t.Parallel()

	v := mustBind(t, "two-words", nil, Env{})
	ctx := context.Background()

	if detail, _ := v.Validate(ctx, "s", "exactly two", nil); detail != nil {
		t.Fatalf("two-word string rejected: %+v", detail)
	}

	detail, _ := v.Validate(ctx, "s", "one two three", nil)
	if detail == nil || detail.Fix != "one two" {
		t.Fatalf("fix = %+v, want first two words", detail)
	}

	detail, _ = v.Validate(ctx, "s", "solo", nil)
	if detail == nil || detail.Fix != nil {
		t.Fatalf("single word: detail=%+v, want failure with no fix", detail)
	}
}

func TestOneLine(t *testing.T) {
	t.Parallel()

	v := mustBind(t, "one-line", nil, Env{})
	ctx := context.Background()

	if detail, _ := v.Validate(ctx, "s", "single line", nil); detail != nil {
		t.Fatalf("one-line string rejected: %+v", detail)
	}
	// Trailing newline alone is not a second line.
	if detail, _ := v.Validate(ctx, "s", "single line\n", nil); detail != nil {
		t.Fatalf("trailing newline rejected: %+v", detail)
	}

	detail, _ := v.Validate(ctx, "s", "first\nsecond", nil)
	if detail == nil || detail.Fix != "first" {
		t.Fatalf("fix = %+v, want first line", detail)
	}
}
