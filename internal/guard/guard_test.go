package guard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railguard/railguard/internal/llm"
	"github.com/railguard/railguard/internal/rail"
)

func greetingSpec(onFail rail.OnFail) *rail.Spec {
	return &rail.Spec{
		Name:   "greeting",
		Prompt: "Greet {{who}}.",
		Output: []rail.Field{
			{
				Name: "greeting",
				Type: rail.TypeString,
				Validators: []rail.ValidatorRef{
					{Use: "lower-case", OnFail: onFail},
				},
			},
		},
	}
}

func TestNew_RejectsBadSpecs(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Options{Provider: llm.NewMock()})
	assert.Error(t, err, "nil spec")

	_, err = New(greetingSpec(rail.OnFailNoop), Options{})
	assert.Error(t, err, "nil provider")

	bad := greetingSpec(rail.OnFailNoop)
	bad.Output[0].Validators[0].Use = "no-such-validator"
	_, err = New(bad, Options{Provider: llm.NewMock()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-validator")

	mismatch := greetingSpec(rail.OnFailNoop)
	mismatch.Output[0].Type = rail.TypeInteger
	_, err = New(mismatch, Options{Provider: llm.NewMock()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not apply")

	// Specs built in code skip YAML validation, so a misspelled policy
	// must still be caught here instead of acting as noop.
	typo := greetingSpec(rail.OnFail("fliter"))
	_, err = New(typo, Options{Provider: llm.NewMock()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fliter")
}

func TestInvoke_Passes(t *testing.T) {
	t.Parallel()

	mock := llm.NewMock().Queue(`{"greeting": "hello world"}`)
	g, err := New(greetingSpec(rail.OnFailNoop), Options{Provider: mock})
	require.NoError(t, err)

	out, err := g.Invoke(context.Background(), map[string]string{"who": "world"})
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, out.Status)
	assert.Equal(t, "greeting", out.SpecName)
	assert.Equal(t, map[string]any{"greeting": "hello world"}, out.Validated)
	assert.Equal(t, `{"greeting": "hello world"}`, out.RawResponse)
	assert.Len(t, out.Attempts, 1)
	assert.NotEmpty(t, out.CallID)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Greet world.", calls[0].Prompt)
	assert.Contains(t, calls[0].Instructions, "greeting (string)")
}

func TestInvoke_NoopRecordsIssueButPasses(t *testing.T) {
	t.Parallel()

	mock := llm.NewMock().Queue(`{"greeting": "HELLO"}`)
	g, err := New(greetingSpec(rail.OnFailNoop), Options{Provider: mock})
	require.NoError(t, err)

	out, err := g.Invoke(context.Background(), map[string]string{"who": "x"})
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, out.Status)
	assert.Equal(t, map[string]any{"greeting": "HELLO"}, out.Validated)
	require.Len(t, out.Attempts, 1)
	assert.NotEmpty(t, out.Attempts[0].Issues)
}

func TestInvoke_FilterRemovesKey(t *testing.T) {
	t.Parallel()

	mock := llm.NewMock().Queue(`{"greeting": "HELLO"}`)
	g, err := New(greetingSpec(rail.OnFailFilter), Options{Provider: mock})
	require.NoError(t, err)

	out, err := g.Invoke(context.Background(), map[string]string{"who": "x"})
	require.NoError(t, err)

	assert.Equal(t, StatusFiltered, out.Status)
	assert.NotNil(t, out.Validated)
	_, present := out.Validated["greeting"]
	assert.False(t, present, "failing key should be removed")
	assert.Equal(t, `{"greeting": "HELLO"}`, out.RawResponse, "raw response survives filtering")
}

func TestInvoke_RefrainDiscardsOutput(t *testing.T) {
	t.Parallel()

	mock := llm.NewMock().Queue(`{"greeting": "HELLO"}`)
	g, err := New(greetingSpec(rail.OnFailRefrain), Options{Provider: mock})
	require.NoError(t, err)

	out, err := g.Invoke(context.Background(), map[string]string{"who": "x"})
	require.NoError(t, err)

	assert.Equal(t, StatusRefrained, out.Status)
	assert.Nil(t, out.Validated)
	assert.Equal(t, `{"greeting": "HELLO"}`, out.RawResponse)
}

func TestInvoke_FixSubstitutesValue(t *testing.T) {
	t.Parallel()

	mock := llm.NewMock().Queue(`{"greeting": "HELLO"}`)
	g, err := New(greetingSpec(rail.OnFailFix), Options{Provider: mock})
	require.NoError(t, err)

	out, err := g.Invoke(context.Background(), map[string]string{"who": "x"})
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, out.Status)
	assert.Equal(t, map[string]any{"greeting": "hello"}, out.Validated)
}

func TestInvoke_ReaskRecovers(t *testing.T) {
	t.Parallel()

	mock := llm.NewMock().
		Queue(`{"greeting": "HELLO"}`).
		Queue(`{"greeting": "hello"}`)
	g, err := New(greetingSpec(rail.OnFailReask), Options{Provider: mock, MaxReasks: 1})
	require.NoError(t, err)

	out, err := g.Invoke(context.Background(), map[string]string{"who": "x"})
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, out.Status)
	assert.Equal(t, map[string]any{"greeting": "hello"}, out.Validated)
	require.Len(t, out.Attempts, 2)

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[1].Prompt, "failed validation")
	assert.Contains(t, calls[1].Prompt, "HELLO")
	assert.Contains(t, calls[1].Prompt, "not lower case")
}

func TestInvoke_ReaskExhaustedFails(t *testing.T) {
	t.Parallel()

	mock := llm.NewMock().
		Queue(`{"greeting": "HELLO"}`).
		Queue(`{"greeting": "STILL WRONG"}`)
	g, err := New(greetingSpec(rail.OnFailReask), Options{Provider: mock, MaxReasks: 1})
	require.NoError(t, err)

	out, err := g.Invoke(context.Background(), map[string]string{"who": "x"})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Nil(t, out.Validated)
	assert.Len(t, out.Attempts, 2)
}

func TestInvoke_UnparseableOutputReasksThenFails(t *testing.T) {
	t.Parallel()

	mock := llm.NewMock().
		Queue("I am sorry, I cannot do that.").
		Queue("Still not JSON.")
	g, err := New(greetingSpec(rail.OnFailNoop), Options{Provider: mock, MaxReasks: 1})
	require.NoError(t, err)

	out, err := g.Invoke(context.Background(), map[string]string{"who": "x"})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Nil(t, out.Validated)
	require.Len(t, out.Attempts, 2)
	assert.Contains(t, out.Attempts[0].Issues[0], "not valid JSON")
}

func TestInvoke_StructuralMismatchReasks(t *testing.T) {
	t.Parallel()

	mock := llm.NewMock().
		Queue(`{"wrong_key": "hello"}`).
		Queue(`{"greeting": "hello"}`)
	g, err := New(greetingSpec(rail.OnFailNoop), Options{Provider: mock, MaxReasks: 1})
	require.NoError(t, err)

	out, err := g.Invoke(context.Background(), map[string]string{"who": "x"})
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, out.Status)
	assert.Equal(t, map[string]any{"greeting": "hello"}, out.Validated)
	require.Len(t, out.Attempts, 2)
	assert.NotEmpty(t, out.Attempts[0].Issues)
}

func TestInvoke_ProviderErrorIsAnError(t *testing.T) {
	t.Parallel()

	mock := llm.NewMock().QueueErr(errors.New("connection refused"))
	g, err := New(greetingSpec(rail.OnFailNoop), Options{Provider: mock})
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), map[string]string{"who": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestInvoke_MissingParamIsAnError(t *testing.T) {
	t.Parallel()

	g, err := New(greetingSpec(rail.OnFailNoop), Options{Provider: llm.NewMock()})
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "who")
}

func TestReaskPrompt_TruncatesLongOutput(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", maxQuotedOutputRunes+100)
	prompt := reaskPrompt([]byte(`{"type":"object"}`), long, []string{"too long"})
	assert.Contains(t, prompt, "[truncated]")
	assert.Less(t, len(prompt), len(long)+1000)
}
