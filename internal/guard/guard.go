// Package guard implements the guarded LLM call engine: prompt
// compilation, completion, output parsing, structural and field
// validation, and bounded re-ask rounds.
package guard

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/railguard/railguard/internal/db"
	"github.com/railguard/railguard/internal/embedding"
	"github.com/railguard/railguard/internal/llm"
	"github.com/railguard/railguard/internal/rail"
	"github.com/railguard/railguard/internal/validator"
)

// Outcome statuses.
const (
	// StatusPassed means every field validated (fixes count as passing).
	StatusPassed = "passed"
	// StatusFiltered means at least one failing key was removed.
	StatusFiltered = "filtered"
	// StatusRefrained means the whole output was discarded.
	StatusRefrained = "refrained"
	// StatusFailed means re-asks were exhausted or the output never
	// parsed.
	StatusFailed = "failed"
)

// Options configure a Guard.
type Options struct {
	Provider llm.Provider
	// Embedder backs semantic validators. Optional when the spec
	// declares none.
	Embedder embedding.Engine
	// Store records call history. Optional.
	Store *db.Store
	// MaxReasks bounds re-ask rounds after the initial attempt.
	MaxReasks int
	// MaxTokens and Temperature are passed through to the provider.
	MaxTokens   int
	Temperature float64
	// PromptTokenBudget truncates the filled prompt when positive.
	// TokenModel selects the encoding used for the budget.
	PromptTokenBudget int
	TokenModel        string
	// HTTPClient is handed to network-probing validators.
	HTTPClient *http.Client
	// ChunkRunes caps document chunk size for semantic validators.
	ChunkRunes int
}

// Guard binds a rail spec to a provider and validates every response
// against it.
type Guard struct {
	spec   *rail.Spec
	opts   Options
	schema json.RawMessage
	loader *gojsonschema.Schema
}

// New compiles the spec and verifies its validator references. Unknown
// validators or type mismatches fail here, not at invoke time.
func New(spec *rail.Spec, opts Options) (*Guard, error) {
	if spec == nil {
		return nil, fmt.Errorf("rail spec is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("completion provider is required")
	}
	for _, field := range spec.Output {
		for _, ref := range field.Validators {
			if err := validator.Check(field.Type, ref); err != nil {
				return nil, fmt.Errorf("rail spec %q: field %q: %w", spec.Name, field.Name, err)
			}
		}
	}
	schema, err := spec.JSONSchema()
	if err != nil {
		return nil, err
	}
	loader, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile output schema: %w", err)
	}
	return &Guard{spec: spec, opts: opts, schema: schema, loader: loader}, nil
}

// Attempt records one round of a guarded call.
type Attempt struct {
	Index  int
	Prompt string
	Raw    string
	Issues []string
}

// Outcome is the result of a guarded call: the raw response paired with
// the validated output, which is nil when the guard refrained or the
// output never parsed.
type Outcome struct {
	CallID      string
	SpecName    string
	Status      string
	RawResponse string
	Validated   map[string]any
	Attempts    []Attempt
}

// Invoke runs the guarded call. Validation failures are reported in the
// Outcome, not as errors; errors mean the call itself could not be made.
func (g *Guard) Invoke(ctx context.Context, params map[string]string) (*Outcome, error) {
	prompt, err := g.spec.FillPrompt(params)
	if err != nil {
		return nil, err
	}
	if g.opts.PromptTokenBudget > 0 {
		prompt, err = llm.TruncateTokens(g.opts.TokenModel, prompt, g.opts.PromptTokenBudget)
		if err != nil {
			return nil, err
		}
	}

	bound, err := g.bindValidators(params)
	if err != nil {
		return nil, err
	}

	callID, err := newCallID()
	if err != nil {
		return nil, err
	}
	outcome := &Outcome{CallID: callID, SpecName: g.spec.Name}
	g.recordStart(ctx, callID)

	instructions := g.spec.Instructions()
	current := prompt
	for attemptIdx := 0; attemptIdx <= g.opts.MaxReasks; attemptIdx++ {
		startedAt := time.Now().UTC()
		resp, err := g.opts.Provider.Complete(ctx, llm.Request{
			Instructions: instructions,
			Prompt:       current,
			MaxTokens:    g.opts.MaxTokens,
			Temperature:  g.opts.Temperature,
		})
		if err != nil {
			g.recordFinish(ctx, outcome, "error")
			return nil, fmt.Errorf("guarded call %s: %w", callID, err)
		}

		attempt := Attempt{Index: attemptIdx, Prompt: current, Raw: resp.Text}
		outcome.RawResponse = resp.Text

		result, infraErr := g.validateAttempt(ctx, resp.Text, bound, &attempt)
		outcome.Attempts = append(outcome.Attempts, attempt)
		g.recordAttempt(ctx, callID, attempt, startedAt)
		if infraErr != nil {
			g.recordFinish(ctx, outcome, "error")
			return nil, fmt.Errorf("guarded call %s: %w", callID, infraErr)
		}

		if result.refrained {
			outcome.Status = StatusRefrained
			outcome.Validated = nil
			g.recordFinish(ctx, outcome, outcome.Status)
			return outcome, nil
		}
		if result.needsReask && attemptIdx < g.opts.MaxReasks {
			log.Debug().Str("call_id", callID).Int("attempt", attemptIdx+1).
				Strs("issues", attempt.Issues).Msg("re-asking model")
			current = reaskPrompt(g.schema, resp.Text, attempt.Issues)
			continue
		}

		switch {
		case result.needsReask || !result.parsed:
			outcome.Status = StatusFailed
			outcome.Validated = nil
		case result.filtered:
			outcome.Status = StatusFiltered
			outcome.Validated = result.output
		default:
			outcome.Status = StatusPassed
			outcome.Validated = result.output
		}
		g.recordFinish(ctx, outcome, outcome.Status)
		return outcome, nil
	}

	// Unreachable: the loop always returns on its last iteration.
	outcome.Status = StatusFailed
	return outcome, nil
}

func (g *Guard) bindValidators(params map[string]string) (map[string][]validator.Bound, error) {
	env := validator.Env{
		Embedder:   g.opts.Embedder,
		Params:     params,
		HTTPClient: g.opts.HTTPClient,
		ChunkRunes: g.opts.ChunkRunes,
	}
	bound := make(map[string][]validator.Bound, len(g.spec.Output))
	for _, field := range g.spec.Output {
		if len(field.Validators) == 0 {
			continue
		}
		fieldBound, err := validator.Bind(field, env)
		if err != nil {
			return nil, fmt.Errorf("rail spec %q: %w", g.spec.Name, err)
		}
		bound[field.Name] = fieldBound
	}
	return bound, nil
}

type attemptResult struct {
	parsed     bool
	output     map[string]any
	needsReask bool
	filtered   bool
	refrained  bool
}

func (g *Guard) validateAttempt(ctx context.Context, raw string, bound map[string][]validator.Bound, attempt *Attempt) (attemptResult, error) {
	parsed, ok := ExtractJSON(raw)
	if !ok {
		attempt.Issues = append(attempt.Issues, "output is not valid JSON")
		return attemptResult{needsReask: true}, nil
	}

	structural, err := g.loader.Validate(gojsonschema.NewBytesLoader(parsed))
	if err != nil {
		return attemptResult{}, fmt.Errorf("structural validation: %w", err)
	}
	if !structural.Valid() {
		for _, issue := range structural.Errors() {
			attempt.Issues = append(attempt.Issues, issue.String())
		}
		return attemptResult{parsed: true, needsReask: true}, nil
	}

	var output map[string]any
	if err := json.Unmarshal(parsed, &output); err != nil {
		return attemptResult{}, fmt.Errorf("decode output: %w", err)
	}

	result := attemptResult{parsed: true, output: output}
	for _, field := range g.spec.Output {
		value, present := output[field.Name]
		if !present {
			continue
		}
		removed := false
		for _, b := range bound[field.Name] {
			detail, err := b.Validator.Validate(ctx, field.Name, value, output)
			if err != nil {
				return attemptResult{}, fmt.Errorf("validator %s on %q: %w", b.Validator.Name(), field.Name, err)
			}
			if detail == nil {
				continue
			}
			attempt.Issues = append(attempt.Issues, fmt.Sprintf("%s: %s", field.Name, detail.Message))

			switch b.OnFail {
			case rail.OnFailNoop:
				// Recorded, value kept.
			case rail.OnFailFix:
				if detail.Fix != nil {
					output[field.Name] = detail.Fix
					value = detail.Fix
				}
			case rail.OnFailFilter:
				delete(output, field.Name)
				result.filtered = true
				removed = true
			case rail.OnFailRefrain:
				result.refrained = true
				return result, nil
			case rail.OnFailReask:
				result.needsReask = true
			}
			if removed {
				break
			}
		}
	}
	return result, nil
}

func (g *Guard) recordStart(ctx context.Context, callID string) {
	if g.opts.Store == nil {
		return
	}
	if err := g.opts.Store.CreateCall(ctx, callID, g.spec.Name, g.opts.Provider.Name()); err != nil {
		log.Warn().Err(err).Str("call_id", callID).Msg("failed to record call start")
	}
}

func (g *Guard) recordAttempt(ctx context.Context, callID string, attempt Attempt, startedAt time.Time) {
	if g.opts.Store == nil {
		return
	}
	issuesJSON := ""
	if len(attempt.Issues) > 0 {
		if data, err := json.Marshal(attempt.Issues); err == nil {
			issuesJSON = string(data)
		}
	}
	record := db.AttemptRecord{
		CallID:       callID,
		AttemptIndex: attempt.Index,
		StartedAt:    startedAt.Format(time.RFC3339),
		Prompt:       attempt.Prompt,
		RawOutput:    attempt.Raw,
		IssuesJSON:   issuesJSON,
	}
	if err := g.opts.Store.RecordAttempt(ctx, record, nil); err != nil {
		log.Warn().Err(err).Str("call_id", callID).Msg("failed to record attempt")
	}
}

func (g *Guard) recordFinish(ctx context.Context, outcome *Outcome, status string) {
	if g.opts.Store == nil {
		return
	}
	validatedJSON := ""
	if outcome.Validated != nil {
		if data, err := json.Marshal(outcome.Validated); err == nil {
			validatedJSON = string(data)
		}
	}
	if err := g.opts.Store.FinishCall(ctx, outcome.CallID, status, outcome.RawResponse, validatedJSON); err != nil {
		log.Warn().Err(err).Str("call_id", outcome.CallID).Msg("failed to record call finish")
	}
}

func newCallID() (string, error) {
	suffix, err := randomHex(3)
	if err != nil {
		return "", err
	}
	ts := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("%s-%s", ts, suffix), nil
}

func randomHex(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate call id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
