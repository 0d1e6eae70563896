// Package validator implements the field validator registry and the
// builtin validators applied to guarded LLM outputs.
package validator

import (
	"context"
	"net/http"

	"github.com/railguard/railguard/internal/embedding"
)

// FailDetail describes a rejected value. A nil FailDetail from Validate
// means the value passed.
type FailDetail struct {
	// Key is the output field the value belongs to.
	Key string
	// Value is the rejected value.
	Value any
	// Message explains the rejection; it is quoted back to the model on
	// re-ask rounds.
	Message string
	// Fix is a proposed replacement value, or nil when no correction is
	// available.
	Fix any
}

// Validator checks a single output value. Implementations return a
// FailDetail when the value is rejected and an error only for
// infrastructure failures (network, embedding API, ...).
type Validator interface {
	Name() string
	Validate(ctx context.Context, key string, value any, output map[string]any) (*FailDetail, error)
}

// Env supplies runtime dependencies to validator factories. Binding
// happens per guard invocation, so Params always reflect the current
// prompt parameters.
type Env struct {
	// Embedder is required by semantic validators.
	Embedder embedding.Engine
	// Params are the prompt parameters of the current invocation.
	Params map[string]string
	// HTTPClient is used by validators that probe the network. A nil
	// client means http.DefaultClient.
	HTTPClient *http.Client
	// ChunkRunes caps document chunk size for embedding. Zero means the
	// engine default.
	ChunkRunes int
}

func (e Env) httpClient() *http.Client {
	if e.HTTPClient != nil {
		return e.HTTPClient
	}
	return http.DefaultClient
}
