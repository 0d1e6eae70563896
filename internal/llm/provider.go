// Package llm provides completion providers for guarded calls.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const defaultTimeout = 120 * time.Second

// Request is a single completion request.
type Request struct {
	// Instructions is the system-level message carrying the output
	// contract.
	Instructions string
	// Prompt is the user message.
	Prompt string
	// MaxTokens caps the completion length. Zero means the provider
	// default.
	MaxTokens int
	// Temperature controls sampling. Guarded calls default to 0.
	Temperature float64
}

// Response is a completion result.
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Provider executes completion requests against a hosted model API.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Config describes how to reach one provider.
type Config struct {
	Model     string
	APIKey    string
	APIKeyEnv string
	BaseURL   string
	Timeout   time.Duration
}

// ForEngine routes an engine name to a provider. OpenAI model families
// ("gpt-*" and the "o<digit>" reasoning models) go to the OpenAI
// client, "gemini-*" to Gemini.
func ForEngine(engine string, cfg Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(engine))
	switch {
	case name == "":
		return nil, fmt.Errorf("engine name is required")
	case strings.HasPrefix(name, "gemini"):
		return NewGemini(cfg.withModel(engine))
	case strings.HasPrefix(name, "gpt") || isReasoningModel(name):
		return NewOpenAI(cfg.withModel(engine))
	default:
		return nil, fmt.Errorf("no provider for engine %q", engine)
	}
}

// isReasoningModel matches "o1", "o3-mini" and the like without
// capturing every engine that merely starts with "o".
func isReasoningModel(name string) bool {
	return len(name) >= 2 && name[0] == 'o' && name[1] >= '0' && name[1] <= '9'
}

func (c Config) withModel(model string) Config {
	c.Model = model
	return c
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}
