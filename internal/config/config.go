// Package config provides configuration loading and management for
// railguard.
package config

// Config is the root configuration.
type Config struct {
	// Engine is the default completion engine name (e.g. "gpt-4o").
	Engine     string                  `json:"engine"               mapstructure:"engine"`
	Engines    map[string]EngineConfig `json:"engines,omitempty"    mapstructure:"engines"`
	Generation GenerationConfig        `json:"generation,omitempty" mapstructure:"generation"`
	Guard      GuardConfig             `json:"guard,omitempty"      mapstructure:"guard"`
	Embedding  EmbeddingConfig         `json:"embedding,omitempty"  mapstructure:"embedding"`
	Retention  RetentionPolicy         `json:"retention,omitempty"  mapstructure:"retention"`
}

// EngineConfig describes how to reach one provider family. Keys of
// Config.Engines are provider names ("openai", "gemini").
type EngineConfig struct {
	APIKey    string `json:"api_key,omitempty"     mapstructure:"api_key"`
	APIKeyEnv string `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	BaseURL   string `json:"base_url,omitempty"    mapstructure:"base_url"`
	Timeout   int    `json:"timeout,omitempty"     mapstructure:"timeout"`
}

// GenerationConfig holds completion defaults.
type GenerationConfig struct {
	MaxTokens   int     `json:"max_tokens,omitempty"  mapstructure:"max_tokens"`
	Temperature float64 `json:"temperature"           mapstructure:"temperature"`
}

// GuardConfig bounds guarded calls.
type GuardConfig struct {
	MaxReasks         int `json:"max_reasks,omitempty"          mapstructure:"max_reasks"`
	PromptTokenBudget int `json:"prompt_token_budget,omitempty" mapstructure:"prompt_token_budget"`
	RetryAttempts     int `json:"retry_attempts,omitempty"      mapstructure:"retry_attempts"`
}

// EmbeddingConfig selects the embedding engine for semantic validators.
type EmbeddingConfig struct {
	Engine     string `json:"engine,omitempty"      mapstructure:"engine"`
	Model      string `json:"model,omitempty"       mapstructure:"model"`
	ChunkRunes int    `json:"chunk_runes,omitempty" mapstructure:"chunk_runes"`
}

// RetentionPolicy defines how much call history to keep.
type RetentionPolicy struct {
	KeepLast int `json:"keep_last,omitempty" mapstructure:"keep_last"`
	KeepDays int `json:"keep_days,omitempty" mapstructure:"keep_days"`
}

// Defaults applied when fields are unset.
const (
	DefaultMaxTokens   = 1024
	DefaultChunkRunes  = 2000
	DefaultEmbedEngine = "openai"
)

// ApplyDefaults fills unset fields in place. A zero max_reasks is
// meaningful (no re-ask rounds) and is left alone.
func (c *Config) ApplyDefaults() {
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = DefaultMaxTokens
	}
	if c.Embedding.Engine == "" {
		c.Embedding.Engine = DefaultEmbedEngine
	}
	if c.Embedding.ChunkRunes <= 0 {
		c.Embedding.ChunkRunes = DefaultChunkRunes
	}
}
