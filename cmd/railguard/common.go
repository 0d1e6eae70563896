package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/railguard/railguard/internal/config"
	"github.com/railguard/railguard/internal/db"
	"github.com/railguard/railguard/internal/embedding"
	"github.com/railguard/railguard/internal/guard"
	"github.com/railguard/railguard/internal/llm"
	"github.com/railguard/railguard/internal/rail"
)

func openDB() (*sql.DB, string, func(), error) {
	workRoot, err := os.Getwd()
	if err != nil {
		return nil, "", func() {}, err
	}
	guardDir := filepath.Join(workRoot, ".railguard")
	if err := os.MkdirAll(guardDir, 0o755); err != nil {
		return nil, "", func() {}, err
	}
	dbPath := filepath.Join(guardDir, "railguard.db")
	storeDB, err := db.Open(dbPath)
	if err != nil {
		return nil, "", func() {}, err
	}
	return storeDB, workRoot, func() { _ = storeDB.Close() }, nil
}

func loadConfig(workRoot string) (config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = filepath.Join(".railguard", "config.json")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(workRoot, path)
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("json")
	if err := viper.ReadInConfig(); err != nil {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := config.ValidateSettings(viper.AllSettings()); err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func providerConfig(cfg config.Config, engine string) llm.Config {
	family := "openai"
	if strings.HasPrefix(strings.ToLower(engine), "gemini") {
		family = "gemini"
	}
	ec := cfg.Engines[family]
	return llm.Config{
		APIKey:    ec.APIKey,
		APIKeyEnv: ec.APIKeyEnv,
		BaseURL:   ec.BaseURL,
		Timeout:   time.Duration(ec.Timeout) * time.Second,
	}
}

// buildProvider constructs the completion provider for an engine name,
// wrapped with retries.
func buildProvider(cfg config.Config, engine string) (llm.Provider, error) {
	if engine == "" {
		engine = cfg.Engine
	}
	provider, err := llm.ForEngine(engine, providerConfig(cfg, engine))
	if err != nil {
		return nil, err
	}
	return llm.WithRetry(provider, cfg.Guard.RetryAttempts, 0), nil
}

// specNeedsEmbedder reports whether any field uses a semantic validator.
func specNeedsEmbedder(spec *rail.Spec) bool {
	for _, field := range spec.Output {
		for _, ref := range field.Validators {
			if ref.Use == "similar-to-document" {
				return true
			}
		}
	}
	return false
}

// buildGuard wires a guard from config: provider, embedder (when the
// spec needs one), and the call-history store.
func buildGuard(ctx context.Context, spec *rail.Spec, cfg config.Config, engine string, storeDB *sql.DB) (*guard.Guard, error) {
	if engine == "" {
		engine = cfg.Engine
	}
	provider, err := buildProvider(cfg, engine)
	if err != nil {
		return nil, err
	}

	opts := guard.Options{
		Provider:          provider,
		Store:             db.NewStore(storeDB),
		MaxReasks:         cfg.Guard.MaxReasks,
		MaxTokens:         cfg.Generation.MaxTokens,
		Temperature:       cfg.Generation.Temperature,
		PromptTokenBudget: cfg.Guard.PromptTokenBudget,
		TokenModel:        engine,
		ChunkRunes:        cfg.Embedding.ChunkRunes,
	}
	if specNeedsEmbedder(spec) {
		embedder, err := buildEmbedder(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts.Embedder = embedder
	}
	return guard.New(spec, opts)
}

// buildEmbedder constructs the embedding engine for semantic validators.
func buildEmbedder(ctx context.Context, cfg config.Config) (embedding.Engine, error) {
	ec := cfg.Engines[cfg.Embedding.Engine]
	apiKey := ec.APIKey
	if apiKey == "" {
		envKey := ec.APIKeyEnv
		if envKey == "" {
			switch cfg.Embedding.Engine {
			case "gemini":
				envKey = "GEMINI_API_KEY"
			default:
				envKey = "OPENAI_API_KEY"
			}
		}
		apiKey = os.Getenv(envKey)
	}
	switch cfg.Embedding.Engine {
	case "gemini":
		return embedding.NewGeminiEngine(ctx, apiKey, cfg.Embedding.Model)
	case "openai", "":
		return embedding.NewOpenAIEngine(apiKey, cfg.Embedding.Model, ec.BaseURL)
	default:
		return nil, fmt.Errorf("unknown embedding engine %q", cfg.Embedding.Engine)
	}
}
