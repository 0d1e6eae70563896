package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const exampleRailSpec = `name: summary
description: Guarded document summarization.
prompt: |
  Summarize the following document faithfully. Do not add information
  that is not present in the document.

  {{document}}
output:
  - name: summary
    type: string
    description: A concise summary of the document.
    validators:
      - use: similar-to-document
        args:
          threshold: "0.60"
        on_fail: filter
`

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a railguard workspace",
		Long:  "Initialize a railguard workspace by creating the .railguard directory, a default config, and an example rail spec.",
		RunE: func(cmd *cobra.Command, args []string) error {
			workRoot, err := os.Getwd()
			if err != nil {
				return err
			}

			guardDir := filepath.Join(workRoot, ".railguard")
			log.Info().Str("dir", guardDir).Msg("creating railguard directory")
			if err := os.MkdirAll(filepath.Join(guardDir, "specs"), 0o755); err != nil {
				return fmt.Errorf("create specs dir: %w", err)
			}

			configPath := filepath.Join(guardDir, "config.json")
			if _, err := os.Stat(configPath); err == nil {
				log.Info().Msg("config.json already exists, skipping")
			} else {
				log.Info().Str("path", configPath).Msg("installing default config")
				defaultConfig := map[string]any{
					"engine": "gpt-4o",
					"engines": map[string]any{
						"openai": map[string]any{"api_key_env": "OPENAI_API_KEY"},
						"gemini": map[string]any{"api_key_env": "GEMINI_API_KEY"},
					},
					"generation": map[string]any{
						"max_tokens":  1024,
						"temperature": 0.0,
					},
					"guard": map[string]any{
						"max_reasks": 1,
					},
					"embedding": map[string]any{
						"engine": "openai",
					},
					"retention": map[string]any{
						"keep_last": 200,
					},
				}
				data, err := json.MarshalIndent(defaultConfig, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal default config: %w", err)
				}
				if err := os.WriteFile(configPath, data, 0o644); err != nil {
					return fmt.Errorf("write default config: %w", err)
				}
			}

			specPath := filepath.Join(guardDir, "specs", "summary.rail.yaml")
			if _, err := os.Stat(specPath); err == nil {
				log.Info().Msg("summary.rail.yaml already exists, skipping")
			} else {
				log.Info().Str("path", specPath).Msg("installing example rail spec")
				if err := os.WriteFile(specPath, []byte(exampleRailSpec), 0o644); err != nil {
					return fmt.Errorf("write example spec: %w", err)
				}
			}

			log.Info().Msg("railguard workspace initialized")
			return nil
		},
	}
}
