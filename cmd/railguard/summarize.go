package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/railguard/railguard/internal/rail"
	"github.com/railguard/railguard/internal/render"
)

func summarizeSpec(threshold float64, onFail rail.OnFail) *rail.Spec {
	return &rail.Spec{
		Name:        "summary",
		Description: "Guarded document summarization.",
		Prompt: "Summarize the following document faithfully. Do not add information " +
			"that is not present in the document.\n\n{{document}}",
		Output: []rail.Field{{
			Name:        "summary",
			Type:        rail.TypeString,
			Description: "A concise summary of the document.",
			Validators: []rail.ValidatorRef{{
				Use:    "similar-to-document",
				Args:   map[string]string{"threshold": fmt.Sprintf("%g", threshold)},
				OnFail: onFail,
			}},
		}},
	}
}

func summarizeCmd() *cobra.Command {
	var (
		engine      string
		maxTokens   int
		temperature float64
		threshold   float64
		onFail      string
		plain       bool
	)
	cmd := &cobra.Command{
		Use:          "summarize <document>",
		Short:        "Summarize a document with similarity validation",
		Long:         "Summarize a text document and validate that the summary is semantically similar to it. A summary below the threshold is handled per the on-fail policy.",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := rail.OnFail(onFail)
			if !policy.Valid() {
				return fmt.Errorf("unknown --on-fail policy %q (noop, filter, refrain, fix, reask)", onFail)
			}
			document, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			storeDB, workRoot, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()
			cfg, err := loadConfig(workRoot)
			if err != nil {
				return err
			}
			if maxTokens > 0 {
				cfg.Generation.MaxTokens = maxTokens
			}
			if cmd.Flags().Changed("temperature") {
				cfg.Generation.Temperature = temperature
			}

			spec := summarizeSpec(threshold, policy)
			g, err := buildGuard(cmd.Context(), spec, cfg, engine, storeDB)
			if err != nil {
				return err
			}

			outcome, err := g.Invoke(cmd.Context(), map[string]string{
				"document": string(document),
			})
			if err != nil {
				return err
			}

			return render.Outcome(os.Stdout, outcome, plain)
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "", "completion engine (default from config)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max completion tokens (default from config)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature (default from config)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.60, "minimum cosine similarity to the document")
	cmd.Flags().StringVar(&onFail, "on-fail", string(rail.OnFailFilter), "policy when similarity fails: noop, filter, refrain, fix, reask")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable rich terminal rendering")
	return cmd
}
