package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/railguard/railguard/internal/batch"
	"github.com/railguard/railguard/internal/guard"
	"github.com/railguard/railguard/internal/rail"
)

type guardRunner struct {
	g *guard.Guard
}

func (r *guardRunner) Run(ctx context.Context, docPath string) (*guard.Outcome, error) {
	content, err := os.ReadFile(docPath)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", docPath, err)
	}
	return r.g.Invoke(ctx, map[string]string{"document": string(content)})
}

func batchCmd() *cobra.Command {
	var (
		railPath       string
		engine         string
		threshold      float64
		continueOnFail bool
	)

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Run guarded summaries over every document in a directory",
		Long: "Processes each .txt and .md file in the directory that does not yet " +
			"have a sibling result file, writing one result JSON per document.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := batch.NewQueue(args[0])
			if err != nil {
				return err
			}

			database, workRoot, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			cfg, err := loadConfig(workRoot)
			if err != nil {
				return err
			}
			if engine == "" {
				engine = cfg.Engine
			}

			var spec *rail.Spec
			if railPath != "" {
				spec, err = rail.Load(railPath)
				if err != nil {
					return err
				}
			} else {
				spec = summarizeSpec(threshold, rail.OnFailFilter)
			}

			g, err := buildGuard(cmd.Context(), spec, cfg, engine, database)
			if err != nil {
				return err
			}

			workflow := batch.NewWorkflow(queue, &guardRunner{g: g}, continueOnFail)
			return workflow.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&railPath, "rail", "", "rail spec file (defaults to the built-in summary spec)")
	cmd.Flags().StringVar(&engine, "engine", "", "model engine override")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.60, "similarity threshold for the built-in summary spec")
	cmd.Flags().BoolVar(&continueOnFail, "continue-on-fail", true, "keep processing after a document fails")

	return cmd
}
