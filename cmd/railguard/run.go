package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/railguard/railguard/internal/rail"
	"github.com/railguard/railguard/internal/render"
)

func runCmd() *cobra.Command {
	var (
		railPath string
		params   []string
		files    []string
		engine   string
		plain    bool
	)
	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Run a guarded call against a rail spec",
		Long:         "Run a guarded call: compile the rail spec's prompt with the given params, call the model, and validate the output.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := rail.Load(railPath)
			if err != nil {
				return err
			}

			promptParams := make(map[string]string, len(params)+len(files))
			for _, p := range params {
				key, value, ok := strings.Cut(p, "=")
				if !ok {
					return fmt.Errorf("invalid --param %q, want key=value", p)
				}
				promptParams[key] = value
			}
			for _, p := range files {
				key, path, ok := strings.Cut(p, "=")
				if !ok {
					return fmt.Errorf("invalid --param-file %q, want key=path", p)
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read param file: %w", err)
				}
				promptParams[key] = string(data)
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

			g, err := buildGuard(cmd.Context(), spec, cfg, engine, storeDB)
			if err != nil {
				return err
			}
			outcome, err := g.Invoke(cmd.Context(), promptParams)
			if err != nil {
				return err
			}
			return render.Outcome(os.Stdout, outcome, plain)
		},
	}
	cmd.Flags().StringVar(&railPath, "rail", "", "path to the rail spec")
	cmd.Flags().StringArrayVar(&params, "param", nil, "prompt param as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&files, "param-file", nil, "prompt param loaded from a file as key=path (repeatable)")
	cmd.Flags().StringVar(&engine, "engine", "", "completion engine (default from config)")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable rich terminal rendering")
	_ = cmd.MarkFlagRequired("rail")
	return cmd
}
