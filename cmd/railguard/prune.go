package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/railguard/railguard/internal/db"
)

func pruneCmd() *cobra.Command {
	var (
		keepLast int
		keepDays int
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old call records according to the retention policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, workRoot, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			cfg, err := loadConfig(workRoot)
			if err != nil {
				return err
			}

			policy := db.RetentionPolicy{
				KeepLast: cfg.Retention.KeepLast,
				KeepDays: cfg.Retention.KeepDays,
			}
			if cmd.Flags().Changed("keep-last") {
				policy.KeepLast = keepLast
			}
			if cmd.Flags().Changed("keep-days") {
				policy.KeepDays = keepDays
			}

			store := db.NewStore(storeDB)
			removed, err := store.Prune(cmd.Context(), policy)
			if err != nil {
				return fmt.Errorf("prune failed: %w", err)
			}

			fmt.Printf("Pruned %d call(s).\n", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&keepLast, "keep-last", 0, "keep the most recent N calls")
	cmd.Flags().IntVar(&keepDays, "keep-days", 0, "keep calls newer than N days")

	return cmd
}
