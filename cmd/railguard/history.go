package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/railguard/railguard/internal/db"
)

func historyCmd() *cobra.Command {
	var (
		limit       int
		interactive bool
	)
	cmd := &cobra.Command{
		Use:          "history [call-id]",
		Short:        "Show guarded call history",
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, _, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()
			store := db.NewStore(storeDB)

			if len(args) == 1 {
				return showCall(cmd, store, args[0])
			}

			calls, err := store.ListCalls(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if interactive {
				return browseCalls(store, calls)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CALL\tCREATED\tSPEC\tENGINE\tSTATUS\tATTEMPTS")
			for _, c := range calls {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					c.CallID, c.CreatedAt, c.SpecName, c.Engine, c.Status, c.Attempts)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "max calls to list")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse calls interactively")
	return cmd
}

func showCall(cmd *cobra.Command, store *db.Store, callID string) error {
	call, err := store.GetCall(cmd.Context(), callID)
	if err != nil {
		return err
	}
	attempts, err := store.ListAttempts(cmd.Context(), callID)
	if err != nil {
		return err
	}

	fmt.Printf("call %s\ncreated %s\nspec %s\nengine %s\nstatus %s\n",
		call.CallID, call.CreatedAt, call.SpecName, call.Engine, call.Status)
	if call.ValidatedJSON != "" {
		fmt.Printf("\nvalidated:\n%s\n", call.ValidatedJSON)
	}
	if call.RawOutput != "" {
		fmt.Printf("\nraw:\n%s\n", call.RawOutput)
	}
	for _, a := range attempts {
		fmt.Printf("\nattempt %d (%s)\n", a.AttemptIndex+1, a.StartedAt)
		if a.IssuesJSON != "" {
			var issues []string
			if err := json.Unmarshal([]byte(a.IssuesJSON), &issues); err == nil {
				for _, issue := range issues {
					fmt.Printf("  issue: %s\n", issue)
				}
			}
		}
	}
	return nil
}
