package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/eliash/internal/audit"
)

var tailCount int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the journal of executed lines",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the journal's hash chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := audit.Verify(cfg.Audit.Path); err != nil {
			return fmt.Errorf("audit verification FAILED: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "audit log integrity verified")
		return nil
	},
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the most recent journal entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := audit.Tail(cfg.Audit.Path, tailCount)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "no audit entries")
			return nil
		}
		for _, e := range entries {
			data, _ := json.MarshalIndent(e, "", "  ")
			fmt.Fprintf(out, "%s\n", data)
		}
		return nil
	},
}

func init() {
	auditTailCmd.Flags().IntVarP(&tailCount, "lines", "n", 20, "number of entries to print")
	auditCmd.AddCommand(auditVerifyCmd, auditTailCmd)
	rootCmd.AddCommand(auditCmd)
}
