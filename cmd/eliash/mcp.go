package main

import (
	"github.com/spf13/cobra"

	"github.com/marcelocantos/eliash/internal/executor"
	mcpserver "github.com/marcelocantos/eliash/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve parse_line and run_line as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		x := executor.New()
		x.Perm = cfg.Exec.RedirectPerm.FileMode()
		x.Log = logger
		return mcpserver.NewServer(version, newParser(), x, openJournal(), logger).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
