package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/eliash/internal/command"
	"github.com/marcelocantos/eliash/internal/executor"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse LINE...",
	Short: "Print the command tree of a line without running it",
	Long:  `The arguments are joined with single spaces and parsed as one line.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newParser()
		tree, err := p.Parse(strings.Join(args, " "))
		if err != nil {
			return &lineError{status: executor.StatusUsage, err: err}
		}

		out := cmd.OutOrStdout()
		if !parseJSON {
			fmt.Fprint(out, command.Dump(tree))
			return nil
		}
		data, err := command.Marshal(tree)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		fmt.Fprintln(out, buf.String())
		return nil
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print the tree in its JSON wire form")
	rootCmd.AddCommand(parseCmd)
}
