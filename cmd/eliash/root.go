package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/marcelocantos/eliash/internal/audit"
	"github.com/marcelocantos/eliash/internal/config"
	"github.com/marcelocantos/eliash/internal/logging"
	"github.com/marcelocantos/eliash/internal/parser"
	"github.com/marcelocantos/eliash/internal/prompt"
	"github.com/marcelocantos/eliash/internal/shell"
)

var (
	configPath  string
	commandLine string

	cfg    *config.Config
	logger *zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "eliash",
	Short: "A small shell with pipes and redirections",
	Long: `eliash reads command lines and runs them as processes.

A line is a program path and its arguments, optionally redirected with
'<' and '>' and joined to another command with '|'. There is no PATH
search, quoting, globbing or variable expansion. The builtins are cd and
exit.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runShell,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/eliash/config.yaml)")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run one line and exit with its status")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.ConfigPath()
	}
	c, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	cfg = c
	l := logging.New(os.Stderr, cfg.Log.Level, logging.ProfileRuntime)
	logger = &l
	return nil
}

func newParser() parser.Parser {
	return parser.Parser{MaxArgs: cfg.Parser.MaxArgs, MaxStages: cfg.Parser.MaxStages}
}

// openJournal returns the configured journal, or nil when auditing is off
// or the journal cannot be opened.
func openJournal() *audit.Journal {
	if !cfg.Audit.Enabled {
		return nil
	}
	j, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		// Continue without auditing.
		logger.Warn().Err(err).Msg("audit journal unavailable")
		return nil
	}
	return j
}

func newShell() *shell.Shell {
	sh := shell.New(cfg, logger)
	sh.Journal = openJournal()
	if cfg.PromptScript != "" {
		p, err := prompt.LoadScript(cfg.PromptScript, cfg.Prompt, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("using the plain prompt")
		} else {
			sh.Prompt = p
		}
	}
	return sh
}

func runShell(cmd *cobra.Command, args []string) error {
	sh := newShell()

	if cmd.Flags().Changed("command") {
		status, err := sh.RunLine(commandLine)
		if err != nil {
			return &lineError{status: status, err: err}
		}
		return statusError(status)
	}

	rl, err := shell.NewReadline(cfg.HistoryFile)
	if err != nil {
		return err
	}
	defer rl.Close()
	if err := sh.Loop(rl); err != nil {
		return err
	}
	return statusError(sh.Status())
}
