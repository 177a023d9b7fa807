// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package shell ties the parser and the executor into a line interpreter.
package shell

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/marcelocantos/eliash/internal/audit"
	"github.com/marcelocantos/eliash/internal/command"
	"github.com/marcelocantos/eliash/internal/config"
	"github.com/marcelocantos/eliash/internal/executor"
	"github.com/marcelocantos/eliash/internal/parser"
	"github.com/marcelocantos/eliash/internal/prompt"
)

// Shell interprets lines one at a time. Builtins run in-process; anything
// else is parsed and handed to exactly one spawned child.
type Shell struct {
	Parser   parser.Parser
	Executor *executor.Executor
	// Journal, when set, records every line that was acted on.
	Journal *audit.Journal
	Prompt  *prompt.Prompt
	// Stderr receives diagnostics of builtins and of failed lines.
	Stderr io.Writer
	Log    *zerolog.Logger

	status int
	exited bool
}

// New returns a shell configured from cfg and wired to the process's
// standard descriptors.
func New(cfg *config.Config, log *zerolog.Logger) *Shell {
	x := executor.New()
	x.Perm = cfg.Exec.RedirectPerm.FileMode()
	x.Log = log
	return &Shell{
		Parser: parser.Parser{
			MaxArgs:   cfg.Parser.MaxArgs,
			MaxStages: cfg.Parser.MaxStages,
		},
		Executor: x,
		Prompt:   prompt.Static(cfg.Prompt),
		Stderr:   os.Stderr,
		Log:      log,
	}
}

func (s *Shell) log() *zerolog.Logger {
	if s.Log == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return s.Log
}

// Status is the exit status of the last line.
func (s *Shell) Status() int { return s.status }

// Exited reports whether the exit builtin has run.
func (s *Shell) Exited() bool { return s.exited }

// ParseAndRun parses line, spawns one process that executes the tree and
// returns its exit status once it has finished. A parse error is returned
// before anything is spawned.
func (s *Shell) ParseAndRun(line string) (int, error) {
	status, _, err := s.parseAndRun(line)
	return status, err
}

func (s *Shell) parseAndRun(line string) (int, command.Command, error) {
	cmd, err := s.Parser.Parse(line)
	if err != nil {
		return executor.StatusUsage, nil, err
	}
	s.log().Debug().Str("tree", command.Format(cmd)).Msg("parsed")
	status, err := s.Executor.Launch(cmd)
	return status, cmd, err
}

// RunLine interprets one line: blank lines do nothing, builtins run
// in-process and everything else goes through ParseAndRun. The result is
// journaled when a Journal is set.
func (s *Shell) RunLine(line string) (int, error) {
	fields := parser.Fields(line)
	if len(fields) == 0 {
		return s.status, nil
	}

	start := time.Now()
	rec := audit.Record{Line: line}
	var (
		status int
		err    error
	)
	if b, ok := builtins[fields[0]]; ok {
		rec.Builtin = fields[0]
		status, err = b(s, fields[1:])
	} else {
		var cmd command.Command
		status, cmd, err = s.parseAndRun(line)
		if cmd != nil {
			rec.Tree = command.Format(cmd)
		}
	}
	s.status = status

	rec.Status, rec.Err, rec.Duration = status, err, time.Since(start)
	s.journal(rec)
	return status, err
}

func (s *Shell) journal(rec audit.Record) {
	if s.Journal == nil {
		return
	}
	rec.Cwd, _ = os.Getwd()
	if _, err := s.Journal.Append(rec); err != nil {
		s.log().Warn().Err(err).Str("path", s.Journal.Path()).Msg("audit append failed")
	}
}
