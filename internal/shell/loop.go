// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abiosoft/readline"

	"github.com/marcelocantos/eliash/internal/executor"
)

// LineReader is the part of *readline.Instance the loop uses.
type LineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

// NewReadline returns a line editor with persistent history. An empty
// historyFile disables history.
func NewReadline(historyFile string) (*readline.Instance, error) {
	if historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(historyFile), 0o700); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	return readline.NewEx(&readline.Config{
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
}

// Loop reads and runs lines until end of input or the exit builtin.
// Interrupts discard the current line. Line failures are reported on
// Stderr and do not end the loop.
func (s *Shell) Loop(rl LineReader) error {
	for !s.exited {
		cwd, _ := os.Getwd()
		rl.SetPrompt(s.Prompt.Render(cwd, s.status))

		line, err := rl.Readline()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case err != nil:
			return fmt.Errorf("read line: %w", err)
		}

		if _, err := s.RunLine(line); err != nil {
			executor.Report(s.Stderr, err)
		}
	}
	return nil
}
