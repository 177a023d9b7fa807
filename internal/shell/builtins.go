// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package shell

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/marcelocantos/eliash/internal/executor"
)

// BuiltinError is a failure of a command the shell runs itself.
type BuiltinError struct {
	Name string
	Err  error
}

func (e *BuiltinError) Error() string { return fmt.Sprintf("%s: %v", e.Name, e.Err) }
func (e *BuiltinError) Unwrap() error { return e.Err }

var (
	errTooManyArgs = errors.New("too many arguments")
	errNoHome      = errors.New("HOME not set")
)

type builtin func(s *Shell, args []string) (int, error)

var builtins = map[string]builtin{
	"cd":   builtinCd,
	"exit": builtinExit,
}

// IsBuiltin reports whether name is run by the shell itself.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func builtinCd(s *Shell, args []string) (int, error) {
	var dir string
	switch len(args) {
	case 0:
		dir = os.Getenv("HOME")
		if dir == "" {
			return executor.StatusFailure, &BuiltinError{Name: "cd", Err: errNoHome}
		}
	case 1:
		dir = args[0]
	default:
		return executor.StatusFailure, &BuiltinError{Name: "cd", Err: errTooManyArgs}
	}

	if err := os.Chdir(dir); err != nil {
		return executor.StatusFailure, &BuiltinError{Name: "cd", Err: err}
	}
	if wd, err := os.Getwd(); err == nil {
		os.Setenv("PWD", wd)
	}
	s.log().Debug().Str("dir", dir).Msg("cd")
	return executor.StatusOK, nil
}

func builtinExit(s *Shell, args []string) (int, error) {
	switch len(args) {
	case 0:
		s.exited = true
		return s.status, nil
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return executor.StatusUsage, &BuiltinError{Name: "exit", Err: fmt.Errorf("%s: numeric argument required", args[0])}
		}
		s.exited = true
		return n & 0xff, nil
	default:
		return executor.StatusFailure, &BuiltinError{Name: "exit", Err: errTooManyArgs}
	}
}
