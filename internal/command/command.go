// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package command defines the command tree produced by the parser and
// consumed by the executor.
//
// A tree has three node kinds: Exec leaves, Redir nodes that rewire one
// descriptor around an inner command, and Pipe nodes that connect the stdout
// of Left to the stdin of Right. Nodes own their children exclusively and are
// never mutated after construction.
package command

import (
	"fmt"
	"os"
)

// Operator characters recognised on a command line.
const (
	OpPipe        = '|'
	OpRedirectOut = '>'
	OpRedirectIn  = '<'
)

// Standard descriptors used as redirection targets.
const (
	Stdin  = 0
	Stdout = 1
	Stderr = 2
)

// OpenMode selects how a redirection target is opened.
type OpenMode int

const (
	ReadOnly       OpenMode = iota // open existing file for reading
	CreateTruncate                 // create if absent, truncate if present, write-only
)

func (m OpenMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case CreateTruncate:
		return "create-truncate"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseOpenMode converts the String form back to an OpenMode.
func ParseOpenMode(s string) (OpenMode, error) {
	switch s {
	case "read-only":
		return ReadOnly, nil
	case "create-truncate":
		return CreateTruncate, nil
	default:
		return 0, fmt.Errorf("unknown open mode: %q", s)
	}
}

// Flags returns the open(2) flags for the mode, without O_CLOEXEC.
func (m OpenMode) Flags() int {
	if m == CreateTruncate {
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	return os.O_RDONLY
}

// Operator returns the command-line operator that produces this mode.
func (m OpenMode) Operator() string {
	if m == CreateTruncate {
		return string(OpRedirectOut)
	}
	return string(OpRedirectIn)
}

// Visitor is implemented by every consumer of a command tree. Adding a node
// kind adds a method here, so each consumer fails to compile until it
// handles the new kind.
type Visitor interface {
	VisitExec(e *Exec) error
	VisitRedir(r *Redir) error
	VisitPipe(p *Pipe) error
}

// Command is a node of the command tree.
type Command interface {
	Accept(v Visitor) error
}

// Exec runs a program. Argv[0] is the path of the executable; it is never
// searched for in PATH.
type Exec struct {
	Argv []string
}

// Redir opens Path with Mode, installs it on descriptor FD and then runs
// Inner in the same process.
type Redir struct {
	Inner Command
	Path  string
	Mode  OpenMode
	FD    int
}

// Pipe runs Left and Right in two child processes joined by a pipe.
type Pipe struct {
	Left  Command
	Right Command
}

func (e *Exec) Accept(v Visitor) error  { return v.VisitExec(e) }
func (r *Redir) Accept(v Visitor) error { return v.VisitRedir(r) }
func (p *Pipe) Accept(v Visitor) error  { return v.VisitPipe(p) }

// NewExec builds an Exec leaf. The argv slice is copied.
func NewExec(argv ...string) *Exec {
	return &Exec{Argv: append([]string(nil), argv...)}
}

// NewRedir builds a Redir node around inner.
func NewRedir(inner Command, path string, mode OpenMode, fd int) *Redir {
	return &Redir{Inner: inner, Path: path, Mode: mode, FD: fd}
}

// RedirOut is the tree for "inner > path".
func RedirOut(inner Command, path string) *Redir {
	return NewRedir(inner, path, CreateTruncate, Stdout)
}

// RedirIn is the tree for "inner < path".
func RedirIn(inner Command, path string) *Redir {
	return NewRedir(inner, path, ReadOnly, Stdin)
}

// NewPipe builds a Pipe node.
func NewPipe(left, right Command) *Pipe {
	return &Pipe{Left: left, Right: right}
}
