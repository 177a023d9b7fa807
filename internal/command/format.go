// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Format reconstructs a command line for cmd. Argv elements are joined by
// single spaces and operators are surrounded by one space, so parsing the
// result yields a tree equal to cmd.
func Format(cmd Command) string {
	var f formatter
	_ = cmd.Accept(&f)
	return f.b.String()
}

type formatter struct {
	b strings.Builder
}

func (f *formatter) VisitExec(e *Exec) error {
	f.b.WriteString(strings.Join(e.Argv, " "))
	return nil
}

func (f *formatter) VisitRedir(r *Redir) error {
	if err := r.Inner.Accept(f); err != nil {
		return err
	}
	fmt.Fprintf(&f.b, " %s %s", r.Mode.Operator(), r.Path)
	return nil
}

func (f *formatter) VisitPipe(p *Pipe) error {
	if err := p.Left.Accept(f); err != nil {
		return err
	}
	fmt.Fprintf(&f.b, " %c ", OpPipe)
	return p.Right.Accept(f)
}

// Dump renders cmd as an indented tree, one node per line.
func Dump(cmd Command) string {
	d := dumper{}
	_ = cmd.Accept(&d)
	return d.b.String()
}

type dumper struct {
	b     strings.Builder
	depth int
}

func (d *dumper) line(format string, args ...any) {
	d.b.WriteString(strings.Repeat("  ", d.depth))
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteByte('\n')
}

func (d *dumper) VisitExec(e *Exec) error {
	quoted := make([]string, len(e.Argv))
	for i, arg := range e.Argv {
		quoted[i] = strconv.Quote(arg)
	}
	d.line("exec %s", strings.Join(quoted, " "))
	return nil
}

func (d *dumper) VisitRedir(r *Redir) error {
	d.line("redir fd=%d %s %q", r.FD, r.Mode, r.Path)
	d.depth++
	defer func() { d.depth-- }()
	return r.Inner.Accept(d)
}

func (d *dumper) VisitPipe(p *Pipe) error {
	d.line("pipe")
	d.depth++
	defer func() { d.depth-- }()
	if err := p.Left.Accept(d); err != nil {
		return err
	}
	return p.Right.Accept(d)
}

var errNotEqual = errors.New("trees differ")

// Equal reports whether a and b are structurally equal.
func Equal(a, b Command) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Accept(&comparer{other: b}) == nil
}

// comparer walks one tree and checks each node against the node of the
// same shape in other.
type comparer struct {
	other Command
}

func (c *comparer) VisitExec(e *Exec) error {
	o, ok := c.other.(*Exec)
	if !ok || len(o.Argv) != len(e.Argv) {
		return errNotEqual
	}
	for i := range e.Argv {
		if e.Argv[i] != o.Argv[i] {
			return errNotEqual
		}
	}
	return nil
}

func (c *comparer) VisitRedir(r *Redir) error {
	o, ok := c.other.(*Redir)
	if !ok || o.Path != r.Path || o.Mode != r.Mode || o.FD != r.FD {
		return errNotEqual
	}
	if !Equal(r.Inner, o.Inner) {
		return errNotEqual
	}
	return nil
}

func (c *comparer) VisitPipe(p *Pipe) error {
	o, ok := c.other.(*Pipe)
	if !ok || !Equal(p.Left, o.Left) || !Equal(p.Right, o.Right) {
		return errNotEqual
	}
	return nil
}
