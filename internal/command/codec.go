// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Node is the JSON form of a command tree. Exactly one field is set.
type Node struct {
	Exec  *ExecNode  `json:"exec,omitempty"`
	Redir *RedirNode `json:"redir,omitempty"`
	Pipe  *PipeNode  `json:"pipe,omitempty"`
}

type ExecNode struct {
	Argv []string `json:"argv"`
}

type RedirNode struct {
	Inner Node   `json:"inner"`
	Path  string `json:"path"`
	Mode  string `json:"mode"`
	FD    int    `json:"fd"`
}

type PipeNode struct {
	Left  Node `json:"left"`
	Right Node `json:"right"`
}

// ErrEmptyNode is returned when a JSON node carries no variant.
var ErrEmptyNode = errors.New("node has no variant")

// ToNode converts a tree to its JSON form.
func ToNode(cmd Command) Node {
	var e encoder
	_ = cmd.Accept(&e)
	return e.n
}

type encoder struct {
	n Node
}

func (e *encoder) VisitExec(x *Exec) error {
	e.n = Node{Exec: &ExecNode{Argv: append([]string(nil), x.Argv...)}}
	return nil
}

func (e *encoder) VisitRedir(r *Redir) error {
	e.n = Node{Redir: &RedirNode{
		Inner: ToNode(r.Inner),
		Path:  r.Path,
		Mode:  r.Mode.String(),
		FD:    r.FD,
	}}
	return nil
}

func (e *encoder) VisitPipe(p *Pipe) error {
	e.n = Node{Pipe: &PipeNode{Left: ToNode(p.Left), Right: ToNode(p.Right)}}
	return nil
}

// Command converts the JSON form back to a tree, validating every node.
func (n Node) Command() (Command, error) {
	set := 0
	for _, ok := range []bool{n.Exec != nil, n.Redir != nil, n.Pipe != nil} {
		if ok {
			set++
		}
	}
	switch {
	case set == 0:
		return nil, ErrEmptyNode
	case set > 1:
		return nil, fmt.Errorf("node has %d variants", set)
	}

	switch {
	case n.Exec != nil:
		if len(n.Exec.Argv) == 0 {
			return nil, fmt.Errorf("exec: empty argv")
		}
		return NewExec(n.Exec.Argv...), nil
	case n.Redir != nil:
		mode, err := ParseOpenMode(n.Redir.Mode)
		if err != nil {
			return nil, fmt.Errorf("redir: %w", err)
		}
		if n.Redir.Path == "" {
			return nil, fmt.Errorf("redir: empty path")
		}
		if n.Redir.FD < 0 {
			return nil, fmt.Errorf("redir: negative fd %d", n.Redir.FD)
		}
		inner, err := n.Redir.Inner.Command()
		if err != nil {
			return nil, fmt.Errorf("redir: %w", err)
		}
		return NewRedir(inner, n.Redir.Path, mode, n.Redir.FD), nil
	default:
		left, err := n.Pipe.Left.Command()
		if err != nil {
			return nil, fmt.Errorf("pipe left: %w", err)
		}
		right, err := n.Pipe.Right.Command()
		if err != nil {
			return nil, fmt.Errorf("pipe right: %w", err)
		}
		return NewPipe(left, right), nil
	}
}

// Marshal encodes a tree as JSON.
func Marshal(cmd Command) ([]byte, error) {
	return json.Marshal(ToNode(cmd))
}

// Unmarshal decodes a tree produced by Marshal.
func Unmarshal(data []byte) (Command, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	return n.Command()
}
