// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package parser turns a command line into a command tree.
//
// Precedence from lowest to highest is pipe, redirection, plain tokens. The
// parser never copies the line: it works on byte ranges of the original and
// only slices out the final argv and path strings.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marcelocantos/eliash/internal/command"
)

const (
	DefaultMaxArgs   = 10
	DefaultMaxStages = 2
)

var (
	ErrTooManyArgs     = errors.New("too many arguments")
	ErrMissingFilename = errors.New("missing filename after redirection")
	ErrEmptyCommand    = errors.New("empty command")
	ErrTrailingTokens  = errors.New("unexpected token after redirection target")
	ErrTooManyStages   = errors.New("too many pipeline stages")
)

// ParseError describes a malformed command line. Pos is the byte offset in
// the line where the problem was detected.
type ParseError struct {
	Pos    int
	Err    error
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("parse error at column %d: %v (%s)", e.Pos+1, e.Err, e.Detail)
	}
	return fmt.Sprintf("parse error at column %d: %v", e.Pos+1, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parser holds the limits applied while parsing. The zero value uses
// DefaultMaxArgs and DefaultMaxStages.
type Parser struct {
	MaxArgs   int // maximum argv length of one Exec
	MaxStages int // maximum number of commands joined by pipes
}

// Parse parses line with the default limits.
func Parse(line string) (command.Command, error) {
	return (&Parser{}).Parse(line)
}

// Parse parses one command line. The trailing line terminator, if any, is
// treated as a delimiter.
func (p *Parser) Parse(line string) (command.Command, error) {
	return p.parsePipe(line, 0, len(line), 1)
}

func (p *Parser) maxArgs() int {
	if p.MaxArgs > 0 {
		return p.MaxArgs
	}
	return DefaultMaxArgs
}

func (p *Parser) maxStages() int {
	if p.MaxStages > 0 {
		return p.MaxStages
	}
	return DefaultMaxStages
}

// parsePipe splits line[start:end] at its first '|'. The remainder is parsed
// recursively, so longer chains lean right: a | b | c is Pipe(a, Pipe(b, c)).
func (p *Parser) parsePipe(line string, start, end, stage int) (command.Command, error) {
	i := strings.IndexByte(line[start:end], command.OpPipe)
	if i < 0 {
		return p.parseRedir(line, start, end)
	}
	i += start
	if stage >= p.maxStages() {
		return nil, &ParseError{Pos: i, Err: ErrTooManyStages, Detail: fmt.Sprintf("limit is %d", p.maxStages())}
	}

	left, err := p.parseRedir(line, start, i)
	if err != nil {
		return nil, err
	}
	right, err := p.parsePipe(line, i+1, end, stage+1)
	if err != nil {
		return nil, err
	}
	return command.NewPipe(left, right), nil
}

// parseRedir peels off the rightmost redirection of line[start:end]. Only
// the filename may follow the operator; everything before it, including
// further redirections, is the wrapped command.
func (p *Parser) parseRedir(line string, start, end int) (command.Command, error) {
	i := strings.LastIndexAny(line[start:end], string([]rune{command.OpRedirectOut, command.OpRedirectIn}))
	if i < 0 {
		return p.parseExec(line, start, end)
	}
	i += start
	op := line[i]

	name, ok := nextToken(line, i+1, end)
	if !ok {
		return nil, &ParseError{Pos: i, Err: ErrMissingFilename, Detail: string(op)}
	}
	if extra, ok := nextToken(line, name.End, end); ok {
		return nil, &ParseError{Pos: extra.Start, Err: ErrTrailingTokens, Detail: extra.Text(line)}
	}

	inner, err := p.parseRedir(line, start, i)
	if err != nil {
		return nil, err
	}
	path := name.Text(line)
	if op == command.OpRedirectOut {
		return command.RedirOut(inner, path), nil
	}
	return command.RedirIn(inner, path), nil
}

func (p *Parser) parseExec(line string, start, end int) (command.Command, error) {
	var argv []string
	for from := start; ; {
		tok, ok := nextToken(line, from, end)
		if !ok {
			break
		}
		if len(argv) == p.maxArgs() {
			return nil, &ParseError{Pos: tok.Start, Err: ErrTooManyArgs, Detail: fmt.Sprintf("limit is %d", p.maxArgs())}
		}
		argv = append(argv, tok.Text(line))
		from = tok.End
	}
	if len(argv) == 0 {
		return nil, &ParseError{Pos: start, Err: ErrEmptyCommand}
	}
	return &command.Exec{Argv: argv}, nil
}
