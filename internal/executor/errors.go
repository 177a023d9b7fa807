// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"

	"github.com/marcelocantos/eliash/internal/command"
)

// Exit statuses of a process that failed while realizing a tree. They let a
// waiting parent tell the failure kinds apart.
const (
	StatusOK        = 0
	StatusFailure   = 1
	StatusUsage     = 2
	StatusPipe      = 3
	StatusSpawn     = 4
	StatusRedir     = 5
	StatusExecPerm  = 126
	StatusExecNoent = 127
)

// ExecError means the named program could not replace the process image.
type ExecError struct {
	Path string
	Err  error
}

func (e *ExecError) Error() string { return fmt.Sprintf("exec %s: %v", e.Path, e.Err) }
func (e *ExecError) Unwrap() error { return e.Err }

func (e *ExecError) Status() int {
	if errors.Is(e.Err, unix.ENOENT) || errors.Is(e.Err, unix.ENOTDIR) {
		return StatusExecNoent
	}
	return StatusExecPerm
}

// RedirOpenError means a redirection target could not be opened or
// installed on its descriptor.
type RedirOpenError struct {
	Path string
	Mode command.OpenMode
	Err  error
}

func (e *RedirOpenError) Error() string {
	return fmt.Sprintf("open %s (%s): %v", e.Path, e.Mode, e.Err)
}
func (e *RedirOpenError) Unwrap() error { return e.Err }
func (e *RedirOpenError) Status() int   { return StatusRedir }

// SpawnError means a child process could not be created.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("spawn: %v", e.Err) }
func (e *SpawnError) Unwrap() error { return e.Err }
func (e *SpawnError) Status() int   { return StatusSpawn }

// PipeError means the pipe joining two pipeline members could not be made.
type PipeError struct {
	Err error
}

func (e *PipeError) Error() string { return fmt.Sprintf("pipe: %v", e.Err) }
func (e *PipeError) Unwrap() error { return e.Err }
func (e *PipeError) Status() int   { return StatusPipe }

// CodecError means a spawned child could not decode the tree it was given.
type CodecError struct {
	Err error
}

func (e *CodecError) Error() string { return fmt.Sprintf("child request: %v", e.Err) }
func (e *CodecError) Unwrap() error { return e.Err }
func (e *CodecError) Status() int   { return StatusUsage }

// StatusOf returns the exit status a process reports for err.
func StatusOf(err error) int {
	if err == nil {
		return StatusOK
	}
	var se interface{ Status() int }
	if errors.As(err, &se) {
		return se.Status()
	}
	return StatusFailure
}

var diagColor = color.New(color.FgRed)

// Report writes the one-line diagnostic for err.
func Report(w io.Writer, err error) {
	diagColor.Fprintf(w, "eliash: %v\n", err)
}
