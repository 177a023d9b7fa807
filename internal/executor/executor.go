// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package executor realizes a command tree as a tree of processes.
//
// A Redir node rewires a descriptor of the current process and continues
// with its inner command in the same process. A Pipe node spawns one child
// per side and waits for both. An Exec leaf replaces the process image.
// Spawned children are the same binary started again (see Init), so every
// descriptor change happens in the process that owns it.
package executor

import (
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/marcelocantos/eliash/internal/command"
)

// DefaultPerm is the permission of files created by '>' before the umask
// is applied.
const DefaultPerm os.FileMode = 0o666

// PipeStatus holds the exit statuses of the two members of a pipe.
type PipeStatus struct {
	Left, Right int
}

// Executor evaluates command trees. Stdin, Stdout and Stderr are the
// descriptors handed to spawned children.
type Executor struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Env is the environment of spawned children and executed programs.
	// Nil means os.Environ().
	Env []string
	// Perm is the permission of files created by redirections.
	Perm os.FileMode
	// Spawner starts child processes. Nil means Reexec with Env and Perm.
	Spawner Spawner
	Log     *zerolog.Logger
}

// New returns an executor wired to the process's standard descriptors.
func New() *Executor {
	return &Executor{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr, Perm: DefaultPerm}
}

var _ command.Visitor = (*Executor)(nil)

func (x *Executor) log() *zerolog.Logger {
	if x.Log == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return x.Log
}

func (x *Executor) environ() []string {
	if x.Env == nil {
		return os.Environ()
	}
	return x.Env
}

func (x *Executor) perm() os.FileMode {
	if x.Perm == 0 {
		return DefaultPerm
	}
	return x.Perm
}

func (x *Executor) spawner() Spawner {
	if x.Spawner != nil {
		return x.Spawner
	}
	level := ""
	if x.Log != nil {
		level = x.Log.GetLevel().String()
	}
	return &Reexec{Env: x.Env, Perm: x.perm(), LogLevel: level}
}

func (x *Executor) stdio() Stdio {
	return Stdio{In: x.Stdin, Out: x.Stdout, Err: x.Stderr}
}

// Launch spawns exactly one process that executes cmd, waits for it and
// returns its exit status. The calling process is never replaced.
func (x *Executor) Launch(cmd command.Command) (int, error) {
	proc, err := x.spawner().Spawn(cmd, x.stdio())
	if err != nil {
		return StatusSpawn, err
	}
	state, err := proc.Wait()
	if err != nil {
		return StatusFailure, err
	}
	status := exitStatus(state)
	x.log().Debug().Int("pid", proc.Pid).Int("status", status).Msg("command finished")
	return status, nil
}

// Execute evaluates cmd as the terminal work of the current process. It
// never returns: the process image is replaced by an Exec leaf, or the
// process exits once the tree is done, or it reports the failure and exits
// with the failure's status.
func (x *Executor) Execute(cmd command.Command) {
	if err := x.Run(cmd); err != nil {
		x.fail(err)
	}
	os.Exit(StatusOK)
}

func (x *Executor) fail(err error) {
	x.log().Debug().Err(err).Int("status", StatusOf(err)).Msg("node failed")
	Report(x.Stderr, err)
	os.Exit(StatusOf(err))
}

// Run evaluates one node in the current process. It returns nil after a
// Pipe has reaped both children; on success of an Exec leaf it does not
// return at all.
func (x *Executor) Run(cmd command.Command) error {
	return cmd.Accept(x)
}

// VisitExec replaces the process image. Argv[0] is used as given.
func (x *Executor) VisitExec(e *command.Exec) error {
	x.log().Debug().Strs("argv", e.Argv).Msg("exec")
	err := unix.Exec(e.Argv[0], e.Argv, x.environ())
	return &ExecError{Path: e.Argv[0], Err: err}
}

// VisitRedir installs the opened file on r.FD, closes the original
// descriptor and continues with r.Inner.
func (x *Executor) VisitRedir(r *command.Redir) error {
	fd, err := unix.Open(r.Path, r.Mode.Flags()|unix.O_CLOEXEC, uint32(x.perm()))
	if err != nil {
		return &RedirOpenError{Path: r.Path, Mode: r.Mode, Err: err}
	}
	if fd == r.FD {
		// The target slot was free; keep the descriptor across exec.
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, 0); err != nil {
			unix.Close(fd)
			return &RedirOpenError{Path: r.Path, Mode: r.Mode, Err: err}
		}
	} else {
		if err := unix.Dup2(fd, r.FD); err != nil {
			unix.Close(fd)
			return &RedirOpenError{Path: r.Path, Mode: r.Mode, Err: err}
		}
		unix.Close(fd)
	}
	x.log().Debug().Str("path", r.Path).Int("fd", r.FD).Stringer("mode", r.Mode).Msg("redirect")
	return x.Run(r.Inner)
}

// VisitPipe runs both sides of p in child processes.
func (x *Executor) VisitPipe(p *command.Pipe) error {
	status, err := x.RunPipe(p)
	if err != nil {
		return err
	}
	x.log().Debug().Int("left", status.Left).Int("right", status.Right).Msg("pipe finished")
	return nil
}

// RunPipe spawns Left with stdout on the write end and Right with stdin on
// the read end of a new pipe, closes both ends in the calling process and
// waits for both children. Non-zero child statuses are returned, not
// treated as errors.
func (x *Executor) RunPipe(p *command.Pipe) (PipeStatus, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return PipeStatus{}, &PipeError{Err: err}
	}
	sp := x.spawner()

	left, err := sp.Spawn(p.Left, Stdio{In: x.Stdin, Out: w, Err: x.Stderr})
	if err != nil {
		r.Close()
		w.Close()
		return PipeStatus{}, err
	}
	right, err := sp.Spawn(p.Right, Stdio{In: r, Out: x.Stdout, Err: x.Stderr})

	// Either end left open here would keep the reader from seeing EOF or
	// the writer from seeing EPIPE.
	r.Close()
	w.Close()

	if err != nil {
		x.reap(left)
		return PipeStatus{}, err
	}
	return PipeStatus{Left: x.reap(left), Right: x.reap(right)}, nil
}

func (x *Executor) reap(proc *os.Process) int {
	state, err := proc.Wait()
	if err != nil {
		x.log().Warn().Err(err).Int("pid", proc.Pid).Msg("wait failed")
		return StatusFailure
	}
	return exitStatus(state)
}
