// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/marcelocantos/eliash/internal/command"
	"github.com/marcelocantos/eliash/internal/logging"
)

// ChildArg0 is the argv[0] of a process started by Spawn. Init looks for it
// to decide whether the current process is a spawned child.
const ChildArg0 = "eliash-exec"

// Stdio is the descriptor table a spawned child starts with: In, Out and Err
// become descriptors 0, 1 and 2. Nothing else is inherited.
type Stdio struct {
	In, Out, Err *os.File
}

// Spawner starts an independent process that replays a command subtree.
type Spawner interface {
	Spawn(cmd command.Command, stdio Stdio) (*os.Process, error)
}

// childRequest is what a parent hands to a spawned child in argv[1].
type childRequest struct {
	Tree     command.Node `json:"tree"`
	Perm     uint32       `json:"perm"`
	LogLevel string       `json:"log_level,omitempty"`
}

var selfPath = sync.OnceValues(os.Executable)

// Reexec spawns children by starting the current binary again with
// ChildArg0. The fork-side duplication of Stdio onto 0, 1 and 2 happens in
// the new process only; all other descriptors of the parent are
// close-on-exec and vanish.
type Reexec struct {
	Env      []string
	Perm     os.FileMode
	LogLevel string
}

// Spawn implements Spawner.
func (s *Reexec) Spawn(cmd command.Command, stdio Stdio) (*os.Process, error) {
	path, err := selfPath()
	if err != nil {
		return nil, &SpawnError{Err: fmt.Errorf("locate executable: %w", err)}
	}
	data, err := json.Marshal(childRequest{
		Tree:     command.ToNode(cmd),
		Perm:     uint32(s.Perm.Perm()),
		LogLevel: s.LogLevel,
	})
	if err != nil {
		return nil, &SpawnError{Err: fmt.Errorf("encode subtree: %w", err)}
	}

	env := s.Env
	if env == nil {
		env = os.Environ()
	}
	proc, err := os.StartProcess(path, []string{ChildArg0, string(data)}, &os.ProcAttr{
		Env:   env,
		Files: []*os.File{stdio.In, stdio.Out, stdio.Err},
	})
	if err != nil {
		return nil, &SpawnError{Err: err}
	}
	return proc, nil
}

// Init runs the executor if the current process was started by Spawn, and
// never returns in that case. Call it first thing in main and in TestMain.
func Init() {
	if len(os.Args) != 2 || os.Args[0] != ChildArg0 {
		return
	}
	runChild(os.Args[1])
}

func runChild(arg string) {
	x := &Executor{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	var req childRequest
	if err := json.Unmarshal([]byte(arg), &req); err != nil {
		x.fail(&CodecError{Err: err})
	}
	log := logging.New(os.Stderr, req.LogLevel, logging.ProfileRuntime).With().Int("pid", os.Getpid()).Logger()
	x.Log = &log
	x.Perm = os.FileMode(req.Perm)

	cmd, err := req.Tree.Command()
	if err != nil {
		x.fail(&CodecError{Err: err})
	}
	x.Execute(cmd)
}

// exitStatus converts a reaped child's state to a shell-style status:
// the exit code, or 128+signal for a child killed by a signal.
func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
