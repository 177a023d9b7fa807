package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/marcelocantos/eliash/internal/executor"
)

// exitStatus ends the program with a status that has already been
// reported, or needs no report.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func statusError(status int) error {
	if status == 0 {
		return nil
	}
	return exitStatus(status)
}

// lineError is a failed line together with the status it ends the program
// with.
type lineError struct {
	status int
	err    error
}

func (e *lineError) Error() string { return e.err.Error() }
func (e *lineError) Unwrap() error { return e.err }

// resolveError reports err on w and maps it to the process exit status.
func resolveError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var es exitStatus
	if errors.As(err, &es) {
		return int(es)
	}

	executor.Report(w, err)
	var le *lineError
	if errors.As(err, &le) {
		return le.status
	}
	return executor.StatusOf(err)
}
