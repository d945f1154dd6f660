package main

import "fmt"

const exitCanceled = 130

// exitError carries a specific process exit code. Silent errors have
// already been reported by the command.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e == nil {
		return ""
	}
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// silentExit ends the command with code after it printed its own report.
func silentExit(code int) error {
	return &exitError{code: code, silent: true}
}
