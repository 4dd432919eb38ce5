package sshrpc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTimedOut is matched (via errors.Is) by a MismatchError whose command timed out.
var ErrTimedOut = errors.New("command timed out")

// ErrSessionClosed indicates that an operation was attempted on a closed session.
var ErrSessionClosed = errors.New("session is closed")

// ErrNotNegotiated indicates that the session has not been opened yet.
var ErrNotNegotiated = errors.New("session has not been negotiated")

// ErrMissingCredential indicates that the private key file does not exist.
var ErrMissingCredential = errors.New("ssh identity does not exist")

// ErrInvalidCredential indicates that the private key file is not usable key material.
var ErrInvalidCredential = errors.New("ssh identity is not a private key")

// ErrNoHome indicates that the remote home directory could not be determined.
var ErrNoHome = errors.New("cannot determine remote home directory")

// ErrConnectFailed indicates that the initial connectivity probe failed.
var ErrConnectFailed = errors.New("cannot connect to host")

// ExecError represents a failure to spawn a process (binary not found, bad arguments, OS error).
type ExecError struct {
	Argv []string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("error running command '%s': %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// MismatchError reports that a command finished (or timed out) with an exit code
// other than the one the caller expected.
type MismatchError struct {
	Command  string   // The remote command line
	Argv     []string // The full local invocation (ssh ... host line)
	Expected int
	Observed int // NoExitCode when TimedOut
	TimedOut bool
	Stderr   []byte // Captured stderr, if capture was requested
}

func (e *MismatchError) Error() string {
	observed := fmt.Sprintf("%d", e.Observed)
	if e.TimedOut {
		observed = "timeout"
	}

	return fmt.Sprintf("command %q did not return %d: result=%s", e.Command, e.Expected, observed)
}

// Is lets errors.Is(err, ErrTimedOut) identify a timed out execution.
func (e *MismatchError) Is(target error) bool {
	return e.TimedOut && target == ErrTimedOut
}

// NegotiationError represents a failure to probe the ssh client version.
type NegotiationError struct {
	Argv   []string
	Banner string
	Err    error
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("cannot negotiate with '%s': %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *NegotiationError) Unwrap() error {
	return e.Err
}

// TeardownError represents a failed attempt to close the persistent master connection.
// The master connection may still be alive when this is returned.
type TeardownError struct {
	Host     string
	ExitCode int
	Stderr   []byte
	Err      error
}

func (e *TeardownError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("teardown of master connection to %s failed: %v", e.Host, e.Err)
	}

	msg := fmt.Sprintf("teardown of master connection to %s exited with code %d", e.Host, e.ExitCode)
	if s := strings.TrimSpace(string(e.Stderr)); s != "" {
		msg += ": " + s
	}

	return msg
}

func (e *TeardownError) Unwrap() error {
	return e.Err
}
