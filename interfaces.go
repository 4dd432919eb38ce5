// Package sshrpc runs commands on a (possibly remote) host through the system
// secure-shell client and treats that host like a local subprocess target.
//
// # Core Interfaces
//
// - Target: anything that can execute a Command (a session.Session in practice).
// - Runner: spawns local processes with capture and timeout semantics.
// - Process: a background process handle (allows Wait, Signal, Close).
//
// # Timeouts
//
// A Command with a Timeout is polled at a fixed interval and terminated once
// the wall-clock budget is exhausted. The Result of such a run carries
// TimedOut=true and ExitCode=NoExitCode instead of a real exit code.
//
// # Capture
//
// Output is not captured by default. Attach a *Capture with WithCapture and
// it is filled with stdout and stderr before the exit code is checked.
package sshrpc

import (
	"context"
	"io"
	"os"
)

// Target executes commands on a host.
type Target interface {
	// Execute runs cmd and checks the observed exit code against cmd.ExpectedReturn.
	// A mismatch (including a timeout) is reported as a *MismatchError alongside the Result.
	Execute(ctx context.Context, cmd *Command) (*Result, error)
}

// Runner spawns local processes. The session drives the ssh client binary through it.
type Runner interface {
	// Run executes argv synchronously, honoring the capture and timeout settings in opts.
	// Spawn failures are returned as *ExecError; a timeout is not an error.
	Run(ctx context.Context, argv []string, opts RunOptions) (*Result, error)

	// Start launches argv in the background.
	// The caller must release the returned Process via Wait() or Close().
	Start(ctx context.Context, argv []string, opts StartOptions) (Process, error)
}

// Process represents a command that has been started but not yet completed.
type Process interface {
	io.Closer

	// Wait blocks until the process exits.
	// Returns an error if the process could not be waited on; the exit code is in Result().
	Wait() error

	// Result returns metadata (exit code, duration) (only valid after Wait).
	Result() *Result

	// Signal sends an OS signal to the process.
	Signal(sig os.Signal) error
}
