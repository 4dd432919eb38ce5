package runner

import (
	"context"
	"sync"

	"github.com/ruffel/sshrpc"
)

var _ sshrpc.Target = (*Target)(nil)

// Target executes commands on the local machine through the shell.
// It builds the same command line a session sends to a remote host and
// applies the same expected-return comparison, so code written against
// sshrpc.Target can be exercised without an ssh client.
type Target struct {
	runner *Runner
	esc    sshrpc.Escaper

	mu     sync.RWMutex
	closed bool
}

// NewTarget wraps r. A nil escaper selects sshrpc.EscapeSpaces.
func NewTarget(r *Runner, esc sshrpc.Escaper) *Target {
	if esc == nil {
		esc = sshrpc.EscapeSpaces
	}

	return &Target{runner: r, esc: esc}
}

// Execute runs cmd through "sh -c".
func (t *Target) Execute(ctx context.Context, cmd *sshrpc.Command) (*sshrpc.Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()

	if closed {
		return nil, sshrpc.ErrSessionClosed
	}

	line := cmd.RemoteLine(t.esc)
	argv := []string{line}

	res, err := t.runner.Run(ctx, argv, sshrpc.RunOptions{
		Capture: cmd.Capture != nil,
		Shell:   true,
		Timeout: cmd.Timeout,
	})
	if err != nil {
		return nil, err
	}

	if cmd.Capture != nil {
		cmd.Capture.Stdout = string(res.Stdout)
		cmd.Capture.Stderr = string(res.Stderr)
	}

	if res.TimedOut || res.ExitCode != cmd.ExpectedReturn {
		return res, &sshrpc.MismatchError{
			Command:  line,
			Argv:     []string{t.runner.cfg.shell, "-c", line},
			Expected: cmd.ExpectedReturn,
			Observed: res.ExitCode,
			TimedOut: res.TimedOut,
			Stderr:   res.Stderr,
		}
	}

	return res, nil
}

// Close makes later Execute calls fail with sshrpc.ErrSessionClosed.
// Calling Close more than once is safe.
func (t *Target) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	return nil
}
