package sshrpc

import (
	"context"
	"errors"
	"strings"
)

// Executor layers convenience calls (output capture, exit-status tests) over a Target.
type Executor struct {
	target Target
}

// NewExecutor creates a new Executor for the given target.
func NewExecutor(target Target) *Executor {
	return &Executor{target: target}
}

// Target returns the underlying target.
func (e *Executor) Target() Target {
	return e.target
}

// Execute runs a fully configured command.
func (e *Executor) Execute(ctx context.Context, cmd *Command) (*Result, error) {
	return e.target.Execute(ctx, cmd)
}

// Run executes raw command text with the given options.
func (e *Executor) Run(ctx context.Context, text string, opts ...ExecOption) (*Result, error) {
	return e.target.Execute(ctx, NewCommand(text, opts...))
}

// Output executes text with capture enabled and returns stdout with trailing whitespace removed.
func (e *Executor) Output(ctx context.Context, text string, opts ...ExecOption) (string, error) {
	var capture Capture

	opts = append(opts, WithCapture(&capture))

	if _, err := e.Run(ctx, text, opts...); err != nil {
		return "", err
	}

	return strings.TrimRight(capture.Stdout, " \t\r\n"), nil
}

// Succeeds reports whether text exits 0.
// Any other real exit code yields false; timeouts and spawn failures are returned as errors.
func (e *Executor) Succeeds(ctx context.Context, text string, opts ...ExecOption) (bool, error) {
	_, err := e.Run(ctx, text, opts...)
	if err == nil {
		return true, nil
	}

	var mismatch *MismatchError
	if errors.As(err, &mismatch) && !mismatch.TimedOut {
		return false, nil
	}

	return false, err
}
