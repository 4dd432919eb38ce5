package runner

import (
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/ruffel/sshrpc"
)

// Close releases resources associated with the process.
// If the process is still running, its process group is killed to ensure cleanup.
func (p *Process) Close() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()

		return nil // Already closed
	}

	// Determine if we need to kill the process before setting closed
	shouldKill := p.execCmd != nil && p.execCmd.Process != nil && p.done != nil
	done := p.done // Capture channel reference
	p.closed = true
	p.mu.Unlock()

	// Kill and wait outside of lock to avoid deadlock
	if shouldKill {
		select {
		case <-done:
			// Process already completed, nothing to kill
		default:
			// Process still running, kill the process group to prevent leaks.
			_ = killProcessGroup(p.execCmd.Process)

			<-done // Wait for goroutine to finish
		}
	}

	return nil
}

func (p *Process) start(opts sshrpc.StartOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("cannot start process %q: already closed", p.argv)
	}

	// Deliberately not exec.CommandContext: termination is driven by the
	// runner's poll loop so that exactly one signal is sent.
	p.execCmd = exec.Command(p.argv[0], p.argv[1:]...) //nolint:gosec,noctx

	// Create a new Process Group to allow signalling the entire tree (children) later.
	setProcessGroup(p.execCmd)

	// Wire up streams. Nil streams are connected to the null device by os/exec.
	if opts.Stdin != nil {
		p.execCmd.Stdin = opts.Stdin
	}

	if opts.Stdout != nil {
		p.execCmd.Stdout = opts.Stdout
	}

	if opts.Stderr != nil {
		p.execCmd.Stderr = opts.Stderr
	}

	p.done = make(chan struct{})

	// Start the command
	p.started = time.Now()

	err := p.execCmd.Start()
	if err != nil {
		return err
	}

	// Start a goroutine to wait for completion.
	// This ensures we capture the exact exit timing and result asynchronously.
	go func() {
		defer close(p.done)
		defer p.runner.decrementActive()

		err := p.execCmd.Wait()
		duration := time.Since(p.started)

		var waitErr error

		exitErr := &exec.ExitError{}
		if err != nil && !errors.As(err, &exitErr) {
			waitErr = &sshrpc.ExecError{Argv: p.argv, Err: err}
		}

		p.mu.Lock()
		p.result = &sshrpc.Result{
			ExitCode: exitCode(p.execCmd.ProcessState),
			Duration: duration,
		}
		p.waitErr = waitErr
		p.mu.Unlock()
	}()

	return nil
}
