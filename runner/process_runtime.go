package runner

import (
	"fmt"
	"os"

	"github.com/ruffel/sshrpc"
)

// Wait blocks until the command completes.
// A non-zero exit code is not an error: it is reported through Result().
// Errors other than the exit status (e.g. failed output copying) are returned as *sshrpc.ExecError.
func (p *Process) Wait() error {
	p.mu.RLock()
	// If closed, we check if it was ever started.
	if p.closed {
		p.mu.RUnlock()

		return fmt.Errorf("cannot wait on process %q: already closed", p.argv)
	}

	if p.done == nil {
		p.mu.RUnlock()

		return fmt.Errorf("cannot wait on process %q: not started", p.argv)
	}

	p.mu.RUnlock()

	// Block until the monitoring goroutine closes the done channel
	<-p.done

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.waitErr
}

// Result returns the final metadata of the command execution.
// It returns an empty result if the process is still running or hasn't started.
// This is typically safe to call only after Wait() returns.
func (p *Process) Result() *sshrpc.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.result == nil {
		return &sshrpc.Result{} // Return empty result if not ready
	}

	// Return a copy to prevent external modification
	return &sshrpc.Result{
		ExitCode: p.result.ExitCode,
		TimedOut: p.result.TimedOut,
		Duration: p.result.Duration,
	}
}

// Signal sends an OS signal to the process group of the running process.
func (p *Process) Signal(sig os.Signal) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return fmt.Errorf("cannot signal process %q: already closed", p.argv)
	}

	if p.execCmd == nil || p.execCmd.Process == nil {
		return fmt.Errorf("cannot signal process %q: not started", p.argv)
	}

	return signalProcessGroup(p.execCmd.Process, sig)
}

// exited reports whether the process has been reaped without blocking.
func (p *Process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
