package runner

import (
	"os/exec"
	"sync"
	"time"

	"github.com/ruffel/sshrpc"
)

// Process implements sshrpc.Process for a local command.
// It wraps `*exec.Cmd` to provide a uniform interface for waiting, signaling, and result retrieval.
type Process struct {
	runner  *Runner
	argv    []string
	execCmd *exec.Cmd
	started time.Time

	// Result related fields
	result  *sshrpc.Result
	waitErr error
	mu      sync.RWMutex
	done    chan struct{}
	closed  bool
}

// Argv returns the argument vector the process was started with.
func (p *Process) Argv() []string {
	return p.argv
}

// Done returns a channel that is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}
