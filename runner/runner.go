package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ruffel/sshrpc"
)

// Runner implements sshrpc.Runner for the local operating system.
// Thread-safe wrapper around os/exec.
type Runner struct {
	cfg    Config
	mu     sync.RWMutex
	active int
	closed bool
}

// New creates a new runner.
func New(opts ...Option) *Runner {
	cfg := Config{
		pollInterval:    sshrpc.DefaultPollInterval,
		terminateSignal: defaultTerminateSignal,
		shell:           "/bin/sh",
		stdout:          os.Stdout,
		stderr:          os.Stderr,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Runner{cfg: cfg}
}

// Run executes argv synchronously.
//
// With capture, stdout and stderr are drained completely (blocking until the
// process exits) before the timeout is accounted for; a run that overshot the
// timeout is then reported as timed out, with the captured output attached,
// even though the process has already exited with a real code; that code is
// discarded so callers see the same sentinel in both modes.
// Without capture and with a timeout, the process is polled every
// PollInterval and sent TerminateSignal once the timeout has elapsed; the
// call returns immediately afterwards with TimedOut set.
func (r *Runner) Run(ctx context.Context, argv []string, opts sshrpc.RunOptions) (*sshrpc.Result, error) {
	opts = r.withDefaults(opts)

	argv, err := r.resolveArgv(argv, opts.Shell)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer

	streams := sshrpc.StartOptions{Stdout: r.cfg.stdout, Stderr: r.cfg.stderr}
	if opts.Capture {
		streams = sshrpc.StartOptions{Stdout: &stdout, Stderr: &stderr}
	}

	proc, err := r.start(argv, streams)
	if err != nil {
		return nil, err
	}

	res, err := r.await(ctx, proc, opts)
	if err != nil {
		return nil, err
	}

	if opts.Capture {
		res.Stdout = stdout.Bytes()
		res.Stderr = stderr.Bytes()
	}

	return res, nil
}

// Start begins command execution asynchronously.
// Caller must close/wait on the returned Process.
func (r *Runner) Start(_ context.Context, argv []string, opts sshrpc.StartOptions) (sshrpc.Process, error) {
	argv, err := r.resolveArgv(argv, false)
	if err != nil {
		return nil, err
	}

	return r.start(argv, opts)
}

// ActiveProcesses returns the number of currently running commands.
func (r *Runner) ActiveProcesses() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active
}

// Close shuts down the runner.
// New Run/Start calls will fail. Running processes are left alone.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	return nil
}

func (r *Runner) start(argv []string, streams sshrpc.StartOptions) (*Process, error) {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()

		return nil, &sshrpc.ExecError{Argv: argv, Err: errors.New("runner is closed")}
	}

	r.active++
	r.mu.Unlock()

	proc := &Process{
		runner: r,
		argv:   argv,
	}

	if err := proc.start(streams); err != nil {
		r.decrementActive()

		return nil, &sshrpc.ExecError{Argv: argv, Err: err}
	}

	return proc, nil
}

// await waits for proc according to opts. See Run for the semantics.
func (r *Runner) await(ctx context.Context, proc *Process, opts sshrpc.RunOptions) (*sshrpc.Result, error) {
	if opts.Capture || opts.Timeout <= 0 {
		select {
		case <-proc.done:
		case <-ctx.Done():
			_ = proc.Signal(opts.TerminateSignal)

			return nil, ctx.Err()
		}

		if err := proc.Wait(); err != nil {
			return nil, err
		}

		res := proc.Result()
		if opts.Timeout > 0 && res.Duration > opts.Timeout {
			late := timedOut(res.Duration)
			late.Stdout, late.Stderr = res.Stdout, res.Stderr

			return late, nil
		}

		return res, nil
	}

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-proc.done:
			if err := proc.Wait(); err != nil {
				return nil, err
			}

			return proc.Result(), nil
		case <-ctx.Done():
			_ = proc.Signal(opts.TerminateSignal)

			return nil, ctx.Err()
		case <-ticker.C:
			elapsed := time.Since(proc.started)
			if elapsed <= opts.Timeout || proc.exited() {
				continue
			}

			// One termination attempt; whether the process honours it is not our concern.
			_ = proc.Signal(opts.TerminateSignal)

			return timedOut(elapsed), nil
		}
	}
}

func (r *Runner) withDefaults(opts sshrpc.RunOptions) sshrpc.RunOptions {
	if opts.PollInterval <= 0 {
		opts.PollInterval = r.cfg.pollInterval
	}

	if opts.TerminateSignal == nil {
		opts.TerminateSignal = r.cfg.terminateSignal
	}

	return opts
}

func (r *Runner) resolveArgv(argv []string, shell bool) ([]string, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, &sshrpc.ExecError{Argv: argv, Err: errors.New("empty argument vector")}
	}

	if shell {
		return []string{r.cfg.shell, "-c", strings.Join(argv, " ")}, nil
	}

	// Copy so later caller mutations never affect a running process.
	return append([]string(nil), argv...), nil
}

func (r *Runner) decrementActive() {
	r.mu.Lock()
	r.active--
	r.mu.Unlock()
}

func timedOut(elapsed time.Duration) *sshrpc.Result {
	return &sshrpc.Result{
		ExitCode: sshrpc.NoExitCode,
		TimedOut: true,
		Duration: elapsed,
	}
}

// String describes the runner for logs.
func (r *Runner) String() string {
	return fmt.Sprintf("runner(poll=%s, signal=%v)", r.cfg.pollInterval, r.cfg.terminateSignal)
}
