package runner

import (
	"io"
	"os"
	"time"

	"github.com/ruffel/sshrpc"
)

// Config holds configuration for the runner.
type Config struct {
	pollInterval    time.Duration
	terminateSignal os.Signal
	shell           string
	stdout          io.Writer
	stderr          io.Writer
}

// Option defines a functional option for the runner.
type Option func(*Config)

// WithPollInterval sets the default poll interval used while a timeout is set.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithTerminateSignal sets the default signal sent when a timeout fires.
func WithTerminateSignal(sig os.Signal) Option {
	return func(c *Config) {
		if sig != nil {
			c.terminateSignal = sig
		}
	}
}

// WithShell sets the shell used for RunOptions.Shell (default /bin/sh).
func WithShell(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.shell = path
		}
	}
}

// WithOutput sets where uncaptured stdout/stderr go (default: the parent's stdio).
// Use *os.File values: a background ssh (-f) keeps the descriptors open, and a
// non-file writer would make Wait block until that background process exits.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Config) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// API compatibility check.
var _ sshrpc.Runner = (*Runner)(nil)
