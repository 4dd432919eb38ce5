package sshrpc

import (
	"time"
)

// ExecOption defines a functional option for an execution request.
type ExecOption func(*Command)

// SudoConfig defines advanced privilege escalation options.
type SudoConfig struct {
	User        string   // Target user (-u)
	Group       string   // Target group (-g)
	PreserveEnv bool     // Preserve environment (-E)
	CustomFlags []string // Additional flags
}

// SudoOption defines a functional option for sudo configuration.
type SudoOption func(*SudoConfig)

// WithDir runs the command after changing into dir on the remote host.
func WithDir(dir string) ExecOption {
	return func(c *Command) {
		c.Dir = dir
	}
}

// WithEnv adds a single environment assignment. A repeated key replaces the earlier value.
func WithEnv(key, value string) ExecOption {
	return func(c *Command) {
		if c.Env == nil {
			c.Env = make(map[string]string)
		}

		c.Env[key] = value
	}
}

// WithEnvMap merges env into the command's environment assignments.
func WithEnvMap(env map[string]string) ExecOption {
	return func(c *Command) {
		for k, v := range env {
			WithEnv(k, v)(c)
		}
	}
}

// WithCapture populates capture with stdout and stderr once the command completes.
func WithCapture(capture *Capture) ExecOption {
	return func(c *Command) {
		c.Capture = capture
	}
}

// WithTimeout terminates the command once d has elapsed. Zero disables the timeout.
func WithTimeout(d time.Duration) ExecOption {
	return func(c *Command) {
		c.Timeout = d
	}
}

// WithSSHArgs appends extra transport arguments for this invocation only.
func WithSSHArgs(args ...string) ExecOption {
	return func(c *Command) {
		c.SSHArgs = append(c.SSHArgs, args...)
	}
}

// WithExpectedReturn sets the exit code that counts as success.
func WithExpectedReturn(code int) ExecOption {
	return func(c *Command) {
		c.ExpectedReturn = code
	}
}

// WithSudo wraps the command in sudo.
func WithSudo(opts ...SudoOption) ExecOption {
	return func(c *Command) {
		if c.Sudo == nil {
			c.Sudo = &SudoConfig{}
		}
		for _, o := range opts {
			o(c.Sudo)
		}
	}
}

// WithSudoUser sets the target user.
func WithSudoUser(user string) SudoOption {
	return func(s *SudoConfig) {
		s.User = user
	}
}

// WithSudoPreserveEnv preserves the environment.
func WithSudoPreserveEnv() SudoOption {
	return func(s *SudoConfig) {
		s.PreserveEnv = true
	}
}
