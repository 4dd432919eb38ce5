package sshrpc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/shlex"
)

// NoExitCode is the exit code reported when a timeout fired before the process finished.
const NoExitCode = -1

// DefaultPollInterval is how often a process with a timeout is checked for completion.
const DefaultPollInterval = 200 * time.Millisecond

// Command configures a remote execution request.
type Command struct {
	Cmd  string            // Raw command text, or the binary when Args is set
	Args []string          // Arguments; each one is escaped when the remote line is built
	Dir  string            // Remote working directory (cd before running)
	Env  map[string]string // Environment assignments prefixed to the command

	// Capture, if set, receives stdout/stderr once the command completes.
	Capture *Capture

	// Timeout bounds the wall-clock run time. Zero means unbounded.
	Timeout time.Duration

	// SSHArgs are extra transport arguments for this invocation only.
	SSHArgs []string

	// ExpectedReturn is the exit code the caller considers success (default 0).
	ExpectedReturn int

	// Sudo wraps the remote command in "sudo -n" when set.
	Sudo *SudoConfig
}

// Validate checks that the command is well-formed.
// Returns an error if the command is nil or has an empty command text.
func (c *Command) Validate() error {
	if c == nil {
		return errors.New("command cannot be nil")
	}

	if strings.TrimSpace(c.Cmd) == "" {
		return errors.New("command text cannot be empty")
	}

	for k := range c.Env {
		if k == "" || strings.ContainsAny(k, "= \t\n") {
			return fmt.Errorf("invalid environment variable name %q", k)
		}
	}

	return nil
}

// NewCommand creates a Command from raw command text and applies opts.
func NewCommand(text string, opts ...ExecOption) *Command {
	cmd := &Command{Cmd: text}
	for _, o := range opts {
		o(cmd)
	}

	return cmd
}

// String returns a simplified, shell-quoted string representation of the command.
func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Cmd
	}

	var b strings.Builder
	b.WriteString(c.Cmd)

	for _, arg := range c.Args {
		b.WriteString(" ")

		if strings.Contains(arg, " ") {
			fmt.Fprintf(&b, "%q", arg)
		} else {
			b.WriteString(arg)
		}
	}

	return b.String()
}

// ParseCommand parses a shell command string into an argument-vector Command using shlex.
// It handles quoted arguments correctly.
func ParseCommand(cmdStr string) (*Command, error) {
	parts, err := shlex.Split(cmdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}

	return &Command{
		Cmd:  parts[0],
		Args: parts[1:],
	}, nil
}

// ParseSSHArgs splits a transport argument string such as "-o Foo=bar -A" into a slice.
func ParseSSHArgs(s string) ([]string, error) {
	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh args: %w", err)
	}

	return args, nil
}

// Capture receives the output of a single execution.
type Capture struct {
	Stdout string
	Stderr string
}

// Result contains metadata about a completed (or timed out) execution.
type Result struct {
	ExitCode int           // Process exit code, or NoExitCode when TimedOut
	TimedOut bool          // The timeout fired before the process reported completion
	Duration time.Duration // Time taken for execution

	// Captured output, only populated when capture was requested.
	Stdout []byte
	Stderr []byte
}

// Success returns true if the command completed with exit code 0.
func (r *Result) Success() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// Failed returns true if the command did not complete with exit code 0.
func (r *Result) Failed() bool {
	return !r.Success()
}

// Observed returns a printable form of the outcome ("0", "127", "timeout").
func (r *Result) Observed() string {
	if r.TimedOut {
		return "timeout"
	}

	return fmt.Sprintf("%d", r.ExitCode)
}

// RunOptions controls a single Runner.Run invocation.
type RunOptions struct {
	Capture bool          // Drain stdout/stderr into Result.Stdout/Stderr
	Shell   bool          // Join argv and run it through /bin/sh -c
	Timeout time.Duration // Zero means unbounded

	// PollInterval is how often the process is checked while a timeout is set.
	PollInterval time.Duration

	// TerminateSignal is sent to the process group when the timeout fires.
	TerminateSignal os.Signal
}

// StartOptions controls a background Runner.Start invocation.
// If a stream is nil it is connected to the null device.
type StartOptions struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}
