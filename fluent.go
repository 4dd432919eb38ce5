package sshrpc

import (
	"time"
)

// Builder provides a fluent API for constructing Commands.
type Builder struct {
	cmd *Command
}

// Cmd creates a new Builder for raw command text or a binary name.
func Cmd(text string) *Builder {
	return &Builder{
		cmd: &Command{
			Cmd: text,
		},
	}
}

// Arg adds a single argument.
func (b *Builder) Arg(arg string) *Builder {
	b.cmd.Args = append(b.cmd.Args, arg)
	return b
}

// Args adds multiple arguments.
func (b *Builder) Args(args ...string) *Builder {
	b.cmd.Args = append(b.cmd.Args, args...)
	return b
}

// Env adds an environment assignment.
func (b *Builder) Env(key, value string) *Builder {
	WithEnv(key, value)(b.cmd)
	return b
}

// Dir sets the remote working directory.
func (b *Builder) Dir(dir string) *Builder {
	b.cmd.Dir = dir
	return b
}

// Capture sets the capture target for stdout and stderr.
func (b *Builder) Capture(c *Capture) *Builder {
	b.cmd.Capture = c
	return b
}

// Timeout sets the wall-clock timeout.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.cmd.Timeout = d
	return b
}

// SSHArgs adds per-call transport arguments.
func (b *Builder) SSHArgs(args ...string) *Builder {
	b.cmd.SSHArgs = append(b.cmd.SSHArgs, args...)
	return b
}

// Expect sets the expected exit code.
func (b *Builder) Expect(code int) *Builder {
	b.cmd.ExpectedReturn = code
	return b
}

// Sudo wraps the command in sudo.
func (b *Builder) Sudo(opts ...SudoOption) *Builder {
	WithSudo(opts...)(b.cmd)
	return b
}

// Build returns the constructed Command.
func (b *Builder) Build() *Command {
	return b.cmd
}
