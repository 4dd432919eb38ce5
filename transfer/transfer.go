// Package transfer moves files between the local machine and a session's host.
//
// Directory trees are mirrored with rsync, which is pointed at the session's
// negotiated ssh arguments so it reuses the same identity, options and master
// connection. Single files can also be pushed and fetched over the sftp
// subsystem of the same ssh client.
package transfer

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ruffel/sshrpc"
)

// Transport is what transfer needs from a session.
// *session.Session satisfies it.
type Transport interface {
	sshrpc.Target

	// Host returns the remote host as passed to the ssh client.
	Host() string

	// TransportArgv returns the ssh binary, negotiated args and extra, without the host.
	TransportArgv(extra ...string) ([]string, error)

	// Runner returns the local process runner.
	Runner() sshrpc.Runner

	// Escaper returns the quoting policy for words placed on the remote command line.
	Escaper() sshrpc.Escaper
}

// ProgressFunc is called with the number of bytes copied so far and the total
// size (0 if unknown).
type ProgressFunc func(current, total int64)

// Options configures a transfer.
type Options struct {
	Reverse  bool          // Sync: copy remote to local
	Delete   bool          // Sync: delete extraneous files on the receiving side
	Excludes []string      // Sync: rsync --exclude patterns
	Timeout  time.Duration // Sync: bound the rsync run
	Progress ProgressFunc  // Put/Fetch: byte progress
	Perm     os.FileMode   // Put: remote permissions (default: source mode)
}

// Option defines a functional option for a transfer.
type Option func(*Options)

// WithReverse mirrors the remote path onto the local path.
func WithReverse() Option {
	return func(o *Options) {
		o.Reverse = true
	}
}

// WithDelete removes files on the receiving side that do not exist on the sending side.
func WithDelete() Option {
	return func(o *Options) {
		o.Delete = true
	}
}

// WithExclude skips paths matching the rsync patterns.
func WithExclude(patterns ...string) Option {
	return func(o *Options) {
		o.Excludes = append(o.Excludes, patterns...)
	}
}

// WithTimeout bounds a sync. Zero means unbounded.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithProgress reports byte progress for Put and Fetch.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Options) {
		o.Progress = fn
	}
}

// WithPermissions sets the mode of files created by Put.
func WithPermissions(mode os.FileMode) Option {
	return func(o *Options) {
		o.Perm = mode
	}
}

func apply(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Error reports a transfer tool that ran but did not succeed.
type Error struct {
	Op       string
	Argv     []string
	ExitCode int
	TimedOut bool
	Stderr   []byte
}

func (e *Error) Error() string {
	result := fmt.Sprintf("exit code %d", e.ExitCode)
	if e.TimedOut {
		result = "timed out"
	}

	msg := fmt.Sprintf("%s failed (%s): %s", e.Op, result, strings.Join(e.Argv, " "))
	if s := strings.TrimSpace(string(e.Stderr)); s != "" {
		msg += ": " + s
	}

	return msg
}

// Is lets errors.Is(err, sshrpc.ErrTimedOut) identify a timed out transfer.
func (e *Error) Is(target error) bool {
	return e.TimedOut && target == sshrpc.ErrTimedOut
}
