package mock

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/ruffel/sshrpc"
	"github.com/stretchr/testify/mock"
)

// Runner implements a mock sshrpc.Runner using testify/mock.
type Runner struct {
	mock.Mock
}

var _ sshrpc.Runner = (*Runner)(nil)

// New creates a new mock runner.
func New() *Runner {
	return &Runner{}
}

// Run mocks running a process to completion.
func (m *Runner) Run(ctx context.Context, argv []string, opts sshrpc.RunOptions) (*sshrpc.Result, error) {
	args := m.Called(ctx, argv, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*sshrpc.Result), args.Error(1)
}

// Start mocks starting a process in the background.
func (m *Runner) Start(ctx context.Context, argv []string, opts sshrpc.StartOptions) (sshrpc.Process, error) {
	args := m.Called(ctx, argv, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(sshrpc.Process), args.Error(1)
}

// OnRun registers an expectation for Run calls whose argv satisfies match.
func (m *Runner) OnRun(match func([]string) bool) *mock.Call {
	return m.On("Run", mock.Anything, mock.MatchedBy(match), mock.Anything)
}

// OnStart registers an expectation for Start calls whose argv satisfies match.
func (m *Runner) OnStart(match func([]string) bool) *mock.Call {
	return m.On("Start", mock.Anything, mock.MatchedBy(match), mock.Anything)
}

// Process implements a mock sshrpc.Process using testify/mock.
type Process struct {
	mock.Mock
}

var _ sshrpc.Process = (*Process)(nil)

// Wait mocks waiting for the process to complete.
func (m *Process) Wait() error {
	args := m.Called()

	return args.Error(0)
}

// Result mocks returning the process result.
func (m *Process) Result() *sshrpc.Result {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(*sshrpc.Result)
}

// Signal mocks sending a signal to the process.
func (m *Process) Signal(sig os.Signal) error {
	args := m.Called(sig)

	return args.Error(0)
}

// Close mocks closing the process.
func (m *Process) Close() error {
	args := m.Called()

	return args.Error(0)
}

// Exited returns a result with the given exit code.
func Exited(code int) *sshrpc.Result {
	return &sshrpc.Result{ExitCode: code}
}

// Captured returns a result with the given exit code and captured output.
func Captured(code int, stdout, stderr string) *sshrpc.Result {
	return &sshrpc.Result{ExitCode: code, Stdout: []byte(stdout), Stderr: []byte(stderr)}
}

// TimedOut returns a result carrying the timeout sentinel.
func TimedOut() *sshrpc.Result {
	return &sshrpc.Result{ExitCode: sshrpc.NoExitCode, TimedOut: true}
}

// ArgvPrefix matches argument vectors starting with prefix.
func ArgvPrefix(prefix ...string) func([]string) bool {
	return func(argv []string) bool {
		return len(argv) >= len(prefix) && slices.Equal(argv[:len(prefix)], prefix)
	}
}

// ArgvSuffix matches argument vectors ending with suffix.
func ArgvSuffix(suffix ...string) func([]string) bool {
	return func(argv []string) bool {
		return len(argv) >= len(suffix) && slices.Equal(argv[len(argv)-len(suffix):], suffix)
	}
}

// ArgvContains matches argument vectors containing every word in words.
func ArgvContains(words ...string) func([]string) bool {
	return func(argv []string) bool {
		for _, w := range words {
			if !slices.Contains(argv, w) {
				return false
			}
		}

		return true
	}
}

// LastArgContains matches argument vectors whose last element contains substr.
func LastArgContains(substr string) func([]string) bool {
	return func(argv []string) bool {
		return len(argv) > 0 && strings.Contains(argv[len(argv)-1], substr)
	}
}

// WriteOutput is a helper to simulate output writing for mocked background processes.
// Usage: proc.On("Wait").Run(mock.WriteOutput(w, "output")).Return(nil).
func WriteOutput(w io.Writer, content string) func(mock.Arguments) {
	return func(_ mock.Arguments) {
		if w != nil {
			_, _ = io.WriteString(w, content)
		}
	}
}
