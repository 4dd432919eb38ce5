package sshrpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTarget is a testify mock for Target.
type MockTarget struct {
	mock.Mock
}

func (m *MockTarget) Execute(ctx context.Context, cmd *Command) (*Result, error) {
	args := m.Called(ctx, cmd)
	if r := args.Get(0); r != nil {
		return r.(*Result), args.Error(1)
	}

	return nil, args.Error(1)
}

func commandText(text string) any {
	return mock.MatchedBy(func(c *Command) bool { return c.Cmd == text })
}

func TestExecutor_Run(t *testing.T) {
	t.Parallel()

	target := &MockTarget{}
	target.On("Execute", mock.Anything, mock.MatchedBy(func(c *Command) bool {
		return c.Cmd == "make build" && c.Dir == "/src" && c.ExpectedReturn == 2
	})).Return(&Result{ExitCode: 2}, nil).Once()

	exec := NewExecutor(target)
	assert.Same(t, target, exec.Target())

	res, err := exec.Run(context.Background(), "make build", WithDir("/src"), WithExpectedReturn(2))
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExitCode)
	target.AssertExpectations(t)
}

func TestExecutor_Output(t *testing.T) {
	t.Parallel()

	t.Run("trims trailing whitespace", func(t *testing.T) {
		t.Parallel()

		target := &MockTarget{}
		target.On("Execute", mock.Anything, commandText("hostname")).
			Run(func(args mock.Arguments) {
				cmd := args.Get(1).(*Command)
				cmd.Capture.Stdout = "  db01 \n"
			}).
			Return(&Result{}, nil)

		out, err := NewExecutor(target).Output(context.Background(), "hostname")
		require.NoError(t, err)
		assert.Equal(t, "  db01", out)
	})

	t.Run("error discards output", func(t *testing.T) {
		t.Parallel()

		target := &MockTarget{}
		target.On("Execute", mock.Anything, commandText("false")).
			Return(&Result{ExitCode: 1}, &MismatchError{Command: "false", Observed: 1})

		out, err := NewExecutor(target).Output(context.Background(), "false")
		require.Error(t, err)
		assert.Empty(t, out)
	})
}

func TestExecutor_Succeeds(t *testing.T) {
	t.Parallel()

	spawnErr := &ExecError{Argv: []string{"ssh"}, Err: errors.New("not found")}

	tests := []struct {
		name    string
		res     *Result
		err     error
		want    bool
		wantErr error
	}{
		{
			name: "zero",
			res:  &Result{},
			want: true,
		},
		{
			name: "non-zero",
			res:  &Result{ExitCode: 1},
			err:  &MismatchError{Command: "test -e /x", Observed: 1},
			want: false,
		},
		{
			name:    "timeout is an error",
			res:     &Result{ExitCode: NoExitCode, TimedOut: true},
			err:     &MismatchError{Command: "test -e /x", Observed: NoExitCode, TimedOut: true},
			wantErr: ErrTimedOut,
		},
		{
			name:    "spawn failure is an error",
			err:     spawnErr,
			wantErr: spawnErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target := &MockTarget{}
			target.On("Execute", mock.Anything, commandText("test -e /x")).Return(tt.res, tt.err)

			ok, err := NewExecutor(target).Succeeds(context.Background(), "test -e /x")
			assert.Equal(t, tt.want, ok)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
