package sshrpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result Result
		want   bool
	}{
		{
			name:   "success",
			result: Result{ExitCode: 0},
			want:   true,
		},
		{
			name:   "non-zero exit",
			result: Result{ExitCode: 1},
			want:   false,
		},
		{
			name:   "timed out",
			result: Result{ExitCode: NoExitCode, TimedOut: true},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.result.Success())
			assert.Equal(t, !tt.want, tt.result.Failed())
		})
	}
}

func TestResult_Observed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", (&Result{}).Observed())
	assert.Equal(t, "127", (&Result{ExitCode: 127}).Observed())
	assert.Equal(t, "timeout", (&Result{ExitCode: NoExitCode, TimedOut: true}).Observed())
}

func TestCommand_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmd     *Command
		wantErr bool
	}{
		{"nil", nil, true},
		{"empty", &Command{}, true},
		{"blank", &Command{Cmd: "   "}, true},
		{"plain", &Command{Cmd: "ls -l"}, false},
		{"env ok", &Command{Cmd: "env", Env: map[string]string{"FOO": "bar baz"}}, false},
		{"env key with space", &Command{Cmd: "env", Env: map[string]string{"BAD KEY": "x"}}, true},
		{"env key with equals", &Command{Cmd: "env", Env: map[string]string{"A=B": "x"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cmd.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCommand_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "uptime", (&Command{Cmd: "uptime"}).String())
	assert.Equal(t, `printf %s "a b"`, (&Command{Cmd: "printf", Args: []string{"%s", "a b"}}).String())
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		wantCmd  string
		wantArgs []string
		wantErr  bool
	}{
		{"ls -la", "ls", []string{"-la"}, false},
		{`echo "hello world"`, "echo", []string{"hello world"}, false},
		{`grep -e 'a b' file`, "grep", []string{"-e", "a b", "file"}, false},
		{"uptime", "uptime", []string{}, false},
		{"", "", nil, true},
		{`echo "unterminated`, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			cmd, err := ParseCommand(tt.input)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCmd, cmd.Cmd)
			assert.Equal(t, tt.wantArgs, cmd.Args)
		})
	}
}

func TestParseSSHArgs(t *testing.T) {
	t.Parallel()

	args, err := ParseSSHArgs(`-A -o "ProxyJump=bastion" -o ServerAliveCountMax=3`)
	require.NoError(t, err)
	assert.Equal(t, []string{"-A", "-o", "ProxyJump=bastion", "-o", "ServerAliveCountMax=3"}, args)

	_, err = ParseSSHArgs(`-o "broken`)
	require.Error(t, err)
}

func TestErrors(t *testing.T) {
	t.Parallel()

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()

		err := error(&MismatchError{Command: "exit 3", Expected: 0, Observed: 3})
		assert.Equal(t, `command "exit 3" did not return 0: result=3`, err.Error())
		assert.False(t, errors.Is(err, ErrTimedOut))
	})

	t.Run("mismatch timed out", func(t *testing.T) {
		t.Parallel()

		err := error(&MismatchError{Command: "sleep 9", Observed: NoExitCode, TimedOut: true})
		assert.Contains(t, err.Error(), "result=timeout")
		assert.ErrorIs(t, err, ErrTimedOut)
	})

	t.Run("exec", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("executable file not found")
		err := error(&ExecError{Argv: []string{"ssh", "-V"}, Err: cause})
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "ssh -V")
	})

	t.Run("teardown", func(t *testing.T) {
		t.Parallel()

		err := &TeardownError{Host: "db01", ExitCode: 255, Stderr: []byte("Control socket connect: No such file\n")}
		assert.Equal(t, "teardown of master connection to db01 exited with code 255: Control socket connect: No such file", err.Error())

		cause := errors.New("signal: killed")
		wrapped := &TeardownError{Host: "db01", ExitCode: NoExitCode, Err: cause}
		assert.ErrorIs(t, wrapped, cause)
	})
}
