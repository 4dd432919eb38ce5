package mock

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ruffel/sshrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner(t *testing.T) {
	t.Parallel()

	r := New()
	r.OnRun(ArgvPrefix("ssh", "-V")).Return(Captured(0, "", "OpenSSH_9.6p1"), nil)
	r.OnRun(ArgvSuffix("host", "false")).Return(nil, errors.New("boom"))

	res, err := r.Run(context.Background(), []string{"ssh", "-V"}, sshrpc.RunOptions{Capture: true})
	require.NoError(t, err)
	assert.Equal(t, "OpenSSH_9.6p1", string(res.Stderr))

	_, err = r.Run(context.Background(), []string{"ssh", "-q", "host", "false"}, sshrpc.RunOptions{})
	require.EqualError(t, err, "boom")

	r.AssertExpectations(t)
}

func TestProcess(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	r := New()
	proc := &Process{}
	proc.On("Wait").Run(WriteOutput(&out, "hello")).Return(nil)
	proc.On("Result").Return(Exited(0))

	r.OnStart(ArgvContains("-fnN")).Return(proc, nil)

	p, err := r.Start(context.Background(), []string{"ssh", "-fnN", "host"}, sshrpc.StartOptions{})
	require.NoError(t, err)
	require.NoError(t, p.Wait())
	assert.Equal(t, 0, p.Result().ExitCode)
	assert.Equal(t, "hello", out.String())
}

func TestMatchers(t *testing.T) {
	t.Parallel()

	argv := []string{"ssh", "-q", "host", "echo hi"}

	assert.True(t, ArgvPrefix("ssh", "-q")(argv))
	assert.False(t, ArgvPrefix("rsync")(argv))
	assert.True(t, ArgvSuffix("host", "echo hi")(argv))
	assert.True(t, ArgvContains("-q", "host")(argv))
	assert.False(t, ArgvContains("-S")(argv))
	assert.True(t, LastArgContains("echo")(argv))
	assert.True(t, TimedOut().TimedOut)
}
