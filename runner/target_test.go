//go:build !windows

package runner

import (
	"context"
	"testing"
	"time"

	"github.com/ruffel/sshrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarget_Execute(t *testing.T) {
	t.Parallel()

	target := NewTarget(New(WithOutput(nil, nil)), nil)
	ctx := context.Background()

	t.Run("true", func(t *testing.T) {
		t.Parallel()

		res, err := target.Execute(ctx, sshrpc.NewCommand("true"))
		require.NoError(t, err)
		assert.Equal(t, 0, res.ExitCode)
	})

	t.Run("escaped environment value", func(t *testing.T) {
		t.Parallel()

		var capture sshrpc.Capture

		_, err := target.Execute(ctx, sshrpc.NewCommand("echo $FOO",
			sshrpc.WithEnv("FOO", "bar baz"),
			sshrpc.WithCapture(&capture),
		))
		require.NoError(t, err)
		assert.Equal(t, "bar baz\n", capture.Stdout)
	})

	t.Run("working directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()

		var capture sshrpc.Capture

		_, err := target.Execute(ctx, sshrpc.NewCommand("pwd", sshrpc.WithDir(dir), sshrpc.WithCapture(&capture)))
		require.NoError(t, err)
		assert.Contains(t, capture.Stdout, dir)
	})

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()

		res, err := target.Execute(ctx, sshrpc.NewCommand("exit 3"))

		var mismatch *sshrpc.MismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 3, mismatch.Observed)
		assert.Equal(t, 3, res.ExitCode)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		res, err := target.Execute(ctx, sshrpc.NewCommand("sleep 5", sshrpc.WithTimeout(200*time.Millisecond)))
		require.ErrorIs(t, err, sshrpc.ErrTimedOut)
		assert.True(t, res.TimedOut)
	})
}

func TestTarget_Close(t *testing.T) {
	t.Parallel()

	target := NewTarget(New(), sshrpc.QuoteShell)
	require.NoError(t, target.Close())
	require.NoError(t, target.Close())

	_, err := target.Execute(context.Background(), sshrpc.NewCommand("true"))
	require.ErrorIs(t, err, sshrpc.ErrSessionClosed)
}
