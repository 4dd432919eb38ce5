package sshrpctest

import (
	"errors"
	"time"

	"github.com/ruffel/sshrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timeoutContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryTimeout,
			Name:        "sentinel-not-exit-code",
			Description: "A command outliving its timeout yields the sentinel, never a real exit code",
			Run: func(t T, target sshrpc.Target) {
				start := time.Now()

				res, err := target.Execute(t.Context(), sshrpc.NewCommand("sleep 5; echo hi", sshrpc.WithTimeout(time.Second)))
				require.Error(t, err)
				assert.True(t, errors.Is(err, sshrpc.ErrTimedOut))

				require.NotNil(t, res)
				assert.True(t, res.TimedOut)
				assert.Equal(t, sshrpc.NoExitCode, res.ExitCode)
				assert.Less(t, time.Since(start), 4*time.Second)
			},
		},
		{
			Category:    CategoryTimeout,
			Name:        "fast-command-real-code",
			Description: "A command finishing inside its timeout reports its real exit code",
			Run: func(t T, target sshrpc.Target) {
				res, err := target.Execute(t.Context(), sshrpc.NewCommand("exit 7",
					sshrpc.WithTimeout(10*time.Second),
					sshrpc.WithExpectedReturn(7),
				))
				require.NoError(t, err)
				assert.False(t, res.TimedOut)
				assert.Equal(t, 7, res.ExitCode)
			},
		},
		{
			Category:    CategoryTimeout,
			Name:        "not-success",
			Description: "A timed out command is neither success nor an ordinary mismatch",
			Run: func(t T, target sshrpc.Target) {
				ok, err := sshrpc.NewExecutor(target).Succeeds(t.Context(), "sleep 5", sshrpc.WithTimeout(500*time.Millisecond))
				require.ErrorIs(t, err, sshrpc.ErrTimedOut)
				assert.False(t, ok)
			},
		},
	}
}
