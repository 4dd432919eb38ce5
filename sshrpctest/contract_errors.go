package sshrpctest

import (
	"errors"

	"github.com/ruffel/sshrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mismatchCode = 13

func errorContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryErrors,
			Name:        "mismatch-carries-context",
			Description: "An unexpected exit code yields a MismatchError naming command, expected and observed",
			Run: func(t T, target sshrpc.Target) {
				res, err := target.Execute(t.Context(), sshrpc.NewCommand("exit 13"))
				require.Error(t, err)

				var mismatch *sshrpc.MismatchError
				require.ErrorAs(t, err, &mismatch)

				assert.Equal(t, 0, mismatch.Expected)
				assert.Equal(t, mismatchCode, mismatch.Observed)
				assert.False(t, mismatch.TimedOut)
				assert.Contains(t, mismatch.Command, "exit 13")
				assert.NotErrorIs(t, err, sshrpc.ErrTimedOut)

				require.NotNil(t, res)
				assert.Equal(t, mismatchCode, res.ExitCode)
			},
		},
		{
			Category:    CategoryErrors,
			Name:        "zero-when-nonzero-expected",
			Description: "Exit code 0 is a mismatch when another code is expected",
			Run: func(t T, target sshrpc.Target) {
				_, err := target.Execute(t.Context(), sshrpc.NewCommand("true", sshrpc.WithExpectedReturn(1)))

				var mismatch *sshrpc.MismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, 1, mismatch.Expected)
				assert.Equal(t, 0, mismatch.Observed)
			},
		},
		{
			Category:    CategoryErrors,
			Name:        "command-not-found",
			Description: "A missing remote command is an ordinary mismatch with code 127",
			Run: func(t T, target sshrpc.Target) {
				var capture sshrpc.Capture

				_, err := target.Execute(t.Context(), sshrpc.NewCommand("sshrpc-no-such-command", sshrpc.WithCapture(&capture)))

				var mismatch *sshrpc.MismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, 127, mismatch.Observed)
			},
		},
		{
			Category:    CategoryErrors,
			Name:        "empty-command-rejected",
			Description: "An empty command is rejected before anything runs",
			Run: func(t T, target sshrpc.Target) {
				_, err := target.Execute(t.Context(), sshrpc.NewCommand(""))
				require.Error(t, err)

				var mismatch *sshrpc.MismatchError
				assert.False(t, errors.As(err, &mismatch), "validation errors are not mismatches")
			},
		},
		{
			Category:    CategoryErrors,
			Name:        "succeeds-false",
			Description: "Succeeds reports false for a plain non-zero exit without an error",
			Run: func(t T, target sshrpc.Target) {
				ok, err := sshrpc.NewExecutor(target).Succeeds(t.Context(), "false")
				require.NoError(t, err)
				assert.False(t, ok)
			},
		},
	}
}
