package sshrpctest

import (
	"strconv"

	"github.com/ruffel/sshrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coreContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryCore,
			Name:        "true-exits-zero",
			Description: "A command that succeeds reports exit code 0 and no error",
			Run: func(t T, target sshrpc.Target) {
				res, err := target.Execute(t.Context(), sshrpc.NewCommand("true"))
				require.NoError(t, err)
				require.NotNil(t, res)

				assert.Equal(t, 0, res.ExitCode)
				assert.False(t, res.TimedOut)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "expected-return-honoured",
			Description: "A non-zero exit code equal to ExpectedReturn is success",
			Run: func(t T, target sshrpc.Target) {
				res, err := target.Execute(t.Context(), sshrpc.NewCommand("exit 3", sshrpc.WithExpectedReturn(3)))
				require.NoError(t, err)
				assert.Equal(t, 3, res.ExitCode)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "argv-arguments",
			Description: "Arguments of an argument-vector command arrive as separate words",
			Run: func(t T, target sshrpc.Target) {
				var capture sshrpc.Capture

				cmd, err := sshrpc.ParseCommand("printf %s- one 'two three'")
				require.NoError(t, err)

				cmd.Capture = &capture

				_, err = target.Execute(t.Context(), cmd)
				require.NoError(t, err)
				assert.Equal(t, "one-two three-", capture.Stdout)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "sequential-reuse",
			Description: "A target runs many commands without re-opening",
			Run: func(t T, target sshrpc.Target) {
				exec := sshrpc.NewExecutor(target)

				for i := range 5 {
					out, err := exec.Output(t.Context(), "echo run-"+strconv.Itoa(i))
					require.NoError(t, err)
					assert.Equal(t, "run-"+strconv.Itoa(i), out)
				}
			},
		},
	}
}
