package sshrpctest

import (
	"github.com/ruffel/sshrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryCapture,
			Name:        "stdout-exact",
			Description: "Capture holds stdout byte-for-byte and an empty stderr",
			Run: func(t T, target sshrpc.Target) {
				var capture sshrpc.Capture

				res, err := target.Execute(t.Context(), sshrpc.NewCommand("printf hi", sshrpc.WithCapture(&capture)))
				require.NoError(t, err)

				assert.Equal(t, 0, res.ExitCode)
				assert.Equal(t, sshrpc.Capture{Stdout: "hi", Stderr: ""}, capture)
			},
		},
		{
			Category:    CategoryCapture,
			Name:        "stderr-separate",
			Description: "Stdout and stderr are captured into separate fields",
			Run: func(t T, target sshrpc.Target) {
				var capture sshrpc.Capture

				_, err := target.Execute(t.Context(), sshrpc.NewCommand("echo out; echo err >&2", sshrpc.WithCapture(&capture)))
				require.NoError(t, err)

				assert.Equal(t, "out\n", capture.Stdout)
				assert.Equal(t, "err\n", capture.Stderr)
			},
		},
		{
			Category:    CategoryCapture,
			Name:        "populated-on-mismatch",
			Description: "Capture is filled before the exit code is compared",
			Run: func(t T, target sshrpc.Target) {
				var capture sshrpc.Capture

				_, err := target.Execute(t.Context(), sshrpc.NewCommand("echo partial; echo broken >&2; exit 4", sshrpc.WithCapture(&capture)))
				require.Error(t, err)

				assert.Equal(t, "partial\n", capture.Stdout)
				assert.Equal(t, "broken\n", capture.Stderr)

				var mismatch *sshrpc.MismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, []byte("broken\n"), mismatch.Stderr)
			},
		},
		{
			Category:    CategoryCapture,
			Name:        "large-output",
			Description: "Output larger than a pipe buffer is drained without deadlock",
			Run: func(t T, target sshrpc.Target) {
				var capture sshrpc.Capture

				_, err := target.Execute(t.Context(), sshrpc.NewCommand(
					"i=0; while [ $i -lt 4000 ]; do echo 0123456789abcdef0123456789abcdef; i=$((i+1)); done",
					sshrpc.WithCapture(&capture),
				))
				require.NoError(t, err)
				assert.Len(t, capture.Stdout, 4000*33)
			},
		},
	}
}
