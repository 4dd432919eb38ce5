package sshrpctest

import (
	"context"

	"github.com/google/uuid"
	"github.com/ruffel/sshrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func environmentContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryEnvironment,
			Name:        "value-with-space",
			Description: "An environment value containing a space reaches the command intact",
			Run: func(t T, target sshrpc.Target) {
				out, err := sshrpc.NewExecutor(target).Output(t.Context(), "echo $FOO", sshrpc.WithEnv("FOO", "bar baz"))
				require.NoError(t, err)
				assert.Equal(t, "bar baz", out)
			},
		},
		{
			Category:    CategoryEnvironment,
			Name:        "multiple-values",
			Description: "Several assignments apply to the same command",
			Run: func(t T, target sshrpc.Target) {
				out, err := sshrpc.NewExecutor(target).Output(t.Context(), "echo $A-$B",
					sshrpc.WithEnvMap(map[string]string{"B": "two", "A": "one"}),
				)
				require.NoError(t, err)
				assert.Equal(t, "one-two", out)
			},
		},
		{
			Category:    CategoryEnvironment,
			Name:        "working-directory",
			Description: "The command runs inside the requested directory",
			Run: func(t T, target sshrpc.Target) {
				exec := sshrpc.NewExecutor(target)
				dir := scratchDir(t, exec)

				out, err := exec.Output(t.Context(), "pwd", sshrpc.WithDir(dir))
				require.NoError(t, err)
				assert.Equal(t, dir, out)
			},
		},
		{
			Category:    CategoryEnvironment,
			Name:        "directory-and-env",
			Description: "Directory change and environment combine on one command line",
			Run: func(t T, target sshrpc.Target) {
				exec := sshrpc.NewExecutor(target)
				dir := scratchDir(t, exec)

				_, err := exec.Run(t.Context(), "echo $MSG > out.txt", sshrpc.WithDir(dir), sshrpc.WithEnv("MSG", "hello there"))
				require.NoError(t, err)

				out, err := exec.Output(t.Context(), "cat "+sshrpc.QuoteShell(dir+"/out.txt"))
				require.NoError(t, err)
				assert.Equal(t, "hello there", out)
			},
		},
	}
}

// scratchDir creates a uniquely named directory under /tmp on the target.
// It is removed once the contract returns.
func scratchDir(t T, exec *sshrpc.Executor) string {
	dir := "/tmp/sshrpc-contract-" + uuid.NewString()

	_, err := exec.Run(t.Context(), "mkdir -p "+dir)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = exec.Run(context.Background(), "rm -rf "+dir)
	})

	return dir
}
