package sshrpc_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ruffel/sshrpc"
	"github.com/ruffel/sshrpc/runner"
)

func ExampleExecutor_Output_local() {
	// runner.Target runs the same remote command line through the local sh.
	target := runner.NewTarget(runner.New(), nil)

	defer func() { _ = target.Close() }()

	exec := sshrpc.NewExecutor(target)

	out, err := exec.Output(context.Background(), "echo $GREETING", sshrpc.WithEnv("GREETING", "hello world"))
	if err != nil {
		panic(err)
	}

	fmt.Println(out)
	// Output: hello world
}

func ExampleMismatchError() {
	target := runner.NewTarget(runner.New(), nil)

	defer func() { _ = target.Close() }()

	_, err := target.Execute(context.Background(), sshrpc.NewCommand("exit 3"))

	var mismatch *sshrpc.MismatchError
	if errors.As(err, &mismatch) {
		fmt.Printf("expected %d, observed %d\n", mismatch.Expected, mismatch.Observed)
	}
	// Output: expected 0, observed 3
}

func ExampleCommand_RemoteLine() {
	cmd := sshrpc.NewCommand("tar czf /tmp/app.tgz .",
		sshrpc.WithDir("/srv/my app"),
		sshrpc.WithEnv("GZIP", "-9 -n"),
		sshrpc.WithTimeout(time.Minute),
	)

	fmt.Println(cmd.RemoteLine(sshrpc.EscapeSpaces))
	fmt.Println(cmd.RemoteLine(sshrpc.QuoteShell))
	// Output:
	// cd /srv/my\ app && GZIP=-9\ -n tar czf /tmp/app.tgz .
	// cd '/srv/my app' && GZIP='-9 -n' tar czf /tmp/app.tgz .
}

func ExampleCmd() {
	cmd := sshrpc.Cmd("systemctl").
		Args("restart", "nginx").
		Sudo().
		Build()

	fmt.Println(cmd.RemoteLine(nil))
	// Output: sudo -n -- sh -c 'systemctl restart nginx'
}
