// Package runner implements sshrpc.Runner on top of the standard library's
// "os/exec" package.
//
// It adds what the session needs from a local process: optional capture of
// stdout/stderr, a wall-clock timeout enforced by polling at a fixed interval,
// a single forced termination when the budget is exhausted, and background
// starts for long-lived processes such as the ssh master connection.
//
// Usage:
//
//	r := runner.New()
//	res, _ := r.Run(ctx, []string{"sleep", "5"}, sshrpc.RunOptions{Timeout: time.Second})
//	_ = res.TimedOut // true
package runner
