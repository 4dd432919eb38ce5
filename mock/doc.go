// Package mock provides testify-based implementations of sshrpc.Runner and
// sshrpc.Process for unit testing code that drives the ssh client binary.
//
// Usage:
//
//	r := mock.New()
//	r.OnRun(mock.ArgvPrefix("ssh", "-V")).Return(mock.Captured(0, "", "OpenSSH_9.6p1"), nil)
//	sess, _ := session.New(cfg, session.WithRunner(r))
package mock
