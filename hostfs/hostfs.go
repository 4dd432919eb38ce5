// Package hostfs provides path helpers that run on the remote host.
//
// Every helper is an ordinary command executed through an sshrpc.Target, so
// it works against a session or any other target (including the local runner
// in tests). Paths are POSIX and are always single-quoted before they reach
// the remote shell, independently of the target's escaping policy.
package hostfs

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/ruffel/sshrpc"
)

// FS runs path operations against a target.
type FS struct {
	exec *sshrpc.Executor
}

// New creates an FS for target.
func New(target sshrpc.Target) *FS {
	return &FS{exec: sshrpc.NewExecutor(target)}
}

// Exists reports whether p exists on the remote host.
func (f *FS) Exists(ctx context.Context, p string) (bool, error) {
	if p == "" {
		return false, errors.New("path cannot be empty")
	}

	return f.exec.Succeeds(ctx, "test -e "+sshrpc.QuoteShell(p))
}

// IsDir reports whether p is a directory on the remote host.
func (f *FS) IsDir(ctx context.Context, p string) (bool, error) {
	if p == "" {
		return false, errors.New("path cannot be empty")
	}

	return f.exec.Succeeds(ctx, "test -d "+sshrpc.QuoteShell(p))
}

// Join joins remote path elements. It performs no I/O.
func Join(elem ...string) string {
	return path.Join(elem...)
}

// Abs returns an absolute, cleaned form of p. Relative paths are resolved
// against the login directory, which is where remote commands start.
func (f *FS) Abs(ctx context.Context, p string) (string, error) {
	if path.IsAbs(p) {
		return path.Clean(p), nil
	}

	cwd, err := f.exec.Output(ctx, "pwd")
	if err != nil {
		return "", fmt.Errorf("failed to resolve remote working directory: %w", err)
	}

	if !path.IsAbs(cwd) {
		return "", fmt.Errorf("unexpected remote working directory %q", cwd)
	}

	return path.Join(cwd, p), nil
}

// Copy copies src to dst on the remote host.
func (f *FS) Copy(ctx context.Context, src, dst string) error {
	if src == "" || dst == "" {
		return errors.New("source and destination cannot be empty")
	}

	_, err := f.exec.Run(ctx, "cp "+sshrpc.QuoteShell(src)+" "+sshrpc.QuoteShell(dst))
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	return nil
}

// MkdirAll creates dir and any missing parents on the remote host.
func (f *FS) MkdirAll(ctx context.Context, dir string) error {
	if dir == "" {
		return errors.New("directory cannot be empty")
	}

	if _, err := f.exec.Run(ctx, "mkdir -p "+sshrpc.QuoteShell(dir)); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return nil
}

// Remove deletes p (recursively) on the remote host.
func (f *FS) Remove(ctx context.Context, p string) error {
	if p == "" || path.Clean(p) == "/" {
		return fmt.Errorf("refusing to remove %q", p)
	}

	if _, err := f.exec.Run(ctx, "rm -rf "+sshrpc.QuoteShell(p)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}

	return nil
}
