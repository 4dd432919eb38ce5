package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"github.com/ruffel/sshrpc"
)

// closeGrace is how long Close waits for the ssh client to exit before killing it.
const closeGrace = 5 * time.Second

// Client is an sftp client speaking to the sftp subsystem through the ssh binary.
type Client struct {
	sftp   *sftp.Client
	proc   sshrpc.Process
	stdout *io.PipeReader
	exited chan struct{}
}

// Dial starts "<ssh> <args> -s <host> sftp" and performs the sftp handshake over its pipes.
func Dial(ctx context.Context, t Transport) (*Client, error) {
	argv, err := t.TransportArgv("-s")
	if err != nil {
		return nil, err
	}

	argv = append(argv, t.Host(), "sftp")

	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	var stderr bytes.Buffer

	proc, err := t.Runner().Start(ctx, argv, sshrpc.StartOptions{Stdin: stdinR, Stdout: stdoutW, Stderr: &stderr})
	if err != nil {
		_ = stdinW.Close()
		_ = stdoutR.Close()

		return nil, fmt.Errorf("failed to start sftp subsystem: %w", err)
	}

	exited := make(chan struct{})

	go func() {
		defer close(exited)

		_ = proc.Wait()
		_ = stdoutW.Close()
		_ = stdinR.Close()
	}()

	c, err := newClient(stdoutR, stdinW)
	if err != nil {
		_ = stdinW.Close()
		_ = stdoutR.Close()

		waitOrKill(proc, exited)

		if s := strings.TrimSpace(stderr.String()); s != "" {
			return nil, fmt.Errorf("%w: %s", err, s)
		}

		return nil, err
	}

	c.proc = proc
	c.exited = exited

	return c, nil
}

// newClient performs the sftp handshake over an arbitrary pipe pair.
func newClient(rd *io.PipeReader, wr io.WriteCloser) (*Client, error) {
	client, err := sftp.NewClientPipe(rd, wr)
	if err != nil {
		return nil, fmt.Errorf("sftp handshake failed: %w", err)
	}

	return &Client{sftp: client, stdout: rd}, nil
}

// Close ends the sftp session and reaps the ssh client.
func (c *Client) Close() error {
	err := c.sftp.Close()
	_ = c.stdout.Close()

	if c.proc != nil {
		waitOrKill(c.proc, c.exited)
	}

	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

// Put uploads a single local file to remote, creating parent directories.
func (c *Client) Put(ctx context.Context, local, remote string, opts ...Option) error {
	o := apply(opts)

	src, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}

	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat local file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, use Sync for trees", local)
	}

	if dir := path.Dir(remote); dir != "." && dir != "/" {
		if err := c.sftp.MkdirAll(dir); err != nil {
			return fmt.Errorf("failed to create remote directory %s: %w", dir, err)
		}
	}

	dst, err := c.sftp.Create(remote)
	if err != nil {
		return fmt.Errorf("failed to create remote file: %w", err)
	}

	if _, err := copyWithProgress(ctx, dst, src, info.Size(), o.Progress); err != nil {
		_ = dst.Close()

		return fmt.Errorf("failed to upload %s: %w", local, err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close remote file: %w", err)
	}

	mode := o.Perm
	if mode == 0 {
		mode = info.Mode().Perm()
	}

	if err := c.sftp.Chmod(remote, mode); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", remote, err)
	}

	return nil
}

// Fetch downloads remote to local. Directories are fetched recursively.
func (c *Client) Fetch(ctx context.Context, remote, local string, opts ...Option) error {
	o := apply(opts)

	info, err := c.sftp.Stat(remote)
	if err != nil {
		return fmt.Errorf("failed to stat remote path: %w", err)
	}

	if !info.IsDir() {
		return c.fetchFile(ctx, remote, local, info.Mode().Perm(), info.Size(), o.Progress)
	}

	walker := c.sftp.Walk(remote)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return fmt.Errorf("failed to walk %s: %w", remote, err)
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(walker.Path(), remote), "/")
		target := filepath.Join(local, filepath.FromSlash(rel))

		if err := checkLocalTarget(local, target); err != nil {
			return err
		}

		st := walker.Stat()
		if st.IsDir() {
			if err := os.MkdirAll(target, st.Mode().Perm()|0o700); err != nil {
				return fmt.Errorf("failed to create local directory: %w", err)
			}

			continue
		}

		if !st.Mode().IsRegular() {
			continue
		}

		if err := c.fetchFile(ctx, walker.Path(), target, st.Mode().Perm(), st.Size(), o.Progress); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) fetchFile(ctx context.Context, remote, local string, mode os.FileMode, size int64, fn ProgressFunc) error {
	src, err := c.sftp.Open(remote)
	if err != nil {
		return fmt.Errorf("failed to open remote file: %w", err)
	}

	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return fmt.Errorf("failed to create local directory: %w", err)
	}

	dst, err := os.OpenFile(local, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}

	if _, err := copyWithProgress(ctx, dst, src, size, fn); err != nil {
		_ = dst.Close()

		return fmt.Errorf("failed to download %s: %w", remote, err)
	}

	return dst.Close()
}

// Put uploads local to remote over a short-lived sftp session.
func Put(ctx context.Context, t Transport, local, remote string, opts ...Option) error {
	c, err := Dial(ctx, t)
	if err != nil {
		return err
	}

	defer func() { _ = c.Close() }()

	return c.Put(ctx, local, remote, opts...)
}

// Fetch downloads remote to local over a short-lived sftp session.
func Fetch(ctx context.Context, t Transport, remote, local string, opts ...Option) error {
	c, err := Dial(ctx, t)
	if err != nil {
		return err
	}

	defer func() { _ = c.Close() }()

	return c.Fetch(ctx, remote, local, opts...)
}

func waitOrKill(proc sshrpc.Process, exited <-chan struct{}) {
	select {
	case <-exited:
	case <-time.After(closeGrace):
	}

	_ = proc.Close()
}
