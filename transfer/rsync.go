package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruffel/sshrpc"
	"github.com/ruffel/sshrpc/hostfs"
)

// RsyncBinary is the rsync client looked up on PATH.
const RsyncBinary = "rsync"

// Sync mirrors local to remote with rsync (remote to local WithReverse).
//
// A forward sync creates the remote directory first; a reverse sync creates
// the local path if it does not exist. An empty remote means the login directory.
func Sync(ctx context.Context, t Transport, local, remote string, opts ...Option) error {
	o := apply(opts)

	localPath, err := expandLocal(local)
	if err != nil {
		return err
	}

	argv, err := rsyncArgv(t, o)
	if err != nil {
		return err
	}

	remoteSpec := t.Host() + ":"
	if remote != "" {
		remoteSpec += t.Escaper()(remote)
	}

	if o.Reverse {
		if _, err := os.Stat(localPath); os.IsNotExist(err) {
			if err := os.MkdirAll(localPath, 0o755); err != nil {
				return fmt.Errorf("failed to create local directory: %w", err)
			}
		}

		argv = append(argv, remoteSpec, localPath)
	} else {
		if remote != "" {
			if err := hostfs.New(t).MkdirAll(ctx, remote); err != nil {
				return err
			}
		}

		argv = append(argv, localPath, remoteSpec)
	}

	res, err := t.Runner().Run(ctx, argv, sshrpc.RunOptions{Capture: true, Timeout: o.Timeout})
	if err != nil {
		return fmt.Errorf("rsync: %w", err)
	}

	if !res.Success() {
		return &Error{Op: "rsync", Argv: argv, ExitCode: res.ExitCode, TimedOut: res.TimedOut, Stderr: res.Stderr}
	}

	return nil
}

func rsyncArgv(t Transport, o Options) ([]string, error) {
	transport, err := t.TransportArgv()
	if err != nil {
		return nil, err
	}

	argv := []string{RsyncBinary, "-qar", "--rsync-path=rsync", "-e", RemoteShell(transport)}

	if o.Delete {
		argv = append(argv, "--delete")
	}

	for _, p := range o.Excludes {
		argv = append(argv, "--exclude="+p)
	}

	return argv, nil
}

// RemoteShell renders an ssh argv as a single rsync -e value.
// Words containing whitespace or quotes are single-quoted; rsync splits the rest on spaces.
func RemoteShell(argv []string) string {
	words := make([]string, len(argv))

	for i, w := range argv {
		if w == "" || strings.ContainsAny(w, " \t'\"") {
			w = sshrpc.QuoteShell(w)
		}

		words[i] = w
	}

	return strings.Join(words, " ")
}

func expandLocal(p string) (string, error) {
	if p == "" {
		return "", errors.New("local path cannot be empty")
	}

	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand %s: %w", p, err)
		}

		trailing := strings.HasSuffix(p, "/")

		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		if trailing {
			p += "/"
		}
	}

	return p, nil
}
