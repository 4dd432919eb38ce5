package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/ruffel/sshrpc/hostfs"
)

// Retrieve places source into the remote directory destDir and verifies it arrived.
// The source is a local file or an http(s) URL, which is downloaded first.
// It returns the remote path of the file.
func Retrieve(ctx context.Context, t Transport, source, destDir string, opts ...Option) (string, error) {
	if destDir == "" {
		return "", errors.New("destination directory cannot be empty")
	}

	local := source
	name := filepath.Base(source)

	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		name = path.Base(u.Path)
		if name == "" || name == "/" || name == "." {
			return "", fmt.Errorf("cannot derive a file name from %s", source)
		}

		tmp, err := os.MkdirTemp("", "sshrpc-retrieve-")
		if err != nil {
			return "", fmt.Errorf("failed to create temporary directory: %w", err)
		}

		defer func() { _ = os.RemoveAll(tmp) }()

		local = filepath.Join(tmp, name)
		if err := download(ctx, source, local); err != nil {
			return "", err
		}
	}

	if err := Sync(ctx, t, local, destDir, opts...); err != nil {
		return "", err
	}

	remoteFile := hostfs.Join(destDir, name)

	ok, err := hostfs.New(t).Exists(ctx, remoteFile)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", fmt.Errorf("destination file %s does not exist on %s", remoteFile, t.Host())
	}

	return remoteFile, nil
}

func download(ctx context.Context, source, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return fmt.Errorf("invalid source %s: %w", source, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", source, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %s", source, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(f, &contextReader{ctx: ctx, r: resp.Body}); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to download %s: %w", source, err)
	}

	return f.Close()
}
