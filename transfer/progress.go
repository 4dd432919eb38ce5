package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// progressReader reports cumulative bytes read through fn.
type progressReader struct {
	io.Reader

	total   int64
	current int64
	fn      ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.current += int64(n)
		if pr.fn != nil {
			pr.fn(pr.current, pr.total)
		}
	}

	return n, err
}

// contextReader stops a long io.Copy once ctx is done.
type contextReader struct {
	ctx context.Context //nolint:containedctx
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}

// copyWithProgress copies src to dst, honouring ctx and reporting through fn.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, fn ProgressFunc) (int64, error) {
	return io.Copy(dst, &progressReader{
		Reader: &contextReader{ctx: ctx, r: src},
		total:  total,
		fn:     fn,
	})
}

// checkLocalTarget ensures target stays inside root (ZipSlip protection for fetched trees).
func checkLocalTarget(root, target string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("illegal file path: cannot resolve root %s: %w", root, err)
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("illegal file path: cannot resolve target %s: %w", target, err)
	}

	if absRoot == absTarget || strings.HasPrefix(absTarget, absRoot+string(os.PathSeparator)) {
		return nil
	}

	return fmt.Errorf("illegal file path: %s is not within %s", target, root)
}
