//go:build !windows

package hostfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruffel/sshrpc/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T) *FS {
	t.Helper()

	return New(runner.NewTarget(runner.New(runner.WithOutput(nil, nil)), nil))
}

func TestFS_Exists(t *testing.T) {
	t.Parallel()

	fs := newFS(t)
	ctx := context.Background()
	dir := t.TempDir()

	file := filepath.Join(dir, "it's here.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	ok, err := fs.Exists(ctx, file)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.Exists(ctx, filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = fs.IsDir(ctx, dir)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.IsDir(ctx, file)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = fs.Exists(ctx, "")
	require.Error(t, err)
}

func TestJoin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/srv/app/releases", Join("/srv", "app", "releases"))
	assert.Equal(t, "a/c", Join("a", "b", "..", "c"))
}

func TestFS_Abs(t *testing.T) {
	t.Parallel()

	fs := newFS(t)
	ctx := context.Background()

	abs, err := fs.Abs(ctx, "/srv//app/")
	require.NoError(t, err)
	assert.Equal(t, "/srv/app", abs)

	cwd, err := os.Getwd()
	require.NoError(t, err)

	abs, err = fs.Abs(ctx, "sub/file")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "sub", "file"), abs)
}

func TestFS_CopyMkdirRemove(t *testing.T) {
	t.Parallel()

	fs := newFS(t)
	ctx := context.Background()
	dir := t.TempDir()

	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o600))

	nested := filepath.Join(dir, "a b", "c")
	require.NoError(t, fs.MkdirAll(ctx, nested))

	dst := filepath.Join(nested, "dst.txt")
	require.NoError(t, fs.Copy(ctx, src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	err = fs.Copy(ctx, filepath.Join(dir, "missing"), dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to copy")

	require.NoError(t, fs.Remove(ctx, filepath.Join(dir, "a b")))
	assert.NoDirExists(t, nested)

	require.Error(t, fs.Remove(ctx, "/"))
}
