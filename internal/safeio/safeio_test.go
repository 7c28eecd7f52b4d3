package safeio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFSAllowsAbsoluteUnderRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	fs, err := NewSafeFS(dir)
	require.NoError(t, err)

	b, err := fs.SafeReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestSafeFSRejectsTraversal(t *testing.T) {
	fs, err := NewSafeFS(t.TempDir())
	require.NoError(t, err)

	_, err = fs.SafeStat("../etc/passwd")
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestSafeFSRejectsSymlinkOutsideRoot(t *testing.T) {
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("x"), 0o644))
	root := t.TempDir()
	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	fs, err := NewSafeFS(root)
	require.NoError(t, err)

	_, err = fs.SafeStat("link.txt")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestReadPrefix(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abcdef"), 0o644))
	fs, err := NewSafeFS(dir)
	require.NoError(t, err)

	got, err := fs.ReadPrefix("a.txt", 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got, err = fs.ReadPrefix("a.txt", 64)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(got))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "docs"), 0o755))
	fs, err := NewSafeFS(dir)
	require.NoError(t, err)

	ok, err := fs.Exists("README.md")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.Exists("missing.md")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = fs.Exists("docs")
	require.NoError(t, err)
	assert.False(t, ok, "directories are not files")
}

func TestNewSafeFSRejectsFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(p, nil, 0o644))
	_, err := NewSafeFS(p)
	assert.ErrorIs(t, err, ErrNotDirectory)
}
