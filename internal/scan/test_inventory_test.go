package scan

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repodoc/internal/safeio"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func build(t *testing.T, root string, opts Options) *Inventory {
	t.Helper()
	fsys, err := safeio.NewSafeFS(root)
	require.NoError(t, err)
	inv, err := BuildInventory(fsys, opts, nil)
	require.NoError(t, err)
	return inv
}

func paths(inv *Inventory) []string {
	out := make([]string, 0, inv.Len())
	for _, r := range inv.Records {
		out = append(out, r.Path)
	}
	return out
}

func TestBuildInventory_SortedAndExcluded(t *testing.T) {
	root := t.TempDir()
	write(t, root, "b.py", "print('b')\n")
	write(t, root, "a.txt", "root file\n")
	write(t, root, "a/z.go", "package a\n")
	write(t, root, "node_modules/x.js", "ignored\n")
	write(t, root, "node_modules_backup/keep.js", "kept\n")
	write(t, root, "src/vendor/skip.go", "package skip\n")
	write(t, root, "logo.png", "not really a png")

	inv := build(t, root, DefaultOptions())

	assert.Equal(t, []string{"a.txt", "a/z.go", "b.py", "node_modules_backup/keep.js"}, paths(inv))
	assert.Equal(t, 1, inv.SkipCount(SkipExcludedExt))
	assert.Equal(t, 2, inv.SkipCount(SkipExcludedDir))
	for _, r := range inv.Records {
		assert.False(t, HasExcludedSegment(r.Path, DefaultExcludeDirs), r.Path)
	}
}

func TestBuildInventory_SizeAndBinaryInvariant(t *testing.T) {
	root := t.TempDir()
	write(t, root, "big.txt", string(bytes.Repeat([]byte("a"), 2<<20)))
	write(t, root, "requirements.txt", "flask\npytest\n")
	write(t, root, "blob.dat", "abc\x00def")
	write(t, root, "noise.bin2", string([]byte{0xff, 0xfe, 0xfd, 0x80, 0x81, 0x82, 0x83, 0x84}))

	opts := DefaultOptions()
	opts.MaxFileSize = 1 << 20
	inv := build(t, root, opts)

	assert.Equal(t, []string{"requirements.txt"}, paths(inv))
	for _, r := range inv.Records {
		assert.LessOrEqual(t, r.Size, opts.MaxFileSize)
		assert.False(t, r.Binary)
	}
	assert.Equal(t, 1, inv.SkipCount(SkipTooLarge))
	assert.Equal(t, 2, inv.SkipCount(SkipBinary))

	rec, ok := inv.Find("requirements.txt")
	require.True(t, ok)
	assert.Equal(t, RoleManifest, rec.Role)
}

func TestBuildInventory_Deterministic(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"z/1.go", "a/2.go", "m.py", "a.b/c.md", "a/b/d.rs"} {
		write(t, root, p, "x\n")
	}
	first := paths(build(t, root, DefaultOptions()))
	second := paths(build(t, root, DefaultOptions()))
	assert.Equal(t, first, second)
	assert.IsNonDecreasing(t, first)
}

func TestBuildInventory_AggregatesAndProjectType(t *testing.T) {
	root := t.TempDir()
	write(t, root, "main.py", "import app\n")
	write(t, root, "app/core.py", "x = 1\n")
	write(t, root, "web/index.js", "console.log(1)\n")
	write(t, root, "README.md", "# hi\n")

	inv := build(t, root, DefaultOptions())

	assert.Equal(t, LangPython, inv.ProjectType)
	assert.Equal(t, 2, inv.LanguageCounts[LangPython])
	assert.Equal(t, 1, inv.ExtCounts[".js"])
	assert.Equal(t, []Language{LangJavaScript, LangMarkdown, LangPython}, inv.Languages())

	var total int64
	for _, r := range inv.Records {
		total += r.Size
	}
	assert.Equal(t, total, inv.TotalSize)

	main, ok := inv.Find("main.py")
	require.True(t, ok)
	assert.True(t, main.EntryPoint)
	readme, _ := inv.Find("README.md")
	assert.Equal(t, RoleDoc, readme.Role)
}

func TestBuildInventory_UnreadableFileIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	write(t, root, "ok.go", "package ok\n")
	locked := write(t, root, "locked.go", "package locked\n")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	inv := build(t, root, DefaultOptions())
	assert.Equal(t, []string{"ok.go"}, paths(inv))
	assert.Equal(t, 1, inv.SkipCount(SkipReadError))
}

func TestBuildInventory_SymlinkDirNotFollowed(t *testing.T) {
	root := t.TempDir()
	write(t, root, "pkg/a.go", "package pkg\n")
	if err := os.Symlink(filepath.Join(root, "pkg"), filepath.Join(root, "pkg", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	inv := build(t, root, DefaultOptions())
	assert.Equal(t, []string{"pkg/a.go"}, paths(inv))
	assert.Equal(t, 1, inv.SkipCount(SkipSymlinkDir))
}

func TestBuildInventory_FillsPrefixCache(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.go", "package a\n")
	cache, err := NewPrefixCache(8)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Cache = cache
	build(t, root, opts)

	p, ok := cache.Get("a.go")
	require.True(t, ok)
	assert.True(t, p.Complete())
	assert.Equal(t, "package a\n", string(p.Data))
}

func TestBuildInventory_MissingRoot(t *testing.T) {
	_, err := BuildInventory(nil, DefaultOptions(), nil)
	assert.Error(t, err)
}

func TestBuildInventory_SkipsGeneratedArtifacts(t *testing.T) {
	root := t.TempDir()
	write(t, root, "app.py", "print('hi')\n")
	write(t, root, "docs/api.md", "# API\n")
	write(t, root, "docs/guide.md", "# Guide\n")

	opts := DefaultOptions()
	opts.Generated = []string{"docs/api.md", "docs/usage.md"}
	inv := build(t, root, opts)

	assert.Equal(t, []string{"app.py", "docs/guide.md"}, paths(inv))
	assert.Equal(t, 1, inv.SkipCount(SkipGenerated))
	_, ok := inv.Find("docs/api.md")
	assert.False(t, ok)
}
