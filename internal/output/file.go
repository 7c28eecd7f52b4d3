package output

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"repodoc/internal/docgen"
	"repodoc/internal/safeio"
)

// FileWriter writes artifacts under a root directory. Files are replaced
// atomically through a temp file in the same directory.
type FileWriter struct {
	root string
}

func NewFileWriter(root string) (*FileWriter, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("output: root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &FileWriter{root: abs}, nil
}

// Root returns the absolute output root.
func (w *FileWriter) Root() string { return w.root }

func (w *FileWriter) Write(ctx context.Context, kind docgen.ArtifactKind, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel := Path(kind)
	dst := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(rel), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	return rel, nil
}

// Probe reports whether artifacts already exist under a root, judged by a
// ReadmePolicy. It reads through a SafeFS so links cannot escape the root.
type Probe struct {
	fsys   *safeio.SafeFS
	policy ReadmePolicy
}

// sniff is how much of an existing file is read for the nonempty policy.
const sniff = 4096

func NewProbe(fsys *safeio.SafeFS, policy ReadmePolicy) *Probe {
	if policy == "" {
		policy = PolicyExists
	}
	return &Probe{fsys: fsys, policy: policy}
}

func (p *Probe) Present(ctx context.Context, kind docgen.ArtifactKind) (bool, error) {
	if p.policy == PolicyNever {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	rel := Path(kind)
	ok, err := p.fsys.Exists(rel)
	if err != nil || !ok {
		return false, err
	}
	if p.policy == PolicyExists {
		return true, nil
	}
	head, err := p.fsys.ReadPrefix(rel, sniff)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(string(head)) != "" {
		return true, nil
	}
	// A whitespace-only head may still precede content in a larger file.
	info, err := p.fsys.SafeStat(rel)
	if err != nil {
		return false, err
	}
	if info.Size() <= sniff {
		return false, nil
	}
	all, err := p.fsys.SafeReadFile(rel)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(all)) != "", nil
}
