// Package output persists generated artifacts and reports which ones are
// already present.
package output

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"repodoc/internal/docgen"
)

// DocsDir holds every artifact except the README.
const DocsDir = "docs"

// Path returns the conventional location of an artifact, relative to the
// output root: README.md at the root, docs/<artifact>.md otherwise.
func Path(kind docgen.ArtifactKind) string {
	if kind == docgen.Readme {
		return "README.md"
	}
	return path.Join(DocsDir, string(kind)+".md")
}

// Writer persists one artifact and returns the relative path written.
type Writer interface {
	Write(ctx context.Context, kind docgen.ArtifactKind, content string) (string, error)
}

// Mirrored writes to a primary writer and then to best-effort mirrors. Only a
// primary failure is returned; mirror failures are logged.
type Mirrored struct {
	Primary Writer
	Mirrors []Writer
	Log     *zap.Logger
}

func (m *Mirrored) Write(ctx context.Context, kind docgen.ArtifactKind, content string) (string, error) {
	if m.Primary == nil {
		return "", errors.New("output: no primary writer")
	}
	p, err := m.Primary.Write(ctx, kind, content)
	if err != nil {
		return "", err
	}
	for _, mirror := range m.Mirrors {
		if mirror == nil {
			continue
		}
		if _, err := mirror.Write(ctx, kind, content); err != nil && m.Log != nil {
			m.Log.Warn("mirror write failed", zap.String("artifact", string(kind)), zap.Error(err))
		}
	}
	return p, nil
}

// MemoryWriter keeps artifacts in memory for tests.
type MemoryWriter struct {
	mu    sync.Mutex
	files map[string]string
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{files: map[string]string{}}
}

func (m *MemoryWriter) Write(ctx context.Context, kind docgen.ArtifactKind, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := Path(kind)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = content
	return p, nil
}

// Get returns the stored content for a relative path.
func (m *MemoryWriter) Get(p string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.files[p]
	return c, ok
}

// Len returns the number of stored artifacts.
func (m *MemoryWriter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Present reports whether an artifact was stored with non-blank content.
func (m *MemoryWriter) Present(ctx context.Context, kind docgen.ArtifactKind) (bool, error) {
	c, ok := m.Get(Path(kind))
	return ok && strings.TrimSpace(c) != "", nil
}

// ReadmePolicy decides when an existing artifact counts as present.
type ReadmePolicy string

const (
	// PolicyExists treats any existing file as present.
	PolicyExists ReadmePolicy = "exists"
	// PolicyNonEmpty requires the file to hold non-whitespace content.
	PolicyNonEmpty ReadmePolicy = "nonempty"
	// PolicyNever always regenerates.
	PolicyNever ReadmePolicy = "never"
)

// ParseReadmePolicy accepts exists, nonempty or never. Empty means exists.
func ParseReadmePolicy(s string) (ReadmePolicy, error) {
	switch ReadmePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyExists:
		return PolicyExists, nil
	case PolicyNonEmpty, "non-empty", "non_empty":
		return PolicyNonEmpty, nil
	case PolicyNever:
		return PolicyNever, nil
	}
	return "", fmt.Errorf("output: unknown readme policy %q (want exists, nonempty or never)", s)
}
