// Package summary condenses a repository inventory into a bounded text digest
// that is embedded in every generation prompt.
package summary

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"repodoc/internal/manifest"
	"repodoc/internal/safeio"
	"repodoc/internal/scan"
)

const (
	DefaultBudget       = 24000
	DefaultExcerptLines = 40
	DefaultOutlineDepth = 3
	// DefaultLineWidth caps a single excerpt line; minified files would
	// otherwise exhaust the budget with one line.
	DefaultLineWidth = 200
	// maxExcerptRead bounds the bytes read to collect an excerpt.
	maxExcerptRead = 64 * 1024
	maxFileTypes   = 15
	truncMarker    = "... (truncated)\n"
)

// Options configures summary construction.
type Options struct {
	// Budget is the hard ceiling on the summary text, in characters.
	Budget       int
	ExcerptLines int
	OutlineDepth int
	LineWidth    int
	Cache        *scan.PrefixCache
	Log          *zap.Logger
}

func (o Options) normalized() Options {
	if o.Budget <= 0 {
		o.Budget = DefaultBudget
	}
	if o.ExcerptLines <= 0 {
		o.ExcerptLines = DefaultExcerptLines
	}
	if o.OutlineDepth <= 0 {
		o.OutlineDepth = DefaultOutlineDepth
	}
	if o.LineWidth <= 0 {
		o.LineWidth = DefaultLineWidth
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

// Dependency is one declared dependency and the manifest it came from.
type Dependency struct {
	Manifest string `json:"manifest" yaml:"manifest"`
	Name     string `json:"name" yaml:"name"`
}

// FileType is one row of the extension histogram.
type FileType struct {
	Ext   string `json:"ext" yaml:"ext"`
	Count int    `json:"count" yaml:"count"`
}

// Excerpt is the head of one file included in the summary text.
type Excerpt struct {
	Path  string    `json:"path" yaml:"path"`
	Role  scan.Role `json:"role" yaml:"role"`
	Lines int       `json:"lines" yaml:"lines"`
}

// Summary is the bounded digest plus the structured metadata it was built
// from. Metadata is complete even when the text had to be truncated.
type Summary struct {
	Text         string          `json:"-" yaml:"-"`
	ProjectType  scan.Language   `json:"project_type" yaml:"project_type"`
	Languages    []scan.Language `json:"languages" yaml:"languages"`
	FileTypes    []FileType      `json:"file_types" yaml:"file_types"`
	EntryPoints  []string        `json:"entry_points,omitempty" yaml:"entry_points,omitempty"`
	Dependencies []Dependency    `json:"dependencies" yaml:"dependencies"`
	// Outline holds the depth-limited directory prefixes, directories ending in "/".
	Outline       []string             `json:"directory_outline" yaml:"directory_outline"`
	Excerpts      []Excerpt            `json:"excerpts" yaml:"excerpts"`
	Omitted       []string             `json:"omitted,omitempty" yaml:"omitted,omitempty"`
	ManifestSkips []manifest.ParseSkip `json:"manifest_skips,omitempty" yaml:"manifest_skips,omitempty"`

	DependenciesTruncated bool `json:"dependencies_truncated,omitempty" yaml:"dependencies_truncated,omitempty"`
	OutlineTruncated      bool `json:"outline_truncated,omitempty" yaml:"outline_truncated,omitempty"`
	HeaderTruncated       bool `json:"header_truncated,omitempty" yaml:"header_truncated,omitempty"`
	Budget                int  `json:"budget" yaml:"budget"`
}

// Len returns the text length in characters, the unit the budget is expressed in.
func (s *Summary) Len() int { return utf8.RuneCountInString(s.Text) }

// DependencyNames returns the dependency names in summary order.
func (s *Summary) DependencyNames() []string {
	out := make([]string, 0, len(s.Dependencies))
	for _, d := range s.Dependencies {
		out = append(out, d.Name)
	}
	return out
}

// Build produces the summary for inv. It never fails: unreadable files and
// unparsable manifests are left out and recorded.
func Build(inv *scan.Inventory, fsys *safeio.SafeFS, opts Options) *Summary {
	opts = opts.normalized()
	if inv == nil {
		inv = &scan.Inventory{}
	}
	b := &builder{inv: inv, fsys: fsys, opts: opts}
	s := &Summary{
		ProjectType: inv.ProjectType,
		Languages:   inv.Languages(),
		FileTypes:   fileTypes(inv.ExtCounts),
		Budget:      opts.Budget,
	}
	for _, r := range inv.Records {
		if r.EntryPoint {
			s.EntryPoints = append(s.EntryPoints, r.Path)
		}
	}
	s.Dependencies, s.ManifestSkips = b.dependencies()
	outline := Outline(inv, opts.OutlineDepth)

	var text strings.Builder
	remaining := opts.Budget

	head := header(inv, s)
	if n := utf8.RuneCountInString(head); n > remaining {
		head = truncateRunes(head, remaining)
		s.HeaderTruncated = true
	}
	text.WriteString(head)
	remaining -= utf8.RuneCountInString(head)

	depLines := make([]string, 0, len(s.Dependencies))
	for _, d := range s.Dependencies {
		depLines = append(depLines, fmt.Sprintf("- %s (%s)\n", d.Name, d.Manifest))
	}
	outLines := make([]string, 0, len(outline))
	for _, o := range outline {
		outLines = append(outLines, outlineLine(o, inv))
	}

	depBlock, outBlock, depCut, outCut := fitSections(depLines, outLines, remaining)
	s.DependenciesTruncated = depCut
	s.OutlineTruncated = outCut
	text.WriteString(depBlock)
	text.WriteString(outBlock)
	remaining -= utf8.RuneCountInString(depBlock) + utf8.RuneCountInString(outBlock)
	s.Outline = outline

	excerpts, excerptText, omitted := b.excerpts(remaining)
	s.Excerpts = excerpts
	s.Omitted = omitted
	text.WriteString(excerptText)

	s.Text = text.String()
	if s.Len() > opts.Budget {
		s.Text = truncateRunes(s.Text, opts.Budget)
	}
	opts.Log.Debug("summary built",
		zap.Int("chars", s.Len()),
		zap.Int("budget", opts.Budget),
		zap.Int("dependencies", len(s.Dependencies)),
		zap.Int("excerpts", len(s.Excerpts)),
		zap.Int("omitted", len(s.Omitted)),
		zap.Bool("outline_truncated", s.OutlineTruncated),
		zap.Bool("dependencies_truncated", s.DependenciesTruncated),
	)
	return s
}

type builder struct {
	inv  *scan.Inventory
	fsys *safeio.SafeFS
	opts Options
}

func header(inv *scan.Inventory, s *Summary) string {
	var b strings.Builder
	b.WriteString("# Repository summary\n")
	if s.ProjectType != "" && s.ProjectType != scan.LangUnknown {
		fmt.Fprintf(&b, "Project type: %s\n", s.ProjectType)
	}
	fmt.Fprintf(&b, "Files: %d (%s)\n", inv.Len(), humanize.IBytes(uint64(inv.TotalSize)))
	if len(s.Languages) > 0 {
		langs := make([]string, 0, len(s.Languages))
		for _, l := range s.Languages {
			langs = append(langs, fmt.Sprintf("%s (%d)", l, inv.LanguageCounts[l]))
		}
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(langs, ", "))
	}
	if len(s.FileTypes) > 0 {
		types := make([]string, 0, len(s.FileTypes))
		for _, ft := range s.FileTypes {
			types = append(types, fmt.Sprintf("%s (%d)", ft.Ext, ft.Count))
		}
		fmt.Fprintf(&b, "File types: %s\n", strings.Join(types, ", "))
	}
	if len(s.EntryPoints) > 0 {
		fmt.Fprintf(&b, "Entry points: %s\n", strings.Join(s.EntryPoints, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

const (
	depHeading     = "## Dependencies\n"
	outlineHeading = "## Directory outline\n"
	excerptHeading = "## File excerpts\n"
)

// fitSections lays out the dependency and outline sections within budget.
// The outline is the last thing given up: dependency lines are dropped first,
// then outline lines.
func fitSections(deps, outline []string, budget int) (depText, outText string, depCut, outCut bool) {
	depLen := sectionLen(depHeading, deps)
	outLen := sectionLen(outlineHeading, outline)
	if depLen+outLen <= budget {
		return section(depHeading, deps, false), section(outlineHeading, outline, false), false, false
	}
	depCut = len(deps) > 0
	if outLen <= budget {
		k := fitLines(deps, budget-outLen-runes(depHeading)-runes(truncMarker)-1)
		if k > 0 {
			depText = section(depHeading, deps[:k], true)
		}
		return depText, section(outlineHeading, outline, false), depCut, false
	}
	outCut = len(outline) > 0
	k := fitLines(outline, budget-runes(outlineHeading)-runes(truncMarker)-1)
	if k > 0 {
		outText = section(outlineHeading, outline[:k], true)
	}
	return "", outText, depCut, outCut
}

func section(heading string, lines []string, truncated bool) string {
	if len(lines) == 0 && !truncated {
		return ""
	}
	var b strings.Builder
	b.WriteString(heading)
	for _, l := range lines {
		b.WriteString(l)
	}
	if truncated {
		b.WriteString(truncMarker)
	}
	b.WriteString("\n")
	return b.String()
}

func sectionLen(heading string, lines []string) int {
	if len(lines) == 0 {
		return 0
	}
	n := runes(heading) + 1
	for _, l := range lines {
		n += runes(l)
	}
	return n
}

// fitLines returns how many leading lines fit in budget characters.
func fitLines(lines []string, budget int) int {
	used := 0
	for i, l := range lines {
		used += runes(l)
		if used > budget {
			return i
		}
	}
	return len(lines)
}

func (b *builder) dependencies() ([]Dependency, []manifest.ParseSkip) {
	var deps []Dependency
	var skips []manifest.ParseSkip
	for _, r := range b.inv.Records {
		if r.Role != scan.RoleManifest {
			continue
		}
		p, ok := manifest.Lookup(r.Path)
		if !ok {
			continue
		}
		content, err := b.read(r, manifest.MaxManifestRead)
		if err == nil && r.Size > manifest.MaxManifestRead {
			err = fmt.Errorf("manifest larger than %d bytes", manifest.MaxManifestRead)
		}
		var names []string
		if err == nil {
			names, err = p.Parse(content)
		}
		if err != nil {
			skips = append(skips, manifest.ParseSkip{Path: r.Path, Format: p.Format(), Err: err.Error()})
			b.opts.Log.Debug("manifest skipped", zap.String("path", r.Path), zap.Error(err))
			continue
		}
		for _, n := range names {
			deps = append(deps, Dependency{Manifest: r.Path, Name: n})
		}
	}
	return deps, skips
}

// read returns up to limit bytes of r, preferring the walk's prefix cache.
func (b *builder) read(r scan.FileRecord, limit int) ([]byte, error) {
	if p, ok := b.opts.Cache.Get(r.Path); ok && (p.Complete() || len(p.Data) >= limit) {
		if len(p.Data) > limit {
			return p.Data[:limit], nil
		}
		return p.Data, nil
	}
	if b.fsys == nil {
		return nil, fmt.Errorf("no filesystem to read %s", r.Path)
	}
	return b.fsys.ReadPrefix(r.Path, limit)
}

func fileTypes(counts map[string]int) []FileType {
	out := make([]FileType, 0, len(counts))
	for ext, n := range counts {
		if ext == "" {
			ext = "(none)"
		}
		out = append(out, FileType{Ext: ext, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Ext < out[j].Ext
	})
	if len(out) > maxFileTypes {
		out = out[:maxFileTypes]
	}
	return out
}

func runes(s string) int { return utf8.RuneCountInString(s) }

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
