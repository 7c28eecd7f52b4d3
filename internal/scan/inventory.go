package scan

import (
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"repodoc/internal/safeio"
)

// DefaultMaxFileSize is the size ceiling for retained files (1 MiB).
const DefaultMaxFileSize int64 = 1 << 20

// DefaultSniffBytes is how much of each file is sampled for binary detection.
const DefaultSniffBytes = 4096

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{
	".git", ".hg", ".svn", "__pycache__", ".pytest_cache", ".mypy_cache", ".tox",
	"node_modules", ".venv", "venv", "vendor", "dist", "build", "target",
	".next", ".cache", ".idea", ".vscode",
}

// DefaultExcludeExts are extensions skipped without sampling.
var DefaultExcludeExts = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico", ".bmp", ".tiff", ".svg",
	".mp4", ".m4v", ".mov", ".mkv", ".webm", ".avi",
	".mp3", ".wav", ".ogg", ".flac", ".m4a",
	".pdf", ".zip", ".jar", ".gz", ".tgz", ".bz2", ".xz", ".7z", ".rar",
	".exe", ".dll", ".dylib", ".so", ".a", ".o", ".class", ".pyc", ".wasm",
	".woff", ".woff2", ".ttf", ".otf", ".eot", ".lock",
}

// Options controls what the inventory walk retains.
type Options struct {
	// MaxFileSize drops files larger than this many bytes (checked via stat).
	MaxFileSize int64
	// ExcludeDirs are matched against whole path segments, never substrings.
	ExcludeDirs []string
	// ExcludeExts are lowercased extensions with a leading dot.
	ExcludeExts []string
	// SniffBytes is the prefix length sampled for binary detection.
	SniffBytes int
	// PrintableRatio is the minimum printable share for text files.
	PrintableRatio float64
	// Cache, when set, keeps sampled prefixes for later readers.
	Cache *PrefixCache
	// Generated lists repo-relative paths this tool writes itself. They are
	// skipped so a rerun is not fed its own earlier output.
	Generated []string
}

// DefaultOptions returns the stock inventory options.
func DefaultOptions() Options {
	return Options{
		MaxFileSize:    DefaultMaxFileSize,
		ExcludeDirs:    append([]string(nil), DefaultExcludeDirs...),
		ExcludeExts:    append([]string(nil), DefaultExcludeExts...),
		SniffBytes:     DefaultSniffBytes,
		PrintableRatio: DefaultPrintableRatio,
	}
}

func (o Options) normalized() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.SniffBytes <= 0 {
		o.SniffBytes = DefaultSniffBytes
	}
	if o.PrintableRatio <= 0 {
		o.PrintableRatio = DefaultPrintableRatio
	}
	return o
}

// FileRecord describes one retained file. Records are values and are never
// mutated after the walk.
type FileRecord struct {
	Path       string   `json:"path" yaml:"path"`
	Size       int64    `json:"size_bytes" yaml:"size_bytes"`
	Language   Language `json:"language" yaml:"language"`
	Binary     bool     `json:"is_binary" yaml:"is_binary"`
	Role       Role     `json:"role" yaml:"role"`
	EntryPoint bool     `json:"entry_point,omitempty" yaml:"entry_point,omitempty"`
}

// SkipReason says why an entry was left out of the inventory.
type SkipReason string

const (
	SkipExcludedDir SkipReason = "excluded_dir"
	SkipExcludedExt SkipReason = "excluded_ext"
	SkipTooLarge    SkipReason = "too_large"
	SkipBinary      SkipReason = "binary"
	SkipStatError   SkipReason = "stat_error"
	SkipReadError   SkipReason = "read_error"
	SkipSymlinkDir  SkipReason = "symlink_dir"
	SkipIrregular   SkipReason = "irregular"
	SkipGenerated   SkipReason = "generated_artifact"
)

// Skip records a filesystem entry that was not retained. Skips never abort a walk.
type Skip struct {
	Path   string     `json:"path" yaml:"path"`
	Reason SkipReason `json:"reason" yaml:"reason"`
	Detail string     `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Inventory is the ordered, classified set of retained files for one run.
type Inventory struct {
	Records        []FileRecord
	LanguageCounts map[Language]int
	ExtCounts      map[string]int
	TotalSize      int64
	ProjectType    Language
	Skips          []Skip

	byPath map[string]int
}

// Len returns the number of retained files.
func (inv *Inventory) Len() int {
	if inv == nil {
		return 0
	}
	return len(inv.Records)
}

// Find looks a record up by repo-relative path.
func (inv *Inventory) Find(p string) (FileRecord, bool) {
	if inv == nil {
		return FileRecord{}, false
	}
	i, ok := inv.byPath[p]
	if !ok {
		return FileRecord{}, false
	}
	return inv.Records[i], true
}

// Languages returns the detected languages (excluding unknown) sorted by name.
func (inv *Inventory) Languages() []Language {
	if inv == nil {
		return nil
	}
	out := make([]Language, 0, len(inv.LanguageCounts))
	for lang := range inv.LanguageCounts {
		if lang == LangUnknown {
			continue
		}
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SkipCount returns how many entries were skipped for the given reason.
func (inv *Inventory) SkipCount(reason SkipReason) int {
	n := 0
	for _, s := range inv.Skips {
		if s.Reason == reason {
			n++
		}
	}
	return n
}

// BuildInventory walks the tree under fsys and returns the retained files in
// lexicographic path order. Per-entry failures become Skips; only a failure
// to list the root itself is returned as an error.
func BuildInventory(fsys *safeio.SafeFS, opts Options, log *zap.Logger) (*Inventory, error) {
	if fsys == nil {
		return nil, errors.New("scan: filesystem is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.normalized()
	w := &walker{
		fsys:        fsys,
		opts:        opts,
		log:         log,
		excludeDirs: toSet(opts.ExcludeDirs, false),
		excludeExts: toSet(opts.ExcludeExts, true),
		generated:   toSet(opts.Generated, false),
		inv: &Inventory{
			LanguageCounts: map[Language]int{},
			ExtCounts:      map[string]int{},
		},
	}
	if _, err := fsys.SafeReadDir("."); err != nil {
		return nil, err
	}
	w.walkDir("")

	inv := w.inv
	sort.Slice(inv.Records, func(i, j int) bool { return inv.Records[i].Path < inv.Records[j].Path })
	sort.SliceStable(inv.Skips, func(i, j int) bool { return inv.Skips[i].Path < inv.Skips[j].Path })
	inv.byPath = make(map[string]int, len(inv.Records))
	for i, r := range inv.Records {
		inv.byPath[r.Path] = i
	}
	inv.ProjectType = projectType(inv.LanguageCounts)

	log.Debug("inventory built",
		zap.Int("files", len(inv.Records)),
		zap.Int("skipped", len(inv.Skips)),
		zap.Int64("total_bytes", inv.TotalSize),
		zap.String("project_type", string(inv.ProjectType)),
	)
	return inv, nil
}

type walker struct {
	fsys        *safeio.SafeFS
	opts        Options
	log         *zap.Logger
	excludeDirs map[string]struct{}
	excludeExts map[string]struct{}
	generated   map[string]struct{}
	inv         *Inventory
}

func (w *walker) skip(rel string, reason SkipReason, err error) {
	s := Skip{Path: rel, Reason: reason}
	if err != nil {
		s.Detail = err.Error()
	}
	w.inv.Skips = append(w.inv.Skips, s)
	w.log.Debug("skip", zap.String("path", rel), zap.String("reason", string(reason)), zap.Error(err))
}

func (w *walker) walkDir(rel string) {
	dir := rel
	if dir == "" {
		dir = "."
	}
	entries, err := w.fsys.SafeReadDir(dir)
	if err != nil {
		w.skip(rel, SkipReadError, err)
		return
	}
	for _, e := range entries {
		child := e.Name()
		if rel != "" {
			child = rel + "/" + child
		}
		mode := e.Type()
		switch {
		case mode.IsDir():
			if _, ok := w.excludeDirs[e.Name()]; ok {
				w.skip(child, SkipExcludedDir, nil)
				continue
			}
			w.walkDir(child)
		case mode&fs.ModeSymlink != 0:
			w.visitSymlink(child)
		case mode.IsRegular():
			w.visitFile(child, nil)
		default:
			w.skip(child, SkipIrregular, nil)
		}
	}
}

// visitSymlink follows links to files that stay under the root. Linked
// directories are never followed, which rules out symlink loops.
func (w *walker) visitSymlink(rel string) {
	info, err := w.fsys.SafeStat(rel)
	if err != nil {
		w.skip(rel, SkipStatError, err)
		return
	}
	if info.IsDir() {
		w.skip(rel, SkipSymlinkDir, nil)
		return
	}
	if !info.Mode().IsRegular() {
		w.skip(rel, SkipIrregular, nil)
		return
	}
	w.visitFile(rel, info)
}

func (w *walker) visitFile(rel string, info fs.FileInfo) {
	if _, ok := w.generated[rel]; ok {
		w.skip(rel, SkipGenerated, nil)
		return
	}
	ext := strings.ToLower(path.Ext(rel))
	if _, ok := w.excludeExts[ext]; ok && ext != "" {
		w.skip(rel, SkipExcludedExt, nil)
		return
	}
	if info == nil {
		var err error
		info, err = w.fsys.SafeStat(rel)
		if err != nil {
			w.skip(rel, SkipStatError, err)
			return
		}
	}
	size := info.Size()
	if size > w.opts.MaxFileSize {
		w.skip(rel, SkipTooLarge, nil)
		return
	}
	prefix, err := w.fsys.ReadPrefix(rel, w.opts.SniffBytes)
	if err != nil {
		w.skip(rel, SkipReadError, err)
		return
	}
	if IsBinary(prefix, w.opts.PrintableRatio) {
		w.skip(rel, SkipBinary, nil)
		return
	}
	if w.opts.Cache != nil {
		w.opts.Cache.Put(rel, prefix, size)
	}

	role := DetectRole(rel)
	rec := FileRecord{
		Path:       rel,
		Size:       size,
		Language:   DetectLanguage(rel),
		Role:       role,
		EntryPoint: role == RoleSource && IsEntryPoint(rel),
	}
	w.inv.Records = append(w.inv.Records, rec)
	w.inv.LanguageCounts[rec.Language]++
	w.inv.ExtCounts[ext]++
	w.inv.TotalSize += size
}

// HasExcludedSegment reports whether any '/'-separated segment of p exactly
// matches a name in dirs.
func HasExcludedSegment(p string, dirs []string) bool {
	set := toSet(dirs, false)
	for _, seg := range strings.Split(p, "/") {
		if _, ok := set[seg]; ok {
			return true
		}
	}
	return false
}

// projectType picks the programming language with the most files; ties go to
// the lexically smaller name so the result is stable.
func projectType(counts map[Language]int) Language {
	best, bestN := LangUnknown, 0
	for lang, n := range counts {
		if !programming[lang] {
			continue
		}
		if n > bestN || (n == bestN && lang < best) {
			best, bestN = lang, n
		}
	}
	return best
}

func toSet(items []string, ext bool) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if ext {
			it = strings.ToLower(it)
			if !strings.HasPrefix(it, ".") {
				it = "." + it
			}
		}
		out[it] = struct{}{}
	}
	return out
}
