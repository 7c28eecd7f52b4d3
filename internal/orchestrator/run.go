package orchestrator

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"repodoc/internal/budget"
	"repodoc/internal/config"
	"repodoc/internal/docgen"
	"repodoc/internal/llm"
	"repodoc/internal/output"
	"repodoc/internal/safeio"
	"repodoc/internal/scan"
	"repodoc/internal/summary"
)

// Params is the input of a full documentation run.
type Params struct {
	// Root is the repository to document.
	Root string
	// OutRoot receives the artifacts; empty means Root.
	OutRoot  string
	Detail   llm.DetailLevel
	MaxCalls int
	// Artifacts restricts the run; empty runs every task.
	Artifacts    []docgen.ArtifactKind
	ReadmePolicy output.ReadmePolicy
	Scan         scan.Options
	Summary      summary.Options
	// CacheEntries sizes the prefix cache shared by the walk and the summarizer.
	CacheEntries int
	Client       llm.Client
	// Writer overrides the default file writer under OutRoot.
	Writer output.Writer
	// DryRun analyses the repository but reserves no calls and writes nothing.
	DryRun bool
	RunID  string
	Log    *zap.Logger
}

// Prepared is the analysis stage of a run: inventory and summary.
type Prepared struct {
	FS        *safeio.SafeFS
	Inventory *scan.Inventory
	Summary   *summary.Summary
}

// Analyze validates the root, walks it and builds the summary. Only
// configuration problems are returned as errors.
func Analyze(p Params) (*Prepared, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(p.Root) == "" {
		return nil, config.Errorf("repo", "repository root is required")
	}
	fsys, err := safeio.NewSafeFS(p.Root)
	if err != nil {
		return nil, config.Wrap("repo", err)
	}
	cache, err := scan.NewPrefixCache(p.CacheEntries)
	if err != nil {
		return nil, config.Wrap("scan.cache_entries", err)
	}
	scanOpts := p.Scan
	scanOpts.Cache = cache
	scanOpts.Generated = append(append([]string(nil), scanOpts.Generated...),
		generatedPaths(fsys.Root(), p.outRoot(), docgen.Select(p.Artifacts))...)
	inv, err := scan.BuildInventory(fsys, scanOpts, log)
	if err != nil {
		return nil, config.Wrap("repo", err)
	}
	sumOpts := p.Summary
	sumOpts.Cache = cache
	sumOpts.Log = log
	sum := summary.Build(inv, fsys, sumOpts)
	log.Info("repository analysed",
		zap.Int("files", inv.Len()),
		zap.Int("skipped", len(inv.Skips)),
		zap.Int("summary_chars", sum.Len()),
		zap.Int("summary_budget", sum.Budget),
	)
	return &Prepared{FS: fsys, Inventory: inv, Summary: sum}, nil
}

// Run is the single entry point: analyse the repository, then generate
// artifacts under a budget of MaxCalls model calls. A *config.ConfigurationError
// aborts before anything is produced; every other problem is reflected in
// the report.
func Run(ctx context.Context, p Params) (Report, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	if p.MaxCalls < 0 {
		return Report{}, config.Wrap("max_calls", budget.ErrNegativeMax)
	}
	detail := p.Detail
	if detail == "" {
		detail = llm.DetailMedium
	}
	if _, err := llm.ParseDetailLevel(string(detail)); err != nil {
		return Report{}, config.Wrap("detail", err)
	}
	maxCalls := p.MaxCalls
	if p.DryRun {
		maxCalls = 0
	}
	if maxCalls > 0 && p.Client == nil {
		return Report{}, config.Errorf("llm", "a model client is required when max_calls > 0")
	}
	b, err := budget.New(maxCalls)
	if err != nil {
		return Report{}, config.Wrap("max_calls", err)
	}

	prep, err := Analyze(p)
	if err != nil {
		return Report{}, err
	}

	outRoot := p.outRoot()
	state, err := presence(outRoot, p.ReadmePolicy)
	if err != nil {
		return Report{}, config.Wrap("out", err)
	}
	w := p.Writer
	if w == nil && !p.DryRun {
		fw, err := output.NewFileWriter(outRoot)
		if err != nil {
			return Report{}, config.Wrap("out", err)
		}
		w = fw
	}
	if p.DryRun {
		w = nil
	}

	gen := docgen.NewGenerator(p.Client, state, detail, log)
	orch := New(gen, w, log)
	report, err := orch.Execute(ctx, docgen.Select(p.Artifacts), prep.Summary, b)
	report.RunID = p.RunID
	report.Repo = prep.FS.Root()
	report.DryRun = p.DryRun
	report.Inventory = inventoryStats(prep.Inventory)
	report.Summary = summaryStats(prep.Summary)
	log.Info("run finished",
		zap.String("status", string(report.Status)),
		zap.Int("calls_used", report.CallsUsed),
		zap.Int("calls_max", report.CallsMax),
		zap.Duration("duration", report.Duration.Round(time.Millisecond)),
	)
	return report, err
}

func (p Params) outRoot() string {
	if p.OutRoot == "" {
		return p.Root
	}
	return p.OutRoot
}

// generatedPaths returns the repo-relative locations the selected non-README
// tasks write to, when outRoot lies inside the repository. A README belongs
// to the repository and stays in the inventory.
func generatedPaths(repoRoot, outRoot string, tasks []docgen.Task) []string {
	abs, err := filepath.Abs(outRoot)
	if err != nil {
		return nil
	}
	rel, err := filepath.Rel(repoRoot, resolveExisting(abs))
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return nil
	}
	var out []string
	for _, t := range tasks {
		if t.Kind == docgen.Readme {
			continue
		}
		out = append(out, path.Join(rel, output.Path(t.Kind)))
	}
	return out
}

// resolveExisting evaluates symlinks in the longest existing prefix of p, so
// an output root that does not exist yet still compares against the resolved
// repository root.
func resolveExisting(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p
	}
	return filepath.Join(resolveExisting(parent), filepath.Base(p))
}

// presence builds the precondition state for outRoot. A missing output root
// holds no artifacts yet.
func presence(outRoot string, policy output.ReadmePolicy) (docgen.State, error) {
	if policy == "" {
		policy = output.PolicyExists
	}
	if _, err := os.Stat(outRoot); errors.Is(err, fs.ErrNotExist) {
		return docgen.StateFunc(func(context.Context, docgen.ArtifactKind) (bool, error) { return false, nil }), nil
	}
	fsys, err := safeio.NewSafeFS(outRoot)
	if err != nil {
		return nil, err
	}
	return output.NewProbe(fsys, policy), nil
}
