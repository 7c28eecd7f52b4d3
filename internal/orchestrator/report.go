package orchestrator

import (
	"time"

	"repodoc/internal/docgen"
	"repodoc/internal/scan"
	"repodoc/internal/summary"
)

// State is the run lifecycle: Pending -> Running -> one terminal state.
type State string

const (
	StatePending               State = "pending"
	StateRunning               State = "running"
	StateCompleted             State = "completed"
	StateCompletedWithFailures State = "completed_with_failures"
	StateBudgetExhausted       State = "budget_exhausted"
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCompletedWithFailures, StateBudgetExhausted:
		return true
	}
	return false
}

// InventoryStats is the slice of the inventory worth reporting.
type InventoryStats struct {
	Files       int            `json:"files" yaml:"files"`
	Skipped     int            `json:"skipped" yaml:"skipped"`
	TotalBytes  int64          `json:"total_bytes" yaml:"total_bytes"`
	ProjectType scan.Language  `json:"project_type" yaml:"project_type"`
	Languages   map[string]int `json:"languages,omitempty" yaml:"languages,omitempty"`
}

// SummaryStats describes the digest every prompt shared.
type SummaryStats struct {
	Chars        int  `json:"chars" yaml:"chars"`
	Budget       int  `json:"budget" yaml:"budget"`
	Dependencies int  `json:"dependencies" yaml:"dependencies"`
	Excerpts     int  `json:"excerpts" yaml:"excerpts"`
	Omitted      int  `json:"omitted" yaml:"omitted"`
	Truncated    bool `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Report is everything a run hands back to its caller.
type Report struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	Repo      string          `json:"repo,omitempty" yaml:"repo,omitempty"`
	Status    State           `json:"status" yaml:"status"`
	Results   []docgen.Result `json:"results" yaml:"results"`
	CallsUsed int             `json:"calls_used" yaml:"calls_used"`
	CallsMax  int             `json:"calls_max" yaml:"calls_max"`
	// Cancelled is set when the context ended the run between tasks.
	Cancelled bool            `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	DryRun    bool            `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Inventory *InventoryStats `json:"inventory,omitempty" yaml:"inventory,omitempty"`
	Summary   *SummaryStats   `json:"summary,omitempty" yaml:"summary,omitempty"`
	StartedAt time.Time       `json:"started_at" yaml:"started_at"`
	Duration  time.Duration   `json:"duration_ns" yaml:"duration"`
}

// Count returns how many results have status st.
func (r Report) Count(st docgen.Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == st {
			n++
		}
	}
	return n
}

// Result returns the result for kind, if the run reached it.
func (r Report) Result(kind docgen.ArtifactKind) (docgen.Result, bool) {
	for _, res := range r.Results {
		if res.Kind == kind {
			return res, true
		}
	}
	return docgen.Result{}, false
}

// finalState derives the terminal state: any budget skip wins over failures.
func finalState(results []docgen.Result) State {
	failed := false
	for _, r := range results {
		switch r.Status {
		case docgen.StatusSkippedBudget:
			return StateBudgetExhausted
		case docgen.StatusFailed:
			failed = true
		}
	}
	if failed {
		return StateCompletedWithFailures
	}
	return StateCompleted
}

func inventoryStats(inv *scan.Inventory) *InventoryStats {
	if inv == nil {
		return nil
	}
	langs := make(map[string]int, len(inv.LanguageCounts))
	for l, n := range inv.LanguageCounts {
		if l == scan.LangUnknown {
			continue
		}
		langs[string(l)] = n
	}
	return &InventoryStats{
		Files:       inv.Len(),
		Skipped:     len(inv.Skips),
		TotalBytes:  inv.TotalSize,
		ProjectType: inv.ProjectType,
		Languages:   langs,
	}
}

func summaryStats(sum *summary.Summary) *SummaryStats {
	if sum == nil {
		return nil
	}
	return &SummaryStats{
		Chars:        sum.Len(),
		Budget:       sum.Budget,
		Dependencies: len(sum.Dependencies),
		Excerpts:     len(sum.Excerpts),
		Omitted:      len(sum.Omitted),
		Truncated:    sum.DependenciesTruncated || sum.OutlineTruncated || sum.HeaderTruncated,
	}
}
