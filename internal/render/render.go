// Package render prints run reports and summaries for the CLI.
//
// Format selection:
//   - table when stdout is a terminal, json otherwise
//   - --format always overrides the default
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"repodoc/internal/docgen"
	"repodoc/internal/orchestrator"
	"repodoc/internal/summary"
)

// Format is an output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format name; empty is returned as "" so callers can pick a default.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

// Renderer writes reports in one format.
type Renderer struct {
	format Format
	color  bool
	out    io.Writer
}

// NewRenderer picks table for terminals and json otherwise when format is empty.
// Color applies to table output only.
func NewRenderer(format Format, color bool, out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	if format == "" {
		format = FormatJSON
		if f, ok := out.(*os.File); ok && isTTY(f) {
			format = FormatTable
		}
	}
	return &Renderer{format: format, color: color, out: out}
}

// Format returns the resolved format.
func (r *Renderer) Format() Format { return r.format }

// Report renders a run report.
func (r *Renderer) Report(rep orchestrator.Report) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(rep)
	case FormatYAML:
		return r.renderYAML(rep)
	case FormatTable:
		return r.reportTable(rep)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// Summary renders the repository summary. Table output is the prompt text itself.
func (r *Renderer) Summary(sum *summary.Summary) error {
	if sum == nil {
		return nil
	}
	switch r.format {
	case FormatJSON:
		return r.renderJSON(summaryView{Summary: *sum, Text: sum.Text})
	case FormatYAML:
		return r.renderYAML(summaryView{Summary: *sum, Text: sum.Text})
	default:
		_, err := io.WriteString(r.out, sum.Text)
		if err == nil && !strings.HasSuffix(sum.Text, "\n") {
			_, err = io.WriteString(r.out, "\n")
		}
		return err
	}
}

// summaryView exposes the text, which Summary itself hides from encoders.
type summaryView struct {
	summary.Summary `yaml:",inline"`
	Text            string `json:"text" yaml:"text"`
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

func (r *Renderer) reportTable(rep orchestrator.Report) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, r.style(titleStyle, "repodoc run "+rep.RunID))
	fmt.Fprintf(w, "repo:\t%s\n", rep.Repo)
	fmt.Fprintf(w, "status:\t%s\n", r.style(stateStyle(rep.Status), string(rep.Status)))
	fmt.Fprintf(w, "calls:\t%d/%d\n", rep.CallsUsed, rep.CallsMax)
	if inv := rep.Inventory; inv != nil {
		fmt.Fprintf(w, "files:\t%d retained, %d skipped, %s\n", inv.Files, inv.Skipped, humanize.IBytes(uint64(inv.TotalBytes)))
		if inv.ProjectType != "" {
			fmt.Fprintf(w, "project:\t%s\n", inv.ProjectType)
		}
	}
	if s := rep.Summary; s != nil {
		fmt.Fprintf(w, "summary:\t%d/%d chars, %d deps, %d excerpts, %d omitted\n", s.Chars, s.Budget, s.Dependencies, s.Excerpts, s.Omitted)
	}
	fmt.Fprintf(w, "duration:\t%s\n", rep.Duration.Round(time.Millisecond))
	if rep.DryRun {
		fmt.Fprintln(w, "mode:\tdry run")
	}
	if rep.Cancelled {
		fmt.Fprintln(w, "cancelled:\ttrue")
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(r.out)
	if len(rep.Results) == 0 {
		fmt.Fprintln(r.out, "(no results)")
		return nil
	}
	w = tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ARTIFACT\tSTATUS\tDETAIL")
	for _, res := range rep.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.Kind, res.Status, detail(res))
	}
	return w.Flush()
}

// detail is the one-line explanation shown next to a result.
func detail(res docgen.Result) string {
	switch res.Status {
	case docgen.StatusWritten:
		if res.Path != "" {
			return res.Path
		}
		return fmt.Sprintf("%d bytes (not persisted)", len(res.Content))
	case docgen.StatusFailed:
		msg := firstLine(res.Error)
		if res.ErrorKind != "" {
			return res.ErrorKind + ": " + msg
		}
		return msg
	default:
		return res.Reason
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func stateStyle(s orchestrator.State) lipgloss.Style {
	switch s {
	case orchestrator.StateCompleted:
		return successStyle
	case orchestrator.StateBudgetExhausted, orchestrator.StateRunning:
		return warningStyle
	case orchestrator.StateCompletedWithFailures:
		return errorStyle
	}
	return lipgloss.NewStyle()
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// isTTY returns true if f is a character device.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
