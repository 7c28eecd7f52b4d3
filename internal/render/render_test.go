package render

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"repodoc/internal/docgen"
	"repodoc/internal/orchestrator"
	"repodoc/internal/summary"
)

func sampleReport() orchestrator.Report {
	return orchestrator.Report{
		RunID:     "run-1",
		Repo:      "/src/app",
		Status:    orchestrator.StateCompletedWithFailures,
		CallsUsed: 2,
		CallsMax:  2,
		Duration:  1500 * time.Millisecond,
		Inventory: &orchestrator.InventoryStats{Files: 3, Skipped: 1, TotalBytes: 2048, ProjectType: "Python"},
		Summary:   &orchestrator.SummaryStats{Chars: 900, Budget: 1000, Dependencies: 2, Excerpts: 2},
		Results: []docgen.Result{
			{Kind: docgen.Readme, Status: docgen.StatusSkippedPrecondition, Reason: "artifact already exists"},
			{Kind: docgen.Architecture, Status: docgen.StatusWritten, Content: "# Architecture\n", Path: "docs/architecture.md"},
			{Kind: docgen.API, Status: docgen.StatusFailed, Error: "fake network error: reset\nmore", ErrorKind: "network"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Format(""), f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestDefaultFormatForNonTTY(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, FormatJSON, NewRenderer("", false, &buf).Format())
}

func TestReportTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(FormatTable, false, &buf).Report(sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "repodoc run run-1")
	assert.Contains(t, out, "completed_with_failures")
	assert.Contains(t, out, "2/2")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "ARTIFACT")
	assert.Contains(t, out, "docs/architecture.md")
	assert.Contains(t, out, "network: fake network error: reset")
	assert.NotContains(t, out, "more")
	assert.NotContains(t, out, "\x1b[", "no color codes when color is off")
}

func TestReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(FormatJSON, false, &buf).Report(sampleReport()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "completed_with_failures", got["status"])
	results := got["results"].([]any)
	require.Len(t, results, 3)
	assert.Equal(t, "readme", results[0].(map[string]any)["artifact"])
	assert.Equal(t, "skipped_precondition", results[0].(map[string]any)["status"])
}

func TestReportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(FormatYAML, false, &buf).Report(sampleReport()))

	var got struct {
		RunID   string `yaml:"run_id"`
		Results []struct {
			Artifact string `yaml:"artifact"`
			Status   string `yaml:"status"`
		} `yaml:"results"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Results, 3)
	assert.Equal(t, "failed", got.Results[2].Status)
}

func TestSummaryOutput(t *testing.T) {
	sum := &summary.Summary{Text: "Project Type: Go", Budget: 100}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(FormatTable, false, &buf).Summary(sum))
	assert.Equal(t, "Project Type: Go\n", buf.String())

	buf.Reset()
	require.NoError(t, NewRenderer(FormatJSON, false, &buf).Summary(sum))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Project Type: Go", got["text"])
	assert.EqualValues(t, 100, got["budget"])
}
