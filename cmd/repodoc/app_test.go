package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testApp(stdout, stderr *bytes.Buffer) *cli.App {
	app := newApp()
	app.Writer = stdout
	app.ErrWriter = stderr
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "requirements.txt"), []byte("flask\npytest\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("print('hi')\n"), 0o644))
	return root
}

func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if ec, ok := err.(cli.ExitCoder); ok {
		return ec.ExitCode()
	}
	return ExitFatal
}

func TestGenerateWithFakeProvider(t *testing.T) {
	root := fixture(t)
	var stdout, stderr bytes.Buffer
	err := testApp(&stdout, &stderr).Run([]string{"repodoc",
		"--repo", root, "--provider", "fake", "--max-calls", "5", "--format", "json", "--log-level", "error",
	})
	require.NoError(t, err)

	var report struct {
		Status  string `json:"status"`
		Results []struct {
			Artifact string `json:"artifact"`
			Status   string `json:"status"`
			Path     string `json:"path"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, "completed", report.Status)
	require.Len(t, report.Results, 5)
	assert.Equal(t, "README.md", report.Results[0].Path)
	assert.Contains(t, stderr.String(), "[1/5] readme: written")

	_, err = os.Stat(filepath.Join(root, "docs", "usage.md"))
	assert.NoError(t, err)
}

func TestGenerateBudgetExhaustedExitsZero(t *testing.T) {
	root := fixture(t)
	var stdout, stderr bytes.Buffer
	err := testApp(&stdout, &stderr).Run([]string{"repodoc",
		"--repo", root, "--provider", "fake", "--max-calls", "1", "--format", "table", "--no-color", "--quiet", "--log-level", "error",
	})
	assert.Equal(t, ExitOK, exitCode(err))
	assert.Contains(t, stdout.String(), "budget_exhausted")
	assert.Empty(t, stderr.String())
}

func TestGenerateDryRunWritesNothing(t *testing.T) {
	root := fixture(t)
	var stdout, stderr bytes.Buffer
	err := testApp(&stdout, &stderr).Run([]string{"repodoc",
		"--repo", root, "--dry-run", "--format", "yaml", "-q",
	})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "dry_run: true")
	_, err = os.Stat(filepath.Join(root, "README.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestNegativeMaxCallsIsFatal(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := testApp(&stdout, &stderr).Run([]string{"repodoc",
		"--repo", fixture(t), "--provider", "fake", "--max-calls", "-1",
	})
	assert.Equal(t, ExitFatal, exitCode(err))
	assert.Contains(t, err.Error(), "max_calls")
}

func TestUnreadableRootIsFatal(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := testApp(&stdout, &stderr).Run([]string{"repodoc",
		"--repo", filepath.Join(t.TempDir(), "missing"), "--provider", "fake",
	})
	assert.Equal(t, ExitFatal, exitCode(err))
	assert.Contains(t, err.Error(), "configuration error")
}

func TestAnalyzePrintsSummary(t *testing.T) {
	root := fixture(t)
	var stdout, stderr bytes.Buffer
	err := testApp(&stdout, &stderr).Run([]string{"repodoc", "analyze", "--repo", root, "--format", "table"})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "flask")
	assert.Contains(t, stdout.String(), "pytest")
}

func TestExitFor(t *testing.T) {
	assert.Nil(t, exitFor("completed"))
	assert.Nil(t, exitFor("budget_exhausted"))
	assert.Equal(t, ExitFailures, exitCode(exitFor("completed_with_failures")))
}
