package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repodoc/internal/docgen"
	"repodoc/internal/llm"
	"repodoc/internal/scan"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	cfg.Repo = t.TempDir()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, cfg.Repo, cfg.OutRoot())
	assert.Equal(t, "medium", cfg.Detail)
	assert.Equal(t, scan.DefaultMaxFileSize, cfg.Scan.MaxFileSize)
}

func TestLoadTOMLOverDefaults(t *testing.T) {
	repo := t.TempDir()
	path := filepath.Join(t.TempDir(), "repodoc.toml")
	body := `
repo = "` + filepath.ToSlash(repo) + `"
detail = "high"
max_calls = 3
artifacts = ["readme", "api"]

[summary]
budget = 5000

[scan]
extra_exclude_dirs = ["fixtures"]

[llm]
provider = "fake"
retry_delay = "1s"

[output.s3]
endpoint = "localhost:9000"
bucket = "docs"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "high", cfg.Detail)
	assert.Equal(t, 3, cfg.MaxCalls)
	assert.Equal(t, 5000, cfg.Summary.Budget)
	assert.Equal(t, summaryDefaultsExcerpt(), cfg.Summary.ExcerptLines, "untouched keys keep defaults")
	assert.Equal(t, "docs", cfg.Output.S3.Bucket)
	assert.True(t, cfg.Output.S3.Enabled())

	d, err := cfg.RetryDelay()
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	kinds, err := cfg.ArtifactKinds()
	require.NoError(t, err)
	assert.Equal(t, []docgen.ArtifactKind{docgen.Readme, docgen.API}, kinds)

	opts := cfg.ScanOptions(nil)
	assert.Contains(t, opts.ExcludeDirs, "fixtures")
	assert.Contains(t, opts.ExcludeDirs, "node_modules")
}

func summaryDefaultsExcerpt() int { return Default().Summary.ExcerptLines }

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_calls = ["), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := applyEnv(cfg, envMap(map[string]string{
		"REPODOC_MAX_CALLS":    "7",
		"REPODOC_DETAIL":       "low",
		"REPODOC_PROVIDER":     "anthropic",
		"LLM_RPS":              "2.5",
		"ARTIFACT_S3_ENDPOINT": "minio:9000",
		"REPODOC_S3_USE_SSL":   "true",
	}))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxCalls)
	assert.Equal(t, "low", cfg.Detail)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 2.5, cfg.LLM.RPS)
	assert.Equal(t, "minio:9000", cfg.Output.S3.Endpoint)
	assert.True(t, cfg.Output.S3.UseSSL)
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	err := applyEnv(Default(), envMap(map[string]string{"REPODOC_MAX_CALLS": "many"}))
	require.Error(t, err)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "REPODOC_MAX_CALLS", ce.Field)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"negative max calls", func(c *Config) { c.MaxCalls = -1 }, "max_calls"},
		{"bad detail", func(c *Config) { c.Detail = "extreme" }, "detail"},
		{"bad policy", func(c *Config) { c.ReadmePolicy = "sometimes" }, "readme_policy"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "openai" }, "llm.provider"},
		{"bad artifact", func(c *Config) { c.Artifacts = []string{"changelog"} }, "artifacts[0]"},
		{"zero budget", func(c *Config) { c.Summary.Budget = 0 }, "summary.budget"},
		{"bad delay", func(c *Config) { c.LLM.RetryDelay = "soon" }, "llm.retry_delay"},
		{"missing repo", func(c *Config) { c.Repo = filepath.Join(c.Repo, "missing") }, "repo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Repo = t.TempDir()
			tc.mut(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.field, ce.Field)
		})
	}
}

func TestValidateNormalizesAliases(t *testing.T) {
	cfg := Default()
	cfg.Repo = t.TempDir()
	cfg.LLM.Provider = "Claude"
	cfg.ReadmePolicy = "non-empty"
	cfg.Detail = " HIGH "
	require.NoError(t, cfg.Validate())
	assert.Equal(t, string(llm.ProviderAnthropic), cfg.LLM.Provider)
	assert.Equal(t, "nonempty", cfg.ReadmePolicy)
	assert.Equal(t, "high", cfg.Detail)
}

func TestAPIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")

	cfg := Default()
	assert.Equal(t, "g-key", cfg.APIKey())
	cfg.LLM.Provider = "anthropic"
	assert.Equal(t, "a-key", cfg.APIKey())
	cfg.LLM.APIKey = "explicit"
	assert.Equal(t, "explicit", cfg.APIKey())
}

func TestWrapKeepsExisting(t *testing.T) {
	inner := Errorf("max_calls", "negative")
	assert.Same(t, inner, Wrap("other", inner))
	assert.Nil(t, Wrap("x", nil))
	assert.Contains(t, inner.Error(), "max_calls")
}
