// Package config loads run configuration with priority
// defaults -> TOML file -> environment (.env included) -> CLI flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"repodoc/internal/docgen"
	"repodoc/internal/llm"
	"repodoc/internal/output"
	"repodoc/internal/scan"
	"repodoc/internal/summary"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "repodoc.toml"

// Config is the full run configuration.
type Config struct {
	// Repo is the repository root to document.
	Repo string `toml:"repo" validate:"required"`
	// Out is the output root; empty means Repo.
	Out          string   `toml:"out"`
	Detail       string   `toml:"detail" validate:"oneof=low medium high"`
	MaxCalls     int      `toml:"max_calls" validate:"gte=0"`
	ReadmePolicy string   `toml:"readme_policy" validate:"oneof=exists nonempty never"`
	Artifacts    []string `toml:"artifacts" validate:"dive,oneof=readme architecture api setup usage"`
	DryRun       bool     `toml:"dry_run"`

	Scan    ScanConfig    `toml:"scan"`
	Summary SummaryConfig `toml:"summary"`
	LLM     LLMConfig     `toml:"llm"`
	Output  OutputConfig  `toml:"output"`
	Logging LoggingConfig `toml:"logging"`
}

type ScanConfig struct {
	MaxFileSize int64    `toml:"max_file_size" validate:"gt=0"`
	ExcludeDirs []string `toml:"exclude_dirs"`
	ExcludeExts []string `toml:"exclude_exts"`
	// ExtraExcludeDirs extends ExcludeDirs instead of replacing it.
	ExtraExcludeDirs []string `toml:"extra_exclude_dirs"`
	SniffBytes       int      `toml:"sniff_bytes" validate:"gt=0"`
	PrintableRatio   float64  `toml:"printable_ratio" validate:"gt=0,lte=1"`
	CacheEntries     int      `toml:"cache_entries" validate:"gte=0"`
}

type SummaryConfig struct {
	Budget       int `toml:"budget" validate:"gt=0"`
	ExcerptLines int `toml:"excerpt_lines" validate:"gt=0"`
	OutlineDepth int `toml:"outline_depth" validate:"gt=0"`
	LineWidth    int `toml:"line_width" validate:"gt=0"`
}

type LLMConfig struct {
	Provider    string  `toml:"provider" validate:"oneof=gemini anthropic fake"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	Temperature float64 `toml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `toml:"max_tokens" validate:"gt=0"`
	Retries     int     `toml:"retries" validate:"gte=1,lte=10"`
	RetryDelay  string  `toml:"retry_delay"`
	Timeout     string  `toml:"timeout"`
	RPS         float64 `toml:"rps" validate:"gte=0"`
	Burst       int     `toml:"burst" validate:"gte=0"`
}

type OutputConfig struct {
	// Format is empty for auto: table on a terminal, json otherwise.
	Format string          `toml:"format" validate:"omitempty,oneof=table json yaml"`
	S3     output.S3Config `toml:"s3"`
}

type LoggingConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=json console"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Detail:       string(llm.DetailMedium),
		MaxCalls:     20,
		ReadmePolicy: string(output.PolicyExists),
		Scan: ScanConfig{
			MaxFileSize:    scan.DefaultMaxFileSize,
			ExcludeDirs:    append([]string(nil), scan.DefaultExcludeDirs...),
			ExcludeExts:    append([]string(nil), scan.DefaultExcludeExts...),
			SniffBytes:     scan.DefaultSniffBytes,
			PrintableRatio: scan.DefaultPrintableRatio,
			CacheEntries:   scan.DefaultCacheEntries,
		},
		Summary: SummaryConfig{
			Budget:       summary.DefaultBudget,
			ExcerptLines: summary.DefaultExcerptLines,
			OutlineDepth: summary.DefaultOutlineDepth,
			LineWidth:    summary.DefaultLineWidth,
		},
		LLM: LLMConfig{
			Provider:    string(llm.ProviderGemini),
			Temperature: llm.DefaultTemperature,
			MaxTokens:   llm.DefaultMaxTokens,
			Retries:     llm.DefaultRetries,
			RetryDelay:  llm.DefaultRetryDelay.String(),
			Timeout:     llm.DefaultTimeout.String(),
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads .env (if present), the TOML file at path (DefaultFile when path
// is empty and that file exists) and environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, Wrap(".env", err)
	}
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, Wrap(path, fmt.Errorf("parse: %w", err))
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, Wrap(path, err)
	}
	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies environment overrides. Malformed numbers are configuration errors.
func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	integer := func(dst *int, key string) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Errorf(key, "not an integer: %q", v)
		}
		*dst = n
		return nil
	}
	float := func(dst *float64, key string) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Errorf(key, "not a number: %q", v)
		}
		*dst = f
		return nil
	}

	str(&cfg.Repo, "REPODOC_REPO")
	str(&cfg.Out, "REPODOC_OUT")
	str(&cfg.Detail, "REPODOC_DETAIL")
	str(&cfg.ReadmePolicy, "REPODOC_README_POLICY")
	str(&cfg.LLM.Provider, "REPODOC_PROVIDER")
	str(&cfg.LLM.Model, "REPODOC_MODEL")
	str(&cfg.Logging.Level, "REPODOC_LOG_LEVEL")
	str(&cfg.Logging.Format, "REPODOC_LOG_FORMAT")
	str(&cfg.Output.Format, "REPODOC_FORMAT")
	str(&cfg.Output.S3.Endpoint, "REPODOC_S3_ENDPOINT", "ARTIFACT_S3_ENDPOINT")
	str(&cfg.Output.S3.Region, "REPODOC_S3_REGION", "ARTIFACT_S3_REGION")
	str(&cfg.Output.S3.AccessKey, "REPODOC_S3_ACCESS_KEY", "ARTIFACT_S3_ACCESS_KEY")
	str(&cfg.Output.S3.SecretKey, "REPODOC_S3_SECRET_KEY", "ARTIFACT_S3_SECRET_KEY")
	str(&cfg.Output.S3.Bucket, "REPODOC_S3_BUCKET", "ARTIFACT_S3_BUCKET")
	str(&cfg.Output.S3.Prefix, "REPODOC_S3_PREFIX")

	var maxFile int
	for _, f := range []func() error{
		func() error { return integer(&cfg.MaxCalls, "REPODOC_MAX_CALLS") },
		func() error { return integer(&cfg.Summary.Budget, "REPODOC_SUMMARY_BUDGET") },
		func() error { return integer(&cfg.Summary.ExcerptLines, "REPODOC_EXCERPT_LINES") },
		func() error { return integer(&maxFile, "REPODOC_MAX_FILE_SIZE") },
		func() error { return float(&cfg.LLM.RPS, "LLM_RPS") },
		func() error { return integer(&cfg.LLM.Burst, "LLM_BURST") },
	} {
		if err := f(); err != nil {
			return err
		}
	}
	if maxFile != 0 {
		cfg.Scan.MaxFileSize = int64(maxFile)
	}
	if v := strings.TrimSpace(getenv("REPODOC_S3_USE_SSL")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Errorf("REPODOC_S3_USE_SSL", "not a boolean: %q", v)
		}
		cfg.Output.S3.UseSSL = b
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints and the values that need parsing.
// Every failure is a *ConfigurationError.
func (c *Config) Validate() error {
	c.normalize()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			if fe.Param() != "" {
				return Errorf(field, "invalid value %v (must satisfy %s=%s)", fe.Value(), fe.Tag(), fe.Param())
			}
			return Errorf(field, "invalid value %v (must satisfy %s)", fe.Value(), fe.Tag())
		}
		return Wrap("", err)
	}
	if _, err := c.RetryDelay(); err != nil {
		return Wrap("llm.retry_delay", err)
	}
	if _, err := c.Timeout(); err != nil {
		return Wrap("llm.timeout", err)
	}
	info, err := os.Stat(c.Repo)
	if err != nil {
		return Wrap("repo", err)
	}
	if !info.IsDir() {
		return Errorf("repo", "%s is not a directory", c.Repo)
	}
	return nil
}

func (c *Config) normalize() {
	c.Detail = strings.ToLower(strings.TrimSpace(c.Detail))
	c.ReadmePolicy = strings.ToLower(strings.TrimSpace(c.ReadmePolicy))
	if p, err := output.ParseReadmePolicy(c.ReadmePolicy); err == nil {
		c.ReadmePolicy = string(p)
	}
	if p, err := llm.ParseProvider(c.LLM.Provider); err == nil {
		c.LLM.Provider = string(p)
	}
	for i, a := range c.Artifacts {
		c.Artifacts[i] = strings.ToLower(strings.TrimSpace(a))
	}
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

// OutRoot returns the output root directory.
func (c *Config) OutRoot() string {
	if c.Out != "" {
		return c.Out
	}
	return c.Repo
}

func (c *Config) RetryDelay() (time.Duration, error) { return parseDuration(c.LLM.RetryDelay) }
func (c *Config) Timeout() (time.Duration, error)    { return parseDuration(c.LLM.Timeout) }

func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// APIKey returns the configured key, falling back to the provider's
// conventional environment variable.
func (c *Config) APIKey() string {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	switch llm.Provider(c.LLM.Provider) {
	case llm.ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case llm.ProviderGemini:
		if k := os.Getenv("GEMINI_API_KEY"); k != "" {
			return k
		}
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}

// ScanOptions converts the scan section. cache may be nil.
func (c *Config) ScanOptions(cache *scan.PrefixCache) scan.Options {
	dirs := append(append([]string(nil), c.Scan.ExcludeDirs...), c.Scan.ExtraExcludeDirs...)
	return scan.Options{
		MaxFileSize:    c.Scan.MaxFileSize,
		ExcludeDirs:    dirs,
		ExcludeExts:    c.Scan.ExcludeExts,
		SniffBytes:     c.Scan.SniffBytes,
		PrintableRatio: c.Scan.PrintableRatio,
		Cache:          cache,
	}
}

// SummaryOptions converts the summary section.
func (c *Config) SummaryOptions(cache *scan.PrefixCache) summary.Options {
	return summary.Options{
		Budget:       c.Summary.Budget,
		ExcerptLines: c.Summary.ExcerptLines,
		OutlineDepth: c.Summary.OutlineDepth,
		LineWidth:    c.Summary.LineWidth,
		Cache:        cache,
	}
}

// LLMOptions converts the llm section. Call after Validate.
func (c *Config) LLMOptions() llm.Options {
	delay, _ := c.RetryDelay()
	timeout, _ := c.Timeout()
	return llm.Options{
		Provider:    llm.Provider(c.LLM.Provider),
		Model:       c.LLM.Model,
		APIKey:      c.APIKey(),
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		Retries:     c.LLM.Retries,
		RetryDelay:  delay,
		Timeout:     timeout,
		RPS:         c.LLM.RPS,
		Burst:       c.LLM.Burst,
	}
}

// ArtifactKinds returns the selected artifacts; empty selects all.
func (c *Config) ArtifactKinds() ([]docgen.ArtifactKind, error) {
	out := make([]docgen.ArtifactKind, 0, len(c.Artifacts))
	for _, a := range c.Artifacts {
		k, err := docgen.ParseArtifactKind(a)
		if err != nil {
			return nil, Wrap("artifacts", err)
		}
		out = append(out, k)
	}
	return out, nil
}
