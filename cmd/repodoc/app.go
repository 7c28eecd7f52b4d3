package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"repodoc/internal/config"
	"repodoc/internal/docgen"
	"repodoc/internal/llm"
	"repodoc/internal/logging"
	"repodoc/internal/orchestrator"
	"repodoc/internal/output"
	"repodoc/internal/render"
)

const (
	ExitOK       = 0
	ExitFatal    = 1
	ExitFailures = 2
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "repodoc",
		Usage:   "Generate repository documentation under a model call budget",
		Version: version,
		Flags:   append(commonFlags(), generateFlags()...),
		Action:  generateAction,
		Commands: []*cli.Command{
			{
				Name:   "analyze",
				Usage:  "Scan the repository and print the summary sent to the model",
				Flags:  commonFlags(),
				Action: analyzeAction,
			},
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to a TOML config file (default ./" + config.DefaultFile + " if present)"},
		&cli.StringFlag{Name: "repo", Aliases: []string{"r"}, Usage: "Repository root to document", Value: "."},
		&cli.Int64Flag{Name: "max-file-size", Usage: "Skip files larger than this many bytes"},
		&cli.StringSliceFlag{Name: "exclude-dir", Usage: "Additional directory name to exclude (repeatable)"},
		&cli.IntFlag{Name: "summary-budget", Usage: "Maximum summary size in characters"},
		&cli.IntFlag{Name: "excerpt-lines", Usage: "Lines taken from the head of each excerpted file"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Output format: json, table, yaml"},
		&cli.BoolFlag{Name: "no-color", Usage: "Disable colored output"},
		&cli.StringFlag{Name: "log-level", Usage: "Log level: debug, info, warn, error"},
		&cli.StringFlag{Name: "log-format", Usage: "Log format: console, json"},
	}
}

func generateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output root (defaults to the repository root)"},
		&cli.StringFlag{Name: "detail", Aliases: []string{"d"}, Usage: "Detail level: low, medium, high"},
		&cli.IntFlag{Name: "max-calls", Aliases: []string{"n"}, Usage: "Maximum model calls for the run (0 = analysis only)"},
		&cli.StringFlag{Name: "provider", Usage: "Model provider: gemini, anthropic, fake"},
		&cli.StringFlag{Name: "model", Usage: "Model id (provider default when empty)"},
		&cli.StringFlag{Name: "readme-policy", Usage: "When an existing README counts as present: exists, nonempty, never"},
		&cli.StringSliceFlag{Name: "artifact", Aliases: []string{"a"}, Usage: "Artifact to generate (repeatable): readme, architecture, api, setup, usage"},
		&cli.BoolFlag{Name: "dry-run", Usage: "Analyse only; no model calls, nothing written"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Suppress progress lines"},
	}
}

// loadConfig applies defaults, the config file, the environment and finally flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("repo") || cfg.Repo == "" {
		cfg.Repo = c.String("repo")
	}
	str := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	integer := func(flag string, dst *int) {
		if c.IsSet(flag) {
			*dst = c.Int(flag)
		}
	}
	str("out", &cfg.Out)
	str("detail", &cfg.Detail)
	str("provider", &cfg.LLM.Provider)
	str("model", &cfg.LLM.Model)
	str("readme-policy", &cfg.ReadmePolicy)
	str("format", &cfg.Output.Format)
	str("log-level", &cfg.Logging.Level)
	str("log-format", &cfg.Logging.Format)
	integer("max-calls", &cfg.MaxCalls)
	integer("summary-budget", &cfg.Summary.Budget)
	integer("excerpt-lines", &cfg.Summary.ExcerptLines)
	if c.IsSet("max-file-size") {
		cfg.Scan.MaxFileSize = c.Int64("max-file-size")
	}
	if c.IsSet("exclude-dir") {
		cfg.Scan.ExtraExcludeDirs = append(cfg.Scan.ExtraExcludeDirs, c.StringSlice("exclude-dir")...)
	}
	if c.IsSet("artifact") {
		cfg.Artifacts = c.StringSlice("artifact")
	}
	if c.IsSet("dry-run") {
		cfg.DryRun = c.Bool("dry-run")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*zap.Logger, error) {
	return logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: w})
}

func newRenderer(c *cli.Context, cfg *config.Config) (*render.Renderer, error) {
	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	return render.NewRenderer(format, !c.Bool("no-color"), c.App.Writer), nil
}

func generateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitFatal)
	}
	renderer, err := newRenderer(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), ExitFatal)
	}
	log, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return cli.Exit(err.Error(), ExitFatal)
	}
	runID := logging.NewRunID()
	log = logging.ForRun(log, runID, cfg.Repo)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var client llm.Client
	if cfg.MaxCalls > 0 && !cfg.DryRun {
		opts := cfg.LLMOptions()
		opts.Log = log
		client, err = llm.New(ctx, opts)
		if err != nil {
			return cli.Exit(config.Wrap("llm", err).Error(), ExitFatal)
		}
		defer client.Close()
	}

	writer, err := newWriter(cfg, runID, log)
	if err != nil {
		return cli.Exit(err.Error(), ExitFatal)
	}
	kinds, err := cfg.ArtifactKinds()
	if err != nil {
		return cli.Exit(err.Error(), ExitFatal)
	}
	if !c.Bool("quiet") {
		ctx = orchestrator.WithEmitter(ctx, progress(c.App.ErrWriter))
	}

	report, runErr := orchestrator.Run(ctx, orchestrator.Params{
		Root:         cfg.Repo,
		OutRoot:      cfg.OutRoot(),
		Detail:       llm.DetailLevel(cfg.Detail),
		MaxCalls:     cfg.MaxCalls,
		Artifacts:    kinds,
		ReadmePolicy: output.ReadmePolicy(cfg.ReadmePolicy),
		Scan:         cfg.ScanOptions(nil),
		Summary:      cfg.SummaryOptions(nil),
		CacheEntries: cfg.Scan.CacheEntries,
		Client:       client,
		Writer:       writer,
		DryRun:       cfg.DryRun,
		RunID:        runID,
		Log:          log,
	})
	if config.IsConfigurationError(runErr) {
		return cli.Exit(runErr.Error(), ExitFatal)
	}
	if err := renderer.Report(report); err != nil {
		return cli.Exit(err.Error(), ExitFatal)
	}
	if runErr != nil {
		return cli.Exit(fmt.Sprintf("run aborted: %v", runErr), ExitFatal)
	}
	return exitFor(report.Status)
}

// exitFor maps a terminal state to the process exit status.
func exitFor(s orchestrator.State) error {
	if s == orchestrator.StateCompletedWithFailures {
		return cli.Exit("", ExitFailures)
	}
	return nil
}

// newWriter returns nil for dry runs so the orchestrator picks no writer.
func newWriter(cfg *config.Config, runID string, log *zap.Logger) (output.Writer, error) {
	if cfg.DryRun {
		return nil, nil
	}
	fw, err := output.NewFileWriter(cfg.OutRoot())
	if err != nil {
		return nil, config.Wrap("out", err)
	}
	if !cfg.Output.S3.Enabled() {
		return fw, nil
	}
	mirror, err := output.NewS3Mirror(cfg.Output.S3, runID)
	if err != nil {
		return nil, config.Wrap("output.s3", err)
	}
	return &output.Mirrored{Primary: fw, Mirrors: []output.Writer{mirror}, Log: log}, nil
}

// progress prints one line per finished task.
func progress(w io.Writer) orchestrator.Emitter {
	return orchestrator.EmitterFunc(func(e orchestrator.Event) {
		if e.Type != orchestrator.EventTaskDone || e.Result == nil {
			return
		}
		line := fmt.Sprintf("[%d/%d] %s: %s", e.Index, e.Total, e.Kind, e.Result.Status)
		switch e.Result.Status {
		case docgen.StatusWritten:
			if e.Result.Path != "" {
				line += " -> " + e.Result.Path
			}
		case docgen.StatusFailed:
			line += " (" + e.Result.ErrorKind + ")"
		}
		fmt.Fprintln(w, line)
	})
}

func analyzeAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitFatal)
	}
	renderer, err := newRenderer(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), ExitFatal)
	}
	log, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return cli.Exit(err.Error(), ExitFatal)
	}
	defer func() { _ = log.Sync() }()

	prep, err := orchestrator.Analyze(orchestrator.Params{
		Root:         cfg.Repo,
		Scan:         cfg.ScanOptions(nil),
		Summary:      cfg.SummaryOptions(nil),
		CacheEntries: cfg.Scan.CacheEntries,
		Log:          logging.ForRun(log, logging.NewRunID(), cfg.Repo),
	})
	if err != nil {
		return cli.Exit(err.Error(), ExitFatal)
	}
	return renderer.Summary(prep.Summary)
}
