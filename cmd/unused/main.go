package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/panbanda/unused/internal/output"
	"github.com/panbanda/unused/internal/progress"
	"github.com/panbanda/unused/internal/service/analysis"
	"github.com/panbanda/unused/pkg/config"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// Exit statuses.
const (
	exitClean  = 0
	exitUnused = 1
	exitFatal  = 2
)

// errUnusedFound makes the CLI exit with exitUnused after a successful run.
var errUnusedFound = errors.New("unused resources found")

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp(stdout, stderr).RunContext(ctx, args)
	switch {
	case err == nil:
		return exitClean
	case errors.Is(err, errUnusedFound):
		return exitUnused
	default:
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "unused",
		Usage:     "Find unused files, dependencies, assets, translations and services in a Flutter project",
		Version:   version,
		ArgsUsage: "[path]",
		Writer:    stdout,
		ErrWriter: stderr,
		Description: `unused builds the import graph of a Dart/Flutter package from its entry
points and reports declared resources that no reachable code uses.

Exit status is 0 when nothing is unused, 1 when something is, and 2 on errors.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"UNUSED_CONFIG"},
			},
			&cli.StringSliceFlag{
				Name:    "entry",
				Aliases: []string{"e"},
				Usage:   "Entry point relative to the project root (repeatable)",
			},
			&cli.BoolFlag{Name: "files", Value: true, Usage: "Report unreachable source files"},
			&cli.BoolFlag{Name: "deps", Value: true, Usage: "Report unused dependencies"},
			&cli.BoolFlag{Name: "assets", Value: true, Usage: "Report unused assets"},
			&cli.BoolFlag{Name: "l10n", Value: true, Usage: "Report unused localization keys"},
			&cli.BoolFlag{Name: "locator", Value: true, Usage: "Report unused service locator registrations"},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Show unresolved imports, import cycles and debug logs",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable progress bars",
			},
		},
		Action: analyzeAction,
		Commands: []*cli.Command{
			configCmd(),
			initCmd(),
		},
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// projectRoot returns the positional path argument, defaulting to ".".
func projectRoot(c *cli.Context) (string, error) {
	root := "."
	if c.Args().Len() > 0 {
		root = c.Args().First()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", root, err)
	}
	return abs, nil
}

// loadConfig loads --config, or the config file found in root.
func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(root)
}

// applyFlags overrides config values with the flags given on the command line.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("entry") {
		cfg.Entries = c.StringSlice("entry")
	}
	checks := []struct {
		flag string
		dst  *bool
	}{
		{"files", &cfg.Checks.Files},
		{"deps", &cfg.Checks.Dependencies},
		{"assets", &cfg.Checks.Assets},
		{"l10n", &cfg.Checks.Localization},
		{"locator", &cfg.Checks.Locator},
	}
	for _, ch := range checks {
		if c.IsSet(ch.flag) {
			*ch.dst = c.Bool(ch.flag)
		}
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// writeReport renders rep into the file at path, or to w when path is empty.
func writeReport(w io.Writer, path string, format output.Format, colored bool, rep output.Renderable) error {
	if path == "" {
		if err := output.NewWriterFormatter(format, w, colored).Output(rep); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	}

	formatter, err := output.NewFileFormatter(format, path)
	if err != nil {
		return err
	}
	if err := formatter.Output(rep); err != nil {
		formatter.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return formatter.Close()
}

func analyzeAction(c *cli.Context) error {
	root, err := projectRoot(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}
	applyFlags(c, cfg)
	if !cfg.Checks.Any() {
		output.NewWriterFormatter(output.FormatText, c.App.ErrWriter, cfg.Output.Color).
			Warning("All checks are disabled")
		return nil
	}

	logger := newLogger(c.App.ErrWriter, cfg.Output.Verbose)
	tracker := progress.Factory(func(label string, total int) *progress.Tracker {
		return progress.NewTrackerTo(c.App.ErrWriter, label, total)
	})
	if c.Bool("no-progress") {
		tracker = progress.Discard
	}

	svc := analysis.New(
		analysis.WithConfig(cfg),
		analysis.WithLogger(logger),
		analysis.WithProgress(tracker),
	)
	rep, err := svc.Run(c.Context, root)
	if err != nil {
		return err
	}

	format := output.ParseFormat(cfg.Output.Format)
	if err := writeReport(c.App.Writer, c.String("output"), format, cfg.Output.Color, rep); err != nil {
		return err
	}

	if rep.HasUnused() {
		return errUnusedFound
	}
	return nil
}
