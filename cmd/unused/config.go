package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/unused/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file",
	}
}

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show the effective configuration",
				ArgsUsage: "[path]",
				Description: `Shows the merged configuration from defaults and config file.

Examples:
  unused config show              # Show effective config
  unused config show -c unused.toml`,
				Flags:  []cli.Flag{configFlag()},
				Action: runConfigShow,
			},
			{
				Name:      "validate",
				Usage:     "Validate a configuration file",
				ArgsUsage: "[path]",
				Description: `Validates a configuration file against the schema and checks its values.

Examples:
  unused config validate                  # Validates the config found in the project
  unused config validate -c unused.toml   # Validates specific file`,
				Flags:  []cli.Flag{configFlag()},
				Action: runConfigValidate,
			},
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new configuration file",
		Description: `Creates a new unused.toml configuration file in the current directory
with sensible defaults. Use --output to specify a different location.

Examples:
  unused init                      # Creates unused.toml in current directory
  unused init -o app/unused.toml   # Creates config in app directory
  unused init --force              # Overwrite existing config file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "unused.toml",
				Usage:   "Output file path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInit,
	}
}

// configSource returns the file a config subcommand operates on, or "" when
// the project has none.
func configSource(c *cli.Context) (string, error) {
	if path := c.String("config"); path != "" {
		return path, nil
	}
	root, err := projectRoot(c)
	if err != nil {
		return "", err
	}
	return config.Find(root), nil
}

func runConfigShow(c *cli.Context) error {
	path, err := configSource(c)
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	w := c.App.Writer
	if path != "" {
		if cfg, err = config.Load(path); err != nil {
			return err
		}
		fmt.Fprintf(w, "# Configuration from: %s\n\n", path)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(content)
	return err
}

func runConfigValidate(c *cli.Context) error {
	path, err := configSource(c)
	if err != nil {
		return err
	}
	if path == "" {
		color.New(color.FgYellow).Fprintln(c.App.Writer, "No config file found. Default configuration is valid.")
		return nil
	}

	if _, err := config.ValidateFile(path); err != nil {
		color.New(color.FgRed).Fprintln(c.App.ErrWriter, "Configuration validation failed:")
		fmt.Fprintf(c.App.ErrWriter, "  - %s\n", err)
		return err
	}
	color.New(color.FgGreen).Fprintf(c.App.Writer, "Configuration valid: %s\n", path)
	return nil
}

func runInit(c *cli.Context) error {
	outputPath := c.String("output")

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.New(color.FgGreen).Fprintf(c.App.Writer, "Created %s\n", outputPath)
	fmt.Fprintln(c.App.Writer, "Edit this file to choose entry points and ignore patterns.")
	return nil
}

func generateDefaultConfig() (string, error) {
	content, err := toml.Marshal(config.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# unused configuration\n")
	buf.WriteString("# Entries and sources are relative to the project root.\n\n")
	buf.Write(content)
	return buf.String(), nil
}
