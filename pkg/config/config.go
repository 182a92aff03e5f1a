package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for unused.
type Config struct {
	// Entry files, relative to the project root.
	Entries []string `koanf:"entries" toml:"entries"`

	// Directories whose Dart files take part in the import graph.
	Sources []string `koanf:"sources" toml:"sources"`

	// Which checkers run
	Checks ChecksConfig `koanf:"checks" toml:"checks"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	Files        FilesConfig        `koanf:"files" toml:"files"`
	Dependencies DependenciesConfig `koanf:"dependencies" toml:"dependencies"`
	Assets       AssetsConfig       `koanf:"assets" toml:"assets"`
	Localization LocalizationConfig `koanf:"localization" toml:"localization"`
	Locator      LocatorConfig      `koanf:"locator" toml:"locator"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// ChecksConfig toggles the individual checkers.
type ChecksConfig struct {
	Files        bool `koanf:"files" toml:"files"`
	Dependencies bool `koanf:"dependencies" toml:"dependencies"`
	Assets       bool `koanf:"assets" toml:"assets"`
	Localization bool `koanf:"localization" toml:"localization"`
	Locator      bool `koanf:"locator" toml:"locator"`
}

// Any reports whether at least one checker is enabled.
func (c ChecksConfig) Any() bool {
	return c.Files || c.Dependencies || c.Assets || c.Localization || c.Locator
}

// ExcludeConfig defines which parts of the tree are never scanned.
type ExcludeConfig struct {
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// FilesConfig tunes the unused-files check.
type FilesConfig struct {
	Ignore []string `koanf:"ignore" toml:"ignore"`
}

// DependenciesConfig tunes the unused-dependencies check.
type DependenciesConfig struct {
	Ignore     []string `koanf:"ignore" toml:"ignore"`
	IncludeDev bool     `koanf:"include_dev" toml:"include_dev"`
}

// AssetsConfig tunes the unused-assets check.
type AssetsConfig struct {
	Ignore        []string `koanf:"ignore" toml:"ignore"`
	MatchFileName bool     `koanf:"match_file_name" toml:"match_file_name"`
}

// LocalizationConfig tunes the unused-localization check.
type LocalizationConfig struct {
	// Accessor classes in addition to the ones derived from pubspec.yaml/l10n.yaml.
	ClassNames []string `koanf:"class_names" toml:"class_names"`
	// Generated files that mention every key and therefore prove nothing.
	Exclude []string `koanf:"exclude" toml:"exclude"`
}

// LocatorConfig tunes the service locator check.
type LocatorConfig struct {
	Names []string `koanf:"names" toml:"names"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Entries: []string{"lib/main.dart"},
		Sources: []string{"lib"},
		Checks: ChecksConfig{
			Files:        true,
			Dependencies: true,
			Assets:       true,
			Localization: true,
			Locator:      true,
		},
		Exclude: ExcludeConfig{
			Dirs: []string{
				".git",
				".dart_tool",
				".idea",
				".fvm",
				".pub-cache",
				".symlinks",
				"build",
				"Pods",
				"node_modules",
			},
			Patterns:  []string{},
			Gitignore: true,
		},
		Files: FilesConfig{
			Ignore: []string{},
		},
		Dependencies: DependenciesConfig{
			Ignore:     []string{},
			IncludeDev: false,
		},
		Assets: AssetsConfig{
			Ignore:        []string{},
			MatchFileName: false,
		},
		Localization: LocalizationConfig{
			ClassNames: []string{},
			Exclude: []string{
				"lib/generated/**",
				"**/app_localizations*.dart",
			},
		},
		Locator: LocatorConfig{
			Names: []string{
				"locator",
				"getIt",
				"sl",
				"serviceLocator",
				"injector",
				"GetIt.I",
				"GetIt.instance",
			},
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// ConfigNames are the file names searched for in the project root, in order.
var ConfigNames = []string{
	"unused.toml",
	"unused.yaml",
	"unused.yml",
	"unused.json",
	"unused.config.yaml",
	".unused.toml",
	".unused.yaml",
	".unused.yml",
	".unused.json",
}

// parserFor picks a koanf parser from the file extension.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

// Load loads configuration from a file on top of the defaults. Keys of the
// older unused.config.yaml format are translated first; the file must then
// satisfy Schema, so misspelled keys are errors rather than ignored.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if err := upgradeLegacyKeys(k); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if err := checkSchema(k.Raw()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return cfg, nil
}

// upgradeLegacyKeys rewrites the keys of the older config format:
// deps.ignore joins dependencies.ignore, and format_ignore, which never
// affected analysis, is dropped.
func upgradeLegacyKeys(k *koanf.Koanf) error {
	if legacy := k.Strings("deps.ignore"); len(legacy) > 0 {
		merged := append(k.Strings("dependencies.ignore"), legacy...)
		if err := k.Set("dependencies.ignore", merged); err != nil {
			return err
		}
	}
	k.Delete("deps")
	k.Delete("format_ignore")
	return nil
}

// Find returns the first config file present in dir, or "" if there is none.
func Find(dir string) string {
	for _, name := range ConfigNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadOrDefault loads the config file found in dir, or returns defaults.
// A config file that exists but cannot be parsed is an error.
func LoadOrDefault(dir string) (*Config, error) {
	path := Find(dir)
	if path == "" {
		return DefaultConfig(), nil
	}
	return Load(path)
}

var validFormats = map[string]bool{
	"text":     true,
	"json":     true,
	"markdown": true,
	"md":       true,
	"toon":     true,
}

// Validate checks the effective configuration for values the analysis cannot use.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Entries) == 0 {
		errs = append(errs, errors.New("entries: at least one entry file is required"))
	}
	for _, e := range c.Entries {
		if strings.TrimSpace(e) == "" {
			errs = append(errs, errors.New("entries: empty entry path"))
		}
	}
	if len(c.Sources) == 0 {
		errs = append(errs, errors.New("sources: at least one source directory is required"))
	}
	if c.Output.Format != "" && !validFormats[strings.ToLower(c.Output.Format)] {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}
	return errors.Join(errs...)
}

// IsExcludedDir reports whether a directory name is skipped by convention.
func (c *Config) IsExcludedDir(name string) bool {
	for _, dir := range c.Exclude.Dirs {
		if name == dir {
			return true
		}
	}
	return false
}
