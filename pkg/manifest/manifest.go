// Package manifest reads the project manifest (pubspec.yaml) and the
// optional gen-l10n configuration (l10n.yaml).
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the manifest file expected at the project root.
	FileName = "pubspec.yaml"
	// GenL10nFileName configures Flutter's built-in localization generator.
	GenL10nFileName = "l10n.yaml"
)

// Source describes where a dependency is fetched from.
type Source string

const (
	SourceVersion Source = "version"
	SourcePath    Source = "path"
	SourceSDK     Source = "sdk"
	SourceGit     Source = "git"
	SourceHosted  Source = "hosted"
)

// Dependency is one entry of dependencies or dev_dependencies.
type Dependency struct {
	Name       string
	Source     Source
	Constraint string
	Dev        bool
	Line       int
}

// Asset is one entry of flutter.assets. A Path ending in "/" names a
// directory whose direct children are bundled.
type Asset struct {
	Path    string
	Flavors []string
	Line    int
}

// IsDir reports whether the entry declares a whole directory.
func (a Asset) IsDir() bool {
	return strings.HasSuffix(a.Path, "/")
}

// Font is a declared font family and its files.
type Font struct {
	Family string
	Assets []string
}

// Intl holds the flutter_intl plugin settings.
type Intl struct {
	Enabled    bool
	ClassName  string
	ArbDir     string
	MainLocale string
	OutputDir  string
}

// GenL10n holds the settings read from l10n.yaml.
type GenL10n struct {
	Present      bool
	ArbDir       string
	TemplateFile string
	OutputClass  string
}

// Manifest is the parsed project manifest.
type Manifest struct {
	Name            string
	Dependencies    []Dependency
	DevDependencies []Dependency
	Assets          []Asset
	Fonts           []Font
	Intl            Intl
	GenL10n         GenL10n
}

// Error is a fatal problem with the manifest.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNoName is returned for a manifest without a package name.
var ErrNoName = errors.New("missing package name")

type pubspec struct {
	Name            string    `yaml:"name"`
	Dependencies    yaml.Node `yaml:"dependencies"`
	DevDependencies yaml.Node `yaml:"dev_dependencies"`
	Flutter         struct {
		Assets yaml.Node `yaml:"assets"`
		Fonts  []struct {
			Family string `yaml:"family"`
			Fonts  []struct {
				Asset string `yaml:"asset"`
			} `yaml:"fonts"`
		} `yaml:"fonts"`
	} `yaml:"flutter"`
	FlutterIntl *struct {
		Enabled    bool   `yaml:"enabled"`
		ClassName  string `yaml:"class_name"`
		ArbDir     string `yaml:"arb_dir"`
		MainLocale string `yaml:"main_locale"`
		OutputDir  string `yaml:"output_dir"`
	} `yaml:"flutter_intl"`
}

type l10nYAML struct {
	ArbDir       string `yaml:"arb-dir"`
	TemplateFile string `yaml:"template-arb-file"`
	OutputClass  string `yaml:"output-class"`
}

// Parse decodes pubspec.yaml content.
func Parse(data []byte) (*Manifest, error) {
	var raw pubspec
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return nil, ErrNoName
	}

	m := &Manifest{
		Name: name,
		Intl: Intl{
			ClassName:  "S",
			ArbDir:     "lib/l10n",
			MainLocale: "en",
			OutputDir:  "lib/generated",
		},
	}

	var err error
	if m.Dependencies, err = parseDependencies(&raw.Dependencies, false); err != nil {
		return nil, fmt.Errorf("dependencies: %w", err)
	}
	if m.DevDependencies, err = parseDependencies(&raw.DevDependencies, true); err != nil {
		return nil, fmt.Errorf("dev_dependencies: %w", err)
	}
	if m.Assets, err = parseAssets(&raw.Flutter.Assets); err != nil {
		return nil, fmt.Errorf("flutter.assets: %w", err)
	}

	for _, f := range raw.Flutter.Fonts {
		font := Font{Family: f.Family}
		for _, a := range f.Fonts {
			if a.Asset != "" {
				font.Assets = append(font.Assets, cleanPath(a.Asset))
			}
		}
		m.Fonts = append(m.Fonts, font)
	}

	if fi := raw.FlutterIntl; fi != nil {
		m.Intl.Enabled = fi.Enabled
		if fi.ClassName != "" {
			m.Intl.ClassName = fi.ClassName
		}
		if fi.ArbDir != "" {
			m.Intl.ArbDir = cleanPath(fi.ArbDir)
		}
		if fi.MainLocale != "" {
			m.Intl.MainLocale = fi.MainLocale
		}
		if fi.OutputDir != "" {
			m.Intl.OutputDir = cleanPath(fi.OutputDir)
		}
	}

	return m, nil
}

// ParseGenL10n decodes l10n.yaml content.
func ParseGenL10n(data []byte) (GenL10n, error) {
	var raw l10nYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return GenL10n{}, err
	}
	g := GenL10n{
		Present:      true,
		ArbDir:       "lib/l10n",
		TemplateFile: "app_en.arb",
		OutputClass:  "AppLocalizations",
	}
	if raw.ArbDir != "" {
		g.ArbDir = cleanPath(raw.ArbDir)
	}
	if raw.TemplateFile != "" {
		g.TemplateFile = raw.TemplateFile
	}
	if raw.OutputClass != "" {
		g.OutputClass = raw.OutputClass
	}
	return g, nil
}

// Load reads pubspec.yaml, and l10n.yaml when present, from root.
func Load(fs afero.Fs, root string) (*Manifest, error) {
	path := filepath.Join(root, FileName)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	m, err := Parse(data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	l10nPath := filepath.Join(root, GenL10nFileName)
	data, err = afero.ReadFile(fs, l10nPath)
	switch {
	case err == nil:
		g, err := ParseGenL10n(data)
		if err != nil {
			return nil, &Error{Path: l10nPath, Err: err}
		}
		m.GenL10n = g
	case !errors.Is(err, os.ErrNotExist):
		return nil, &Error{Path: l10nPath, Err: err}
	}
	return m, nil
}

// AllDependencies returns the regular dependencies, followed by the dev
// dependencies when includeDev is set.
func (m *Manifest) AllDependencies(includeDev bool) []Dependency {
	out := make([]Dependency, 0, len(m.Dependencies)+len(m.DevDependencies))
	out = append(out, m.Dependencies...)
	if includeDev {
		out = append(out, m.DevDependencies...)
	}
	return out
}

// LocalizationClasses returns the generated accessor classes whose members
// correspond to localization keys.
func (m *Manifest) LocalizationClasses() []string {
	var classes []string
	if m.Intl.Enabled {
		classes = append(classes, m.Intl.ClassName)
	}
	if m.GenL10n.Present {
		classes = append(classes, m.GenL10n.OutputClass)
	}
	if len(classes) == 0 {
		classes = []string{"S", "AppLocalizations"}
	}
	return classes
}

// ArbDirs returns the directories that hold the project's ARB files.
func (m *Manifest) ArbDirs() []string {
	var dirs []string
	if m.Intl.Enabled {
		dirs = append(dirs, m.Intl.ArbDir)
	}
	if m.GenL10n.Present && (len(dirs) == 0 || dirs[0] != m.GenL10n.ArbDir) {
		dirs = append(dirs, m.GenL10n.ArbDir)
	}
	return dirs
}

// FontFiles returns every file referenced by a font family, sorted.
func (m *Manifest) FontFiles() []string {
	var files []string
	for _, f := range m.Fonts {
		files = append(files, f.Assets...)
	}
	sort.Strings(files)
	return files
}

func parseDependencies(node *yaml.Node, dev bool) ([]Dependency, error) {
	if node.Kind == 0 || isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}

	deps := make([]Dependency, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		dep := Dependency{
			Name:   key.Value,
			Source: SourceVersion,
			Dev:    dev,
			Line:   key.Line,
		}
		switch val.Kind {
		case yaml.ScalarNode:
			dep.Constraint = val.Value
			if isNull(val) {
				dep.Constraint = "any"
			}
		case yaml.MappingNode:
			dep.Source, dep.Constraint = describeMapping(val)
		default:
			return nil, fmt.Errorf("line %d: unsupported value for %q", val.Line, key.Value)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

func describeMapping(node *yaml.Node) (Source, string) {
	src := SourceVersion
	var constraint string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "path":
			src = SourcePath
			if constraint == "" {
				constraint = val.Value
			}
		case "sdk":
			src = SourceSDK
			if constraint == "" {
				constraint = val.Value
			}
		case "git":
			src = SourceGit
			if val.Kind == yaml.ScalarNode {
				constraint = val.Value
			} else {
				constraint = scalarField(val, "url")
			}
		case "hosted":
			src = SourceHosted
		case "version":
			constraint = val.Value
		}
	}
	return src, constraint
}

func parseAssets(node *yaml.Node) ([]Asset, error) {
	if node.Kind == 0 || isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list", node.Line)
	}

	assets := make([]Asset, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			if item.Value == "" {
				continue
			}
			assets = append(assets, Asset{Path: cleanAssetPath(item.Value), Line: item.Line})
		case yaml.MappingNode:
			var entry struct {
				Path    string   `yaml:"path"`
				Flavors []string `yaml:"flavors"`
			}
			if err := item.Decode(&entry); err != nil {
				return nil, fmt.Errorf("line %d: %w", item.Line, err)
			}
			if entry.Path == "" {
				return nil, fmt.Errorf("line %d: asset entry without path", item.Line)
			}
			assets = append(assets, Asset{Path: cleanAssetPath(entry.Path), Flavors: entry.Flavors, Line: item.Line})
		default:
			return nil, fmt.Errorf("line %d: unsupported asset entry", item.Line)
		}
	}
	return assets, nil
}

func scalarField(node *yaml.Node, name string) string {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == name {
			return node.Content[i+1].Value
		}
	}
	return ""
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// cleanPath normalises a manifest path to the slash-separated project-relative form.
func cleanPath(p string) string {
	p = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(p)), "./")
	return strings.TrimSuffix(p, "/")
}

// cleanAssetPath is cleanPath that keeps the trailing slash of directory entries.
func cleanAssetPath(p string) string {
	dir := strings.HasSuffix(strings.TrimSpace(p), "/")
	p = cleanPath(p)
	if dir {
		return p + "/"
	}
	return p
}
