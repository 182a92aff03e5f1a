// Package assets reports declared asset files that reachable code never
// mentions.
package assets

import (
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/panbanda/unused/pkg/analyzer/heuristic"
	"github.com/panbanda/unused/pkg/dart"
	"github.com/panbanda/unused/pkg/manifest"
	"github.com/panbanda/unused/pkg/models"
	"github.com/panbanda/unused/pkg/source"
)

// variantDir matches resolution-variant directories such as "2.0x" or "3x".
var variantDir = regexp.MustCompile(`^\d+(\.\d+)?x$`)

// Checker reports unused assets.
type Checker struct {
	index         *source.Index
	ignore        []string
	matchFileName bool
	logger        *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithIgnore skips assets matching any of the doublestar patterns.
func WithIgnore(patterns []string) Option {
	return func(c *Checker) {
		c.ignore = patterns
	}
}

// WithFileNameMatching also accepts a mention of the bare file name as use.
func WithFileNameMatching(enabled bool) Option {
	return func(c *Checker) {
		c.matchFileName = enabled
	}
}

// WithLogger sets the logger for declared paths that do not exist.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = l
	}
}

// New creates an asset checker over the scanned files.
func New(index *source.Index, opts ...Option) *Checker {
	c := &Checker{
		index:  index,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Declared is one asset file bundled by a manifest entry.
type Declared struct {
	File source.File
	// Line of the manifest entry that bundles the file.
	Line int
	// Variant is the main asset path when File is a resolution variant.
	Variant string
}

// Expand resolves manifest entries to files. A directory entry bundles its
// direct files and their resolution variants; subdirectories are not
// included. An entry without a trailing slash that names a directory is
// expanded the same way. Each file appears once, attributed to its first
// entry.
func (c *Checker) Expand(entries []manifest.Asset) []Declared {
	var out []Declared
	seen := make(map[source.FileID]bool)
	add := func(f source.File, line int, variant string) {
		if seen[f.ID] {
			return
		}
		seen[f.ID] = true
		out = append(out, Declared{File: f, Line: line, Variant: variant})
	}

	for _, entry := range entries {
		if entry.IsDir() {
			if !c.expandDir(strings.TrimSuffix(entry.Path, "/"), entry.Line, add) {
				c.logger.Warn("declared asset directory is empty or missing", "path", entry.Path, "line", entry.Line)
			}
			continue
		}
		if f, ok := c.index.Lookup(entry.Path); ok {
			add(f, entry.Line, "")
			continue
		}
		if !c.expandDir(entry.Path, entry.Line, add) {
			c.logger.Warn("declared asset not found", "path", entry.Path, "line", entry.Line)
		}
	}
	return out
}

// expandDir adds the files directly under dir and their resolution variants.
// It reports whether dir contributed any file.
func (c *Checker) expandDir(dir string, line int, add func(source.File, int, string)) bool {
	found := false
	for _, f := range c.index.Files() {
		if f.Kind == source.KindManifest {
			continue
		}
		parent := path.Dir(f.Path)
		switch {
		case parent == dir:
			add(f, line, "")
			found = true
		case path.Dir(parent) == dir && variantDir.MatchString(path.Base(parent)):
			add(f, line, path.Join(dir, path.Base(f.Path)))
			found = true
		}
	}
	return found
}

// Check returns the declared assets that ev never mentions. Files listed in
// fonts are used by the font declaration itself.
func (c *Checker) Check(entries []manifest.Asset, fonts []string, ev *heuristic.Evidence) []models.Item {
	fontFiles := make(map[string]bool, len(fonts))
	for _, f := range fonts {
		fontFiles[f] = true
	}

	var items []models.Item
	for _, d := range c.Expand(entries) {
		p := d.File.Path
		if fontFiles[p] || source.MatchAny(c.ignore, p) {
			continue
		}
		if c.used(p, ev) || (d.Variant != "" && c.used(d.Variant, ev)) {
			continue
		}

		detail := fmt.Sprintf("declared at %s:%d", manifest.FileName, d.Line)
		if d.Variant != "" {
			detail = fmt.Sprintf("resolution variant of %s, %s", d.Variant, detail)
		}
		items = append(items, models.Item{
			Kind:   models.KindAsset,
			ID:     p,
			File:   p,
			Detail: detail,
			Size:   d.File.Size,
		})
	}
	return items
}

func (c *Checker) used(p string, ev *heuristic.Evidence) bool {
	if ev == nil {
		return false
	}
	if found(p, ev) {
		return true
	}
	return c.matchFileName && ev.HasName(path.Base(p), nil)
}

// found looks p up as a path token, falling back to a bounded substring
// search when p contains bytes the tokenizer splits on.
func found(p string, ev *heuristic.Evidence) bool {
	for i := 0; i < len(p); i++ {
		if !dart.IsPathByte(p[i]) {
			return ev.Search(p, nil)
		}
	}
	return ev.HasPath(p, nil)
}
