// Package l10n reports localization keys of the source-locale ARB files that
// reachable code never references.
package l10n

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/panbanda/unused/pkg/analyzer/heuristic"
	"github.com/panbanda/unused/pkg/manifest"
	"github.com/panbanda/unused/pkg/models"
	"github.com/panbanda/unused/pkg/source"
)

// ErrNotObject is returned for ARB documents whose top level is not an object.
var ErrNotObject = errors.New("top level is not a JSON object")

// Entry is one localization key of a source-locale ARB file.
type Entry struct {
	Key   string
	Value string
	File  string
	Line  int
}

// ParseARB reads the message keys of an ARB document. Metadata keys starting
// with "@" are skipped. Values that are not strings keep an empty Value.
func ParseARB(file string, data []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("parse %s: %w", file, ErrNotObject)
	}

	lines := lineCounter{data: data, line: 1}
	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		key, _ := tok.(string)
		line := lines.at(dec.InputOffset())

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse %s: key %q: %w", file, key, err)
		}
		if strings.HasPrefix(key, "@") {
			continue
		}
		var value string
		_ = json.Unmarshal(raw, &value)
		entries = append(entries, Entry{Key: key, Value: value, File: file, Line: line})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return entries, nil
}

// lineCounter maps increasing byte offsets to 1-based line numbers.
type lineCounter struct {
	data []byte
	pos  int
	line int
}

func (c *lineCounter) at(offset int64) int {
	end := min(int(offset), len(c.data))
	if end > c.pos {
		c.line += bytes.Count(c.data[c.pos:end], []byte{'\n'})
		c.pos = end
	}
	return c.line
}

// SourceFiles picks the ARB files that define the keys. Files outside the
// configured ARB directories are ignored when any file lies inside one; the
// gen-l10n template file wins over locale matching; files named after the
// main locale come next. When nothing narrows the set every ARB file counts.
func SourceFiles(arbs []source.File, m *manifest.Manifest) []source.File {
	candidates := arbs
	if dirs := m.ArbDirs(); len(dirs) > 0 {
		var inDirs []source.File
		for _, f := range arbs {
			for _, d := range dirs {
				if path.Dir(f.Path) == d {
					inDirs = append(inDirs, f)
					break
				}
			}
		}
		if len(inDirs) > 0 {
			candidates = inDirs
		}
	}

	if m.GenL10n.Present && m.GenL10n.TemplateFile != "" {
		for _, f := range candidates {
			if path.Base(f.Path) == m.GenL10n.TemplateFile {
				return []source.File{f}
			}
		}
	}

	locale := m.Intl.MainLocale
	if locale == "" {
		locale = "en"
	}
	var main []source.File
	for _, f := range candidates {
		stem := strings.TrimSuffix(path.Base(f.Path), path.Ext(f.Path))
		if stem == locale || strings.HasSuffix(stem, "_"+locale) {
			main = append(main, f)
		}
	}
	if len(main) > 0 {
		return main
	}
	return candidates
}

// Checker finds unused localization keys.
type Checker struct {
	accessors []*regexp.Regexp
	exclude   []string
}

// New creates a checker for the given accessor classes. Files matching any
// exclude glob do not count as evidence.
func New(classes, exclude []string) *Checker {
	c := &Checker{exclude: exclude}
	seen := make(map[string]bool)
	for _, class := range classes {
		if class == "" || seen[class] {
			continue
		}
		seen[class] = true
		c.accessors = append(c.accessors, accessorPattern(class))
	}
	c.accessors = append(c.accessors, extensionAccessor)
	return c
}

// extensionAccessor matches the common `context.l10n.key` extension getter.
var extensionAccessor = regexp.MustCompile(`\bl10n\s*\.\s*([A-Za-z_]\w*)`)

func accessorPattern(class string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(class) +
		`\s*\.\s*(?:of\s*\(\s*[A-Za-z_]\w*\s*\)\s*!?|maybeOf\s*\(\s*[A-Za-z_]\w*\s*\)\s*\??|current)` +
		`\s*\??\.\s*([A-Za-z_]\w*)`)
}

// Excluded reports whether evidence from path is ignored.
func (c *Checker) Excluded(p string) bool {
	return source.MatchAny(c.exclude, p)
}

// References returns the keys that content reads through an accessor.
func (c *Checker) References(content []byte) []string {
	var keys []string
	for _, re := range c.accessors {
		for _, m := range re.FindAllSubmatch(content, -1) {
			keys = append(keys, string(m[1]))
		}
	}
	return keys
}

// Check returns the entries that are neither referenced through an accessor
// nor present as an identifier in a file accepted by filter. A key defined in
// several source files is reported once, at its first file.
func (c *Checker) Check(entries []Entry, referenced map[string]bool, ev *heuristic.Evidence, filter heuristic.Filter) []models.Item {
	seen := make(map[string]bool, len(entries))
	var items []models.Item
	for _, e := range entries {
		if seen[e.Key] {
			continue
		}
		seen[e.Key] = true
		if referenced[e.Key] {
			continue
		}
		if ev != nil && ev.HasIdentifier(e.Key, filter) {
			continue
		}
		items = append(items, models.Item{
			Kind:   models.KindLocalization,
			ID:     e.Key,
			File:   e.File,
			Line:   e.Line,
			Detail: detail(e.Value),
		})
	}
	return items
}

func detail(value string) string {
	const limit = 60
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return ""
	}
	if r := []rune(value); len(r) > limit {
		value = string(r[:limit-3]) + "..."
	}
	return fmt.Sprintf("%q", value)
}
