// Package scanner walks a project tree once and classifies the files the
// analysis cares about.
package scanner

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/unused/pkg/config"
	"github.com/panbanda/unused/pkg/manifest"
	"github.com/panbanda/unused/pkg/source"
	"github.com/spf13/afero"
)

// ErrNotDir is wrapped by RootError when the root is a regular file.
var ErrNotDir = errors.New("not a directory")

// RootError reports a project root that cannot be scanned.
type RootError struct {
	Path string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("project root %s: %v", e.Path, e.Err)
}

func (e *RootError) Unwrap() error {
	return e.Err
}

// Scanner finds project files in a directory.
type Scanner struct {
	config *config.Config
	fs     afero.Fs
	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithFilesystem sets the filesystem to walk. Defaults to the OS filesystem.
func WithFilesystem(fs afero.Fs) Option {
	return func(s *Scanner) {
		s.fs = fs
	}
}

// WithLogger sets the logger used for skipped entries.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config, opts ...Option) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Scanner{
		config: cfg,
		fs:     afero.NewOsFs(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is the outcome of a scan.
type Result struct {
	Root   string
	Index  *source.Index
	Source source.ContentSource
	// Skipped counts entries that could not be read.
	Skipped int
}

// excluder accumulates gitignore-syntax patterns while the walk descends.
type excluder struct {
	patterns []gitignore.Pattern
	matcher  gitignore.Matcher
}

func (x *excluder) add(patterns ...gitignore.Pattern) {
	if len(patterns) == 0 {
		return
	}
	x.patterns = append(x.patterns, patterns...)
	x.matcher = gitignore.NewMatcher(x.patterns)
}

func (x *excluder) excluded(rel string, isDir bool) bool {
	if x.matcher == nil {
		return false
	}
	return x.matcher.Match(strings.Split(rel, "/"), isDir)
}

// Scan walks root and returns the classified files sorted by path.
func (s *Scanner) Scan(root string) (*Result, error) {
	info, err := s.fs.Stat(root)
	if err != nil {
		return nil, &RootError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &RootError{Path: root, Err: ErrNotDir}
	}

	ex := &excluder{}
	for _, p := range s.config.Exclude.Patterns {
		ex.add(gitignore.ParsePattern(p, nil))
	}

	var (
		files   []source.File
		skipped int
	)

	walkErr := afero.Walk(s.fs, root, func(p string, info os.FileInfo, err error) error {
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if err != nil {
			if rel == "." {
				return err
			}
			skipped++
			s.logger.Warn("skipping unreadable entry", "path", rel, "error", err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if rel == "." {
				s.loadGitignore(ex, p, nil)
				return nil
			}
			if s.config.IsExcludedDir(info.Name()) || ex.excluded(rel, true) {
				return filepath.SkipDir
			}
			s.loadGitignore(ex, p, strings.Split(rel, "/"))
			return nil
		}

		if !info.Mode().IsRegular() {
			s.logger.Debug("skipping irregular file", "path", rel)
			return nil
		}
		if ex.excluded(rel, false) {
			return nil
		}

		kind := s.classify(rel)
		if kind == 0 {
			return nil
		}
		files = append(files, source.File{Path: rel, Kind: kind, Size: info.Size()})
		return nil
	})
	if walkErr != nil {
		return nil, &RootError{Path: root, Err: walkErr}
	}

	return &Result{
		Root:    root,
		Index:   source.NewIndex(files),
		Source:  source.NewFilesystem(s.fs, root),
		Skipped: skipped,
	}, nil
}

// loadGitignore adds the patterns of dir/.gitignore, scoped to domain.
func (s *Scanner) loadGitignore(ex *excluder, dir string, domain []string) {
	if !s.config.Exclude.Gitignore {
		return
	}
	data, err := afero.ReadFile(s.fs, filepath.Join(dir, ".gitignore"))
	if err != nil {
		return
	}

	var patterns []gitignore.Pattern
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	ex.add(patterns...)
}

// classify returns the kind of a project-relative file, or 0 to skip it.
func (s *Scanner) classify(rel string) source.Kind {
	if rel == manifest.FileName {
		return source.KindManifest
	}

	base := path.Base(rel)
	switch strings.ToLower(path.Ext(base)) {
	case ".arb":
		return source.KindLocalization
	case ".dart":
		if s.inSources(rel) {
			return source.KindCode
		}
		return 0
	}

	if strings.HasPrefix(base, ".") {
		return 0
	}
	return source.KindAsset
}

func (s *Scanner) inSources(rel string) bool {
	for _, src := range s.config.Sources {
		src = strings.Trim(filepath.ToSlash(src), "/")
		if src == "" || src == "." || strings.HasPrefix(rel, src+"/") {
			return true
		}
	}
	for _, e := range s.config.Entries {
		if strings.TrimPrefix(filepath.ToSlash(e), "./") == rel {
			return true
		}
	}
	return false
}
