// Package analysis runs the full unused-resource pipeline over a project:
// scan, extract directives, resolve, build the import graph, traverse, scan
// reachable files for evidence, run the checkers and aggregate a report.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/panbanda/unused/internal/fileproc"
	"github.com/panbanda/unused/internal/progress"
	"github.com/panbanda/unused/internal/scanner"
	"github.com/panbanda/unused/pkg/analyzer/assets"
	"github.com/panbanda/unused/pkg/analyzer/deps"
	"github.com/panbanda/unused/pkg/analyzer/files"
	"github.com/panbanda/unused/pkg/analyzer/graph"
	"github.com/panbanda/unused/pkg/analyzer/heuristic"
	"github.com/panbanda/unused/pkg/analyzer/l10n"
	"github.com/panbanda/unused/pkg/analyzer/locator"
	"github.com/panbanda/unused/pkg/analyzer/resolve"
	"github.com/panbanda/unused/pkg/config"
	"github.com/panbanda/unused/pkg/dart"
	"github.com/panbanda/unused/pkg/manifest"
	"github.com/panbanda/unused/pkg/models"
	"github.com/panbanda/unused/pkg/report"
	"github.com/panbanda/unused/pkg/source"
	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
)

// ErrEntryNotCode is wrapped by ConfigError when an entry is not a scanned
// Dart source file.
var ErrEntryNotCode = errors.New("not a scanned Dart source file")

// ConfigError indicates a configuration that cannot be analyzed.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "invalid configuration " + e.Field + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Service orchestrates an analysis run.
type Service struct {
	config   *config.Config
	fs       afero.Fs
	logger   *slog.Logger
	progress progress.Factory
	workers  int
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithFilesystem sets the filesystem the project is read from (for testing).
func WithFilesystem(fs afero.Fs) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithLogger sets the logger for recoverable problems.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithProgress sets how progress bars are created for the per-file passes.
func WithProgress(f progress.Factory) Option {
	return func(s *Service) {
		s.progress = f
	}
}

// WithWorkers limits the per-file passes to n goroutines.
func WithWorkers(n int) Option {
	return func(s *Service) {
		s.workers = n
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config:   config.DefaultConfig(),
		fs:       afero.NewOsFs(),
		logger:   slog.Default(),
		progress: progress.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run holds the state of one Run call. Every stage only adds to it.
type run struct {
	root     string
	manifest *manifest.Manifest
	scan     *scanner.Result
	entries  []source.FileID

	graph      *graph.Graph
	reach      *graph.ReachableSet
	external   map[source.FileID][]string
	unresolved []models.UnresolvedDirective

	evidence    *heuristic.Evidence
	l10nRefs    map[string]bool
	locator     locator.Facts
	l10nChecker *l10n.Checker
}

// directives are the extracted imports of one code file.
type directives struct {
	file source.File
	list []dart.Directive
}

// evidence is what the second pass learns from one reachable file.
type evidence struct {
	tokens  *heuristic.FileTokens
	l10n    []string
	locator locator.Facts
}

// Run analyzes the project at root.
func (s *Service) Run(ctx context.Context, root string) (*report.Report, error) {
	if err := s.config.Validate(); err != nil {
		return nil, &ConfigError{Field: "values", Err: err}
	}

	r := &run{root: root}
	var err error

	r.scan, err = scanner.NewScanner(s.config,
		scanner.WithFilesystem(s.fs),
		scanner.WithLogger(s.logger),
	).Scan(root)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("scanned project", "root", root, "files", r.scan.Index.Len(), "skipped", r.scan.Skipped)

	r.manifest, err = manifest.Load(s.fs, root)
	if err != nil {
		return nil, err
	}

	if r.entries, err = s.entries(r.scan.Index); err != nil {
		return nil, err
	}

	if err := s.buildGraph(ctx, r); err != nil {
		return nil, err
	}

	checks := s.config.Checks
	if checks.Dependencies || checks.Assets || checks.Localization || checks.Locator {
		if err := s.collectEvidence(ctx, r); err != nil {
			return nil, err
		}
	}

	in := report.Input{
		Root:           root,
		Findings:       s.check(r),
		Unresolved:     r.unresolved,
		CodeFiles:      len(r.scan.Index.OfKind(source.KindCode)),
		ReachableFiles: r.reach.Len(),
		Edges:          r.graph.EdgeCount(),
		Verbose:        s.config.Output.Verbose,
	}
	if s.config.Output.Verbose {
		in.Cycles = s.cycles(r)
	}
	return report.Build(in), nil
}

// entries resolves the configured entry paths to code files.
func (s *Service) entries(index *source.Index) ([]source.FileID, error) {
	ids := make([]source.FileID, 0, len(s.config.Entries))
	for _, e := range s.config.Entries {
		p := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(e)), "./")
		f, ok := index.Lookup(p)
		if !ok || f.Kind != source.KindCode {
			return nil, &ConfigError{Field: "entries", Err: fmt.Errorf("%s: %w", e, ErrEntryNotCode)}
		}
		ids = append(ids, f.ID)
	}
	return ids, nil
}

// buildGraph extracts and resolves the directives of every code file, then
// traverses the import graph from the entries.
func (s *Service) buildGraph(ctx context.Context, r *run) error {
	code := r.scan.Index.OfKind(source.KindCode)
	tracker := s.progress("Extracting imports", len(code))
	extracted, errs := fileproc.ForEachN(ctx, code, s.workers, func(f source.File) (directives, error) {
		content, err := r.scan.Source.Read(f.Path)
		if err != nil {
			return directives{}, err
		}
		return directives{file: f, list: dart.ExtractDirectives(content)}, nil
	}, tracker.Tick)
	if err := finish(ctx, tracker); err != nil {
		return err
	}
	s.logErrors(errs)

	resolver := resolve.New(r.manifest.Name, r.scan.Index)
	r.external = make(map[source.FileID][]string)
	var edges []graph.Edge
	for _, fd := range extracted {
		for _, d := range fd.list {
			switch res := resolver.Resolve(fd.file.Path, d).(type) {
			case resolve.Resolved:
				edges = append(edges, graph.Edge{From: fd.file.ID, To: res.ID})
			case resolve.ExternalPackage:
				r.external[fd.file.ID] = append(r.external[fd.file.ID], res.Name)
			case resolve.Unresolvable:
				r.unresolved = append(r.unresolved, models.UnresolvedDirective{
					File:   fd.file.Path,
					Line:   d.Line,
					Target: res.Raw,
					Reason: res.Reason,
				})
			}
		}
	}

	r.graph = graph.Build(r.scan.Index, edges)
	r.reach = r.graph.Reach(r.entries)
	s.logger.Debug("built import graph",
		"files", len(code),
		"edges", r.graph.EdgeCount(),
		"reachable", r.reach.Len(),
		"unresolved", len(r.unresolved),
	)
	return nil
}

// finish closes a stage's progress bar, reporting cancellation on it.
func finish(ctx context.Context, t *progress.Tracker) error {
	if err := ctx.Err(); err != nil {
		t.FinishError(err)
		return err
	}
	t.FinishSuccess()
	return nil
}

// collectEvidence scans every reachable file for tokens, localization
// references and locator calls.
func (s *Service) collectEvidence(ctx context.Context, r *run) error {
	ids := r.reach.IDs()
	reachable := make([]source.File, len(ids))
	for i, id := range ids {
		reachable[i] = r.scan.Index.File(id)
	}

	classes := append(r.manifest.LocalizationClasses(), s.config.Localization.ClassNames...)
	r.l10nChecker = l10n.New(classes, s.config.Localization.Exclude)
	extractor := locator.NewExtractor(s.config.Locator.Names)
	self := r.manifest.Name

	tracker := s.progress("Scanning reachable files", len(reachable))
	results, errs := fileproc.ForEachN(ctx, reachable, s.workers, func(f source.File) (evidence, error) {
		content, err := r.scan.Source.Read(f.Path)
		if err != nil {
			return evidence{}, err
		}
		stripped := dart.StripComments(content)
		ev := evidence{tokens: heuristic.Tokenize(f.ID, stripped, self)}
		if s.config.Checks.Localization && !r.l10nChecker.Excluded(f.Path) {
			ev.l10n = r.l10nChecker.References(stripped)
		}
		if s.config.Checks.Locator {
			ev.locator = extractor.Extract(f.Path, stripped)
		}
		return ev, nil
	}, tracker.Tick)
	if err := finish(ctx, tracker); err != nil {
		return err
	}
	s.logErrors(errs)

	tokens := make([]*heuristic.FileTokens, 0, len(results))
	r.l10nRefs = make(map[string]bool)
	for _, res := range results {
		tokens = append(tokens, res.tokens)
		for _, k := range res.l10n {
			r.l10nRefs[k] = true
		}
		r.locator.Registrations = append(r.locator.Registrations, res.locator.Registrations...)
		r.locator.Resolutions = append(r.locator.Resolutions, res.locator.Resolutions...)
	}
	r.evidence = heuristic.NewEvidence(tokens)
	return nil
}

// check runs the enabled checkers concurrently. Each writes only its own
// result; all inputs are read-only by now.
func (s *Service) check(r *run) map[models.Kind][]models.Item {
	cfg := s.config
	var wg conc.WaitGroup
	var fileItems, depItems, assetItems, l10nItems, locItems []models.Item

	if cfg.Checks.Files {
		wg.Go(func() {
			fileItems = files.Check(r.scan.Index, r.reach, cfg.Files.Ignore)
		})
	}
	if cfg.Checks.Dependencies {
		wg.Go(func() {
			imported := make(map[string]bool)
			for _, id := range r.reach.IDs() {
				for _, name := range r.external[id] {
					imported[name] = true
				}
			}
			depItems = deps.Check(r.manifest.AllDependencies(cfg.Dependencies.IncludeDev), imported, r.evidence, cfg.Dependencies.Ignore)
		})
	}
	if cfg.Checks.Assets {
		wg.Go(func() {
			checker := assets.New(r.scan.Index,
				assets.WithIgnore(cfg.Assets.Ignore),
				assets.WithFileNameMatching(cfg.Assets.MatchFileName),
				assets.WithLogger(s.logger),
			)
			assetItems = checker.Check(r.manifest.Assets, r.manifest.FontFiles(), r.evidence)
		})
	}
	if cfg.Checks.Localization {
		wg.Go(func() {
			l10nItems = s.checkLocalization(r)
		})
	}
	if cfg.Checks.Locator {
		wg.Go(func() {
			locItems = locator.Check(r.locator.Registrations, r.locator.Resolutions)
		})
	}
	wg.Wait()

	findings := make(map[models.Kind][]models.Item)
	add := func(enabled bool, kind models.Kind, items []models.Item) {
		if enabled {
			findings[kind] = items
		}
	}
	add(cfg.Checks.Files, models.KindFile, fileItems)
	add(cfg.Checks.Dependencies, models.KindDependency, depItems)
	add(cfg.Checks.Assets, models.KindAsset, assetItems)
	add(cfg.Checks.Localization, models.KindLocalization, l10nItems)
	add(cfg.Checks.Locator, models.KindLocator, locItems)
	return findings
}

func (s *Service) checkLocalization(r *run) []models.Item {
	var entries []l10n.Entry
	for _, f := range l10n.SourceFiles(r.scan.Index.OfKind(source.KindLocalization), r.manifest) {
		data, err := r.scan.Source.Read(f.Path)
		if err != nil {
			s.logger.Warn("skipping unreadable localization file", "path", f.Path, "error", err)
			continue
		}
		parsed, err := l10n.ParseARB(f.Path, data)
		if err != nil {
			s.logger.Warn("skipping invalid localization file", "path", f.Path, "error", err)
			continue
		}
		entries = append(entries, parsed...)
	}

	index := r.scan.Index
	filter := func(id source.FileID) bool {
		return !r.l10nChecker.Excluded(index.File(id).Path)
	}
	return r.l10nChecker.Check(entries, r.l10nRefs, r.evidence, filter)
}

func (s *Service) cycles(r *run) []models.Cycle {
	var out []models.Cycle
	for _, ids := range r.graph.Cycles() {
		c := models.Cycle{Files: make([]string, len(ids))}
		for i, id := range ids {
			c.Files[i] = r.scan.Index.File(id).Path
		}
		out = append(out, c)
	}
	return out
}

func (s *Service) logErrors(errs *fileproc.ProcessingErrors) {
	if errs == nil {
		return
	}
	for _, e := range errs.Errors {
		s.logger.Warn("skipping unreadable file", "path", e.Path, "error", e.Err)
	}
}
