// Package report aggregates checker findings into the final result of a run.
package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/panbanda/unused/internal/output"
	"github.com/panbanda/unused/pkg/models"
	"github.com/zeebo/blake3"
)

// Section holds the findings of one checker.
type Section struct {
	Kind  models.Kind   `json:"kind" toon:"kind"`
	Title string        `json:"title" toon:"title"`
	Items []models.Item `json:"items" toon:"items"`
}

// Input is everything a run produced before aggregation.
type Input struct {
	Root string
	// Findings per enabled checker. A kind with no entry did not run.
	Findings       map[models.Kind][]models.Item
	Unresolved     []models.UnresolvedDirective
	Cycles         []models.Cycle
	CodeFiles      int
	ReachableFiles int
	Edges          int
	Verbose        bool
}

// Report is the outcome of one analysis run.
type Report struct {
	Root       string                       `json:"root" toon:"root"`
	Sections   []Section                    `json:"sections" toon:"sections"`
	Unresolved []models.UnresolvedDirective `json:"unresolved,omitempty" toon:"unresolved,omitempty"`
	Cycles     []models.Cycle               `json:"cycles,omitempty" toon:"cycles,omitempty"`
	Summary    models.Summary               `json:"summary" toon:"summary"`
	Digest     string                       `json:"digest" toon:"digest"`

	verbose bool
}

var titles = map[models.Kind]string{
	models.KindFile:         "Unused Files",
	models.KindDependency:   "Unused Dependencies",
	models.KindAsset:        "Unused Assets",
	models.KindLocalization: "Unused Localization Keys",
	models.KindLocator:      "Unused Locator Registrations",
}

// Title returns the section heading for kind.
func Title(kind models.Kind) string {
	return titles[kind]
}

// Build sorts the findings into sections in report order and computes the
// summary and digest. Unresolved directives and cycles are kept only for
// verbose reports.
func Build(in Input) *Report {
	r := &Report{
		Root:    in.Root,
		verbose: in.Verbose,
		Summary: models.Summary{
			CodeFiles:      in.CodeFiles,
			ReachableFiles: in.ReachableFiles,
			Edges:          in.Edges,
			Unresolved:     len(in.Unresolved),
			Unused:         make(map[models.Kind]int),
		},
	}

	for _, kind := range models.Kinds {
		items, ok := in.Findings[kind]
		if !ok {
			continue
		}
		items = append([]models.Item(nil), items...)
		models.SortItems(items)
		if items == nil {
			items = []models.Item{}
		}
		r.Sections = append(r.Sections, Section{Kind: kind, Title: Title(kind), Items: items})
		r.Summary.Unused[kind] = len(items)
		r.Summary.TotalUnused += len(items)
	}

	if in.Verbose {
		r.Unresolved = in.Unresolved
		r.Cycles = in.Cycles
	}
	r.Digest = digest(r.Sections)
	return r
}

// digest hashes the canonical item list, so equal findings give equal
// digests regardless of output format.
func digest(sections []Section) string {
	h := blake3.New()
	for _, s := range sections {
		for _, it := range s.Items {
			fmt.Fprintf(h, "%s\t%s\t%s\t%d\n", it.Kind, it.ID, it.File, it.Line)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HasUnused reports whether any checker found something.
func (r *Report) HasUnused() bool {
	return r.Summary.TotalUnused > 0
}

// Section returns the section of kind, if that checker ran.
func (r *Report) Section(kind models.Kind) (Section, bool) {
	for _, s := range r.Sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return Section{}, false
}

// RenderData implements output.Renderable.
func (r *Report) RenderData() any {
	return r
}

// RenderText implements output.Renderable.
func (r *Report) RenderText(w io.Writer, colored bool) error {
	for _, s := range r.Sections {
		heading := fmt.Sprintf("%s (%d)", s.Title, len(s.Items))
		if len(s.Items) == 0 {
			if colored {
				heading = output.CountColor(0, heading)
			}
			fmt.Fprintln(w, heading)
			fmt.Fprintln(w)
			continue
		}
		if err := r.table(s, heading).RenderText(w, colored); err != nil {
			return err
		}
	}

	if r.verbose {
		if err := r.verboseTables().RenderText(w, colored); err != nil {
			return err
		}
	}

	r.writeSummary(w, colored)
	return nil
}

// RenderMarkdown implements output.Renderable.
func (r *Report) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Unused resources in %s\n\n", r.Root)
	for _, s := range r.Sections {
		if len(s.Items) == 0 {
			fmt.Fprintf(w, "## %s\n\nNone.\n\n", s.Title)
			continue
		}
		if err := r.table(s, s.Title).RenderMarkdown(w); err != nil {
			return err
		}
	}
	if r.verbose {
		if err := r.verboseTables().RenderMarkdown(w); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "**Total unused:** %d  \n**Digest:** `%s`\n", r.Summary.TotalUnused, r.Digest)
	return nil
}

func (r *Report) table(s Section, title string) *output.Table {
	headers := []string{"Location", "Name", "Detail"}
	if s.Kind == models.KindAsset {
		headers = append(headers, "Size")
	}

	rows := make([][]string, 0, len(s.Items))
	var total int64
	for _, it := range s.Items {
		row := []string{location(it), it.ID, it.Detail}
		if s.Kind == models.KindAsset {
			row = append(row, humanize.Bytes(uint64(max(it.Size, 0))))
			total += it.Size
		}
		rows = append(rows, row)
	}

	var footer []string
	if s.Kind == models.KindAsset && total > 0 {
		footer = []string{"", "", "Total", humanize.Bytes(uint64(total))}
	}
	return output.NewTable(title, headers, rows, footer)
}

func (r *Report) verboseTables() output.Group {
	var g output.Group

	rows := make([][]string, 0, len(r.Unresolved))
	for _, u := range r.Unresolved {
		rows = append(rows, []string{u.File + ":" + strconv.Itoa(u.Line), u.Target, u.Reason})
	}
	if len(rows) > 0 {
		g = append(g, output.NewTable(
			fmt.Sprintf("Unresolved Directives (%d)", len(rows)),
			[]string{"Location", "Target", "Reason"},
			rows, nil,
		))
	}

	if len(r.Cycles) > 0 {
		var b strings.Builder
		for _, c := range r.Cycles {
			b.WriteString("- " + strings.Join(c.Files, " -> ") + "\n")
		}
		g = append(g, &output.Section{
			Title:   fmt.Sprintf("Import Cycles (%d)", len(r.Cycles)),
			Content: b.String(),
		})
	}
	return g
}

func (r *Report) writeSummary(w io.Writer, colored bool) {
	parts := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		parts = append(parts, fmt.Sprintf("%s %d", s.Kind, len(s.Items)))
	}
	total := fmt.Sprintf("%d unused", r.Summary.TotalUnused)
	if colored {
		total = output.CountColor(r.Summary.TotalUnused, total)
	}
	fmt.Fprintf(w, "Summary: %s (%s); %s of %s code files reachable, %s imports\n",
		total,
		strings.Join(parts, ", "),
		humanize.Comma(int64(r.Summary.ReachableFiles)),
		humanize.Comma(int64(r.Summary.CodeFiles)),
		humanize.Comma(int64(r.Summary.Edges)),
	)
	if r.verbose {
		fmt.Fprintf(w, "Digest: %s\n", r.Digest)
	}
}

func location(it models.Item) string {
	if it.Line > 0 {
		return it.File + ":" + strconv.Itoa(it.Line)
	}
	return it.File
}
