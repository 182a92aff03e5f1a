package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	toon "github.com/toon-format/toon-go"
)

// Format is a report encoding selected with --format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
)

// ParseFormat maps a --format value to a Format. Unknown values mean text;
// config validation rejects them before a run starts.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "toon":
		return FormatTOON
	}
	return FormatText
}

// Block is a piece of human-readable output.
type Block interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
}

// Renderable is a Block that also serializes to JSON and TOON.
type Renderable interface {
	Block
	// RenderData returns the value encoded for the structured formats.
	RenderData() any
}

// Formatter writes a Renderable in one Format to stdout, a writer or a file.
type Formatter struct {
	format  Format
	w       io.Writer
	file    *os.File
	colored bool
}

// NewFileFormatter creates the file at path and writes into it. Files never
// receive color codes.
func NewFileFormatter(format Format, path string) (*Formatter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &Formatter{format: format, w: f, file: f}, nil
}

// NewWriterFormatter creates a formatter writing to w.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, w: w, colored: colored}
}

// Close flushes and closes the output file, if any. Its error must be checked:
// a report that failed to reach disk is not a successful run.
func (f *Formatter) Close() error {
	if f.file == nil {
		return nil
	}
	if err := f.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f.file.Name(), err)
	}
	return nil
}

// Output writes r in the configured format.
func (f *Formatter) Output(r Renderable) error {
	switch f.format {
	case FormatJSON:
		enc := json.NewEncoder(f.w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.RenderData())
	case FormatTOON:
		out, err := toon.Marshal(r.RenderData(), toon.WithIndent(2))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(f.w, "%s\n", out)
		return err
	case FormatMarkdown:
		return r.RenderMarkdown(f.w)
	}
	return r.RenderText(f.w, f.colored)
}

// Warning prints a one-line notice, yellow when colored.
func (f *Formatter) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if f.colored {
		color.New(color.FgYellow).Fprintln(f.w, msg)
		return
	}
	fmt.Fprintln(f.w, "WARNING: "+msg)
}

// CountColor colors a finding count: green when zero, yellow otherwise.
func CountColor(n int, text string) string {
	if n == 0 {
		return color.GreenString(text)
	}
	return color.YellowString(text)
}

// underline prints title over a rule of the given character.
func underline(w io.Writer, title string, rule byte, colored bool, attrs ...color.Attribute) {
	if colored {
		color.New(attrs...).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat(string(rule), len(title)))
}

// Table is a titled grid of cells with an optional footer row.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
}

// NewTable creates a Table.
func NewTable(title string, headers []string, rows [][]string, footer []string) *Table {
	return &Table{Title: title, Headers: headers, Rows: rows, Footer: footer}
}

var leftAligned = tw.CellAlignment{Global: tw.AlignLeft}

// borderless is the plain column layout used for terminal tables.
var borderless = []tablewriter.Option{
	tablewriter.WithConfig(tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  leftAligned,
			Formatting: tw.CellFormatting{AutoFormat: tw.On},
		},
		Row:    tw.CellConfig{Alignment: leftAligned},
		Footer: tw.CellConfig{Alignment: leftAligned},
	}),
	tablewriter.WithRendition(tw.Rendition{
		Borders:  tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
		Settings: tw.Settings{Separators: tw.Separators{BetweenColumns: tw.Off}},
	}),
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		underline(w, t.Title, '=', colored, color.Bold)
		fmt.Fprintln(w)
	}

	table := tablewriter.NewTable(w, borderless...)
	table.Header(t.Headers)
	if err := table.Bulk(t.Rows); err != nil {
		return err
	}
	if len(t.Footer) > 0 {
		cells := make([]any, len(t.Footer))
		for i, c := range t.Footer {
			cells[i] = c
		}
		table.Footer(cells...)
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}
	row := func(cells []string) {
		escaped := make([]string, len(cells))
		for i, c := range cells {
			escaped[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(escaped, " | "))
	}

	row(t.Headers)
	fmt.Fprintf(w, "|%s\n", strings.Repeat(" --- |", len(t.Headers)))
	for _, r := range t.Rows {
		row(r)
	}
	if len(t.Footer) > 0 {
		row(t.Footer)
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Section is a titled block of free text.
type Section struct {
	Title   string
	Content string
}

func (s *Section) RenderText(w io.Writer, colored bool) error {
	if s.Title != "" {
		underline(w, s.Title, '=', colored, color.Bold)
	}
	if s.Content != "" {
		fmt.Fprintln(w, s.Content)
	}
	return nil
}

func (s *Section) RenderMarkdown(w io.Writer) error {
	if s.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", s.Title)
	}
	if s.Content != "" {
		fmt.Fprintf(w, "%s\n\n", s.Content)
	}
	return nil
}

// Group renders blocks in order, separated by blank lines in text output.
type Group []Block

func (g Group) RenderText(w io.Writer, colored bool) error {
	for i, b := range g {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := b.RenderText(w, colored); err != nil {
			return err
		}
	}
	return nil
}

func (g Group) RenderMarkdown(w io.Writer) error {
	for _, b := range g {
		if err := b.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}
