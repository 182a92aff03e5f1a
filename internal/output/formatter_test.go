package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormat(tt.input))
		})
	}
}

type point struct {
	X int `json:"x" toon:"x"`
	Y int `json:"y" toon:"y"`
}

// doc is a minimal Renderable.
type doc struct {
	Section
	data any
}

func (d *doc) RenderData() any { return d.data }

func newDoc(title string) *doc {
	return &doc{Section: Section{Title: title, Content: "body"}, data: point{1, 2}}
}

func TestFileFormatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	f, err := NewFileFormatter(FormatJSON, path)
	require.NoError(t, err)
	assert.False(t, f.colored, "files never receive color codes")

	require.NoError(t, f.Output(newDoc("t")))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": 1, "y": 2}`, string(data))
}

func TestFileFormatterErrors(t *testing.T) {
	_, err := NewFileFormatter(FormatText, "/nonexistent/dir/out.txt")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "report.txt")
	f, err := NewFileFormatter(FormatText, path)
	require.NoError(t, err)
	require.NoError(t, f.file.Close())

	err = f.Close()
	require.Error(t, err, "a failed close must surface")
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.Contains(t, err.Error(), path)
}

func TestWriterFormatterCloseIsNoop(t *testing.T) {
	f := NewWriterFormatter(FormatText, io.Discard, false)
	assert.NoError(t, f.Close())
}

func TestFormatterOutput(t *testing.T) {
	tests := []struct {
		format Format
		check  func(t *testing.T, out string)
	}{
		{FormatJSON, func(t *testing.T, out string) {
			var got point
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, point{1, 2}, got)
		}},
		{FormatTOON, func(t *testing.T, out string) {
			assert.Contains(t, out, "x: 1")
			assert.Contains(t, out, "y: 2")
		}},
		{FormatMarkdown, func(t *testing.T, out string) {
			assert.Equal(t, "## S\n\nbody\n\n", out)
		}},
		{FormatText, func(t *testing.T, out string) {
			assert.Equal(t, "S\n=\nbody\n", out)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewWriterFormatter(tt.format, &buf, false).Output(newDoc("S")))
			tt.check(t, buf.String())
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFormatterOutputWriteError(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatTOON} {
		t.Run(string(format), func(t *testing.T) {
			err := NewWriterFormatter(format, failingWriter{}, false).Output(newDoc("S"))
			assert.ErrorContains(t, err, "disk full")
		})
	}
}

func TestWarning(t *testing.T) {
	var buf bytes.Buffer
	NewWriterFormatter(FormatJSON, &buf, false).Warning("%d checks disabled", 5)
	assert.Equal(t, "WARNING: 5 checks disabled\n", buf.String())

	buf.Reset()
	NewWriterFormatter(FormatText, &buf, true).Warning("careful")
	assert.Contains(t, buf.String(), "careful")
	assert.NotContains(t, buf.String(), "WARNING:")
}

func sampleTable() *Table {
	return NewTable(
		"Unused files",
		[]string{"File", "Detail"},
		[][]string{
			{"lib/a.dart", "not reachable"},
			{"lib/b.dart", "a | b"},
		},
		[]string{"Total", "2"},
	)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().RenderText(&buf, false))

	out := buf.String()
	assert.Contains(t, out, "Unused files\n============\n\n")
	assert.Contains(t, out, "lib/a.dart")
	assert.Contains(t, out, "not reachable")
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().RenderMarkdown(&buf))

	assert.Equal(t, "## Unused files\n\n"+
		"| File | Detail |\n"+
		"| --- | --- |\n"+
		"| lib/a.dart | not reachable |\n"+
		`| lib/b.dart | a \| b |`+"\n"+
		"| Total | 2 |\n\n", buf.String())
}

func TestGroup(t *testing.T) {
	g := Group{&Section{Title: "One"}, &Section{Title: "Two", Content: "x"}}

	var text bytes.Buffer
	require.NoError(t, g.RenderText(&text, false))
	assert.Equal(t, "One\n===\n\nTwo\n===\nx\n", text.String())

	var md bytes.Buffer
	require.NoError(t, g.RenderMarkdown(&md))
	assert.Equal(t, "## One\n\n## Two\n\nx\n\n", md.String())

	var empty bytes.Buffer
	require.NoError(t, Group(nil).RenderText(&empty, false))
	assert.Empty(t, empty.String())
}

func TestCountColor(t *testing.T) {
	assert.Contains(t, CountColor(0, "0"), "0")
	assert.Contains(t, CountColor(3, "3"), "3")
}
