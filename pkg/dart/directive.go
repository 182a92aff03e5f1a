package dart

import (
	"bytes"
	"net/url"
	"sort"
	"strings"
)

// DirectiveKind is the keyword that introduced a directive.
type DirectiveKind uint8

const (
	Import DirectiveKind = iota + 1
	Export
	Part
)

// String returns the keyword.
func (k DirectiveKind) String() string {
	switch k {
	case Import:
		return "import"
	case Export:
		return "export"
	case Part:
		return "part"
	default:
		return "unknown"
	}
}

// Directive is an import, export or part directive with its raw target.
type Directive struct {
	Kind   DirectiveKind
	Target string
	Line   int
}

var keywords = []struct {
	word []byte
	kind DirectiveKind
}{
	{[]byte("import"), Import},
	{[]byte("export"), Export},
	{[]byte("part"), Part},
}

// ExtractDirectives returns the directives of a Dart source file in order of
// appearance. Comments are ignored. Lines that look like a directive but are
// malformed are skipped, so extraction never fails. A directive's
// conditional configurations may continue on the following lines, as
// `dart format` writes them; all of its targets report the keyword's line.
func ExtractDirectives(src []byte) []Directive {
	src = trimBOM(src)
	st := &stripper{src: src, out: append([]byte(nil), src...), blankMultiline: true}
	st.code(false)
	content := st.out
	lines := newlines(content)

	var out []Directive
	p := 0
	for p < len(content) {
		p = skipSpace(content, p)
		if p >= len(content) {
			break
		}
		if content[p] == '\n' {
			p++
			continue
		}
		var next int
		out, next = directiveAt(out, content, p, lineAt(lines, p))
		p = statementEnd(content, next) + 1
	}
	return out
}

// statementEnd finds the next ';' at or after p that is outside a string
// literal, or the end of the line when the statement does not end on it.
func statementEnd(text []byte, p int) int {
	var q byte
	for ; p < len(text); p++ {
		c := text[p]
		switch {
		case c == '\n':
			return p
		case q != 0 && c == '\\' && p+1 < len(text) && text[p+1] != '\n':
			p++
		case q != 0 && c == q:
			q = 0
		case q != 0:
		case c == '\'' || c == '"':
			q = c
		case c == ';':
			return p
		}
	}
	return len(text)
}

// directiveAt parses a directive starting at text[p]. It returns the
// position scanning should resume from.
func directiveAt(out []Directive, text []byte, p, line int) ([]Directive, int) {
	var kind DirectiveKind
	for _, kw := range keywords {
		if bytes.HasPrefix(text[p:], kw.word) && !identAt(text, p+len(kw.word)) {
			kind = kw.kind
			p += len(kw.word)
			break
		}
	}
	if kind == 0 {
		return out, p
	}

	p = skipSpace(text, p)
	if kind == Part && bytes.HasPrefix(text[p:], []byte("of")) && !identAt(text, p+2) {
		return out, p
	}

	target, end, ok := quoted(text, p)
	if !ok {
		return out, p
	}
	out = appendTarget(out, kind, target, line)

	// Conditional forms: import 'a.dart' if (dart.library.io) 'b.dart';
	p = end
	for {
		q := skipBlank(text, p)
		if !bytes.HasPrefix(text[q:], []byte("if")) || identAt(text, q+2) {
			return out, p
		}
		closeParen := indexInLine(text, q, ')')
		if closeParen < 0 {
			return out, p
		}
		target, end, ok = quoted(text, skipSpace(text, closeParen+1))
		if !ok {
			return out, p
		}
		out = appendTarget(out, kind, target, line)
		p = end
	}
}

func appendTarget(out []Directive, kind DirectiveKind, target string, line int) []Directive {
	if strings.HasPrefix(target, "dart:") {
		return out
	}
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}
	return append(out, Directive{Kind: kind, Target: target, Line: line})
}

// quoted reads a single-line string literal at text[p]. It fails on a
// missing or unclosed quote and on an empty literal.
func quoted(text []byte, p int) (string, int, bool) {
	if p < len(text) && text[p] == 'r' {
		p++
	}
	if p >= len(text) || (text[p] != '\'' && text[p] != '"') {
		return "", p, false
	}
	closing := indexInLine(text, p+1, text[p])
	if closing <= p+1 {
		return "", p, false
	}
	return string(text[p+1 : closing]), closing + 1, true
}

// indexInLine returns the index of the first c at or after p on the same
// line, or -1.
func indexInLine(text []byte, p int, c byte) int {
	for i := p; i < len(text); i++ {
		switch text[i] {
		case c:
			return i
		case '\n':
			return -1
		}
	}
	return -1
}

func identAt(text []byte, i int) bool {
	return i < len(text) && (IsIdentByte(text[i]) || text[i] == '$')
}

func skipSpace(text []byte, p int) int {
	for p < len(text) && (text[p] == ' ' || text[p] == '\t' || text[p] == '\r') {
		p++
	}
	return p
}

// skipBlank is skipSpace that also crosses line breaks.
func skipBlank(text []byte, p int) int {
	for p < len(text) && (text[p] == ' ' || text[p] == '\t' || text[p] == '\r' || text[p] == '\n') {
		p++
	}
	return p
}

// newlines returns the offsets of the line breaks in text.
func newlines(text []byte) []int {
	var offsets []int
	for i, c := range text {
		if c == '\n' {
			offsets = append(offsets, i)
		}
	}
	return offsets
}

// lineAt maps a byte offset to its 1-based line number.
func lineAt(newlines []int, offset int) int {
	return sort.SearchInts(newlines, offset) + 1
}
