// Package locator reports service locator registrations that nothing
// resolves. It understands the get_it style API: receivers such as
// `locator` or `GetIt.I` with register*<T>(), get<T>(), getAsync<T>(),
// call<T>() and the call operator <T>().
package locator

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/panbanda/unused/pkg/dart"
	"github.com/panbanda/unused/pkg/models"
)

// Registration is one register*<T>() call.
type Registration struct {
	Type   string
	Tag    string
	Method string
	File   string
	Line   int
}

// Key returns the (type, tag) identity of the registration.
func (r Registration) Key() Key {
	return Key{Type: r.Type, Tag: r.Tag}
}

// Resolution is one site that obtains an instance from the locator.
type Resolution struct {
	Type string
	Tag  string
	File string
	Line int
	// Heuristic marks get<T>() calls on a receiver that is not a configured
	// locator name.
	Heuristic bool
}

// Key returns the (type, tag) identity being resolved.
func (r Resolution) Key() Key {
	return Key{Type: r.Type, Tag: r.Tag}
}

// Key identifies a registered instance.
type Key struct {
	Type string
	Tag  string
}

// String returns the string representation.
func (k Key) String() string {
	if k.Tag == "" {
		return k.Type
	}
	return k.Type + "[" + k.Tag + "]"
}

// Facts are the registrations and resolutions found in one file.
type Facts struct {
	Registrations []Registration
	Resolutions   []Resolution
}

// Extractor finds locator calls in comment-free Dart source.
type Extractor struct {
	receiver *regexp.Regexp
}

// heuristicGet matches get<T>( and getAsync<T>( on any receiver.
var heuristicGet = regexp.MustCompile(`\.\s*(getAsync|get)\s*<`)

// NewExtractor creates an extractor for the given receiver names, such as
// "locator" or "GetIt.I". With no names only heuristic resolutions are found.
func NewExtractor(names []string) *Extractor {
	var alts []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		alts = append(alts, regexp.QuoteMeta(n))
	}
	if len(alts) == 0 {
		return &Extractor{}
	}
	// Longer names first so GetIt.instance is not cut short by GetIt.I.
	sort.SliceStable(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })
	return &Extractor{
		receiver: regexp.MustCompile(`(?:^|[^\w$.])(?:` + strings.Join(alts, "|") + `)\s*([.<])`),
	}
}

// Extract returns the locator facts of content, which must already have its
// comments stripped.
func (x *Extractor) Extract(file string, content []byte) Facts {
	var facts Facts
	lines := newLineIndex(content)

	if x.receiver != nil {
		for _, m := range x.receiver.FindAllSubmatchIndex(content, -1) {
			x.structural(&facts, file, content, m[2], lines)
		}
	}

	for _, m := range heuristicGet.FindAllIndex(content, -1) {
		typ, next, ok := typeArgument(content, m[1]-1)
		if !ok || !callAt(content, next) {
			continue
		}
		facts.Resolutions = append(facts.Resolutions, Resolution{
			Type:      typ,
			Tag:       tagOf(content, skipSpace(content, next)),
			File:      file,
			Line:      lines.line(m[0]),
			Heuristic: true,
		})
	}
	return facts
}

// structural handles a configured receiver followed by '.' or '<' at pos.
func (x *Extractor) structural(facts *Facts, file string, content []byte, pos int, lines lineIndex) {
	if content[pos] == '<' {
		typ, next, ok := typeArgument(content, pos)
		if !ok || !callAt(content, next) {
			return
		}
		facts.Resolutions = append(facts.Resolutions, Resolution{
			Type: typ,
			Tag:  tagOf(content, skipSpace(content, next)),
			File: file,
			Line: lines.line(pos),
		})
		return
	}

	i := skipSpace(content, pos+1)
	start := i
	for i < len(content) && dart.IsIdentByte(content[i]) {
		i++
	}
	method := string(content[start:i])
	i = skipSpace(content, i)
	if i >= len(content) || content[i] != '<' {
		return
	}
	typ, next, ok := typeArgument(content, i)
	if !ok || !callAt(content, next) {
		return
	}
	tag := tagOf(content, skipSpace(content, next))

	switch {
	case strings.HasPrefix(method, "register"):
		facts.Registrations = append(facts.Registrations, Registration{
			Type:   typ,
			Tag:    tag,
			Method: method,
			File:   file,
			Line:   lines.line(pos),
		})
	case method == "get" || method == "getAsync" || method == "call":
		// get and getAsync are also seen by the heuristic pass; Check
		// only needs the key, so duplicates are harmless.
		facts.Resolutions = append(facts.Resolutions, Resolution{
			Type: typ,
			Tag:  tag,
			File: file,
			Line: lines.line(pos),
		})
	}
}

// Check returns the registrations whose (type, tag) no resolution matches.
func Check(regs []Registration, sites []Resolution) []models.Item {
	resolved := make(map[Key]bool, len(sites))
	for _, s := range sites {
		resolved[s.Key()] = true
	}

	var items []models.Item
	for _, r := range regs {
		if resolved[r.Key()] {
			continue
		}
		items = append(items, models.Item{
			Kind:   models.KindLocator,
			ID:     r.Key().String(),
			File:   r.File,
			Line:   r.Line,
			Detail: fmt.Sprintf("%s<%s> is never resolved", r.Method, r.Type),
		})
	}
	return items
}

// typeArgument reads the type argument list opening at src[open] == '<'.
// It returns the normalized type and the index after the closing '>'.
func typeArgument(src []byte, open int) (string, int, bool) {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				typ := normalizeType(src[open+1 : i])
				return typ, i + 1, typ != ""
			}
		case ';', '{', '}', '=', '\'', '"':
			return "", 0, false
		}
	}
	return "", 0, false
}

// normalizeType drops whitespace around punctuation and collapses the rest,
// so `Map< String ,int >` and `Map<String, int>` compare equal.
func normalizeType(b []byte) string {
	fields := strings.Fields(string(b))
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			prev := fields[i-1]
			if dart.IsIdentByte(prev[len(prev)-1]) && dart.IsIdentByte(f[0]) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(f)
	}
	return sb.String()
}

func callAt(src []byte, i int) bool {
	i = skipSpace(src, i)
	return i < len(src) && src[i] == '('
}

func skipSpace(src []byte, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r') {
		i++
	}
	return i
}

// tagOf returns the instanceName argument of the call whose '(' is at open.
func tagOf(src []byte, open int) string {
	args, ok := callArguments(src, open)
	if !ok {
		return ""
	}
	return namedArgument(args, "instanceName")
}

// callArguments returns the bytes between the parenthesis at open and its
// match.
func callArguments(src []byte, open int) ([]byte, bool) {
	if open >= len(src) || src[open] != '(' {
		return nil, false
	}
	depth := 0
	for i := open; i < len(src); i++ {
		switch c := src[i]; c {
		case '\'', '"':
			i = skipString(src, i) - 1
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return src[open+1 : i], true
			}
		}
	}
	return nil, false
}

// namedArgument finds `name: value` at the top level of args. String
// literal values are unquoted; other expressions are returned trimmed.
func namedArgument(args []byte, name string) string {
	depth := 0
	for i := 0; i < len(args); i++ {
		c := args[i]
		switch {
		case c == '\'' || c == '"':
			i = skipString(args, i) - 1
			continue
		case c == '(' || c == '[' || c == '{':
			depth++
			continue
		case c == ')' || c == ']' || c == '}':
			depth--
			continue
		}
		if depth != 0 || !bytes.HasPrefix(args[i:], []byte(name)) || !dart.BoundedAt(args, i, len(name)) {
			continue
		}
		j := skipSpace(args, i+len(name))
		if j >= len(args) || args[j] != ':' {
			continue
		}
		return argumentValue(args[skipSpace(args, j+1):])
	}
	return ""
}

func argumentValue(v []byte) string {
	if len(v) > 1 && v[0] == 'r' && (v[1] == '\'' || v[1] == '"') {
		v = v[1:]
	}
	if len(v) > 0 && (v[0] == '\'' || v[0] == '"') {
		end := skipString(v, 0)
		if end-1 > 0 && v[end-1] == v[0] {
			return string(v[1 : end-1])
		}
	}
	depth := 0
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '\'', '"':
			i = skipString(v, i) - 1
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				return strings.TrimSpace(string(v[:i]))
			}
		}
	}
	return strings.TrimSpace(string(v))
}

// skipString returns the index after the string literal starting at src[i].
// Unterminated literals end at the line break.
func skipString(src []byte, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j + 1
		case '\n':
			return j
		}
	}
	return len(src)
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{}
	for i, c := range src {
		if c == '\n' {
			idx = append(idx, i)
		}
	}
	return idx
}

func (l lineIndex) line(offset int) int {
	return sort.SearchInts(l, offset) + 1
}
