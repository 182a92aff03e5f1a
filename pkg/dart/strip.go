// Package dart performs the lightweight lexical analysis the checkers need
// from Dart source: comment stripping, directive extraction and token
// scanning. It never builds a syntax tree.
package dart

import "bytes"

var bom = []byte("\xEF\xBB\xBF")

// trimBOM drops a leading UTF-8 byte order mark.
func trimBOM(src []byte) []byte {
	return bytes.TrimPrefix(src, bom)
}

// StripComments returns a copy of src with every comment replaced by spaces
// and a leading byte order mark removed. Newlines are preserved so line
// numbers stay valid, and string literals are left intact, including
// interpolated expressions.
func StripComments(src []byte) []byte {
	src = trimBOM(src)
	s := &stripper{src: src, out: append([]byte(nil), src...)}
	s.code(false)
	return s.out
}

type stripper struct {
	src []byte
	out []byte
	i   int
	// blankMultiline also blanks the bodies of triple-quoted strings.
	blankMultiline bool
}

func (s *stripper) peek(n int) byte {
	if s.i+n < len(s.src) {
		return s.src[s.i+n]
	}
	return 0
}

// code scans code until EOF, or until the brace closing an interpolation
// when nested is set.
func (s *stripper) code(nested bool) {
	depth := 0
	for s.i < len(s.src) {
		c := s.src[s.i]
		switch {
		case c == '/' && s.peek(1) == '/':
			s.lineComment()
		case c == '/' && s.peek(1) == '*':
			s.blockComment()
		case c == '\'' || c == '"':
			s.str(false)
		case c == 'r' && (s.peek(1) == '\'' || s.peek(1) == '"') && (s.i == 0 || !IsIdentByte(s.src[s.i-1])):
			s.i++
			s.str(true)
		case c == '{':
			depth++
			s.i++
		case c == '}':
			s.i++
			if nested && depth == 0 {
				return
			}
			depth--
		default:
			s.i++
		}
	}
}

// str scans a string literal starting at its opening quote.
func (s *stripper) str(raw bool) {
	q := s.src[s.i]
	triple := s.peek(1) == q && s.peek(2) == q
	if triple {
		s.i += 3
	} else {
		s.i++
	}

	for s.i < len(s.src) {
		c := s.src[s.i]
		switch {
		case !raw && c == '\\':
			s.i += 2
		case !raw && c == '$' && s.peek(1) == '{':
			s.i += 2
			s.code(true)
		case triple && c == q && s.peek(1) == q && s.peek(2) == q:
			s.i += 3
			return
		case !triple && c == q:
			s.i++
			return
		case !triple && c == '\n':
			// Unterminated literal; resume at the next line.
			return
		case triple && s.blankMultiline:
			s.blank()
		default:
			s.i++
		}
	}
}

func (s *stripper) lineComment() {
	for s.i < len(s.src) && s.src[s.i] != '\n' {
		s.blank()
	}
}

// blockComment blanks a block comment. Dart block comments nest.
func (s *stripper) blockComment() {
	s.blank()
	s.blank()
	depth := 1
	for s.i < len(s.src) && depth > 0 {
		switch {
		case s.src[s.i] == '/' && s.peek(1) == '*':
			depth++
			s.blank()
			s.blank()
		case s.src[s.i] == '*' && s.peek(1) == '/':
			depth--
			s.blank()
			s.blank()
		default:
			s.blank()
		}
	}
}

func (s *stripper) blank() {
	if s.i >= len(s.src) {
		return
	}
	if c := s.src[s.i]; c != '\n' && c != '\r' {
		s.out[s.i] = ' '
	}
	s.i++
}
