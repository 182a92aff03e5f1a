package dart

// IsIdentByte reports whether c can be part of an identifier token.
// Bytes of multi-byte UTF-8 sequences count as identifier bytes so that
// non-ASCII words stay whole.
func IsIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c >= 0x80
}

// IsPathByte reports whether c can be part of a path token.
func IsPathByte(c byte) bool {
	return IsIdentByte(c) || c == '.' || c == '/' || c == '-'
}

// Identifiers calls fn for every maximal run of identifier bytes.
// The slice passed to fn aliases content.
func Identifiers(content []byte, fn func(tok []byte)) {
	tokens(content, IsIdentByte, fn)
}

// Paths calls fn for every maximal run of path bytes.
// The slice passed to fn aliases content.
func Paths(content []byte, fn func(tok []byte)) {
	tokens(content, IsPathByte, fn)
}

func tokens(content []byte, in func(byte) bool, fn func([]byte)) {
	start := -1
	for i, c := range content {
		if in(c) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			fn(content[start:i])
			start = -1
		}
	}
	if start >= 0 {
		fn(content[start:])
	}
}

// BoundedAt reports whether the len(n) bytes at content[i:] form a whole
// path token, that is, they are not flanked by path bytes.
func BoundedAt(content []byte, i, n int) bool {
	if i > 0 && IsPathByte(content[i-1]) {
		return false
	}
	if end := i + n; end < len(content) && IsPathByte(content[end]) {
		return false
	}
	return true
}
