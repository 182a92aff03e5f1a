package source

import "github.com/bmatcuk/doublestar/v4"

// MatchAny reports whether path matches one of the doublestar patterns.
// Malformed patterns never match.
func MatchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}
