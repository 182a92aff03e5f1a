// Package heuristic indexes whole-token evidence of use from source text.
// It can only add evidence; it never affects reachability.
package heuristic

import (
	"bytes"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/unused/pkg/dart"
	"github.com/panbanda/unused/pkg/source"
)

// FileTokens holds the tokens of one file with comments stripped.
type FileTokens struct {
	ID      source.FileID
	Content []byte
	idents  map[uint64]struct{}
	paths   map[uint64]struct{}
	names   map[uint64]struct{}
}

// Tokenize indexes stripped, the comment-free content of file id. Path tokens
// of the form packages/<self>/x are also indexed as x.
func Tokenize(id source.FileID, stripped []byte, self string) *FileTokens {
	ft := &FileTokens{
		ID:      id,
		Content: stripped,
		idents:  make(map[uint64]struct{}),
		paths:   make(map[uint64]struct{}),
		names:   make(map[uint64]struct{}),
	}
	dart.Identifiers(stripped, func(tok []byte) {
		ft.idents[xxhash.Sum64(tok)] = struct{}{}
	})

	prefix := []byte("packages/" + self + "/")
	dart.Paths(stripped, func(tok []byte) {
		ft.paths[xxhash.Sum64(tok)] = struct{}{}
		if i := bytes.LastIndexByte(tok, '/'); i >= 0 && i < len(tok)-1 {
			ft.names[xxhash.Sum64(tok[i+1:])] = struct{}{}
		} else if i < 0 && bytes.IndexByte(tok, '.') > 0 {
			ft.names[xxhash.Sum64(tok)] = struct{}{}
		}
		if self != "" && bytes.HasPrefix(tok, prefix) && len(tok) > len(prefix) {
			ft.paths[xxhash.Sum64(tok[len(prefix):])] = struct{}{}
		}
	})
	return ft
}

// Filter selects the files whose evidence counts. A nil Filter accepts all.
type Filter func(source.FileID) bool

// Evidence is the merged token index of a set of files.
type Evidence struct {
	files  []*FileTokens
	idents map[uint64][]source.FileID
	paths  map[uint64][]source.FileID
	names  map[uint64][]source.FileID
}

// NewEvidence merges per-file tokens. Files are kept in id order.
func NewEvidence(files []*FileTokens) *Evidence {
	sorted := slices.Clone(files)
	slices.SortFunc(sorted, func(a, b *FileTokens) int {
		return int(a.ID) - int(b.ID)
	})

	ev := &Evidence{
		files:  sorted,
		idents: make(map[uint64][]source.FileID),
		paths:  make(map[uint64][]source.FileID),
		names:  make(map[uint64][]source.FileID),
	}
	for _, ft := range sorted {
		for h := range ft.idents {
			ev.idents[h] = append(ev.idents[h], ft.ID)
		}
		for h := range ft.paths {
			ev.paths[h] = append(ev.paths[h], ft.ID)
		}
		for h := range ft.names {
			ev.names[h] = append(ev.names[h], ft.ID)
		}
	}
	return ev
}

// Files returns the indexed files in id order.
func (e *Evidence) Files() []*FileTokens {
	return e.files
}

// HasIdentifier reports whether tok occurs as a whole identifier token in
// any file accepted by filter.
func (e *Evidence) HasIdentifier(tok string, filter Filter) bool {
	return anyAccepted(e.idents[xxhash.Sum64String(tok)], filter)
}

// HasPath reports whether tok occurs as a whole path token in any file
// accepted by filter.
func (e *Evidence) HasPath(tok string, filter Filter) bool {
	return anyAccepted(e.paths[xxhash.Sum64String(tok)], filter)
}

// HasName reports whether name occurs as the last segment of a path token
// in any file accepted by filter.
func (e *Evidence) HasName(name string, filter Filter) bool {
	return anyAccepted(e.names[xxhash.Sum64String(name)], filter)
}

// Search reports whether s occurs in the content of an accepted file without
// being part of a longer path token. It handles strings that the tokenizer
// would split, such as paths containing spaces.
func (e *Evidence) Search(s string, filter Filter) bool {
	if s == "" {
		return false
	}
	needle := []byte(s)
	for _, ft := range e.files {
		if filter != nil && !filter(ft.ID) {
			continue
		}
		content := ft.Content
		offset := 0
		for {
			i := bytes.Index(content[offset:], needle)
			if i < 0 {
				break
			}
			if dart.BoundedAt(content, offset+i, len(needle)) {
				return true
			}
			offset += i + 1
		}
	}
	return false
}

func anyAccepted(ids []source.FileID, filter Filter) bool {
	if filter == nil {
		return len(ids) > 0
	}
	for _, id := range ids {
		if filter(id) {
			return true
		}
	}
	return false
}
