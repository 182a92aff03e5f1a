// Package source models the files of a scanned project and the ways their
// content can be read.
package source

import (
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// Kind classifies a scanned file.
type Kind uint8

const (
	KindCode Kind = iota + 1
	KindAsset
	KindLocalization
	KindManifest
)

// String returns the string representation.
func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindAsset:
		return "asset"
	case KindLocalization:
		return "localization"
	case KindManifest:
		return "manifest"
	default:
		return "unknown"
	}
}

// FileID addresses a scanned file. IDs are dense and assigned in path order,
// so they double as indices into Index.Files.
type FileID uint32

// File is a scanned project file. Path is slash-separated and relative to the
// project root.
type File struct {
	ID   FileID
	Path string
	Kind Kind
	Size int64
}

// ContentSource provides file content.
type ContentSource interface {
	// Read returns the content of the file at the project-relative path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads project files from an afero filesystem.
// It is safe for concurrent use as long as the filesystem is.
type FilesystemSource struct {
	fs   afero.Fs
	root string
}

// NewFilesystem creates a source that reads paths relative to root.
func NewFilesystem(fs afero.Fs, root string) *FilesystemSource {
	return &FilesystemSource{fs: fs, root: root}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return afero.ReadFile(f.fs, filepath.Join(f.root, filepath.FromSlash(path)))
}

// Index is the immutable arena of scanned files.
type Index struct {
	files  []File
	byPath map[string]FileID
}

// NewIndex sorts files by path and assigns their IDs.
// Duplicate paths keep the first occurrence.
func NewIndex(files []File) *Index {
	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	idx := &Index{
		files:  make([]File, 0, len(sorted)),
		byPath: make(map[string]FileID, len(sorted)),
	}
	for _, f := range sorted {
		if _, dup := idx.byPath[f.Path]; dup {
			continue
		}
		f.ID = FileID(len(idx.files))
		idx.byPath[f.Path] = f.ID
		idx.files = append(idx.files, f)
	}
	return idx
}

// Len returns the number of files.
func (x *Index) Len() int {
	return len(x.files)
}

// File returns the file with the given ID.
func (x *Index) File(id FileID) File {
	return x.files[id]
}

// Lookup finds a file by project-relative path.
func (x *Index) Lookup(path string) (File, bool) {
	id, ok := x.byPath[path]
	if !ok {
		return File{}, false
	}
	return x.files[id], true
}

// Files returns all files in path order. The slice must not be modified.
func (x *Index) Files() []File {
	return x.files
}

// OfKind returns the files of a kind in path order.
func (x *Index) OfKind(kind Kind) []File {
	var out []File
	for _, f := range x.files {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
