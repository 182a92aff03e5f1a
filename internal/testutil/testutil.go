// Package testutil builds in-memory Flutter projects for tests.
package testutil

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"
)

// Root is where Project places its files.
const Root = "/proj"

// MemFS creates an in-memory filesystem for testing.
func MemFS() afero.Fs {
	return afero.NewMemMapFs()
}

// WriteFile writes content to a file in the given filesystem.
func WriteFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// CreateFileTree creates multiple files from a map of path -> content.
// Files are written in path order so failures are reproducible.
func CreateFileTree(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		WriteFile(t, fs, filepath.Join(root, filepath.FromSlash(name)), files[name])
	}
}

// Project writes files under Root in a fresh in-memory filesystem. A
// minimal pubspec.yaml is added unless files provides one.
func Project(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := MemFS()
	if _, ok := files["pubspec.yaml"]; !ok {
		WriteFile(t, fs, filepath.Join(Root, "pubspec.yaml"), "name: app\n")
	}
	CreateFileTree(t, fs, Root, files)
	return fs
}
