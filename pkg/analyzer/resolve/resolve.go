// Package resolve maps directive targets to project files.
package resolve

import (
	"path"
	"strings"

	"github.com/panbanda/unused/pkg/dart"
	"github.com/panbanda/unused/pkg/source"
)

// Resolution is the outcome of resolving one directive. It is one of
// Resolved, ExternalPackage or Unresolvable.
type Resolution interface {
	resolution()
}

// Resolved points at a scanned code file.
type Resolved struct {
	ID   source.FileID
	Path string
}

// ExternalPackage names another package; its files are never followed.
type ExternalPackage struct {
	Name string
}

// Unresolvable is a target that could not be mapped to a project file.
type Unresolvable struct {
	Raw    string
	Reason string
}

func (Resolved) resolution()        {}
func (ExternalPackage) resolution() {}
func (Unresolvable) resolution()    {}

// Reasons reported in Unresolvable.
const (
	ReasonMissing      = "target not found"
	ReasonEscapesRoot  = "target escapes project root"
	ReasonAbsolute     = "absolute path"
	ReasonScheme       = "unsupported scheme"
	ReasonEmptyPackage = "missing package name"
)

// Resolver resolves directive targets within one project.
type Resolver struct {
	pkg   string
	index *source.Index
}

// New creates a resolver for the package named pkg.
func New(pkg string, index *source.Index) *Resolver {
	return &Resolver{pkg: pkg, index: index}
}

// Resolve maps the target of d, found in the file at from, to exactly one
// resolution.
func (r *Resolver) Resolve(from string, d dart.Directive) Resolution {
	target := d.Target

	if rest, ok := strings.CutPrefix(target, "package:"); ok {
		name, sub, _ := strings.Cut(rest, "/")
		if name == "" {
			return Unresolvable{Raw: target, Reason: ReasonEmptyPackage}
		}
		if name != r.pkg {
			return ExternalPackage{Name: name}
		}
		return r.lookup(target, path.Join("lib", sub))
	}

	if hasScheme(target) {
		return Unresolvable{Raw: target, Reason: ReasonScheme}
	}
	if strings.HasPrefix(target, "/") {
		return Unresolvable{Raw: target, Reason: ReasonAbsolute}
	}

	joined := path.Join(path.Dir(from), target)
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return Unresolvable{Raw: target, Reason: ReasonEscapesRoot}
	}
	return r.lookup(target, joined)
}

func (r *Resolver) lookup(raw, p string) Resolution {
	f, ok := r.index.Lookup(p)
	if !ok || f.Kind != source.KindCode {
		return Unresolvable{Raw: raw, Reason: ReasonMissing}
	}
	return Resolved{ID: f.ID, Path: f.Path}
}

// hasScheme reports whether target starts with a URI scheme such as
// "dart:" or "https:".
func hasScheme(target string) bool {
	i := strings.IndexByte(target, ':')
	if i <= 0 {
		return false
	}
	for j := 0; j < i; j++ {
		c := target[j]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !isAlpha && (j == 0 || !(c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.')) {
			return false
		}
	}
	return true
}
