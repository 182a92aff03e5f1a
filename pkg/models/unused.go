package models

import (
	"cmp"
	"slices"
)

// Kind identifies which checker produced an item.
type Kind string

const (
	KindFile         Kind = "file"
	KindDependency   Kind = "dependency"
	KindAsset        Kind = "asset"
	KindLocalization Kind = "localization"
	KindLocator      Kind = "locator"
)

// Kinds lists every kind in report order.
var Kinds = []Kind{KindFile, KindDependency, KindAsset, KindLocalization, KindLocator}

// Item is one declared resource that is never reachably used.
type Item struct {
	Kind   Kind   `json:"kind" toon:"kind"`
	ID     string `json:"id" toon:"id"`
	File   string `json:"file" toon:"file"`
	Line   int    `json:"line,omitempty" toon:"line,omitempty"`
	Detail string `json:"detail,omitempty" toon:"detail,omitempty"`
	Size   int64  `json:"size,omitempty" toon:"size,omitempty"` // bytes, assets only
}

// SortItems orders items by file, line, then id.
func SortItems(items []Item) {
	slices.SortFunc(items, func(a, b Item) int {
		return cmp.Or(
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.ID, b.ID),
		)
	})
}

// UnresolvedDirective is a directive whose target matched no project file.
type UnresolvedDirective struct {
	File   string `json:"file" toon:"file"`
	Line   int    `json:"line" toon:"line"`
	Target string `json:"target" toon:"target"`
	Reason string `json:"reason" toon:"reason"`
}

// Cycle is a set of files that import each other.
type Cycle struct {
	Files []string `json:"files" toon:"files"`
}

// Summary counts the outcome of a run.
type Summary struct {
	CodeFiles      int          `json:"code_files" toon:"code_files"`
	ReachableFiles int          `json:"reachable_files" toon:"reachable_files"`
	Edges          int          `json:"edges" toon:"edges"`
	Unresolved     int          `json:"unresolved" toon:"unresolved"`
	Unused         map[Kind]int `json:"unused" toon:"unused"`
	TotalUnused    int          `json:"total_unused" toon:"total_unused"`
}
