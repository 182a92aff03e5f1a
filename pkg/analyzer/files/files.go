// Package files reports source files that no entry point reaches.
package files

import (
	"github.com/panbanda/unused/pkg/analyzer/graph"
	"github.com/panbanda/unused/pkg/models"
	"github.com/panbanda/unused/pkg/source"
)

// Check returns every code file outside reach, except files matching one of
// the ignore globs. Entries are always reachable and never reported.
func Check(index *source.Index, reach *graph.ReachableSet, ignore []string) []models.Item {
	var items []models.Item
	for _, f := range index.OfKind(source.KindCode) {
		if reach.Contains(f.ID) || source.MatchAny(ignore, f.Path) {
			continue
		}
		items = append(items, models.Item{
			Kind:   models.KindFile,
			ID:     f.Path,
			File:   f.Path,
			Detail: "not reachable from any entry point",
		})
	}
	return items
}
