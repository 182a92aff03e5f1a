// Package deps reports declared package dependencies that reachable code
// never uses.
package deps

import (
	"fmt"

	"github.com/panbanda/unused/pkg/analyzer/heuristic"
	"github.com/panbanda/unused/pkg/manifest"
	"github.com/panbanda/unused/pkg/models"
	"github.com/panbanda/unused/pkg/source"
)

// Check returns the dependencies in declared that match no ignore glob and
// are neither imported by a reachable file (imported holds the package names
// of ExternalPackage directives) nor mentioned as a whole identifier token.
func Check(declared []manifest.Dependency, imported map[string]bool, ev *heuristic.Evidence, ignore []string) []models.Item {
	var items []models.Item
	for _, dep := range declared {
		if source.MatchAny(ignore, dep.Name) || imported[dep.Name] {
			continue
		}
		if ev != nil && ev.HasIdentifier(dep.Name, nil) {
			continue
		}

		section := "dependencies"
		if dep.Dev {
			section = "dev_dependencies"
		}
		items = append(items, models.Item{
			Kind:   models.KindDependency,
			ID:     dep.Name,
			File:   manifest.FileName,
			Line:   dep.Line,
			Detail: fmt.Sprintf("%s (%s %s)", section, dep.Source, dep.Constraint),
		})
	}
	return items
}
