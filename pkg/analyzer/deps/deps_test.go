package deps

import (
	"testing"

	"github.com/panbanda/unused/pkg/analyzer/heuristic"
	"github.com/panbanda/unused/pkg/dart"
	"github.com/panbanda/unused/pkg/manifest"
	"github.com/panbanda/unused/pkg/models"
	"github.com/panbanda/unused/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evidence(srcs ...string) *heuristic.Evidence {
	var files []*heuristic.FileTokens
	for i, s := range srcs {
		files = append(files, heuristic.Tokenize(source.FileID(i), dart.StripComments([]byte(s)), "app"))
	}
	return heuristic.NewEvidence(files)
}

func TestCheck(t *testing.T) {
	declared := []manifest.Dependency{
		{Name: "http", Source: manifest.SourceVersion, Constraint: "^1.0.0", Line: 10},
		{Name: "provider", Source: manifest.SourceVersion, Constraint: "^6.0.0", Line: 11},
		{Name: "json_annotation", Source: manifest.SourceVersion, Constraint: "^4.8.0", Line: 12},
		{Name: "cupertino_icons", Source: manifest.SourceVersion, Constraint: "^1.0.0", Line: 13},
		{Name: "lottie", Source: manifest.SourcePath, Constraint: "../lottie", Line: 14},
		{Name: "build_runner", Source: manifest.SourceVersion, Constraint: "^2.0.0", Dev: true, Line: 20},
	}
	imported := map[string]bool{"http": true}
	ev := evidence(
		`@JsonSerializable() class A {} // provider`,
		`final json_annotation = true;`,
	)

	items := Check(declared, imported, ev, []string{"cupertino_*"})

	require.Len(t, items, 3)
	assert.Equal(t, models.Item{
		Kind:   models.KindDependency,
		ID:     "provider",
		File:   "pubspec.yaml",
		Line:   11,
		Detail: "dependencies (version ^6.0.0)",
	}, items[0])
	assert.Equal(t, "lottie", items[1].ID)
	assert.Equal(t, "dependencies (path ../lottie)", items[1].Detail)
	assert.Equal(t, "build_runner", items[2].ID)
	assert.Equal(t, "dev_dependencies (version ^2.0.0)", items[2].Detail)
}

func TestCheckWithoutEvidence(t *testing.T) {
	declared := []manifest.Dependency{{Name: "http", Line: 1}, {Name: "dio", Line: 2}}
	items := Check(declared, map[string]bool{"dio": true}, nil, nil)

	require.Len(t, items, 1)
	assert.Equal(t, "http", items[0].ID)
}
