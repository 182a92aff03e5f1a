package assets

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/panbanda/unused/pkg/analyzer/heuristic"
	"github.com/panbanda/unused/pkg/dart"
	"github.com/panbanda/unused/pkg/manifest"
	"github.com/panbanda/unused/pkg/models"
	"github.com/panbanda/unused/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func testIndex() *source.Index {
	return source.NewIndex([]source.File{
		{Path: "assets/images/logo.png", Kind: source.KindAsset, Size: 2048},
		{Path: "assets/images/banner.png", Kind: source.KindAsset, Size: 4096},
		{Path: "assets/images/2.0x/logo.png", Kind: source.KindAsset, Size: 4096},
		{Path: "assets/images/2.0x/banner.png", Kind: source.KindAsset, Size: 8192},
		{Path: "assets/images/nested/deep.png", Kind: source.KindAsset},
		{Path: "assets/data/config.json", Kind: source.KindAsset},
		{Path: "assets/data/my file.txt", Kind: source.KindAsset},
		{Path: "assets/fonts/Inter.ttf", Kind: source.KindAsset},
		{Path: "assets/raw/blob.bin", Kind: source.KindAsset},
		{Path: "lib/main.dart", Kind: source.KindCode},
	})
}

func evidence(src string) *heuristic.Evidence {
	return heuristic.NewEvidence([]*heuristic.FileTokens{
		heuristic.Tokenize(0, dart.StripComments([]byte(src)), "app"),
	})
}

func ids(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestExpand(t *testing.T) {
	c := New(testIndex(), quiet)
	got := c.Expand([]manifest.Asset{
		{Path: "assets/images/", Line: 5},
		{Path: "assets/images/logo.png", Line: 6},
		{Path: "assets/missing.png", Line: 7},
		{Path: "assets/empty/", Line: 8},
	})

	var paths []string
	for _, d := range got {
		paths = append(paths, d.File.Path)
		assert.Equal(t, 5, d.Line, "duplicates keep their first entry")
	}
	assert.ElementsMatch(t, []string{
		"assets/images/logo.png",
		"assets/images/banner.png",
		"assets/images/2.0x/logo.png",
		"assets/images/2.0x/banner.png",
	}, paths)

	for _, d := range got {
		if d.File.Path == "assets/images/2.0x/logo.png" {
			assert.Equal(t, "assets/images/logo.png", d.Variant)
		}
	}
}

func TestExpandDirectoryWithoutSlash(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  []string
		warn  string
	}{
		{
			name:  "plain directory",
			entry: "assets/data",
			want:  []string{"assets/data/config.json", "assets/data/my file.txt"},
		},
		{
			name:  "directory with variants",
			entry: "assets/images",
			want: []string{
				"assets/images/logo.png",
				"assets/images/banner.png",
				"assets/images/2.0x/logo.png",
				"assets/images/2.0x/banner.png",
			},
		},
		{
			name:  "missing path",
			entry: "assets/missing",
			warn:  "declared asset not found",
		},
		{
			name:  "prefix of a file name",
			entry: "assets/raw/blo",
			warn:  "declared asset not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			c := New(testIndex(), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
			got := c.Expand([]manifest.Asset{{Path: tt.entry, Line: 9}})

			var paths []string
			for _, d := range got {
				paths = append(paths, d.File.Path)
				assert.Equal(t, 9, d.Line)
			}
			assert.ElementsMatch(t, tt.want, paths)
			if tt.warn != "" {
				assert.Contains(t, logs.String(), tt.warn)
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestCheckDirectoryWithoutSlash(t *testing.T) {
	c := New(testIndex(), quiet)
	items := c.Check([]manifest.Asset{{Path: "assets/data", Line: 4}}, nil, evidence(`load('assets/data/config.json');`))
	assert.Equal(t, []string{"assets/data/my file.txt"}, ids(items))
}

func TestCheck(t *testing.T) {
	entries := []manifest.Asset{
		{Path: "assets/images/", Line: 5},
		{Path: "assets/data/", Line: 6},
		{Path: "assets/fonts/Inter.ttf", Line: 7},
		{Path: "assets/raw/blob.bin", Line: 8},
	}
	ev := evidence(`
Image.asset('assets/images/logo.png');
rootBundle.loadString("assets/data/my file.txt");
// Image.asset('assets/images/banner.png');
`)

	c := New(testIndex(), quiet, WithIgnore([]string{"assets/raw/**"}))
	items := c.Check(entries, []string{"assets/fonts/Inter.ttf"}, ev)

	assert.ElementsMatch(t, []string{
		"assets/images/banner.png",
		"assets/images/2.0x/banner.png",
		"assets/data/config.json",
	}, ids(items))

	for _, it := range items {
		assert.Equal(t, models.KindAsset, it.Kind)
		switch it.ID {
		case "assets/images/banner.png":
			assert.Equal(t, int64(4096), it.Size)
			assert.Equal(t, "declared at pubspec.yaml:5", it.Detail)
		case "assets/images/2.0x/banner.png":
			assert.Equal(t, "resolution variant of assets/images/banner.png, declared at pubspec.yaml:5", it.Detail)
		}
	}
}

func TestCheckFileNameMatching(t *testing.T) {
	entries := []manifest.Asset{{Path: "assets/data/config.json", Line: 3}}
	ev := evidence(`load(dir + '/config.json');`)

	strict := New(testIndex(), quiet)
	require.Len(t, strict.Check(entries, nil, ev), 1)

	loose := New(testIndex(), quiet, WithFileNameMatching(true))
	assert.Empty(t, loose.Check(entries, nil, ev))
}

func TestCheckSelfPackagePrefix(t *testing.T) {
	entries := []manifest.Asset{{Path: "assets/images/logo.png", Line: 3}}
	ev := evidence(`SvgPicture.asset('packages/app/assets/images/logo.png');`)

	assert.Empty(t, New(testIndex(), quiet).Check(entries, nil, ev))
}
