package manifest

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePubspec = `name: shop_app
description: A sample app.
version: 1.0.0+1

environment:
  sdk: ">=3.0.0 <4.0.0"

dependencies:
  flutter:
    sdk: flutter
  http: ^1.1.0
  local_pkg:
    path: ../local_pkg
  forked:
    git:
      url: https://example.com/forked.git
      ref: main
  private_pkg:
    hosted: https://pub.example.com
    version: ^2.0.0
  anything:

dev_dependencies:
  flutter_test:
    sdk: flutter
  build_runner: ^2.4.0

flutter:
  uses-material-design: true
  assets:
    - assets/images/
    - ./assets/data/config.json
    - path: assets/flavored/
      flavors: [dev]
  fonts:
    - family: Inter
      fonts:
        - asset: assets/fonts/Inter-Regular.ttf
        - asset: assets/fonts/Inter-Bold.ttf
          weight: 700

flutter_intl:
  enabled: true
  class_name: Strings
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(samplePubspec))
	require.NoError(t, err)

	assert.Equal(t, "shop_app", m.Name)

	require.Len(t, m.Dependencies, 6)
	tests := []struct {
		name       string
		source     Source
		constraint string
		line       int
	}{
		{"flutter", SourceSDK, "flutter", 9},
		{"http", SourceVersion, "^1.1.0", 11},
		{"local_pkg", SourcePath, "../local_pkg", 12},
		{"forked", SourceGit, "https://example.com/forked.git", 14},
		{"private_pkg", SourceHosted, "^2.0.0", 18},
		{"anything", SourceVersion, "any", 21},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep := m.Dependencies[i]
			assert.Equal(t, tt.name, dep.Name)
			assert.Equal(t, tt.source, dep.Source)
			assert.Equal(t, tt.constraint, dep.Constraint)
			assert.Equal(t, tt.line, dep.Line)
			assert.False(t, dep.Dev)
		})
	}

	require.Len(t, m.DevDependencies, 2)
	assert.Equal(t, "build_runner", m.DevDependencies[1].Name)
	assert.True(t, m.DevDependencies[1].Dev)

	require.Len(t, m.Assets, 3)
	assert.Equal(t, "assets/images/", m.Assets[0].Path)
	assert.True(t, m.Assets[0].IsDir())
	assert.Equal(t, 31, m.Assets[0].Line)
	assert.Equal(t, "assets/data/config.json", m.Assets[1].Path)
	assert.False(t, m.Assets[1].IsDir())
	assert.Equal(t, "assets/flavored/", m.Assets[2].Path)
	assert.Equal(t, []string{"dev"}, m.Assets[2].Flavors)

	assert.Equal(t, []string{"assets/fonts/Inter-Bold.ttf", "assets/fonts/Inter-Regular.ttf"}, m.FontFiles())

	assert.True(t, m.Intl.Enabled)
	assert.Equal(t, "Strings", m.Intl.ClassName)
	assert.Equal(t, "lib/l10n", m.Intl.ArbDir)
	assert.Equal(t, "en", m.Intl.MainLocale)
	assert.Equal(t, []string{"Strings"}, m.LocalizationClasses())
	assert.Equal(t, []string{"lib/l10n"}, m.ArbDirs())
}

func TestParseMinimal(t *testing.T) {
	m, err := Parse([]byte("name: tiny\n"))
	require.NoError(t, err)

	assert.Empty(t, m.Dependencies)
	assert.Empty(t, m.Assets)
	assert.False(t, m.Intl.Enabled)
	assert.Equal(t, []string{"S", "AppLocalizations"}, m.LocalizationClasses())
	assert.Empty(t, m.ArbDirs())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no name", "dependencies:\n  http: any\n"},
		{"invalid yaml", "name: [unterminated\n"},
		{"dependencies not a map", "name: x\ndependencies:\n  - http\n"},
		{"assets not a list", "name: x\nflutter:\n  assets: images/\n"},
		{"asset without path", "name: x\nflutter:\n  assets:\n    - flavors: [dev]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestAllDependencies(t *testing.T) {
	m, err := Parse([]byte(samplePubspec))
	require.NoError(t, err)

	assert.Len(t, m.AllDependencies(false), 6)
	assert.Len(t, m.AllDependencies(true), 8)
}

func TestLoad(t *testing.T) {
	t.Run("with l10n.yaml", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/proj/pubspec.yaml", []byte("name: app\n"), 0644))
		require.NoError(t, afero.WriteFile(fs, "/proj/l10n.yaml", []byte("arb-dir: lib/i18n\ntemplate-arb-file: intl_en.arb\n"), 0644))

		m, err := Load(fs, "/proj")
		require.NoError(t, err)
		assert.True(t, m.GenL10n.Present)
		assert.Equal(t, "lib/i18n", m.GenL10n.ArbDir)
		assert.Equal(t, "intl_en.arb", m.GenL10n.TemplateFile)
		assert.Equal(t, "AppLocalizations", m.GenL10n.OutputClass)
		assert.Equal(t, []string{"AppLocalizations"}, m.LocalizationClasses())
		assert.Equal(t, []string{"lib/i18n"}, m.ArbDirs())
	})

	t.Run("missing manifest", func(t *testing.T) {
		_, err := Load(afero.NewMemMapFs(), "/proj")
		require.Error(t, err)

		var merr *Error
		assert.True(t, errors.As(err, &merr))
	})

	t.Run("invalid manifest", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/proj/pubspec.yaml", []byte("description: nameless\n"), 0644))

		_, err := Load(fs, "/proj")
		assert.ErrorIs(t, err, ErrNoName)
	})
}
