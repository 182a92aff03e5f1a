package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if len(cfg.Entries) != 1 || cfg.Entries[0] != "lib/main.dart" {
		t.Errorf("Entries = %v, want [lib/main.dart]", cfg.Entries)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0] != "lib" {
		t.Errorf("Sources = %v, want [lib]", cfg.Sources)
	}

	if !cfg.Checks.Files || !cfg.Checks.Dependencies || !cfg.Checks.Assets ||
		!cfg.Checks.Localization || !cfg.Checks.Locator {
		t.Error("all checks should be enabled by default")
	}

	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if !cfg.IsExcludedDir(".dart_tool") || !cfg.IsExcludedDir("build") {
		t.Error(".dart_tool and build should be excluded by default")
	}
	if cfg.IsExcludedDir("lib") {
		t.Error("lib must not be excluded")
	}

	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "unused.toml")

	content := `
entries = ["lib/main_dev.dart", "lib/main_prod.dart"]

[checks]
locator = false

[dependencies]
ignore = ["cupertino_icons"]
include_dev = true

[output]
format = "json"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"lib/main_dev.dart", "lib/main_prod.dart"}, cfg.Entries)
	assert.False(t, cfg.Checks.Locator)
	assert.True(t, cfg.Checks.Files, "unset keys keep their defaults")
	assert.Equal(t, []string{"cupertino_icons"}, cfg.Dependencies.Ignore)
	assert.True(t, cfg.Dependencies.IncludeDev)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, []string{"lib"}, cfg.Sources)
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "unused.config.yaml")

	content := `
assets:
  ignore:
    - assets/icons/**
  match_file_name: true
localization:
  class_names: [Strings]
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"assets/icons/**"}, cfg.Assets.Ignore)
	assert.True(t, cfg.Assets.MatchFileName)
	assert.Equal(t, []string{"Strings"}, cfg.Localization.ClassNames)
}

func TestLoadLegacyConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "unused.config.yaml")

	content := `
format_ignore:
  - lib/generated/**
assets:
  ignore:
    - assets/x.png
deps:
  ignore:
    - cupertino_icons
dependencies:
  ignore:
    - flutter_lints
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"assets/x.png"}, cfg.Assets.Ignore)
	assert.Equal(t, []string{"flutter_lints", "cupertino_icons"}, cfg.Dependencies.Ignore)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"misspelled section", "unused.yaml", "dependancies:\n  ignore: [http]\n"},
		{"misspelled nested key", "unused.toml", "[assets]\nignores = [\"a.png\"]\n"},
		{"wrong type", "unused.json", `{"checks": {"files": "yes"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), path)

			_, err = LoadOrDefault(filepath.Dir(path))
			assert.Error(t, err)
		})
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "unused.json")

	content := `{"locator": {"names": ["di"]}, "output": {"verbose": true}}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"di"}, cfg.Locator.Names)
	assert.True(t, cfg.Output.Verbose)
}

func TestLoadInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "unused.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("entries = [\n"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("no config file", func(t *testing.T) {
		cfg, err := LoadOrDefault(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("finds hidden yaml", func(t *testing.T) {
		tmpDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".unused.yaml"), []byte("sources: [lib, bin]\n"), 0644))

		cfg, err := LoadOrDefault(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, []string{"lib", "bin"}, cfg.Sources)
	})

	t.Run("prefers toml", func(t *testing.T) {
		tmpDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "unused.toml"), []byte("sources = [\"a\"]\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "unused.yaml"), []byte("sources: [b]\n"), 0644))

		assert.Equal(t, filepath.Join(tmpDir, "unused.toml"), Find(tmpDir))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"no entries", func(c *Config) { c.Entries = nil }, true},
		{"blank entry", func(c *Config) { c.Entries = []string{" "} }, true},
		{"no sources", func(c *Config) { c.Sources = nil }, true},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, true},
		{"toon format", func(c *Config) { c.Output.Format = "toon" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChecksAny(t *testing.T) {
	assert.True(t, DefaultConfig().Checks.Any())
	assert.False(t, ChecksConfig{}.Any())
	assert.True(t, ChecksConfig{Locator: true}.Any())
}
